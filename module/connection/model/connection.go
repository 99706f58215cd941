package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollConnections = "connections"

// Connection lifecycle. Messaging between two users is gated on an
// accepted connection in either direction.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Connection 表示一次连接申请及其结果；一条记录覆盖双向关系，
// (requester, recipient) 上建唯一索引防止重复申请。
type Connection struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Requester primitive.ObjectID `bson:"requester" json:"requester"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Status    string             `bson:"status" json:"status"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

// Involves reports whether the user is a participant.
func (c *Connection) Involves(userID primitive.ObjectID) bool {
	return c.Requester == userID || c.Recipient == userID
}

// Peer returns the other participant.
func (c *Connection) Peer(userID primitive.ObjectID) primitive.ObjectID {
	if c.Requester == userID {
		return c.Recipient
	}
	return c.Requester
}

// Viewer-relative status tags as the discovery UI consumes them.
const (
	ViewNone            = "none"
	ViewConnected       = "connected"
	ViewRequestSent     = "request_sent"
	ViewRequestReceived = "request_received"
)

// ViewStatus maps a connection document to the viewer-relative status.
// A nil connection means the two users have no relationship yet.
func ViewStatus(c *Connection, viewer primitive.ObjectID) string {
	if c == nil {
		return ViewNone
	}
	switch c.Status {
	case StatusAccepted:
		return ViewConnected
	case StatusPending:
		if c.Requester == viewer {
			return ViewRequestSent
		}
		return ViewRequestReceived
	default:
		// Rejected requests read as no relationship on the discovery page.
		return ViewNone
	}
}
