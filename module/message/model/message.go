package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollMessages = "messages"

// Message 是一条单聊消息；text 与 image 至少其一非空。
// image 存对象存储返回的 URL，不存原始数据。
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}
