package model

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestViewStatus(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()

	cases := []struct {
		name string
		conn *Connection
		want string
	}{
		{"no relationship", nil, ViewNone},
		{"accepted", &Connection{Requester: me, Recipient: other, Status: StatusAccepted}, ViewConnected},
		{"pending sent by me", &Connection{Requester: me, Recipient: other, Status: StatusPending}, ViewRequestSent},
		{"pending sent to me", &Connection{Requester: other, Recipient: me, Status: StatusPending}, ViewRequestReceived},
		{"rejected", &Connection{Requester: me, Recipient: other, Status: StatusRejected}, ViewNone},
	}
	for _, tc := range cases {
		if got := ViewStatus(tc.conn, me); got != tc.want {
			t.Fatalf("%s: ViewStatus = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPeerAndInvolves(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()
	conn := &Connection{Requester: a, Recipient: b}

	if conn.Peer(a) != b || conn.Peer(b) != a {
		t.Fatal("Peer returned the wrong participant")
	}
	if !conn.Involves(a) || !conn.Involves(b) {
		t.Fatal("Involves false for a participant")
	}
	if conn.Involves(c) {
		t.Fatal("Involves true for a stranger")
	}
}
