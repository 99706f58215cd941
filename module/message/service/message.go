package service

import (
	"context"
	"time"

	connsvc "LinkChat/module/connection/service"
	msgmodel "LinkChat/module/message/model"
	usermodel "LinkChat/module/user/model"
	"LinkChat/service/relay"
	"LinkChat/service/upload"
	"LinkChat/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service struct {
	messages *mongo.Collection
	conns    *connsvc.Service
	uploads  *upload.Uploader
	relay    *relay.Server
}

func New(db *mongo.Database, conns *connsvc.Service, uploads *upload.Uploader, rly *relay.Server) *Service {
	return &Service{
		messages: db.Collection(msgmodel.CollMessages),
		conns:    conns,
		uploads:  uploads,
		relay:    rly,
	}
}

// EnsureIndexes backs the history query (both directions of a pair).
func (s *Service) EnsureIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "create_time", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "create_time", Value: 1}}},
	})
	return errors.Wrap(err, "ensure message indexes")
}

// Send persists a message and hands it to the relay for real-time
// delivery. The order is fixed: authorization check, optional image
// upload, insert, then deliver. A relay push failure never affects the
// already-persisted message or the caller's response.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text, image string) (*msgmodel.Message, error) {
	if text == "" && image == "" {
		return nil, errs.ErrArgs.WithDetail("message needs text or an image")
	}

	connected, err := s.conns.AreConnected(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, errs.ErrForbidden.WithDetail("you can only message connected users")
	}

	sender, err := primitive.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid sender id")
	}
	receiver, err := primitive.ObjectIDFromHex(receiverID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid receiver id")
	}

	imageURL := ""
	if image != "" {
		imageURL, err = s.uploads.UploadImage(ctx, image)
		if err != nil {
			if errors.Is(err, upload.ErrNotConfigured) {
				return nil, errs.ErrState.WithDetail("image upload not configured")
			}
			return nil, errors.Wrap(err, "upload message image")
		}
	}

	now := time.Now()
	msg := &msgmodel.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		Image:      imageURL,
		CreateTime: now,
		UpdateTime: now,
	}
	res, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)

	s.relay.Deliver(relay.MessageEvent{
		ID:         msg.ID.Hex(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		CreatedAt:  msg.CreateTime,
	})
	return msg, nil
}

// History returns the full two-way conversation, oldest first.
func (s *Service) History(ctx context.Context, userID, peerID string) ([]msgmodel.Message, error) {
	user, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid user id")
	}
	peer, err := primitive.ObjectIDFromHex(peerID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid user id")
	}

	opts := options.Find().SetSort(bson.D{{Key: "create_time", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.M{
		"$or": []bson.M{
			{"sender_id": user, "receiver_id": peer},
			{"sender_id": peer, "receiver_id": user},
		},
	}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	out := []msgmodel.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return out, nil
}

// SidebarUsers lists the accounts the user may chat with (accepted
// connections only, per the messaging gate).
func (s *Service) SidebarUsers(ctx context.Context, userID string) ([]usermodel.User, error) {
	return s.conns.ConnectedUsers(ctx, userID)
}
