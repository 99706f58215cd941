package service

import (
	"context"
	"time"

	connmodel "LinkChat/module/connection/model"
	usermodel "LinkChat/module/user/model"
	"LinkChat/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Service struct {
	conns *mongo.Collection
	users *mongo.Collection
}

func New(db *mongo.Database) *Service {
	return &Service{
		conns: db.Collection(connmodel.CollConnections),
		users: db.Collection(usermodel.CollUsers),
	}
}

// EnsureIndexes enforces one connection document per user pair (per
// direction; the either-direction lookup keeps the pair unique in effect).
func (s *Service) EnsureIndexes(ctx context.Context) error {
	_, err := s.conns.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requester", Value: 1}, {Key: "recipient", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "ensure connection indexes")
}

// UserWithStatus is a discovery-page row: any other account plus the
// viewer-relative relationship tag.
type UserWithStatus struct {
	usermodel.User   `bson:",inline"`
	ConnectionStatus string `json:"connectionStatus"`
}

// ListUsersWithStatus returns every other user tagged with the viewer's
// relationship to them.
func (s *Service) ListUsersWithStatus(ctx context.Context, viewerID string) ([]UserWithStatus, error) {
	viewer, err := parseID(viewerID)
	if err != nil {
		return nil, err
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$ne": viewer}})
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	var all []usermodel.User
	if err := cur.All(ctx, &all); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}

	conns, err := s.involving(ctx, viewer)
	if err != nil {
		return nil, err
	}
	byPeer := make(map[primitive.ObjectID]*connmodel.Connection, len(conns))
	for i := range conns {
		byPeer[conns[i].Peer(viewer)] = &conns[i]
	}

	out := make([]UserWithStatus, 0, len(all))
	for _, u := range all {
		out = append(out, UserWithStatus{
			User:             u,
			ConnectionStatus: connmodel.ViewStatus(byPeer[u.ID], viewer),
		})
	}
	return out, nil
}

// Send files a connection request towards the recipient.
func (s *Service) Send(ctx context.Context, requesterID, recipientID string) (*connmodel.Connection, error) {
	requester, err := parseID(requesterID)
	if err != nil {
		return nil, err
	}
	recipient, err := parseID(recipientID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid recipient id")
	}
	if requester == recipient {
		return nil, errs.ErrArgs.WithDetail("cannot send a request to yourself")
	}

	if n, err := s.users.CountDocuments(ctx, bson.M{"_id": recipient}); err != nil {
		return nil, errors.Wrap(err, "check recipient")
	} else if n == 0 {
		return nil, errs.ErrNotFound.WithDetail("user not found")
	}

	existing, err := s.between(ctx, requester, recipient)
	if err != nil {
		return nil, err
	}
	if err := requestBlock(existing); err != nil {
		return nil, err
	}

	now := time.Now()
	conn := &connmodel.Connection{
		Requester:  requester,
		Recipient:  recipient,
		Status:     connmodel.StatusPending,
		CreateTime: now,
		UpdateTime: now,
	}
	res, err := s.conns.InsertOne(ctx, conn)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrConflict.WithDetail("connection request already exists")
		}
		return nil, errors.Wrap(err, "insert connection")
	}
	conn.ID = res.InsertedID.(primitive.ObjectID)
	return conn, nil
}

// Accept marks a pending request accepted; only the recipient may accept.
func (s *Service) Accept(ctx context.Context, userID, requestID string) (*connmodel.Connection, error) {
	return s.handle(ctx, userID, requestID, connmodel.StatusAccepted)
}

// Reject marks a pending request rejected; only the recipient may reject.
func (s *Service) Reject(ctx context.Context, userID, requestID string) (*connmodel.Connection, error) {
	return s.handle(ctx, userID, requestID, connmodel.StatusRejected)
}

func (s *Service) handle(ctx context.Context, userID, requestID, status string) (*connmodel.Connection, error) {
	user, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	reqID, err := parseID(requestID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid request id")
	}

	conn, err := s.byID(ctx, reqID)
	if err != nil {
		return nil, err
	}
	if conn.Recipient != user {
		return nil, errs.ErrForbidden.WithDetail("only the recipient may handle the request")
	}
	if conn.Status != connmodel.StatusPending {
		return nil, errs.ErrState.WithDetail("request already handled")
	}

	now := time.Now()
	_, err = s.conns.UpdateByID(ctx, conn.ID, bson.M{
		"$set": bson.M{"status": status, "update_time": now},
	})
	if err != nil {
		return nil, errors.Wrap(err, "update connection status")
	}
	conn.Status = status
	conn.UpdateTime = now
	return conn, nil
}

// Remove deletes a connection; only a participant may remove it.
func (s *Service) Remove(ctx context.Context, userID, connectionID string) error {
	user, err := parseID(userID)
	if err != nil {
		return err
	}
	connID, err := parseID(connectionID)
	if err != nil {
		return errs.ErrArgs.WithDetail("invalid connection id")
	}

	conn, err := s.byID(ctx, connID)
	if err != nil {
		return err
	}
	if !conn.Involves(user) {
		return errs.ErrForbidden.WithDetail("not a participant of this connection")
	}

	_, err = s.conns.DeleteOne(ctx, bson.M{"_id": conn.ID})
	return errors.Wrap(err, "delete connection")
}

// ConnectedUsers returns the peer account of every accepted connection.
func (s *Service) ConnectedUsers(ctx context.Context, userID string) ([]usermodel.User, error) {
	user, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	conns, err := s.involvingWithStatus(ctx, user, connmodel.StatusAccepted)
	if err != nil {
		return nil, err
	}
	peers := make([]primitive.ObjectID, 0, len(conns))
	for i := range conns {
		peers = append(peers, conns[i].Peer(user))
	}
	if len(peers) == 0 {
		return []usermodel.User{}, nil
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": peers}})
	if err != nil {
		return nil, errors.Wrap(err, "list connected users")
	}
	var out []usermodel.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode connected users")
	}
	return out, nil
}

// Request is a pending request joined with its counterpart account.
type Request struct {
	connmodel.Connection `bson:",inline"`
	User                 usermodel.User `json:"user"`
}

// Pending lists requests waiting on the user's decision, newest first.
func (s *Service) Pending(ctx context.Context, userID string) ([]Request, error) {
	user, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.requestsWithUsers(ctx, bson.M{"recipient": user, "status": connmodel.StatusPending}, false)
}

// Sent lists the user's own unanswered requests, newest first.
func (s *Service) Sent(ctx context.Context, userID string) ([]Request, error) {
	user, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.requestsWithUsers(ctx, bson.M{"requester": user, "status": connmodel.StatusPending}, true)
}

// AreConnected reports whether an accepted connection exists between the
// two users in either direction. The message-send path gates on this.
func (s *Service) AreConnected(ctx context.Context, aID, bID string) (bool, error) {
	a, err := parseID(aID)
	if err != nil {
		return false, err
	}
	b, err := parseID(bID)
	if err != nil {
		return false, err
	}
	n, err := s.conns.CountDocuments(ctx, bson.M{
		"$or": []bson.M{
			{"requester": a, "recipient": b},
			{"requester": b, "recipient": a},
		},
		"status": connmodel.StatusAccepted,
	})
	if err != nil {
		return false, errors.Wrap(err, "check connection")
	}
	return n > 0, nil
}

func (s *Service) requestsWithUsers(ctx context.Context, filter bson.M, wantRecipient bool) ([]Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "create_time", Value: -1}})
	cur, err := s.conns.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list requests")
	}
	var conns []connmodel.Connection
	if err := cur.All(ctx, &conns); err != nil {
		return nil, errors.Wrap(err, "decode requests")
	}

	out := make([]Request, 0, len(conns))
	for _, conn := range conns {
		other := conn.Requester
		if wantRecipient {
			other = conn.Recipient
		}
		var u usermodel.User
		if err := s.users.FindOne(ctx, bson.M{"_id": other}).Decode(&u); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue // counterpart account deleted; skip the row
			}
			return nil, errors.Wrap(err, "load request counterpart")
		}
		out = append(out, Request{Connection: conn, User: u})
	}
	return out, nil
}

func (s *Service) involving(ctx context.Context, user primitive.ObjectID) ([]connmodel.Connection, error) {
	cur, err := s.conns.Find(ctx, bson.M{
		"$or": []bson.M{{"requester": user}, {"recipient": user}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "list connections")
	}
	var out []connmodel.Connection
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode connections")
	}
	return out, nil
}

func (s *Service) involvingWithStatus(ctx context.Context, user primitive.ObjectID, status string) ([]connmodel.Connection, error) {
	cur, err := s.conns.Find(ctx, bson.M{
		"$or":    []bson.M{{"requester": user}, {"recipient": user}},
		"status": status,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list connections")
	}
	var out []connmodel.Connection
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode connections")
	}
	return out, nil
}

// between loads the connection document for a pair regardless of
// direction; nil means the two users have no relationship.
func (s *Service) between(ctx context.Context, a, b primitive.ObjectID) (*connmodel.Connection, error) {
	var conn connmodel.Connection
	err := s.conns.FindOne(ctx, bson.M{
		"$or": []bson.M{
			{"requester": a, "recipient": b},
			{"requester": b, "recipient": a},
		},
	}).Decode(&conn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find connection between users")
	}
	return &conn, nil
}

// requestBlock maps an existing document onto the conflict that stops a
// new request. Any prior document blocks, rejected included; the pair has
// to remove the old one first.
func requestBlock(existing *connmodel.Connection) error {
	if existing == nil {
		return nil
	}
	if existing.Status == connmodel.StatusAccepted {
		return errs.ErrConflict.WithDetail("already connected")
	}
	return errs.ErrConflict.WithDetail("connection request already exists")
}

func (s *Service) byID(ctx context.Context, id primitive.ObjectID) (*connmodel.Connection, error) {
	var conn connmodel.Connection
	err := s.conns.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("connection not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find connection")
	}
	return &conn, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.ErrArgs.WithDetail("invalid user id")
	}
	return oid, nil
}
