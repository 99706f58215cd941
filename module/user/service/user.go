package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"LinkChat/logger"
	"LinkChat/module/user/model"
	"LinkChat/service/email"
	"LinkChat/service/upload"
	"LinkChat/tools/errs"
	"LinkChat/tools/ids"
	"LinkChat/tools/security"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var emailRe = regexp.MustCompile(`.+@.+\..+`)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

type Service struct {
	users   *mongo.Collection
	mail    *email.Sender
	uploads *upload.Uploader
	auth    security.Options
}

func New(db *mongo.Database, mail *email.Sender, uploads *upload.Uploader, auth security.Options) *Service {
	return &Service{
		users:   db.Collection(model.CollUsers),
		mail:    mail,
		uploads: uploads,
		auth:    auth,
	}
}

// EnsureIndexes creates the unique account indexes at boot.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return errors.Wrap(err, "ensure user indexes")
}

// Signup creates an unverified local account and mails the verification
// link. No session is issued until the email is verified.
func (s *Service) Signup(ctx context.Context, emailAddr, fullName, password string) (*model.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	fullName = strings.TrimSpace(fullName)

	if !emailRe.MatchString(emailAddr) {
		return nil, errs.ErrArgs.WithDetail("invalid email address")
	}
	if len(fullName) < 3 || len(fullName) > 30 {
		return nil, errs.ErrArgs.WithDetail("full name must be 3-30 characters")
	}
	if len(password) < 6 {
		return nil, errs.ErrArgs.WithDetail("password must be at least 6 characters")
	}

	count, err := s.users.CountDocuments(ctx, bson.M{"email": emailAddr})
	if err != nil {
		return nil, errors.Wrap(err, "count users by email")
	}
	if count > 0 {
		return nil, errs.ErrConflict.WithDetail("email already registered")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := time.Now()
	expiry := now.Add(verifyTokenTTL)
	u := &model.User{
		Email:             emailAddr,
		FullName:          fullName,
		Password:          hash,
		VerifyToken:       ids.NewToken(),
		VerifyTokenExpiry: &expiry,
		CreateTime:        now,
		UpdateTime:        now,
	}
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrConflict.WithDetail("email already registered")
		}
		return nil, errors.Wrap(err, "insert user")
	}
	u.ID = res.InsertedID.(primitive.ObjectID)

	// Mail failures must not fail the signup; the user can re-request.
	go func(to, name, token string) {
		if err := s.mail.SendVerification(to, name, token); err != nil {
			logger.Errorf("[user] verification mail to %s: %v", to, err)
		}
	}(u.Email, u.FullName, u.VerifyToken)

	return u, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (*model.User, string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	u, err := s.findOne(ctx, bson.M{"email": emailAddr})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil, "", errs.ErrUnauthorized.WithDetail("invalid credentials")
		}
		return nil, "", err
	}
	if u.IsGoogleUser && u.Password == "" {
		return nil, "", errs.ErrState.WithDetail("account uses Google sign-in")
	}
	if !security.CheckPassword(u.Password, password) {
		return nil, "", errs.ErrUnauthorized.WithDetail("invalid credentials")
	}
	if !u.EmailVerified {
		return nil, "", errs.ErrEmailNotVerified
	}

	token, _, err := security.Generate(s.auth, u.ID.Hex())
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return u, token, nil
}

// VerifyEmail consumes a verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return errs.ErrArgs.WithDetail("token is required")
	}
	u, err := s.findOne(ctx, bson.M{"verify_token": token})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return errs.ErrArgs.WithDetail("invalid or expired verification token")
		}
		return err
	}
	if u.VerifyTokenExpiry == nil || time.Now().After(*u.VerifyTokenExpiry) {
		return errs.ErrArgs.WithDetail("invalid or expired verification token")
	}

	_, err = s.users.UpdateByID(ctx, u.ID, bson.M{
		"$set":   bson.M{"email_verified": true, "update_time": time.Now()},
		"$unset": bson.M{"verify_token": "", "verify_token_expiry": ""},
	})
	return errors.Wrap(err, "mark email verified")
}

// ResendVerification rotates the token and re-sends the mail. Responds
// success for unknown accounts so the endpoint doesn't leak registrations.
func (s *Service) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	u, err := s.findOne(ctx, bson.M{"email": emailAddr})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil
		}
		return err
	}
	if u.EmailVerified {
		return errs.ErrState.WithDetail("email already verified")
	}

	token := ids.NewToken()
	expiry := time.Now().Add(verifyTokenTTL)
	_, err = s.users.UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{"verify_token": token, "verify_token_expiry": expiry, "update_time": time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, "rotate verify token")
	}
	return s.mail.SendVerification(u.Email, u.FullName, token)
}

// RequestPasswordReset issues a reset token. Same non-leaking behavior.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	u, err := s.findOne(ctx, bson.M{"email": emailAddr})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil
		}
		return err
	}
	if u.IsGoogleUser && u.Password == "" {
		return errs.ErrState.WithDetail("account uses Google sign-in")
	}

	token := ids.NewToken()
	expiry := time.Now().Add(resetTokenTTL)
	_, err = s.users.UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{"reset_token": token, "reset_token_expiry": expiry, "update_time": time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, "store reset token")
	}
	return s.mail.SendPasswordReset(u.Email, u.FullName, token)
}

// ResetPassword consumes a reset token and stores the new hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return errs.ErrArgs.WithDetail("token is required")
	}
	if len(newPassword) < 6 {
		return errs.ErrArgs.WithDetail("password must be at least 6 characters")
	}
	u, err := s.findOne(ctx, bson.M{"reset_token": token})
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return errs.ErrArgs.WithDetail("invalid or expired reset token")
		}
		return err
	}
	if u.ResetTokenExpiry == nil || time.Now().After(*u.ResetTokenExpiry) {
		return errs.ErrArgs.WithDetail("invalid or expired reset token")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	_, err = s.users.UpdateByID(ctx, u.ID, bson.M{
		"$set":   bson.M{"password": hash, "update_time": time.Now()},
		"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
	})
	return errors.Wrap(err, "store new password")
}

// UpdateProfile uploads the new avatar and stores its hosted URL.
func (s *Service) UpdateProfile(ctx context.Context, userID, profilePic string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid user id")
	}
	if profilePic == "" {
		return nil, errs.ErrArgs.WithDetail("profilePic is required")
	}

	url, err := s.uploads.UploadImage(ctx, profilePic)
	if err != nil {
		if errors.Is(err, upload.ErrNotConfigured) {
			return nil, errs.ErrState.WithDetail("image upload not configured")
		}
		return nil, errors.Wrap(err, "upload avatar")
	}

	after := options.After
	res := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"profile_pic": url, "update_time": time.Now()}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	var u model.User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound.WithDetail("user not found")
		}
		return nil, errors.Wrap(err, "update profile")
	}
	return &u, nil
}

// GetByID loads one user.
func (s *Service) GetByID(ctx context.Context, userID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid user id")
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *Service) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}
