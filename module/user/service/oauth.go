package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"LinkChat/module/user/model"
	"LinkChat/tools/errs"
	"LinkChat/tools/security"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleAuth wraps the OAuth code flow for Google sign-in.
type GoogleAuth struct {
	conf  *oauth2.Config
	users *Service
}

func NewGoogleAuth(c GoogleConfig, users *Service) *GoogleAuth {
	if c.ClientID == "" {
		return nil
	}
	return &GoogleAuth{
		conf: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users: users,
	}
}

// Enabled reports whether Google sign-in is configured.
func (g *GoogleAuth) Enabled() bool { return g != nil }

// AuthURL builds the consent-screen redirect for the given CSRF state.
func (g *GoogleAuth) AuthURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange trades the callback code for a profile, upserts the account and
// issues a session token. Google accounts are born email-verified.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*model.User, string, error) {
	if g == nil {
		return nil, "", errs.ErrState.WithDetail("google sign-in not configured")
	}
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, "", errs.ErrUnauthorized.WithDetail("oauth code exchange failed")
	}
	return g.loginWith(ctx, g.conf.Client(ctx, tok))
}

// LoginWithToken signs in with an access token the browser already holds
// (the client-side Google flow posts it instead of going through the
// redirect). Same upsert and session issue as Exchange.
func (g *GoogleAuth) LoginWithToken(ctx context.Context, accessToken string) (*model.User, string, error) {
	if g == nil {
		return nil, "", errs.ErrState.WithDetail("google sign-in not configured")
	}
	if accessToken == "" {
		return nil, "", errs.ErrArgs.WithDetail("token is required")
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return g.loginWith(ctx, oauth2.NewClient(ctx, src))
}

func (g *GoogleAuth) loginWith(ctx context.Context, client *http.Client) (*model.User, string, error) {
	p, err := fetchProfile(client)
	if err != nil {
		return nil, "", err
	}

	u, err := g.upsert(ctx, p)
	if err != nil {
		return nil, "", err
	}

	session, _, err := security.Generate(g.users.auth, u.ID.Hex())
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return u, session, nil
}

func fetchProfile(client *http.Client) (googleProfile, error) {
	var p googleProfile
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return p, errors.Wrap(err, "fetch google userinfo")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return p, errs.ErrUnauthorized.WithDetail("google rejected the token")
	}
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, errors.Wrap(err, "decode google userinfo")
	}
	if p.ID == "" || p.Email == "" {
		return p, errs.ErrUnauthorized.WithDetail("incomplete google profile")
	}
	p.Email = strings.ToLower(p.Email)
	return p, nil
}

func (g *GoogleAuth) upsert(ctx context.Context, p googleProfile) (*model.User, error) {
	// Existing google account.
	u, err := g.users.findOne(ctx, bson.M{"google_id": p.ID})
	if err == nil {
		return u, nil
	}
	if !errs.ErrNotFound.Is(err) {
		return nil, err
	}

	// Local account with the same email: link it.
	u, err = g.users.findOne(ctx, bson.M{"email": p.Email})
	if err == nil {
		_, uerr := g.users.users.UpdateByID(ctx, u.ID, bson.M{
			"$set": bson.M{
				"google_id":      p.ID,
				"is_google_user": true,
				"email_verified": true,
				"update_time":    time.Now(),
			},
		})
		if uerr != nil {
			return nil, errors.Wrap(uerr, "link google account")
		}
		u.GoogleID = p.ID
		u.IsGoogleUser = true
		u.EmailVerified = true
		return u, nil
	}
	if !errs.ErrNotFound.Is(err) {
		return nil, err
	}

	now := time.Now()
	nu := &model.User{
		Email:         p.Email,
		FullName:      p.Name,
		ProfilePic:    p.Picture,
		GoogleID:      p.ID,
		IsGoogleUser:  true,
		EmailVerified: true,
		CreateTime:    now,
		UpdateTime:    now,
	}
	res, err := g.users.users.InsertOne(ctx, nu)
	if err != nil {
		return nil, errors.Wrap(err, "insert google user")
	}
	nu.ID = res.InsertedID.(primitive.ObjectID)
	return nu, nil
}
