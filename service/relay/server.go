package relay

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"LinkChat/logger"
	"LinkChat/service/storage"
	"LinkChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionCookie is the auth cookie the HTTP layer issues at login.
const SessionCookie = "jwt"

type ServerConfig struct {
	Auth security.Options
	// AllowUnverified admits a bare userId query param as the identity when
	// no valid token is presented. Local development only.
	AllowUnverified bool
	// Mirror is the optional redis presence mirror; nil disables it.
	Mirror *storage.Presence
}

// Server owns the registry and the set of all live sessions (registered or
// anonymous) and implements the session lifecycle: admit, register,
// broadcast presence, deliver, deregister.
type Server struct {
	conf     ServerConfig
	registry *ConnRegistry

	mu       sync.Mutex
	sessions map[string]*Client // conn_id -> client, anonymous included
}

func NewServer(conf ServerConfig) *Server {
	return &Server{
		conf:     conf,
		registry: NewConnRegistry(),
		sessions: make(map[string]*Client),
	}
}

// Registry exposes the registry for collaborators that need reachability
// introspection (IsOnline / HandlesFor).
func (s *Server) Registry() *ConnRegistry { return s.registry }

// HandleWS runs one session from handshake to close.
func (s *Server) HandleWS(c *gin.Context) {
	userID := s.identityFrom(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[relay] upgrade error: %v", err)
		return
	}

	client := NewClient(userID, ws)
	s.addSession(client)
	s.registry.Register(client) // no-op for anonymous sessions
	if client.UserID != "" {
		s.mirrorOnline(client.UserID)
	}
	s.BroadcastPresence()
	logger.Infof("[relay] connected conn=%s user=%s", client.ConnID, client.UserID)

	go client.writePump()
	client.readLoop() // blocks until close/error

	// Exit path: deregister unconditionally (idempotent even if never
	// registered), then re-broadcast presence without this session.
	client.Close()
	s.removeSession(client)
	s.registry.Deregister(client.UserID, client.ConnID)
	if client.UserID != "" && !s.registry.IsOnline(client.UserID) {
		s.mirrorOffline(client.UserID)
	}
	s.BroadcastPresence()
	logger.Infof("[relay] disconnected conn=%s user=%s", client.ConnID, client.UserID)
}

// identityFrom resolves the session's user id. A verified session token
// (cookie, bearer header, or token query param) wins; a bare userId query
// param is honored only in AllowUnverified mode. An empty result admits the
// session as anonymous.
func (s *Server) identityFrom(c *gin.Context) string {
	token := ""
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		token = cookie
	}
	if token == "" {
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if token == "" {
		token = c.Query("token")
	}

	if token != "" {
		userID, err := security.Verify(s.conf.Auth, token)
		if err == nil {
			return userID
		}
		logger.Infof("[relay] handshake token rejected: %v", err)
	}

	if s.conf.AllowUnverified {
		return c.Query("userId")
	}
	return ""
}

func (s *Server) addSession(c *Client) {
	s.mu.Lock()
	s.sessions[c.ConnID] = c
	s.mu.Unlock()
}

func (s *Server) removeSession(c *Client) {
	s.mu.Lock()
	delete(s.sessions, c.ConnID)
	s.mu.Unlock()
}

func (s *Server) allSessions() []*Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Client, 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c)
	}
	return out
}

func (s *Server) mirrorOnline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.conf.Mirror.Online(ctx, userID); err != nil {
		logger.Warnf("[relay] presence mirror online user=%s err=%v", userID, err)
	}
}

func (s *Server) mirrorOffline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.conf.Mirror.Offline(ctx, userID); err != nil {
		logger.Warnf("[relay] presence mirror offline user=%s err=%v", userID, err)
	}
}
