package relay

import (
	"encoding/json"
	"sort"
	"testing"
	"time"
)

// connect mimics the register half of the session lifecycle without a
// websocket: admit the session, register it, broadcast presence.
func connect(s *Server, userID string) *Client {
	c := NewClient(userID, nil)
	s.addSession(c)
	s.registry.Register(c)
	s.BroadcastPresence()
	return c
}

// disconnect mimics the exit path of HandleWS.
func disconnect(s *Server, c *Client) {
	c.Close()
	s.removeSession(c)
	s.registry.Deregister(c.UserID, c.ConnID)
	s.BroadcastPresence()
}

// lastFrame drains the client's queue and decodes the most recent frame.
func lastFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	var f *Frame
	for {
		select {
		case payload := <-c.send:
			var decoded Frame
			if err := json.Unmarshal(payload, &decoded); err != nil {
				t.Fatalf("undecodable frame: %v", err)
			}
			f = &decoded
		default:
			return f
		}
	}
}

// frames drains and decodes everything queued on the client.
func frames(t *testing.T, c *Client) []Frame {
	t.Helper()
	var out []Frame
	for {
		select {
		case payload := <-c.send:
			var decoded Frame
			if err := json.Unmarshal(payload, &decoded); err != nil {
				t.Fatalf("undecodable frame: %v", err)
			}
			out = append(out, decoded)
		default:
			return out
		}
	}
}

func presenceUsers(t *testing.T, f *Frame) []string {
	t.Helper()
	if f == nil {
		t.Fatal("no frame received")
	}
	if f.Event != EventOnlineUsers {
		t.Fatalf("event = %q, want %q", f.Event, EventOnlineUsers)
	}
	raw, ok := f.Data.([]interface{})
	if !ok {
		t.Fatalf("presence data is %T, want array", f.Data)
	}
	users := make([]string, 0, len(raw))
	for _, v := range raw {
		users = append(users, v.(string))
	}
	sort.Strings(users)
	return users
}

func TestPresenceBroadcastOnConnectAndDisconnect(t *testing.T) {
	s := NewServer(ServerConfig{})

	h1 := connect(s, "userA")
	if got := presenceUsers(t, lastFrame(t, h1)); len(got) != 1 || got[0] != "userA" {
		t.Fatalf("presence after A connects = %v, want [userA]", got)
	}

	h2 := connect(s, "userB")
	want := []string{"userA", "userB"}
	for _, h := range []*Client{h1, h2} {
		got := presenceUsers(t, lastFrame(t, h))
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("presence after B connects = %v, want %v", got, want)
		}
	}

	disconnect(s, h2)
	if got := presenceUsers(t, lastFrame(t, h1)); len(got) != 1 || got[0] != "userA" {
		t.Fatalf("presence after B disconnects = %v, want [userA]", got)
	}
}

func TestDeliverToOfflineRecipientIsNoop(t *testing.T) {
	s := NewServer(ServerConfig{})
	h1 := connect(s, "userA")
	_ = frames(t, h1) // drop the connect-time presence frame

	s.Deliver(MessageEvent{ID: "m1", SenderID: "userA", ReceiverID: "userB", Text: "hi"})

	if got := frames(t, h1); len(got) != 0 {
		t.Fatalf("sender received %d frames for an offline-recipient delivery, want 0", len(got))
	}
}

func TestDeliverReachesEveryRecipientSessionOnce(t *testing.T) {
	s := NewServer(ServerConfig{})
	sender := connect(s, "userA")
	tab1 := connect(s, "userB")
	tab2 := connect(s, "userB")
	for _, h := range []*Client{sender, tab1, tab2} {
		_ = frames(t, h)
	}

	s.Deliver(MessageEvent{ID: "m1", SenderID: "userA", ReceiverID: "userB", Text: "hi", CreatedAt: time.Now()})

	for i, h := range []*Client{tab1, tab2} {
		got := frames(t, h)
		if len(got) != 1 {
			t.Fatalf("tab%d received %d frames, want exactly 1", i+1, len(got))
		}
		if got[0].Event != EventNewMessage {
			t.Fatalf("tab%d event = %q, want %q", i+1, got[0].Event, EventNewMessage)
		}
		data := got[0].Data.(map[string]interface{})
		if data["_id"] != "m1" || data["senderId"] != "userA" || data["text"] != "hi" {
			t.Fatalf("tab%d payload = %v", i+1, data)
		}
	}
	if got := frames(t, sender); len(got) != 0 {
		t.Fatalf("sender received %d frames, want 0", len(got))
	}
}

func TestMultiSessionUserStaysOnlineAfterOneClose(t *testing.T) {
	s := NewServer(ServerConfig{})
	h1 := connect(s, "userA")
	h2 := connect(s, "userA")
	watcher := connect(s, "userB")
	_ = frames(t, watcher)

	disconnect(s, h1)

	if !s.Registry().IsOnline("userA") {
		t.Fatal("userA offline while a second session is live")
	}
	got := presenceUsers(t, lastFrame(t, watcher))
	if len(got) != 2 {
		t.Fatalf("presence after closing one of two sessions = %v, want both users", got)
	}

	_ = frames(t, h2) // clear the presence frames queued so far

	s.Deliver(MessageEvent{ID: "m2", SenderID: "userB", ReceiverID: "userA"})
	if n := len(frames(t, h2)); n != 1 {
		t.Fatalf("surviving session received %d message frames, want 1", n)
	}
}

func TestPushToClosedHandleDoesNotPropagate(t *testing.T) {
	s := NewServer(ServerConfig{})
	h := connect(s, "userA")
	h.Close()

	// Stale handle from before the close: pushes must be swallowed.
	s.Deliver(MessageEvent{ID: "m1", SenderID: "userB", ReceiverID: "userA"})
	s.BroadcastPresence()
	h.TrySend([]byte(`{"event":"x"}`))
}

func TestTrySendNeverBlocksOnBackloggedSession(t *testing.T) {
	c := NewClient("userA", nil)
	payload := []byte(`{"event":"x"}`)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendQueueSize*2; i++ {
			c.TrySend(payload)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("TrySend blocked on a full queue")
	}
	if n := len(c.send); n != sendQueueSize {
		t.Fatalf("queue holds %d frames, want it capped at %d", n, sendQueueSize)
	}
}

func TestPresenceFrameEncodesEmptySetAsArray(t *testing.T) {
	payload, err := BuildPresenceFrame(nil)
	if err != nil {
		t.Fatalf("BuildPresenceFrame: %v", err)
	}
	want := `{"event":"getOnlineUsers","data":[]}`
	if string(payload) != want {
		t.Fatalf("frame = %s, want %s", payload, want)
	}
}
