package relay

import "LinkChat/logger"

// BroadcastPresence pushes the full online-user snapshot to every live
// session, anonymous ones included: every connected UI reflects global
// presence. Broadcasting the whole set instead of a delta trades bandwidth
// for free client-side reconciliation; connection counts here are small.
func (s *Server) BroadcastPresence() {
	payload, err := BuildPresenceFrame(s.registry.OnlineUsers())
	if err != nil {
		logger.Errorf("[relay] encode presence frame: %v", err)
		return
	}
	for _, c := range s.allSessions() {
		c.TrySend(payload)
	}
}
