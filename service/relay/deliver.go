package relay

import "LinkChat/logger"

// Deliver pushes a freshly persisted message to each of the recipient's
// live sessions. Zero sessions is a no-op: there is no store-and-forward,
// an offline recipient sees the message on its next history fetch. The
// caller has already persisted the message and checked that sender and
// recipient are connected; delivery is best-effort on top of that.
func (s *Server) Deliver(ev MessageEvent) {
	handles := s.registry.HandlesFor(ev.ReceiverID)
	if len(handles) == 0 {
		return
	}
	payload, err := BuildMessageFrame(ev)
	if err != nil {
		logger.Errorf("[relay] encode message frame: %v", err)
		return
	}
	for _, c := range handles {
		c.TrySend(payload)
	}
	logger.Debug("[relay] delivered message " + ev.ID + " to " + ev.ReceiverID)
}
