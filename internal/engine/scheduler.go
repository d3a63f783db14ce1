package engine

import "time"

// scheduler arms and disarms the per-session idle-expiry timer. One
// instance is shared by the whole engine. Arming is cancel-then-reschedule
// and is always performed under the session's lock, so two rapid
// interactions can never leave two live timers for one session. A timer
// callback that already fired but has not yet taken the session lock
// carries a stale generation and is ignored after a rearm.
type scheduler struct{}

// arm replaces the session's expiry timer. A non-positive duration
// disables auto-expiry: the session then lives until explicitly cancelled.
// Caller must hold s.mu.
func (sc *scheduler) arm(s *session, d time.Duration) {
	sc.disarm(s)
	s.timerGen++
	if d <= 0 {
		return
	}
	gen := s.timerGen
	s.timer = time.AfterFunc(d, func() { s.expire(gen) })
}

// disarm cancels any pending expiry timer. Caller must hold s.mu.
func (sc *scheduler) disarm(s *session) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
