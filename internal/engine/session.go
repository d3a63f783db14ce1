package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// fetchTimeout bounds the synchronous message re-fetch performed before
// handling an event. A failed or slow fetch drops the event.
const fetchTimeout = 5 * time.Second

// outcome is what a variant's handle call tells the session to do next.
type outcome int

const (
	// rearm: the event was accepted; slide the idle window.
	rearm outcome = iota
	// dropped: the event was not accepted; leave the timer alone.
	dropped
	// ended: the variant asked for the session to finish (cancel icon).
	ended
)

// variant is the per-mode navigation state machine. handle runs with the
// session lock held, so implementations never see concurrent calls.
type variant interface {
	handle(ctx context.Context, s *session, ev ReactionEvent) outcome
}

// session is the live state bound to one interactive message. All mutable
// state (variant navigation fields, timer) is guarded by mu; at most one
// handle execution runs at a time while unrelated sessions proceed in
// parallel.
type session struct {
	id  uuid.UUID
	ref MessageRef

	engine  *Engine
	variant variant

	timeout     time.Duration
	canInteract func(userID string) bool
	onCancel    func()

	mu       sync.Mutex
	done     bool
	timer    *time.Timer
	timerGen uint64
}

// accept routes one inbound event through the session. Order matters:
// bot filter, message-identity check, authorization, bounded re-fetch,
// variant handling, timer rearm, reaction auto-retract.
func (s *session) accept(ev ReactionEvent) {
	if ev.IsBot {
		return
	}
	if ev.MessageID != s.ref.MessageID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}

	if s.canInteract != nil && !s.canInteract(ev.UserID) {
		slog.Debug("reaction rejected by interact predicate",
			"session", s.id, "user_id", ev.UserID)
		return
	}

	// Read back the live message before mutating anything. A vanished
	// message means the event is stale; drop it and stay armed.
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	if _, err := s.engine.client.FetchMessage(ctx, s.ref); err != nil {
		slog.Debug("reaction dropped, message fetch failed",
			"session", s.id, "message_id", ev.MessageID, "error", err)
		return
	}

	switch s.variant.handle(ctx, s, ev) {
	case dropped:
		return
	case ended:
		s.stripReactionsLocked(ctx)
		s.finishLocked()
		return
	case rearm:
		s.engine.sched.arm(s, s.timeout)
	}

	if ev.Added && ev.GuildID != "" && s.engine.policies().RemoveOnReact {
		s.engine.retractAsync(s.ref, ev.Icon, ev.UserID)
	}
}

// render edits the message in place and reports success. Failures are
// swallowed here; callers must not commit navigation state when it
// returns false.
func (s *session) render(ctx context.Context, pg Page) bool {
	if err := s.engine.client.EditMessage(ctx, s.ref, pg); err != nil {
		slog.Warn("page render failed",
			"session", s.id, "message_id", s.ref.MessageID, "error", err)
		return false
	}
	return true
}

// expire is the timer callback: strip the engine's reactions from the
// message, then tear the session down. Racing an explicit cancel is fine;
// the loser sees done and returns. An expiry that fired before a rearm but
// took the lock after it carries a stale generation and is a no-op.
func (s *session) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || gen != s.timerGen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	s.stripReactionsLocked(ctx)
	s.finishLocked()
}

// stripReactionsLocked removes the engine's reactions from the message:
// bulk clear first, then — when the bulk clear is not permitted — fetch
// the message and remove only the bot's own reactions one by one.
// Cleanup failure never blocks teardown. Caller must hold s.mu.
func (s *session) stripReactionsLocked(ctx context.Context) {
	err := s.engine.client.ClearReactions(ctx, s.ref)
	if err == nil {
		return
	}
	if !IsAccess(err) {
		slog.Debug("clear reactions failed",
			"session", s.id, "message_id", s.ref.MessageID, "error", err)
		return
	}

	m, err := s.engine.client.FetchMessage(ctx, s.ref)
	if err != nil {
		slog.Debug("reaction cleanup skipped, message fetch failed",
			"session", s.id, "message_id", s.ref.MessageID, "error", err)
		return
	}
	for _, r := range m.Reactions {
		if !r.Mine {
			continue
		}
		if err := s.engine.client.RemoveOwnReaction(ctx, s.ref, r.Icon); err != nil {
			slog.Debug("own reaction removal failed",
				"session", s.id, "icon", r.Icon.String(), "error", err)
		}
	}
}

// finishLocked destroys the session: stops the timer, removes it from the
// registry, runs the cancel hook, then optionally deletes the message.
// Idempotent; the done flag makes a cancel icon racing timer expiry a
// no-op for whichever fires second. Caller must hold s.mu.
func (s *session) finishLocked() {
	if s.done {
		return
	}
	s.done = true
	s.engine.sched.disarm(s)
	s.engine.reg.removeSession(s)

	if s.onCancel != nil {
		s.onCancel()
	}

	if s.engine.policies().DeleteOnCancel {
		ref := s.ref
		client := s.engine.client
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			if err := client.DeleteMessage(ctx, ref); err != nil {
				slog.Debug("message delete failed",
					"message_id", ref.MessageID, "error", err)
			}
		}()
	}

	slog.Debug("session finished", "session", s.id, "message_id", s.ref.MessageID)
}

// retire silently supersedes a session that was replaced by a new
// registration for the same message. No cancel hook, no delete.
func (s *session) retire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.engine.sched.disarm(s)
	s.engine.reg.removeSession(s)
}

// lookupPage scans a category map with exact icon matching. A plain map
// index is not enough: an inbound custom emote carries both name and ID
// while the configured key may have been given by ID alone.
func lookupPage(categories map[emote.Key]Page, icon emote.Key) (Page, emote.Key, bool) {
	for k, pg := range categories {
		if k.Equals(icon) {
			return pg, k, true
		}
	}
	return Page{}, emote.Key{}, false
}
