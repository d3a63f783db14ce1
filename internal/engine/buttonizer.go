package engine

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// ButtonFunc is the action bound to one buttonizer icon. Errors are not
// propagated anywhere useful mid-interaction, so they are logged and
// swallowed.
type ButtonFunc func(userID string, ref MessageRef) error

// buttonizer invokes arbitrary actions per icon, with no navigation state.
// autoCancel is true only when the caller asked for a cancel button and
// did not bind the cancel icon to an action of their own.
type buttonizer struct {
	actions    map[emote.Key]ButtonFunc
	autoCancel bool
}

func newButtonizer(actions map[emote.Key]ButtonFunc, autoCancel bool) *buttonizer {
	return &buttonizer{actions: actions, autoCancel: autoCancel}
}

func (b *buttonizer) lookup(icon emote.Key) (ButtonFunc, bool) {
	for k, fn := range b.actions {
		if k.Equals(icon) {
			return fn, true
		}
	}
	return nil, false
}

func (b *buttonizer) handle(ctx context.Context, s *session, ev ReactionEvent) outcome {
	if b.autoCancel && s.engine.emotes.Key(emote.Cancel).Equals(ev.Icon) {
		return ended
	}

	fn, ok := b.lookup(ev.Icon)
	if !ok {
		return dropped
	}
	if err := fn(ev.UserID, s.ref); err != nil {
		slog.Warn("button action failed",
			"session", s.id, "icon", ev.Icon.String(), "error", err)
	}
	return rearm
}
