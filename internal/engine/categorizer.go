package engine

import (
	"context"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// categorizer switches between named pages, one per category icon.
// Repressing the active category is a pure drop: no render, no timer
// rearm, no reaction retract.
type categorizer struct {
	categories map[emote.Key]Page

	active    emote.Key
	hasActive bool
}

func newCategorizer(categories map[emote.Key]Page) *categorizer {
	return &categorizer{categories: categories}
}

func (c *categorizer) handle(ctx context.Context, s *session, ev ReactionEvent) outcome {
	if c.hasActive && c.active.Equals(ev.Icon) {
		return dropped
	}

	if s.engine.emotes.Key(emote.Cancel).Equals(ev.Icon) {
		return ended
	}

	if pg, key, ok := lookupPage(c.categories, ev.Icon); ok {
		if s.render(ctx, pg) {
			c.active = key
			c.hasActive = true
		}
	}
	return rearm
}
