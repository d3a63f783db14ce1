package engine

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// paginoCategorizer combines pager navigation over an ordered sequence of
// category maps. Moving the page index renders that index's face page (if
// faces align 1:1 with the groups), swaps the attached reaction set, and
// resets the active category; within an index it behaves like categorizer.
//
// All index moves clamp to [0, last]. The skip-forward bound is the same
// lastIndex clamp the plain pager uses.
type paginoCategorizer struct {
	groups      []map[emote.Key]Page
	faces       []Page
	skipAmount  int
	fastForward bool

	pos       int
	active    emote.Key
	hasActive bool
}

func newPaginoCategorizer(groups []map[emote.Key]Page, faces []Page, skipAmount int, fastForward bool) *paginoCategorizer {
	if skipAmount < 1 {
		skipAmount = 1
	}
	return &paginoCategorizer{
		groups:      groups,
		faces:       faces,
		skipAmount:  skipAmount,
		fastForward: fastForward,
	}
}

func (pc *paginoCategorizer) handle(ctx context.Context, s *session, ev ReactionEvent) outcome {
	if pc.hasActive && pc.active.Equals(ev.Icon) {
		return dropped
	}

	last := len(pc.groups) - 1
	next := pc.pos
	if ctrl, ok := s.engine.emotes.Match(ev.Icon); ok {
		switch ctrl {
		case emote.Previous:
			if pc.pos > 0 {
				next = pc.pos - 1
			}
		case emote.Next:
			if pc.pos < last {
				next = pc.pos + 1
			}
		case emote.SkipBackward:
			next = pc.pos - min(pc.skipAmount, pc.pos)
		case emote.SkipForward:
			next = pc.pos + min(pc.skipAmount, last-pc.pos)
		case emote.GotoFirst:
			next = 0
		case emote.GotoLast:
			next = last
		case emote.Cancel:
			return ended
		}
	}

	if next != pc.pos {
		pc.pos = next
		if len(pc.faces) == len(pc.groups) && !pc.faces[next].IsZero() {
			// The face is decoration for the new index; a failed edit
			// does not undo the move, the reaction swap below is what
			// makes the new index usable.
			s.render(ctx, pc.faces[next])
		}
		pc.hasActive = false
		pc.reattachReactions(ctx, s)
	}

	if pg, key, ok := lookupPage(pc.groups[pc.pos], ev.Icon); ok {
		if s.render(ctx, pg) {
			pc.active = key
			pc.hasActive = true
		}
	}
	return rearm
}

// reattachReactions swaps the message's reaction set for the current
// index: navigation icons plus the index's category icons. Failures are
// logged and ignored; a partially attached set still navigates.
func (pc *paginoCategorizer) reattachReactions(ctx context.Context, s *session) {
	if err := s.engine.client.ClearReactions(ctx, s.ref); err != nil {
		slog.Debug("reaction swap: clear failed",
			"session", s.id, "message_id", s.ref.MessageID, "error", err)
	}
	if err := s.engine.addNavReactions(ctx, s.ref, pc.skipAmount > 1, pc.fastForward); err != nil {
		slog.Debug("reaction swap: nav icons failed",
			"session", s.id, "message_id", s.ref.MessageID, "error", err)
	}
	for k := range pc.groups[pc.pos] {
		if err := s.engine.client.AddReaction(ctx, s.ref, k); err != nil {
			slog.Debug("reaction swap: category icon failed",
				"session", s.id, "icon", k.String(), "error", err)
		}
	}
}
