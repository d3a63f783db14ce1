package engine

import (
	"context"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// pager navigates a fixed, ordered page list. Position is clamped to
// [0, last]: skip moves shrink near an edge instead of no-opping, and
// goto jumps straight to the bounds.
type pager struct {
	pages      []Page
	skipAmount int
	pos        int
}

func newPager(pages []Page, skipAmount int) *pager {
	if skipAmount < 1 {
		skipAmount = 1
	}
	return &pager{pages: pages, skipAmount: skipAmount}
}

func (p *pager) handle(ctx context.Context, s *session, ev ReactionEvent) outcome {
	ctrl, ok := s.engine.emotes.Match(ev.Icon)
	if !ok {
		// Unrecognized icons still count as activity.
		return rearm
	}

	last := len(p.pages) - 1
	next := p.pos
	switch ctrl {
	case emote.Previous:
		if p.pos > 0 {
			next = p.pos - 1
		}
	case emote.Next:
		if p.pos < last {
			next = p.pos + 1
		}
	case emote.SkipBackward:
		next = p.pos - min(p.skipAmount, p.pos)
	case emote.SkipForward:
		next = p.pos + min(p.skipAmount, last-p.pos)
	case emote.GotoFirst:
		next = 0
	case emote.GotoLast:
		next = last
	case emote.Cancel:
		return ended
	}

	if next != p.pos && s.render(ctx, p.pages[next]) {
		p.pos = next
	}
	return rearm
}
