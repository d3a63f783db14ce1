package engine

import (
	"context"
	"log/slog"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// PageProducer computes the page at an index on demand. Returning a nil
// page (or an error) means there is no page at that index; the engine
// rolls the position back and renders nothing.
type PageProducer func(index int) (*Page, error)

// lazyPager pages through producer-supplied content with an unknown upper
// bound, so it carries no skip/goto icons. When caching is enabled the
// cache is monotonic: a page is stored once, at the moment it is first
// produced, never overwritten, and never stored for a failed or absent
// index. It is keyed by page index because index 0 is rendered by the
// setup caller and may never pass through the producer at all.
type lazyPager struct {
	producer PageProducer
	caching  bool

	pos   int
	cache map[int]Page
}

func newLazyPager(producer PageProducer, caching bool) *lazyPager {
	lp := &lazyPager{producer: producer, caching: caching}
	if caching {
		lp.cache = make(map[int]Page)
	}
	return lp
}

// pageAt returns the page for an index, from cache when possible. ok is
// false when the producer has no page there.
func (lp *lazyPager) pageAt(s *session, index int) (Page, bool) {
	if lp.caching {
		if pg, ok := lp.cache[index]; ok {
			return pg, true
		}
	}

	pg, err := lp.producer(index)
	if err != nil {
		slog.Debug("page producer failed, treating as end of data",
			"session", s.id, "index", index, "error", err)
		return Page{}, false
	}
	if pg == nil {
		return Page{}, false
	}

	if lp.caching {
		lp.cache[index] = *pg
	}
	return *pg, true
}

func (lp *lazyPager) handle(ctx context.Context, s *session, ev ReactionEvent) outcome {
	ctrl, ok := s.engine.emotes.Match(ev.Icon)
	if !ok {
		return rearm
	}

	next := lp.pos
	switch ctrl {
	case emote.Previous:
		if lp.pos == 0 {
			return rearm
		}
		next = lp.pos - 1
	case emote.Next:
		next = lp.pos + 1
	case emote.Cancel:
		return ended
	default:
		// Skip/goto have no meaning without a known last page.
		return rearm
	}

	pg, ok := lp.pageAt(s, next)
	if !ok {
		return rearm
	}
	if s.render(ctx, pg) {
		lp.pos = next
	}
	return rearm
}
