package emote

import (
	"context"
	"fmt"
	"sync"
)

// GuildFetcher exposes the two guild-level operations the resolver needs.
// The discord adapter implements it.
type GuildFetcher interface {
	// GuildEmoji fetches one custom emote from a guild. It returns an
	// error when the guild does not carry the emote.
	GuildEmoji(ctx context.Context, guildID, emojiID string) (Key, error)
	// Guilds lists the IDs of every guild the bot currently sees.
	Guilds(ctx context.Context) ([]string, error)
}

// Resolver turns a bare custom emote ID into its renderable Key by
// searching guilds. Successful lookups are cached (emote ID → guild ID)
// so repeated resolutions hit a single guild fetch.
type Resolver struct {
	fetcher      GuildFetcher
	lookupGuilds []string

	mu    sync.RWMutex
	cache map[string]string // emote ID → guild ID that carries it
}

// NewResolver creates a resolver. lookupGuilds narrows the fallback search;
// when empty, every discovered guild is tried.
func NewResolver(fetcher GuildFetcher, lookupGuilds []string) *Resolver {
	return &Resolver{
		fetcher:      fetcher,
		lookupGuilds: lookupGuilds,
		cache:        make(map[string]string),
	}
}

// Resolve returns the renderable Key for a custom emote ID. Lookup order:
// the cached guild, then the configured lookup guilds, then every guild
// the bot sees.
func (r *Resolver) Resolve(ctx context.Context, emojiID string) (Key, error) {
	r.mu.RLock()
	guildID, cached := r.cache[emojiID]
	r.mu.RUnlock()

	if cached {
		if k, err := r.fetcher.GuildEmoji(ctx, guildID, emojiID); err == nil {
			return k, nil
		}
		// Stale cache entry; fall through to the full search.
		r.mu.Lock()
		delete(r.cache, emojiID)
		r.mu.Unlock()
	}

	guilds := r.lookupGuilds
	if len(guilds) == 0 {
		var err error
		guilds, err = r.fetcher.Guilds(ctx)
		if err != nil {
			return Key{}, fmt.Errorf("list guilds: %w", err)
		}
	}

	for _, gid := range guilds {
		k, err := r.fetcher.GuildEmoji(ctx, gid, emojiID)
		if err != nil {
			continue
		}
		r.mu.Lock()
		r.cache[emojiID] = gid
		r.mu.Unlock()
		return k, nil
	}

	return Key{}, fmt.Errorf("emote %s not found in any reachable guild", emojiID)
}
