package engine

import (
	"context"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// Page is the renderable content for one page. Embed carries a
// platform-specific rich object (the discord adapter expects a
// *discordgo.MessageEmbed) and takes precedence over Content when set.
type Page struct {
	Content string
	Embed   any
}

// IsZero reports whether the page carries no content.
func (p Page) IsZero() bool {
	return p.Content == "" && p.Embed == nil
}

// MessageRef identifies one message on the platform.
type MessageRef struct {
	ChannelID string
	MessageID string
	GuildID   string // empty outside guilds (DMs)
}

// Reaction is one reaction currently attached to a message. Mine marks
// reactions placed by the bot itself.
type Reaction struct {
	Icon emote.Key
	Mine bool
}

// Message is the engine's view of a fetched message.
type Message struct {
	Ref       MessageRef
	Reactions []Reaction
}

// Client is the platform collaborator the engine issues commands to.
// Implementations must be safe for concurrent use.
type Client interface {
	// EditMessage replaces the message body/embed in place.
	EditMessage(ctx context.Context, ref MessageRef, page Page) error
	// AddReaction attaches a reaction icon as the bot.
	AddReaction(ctx context.Context, ref MessageRef, icon emote.Key) error
	// RemoveUserReaction removes one user's reaction.
	RemoveUserReaction(ctx context.Context, ref MessageRef, icon emote.Key, userID string) error
	// RemoveOwnReaction removes the bot's own reaction.
	RemoveOwnReaction(ctx context.Context, ref MessageRef, icon emote.Key) error
	// ClearReactions removes every reaction from the message.
	ClearReactions(ctx context.Context, ref MessageRef) error
	// DeleteMessage deletes the message.
	DeleteMessage(ctx context.Context, ref MessageRef) error
	// FetchMessage retrieves the message with its current reactions.
	FetchMessage(ctx context.Context, ref MessageRef) (*Message, error)
}

// ReactionEvent is a normalized inbound reaction notification. Added is
// false for reaction-removal events, which drive navigation the same way
// additions do.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	GuildID   string // empty outside guilds
	UserID    string
	IsBot     bool
	Icon      emote.Key
	Added     bool
}

// Listener delivers inbound reaction events. Subscribe returns an
// unsubscribe func; events may arrive concurrently on the platform's own
// goroutines.
type Listener interface {
	Subscribe(handler func(ReactionEvent)) (unsubscribe func(), err error)
}
