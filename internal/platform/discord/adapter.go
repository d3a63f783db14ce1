// Package discord adapts the Discord Bot API (via discordgo) to the
// engine's Client/Listener contracts.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
	"github.com/nextlevelbuilder/pagewheel/internal/engine"
)

// Adapter connects the engine to Discord: gateway reaction events in,
// REST message/reaction operations out. Reaction mutations pass through a
// rate limiter, since Discord throttles them far below the global REST
// limit.
type Adapter struct {
	session *discordgo.Session
	limiter *rate.Limiter

	botUserID string // populated on Start
}

// New creates an adapter from a bot token. reactionRate/burst bound the
// reaction add/remove call rate.
func New(token string, reactionRate float64, burst int) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsGuildEmojis |
		discordgo.IntentsMessageContent

	if reactionRate <= 0 {
		reactionRate = 4
	}
	if burst < 1 {
		burst = 1
	}

	return &Adapter{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(reactionRate), burst),
	}, nil
}

// Start opens the gateway connection and resolves the bot identity.
func (a *Adapter) Start(_ context.Context) error {
	slog.Info("starting discord connection")

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := a.session.User("@me")
	if err != nil {
		a.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	a.botUserID = user.ID

	slog.Info("discord connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the gateway connection.
func (a *Adapter) Stop(_ context.Context) error {
	slog.Info("stopping discord connection")
	return a.session.Close()
}

// Session exposes the underlying discordgo session for callers that need
// operations outside the engine contract (e.g. the demo command).
func (a *Adapter) Session() *discordgo.Session {
	return a.session
}

// Subscribe registers gateway handlers for reaction additions and
// removals; both drive navigation. The returned func detaches them.
func (a *Adapter) Subscribe(handler func(engine.ReactionEvent)) (func(), error) {
	removeAdd := a.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r == nil {
			return
		}
		ev := a.toEvent(r.MessageReaction, true)
		if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
			ev.IsBot = true
		}
		handler(ev)
	})
	removeDel := a.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if r == nil {
			return
		}
		handler(a.toEvent(r.MessageReaction, false))
	})

	return func() {
		removeAdd()
		removeDel()
	}, nil
}

func (a *Adapter) toEvent(r *discordgo.MessageReaction, added bool) engine.ReactionEvent {
	return engine.ReactionEvent{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		IsBot:     a.botUserID != "" && r.UserID == a.botUserID,
		Icon:      keyFromEmoji(r.Emoji),
		Added:     added,
	}
}

// EditMessage replaces the message content or embed in place.
func (a *Adapter) EditMessage(ctx context.Context, ref engine.MessageRef, page engine.Page) error {
	var err error
	if page.Embed != nil {
		embed, ok := page.Embed.(*discordgo.MessageEmbed)
		if !ok {
			return fmt.Errorf("edit message: unsupported embed type %T", page.Embed)
		}
		_, err = a.session.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, embed,
			discordgo.WithContext(ctx))
	} else {
		_, err = a.session.ChannelMessageEdit(ref.ChannelID, ref.MessageID, page.Content,
			discordgo.WithContext(ctx))
	}
	return mapErr("edit message", err)
}

// AddReaction attaches a reaction as the bot, rate-limited.
func (a *Adapter) AddReaction(ctx context.Context, ref engine.MessageRef, icon emote.Key) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	err := a.session.MessageReactionAdd(ref.ChannelID, ref.MessageID, icon.APIName(),
		discordgo.WithContext(ctx))
	return mapErr("add reaction", err)
}

// RemoveUserReaction removes one user's reaction, rate-limited.
func (a *Adapter) RemoveUserReaction(ctx context.Context, ref engine.MessageRef, icon emote.Key, userID string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	err := a.session.MessageReactionRemove(ref.ChannelID, ref.MessageID, icon.APIName(), userID,
		discordgo.WithContext(ctx))
	return mapErr("remove user reaction", err)
}

// RemoveOwnReaction removes the bot's own reaction, rate-limited.
func (a *Adapter) RemoveOwnReaction(ctx context.Context, ref engine.MessageRef, icon emote.Key) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	err := a.session.MessageReactionRemove(ref.ChannelID, ref.MessageID, icon.APIName(), "@me",
		discordgo.WithContext(ctx))
	return mapErr("remove own reaction", err)
}

// ClearReactions removes every reaction. The bulk endpoint only exists in
// guild channels; in DMs the bot removes its own reactions one by one
// (user reactions cannot be touched there anyway).
func (a *Adapter) ClearReactions(ctx context.Context, ref engine.MessageRef) error {
	if ref.GuildID != "" {
		err := a.session.MessageReactionsRemoveAll(ref.ChannelID, ref.MessageID,
			discordgo.WithContext(ctx))
		return mapErr("clear reactions", err)
	}

	m, err := a.FetchMessage(ctx, ref)
	if err != nil {
		return err
	}
	for _, r := range m.Reactions {
		if !r.Mine {
			continue
		}
		if err := a.RemoveOwnReaction(ctx, ref, r.Icon); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMessage deletes the message.
func (a *Adapter) DeleteMessage(ctx context.Context, ref engine.MessageRef) error {
	err := a.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID,
		discordgo.WithContext(ctx))
	return mapErr("delete message", err)
}

// FetchMessage retrieves the message and its current reactions.
func (a *Adapter) FetchMessage(ctx context.Context, ref engine.MessageRef) (*engine.Message, error) {
	m, err := a.session.ChannelMessage(ref.ChannelID, ref.MessageID,
		discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr("fetch message", err)
	}

	out := &engine.Message{Ref: ref}
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		out.Reactions = append(out.Reactions, engine.Reaction{
			Icon: keyFromEmoji(*r.Emoji),
			Mine: r.Me,
		})
	}
	return out, nil
}

// GuildEmoji fetches one custom emote from a guild (emote.GuildFetcher).
func (a *Adapter) GuildEmoji(ctx context.Context, guildID, emojiID string) (emote.Key, error) {
	e, err := a.session.GuildEmoji(guildID, emojiID, discordgo.WithContext(ctx))
	if err != nil {
		return emote.Key{}, mapErr("fetch guild emoji", err)
	}
	return emote.Custom(e.Name, e.ID), nil
}

// Guilds lists the IDs of every guild in the gateway state.
func (a *Adapter) Guilds(_ context.Context) ([]string, error) {
	state := a.session.State
	if state == nil {
		return nil, fmt.Errorf("session state unavailable")
	}
	state.RLock()
	defer state.RUnlock()
	ids := make([]string, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func keyFromEmoji(e discordgo.Emoji) emote.Key {
	if e.ID != "" {
		return emote.Custom(e.Name, e.ID)
	}
	return emote.Unicode(e.Name)
}

// mapErr converts discordgo REST failures to the engine's error taxonomy:
// 403 → AccessError, 404 → ErrMessageGone.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return &engine.AccessError{Op: op, Err: err}
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, engine.ErrMessageGone)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
