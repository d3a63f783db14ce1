package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// Config is the root configuration for the PageWheel engine.
type Config struct {
	Discord DiscordConfig `json:"discord"`
	Engine  EngineConfig  `json:"engine"`
}

// DiscordConfig configures the platform adapter.
type DiscordConfig struct {
	Token string `json:"token"`
	// LookupGuilds narrows the custom-emote search; empty means every
	// guild the bot sees.
	LookupGuilds []string `json:"lookupGuilds,omitempty"`
	// ReactionRate/ReactionBurst throttle reaction add/remove REST calls.
	ReactionRate  float64 `json:"reactionRate,omitempty"`
	ReactionBurst int     `json:"reactionBurst,omitempty"`
}

// EngineConfig configures session behavior.
type EngineConfig struct {
	// Emotes overrides control icons. Keys: previous, next, skipBackward,
	// skipForward, gotoFirst, gotoLast, cancel. Values: a unicode glyph,
	// a custom emote ID, or "name:id".
	Emotes map[string]string `json:"emotes,omitempty"`
	// DeleteOnCancel deletes the message when a session ends.
	DeleteOnCancel bool `json:"deleteOnCancel"`
	// RemoveOnReact retracts accepted user reactions in guild channels.
	RemoveOnReact bool `json:"removeOnReact"`
	// TimeoutSeconds is the default sliding idle window for new sessions.
	// Zero disables auto-expiry.
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Default returns a Config with sensible defaults: stock glyphs, 60s idle
// window, a reaction throttle of 4 ops/s with burst 4.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			ReactionRate:  4,
			ReactionBurst: 4,
		},
		Engine: EngineConfig{
			TimeoutSeconds: 60,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays PAGEWHEEL_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PAGEWHEEL_DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("PAGEWHEEL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("PAGEWHEEL_DELETE_ON_CANCEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.DeleteOnCancel = b
		}
	}
	if v := os.Getenv("PAGEWHEEL_REMOVE_ON_REACT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.RemoveOnReact = b
		}
	}
}

// Timeout returns the default idle window as a duration.
func (c *Config) Timeout() time.Duration {
	if c.Engine.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// EmoteSet builds the control icon set: stock glyphs overridden by the
// configured specs. Custom emote IDs are resolved to their renderable
// form through resolve (may be nil when no custom emotes are configured).
func (c *Config) EmoteSet(ctx context.Context, resolve func(ctx context.Context, emojiID string) (emote.Key, error)) (emote.Set, error) {
	set := emote.DefaultSet()

	for name, spec := range c.Engine.Emotes {
		ctrl, ok := emote.ControlFromName(name)
		if !ok {
			return set, fmt.Errorf("unknown control %q in emotes config", name)
		}
		key, err := emote.ParseSpec(spec)
		if err != nil {
			return set, fmt.Errorf("control %q: %w", name, err)
		}
		if key.IsCustom() && key.Name == "" {
			if resolve == nil {
				return set, fmt.Errorf("control %q: custom emote %s needs a resolver", name, key.ID)
			}
			key, err = resolve(ctx, key.ID)
			if err != nil {
				return set, fmt.Errorf("control %q: %w", name, err)
			}
		}
		set.Bind(ctrl, key)
	}
	return set, nil
}
