package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/pagewheel/internal/config"
	"github.com/nextlevelbuilder/pagewheel/internal/emote"
	"github.com/nextlevelbuilder/pagewheel/internal/engine"
	"github.com/nextlevelbuilder/pagewheel/internal/platform/discord"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a demo bot answering !demo pager|cats|buttons|lazy",
		Run: func(cmd *cobra.Command, args []string) {
			runDemo()
		},
	}
}

func runDemo() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Discord.Token == "" {
		slog.Error("no discord token configured (set discord.token or PAGEWHEEL_DISCORD_TOKEN)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := discord.New(cfg.Discord.Token, cfg.Discord.ReactionRate, cfg.Discord.ReactionBurst)
	if err != nil {
		slog.Error("failed to create discord adapter", "error", err)
		os.Exit(1)
	}
	if err := adapter.Start(ctx); err != nil {
		slog.Error("failed to connect to discord", "error", err)
		os.Exit(1)
	}
	defer adapter.Stop(context.Background())

	resolver := emote.NewResolver(adapter, cfg.Discord.LookupGuilds)
	emotes, err := cfg.EmoteSet(ctx, resolver.Resolve)
	if err != nil {
		slog.Error("failed to build emote set", "error", err)
		os.Exit(1)
	}

	eng := engine.New(adapter, adapter, engine.Config{
		Emotes: emotes,
		Policies: engine.Policies{
			DeleteOnCancel: cfg.Engine.DeleteOnCancel,
			RemoveOnReact:  cfg.Engine.RemoveOnReact,
		},
	})
	if err := eng.Activate(); err != nil {
		slog.Error("failed to activate engine", "error", err)
		os.Exit(1)
	}
	defer eng.Deactivate()

	var timeout atomic.Int64
	timeout.Store(int64(cfg.Timeout()))

	// Live-reload the policies and the default timeout on config edits;
	// emote changes need a restart since live sessions key on the attached
	// icons.
	if err := config.Watch(ctx, cfgPath, func(c *config.Config) {
		eng.SetPolicies(engine.Policies{
			DeleteOnCancel: c.Engine.DeleteOnCancel,
			RemoveOnReact:  c.Engine.RemoveOnReact,
		})
		timeout.Store(int64(c.Timeout()))
	}); err != nil {
		slog.Warn("config watch unavailable", "error", err)
	}
	removeHandler := adapter.Session().AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		mode, ok := strings.CutPrefix(strings.TrimSpace(m.Content), "!demo")
		if !ok {
			return
		}
		go handleDemoRequest(eng, s, m, strings.TrimSpace(mode), time.Duration(timeout.Load()))
	})
	defer removeHandler()

	slog.Info("demo bot ready", "sessions_timeout", cfg.Timeout())
	<-ctx.Done()
	slog.Info("shutting down")
}

// messenger is the part of the discordgo session the demo command uses.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// handleDemoRequest sends a fresh message and wires the requested
// interaction mode to it.
func handleDemoRequest(eng *engine.Engine, s messenger, m *discordgo.MessageCreate, mode string, timeout time.Duration) {
	if mode == "" {
		mode = "pager"
	}

	sent, err := s.ChannelMessageSend(m.ChannelID, "Setting up...")
	if err != nil {
		slog.Warn("demo message send failed", "error", err)
		return
	}
	ref := engine.MessageRef{
		ChannelID: m.ChannelID,
		MessageID: sent.ID,
		GuildID:   m.GuildID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := engine.Options{Timeout: timeout}

	switch mode {
	case "pager":
		pages := make([]engine.Page, 5)
		for i := range pages {
			pages[i] = engine.Page{Content: fmt.Sprintf("Page %d/5", i+1)}
		}
		opts.SkipAmount = 2
		opts.FastForward = true
		_, err = s.ChannelMessageEdit(m.ChannelID, sent.ID, pages[0].Content)
		if err == nil {
			err = eng.Paginate(ctx, ref, pages, opts)
		}

	case "cats":
		categories := map[emote.Key]engine.Page{
			emote.Unicode("🍎"): {Content: "Apples: crisp."},
			emote.Unicode("🍌"): {Content: "Bananas: curved."},
			emote.Unicode("🍒"): {Content: "Cherries: paired."},
		}
		err = eng.Categorize(ctx, ref, categories, opts)

	case "buttons":
		buttons := map[emote.Key]engine.ButtonFunc{
			emote.Unicode("👋"): func(userID string, ref engine.MessageRef) error {
				_, err := s.ChannelMessageEdit(ref.ChannelID, ref.MessageID,
					fmt.Sprintf("Hello, <@%s>!", userID))
				return err
			},
		}
		err = eng.Buttonize(ctx, ref, buttons, true, opts)

	case "lazy":
		opts.CacheEnabled = true
		err = eng.LazyPaginate(ctx, ref, func(index int) (*engine.Page, error) {
			if index >= 10 {
				return nil, nil
			}
			return &engine.Page{Content: fmt.Sprintf("Lazy page %d", index+1)}, nil
		}, opts)

	default:
		_, _ = s.ChannelMessageEdit(m.ChannelID, sent.ID,
			"Unknown mode. Try: pager, cats, buttons, lazy.")
		return
	}

	if err != nil {
		slog.Warn("demo setup failed", "mode", mode, "error", err)
		_, _ = s.ChannelMessageEdit(m.ChannelID, sent.ID, "Setup failed: "+err.Error())
	}
}
