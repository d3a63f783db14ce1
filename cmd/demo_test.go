package cmd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
	"github.com/nextlevelbuilder/pagewheel/internal/engine"
)

// fakeMessenger records edits. The failure report edit always succeeds so
// a failing page edit cannot mask the report itself.
type fakeMessenger struct {
	mu      sync.Mutex
	edits   []string
	editErr error
}

func (f *fakeMessenger) ChannelMessageSend(channelID, _ string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "sent-1", ChannelID: channelID}, nil
}

func (f *fakeMessenger) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, content)
	if f.editErr != nil && !strings.HasPrefix(content, "Setup failed") {
		return nil, f.editErr
	}
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeMessenger) editList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.edits...)
}

type noopClient struct{}

func (noopClient) EditMessage(context.Context, engine.MessageRef, engine.Page) error { return nil }
func (noopClient) AddReaction(context.Context, engine.MessageRef, emote.Key) error   { return nil }
func (noopClient) RemoveUserReaction(context.Context, engine.MessageRef, emote.Key, string) error {
	return nil
}
func (noopClient) RemoveOwnReaction(context.Context, engine.MessageRef, emote.Key) error {
	return nil
}
func (noopClient) ClearReactions(context.Context, engine.MessageRef) error { return nil }
func (noopClient) DeleteMessage(context.Context, engine.MessageRef) error  { return nil }
func (noopClient) FetchMessage(_ context.Context, ref engine.MessageRef) (*engine.Message, error) {
	return &engine.Message{Ref: ref}, nil
}

type noopListener struct{}

func (noopListener) Subscribe(func(engine.ReactionEvent)) (func(), error) {
	return func() {}, nil
}

func demoTrigger() *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "trigger-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
	}}
}

func hasSetupFailure(edits []string) bool {
	for _, e := range edits {
		if strings.HasPrefix(e, "Setup failed") {
			return true
		}
	}
	return false
}

func TestDemoPagerSetup(t *testing.T) {
	eng := engine.New(noopClient{}, noopListener{}, engine.Config{Emotes: emote.DefaultSet()})
	if err := eng.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(eng.Deactivate)

	msgr := &fakeMessenger{}
	handleDemoRequest(eng, msgr, demoTrigger(), "pager", 0)

	edits := msgr.editList()
	if len(edits) == 0 || edits[0] != "Page 1/5" {
		t.Errorf("edits = %v, want the first page rendered", edits)
	}
	if hasSetupFailure(edits) {
		t.Errorf("successful setup reported a failure: %v", edits)
	}
	if eng.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", eng.Sessions())
	}
}

func TestDemoPagerReportsEngineFailure(t *testing.T) {
	// Not activated: Paginate fails and the demo must say so.
	eng := engine.New(noopClient{}, noopListener{}, engine.Config{Emotes: emote.DefaultSet()})

	msgr := &fakeMessenger{}
	handleDemoRequest(eng, msgr, demoTrigger(), "pager", 0)

	if edits := msgr.editList(); !hasSetupFailure(edits) {
		t.Errorf("engine failure went unreported, edits = %v", edits)
	}
}

func TestDemoPagerReportsEditFailure(t *testing.T) {
	eng := engine.New(noopClient{}, noopListener{}, engine.Config{Emotes: emote.DefaultSet()})
	if err := eng.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(eng.Deactivate)

	msgr := &fakeMessenger{editErr: errors.New("edit rejected")}
	handleDemoRequest(eng, msgr, demoTrigger(), "pager", 0)

	if edits := msgr.editList(); !hasSetupFailure(edits) {
		t.Errorf("failed first-page edit went unreported, edits = %v", edits)
	}
	if eng.Sessions() != 0 {
		t.Error("no session should be set up after a failed first-page edit")
	}
}

func TestDemoUnknownMode(t *testing.T) {
	eng := engine.New(noopClient{}, noopListener{}, engine.Config{Emotes: emote.DefaultSet()})
	if err := eng.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(eng.Deactivate)

	msgr := &fakeMessenger{}
	handleDemoRequest(eng, msgr, demoTrigger(), "teleport", 0)

	edits := msgr.editList()
	if len(edits) != 1 || !strings.HasPrefix(edits[0], "Unknown mode") {
		t.Errorf("edits = %v, want the unknown-mode hint", edits)
	}
	if eng.Sessions() != 0 {
		t.Errorf("Sessions() = %d, want 0", eng.Sessions())
	}
}
