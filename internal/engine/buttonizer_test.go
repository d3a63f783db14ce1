package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

func TestButtonizerInvokesAction(t *testing.T) {
	e, _, _ := newTestEngine(t, Policies{})

	var mu sync.Mutex
	var calls []string
	buttons := map[emote.Key]ButtonFunc{
		emote.Unicode("👋"): func(userID string, ref MessageRef) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, userID+"@"+ref.MessageID)
			return nil
		},
	}
	if err := e.Buttonize(context.Background(), testRef("m1"), buttons, false, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}

	pressIcon(e, "m1", emote.Unicode("👋"))
	pressIcon(e, "m1", emote.Unicode("👋"))

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("action ran %d times, want 2", len(calls))
	}
	if calls[0] != "user-1@m1" {
		t.Errorf("action saw %q, want user-1@m1", calls[0])
	}
	if e.Sessions() != 1 {
		t.Error("button press ended the session")
	}
}

func TestButtonizerAutoCancel(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})

	buttons := map[emote.Key]ButtonFunc{
		emote.Unicode("👋"): func(string, MessageRef) error { return nil },
	}
	if err := e.Buttonize(context.Background(), testRef("m1"), buttons, true, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}

	// Button icon plus the auto-attached cancel icon.
	if got := len(fc.addedNames()); got != 2 {
		t.Errorf("attached %d icons, want 2", got)
	}

	press(e, "m1", emote.Cancel)
	if e.Sessions() != 0 {
		t.Error("auto cancel icon did not end the session")
	}
}

func TestButtonizerCallerBoundCancel(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})

	var calls int
	cancelKey := e.emotes.Key(emote.Cancel)
	buttons := map[emote.Key]ButtonFunc{
		cancelKey: func(string, MessageRef) error { calls++; return nil },
	}
	// showCancel defers to the caller's own binding of the cancel icon.
	if err := e.Buttonize(context.Background(), testRef("m1"), buttons, true, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}
	if got := len(fc.addedNames()); got != 1 {
		t.Errorf("attached %d icons, want 1 (no duplicate cancel)", got)
	}

	press(e, "m1", emote.Cancel)
	if calls != 1 {
		t.Errorf("caller's cancel action ran %d times, want 1", calls)
	}
	if e.Sessions() != 1 {
		t.Error("caller-bound cancel must not end the session")
	}
}

func TestButtonizerUnknownIconDropped(t *testing.T) {
	e, _, _ := newTestEngine(t, Policies{RemoveOnReact: true})

	buttons := map[emote.Key]ButtonFunc{
		emote.Unicode("👋"): func(string, MessageRef) error { return nil },
	}
	if err := e.Buttonize(context.Background(), testRef("m1"), buttons, false, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}

	pressIcon(e, "m1", emote.Unicode("🦆"))
	if e.Sessions() != 1 {
		t.Error("unbound icon ended the session")
	}
}

func TestButtonizerActionErrorSwallowed(t *testing.T) {
	e, _, _ := newTestEngine(t, Policies{})

	buttons := map[emote.Key]ButtonFunc{
		emote.Unicode("💥"): func(string, MessageRef) error { return errors.New("boom") },
	}
	if err := e.Buttonize(context.Background(), testRef("m1"), buttons, false, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}

	pressIcon(e, "m1", emote.Unicode("💥"))
	if e.Sessions() != 1 {
		t.Error("failing action ended the session")
	}
}

func TestButtonizeCancelOnly(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})

	if err := e.Buttonize(context.Background(), testRef("m1"), nil, true, Options{}); err != nil {
		t.Fatalf("Buttonize: %v", err)
	}
	if got := len(fc.addedNames()); got != 1 {
		t.Errorf("attached %d icons, want 1", got)
	}

	press(e, "m1", emote.Cancel)
	if e.Sessions() != 0 {
		t.Error("cancel-only buttonizer did not end")
	}
}
