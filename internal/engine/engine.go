package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

// Policies are the runtime-tunable behavior switches. They can be swapped
// live (config hot reload) without touching running sessions.
type Policies struct {
	// DeleteOnCancel deletes the message when a session ends.
	DeleteOnCancel bool
	// RemoveOnReact retracts a user's reaction after it is accepted, so
	// icons behave like push buttons in guild channels.
	RemoveOnReact bool
}

// Config carries the engine's construction-time settings.
type Config struct {
	Emotes   emote.Set
	Policies Policies
}

// Options configures one setup call. The zero value means: no idle
// timeout, single-step skips, no fast-forward icons, anyone may interact.
type Options struct {
	// Timeout is the sliding idle window. Zero or negative disables
	// auto-expiry; the session then lives until explicitly cancelled.
	Timeout time.Duration
	// SkipAmount is the page delta for the skip icons. Values above 1
	// also make the setup call attach the skip icons.
	SkipAmount int
	// FastForward attaches the goto-first/goto-last icons.
	FastForward bool
	// CanInteract, when set, gates which users may drive the session.
	CanInteract func(userID string) bool
	// OnCancel runs exactly once when the session ends, before any
	// message deletion.
	OnCancel func()
	// CacheEnabled retains lazily produced pages for revisits
	// (LazyPaginate only).
	CacheEnabled bool
}

// Engine binds live messages to reaction-driven sessions. One engine per
// process; Activate and Deactivate are the explicit init/teardown of that
// process-wide slot.
type Engine struct {
	client   Client
	listener Listener
	emotes   emote.Set

	mu          sync.Mutex // serializes Activate/Deactivate
	activated   atomic.Bool
	unsubscribe func()

	pol atomic.Pointer[Policies]

	reg   *registry
	sched *scheduler
}

// New builds an engine. It handles nothing until Activate.
func New(client Client, listener Listener, cfg Config) *Engine {
	e := &Engine{
		client:   client,
		listener: listener,
		emotes:   cfg.Emotes,
		reg:      newRegistry(),
		sched:    &scheduler{},
	}
	p := cfg.Policies
	e.pol.Store(&p)
	return e
}

// Activate subscribes the reaction listener and opens the engine for
// setup calls.
func (e *Engine) Activate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activated.Load() {
		return ErrAlreadyActivated
	}

	unsub, err := e.listener.Subscribe(e.dispatch)
	if err != nil {
		return fmt.Errorf("subscribe reaction listener: %w", err)
	}
	e.unsubscribe = unsub
	e.activated.Store(true)
	slog.Info("reaction engine activated")
	return nil
}

// Deactivate unsubscribes the listener and synchronously ends every live
// session, running each session's cancel hook once. Calling it on an
// inactive engine does nothing.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.activated.Load() {
		return
	}
	e.activated.Store(false)
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}

	for _, s := range e.reg.drain() {
		s.mu.Lock()
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		s.stripReactionsLocked(ctx)
		s.finishLocked()
		cancel()
		s.mu.Unlock()
	}
	slog.Info("reaction engine deactivated")
}

// IsActivated is a pure read of the activation state.
func (e *Engine) IsActivated() bool {
	return e.activated.Load()
}

// SetPolicies swaps the runtime policies.
func (e *Engine) SetPolicies(p Policies) {
	e.pol.Store(&p)
}

func (e *Engine) policies() Policies {
	return *e.pol.Load()
}

// Sessions returns the number of live sessions.
func (e *Engine) Sessions() int {
	return e.reg.size()
}

// dispatch routes one inbound event to its session. Events for unknown
// messages — including late events for already-expired sessions — are
// silently dropped.
func (e *Engine) dispatch(ev ReactionEvent) {
	s, ok := e.reg.get(ev.MessageID)
	if !ok {
		return
	}
	s.accept(ev)
}

// Paginate turns a message into a linear pager over a fixed page list.
func (e *Engine) Paginate(ctx context.Context, ref MessageRef, pages []Page, opts Options) error {
	if !e.IsActivated() {
		return ErrNotActivated
	}
	if len(pages) == 0 {
		return fmt.Errorf("paginate: no pages")
	}
	if err := e.prepare(ctx, ref); err != nil {
		return err
	}
	if err := e.addNavReactions(ctx, ref, opts.SkipAmount > 1, opts.FastForward); err != nil {
		return err
	}
	e.register(newSession(e, ref, opts, newPager(pages, opts.SkipAmount)))
	return nil
}

// Categorize turns a message into a category switcher: one icon per page
// plus the cancel icon.
func (e *Engine) Categorize(ctx context.Context, ref MessageRef, categories map[emote.Key]Page, opts Options) error {
	if !e.IsActivated() {
		return ErrNotActivated
	}
	if len(categories) == 0 {
		return fmt.Errorf("categorize: no categories")
	}
	if err := e.prepare(ctx, ref); err != nil {
		return err
	}
	for k := range categories {
		if err := e.client.AddReaction(ctx, ref, k); err != nil {
			return fmt.Errorf("attach category icon %s: %w", k, err)
		}
	}
	if err := e.client.AddReaction(ctx, ref, e.emotes.Key(emote.Cancel)); err != nil {
		return fmt.Errorf("attach cancel icon: %w", err)
	}
	e.register(newSession(e, ref, opts, newCategorizer(categories)))
	return nil
}

// Buttonize binds arbitrary actions to icons. When showCancel is true and
// the caller did not bind the cancel icon themselves, a cancel button is
// added that ends the session.
func (e *Engine) Buttonize(ctx context.Context, ref MessageRef, buttons map[emote.Key]ButtonFunc, showCancel bool, opts Options) error {
	if !e.IsActivated() {
		return ErrNotActivated
	}
	if len(buttons) == 0 && !showCancel {
		return fmt.Errorf("buttonize: no buttons")
	}
	if err := e.prepare(ctx, ref); err != nil {
		return err
	}
	for k := range buttons {
		if err := e.client.AddReaction(ctx, ref, k); err != nil {
			return fmt.Errorf("attach button icon %s: %w", k, err)
		}
	}

	cancelKey := e.emotes.Key(emote.Cancel)
	callerBoundCancel := false
	for k := range buttons {
		if k.Equals(cancelKey) {
			callerBoundCancel = true
			break
		}
	}
	autoCancel := showCancel && !callerBoundCancel
	if autoCancel {
		if err := e.client.AddReaction(ctx, ref, cancelKey); err != nil {
			return fmt.Errorf("attach cancel icon: %w", err)
		}
	}
	e.register(newSession(e, ref, opts, newButtonizer(buttons, autoCancel)))
	return nil
}

// PaginoCategorize combines pager navigation over an ordered sequence of
// category maps. faces, when it has exactly one page per group, is
// rendered as each index's default content.
func (e *Engine) PaginoCategorize(ctx context.Context, ref MessageRef, groups []map[emote.Key]Page, faces []Page, opts Options) error {
	if !e.IsActivated() {
		return ErrNotActivated
	}
	if len(groups) == 0 {
		return fmt.Errorf("paginocategorize: no category groups")
	}
	if err := e.prepare(ctx, ref); err != nil {
		return err
	}
	if err := e.addNavReactions(ctx, ref, opts.SkipAmount > 1, opts.FastForward); err != nil {
		return err
	}
	for k := range groups[0] {
		if err := e.client.AddReaction(ctx, ref, k); err != nil {
			return fmt.Errorf("attach category icon %s: %w", k, err)
		}
	}
	e.register(newSession(e, ref, opts,
		newPaginoCategorizer(groups, faces, opts.SkipAmount, opts.FastForward)))
	return nil
}

// LazyPaginate pages through producer-supplied content. No skip or goto
// icons are attached, since the page count is unknown.
func (e *Engine) LazyPaginate(ctx context.Context, ref MessageRef, producer PageProducer, opts Options) error {
	if !e.IsActivated() {
		return ErrNotActivated
	}
	if producer == nil {
		return fmt.Errorf("lazypaginate: nil producer")
	}
	if err := e.prepare(ctx, ref); err != nil {
		return err
	}
	if err := e.addNavReactions(ctx, ref, false, false); err != nil {
		return err
	}
	e.register(newSession(e, ref, opts, newLazyPager(producer, opts.CacheEnabled)))
	return nil
}

// prepare clears any reactions left on the message before a session is
// (re)bound to it. Permission problems here are the caller's to handle.
func (e *Engine) prepare(ctx context.Context, ref MessageRef) error {
	if err := e.client.ClearReactions(ctx, ref); err != nil {
		return fmt.Errorf("clear prior reactions: %w", err)
	}
	return nil
}

// addNavReactions attaches the navigation icons in display order:
// goto-first, skip-backward, previous, cancel, next, skip-forward,
// goto-last.
func (e *Engine) addNavReactions(ctx context.Context, ref MessageRef, withSkip, withGoto bool) error {
	controls := make([]emote.Control, 0, 7)
	if withGoto {
		controls = append(controls, emote.GotoFirst)
	}
	if withSkip {
		controls = append(controls, emote.SkipBackward)
	}
	controls = append(controls, emote.Previous, emote.Cancel, emote.Next)
	if withSkip {
		controls = append(controls, emote.SkipForward)
	}
	if withGoto {
		controls = append(controls, emote.GotoLast)
	}

	for _, c := range controls {
		if err := e.client.AddReaction(ctx, ref, e.emotes.Key(c)); err != nil {
			return fmt.Errorf("attach %s icon: %w", c, err)
		}
	}
	return nil
}

// newSession wires a variant into a session shell.
func newSession(e *Engine, ref MessageRef, opts Options, v variant) *session {
	return &session{
		id:          uuid.New(),
		ref:         ref,
		engine:      e,
		variant:     v,
		timeout:     opts.Timeout,
		canInteract: opts.CanInteract,
		onCancel:    opts.OnCancel,
	}
}

// register binds a session in the registry, retiring any session that was
// bound to the same message, and arms its initial idle timer.
func (e *Engine) register(s *session) {
	if prior := e.reg.register(s); prior != nil {
		prior.retire()
	}

	s.mu.Lock()
	e.sched.arm(s, s.timeout)
	s.mu.Unlock()

	slog.Debug("session registered",
		"session", s.id, "message_id", s.ref.MessageID, "timeout", s.timeout)
}

// retractAsync removes a user's reaction fire-and-forget; failures are
// not escalated.
func (e *Engine) retractAsync(ref MessageRef, icon emote.Key, userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if err := e.client.RemoveUserReaction(ctx, ref, icon, userID); err != nil {
			slog.Debug("reaction retract failed",
				"message_id", ref.MessageID, "user_id", userID, "error", err)
		}
	}()
}
