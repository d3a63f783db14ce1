package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{engine: {timeoutSeconds: 10}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	if err := Watch(ctx, path, func(c *Config) { reloaded <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{engine: {timeoutSeconds: 99}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Engine.TimeoutSeconds != 99 {
			t.Errorf("reloaded timeout = %d, want 99", cfg.Engine.TimeoutSeconds)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}
}

func TestWatchSkipsMalformedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	if err := Watch(ctx, path, func(c *Config) { reloaded <- c }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// A broken intermediate save must not reach the callback.
	if err := os.WriteFile(path, []byte(`{engine:`), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-reloaded:
		t.Fatal("malformed config reached the callback")
	case <-time.After(watchDebounce + 300*time.Millisecond):
	}

	// The next good save goes through.
	if err := os.WriteFile(path, []byte(`{engine: {timeoutSeconds: 42}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Engine.TimeoutSeconds != 42 {
			t.Errorf("reloaded timeout = %d, want 42", cfg.Engine.TimeoutSeconds)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the good save")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := Watch(ctx, filepath.Join(t.TempDir(), "nope", "config.json5"), func(*Config) {})
	if err == nil {
		t.Error("Watch should fail when the config directory does not exist")
	}
}
