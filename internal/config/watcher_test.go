package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func loadFirstLine(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	if line == "bad" {
		return "", errors.New("bad config")
	}
	return line, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, opts ...WatcherOption[string]) (*Watcher[string], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("initial\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[string]{WithDebounce[string](30 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, loadFirstLine, quietLogger(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		w.Wait()
	})
	return w, path
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	got := make(chan string, 4)
	w, path := startWatcher(t)
	w.OnReload(func(s string) { got <- s })

	if err := os.WriteFile(path, []byte("updated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-got:
		if s != "updated" {
			t.Errorf("reloaded %q, want updated", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcherReloadsOnRenameSave(t *testing.T) {
	got := make(chan string, 4)
	w, path := startWatcher(t)
	w.OnReload(func(s string) { got <- s })

	tmp := path + ".swp"
	if err := os.WriteFile(tmp, []byte("renamed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-got:
		if s != "renamed" {
			t.Errorf("reloaded %q, want renamed", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	var calls atomic.Int32
	w, path := startWatcher(t)
	w.OnReload(func(string) { calls.Add(1) })

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for an unrelated file", n)
	}
}

func TestWatcherDebounce(t *testing.T) {
	var calls atomic.Int32
	w, path := startWatcher(t, WithDebounce[string](150*time.Millisecond))
	w.OnReload(func(string) { calls.Add(1) })

	for i := range 5 {
		if err := os.WriteFile(path, []byte("burst"+string(rune('a'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestWatcherErrorHandlerAndUnsubscribe(t *testing.T) {
	errs := make(chan error, 1)
	var calls atomic.Int32
	w, path := startWatcher(t, WithErrorHandler[string](func(err error) { errs <- err }))
	unsub := w.OnReload(func(string) { calls.Add(1) })
	unsub()

	if err := os.WriteFile(path, []byte("bad\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}

	if err := os.WriteFile(path, []byte("good\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("unsubscribed handler called %d times", n)
	}
}
