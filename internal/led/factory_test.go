package led

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewForModel(t *testing.T) {
	tests := []struct {
		model string
		sysfs bool
	}{
		{"FriendlyElec NanoPC-T6", true},
		{"Orange Pi 5 Plus", true},
		{"Raspberry Pi 4 Model B Rev 1.4", true},
		{"unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			ctrl := newForModel(tt.model, t.TempDir(), discard())
			_, isSysfs := ctrl.(*sysfs)
			if isSysfs != tt.sysfs {
				t.Fatalf("sysfs = %v, want %v", isSysfs, tt.sysfs)
			}
			if ctrl.Available() == nil || ctrl.Patterns() == nil {
				t.Error("nil slice from Available or Patterns")
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model")
	if err := os.WriteFile(path, []byte("Raspberry Pi 5\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := detectBoard(path); got != "Raspberry Pi 5" {
		t.Errorf("detectBoard = %q", got)
	}
	if got := detectBoard(filepath.Join(t.TempDir(), "missing")); got != "unknown" {
		t.Errorf("missing file: %q", got)
	}
}

func TestSysfsSet(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "ACT"), 0o755); err != nil {
		t.Fatal(err)
	}
	ctrl := newSysfs(root, map[string]string{RoleStatus: "ACT"})

	read := func(name string) string {
		b, err := os.ReadFile(filepath.Join(root, "ACT", name))
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}

	tests := []struct {
		name       string
		enabled    bool
		pattern    string
		trigger    string
		brightness string
	}{
		{"solid", true, PatternSolid, "none", "1"},
		{"off", false, "", "none", "0"},
		{"blink", true, PatternBlink, "heartbeat", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctrl.Set(RoleStatus, tt.enabled, tt.pattern); err != nil {
				t.Fatal(err)
			}
			if got := read("trigger"); got != tt.trigger {
				t.Errorf("trigger = %q, want %q", got, tt.trigger)
			}
			if got := read("brightness"); got != tt.brightness {
				t.Errorf("brightness = %q, want %q", got, tt.brightness)
			}
		})
	}

	if err := ctrl.Set("power", true, PatternSolid); err == nil {
		t.Error("unknown role accepted")
	}
}
