package logging

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"strings"
	"testing"
)

func resetForTest(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevels = make(map[string]*slog.LevelVar)
	initialized = false
	current = Config{}
	history = NewHistory(historySize)
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetForTest(t)

	if err := Initialize(Config{
		Level:    "info",
		Format:   "text",
		NoStdout: true,
		Modules: map[string]string{
			"capture":  "debug",
			"terminal": "warn",
		},
	}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"capture", true, true, true},
		{"terminal", false, false, true},
		{"playback", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			ctx := context.Background()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestSetLevelsAtRuntime(t *testing.T) {
	resetForTest(t)
	_ = Initialize(Config{Level: "info", NoStdout: true})

	logger := GetLogger("audio")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should start disabled")
	}

	SetLevels(Config{Level: "info", Modules: map[string]string{"audio": "debug"}})
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after SetLevels without fetching a new logger")
	}

	SetLevels(Config{Level: "error"})
	if logger.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled once the global level is error")
	}
}

func TestHistoryCapturesModule(t *testing.T) {
	resetForTest(t)
	_ = Initialize(Config{Level: "debug", NoStdout: true})

	GetLogger("capture").Info("Camera started", "index", 0, "resolution", "896x504")

	e, ok := Recent().Last(slog.LevelInfo)
	if !ok {
		t.Fatal("no entry recorded")
	}
	if e.Module != "capture" {
		t.Errorf("Module = %q, want capture", e.Module)
	}
	if e.Message != "Camera started" {
		t.Errorf("Message = %q", e.Message)
	}
	if e.Attrs != "index=0 resolution=896x504" {
		t.Errorf("Attrs = %q", e.Attrs)
	}
	if s := e.String(); !strings.Contains(s, "[capture] Camera started") {
		t.Errorf("String() = %q", s)
	}
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		lvl := slog.LevelInfo
		if i == 1 {
			lvl = slog.LevelWarn
		}
		h.Add(Entry{Level: lvl, Message: msg})
	}

	all := h.All()
	if len(all) != 3 || all[0].Message != "b" || all[2].Message != "d" {
		t.Fatalf("All() = %+v, want b,c,d", all)
	}
	if e, ok := h.Last(slog.LevelWarn); !ok || e.Message != "b" {
		t.Errorf("Last(warn) = %+v, %v", e, ok)
	}
	if _, ok := h.Last(slog.LevelError); ok {
		t.Error("Last(error) should find nothing")
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d", h.Len())
	}
}

func TestMultiHandlerWritesOncePerHandler(t *testing.T) {
	var buf bytes.Buffer
	debug := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	info := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debug, info)).With("module", "test")
	logger.Debug("debug only message")

	if n := strings.Count(buf.String(), "debug only message"); n != 1 {
		t.Errorf("got %d copies, want 1. Output: %s", n, buf.String())
	}
}

func TestLevelOr(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelWarn},
		{"", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := levelOr(tt.input, slog.LevelWarn); got != tt.want {
				t.Errorf("levelOr(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJournalFields(t *testing.T) {
	h := NewJournalHandler(slog.LevelDebug).
		WithAttrs([]slog.Attr{slog.String("module", "capture")}).
		WithGroup("dev").(*JournalHandler)

	fields := maps.Clone(h.fields)
	addJournalField(fields, h.prefix, slog.Int("index", 2))
	addJournalField(fields, h.prefix, slog.Group("res", slog.Int("w", 896), slog.Int("h", 504)))
	addJournalField(fields, h.prefix, slog.String("x-path", "/dev/video2"))
	addJournalField(fields, h.prefix, slog.Attr{})

	want := map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
		"MODULE":            "capture",
		"DEV_INDEX":         "2",
		"DEV_RES_W":         "896",
		"DEV_RES_H":         "504",
		"DEV_X_PATH":        "/dev/video2",
	}
	if !maps.Equal(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestJournalKey(t *testing.T) {
	tests := map[string]string{
		"module":    "MODULE",
		"remote.ip": "REMOTE_IP",
		"_private":  "PRIVATE",
		"__":        "FIELD",
	}
	for in, want := range tests {
		if got := journalKey(in); got != want {
			t.Errorf("journalKey(%q) = %q, want %q", in, got, want)
		}
	}
}
