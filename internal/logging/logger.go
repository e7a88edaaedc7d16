package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 200

// Logger is satisfied by *slog.Logger. Components that only log accept this
// so tests can hand them anything.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config is the logging section of the configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	File    string            `toml:"file"`
	Modules map[string]string `toml:"modules"`

	// NoStdout keeps records off stdout, e.g. while a full-screen terminal
	// display owns it. File, journal and history still receive them.
	NoStdout bool `toml:"-"`
}

var (
	mutex          sync.RWMutex
	current        Config
	initialized    bool
	output         io.Writer = os.Stdout
	outputFile     *os.File
	globalLevelVar = &slog.LevelVar{}
	moduleLoggers  = make(map[string]*slog.Logger)
	moduleLevels   = make(map[string]*slog.LevelVar)
	history        = NewHistory(historySize)
)

// Initialize configures outputs and levels. Loggers obtained earlier through
// GetLogger are rebuilt so they pick up the new outputs.
func Initialize(cfg Config) error {
	mutex.Lock()
	defer mutex.Unlock()

	var fileErr error
	if outputFile != nil {
		outputFile.Close()
		outputFile = nil
	}
	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fileErr = err
			output = nil
			break
		}
		outputFile = f
		output = f
	case cfg.NoStdout || !isStdoutAvailable():
		output = nil
	default:
		output = os.Stdout
	}

	current = cfg
	initialized = true
	globalLevelVar.Set(levelOr(cfg.Level, slog.LevelInfo))

	for module, levelVar := range moduleLevels {
		levelVar.Set(moduleLevel(cfg, module))
		moduleLoggers[module] = slog.New(createHandler(cfg.Format, levelVar)).With("module", module)
	}
	slog.SetDefault(slog.New(createHandler(cfg.Format, globalLevelVar)))

	return fileErr
}

// SetLevels changes global and per-module levels in place. Outputs are left
// alone, so this is safe to call from a config reload.
func SetLevels(cfg Config) {
	mutex.Lock()
	defer mutex.Unlock()

	current.Level = cfg.Level
	current.Modules = cfg.Modules
	globalLevelVar.Set(levelOr(cfg.Level, slog.LevelInfo))
	for module, levelVar := range moduleLevels {
		levelVar.Set(moduleLevel(current, module))
	}
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, ok := moduleLoggers[module]
	mutex.RUnlock()
	if ok {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	format := "text"
	if initialized {
		levelVar.Set(moduleLevel(current, module))
		format = current.Format
	}

	logger = slog.New(createHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevels[module] = levelVar
	return logger
}

// Recent returns the in-memory history of recent records.
func Recent() *History {
	return history
}

// createHandler fans records out to the configured writer, the journal when
// present, and the history buffer. Callers hold mutex.
func createHandler(format string, level slog.Leveler) slog.Handler {
	handlers := []slog.Handler{NewHistoryHandler(history, level)}

	if output != nil {
		opts := &slog.HandlerOptions{Level: level}
		if format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(output, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(output, opts))
		}
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewMultiHandler(handlers...)
}

func moduleLevel(cfg Config, module string) slog.Level {
	global := levelOr(cfg.Level, slog.LevelInfo)
	if s, ok := cfg.Modules[module]; ok {
		return levelOr(s, global)
	}
	return global
}

// isStdoutAvailable reports false when stdout is /dev/null or closed.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}

func levelOr(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
