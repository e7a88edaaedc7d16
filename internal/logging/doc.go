// Package logging provides slog loggers with per-module levels.
//
// Records go to stdout (or a file when logging.file is set), to the systemd
// journal when it is reachable, and to an in-memory History the terminal
// display uses for its status line.
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Modules: map[string]string{"capture": "debug"},
//	})
//	logger := logging.GetLogger("capture")
//	logger.Info("Camera started", "index", 0, "resolution", "896x504")
//
// Levels can be changed at runtime with SetLevels; loggers already handed
// out observe the change because each module owns a slog.LevelVar.
//
// When running under systemd:
//
//	journalctl -t vitaview MODULE=capture
//
// Example TOML; keys other than level, format and file are module names:
//
//	[logging]
//	level = "info"
//	format = "text"
//	file = "/tmp/vitaview.log"
//	capture = "debug"
//	audio = "warn"
package logging
