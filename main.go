package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/gdamore/tcell/v2"

	"github.com/smazurov/vitaview/cmd"
	"github.com/smazurov/vitaview/internal/api"
	"github.com/smazurov/vitaview/internal/audio"
	"github.com/smazurov/vitaview/internal/capture"
	"github.com/smazurov/vitaview/internal/compositor"
	"github.com/smazurov/vitaview/internal/config"
	"github.com/smazurov/vitaview/internal/devices"
	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/led"
	"github.com/smazurov/vitaview/internal/logging"
	"github.com/smazurov/vitaview/internal/metrics/exporters"
	"github.com/smazurov/vitaview/internal/overlay"
	"github.com/smazurov/vitaview/internal/playback"
	"github.com/smazurov/vitaview/internal/terminal"
	"github.com/smazurov/vitaview/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Playback settings
	PlaybackTickMs int `help:"Frame timer period in milliseconds" default:"30" toml:"playback.tick_ms" env:"PLAYBACK_TICK_MS"`
	PlaybackCamera int `help:"Camera index opened at startup" default:"0" toml:"playback.camera" env:"PLAYBACK_CAMERA"`
	PlaybackMic    int `help:"Mic index opened at startup, -1 for none" default:"0" toml:"playback.mic" env:"PLAYBACK_MIC"`

	// Capture settings
	CaptureResolutions    string `help:"Resolution cycle, comma separated WIDTHxHEIGHT" default:"896x504,960x544,480x272" toml:"capture.resolutions" env:"CAPTURE_RESOLUTIONS"`
	CaptureFrameTimeoutMs int    `help:"How long a tick waits for a frame" default:"30" toml:"capture.frame_timeout_ms" env:"CAPTURE_FRAME_TIMEOUT_MS"`
	CaptureBuffers        int    `help:"Number of mmap capture buffers" default:"4" toml:"capture.buffers" env:"CAPTURE_BUFFERS"`

	// Overlay settings
	OverlayAssetDir string `help:"Directory holding vita.png, vita1.png and psp.png" default:"assets" toml:"overlay.asset_dir" env:"OVERLAY_ASSET_DIR"`

	// Audio settings
	AudioEnabled     bool   `help:"Pass mic audio through to the output" default:"true" toml:"audio.enabled" env:"AUDIO_ENABLED"`
	AudioOutput      string `help:"Playback PCM as hw:CARD,DEVICE, empty for the first one" toml:"audio.output" env:"AUDIO_OUTPUT"`
	AudioBlockFrames int    `help:"Frames per audio block" default:"512" toml:"audio.block_frames" env:"AUDIO_BLOCK_FRAMES"`

	// Metrics settings
	MetricsListen string `help:"Prometheus listen address, empty to disable" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// Control API settings
	APIListen       string `help:"Control API listen address, empty to disable" toml:"api.listen" env:"API_LISTEN"`
	APIAuthUsername string `help:"Control API basic auth username" toml:"api.auth_username" env:"API_AUTH_USERNAME"`
	APIAuthPassword string `help:"Control API basic auth password" toml:"api.auth_password" env:"API_AUTH_PASSWORD"`

	// LED settings
	LEDEnabled bool `help:"Mirror capture state on the board status LED" default:"true" toml:"led.enabled" env:"LED_ENABLED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingFile       string `help:"Log file; the terminal is busy showing video" toml:"logging.file" env:"LOGGING_FILE"`
	LoggingCapture    string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingAudio      string `help:"Audio logging level" default:"info" toml:"logging.audio" env:"LOGGING_AUDIO"`
	LoggingCompositor string `help:"Compositor logging level" default:"info" toml:"logging.compositor" env:"LOGGING_COMPOSITOR"`
	LoggingPlayback   string `help:"Playback logging level" default:"info" toml:"logging.playback" env:"LOGGING_PLAYBACK"`
	LoggingDevices    string `help:"Devices logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingTerminal   string `help:"Terminal logging level" default:"info" toml:"logging.terminal" env:"LOGGING_TERMINAL"`
	LoggingAPI        string `help:"Control API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:    o.LoggingLevel,
		Format:   o.LoggingFormat,
		File:     o.LoggingFile,
		NoStdout: true,
		Modules: map[string]string{
			"capture":    o.LoggingCapture,
			"audio":      o.LoggingAudio,
			"compositor": o.LoggingCompositor,
			"playback":   o.LoggingPlayback,
			"devices":    o.LoggingDevices,
			"terminal":   o.LoggingTerminal,
			"api":        o.LoggingAPI,
		},
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		if err := logging.Initialize(opts.loggingConfig()); err != nil {
			slog.Error("Failed to initialize logging", "error", err)
			os.Exit(1)
		}
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})

		hooks.OnStart(func() {
			defer close(finished)
			defer cancel()
			if err := run(ctx, cancel, opts, logger); err != nil {
				logger.Error("vitaview failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			select {
			case <-finished:
			case <-time.After(3 * time.Second):
				logger.Warn("Shutdown timed out")
			}
		})
	})

	cli.Root().Use = "vitaview"
	cli.Root().Short = "Live capture viewer with console bezel overlays"
	cli.Root().Version = version.Get().String()

	// Add devices command
	cli.Root().AddCommand(cmd.CreateDevicesCmd())

	// Run the CLI
	cli.Run()
}

// frameTimeout bounds the per-tick frame wait by the tick period so a slow
// camera cannot stall the loop past its next tick.
func frameTimeout(opts *Options) time.Duration {
	tick := time.Duration(opts.PlaybackTickMs) * time.Millisecond
	timeout := time.Duration(opts.CaptureFrameTimeoutMs) * time.Millisecond
	if tick > 0 && (timeout <= 0 || timeout > tick) {
		return tick
	}
	return timeout
}

func run(ctx context.Context, cancel context.CancelFunc, opts *Options, logger *slog.Logger) error {
	logger.Info("Starting", "version", version.Get().String())

	resolutions, err := config.ParseResolutions(config.SplitList(opts.CaptureResolutions))
	if err != nil {
		return err
	}
	table := make([]capture.Resolution, len(resolutions))
	for i, r := range resolutions {
		table[i] = capture.Resolution{Width: r.Width, Height: r.Height}
	}

	bus := events.New()

	registry := devices.NewRegistry(devices.SystemEnumerator{}, logging.GetLogger("devices"))
	if err := registry.Refresh(); err != nil {
		logger.Warn("Device enumeration failed", "error", err)
	}

	session := capture.NewSession(&capture.V4L2Opener{
		Resolver:     registry,
		FrameTimeout: frameTimeout(opts),
		Buffers:      opts.CaptureBuffers,
	}, logging.GetLogger("capture"))

	var loop playback.Audio
	if opts.AudioEnabled {
		cfg := audio.DefaultStreamConfig
		if opts.AudioBlockFrames > 0 {
			cfg.BlockFrames = opts.AudioBlockFrames
		}
		audioLogger := logging.GetLogger("audio")
		backend := &audio.ALSABackend{Resolver: registry, Output: opts.AudioOutput, Logger: audioLogger}
		loop = audio.NewLoopback(backend, cfg, audioLogger)
	}

	if opts.LEDEnabled {
		leds := led.NewManager(led.New(logging.GetLogger("led")), bus, logging.GetLogger("led"))
		leds.Start()
		defer leds.Stop()
	}

	comp := compositor.New(overlay.NewDirLoader(opts.OverlayAssetDir), logging.GetLogger("compositor"))

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	sink, err := terminal.NewSink(screen, bus, logging.GetLogger("terminal"))
	if err != nil {
		return err
	}
	defer sink.Close()

	ctl := playback.New(session, loop, comp, sink, bus, logging.GetLogger("playback"), playback.Options{
		TickInterval: time.Duration(opts.PlaybackTickMs) * time.Millisecond,
		Resolutions:  table,
		Camera:       opts.PlaybackCamera,
		Mic:          opts.PlaybackMic,
	})
	defer func() {
		if err := ctl.Close(); err != nil {
			logger.Warn("Error releasing devices", "error", err)
		}
	}()
	_ = ctl.Start()

	var wg sync.WaitGroup
	spawn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Warn("Background task stopped", "task", name, "error", err)
			}
		}()
	}

	if _, statErr := os.Stat(opts.Config); statErr == nil {
		watcher := config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
		watcher.OnReload(func(cfg logging.Config) {
			logging.SetLevels(cfg)
			logger.Info("Logging levels reloaded", "level", cfg.Level)
		})
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("Config watcher not started", "error", err)
		} else {
			spawn("config", func() error {
				watcher.Wait()
				return nil
			})
		}
	}

	if opts.MetricsListen != "" {
		spawn("metrics", func() error {
			return exporters.Serve(ctx, opts.MetricsListen, logging.GetLogger("metrics"))
		})
	}

	if opts.APIListen != "" {
		srv := api.NewServer(api.Options{
			AuthUsername:      opts.APIAuthUsername,
			AuthPassword:      opts.APIAuthPassword,
			Intents:           ctl.Intents(),
			Devices:           registry,
			Bus:               bus,
			PrometheusHandler: exporters.HTTPHandler(),
		}, logging.GetLogger("api"))
		defer srv.Close()
		spawn("api", func() error {
			return srv.Serve(ctx, opts.APIListen)
		})
	}

	spawn("hotplug", func() error {
		return devices.NewWatcher(registry, bus, logging.GetLogger("devices")).Run(ctx)
	})

	// Keys drive the intent channel; q or Esc ends the session.
	spawn("keys", func() error {
		defer cancel()
		return sink.Run(ctx, ctl.Intents())
	})

	err = ctl.Run(ctx)
	cancel()
	wg.Wait()
	logger.Info("Stopped")
	return err
}
