package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/vitaview/internal/api/models"
	"github.com/smazurov/vitaview/internal/devices"
	"github.com/smazurov/vitaview/internal/events"
	"github.com/smazurov/vitaview/internal/playback"
	"github.com/smazurov/vitaview/internal/version"
)

// DeviceLister is the part of the device registry the API reads.
type DeviceLister interface {
	Snapshot() devices.Snapshot
	Describe(index int) (devices.CameraDetails, error)
}

// Options configures the control API.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Intents           chan<- playback.Intent
	Devices           DeviceLister
	Bus               *events.Bus
	PrometheusHandler http.Handler // optional, mounted at /metrics without auth
	IntentTimeout     time.Duration
}

// Server is a remote control for the viewer: it reports playback state and
// queues intents on the same channel the keyboard feeds.
type Server struct {
	api     huma.API
	mux     *http.ServeMux
	options Options
	status  *statusTracker
	logger  *slog.Logger
}

// basicAuthMiddleware creates middleware for HTTP basic authentication
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		var credentials string
		if header := ctx.Header("Authorization"); header != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(header, prefix) {
				s.unauthorized(ctx, "Invalid authentication type")
				return
			}
			decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
			if err != nil {
				s.unauthorized(ctx, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		} else if q := ctx.Query("auth"); q != "" {
			// EventSource cannot set headers.
			decoded, err := base64.StdEncoding.DecodeString(q)
			if err != nil {
				s.unauthorized(ctx, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		}

		if credentials == "" {
			s.unauthorized(ctx, "Authentication required")
			return
		}

		user, pass, ok := strings.Cut(credentials, ":")
		if !ok || user != username || pass != password {
			s.unauthorized(ctx, "Invalid credentials")
			return
		}
		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, msg string, errs ...error) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="vitaview"`)
	_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
}

// NewServer builds the API on a fresh ServeMux. Close releases its bus
// subscriptions.
func NewServer(opts Options, logger *slog.Logger) *Server {
	if opts.IntentTimeout <= 0 {
		opts.IntentTimeout = time.Second
	}
	mux := http.NewServeMux()

	config := huma.DefaultConfig("vitaview API", version.Get().Version)
	config.Info.Description = "Remote control for the capture viewer"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	s := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		status:  newStatusTracker(opts.Bus),
		logger:  logger,
	}

	api.UseMiddleware(loggingMiddleware(logger))
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(s.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Close drops the event subscriptions.
func (s *Server) Close() {
	s.status.close()
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		// SSE clients never finish on their own.
		_ = srv.Close()
	}()

	s.logger.Info("Control API started", "addr", ln.Addr().String(), "docs", "http://"+ln.Addr().String()+"/docs")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{Status: "ok", Message: "API is healthy"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		v := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   v.Version,
				GitCommit: v.GitCommit,
				BuildDate: v.BuildDate,
				GoVersion: v.GoVersion,
				Platform:  v.Platform,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Playback status",
		Description: "Current mode, devices and applied resolution",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.status.get()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List devices",
		Description: "Cameras and PCMs with the indices intents refer to",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		if s.options.Devices == nil {
			return nil, huma.Error503ServiceUnavailable("device registry not available")
		}
		return &models.DevicesResponse{Body: devicesData(s.options.Devices)}, nil
	})

	s.registerIntentRoutes()
	s.registerEventRoutes()
}

func devicesData(lister DeviceLister) models.DevicesData {
	snap := lister.Snapshot()
	out := models.DevicesData{
		Cameras: make([]models.CameraInfo, 0, len(snap.Cameras)),
		Mics:    pcmInfos(snap.Mics),
		Outputs: pcmInfos(snap.Outputs),
	}
	for _, c := range snap.Cameras {
		info := models.CameraInfo{Index: c.Index, Path: c.Path, Name: c.Name, ID: c.ID}
		details, err := lister.Describe(c.Index)
		if err != nil {
			info.Error = err.Error()
		}
		info.Type, info.Ready = details.Type, details.Ready
		if sig := details.Signal; sig != nil {
			info.Signal = &models.SignalInfo{State: sig.State, Width: sig.Width, Height: sig.Height, FPS: sig.FPS}
		}
		for _, f := range details.Formats {
			format := models.FormatInfo{FourCC: f.FourCC, Name: f.Name, Emulated: f.Emulated, Sizes: make([]models.FrameSizeInfo, 0, len(f.Sizes))}
			for _, sz := range f.Sizes {
				format.Sizes = append(format.Sizes, models.FrameSizeInfo{Width: sz.Width, Height: sz.Height, FPS: sz.FPS})
			}
			info.Formats = append(info.Formats, format)
		}
		out.Cameras = append(out.Cameras, info)
	}
	return out
}

func pcmInfos(pcms []devices.PCM) []models.PCMInfo {
	out := make([]models.PCMInfo, 0, len(pcms))
	for _, p := range pcms {
		out = append(out, models.PCMInfo{Index: p.Index, Device: p.Device, Card: p.Card, Name: p.Name})
	}
	return out
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
