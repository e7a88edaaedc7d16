package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/vitaview/internal/api/models"
	"github.com/smazurov/vitaview/internal/overlay"
	"github.com/smazurov/vitaview/internal/playback"
)

func (s *Server) registerIntentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "post-intent",
		Method:        http.MethodPost,
		Path:          "/api/intents",
		Summary:       "Queue an intent",
		Description:   "Queue an action for the playback loop. The result shows up in /api/status and /api/events.",
		Tags:          []string{"playback"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401, 422, 503},
	}, func(ctx context.Context, input *models.IntentRequest) (*models.IntentResponse, error) {
		in, err := parseIntent(input.Body)
		if err != nil {
			return nil, err
		}
		if s.options.Intents == nil {
			return nil, huma.Error503ServiceUnavailable("playback not running")
		}

		timer := time.NewTimer(s.options.IntentTimeout)
		defer timer.Stop()
		select {
		case s.options.Intents <- in:
		case <-timer.C:
			return nil, huma.Error503ServiceUnavailable("playback loop is busy")
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		s.logger.Debug("Intent queued", "intent", in.String())
		return &models.IntentResponse{Body: models.IntentAcceptedData{Intent: in.String()}}, nil
	})
}

// parseIntent maps the request body onto a playback intent.
func parseIntent(d models.IntentData) (playback.Intent, error) {
	switch d.Action {
	case "select-camera":
		return playback.SelectCamera{Index: d.Index}, nil
	case "select-mic":
		return playback.SelectMic{Index: d.Index}, nil
	case "toggle-upscale":
		return playback.ToggleUpscale{}, nil
	case "toggle-overlay":
		id := overlay.ID(d.Overlay)
		if _, ok := overlay.Get(id); !ok {
			return nil, huma.Error422UnprocessableEntity("unknown overlay " + d.Overlay)
		}
		return playback.ToggleOverlay{ID: id}, nil
	case "cycle-resolution":
		step := d.Step
		if step == 0 {
			step = 1
		}
		return playback.CycleResolution{Step: step}, nil
	case "toggle-fullscreen":
		return playback.ToggleFullscreen{}, nil
	default:
		return nil, huma.Error422UnprocessableEntity("unknown action " + d.Action)
	}
}
