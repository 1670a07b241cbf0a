package fanout

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

const infoUnavailable = "failed to fetch camera info"

type infoField int

const (
	fieldLockedTarget infoField = iota
	fieldRecording
	fieldZoom
	fieldResolution
)

var infoQueries = []struct {
	field infoField
	path  string
}{
	{fieldLockedTarget, models.PathGestureLock},
	{fieldRecording, models.PathGestureRecord},
	{fieldZoom, models.PathGestureZoom},
	{fieldResolution, models.PathRecordResolution},
}

type infoBody struct {
	Enable     *bool           `json:"enable"`
	Resolution json.RawMessage `json:"resolution"`
}

// PollTrackingState reads gesture and resolution state from every camera.
// Each camera gets four concurrent read queries; a failed query leaves only
// its own field unset. A camera whose four queries all fail is reported in
// Errors and has no entry in States.
func (c *Coordinator) PollTrackingState(ctx context.Context, cams []models.Camera) models.TrackingPoll {
	const op = "fanout.PollTrackingState"

	poll := models.TrackingPoll{
		States: make(map[int64]models.TrackingState, len(cams)),
		Errors: map[int64]string{},
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, cam := range cams {
		wg.Add(1)
		go func(cam models.Camera) {
			defer wg.Done()

			state, ok := c.pollCamera(ctx, cam)

			mu.Lock()
			defer mu.Unlock()

			if !ok {
				poll.Errors[cam.ID] = infoUnavailable
				return
			}
			poll.States[cam.ID] = state
		}(cam)
	}

	wg.Wait()

	c.log.Debug("tracking state polled",
		slog.String("op", op),
		slog.Int("cameras", len(cams)),
		slog.Int("failed", len(poll.Errors)),
	)

	return poll
}

func (c *Coordinator) pollCamera(ctx context.Context, cam models.Camera) (models.TrackingState, bool) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		state models.TrackingState
		got   int
	)

	for _, q := range infoQueries {
		wg.Add(1)
		go func(field infoField, path string) {
			defer wg.Done()

			// Refresh stays off: a refresh would poll this camera again.
			round := c.DispatchCamera(ctx, cam, models.ReadCommand(path), false)

			outcome, ok := round.Outcomes[cam.ID]
			if !ok || !outcome.OK() {
				return
			}

			var body infoBody
			if err := json.Unmarshal(outcome.Body, &body); err != nil {
				return
			}

			mu.Lock()
			defer mu.Unlock()

			if applyField(&state, field, body) {
				got++
			}
		}(q.field, q.path)
	}

	wg.Wait()

	return state, got > 0
}

func applyField(state *models.TrackingState, field infoField, body infoBody) bool {
	switch field {
	case fieldLockedTarget:
		state.LockedTarget = body.Enable
		return body.Enable != nil
	case fieldRecording:
		state.Recording = body.Enable
		return body.Enable != nil
	case fieldZoom:
		state.Zoom = body.Enable
		return body.Enable != nil
	case fieldResolution:
		res, ok := resolutionString(body.Resolution)
		if ok {
			state.Resolution = &res
		}
		return ok
	}

	return false
}

// resolutionString accepts both "1080p" and bare numeric codes.
func resolutionString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	return string(raw), true
}

// GestureReset is the outcome of DisableGestures.
type GestureReset struct {
	Outcomes map[string]models.CommandOutcome `json:"outcomes"`
	State    models.TrackingPoll              `json:"state"`
}

// DisableGestures switches the three gesture controls off one after another,
// then re-reads the camera's state.
func (c *Coordinator) DisableGestures(ctx context.Context, cam models.Camera) GestureReset {
	const op = "fanout.DisableGestures"

	reset := GestureReset{Outcomes: make(map[string]models.CommandOutcome, 3)}

	for _, path := range []string{models.PathGestureLock, models.PathGestureRecord, models.PathGestureZoom} {
		round := c.DispatchCamera(ctx, cam, models.WriteCommand(path, map[string]bool{"enable": false}), false)
		reset.Outcomes[path] = round.Outcomes[cam.ID]
	}

	reset.State = c.PollTrackingState(ctx, []models.Camera{cam})

	c.log.Info("gestures disabled",
		slog.String("op", op),
		slog.Int64("camera_id", cam.ID),
	)

	return reset
}
