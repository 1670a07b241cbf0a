// Package fanout runs one command against many cameras at once and joins on
// every result.
//
// A round starts one goroutine per camera and returns only after each of them
// has settled, so every selected camera ends up with exactly one outcome.
// Per-camera failures never abort the round. There is no backpressure unless
// WithMaxConcurrency is set: a group of N cameras means N calls in flight.
package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
	"github.com/zanzhit/ptz_console/internal/services/dispatcher"
)

type Sender interface {
	Send(ctx context.Context, req models.CommandRequest) (dispatcher.Response, error)
}

type CameraSource interface {
	Camera(ctx context.Context, id int64) (models.Camera, error)
	GroupCameras(ctx context.Context, groupID int64) ([]models.Camera, error)
}

type StatusRefresher interface {
	PollTrackingActive(ctx context.Context, cams []models.Camera) map[int64]models.ActiveState
}

type Observer interface {
	ObserveDispatch(outcome models.CommandOutcome, elapsed time.Duration)
}

// Round is the immutable result of one fan-out call.
type Round struct {
	ID       string                          `json:"roundId"`
	Outcomes map[int64]models.CommandOutcome `json:"outcomes"`
	// Refresh is nil unless a refresh was requested for a non-empty round.
	Refresh *RefreshTask `json:"-"`
}

type Coordinator struct {
	log            *slog.Logger
	source         CameraSource
	sender         Sender
	refresher      StatusRefresher
	observer       Observer
	maxConcurrency int
	refreshTimeout time.Duration
}

type Option func(*Coordinator)

// WithMaxConcurrency caps in-flight calls per round. Zero keeps one call per
// camera.
func WithMaxConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.maxConcurrency = n
	}
}

func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.refreshTimeout = d
	}
}

func New(log *slog.Logger, source CameraSource, sender Sender, refresher StatusRefresher, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:            log,
		source:         source,
		sender:         sender,
		refresher:      refresher,
		refreshTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DispatchToGroup sends req to every camera of the group. An unknown group
// yields an empty round rather than an error.
func (c *Coordinator) DispatchToGroup(ctx context.Context, groupID int64, req models.CommandRequest, refresh bool) Round {
	const op = "fanout.DispatchToGroup"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("group_id", groupID),
		slog.String("path", req.Path),
	)

	cams, err := c.source.GroupCameras(ctx, groupID)
	if err != nil {
		if !errors.Is(err, errs.ErrGroupNotFound) {
			log.Error("failed to resolve group cameras", sl.Err(err))
		}

		return emptyRound()
	}

	return c.DispatchCameras(ctx, cams, req, refresh)
}

// DispatchToCamera is DispatchToGroup for a single camera id.
func (c *Coordinator) DispatchToCamera(ctx context.Context, cameraID int64, req models.CommandRequest, refresh bool) Round {
	const op = "fanout.DispatchToCamera"

	cam, err := c.source.Camera(ctx, cameraID)
	if err != nil {
		if !errors.Is(err, errs.ErrCameraNotFound) {
			c.log.Error("failed to resolve camera", slog.String("op", op), slog.Int64("camera_id", cameraID), sl.Err(err))
		}

		return emptyRound()
	}

	return c.DispatchCamera(ctx, cam, req, refresh)
}

func (c *Coordinator) DispatchCamera(ctx context.Context, cam models.Camera, req models.CommandRequest, refresh bool) Round {
	return c.DispatchCameras(ctx, []models.Camera{cam}, req, refresh)
}

// DispatchCameras is the fan-out itself: one Dispatch per camera, joined.
func (c *Coordinator) DispatchCameras(ctx context.Context, cams []models.Camera, req models.CommandRequest, refresh bool) Round {
	const op = "fanout.DispatchCameras"

	round := Round{
		ID:       uuid.NewString(),
		Outcomes: make(map[int64]models.CommandOutcome, len(cams)),
	}

	log := c.log.With(
		slog.String("op", op),
		slog.String("round_id", round.ID),
		slog.String("path", req.Path),
		slog.String("mode", string(req.Mode)),
	)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem chan struct{}
	)

	if c.maxConcurrency > 0 {
		sem = make(chan struct{}, c.maxConcurrency)
	}

	for _, cam := range cams {
		wg.Add(1)
		go func(cam models.Camera) {
			defer wg.Done()

			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			outcome := c.Dispatch(ctx, cam, req)

			mu.Lock()
			round.Outcomes[cam.ID] = outcome
			mu.Unlock()
		}(cam)
	}

	wg.Wait()

	failed := 0
	for _, o := range round.Outcomes {
		if !o.OK() {
			failed++
		}
	}

	log.Info("round settled",
		slog.Int("cameras", len(cams)),
		slog.Int("failed", failed),
	)

	if refresh && len(cams) > 0 && c.refresher != nil {
		round.Refresh = c.startRefresh(round.ID, cams)
	}

	return round
}

// Dispatch sends req to one camera and classifies the result. It never
// returns without an outcome, even if the sender panics.
func (c *Coordinator) Dispatch(ctx context.Context, cam models.Camera, req models.CommandRequest) (outcome models.CommandOutcome) {
	const op = "fanout.Dispatch"

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("dispatch panicked",
				slog.String("op", op),
				slog.Int64("camera_id", cam.ID),
				slog.Any("panic", r),
			)
			outcome = failure(cam.ID, fmt.Sprintf("internal error: %v", r))
		}

		if c.observer != nil {
			c.observer.ObserveDispatch(outcome, time.Since(start))
		}
	}()

	req.TargetIP = cam.IP

	resp, err := c.sender.Send(ctx, req)

	return Classify(cam.ID, resp, err)
}

// Classify maps a dispatch result to an outcome: 200 is success, any other
// status is a failure carrying the code, a transport error is a failure
// carrying its message.
func Classify(cameraID int64, resp dispatcher.Response, err error) models.CommandOutcome {
	if err != nil {
		return failure(cameraID, dispatcher.TransportMessage(err))
	}

	outcome := models.CommandOutcome{
		CameraID:   cameraID,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Returned %d", resp.StatusCode),
	}

	if json.Valid(resp.Body) {
		outcome.Body = resp.Body
	}

	if resp.StatusCode == http.StatusOK {
		outcome.Kind = models.OutcomeSuccess
	} else {
		outcome.Kind = models.OutcomeFailure
	}

	return outcome
}

func failure(cameraID int64, msg string) models.CommandOutcome {
	return models.CommandOutcome{
		CameraID: cameraID,
		Kind:     models.OutcomeFailure,
		Message:  msg,
	}
}

func emptyRound() Round {
	return Round{
		ID:       uuid.NewString(),
		Outcomes: map[int64]models.CommandOutcome{},
	}
}
