package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
)

// ActiveProber reads whether tracking is engaged according to the camera's
// own web UI.
type ActiveProber interface {
	ProbeTrackingActive(ctx context.Context, ip string) (bool, error)
}

// Status runs an ActiveProber with a hard deadline per camera.
type Status struct {
	log     *slog.Logger
	prober  ActiveProber
	timeout time.Duration
}

func NewStatus(log *slog.Logger, prober ActiveProber, timeout time.Duration) *Status {
	return &Status{
		log:     log,
		prober:  prober,
		timeout: timeout,
	}
}

type probeResult struct {
	active bool
	err    error
}

// Probe returns within the configured timeout even if the prober itself
// ignores its context.
func (s *Status) Probe(ctx context.Context, ip string) models.ActiveState {
	const op = "probe.Status.Probe"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan probeResult, 1)
	go func() {
		active, err := s.prober.ProbeTrackingActive(ctx, ip)
		done <- probeResult{active: active, err: err}
	}()

	var res probeResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = probeResult{err: fmt.Errorf("probe timed out after %s: %w", s.timeout, ctx.Err())}
	}

	if res.err != nil {
		s.log.Warn("tracking state unavailable",
			slog.String("op", op),
			slog.String("camera_ip", ip),
			sl.Err(res.err),
		)

		return models.ActiveState{Error: res.err.Error()}
	}

	return models.ActiveState{Known: true, Active: res.active}
}

func (s *Status) PollTrackingActive(ctx context.Context, cams []models.Camera) map[int64]models.ActiveState {
	states := make(map[int64]models.ActiveState, len(cams))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, cam := range cams {
		wg.Add(1)
		go func(cam models.Camera) {
			defer wg.Done()

			state := s.Probe(ctx, cam.IP)

			mu.Lock()
			states[cam.ID] = state
			mu.Unlock()
		}(cam)
	}

	wg.Wait()

	return states
}
