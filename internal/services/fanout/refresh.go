package fanout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

// RefreshTask is the status poll that follows a round. It runs detached from
// the request that started it; callers may Wait for it or ignore it.
type RefreshTask struct {
	done   chan struct{}
	states map[int64]models.ActiveState
	err    error
}

func (t *RefreshTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the refresh finishes or ctx is done. The returned error
// aggregates every camera whose state could not be read; the states map is
// complete either way.
func (t *RefreshTask) Wait(ctx context.Context) (map[int64]models.ActiveState, error) {
	select {
	case <-t.done:
		return t.states, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) startRefresh(roundID string, cams []models.Camera) *RefreshTask {
	const op = "fanout.refresh"

	task := &RefreshTask{done: make(chan struct{})}

	log := c.log.With(
		slog.String("op", op),
		slog.String("round_id", roundID),
	)

	go func() {
		defer close(task.done)

		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		states := c.refresher.PollTrackingActive(ctx, cams)

		var result *multierror.Error
		for _, cam := range cams {
			st, ok := states[cam.ID]
			switch {
			case !ok:
				result = multierror.Append(result, fmt.Errorf("camera %d: no state returned", cam.ID))
			case !st.Known:
				result = multierror.Append(result, fmt.Errorf("camera %d: %s", cam.ID, st.Error))
			}
		}

		task.states = states
		task.err = result.ErrorOrNil()

		if task.err != nil {
			log.Warn("refresh finished with failures", slog.String("error", task.err.Error()))
			return
		}

		log.Debug("refresh finished", slog.Int("cameras", len(cams)))
	}()

	return task
}
