package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

// LivenessObserver receives every liveness verdict, e.g. to export it.
type LivenessObserver interface {
	ObserveLiveness(cam models.Camera, reachable bool)
}

// Liveness checks whether a camera answers at all, independent of its SDK.
type Liveness struct {
	log      *slog.Logger
	client   *resty.Client
	observer LivenessObserver
}

func NewLiveness(log *slog.Logger, timeout time.Duration, observer LivenessObserver) *Liveness {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeaders(map[string]string{
			"Accept":        "application/json",
			"Cache-Control": "no-cache",
			"Pragma":        "no-cache",
			"Expires":       "0",
		})

	return &Liveness{
		log:      log,
		client:   client,
		observer: observer,
	}
}

// Ping reports true only for a 2xx answer from http://<ip>/.
func (l *Liveness) Ping(ctx context.Context, ip string) bool {
	resp, err := l.client.R().SetContext(ctx).Get(fmt.Sprintf("http://%s/", ip))
	if err != nil {
		return false
	}

	return resp.IsSuccess()
}

// Poll probes all cameras concurrently and returns exactly one verdict per
// camera.
func (l *Liveness) Poll(ctx context.Context, cams []models.Camera) map[int64]bool {
	const op = "probe.Liveness.Poll"

	alive := make(map[int64]bool, len(cams))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, cam := range cams {
		wg.Add(1)
		go func(cam models.Camera) {
			defer wg.Done()

			ok := l.Ping(ctx, cam.IP)
			if l.observer != nil {
				l.observer.ObserveLiveness(cam, ok)
			}

			mu.Lock()
			alive[cam.ID] = ok
			mu.Unlock()
		}(cam)
	}

	wg.Wait()

	l.log.Debug("liveness polled", slog.String("op", op), slog.Int("cameras", len(cams)))

	return alive
}
