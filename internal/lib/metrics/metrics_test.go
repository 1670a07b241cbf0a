package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

func TestHandlerExposesObservations(t *testing.T) {
	m := New()

	m.ObserveDispatch(models.CommandOutcome{Kind: models.OutcomeSuccess}, 10*time.Millisecond)
	m.ObserveDispatch(models.CommandOutcome{Kind: models.OutcomeFailure}, time.Second)
	m.ObserveLiveness(models.Camera{ID: 4, IP: "10.0.0.4"}, true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`ptz_console_dispatch_total{outcome="success"} 1`,
		`ptz_console_dispatch_total{outcome="failure"} 1`,
		`ptz_console_camera_reachable{camera_id="4",ip="10.0.0.4"} 1`,
		`ptz_console_dispatch_duration_seconds_count 2`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
