package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/logger/handlers/slogdiscard"
)

type recordingObserver struct {
	mu   sync.Mutex
	seen map[int64]bool
}

func (o *recordingObserver) ObserveLiveness(cam models.Camera, reachable bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen[cam.ID] = reachable
}

func TestLivenessPoll_ReachableAndTimedOut(t *testing.T) {
	headerCh := make(chan http.Header, 1)

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case headerCh <- r.Header.Clone():
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer hung.Close()

	cams := []models.Camera{
		{ID: 1, Name: "C1", IP: strings.TrimPrefix(up.URL, "http://"), GroupID: 1},
		{ID: 2, Name: "C2", IP: strings.TrimPrefix(hung.URL, "http://"), GroupID: 1},
	}

	observer := &recordingObserver{seen: map[int64]bool{}}
	l := NewLiveness(slogdiscard.NewDiscardLogger(), 100*time.Millisecond, observer)

	alive := l.Poll(context.Background(), cams)

	if len(alive) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(alive))
	}
	if !alive[1] {
		t.Error("expected C1 to be alive")
	}
	if alive[2] {
		t.Error("expected C2 to be reported dead")
	}

	headers := <-headerCh
	for _, h := range []struct{ key, want string }{
		{"Accept", "application/json"},
		{"Cache-Control", "no-cache"},
		{"Pragma", "no-cache"},
		{"Expires", "0"},
	} {
		if got := headers.Get(h.key); got != h.want {
			t.Errorf("header %s = %q, want %q", h.key, got, h.want)
		}
	}

	if len(observer.seen) != 2 || !observer.seen[1] || observer.seen[2] {
		t.Errorf("observer saw %v", observer.seen)
	}
}

func TestLivenessPing_NonSuccessAndRefused(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedAddr := strings.TrimPrefix(closed.URL, "http://")
	closed.Close()

	l := NewLiveness(slogdiscard.NewDiscardLogger(), time.Second, nil)

	if l.Ping(context.Background(), strings.TrimPrefix(broken.URL, "http://")) {
		t.Error("expected 500 to be reported as not alive")
	}
	if l.Ping(context.Background(), closedAddr) {
		t.Error("expected refused connection to be reported as not alive")
	}
}

func TestLivenessPoll_Empty(t *testing.T) {
	l := NewLiveness(slogdiscard.NewDiscardLogger(), time.Second, nil)

	alive := l.Poll(context.Background(), nil)
	if alive == nil || len(alive) != 0 {
		t.Errorf("expected empty non-nil map, got %v", alive)
	}
}
