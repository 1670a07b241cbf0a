package dispatcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/logger/handlers/slogdiscard"
)

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

type captured struct {
	method string
	path   string
	body   []byte
}

// captureServer answers with status/body and hands every request to the test
// over a channel.
func captureServer(status int, body string) (*httptest.Server, <-chan captured) {
	ch := make(chan captured, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ch <- captured{method: r.Method, path: r.URL.Path, body: b}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))

	return srv, ch
}

func TestCommandURL(t *testing.T) {
	tests := []struct {
		ip, path, want string
	}{
		{"10.0.0.1", "ai/workmode", "http://10.0.0.1/camera/sdk/ai/workmode"},
		{"10.0.0.1", "/ptz/preset", "http://10.0.0.1/camera/sdk/ptz/preset"},
		{"cam.local:8080", "record/resolution", "http://cam.local:8080/camera/sdk/record/resolution"},
	}

	for _, tt := range tests {
		if got := CommandURL(tt.ip, tt.path); got != tt.want {
			t.Errorf("CommandURL(%q, %q) = %q, want %q", tt.ip, tt.path, got, tt.want)
		}
	}
}

func TestSend_WritePutsPayload(t *testing.T) {
	srv, reqs := captureServer(http.StatusOK, `{"code":0}`)
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.StopTracking()
	req.TargetIP = hostOf(srv)

	resp, err := d.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got := <-reqs
	if got.method != http.MethodPut {
		t.Errorf("expected PUT, got %s", got.method)
	}
	if got.path != "/camera/sdk/ai/workmode" {
		t.Errorf("unexpected path %s", got.path)
	}

	var body map[string]string
	if err := json.Unmarshal(got.body, &body); err != nil || body["mode"] != "none" {
		t.Errorf("expected mode none in body, got %s", got.body)
	}

	if resp.StatusCode != http.StatusOK || string(resp.Body) != `{"code":0}` {
		t.Errorf("unexpected response %d %q", resp.StatusCode, resp.Body)
	}
}

func TestSend_PostWhenRequested(t *testing.T) {
	srv, reqs := captureServer(http.StatusOK, `{}`)
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.WriteCommand("capture/trigger", nil)
	req.Method = "post"
	req.TargetIP = hostOf(srv)

	if _, err := d.Send(context.Background(), req); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got := <-reqs; got.method != http.MethodPost {
		t.Errorf("expected POST, got %s", got.method)
	}
}

func TestSend_ReadUsesGetWithoutBody(t *testing.T) {
	srv, reqs := captureServer(http.StatusOK, `{"enable":true}`)
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.ReadCommand(models.PathGestureLock)
	req.TargetIP = hostOf(srv)
	req.Payload = map[string]bool{"ignored": true}

	if _, err := d.Send(context.Background(), req); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	got := <-reqs
	if got.method != http.MethodGet {
		t.Errorf("expected GET, got %s", got.method)
	}
	if len(got.body) != 0 {
		t.Errorf("expected empty body on read, got %d bytes", len(got.body))
	}
}

func TestSend_NonSuccessIsNotAnError(t *testing.T) {
	srv, _ := captureServer(http.StatusServiceUnavailable, "")
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.ResetPosition()
	req.TargetIP = hostOf(srv)

	resp, err := d.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestSend_SingleAttempt(t *testing.T) {
	srv, reqs := captureServer(http.StatusInternalServerError, "")
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.StartTracking()
	req.TargetIP = hostOf(srv)

	if _, err := d.Send(context.Background(), req); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if calls := len(reqs); calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := hostOf(srv)
	srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.StopTracking()
	req.TargetIP = addr

	_, err := d.Send(context.Background(), req)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if msg := TransportMessage(err); msg != "connection refused" {
		t.Errorf("expected connection refused, got %q", msg)
	}
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	d := New(slogdiscard.NewDiscardLogger(), 50*time.Millisecond)

	req := models.ReadCommand(models.PathWorkMode)
	req.TargetIP = hostOf(srv)

	start := time.Now()
	_, err := d.Send(context.Background(), req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("send was not bounded by timeout, took %s", elapsed)
	}
	if msg := TransportMessage(err); msg != "timeout" {
		t.Errorf("expected timeout, got %q", msg)
	}
}

func TestSend_InvalidMethod(t *testing.T) {
	d := New(slogdiscard.NewDiscardLogger(), time.Second)

	req := models.CommandRequest{TargetIP: "127.0.0.1", Path: "ai/workmode", Mode: models.ModeRead, Method: "put"}

	if _, err := d.Send(context.Background(), req); err == nil {
		t.Fatal("expected error for PUT in read mode")
	}
}
