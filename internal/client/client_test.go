package client

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
)

func TestDispatchGroup(t *testing.T) {
	bodyCh := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/groups/7/commands" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		b, _ := io.ReadAll(r.Body)
		bodyCh <- string(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"roundId":"r1","outcomes":{"1":{"cameraId":1,"kind":"success","statusCode":200,"message":""},"2":{"cameraId":2,"kind":"failure","message":"timeout"}},"refresh":{"pending":true}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	round, err := c.DispatchGroup(context.Background(), 7, Command{
		Path: models.PathWorkMode,
		Data: json.RawMessage(`{"mode":"humanTracking"}`),
	})
	if err != nil {
		t.Fatalf("DispatchGroup: %v", err)
	}

	body := <-bodyCh
	if !strings.Contains(body, `"path":"ai/workmode"`) || !strings.Contains(body, `"mode":"humanTracking"`) {
		t.Errorf("body = %s", body)
	}

	if round.RoundID != "r1" || len(round.Outcomes) != 2 {
		t.Fatalf("round = %+v", round)
	}
	if !round.Outcomes[1].OK() || round.Outcomes[2].Message != "timeout" {
		t.Errorf("outcomes = %+v", round.Outcomes)
	}
	if round.Refresh == nil || !round.Refresh.Pending {
		t.Errorf("refresh = %+v", round.Refresh)
	}
}

func TestAPIErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"group still has cameras"}`)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).DeleteGroup(context.Background(), 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "group still has cameras") || !strings.Contains(err.Error(), "409") {
		t.Errorf("err = %v", err)
	}
}

func TestGroupsAndAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/groups":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Hall A"}]`)
		case "/api/alive":
			_, _ = io.WriteString(w, `{"1":true,"2":false}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	groups, err := c.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Hall A" {
		t.Errorf("groups = %+v", groups)
	}

	alive, err := c.Alive(context.Background())
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if !alive[1] || alive[2] {
		t.Errorf("alive = %v", alive)
	}
}
