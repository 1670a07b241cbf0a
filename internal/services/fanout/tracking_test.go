package fanout

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

func TestPollTrackingState_PartialDegradation(t *testing.T) {
	cam := models.Camera{ID: 1, IP: "10.0.0.1", GroupID: 1}

	sender := &fakeSender{replies: map[string]reply{
		"10.0.0.1 " + models.PathGestureLock:      {status: http.StatusOK, body: `{"enable":true}`},
		"10.0.0.1 " + models.PathGestureRecord:    {status: http.StatusOK, body: `{"enable":false}`},
		"10.0.0.1 " + models.PathGestureZoom:      {err: errors.New("connection reset")},
		"10.0.0.1 " + models.PathRecordResolution: {status: http.StatusOK, body: `{"resolution":"1080p"}`},
	}}

	coord := newCoordinator(newFakeSource(cam), sender, &fakeRefresher{})

	poll := coord.PollTrackingState(context.Background(), []models.Camera{cam})

	if len(poll.Errors) != 0 {
		t.Errorf("expected no camera-level error, got %v", poll.Errors)
	}

	st, ok := poll.States[1]
	if !ok {
		t.Fatal("expected a state for camera 1")
	}
	if st.LockedTarget == nil || !*st.LockedTarget {
		t.Errorf("lockedTarget: %v", st.LockedTarget)
	}
	if st.Recording == nil || *st.Recording {
		t.Errorf("recording: %v", st.Recording)
	}
	if st.Zoom != nil {
		t.Errorf("zoom should be unset, got %v", *st.Zoom)
	}
	if st.Resolution == nil || *st.Resolution != "1080p" {
		t.Errorf("resolution: %v", st.Resolution)
	}

	if !st.GesturesEnabled() {
		t.Error("expected gestures to be reported as enabled")
	}

	for _, req := range sender.requests {
		if req.Mode != models.ModeRead {
			t.Errorf("sub-query %s used mode %s", req.Path, req.Mode)
		}
	}
	if len(sender.requests) != 4 {
		t.Errorf("expected 4 sub-queries, got %d", len(sender.requests))
	}
}

func TestPollTrackingState_TotalFailureIsolated(t *testing.T) {
	good := models.Camera{ID: 1, IP: "10.0.0.1", GroupID: 1}
	dead := models.Camera{ID: 2, IP: "10.0.0.2", GroupID: 1}

	sender := &fakeSender{replies: map[string]reply{
		"10.0.0.1": {status: http.StatusOK, body: `{"enable":false,"resolution":"4k"}`},
		"10.0.0.2": {err: refusedErr()},
	}}

	refresher := &fakeRefresher{}
	coord := newCoordinator(newFakeSource(good, dead), sender, refresher)

	poll := coord.PollTrackingState(context.Background(), []models.Camera{good, dead})

	if _, ok := poll.States[2]; ok {
		t.Error("dead camera must not have a state entry")
	}
	if poll.Errors[2] == "" {
		t.Error("expected an error entry for the dead camera")
	}

	st, ok := poll.States[1]
	if !ok {
		t.Fatal("good camera must still be polled")
	}
	if st.LockedTarget == nil || st.Recording == nil || st.Zoom == nil || st.Resolution == nil {
		t.Errorf("expected all fields set, got %+v", st)
	}
	if st.GesturesEnabled() {
		t.Error("gestures should be off")
	}

	if len(refresher.calls) != 0 {
		t.Errorf("sub-queries must not trigger a refresh, got %d", len(refresher.calls))
	}
}

func TestPollTrackingState_ProtocolErrorAndMissingField(t *testing.T) {
	cam := models.Camera{ID: 3, IP: "10.0.0.3", GroupID: 1}

	sender := &fakeSender{replies: map[string]reply{
		"10.0.0.3 " + models.PathGestureLock:      {status: http.StatusInternalServerError, body: `{"enable":true}`},
		"10.0.0.3 " + models.PathGestureRecord:    {status: http.StatusOK, body: `{}`},
		"10.0.0.3 " + models.PathGestureZoom:      {status: http.StatusOK, body: `not json`},
		"10.0.0.3 " + models.PathRecordResolution: {status: http.StatusOK, body: `{"resolution":3}`},
	}}

	coord := newCoordinator(newFakeSource(cam), sender, nil)

	poll := coord.PollTrackingState(context.Background(), []models.Camera{cam})

	st, ok := poll.States[3]
	if !ok {
		t.Fatalf("expected partial state, errors: %v", poll.Errors)
	}
	if st.LockedTarget != nil || st.Recording != nil || st.Zoom != nil {
		t.Errorf("expected gesture fields unset, got %+v", st)
	}
	if st.Resolution == nil || *st.Resolution != "3" {
		t.Errorf("resolution: %v", st.Resolution)
	}
}

func TestDisableGestures(t *testing.T) {
	cam := models.Camera{ID: 1, IP: "10.0.0.1", GroupID: 1}

	sender := &fakeSender{replies: map[string]reply{
		"10.0.0.1": {status: http.StatusOK, body: `{"enable":false,"resolution":"1080p"}`},
	}}

	coord := newCoordinator(newFakeSource(cam), sender, nil)

	reset := coord.DisableGestures(context.Background(), cam)

	if len(reset.Outcomes) != 3 {
		t.Fatalf("expected 3 write outcomes, got %d", len(reset.Outcomes))
	}
	for path, o := range reset.Outcomes {
		if !o.OK() {
			t.Errorf("%s: %+v", path, o)
		}
	}

	writes := 0
	for _, req := range sender.requests {
		if req.Mode == models.ModeWrite {
			writes++
			if p, ok := req.Payload.(map[string]bool); !ok || p["enable"] {
				t.Errorf("unexpected payload %v", req.Payload)
			}
		}
	}
	if writes != 3 {
		t.Errorf("expected 3 writes, got %d", writes)
	}

	if _, ok := reset.State.States[1]; !ok {
		t.Error("expected state to be re-read after disabling")
	}
}
