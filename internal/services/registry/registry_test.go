package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/logger/handlers/slogdiscard"
	"github.com/zanzhit/ptz_console/internal/storage/memory"
)

func newRegistry() *Registry {
	storage := memory.New()

	return New(slogdiscard.NewDiscardLogger(), storage, storage)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	_, err := r.CreateGroup(ctx, "")
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("empty group name: err = %v", err)
	}

	tests := []struct {
		name  string
		cam   models.Camera
		field string
	}{
		{"missing name", models.Camera{IP: "10.0.0.1", GroupID: 1}, "Name"},
		{"missing ip", models.Camera{Name: "C1", GroupID: 1}, "IP"},
		{"missing group", models.Camera{Name: "C1", IP: "10.0.0.1"}, "GroupID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateCamera(ctx, tt.cam)

			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if verrs[0].Field() != tt.field {
				t.Errorf("field = %s, want %s", verrs[0].Field(), tt.field)
			}
		})
	}
}

func TestCameraIPIsNotParsed(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	g, _ := r.CreateGroup(ctx, "Hall")

	cam, err := r.CreateCamera(ctx, models.Camera{Name: "C1", IP: "camera-1.local", GroupID: g.ID})
	if err != nil {
		t.Fatalf("CreateCamera: %v", err)
	}
	if cam.IP != "camera-1.local" {
		t.Errorf("ip = %q", cam.IP)
	}
}

func TestCreateCameraIgnoresClientID(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	g, _ := r.CreateGroup(ctx, "Hall")

	first, _ := r.CreateCamera(ctx, models.Camera{ID: 500, Name: "C1", IP: "10.0.0.1", GroupID: g.ID})
	if first.ID == 500 {
		t.Errorf("client supplied id kept")
	}
}

func TestDeleteGroupWithCameras(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	g, _ := r.CreateGroup(ctx, "Hall")
	cam, _ := r.CreateCamera(ctx, models.Camera{Name: "C1", IP: "10.0.0.1", GroupID: g.ID})

	if err := r.DeleteGroup(ctx, g.ID); !errors.Is(err, errs.ErrGroupNotEmpty) {
		t.Fatalf("err = %v, want ErrGroupNotEmpty", err)
	}

	if _, err := r.Camera(ctx, cam.ID); err != nil {
		t.Errorf("camera lost after rejected delete: %v", err)
	}

	if err := r.DeleteCamera(ctx, cam.ID); err != nil {
		t.Fatalf("DeleteCamera: %v", err)
	}
	if err := r.DeleteGroup(ctx, g.ID); err != nil {
		t.Errorf("delete emptied group: %v", err)
	}
}

func TestGroupCameras(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	if _, err := r.GroupCameras(ctx, 3); !errors.Is(err, errs.ErrGroupNotFound) {
		t.Errorf("unknown group: err = %v", err)
	}

	a, _ := r.CreateGroup(ctx, "A")
	b, _ := r.CreateGroup(ctx, "B")
	_, _ = r.CreateCamera(ctx, models.Camera{Name: "C1", IP: "10.0.0.1", GroupID: a.ID})
	_, _ = r.CreateCamera(ctx, models.Camera{Name: "C2", IP: "10.0.0.2", GroupID: b.ID})

	cams, err := r.GroupCameras(ctx, a.ID)
	if err != nil {
		t.Fatalf("GroupCameras: %v", err)
	}
	if len(cams) != 1 || cams[0].Name != "C1" {
		t.Errorf("cams = %+v", cams)
	}

	empty, _ := r.CreateGroup(ctx, "Empty")
	cams, err = r.GroupCameras(ctx, empty.ID)
	if err != nil || len(cams) != 0 {
		t.Errorf("empty group: cams = %+v, err = %v", cams, err)
	}
}

func TestUpdateCamera(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	g, _ := r.CreateGroup(ctx, "Hall")
	cam, _ := r.CreateCamera(ctx, models.Camera{Name: "C1", IP: "10.0.0.1", GroupID: g.ID})

	cam.IP = "10.0.0.9"
	if err := r.UpdateCamera(ctx, cam); err != nil {
		t.Fatalf("UpdateCamera: %v", err)
	}

	got, _ := r.Camera(ctx, cam.ID)
	if got.IP != "10.0.0.9" {
		t.Errorf("ip = %q", got.IP)
	}

	cam.GroupID = 99
	if err := r.UpdateCamera(ctx, cam); !errors.Is(err, errs.ErrGroupNotFound) {
		t.Errorf("move to unknown group: err = %v", err)
	}
}
