package groupshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zanzhit/ptz_console/internal/domain/models"
	"github.com/zanzhit/ptz_console/internal/lib/logger/handlers/slogdiscard"
	"github.com/zanzhit/ptz_console/internal/services/registry"
	"github.com/zanzhit/ptz_console/internal/storage/memory"
)

func setup() (http.Handler, *registry.Registry) {
	log := slogdiscard.NewDiscardLogger()
	storage := memory.New()
	reg := registry.New(log, storage, storage)

	h := New(log, reg)

	r := chi.NewRouter()
	r.Get("/api/groups", h.List)
	r.Post("/api/groups", h.Create)
	r.Delete("/api/groups/{id}", h.Delete)

	return r, reg
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestCreateAndList(t *testing.T) {
	router, _ := setup()

	rec := serve(router, http.MethodPost, "/api/groups", `{"name":"Hall A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body)
	}

	var created models.Group
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Name != "Hall A" {
		t.Errorf("created = %+v", created)
	}

	rec = serve(router, http.MethodGet, "/api/groups", "")

	var groups []models.Group
	if err := json.NewDecoder(rec.Body).Decode(&groups); err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0] != created {
		t.Errorf("groups = %+v", groups)
	}
}

func TestCreateRequiresName(t *testing.T) {
	router, _ := setup()

	rec := serve(router, http.MethodPost, "/api/groups", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "required") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestDelete(t *testing.T) {
	router, reg := setup()
	ctx := context.Background()

	busy, _ := reg.CreateGroup(ctx, "Busy")
	_, _ = reg.CreateCamera(ctx, models.Camera{Name: "C1", IP: "10.0.0.1", GroupID: busy.ID})
	_, _ = reg.CreateGroup(ctx, "Empty")

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"group with cameras", "/api/groups/1", http.StatusConflict},
		{"empty group", "/api/groups/2", http.StatusNoContent},
		{"already deleted", "/api/groups/2", http.StatusNotFound},
		{"malformed id", "/api/groups/x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodDelete, tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
