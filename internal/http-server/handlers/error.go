package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/ptz_console/internal/lib/api/response"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
)

func Error(w http.ResponseWriter, r *http.Request, statusCode int, err response.Response) {
	render.Status(r, statusCode)
	render.JSON(w, r, err)
}

// Decode reads a JSON body into v and validates it. On failure the error
// response is already written and false is returned.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	err := render.DecodeJSON(r.Body, v)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return false
		}

		log.Error("failed to decode request body", sl.Err(err))

		Error(w, r, http.StatusBadRequest, response.Error("failed to decode request", middleware.GetReqID(r.Context())))

		return false
	}

	log.Info("request body decoded", slog.Any("request", v))

	if err := validator.New().Struct(v); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			log.Error("invalid request", sl.Err(err))

			Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

			return false
		}
	}

	return true
}

// ValidationFailed writes a 400 when err carries validator errors.
func ValidationFailed(w http.ResponseWriter, r *http.Request, err error) bool {
	var validateErr validator.ValidationErrors
	if !errors.As(err, &validateErr) {
		return false
	}

	Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

	return true
}

// IDParam parses a positive integer URL parameter. On failure a 400 is
// written and false is returned.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		Error(w, r, http.StatusBadRequest, response.Error("invalid "+name, ""))

		return 0, false
	}

	return id, true
}
