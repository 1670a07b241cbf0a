// Package dispatcher sends single commands to a camera's SDK endpoint.
//
// Every Send is exactly one HTTP attempt. Device commands move motors and
// toggle recording, so a retry is never issued on the caller's behalf.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zanzhit/ptz_console/internal/domain/models"
)

const sdkPrefix = "camera/sdk"

type Response struct {
	StatusCode int
	Body       []byte
}

type Dispatcher struct {
	log    *slog.Logger
	client *resty.Client
}

func New(log *slog.Logger, timeout time.Duration) *Dispatcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log: log})

	return &Dispatcher{
		log:    log,
		client: client,
	}
}

// CommandURL builds http://<ip>/camera/sdk/<path>.
func CommandURL(ip, path string) string {
	return fmt.Sprintf("http://%s/%s/%s", ip, sdkPrefix, strings.TrimLeft(path, "/"))
}

// Send performs the call. Any status code is a valid Response; only
// transport failures (dial, timeout, reset) are returned as errors.
func (d *Dispatcher) Send(ctx context.Context, req models.CommandRequest) (Response, error) {
	const op = "dispatcher.Send"

	method, err := req.HTTPMethod()
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", op, err)
	}

	target := CommandURL(req.TargetIP, req.Path)

	log := d.log.With(
		slog.String("op", op),
		slog.String("method", method),
		slog.String("url", target),
	)

	r := d.client.R().SetContext(ctx)
	if req.Payload != nil && req.Mode == models.ModeWrite {
		r.SetBody(req.Payload)
	}

	resp, err := r.Execute(method, target)
	if err != nil {
		log.Debug("camera unreachable", slog.String("error", err.Error()))

		return Response{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("camera responded", slog.Int("status", resp.StatusCode()))

	return Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

// TransportMessage reduces a transport error to the part worth showing next
// to a camera, e.g. "connection refused" or "timeout".
func TransportMessage(err error) string {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}

	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		err = inner
	}

	return err.Error()
}

type restyLogger struct {
	log *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), slog.String("component", "resty"))
}
