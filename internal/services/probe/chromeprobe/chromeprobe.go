// Package chromeprobe reads a camera's tracking state from its embedded web
// UI with a headless Chrome. It is tied to the firmware's markup: when the
// tracking button cannot be found the probe fails instead of guessing.
package chromeprobe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/zanzhit/ptz_console/internal/domain/errs"
)

// Selector of the first button in the AI tracking panel.
const trackingButton = `#app > div > div > div.portal-content._scrollbar_mini > div > div > div.control-tail-air.control-wrap > div.control-body > div.air-console.isProd > div.foldable-list > div:nth-child(1) > div.panel-body > div:nth-child(1) > div.grid-list._c2 > button:nth-child(1)`

const (
	stateActive   = "active"
	stateInactive = "inactive"
	stateMissing  = "not-found"
)

var readState = fmt.Sprintf(`(() => {
	const btn = document.querySelector(%q);
	if (!btn) return %q;
	return btn.classList.contains("active") ? %q : %q;
})()`, trackingButton, stateMissing, stateActive, stateInactive)

type Prober struct {
	log       *slog.Logger
	settle    time.Duration
	allocOpts []chromedp.ExecAllocatorOption
}

func New(log *slog.Logger, chromePath string, settle time.Duration) *Prober {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.DisableGPU,
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	return &Prober{
		log:       log,
		settle:    settle,
		allocOpts: opts,
	}
}

// ProbeTrackingActive opens http://<ip>/#/control in a fresh browser, lets
// the SPA settle and inspects the tracking button. The caller's context
// bounds the whole session.
func (p *Prober) ProbeTrackingActive(ctx context.Context, ip string) (bool, error) {
	const op = "chromeprobe.ProbeTrackingActive"

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, p.allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var state string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(fmt.Sprintf("http://%s/#/control", ip)),
		chromedp.WaitReady("#app", chromedp.ByQuery),
		chromedp.Sleep(p.settle),
		chromedp.Evaluate(readState, &state),
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	p.log.Debug("tracking control read",
		slog.String("op", op),
		slog.String("camera_ip", ip),
		slog.String("state", state),
	)

	switch state {
	case stateActive:
		return true, nil
	case stateInactive:
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w", op, errs.ErrControlNotFound)
	}
}
