package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout  = 30 * time.Second
	defaultViewportWidth  = 1024
	defaultViewportHeight = 1400
	sheetSelector         = "#estimate-sheet"
)

// prepareScript hides interaction-only controls and swaps every input and
// textarea for a span holding its value. It keeps what it changed so
// restoreScript can undo it.
const prepareScript = `(() => {
  const sheet = document.getElementById('estimate-sheet');
  if (!sheet) { return -1; }
  const hidden = [];
  sheet.querySelectorAll('.print-hide').forEach(el => {
    const targets = (el.tagName === 'TD' || el.tagName === 'TH') ? Array.from(el.children) : [el];
    targets.forEach(t => { hidden.push([t, t.style.visibility]); t.style.visibility = 'hidden'; });
  });
  const replaced = [];
  sheet.querySelectorAll('input, textarea').forEach(input => {
    const span = document.createElement('span');
    span.textContent = input.value;
    span.className = input.className;
    span.style.border = 'none';
    if (input.tagName === 'TEXTAREA') { span.style.whiteSpace = 'pre-wrap'; }
    input.replaceWith(span);
    replaced.push([span, input]);
  });
  window.__sheetCapture = { hidden, replaced };
  return hidden.length + replaced.length;
})()`

// restoreScript reverses prepareScript
const restoreScript = `(() => {
  const state = window.__sheetCapture;
  if (!state) { return false; }
  state.replaced.forEach(([span, input]) => span.replaceWith(input));
  state.hidden.forEach(([el, visibility]) => { el.style.visibility = visibility; });
  delete window.__sheetCapture;
  return true;
})()`

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// DefaultTimeout bounds a single capture
	DefaultTimeout time.Duration
	// RemoteURL is the DevTools websocket URL of a running Chrome (optional).
	// If empty, chromedp launches a local headless browser.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Scale is the device scale factor of the screenshot
	Scale float64
	// ViewportWidth is the CSS width of the page the sheet is laid out in
	ViewportWidth int64
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRasterizer screenshots the sheet in headless Chrome
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	engine      *TemplateEngine
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRasterizer creates a chromedp-based rasterizer. The browser is
// started lazily on the first capture.
func NewChromedpRasterizer(engine *TemplateEngine, config *ChromedpConfig) (*ChromedpRasterizer, error) {
	if engine == nil {
		return nil, errors.New("template engine is required")
	}
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.Scale <= 0 {
		config.Scale = DefaultScale
	}
	if config.ViewportWidth <= 0 {
		config.ViewportWidth = defaultViewportWidth
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		engine: engine,
		logger: logger,
	}

	if config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(config)...)
	}

	return r, nil
}

func allocatorOptions(config *ChromedpConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("hide-scrollbars", true),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// Rasterize loads the sheet into a blank page, prepares it for capture,
// takes an element screenshot and restores the page afterwards.
func (r *ChromedpRasterizer) Rasterize(ctx context.Context, sheet *Sheet) (*CaptureResult, error) {
	if sheet == nil {
		return nil, NewRenderError(ErrCodeInvalidSheet, "sheet is nil", nil)
	}

	// The page is laid out interactively; prepareScript makes it static
	// inside the browser.
	live := *sheet
	live.Interactive = true
	live.Focus = nil
	html, err := r.engine.RenderDocument(&live)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, r.config.DefaultTimeout)
	defer timeoutCancel()
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var pngData []byte
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(r.config.ViewportWidth, defaultViewportHeight, chromedp.EmulateScale(r.config.Scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitVisible(sheetSelector, chromedp.ByQuery),
	)
	if err == nil {
		err = r.capture(browserCtx, &pngData)
	}

	if err != nil {
		if ctx.Err() != nil || errors.Is(browserCtx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("sheet capture did not finish within %v", r.config.DefaultTimeout), err)
		}
		r.logger.Error("chromedp capture failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return nil, NewRenderError(ErrCodeEncodeFailed, "screenshot is not a valid PNG", err)
	}

	duration := time.Since(startTime)
	r.logger.Info("sheet captured",
		zap.String("engine", "chromedp"),
		zap.Int("bytes", len(pngData)),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Duration("duration", duration))

	return &CaptureResult{
		PNG:            pngData,
		Width:          cfg.Width,
		Height:         cfg.Height,
		RenderDuration: duration,
	}, nil
}

// capture runs the prepare script and the screenshot. The restore script
// runs even when the screenshot fails.
func (r *ChromedpRasterizer) capture(ctx context.Context, out *[]byte) error {
	var changed int
	if err := chromedp.Run(ctx, chromedp.Evaluate(prepareScript, &changed)); err != nil {
		return fmt.Errorf("prepare sheet: %w", err)
	}
	if changed < 0 {
		return errors.New("sheet element not found")
	}
	defer func() {
		var restored bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(restoreScript, &restored)); err != nil {
			r.logger.Debug("restore after capture failed", zap.Error(err))
		}
	}()

	return chromedp.Run(ctx, chromedp.Screenshot(sheetSelector, out, chromedp.NodeVisible, chromedp.ByQuery))
}

// Close releases resources held by the rasterizer
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// Ensure ChromedpRasterizer implements SheetRasterizer
var _ SheetRasterizer = (*ChromedpRasterizer)(nil)
