package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/inventoryhub/config"
	"sjsage522/inventoryhub/logger"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in a single shared Chrome instance. The
// browser starts on the first Render call; renders are serialized and each
// one runs in its own tab.
type ChromeRenderer struct {
	cfg config.FetchConfig
	log *logger.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	startErr      error
	closed        bool
}

// NewChromeRenderer creates a renderer without launching the browser
func NewChromeRenderer(cfg config.FetchConfig, log *logger.Logger) *ChromeRenderer {
	if log == nil {
		log = logger.ForFetcher()
	}
	return &ChromeRenderer{cfg: cfg, log: log}
}

// Started reports whether the browser is running
func (r *ChromeRenderer) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browserCtx != nil
}

func (r *ChromeRenderer) start() error {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.cfg.UserAgent),
	)
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return crawlerrors.NewBrowserUnavailable(err)
	}

	r.allocCancel = allocCancel
	r.browserCtx = browserCtx
	r.browserCancel = browserCancel

	r.log.Info().Bool("headless", r.cfg.Headless).Msg("Headless browser started")
	return nil
}

// Render navigates a new tab to url, waits for the settle delay and returns
// the serialized DOM. It fails with render_failure when the page does not
// load within the render timeout and with browser_unavailable when Chrome
// cannot be launched.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", crawlerrors.NewBrowserUnavailable(errors.New("renderer is closed"))
	}
	if r.startErr != nil {
		return "", r.startErr
	}
	if r.browserCtx == nil {
		if err := r.start(); err != nil {
			r.startErr = err
			return "", err
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	tabCtx, cancel := context.WithTimeout(tabCtx, r.cfg.RenderTimeout)
	defer cancel()

	// caller cancellation only ends this render
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.log.Warn().Err(err).Str("url", url).Dur("elapsed", time.Since(start)).Msg("Render failed")
		return "", crawlerrors.NewRenderFailure("", url, err)
	}

	return html, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.browserCtx == nil {
		return nil
	}

	err := chromedp.Cancel(r.browserCtx)
	r.browserCancel()
	r.allocCancel()
	r.browserCtx = nil

	r.log.Info().Msg("Headless browser stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
