package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sjsage522/inventoryhub/config"
	"sjsage522/inventoryhub/internal/profile"
	"sjsage522/inventoryhub/logger"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"
	"sjsage522/inventoryhub/services/cache"
)

// RawPage is the content of one fetched page
type RawPage struct {
	URL        string
	Body       string
	FetchedAt  time.Time
	Transport  profile.Transport
	StatusCode int
}

// Renderer produces the DOM serialization of a page after client-side rendering
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Fetcher retrieves pages over plain HTTP or through a headless browser.
// One Fetcher is meant to live for exactly one crawl and must be closed.
type Fetcher struct {
	cfg      config.FetchConfig
	client   *http.Client
	renderer Renderer
	cache    cache.CacheService
	log      *logger.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithCache enables per-host rate-limit block markers
func WithCache(c cache.CacheService) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithRenderer replaces the chromedp renderer
func WithRenderer(r Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithHTTPClient replaces the pooled http client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a fetcher. The browser is not started until the first
// rendered fetch.
func New(cfg config.FetchConfig, opts ...Option) *Fetcher {
	f := &Fetcher{cfg: cfg}
	for _, opt := range opts {
		opt(f)
	}

	if f.log == nil {
		f.log = logger.ForFetcher()
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if f.renderer == nil {
		f.renderer = NewChromeRenderer(cfg, f.log)
	}

	return f
}

// Fetch retrieves url with the given transport. Errors are CrawlerErrors of
// kind network, timeout, http_status, render_failure or browser_unavailable,
// or the context's error when ctx ends first.
func (f *Fetcher) Fetch(ctx context.Context, url string, transport profile.Transport) (*RawPage, error) {
	switch transport {
	case profile.TransportHTTP, "":
		return f.fetchHTTP(ctx, url)
	case profile.TransportRendered:
		return f.fetchRendered(ctx, url)
	}
	return nil, crawlerrors.NewValidation("", fmt.Sprintf("unknown transport %q", transport), nil)
}

func (f *Fetcher) fetchRendered(ctx context.Context, url string) (*RawPage, error) {
	start := time.Now()

	html, err := f.renderer.Render(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if crawlerrors.Is(err, crawlerrors.ErrorTypeBrowserUnavailable) || crawlerrors.Is(err, crawlerrors.ErrorTypeRenderFailure) {
			return nil, err
		}
		return nil, crawlerrors.NewRenderFailure("", url, err)
	}

	f.log.Debug().
		Str("url", url).
		Int("bytes", len(html)).
		Dur("elapsed", time.Since(start)).
		Msg("Rendered page")

	return &RawPage{
		URL:       url,
		Body:      html,
		FetchedAt: time.Now().UTC(),
		Transport: profile.TransportRendered,
	}, nil
}

// Close releases the browser session and idle connections
func (f *Fetcher) Close() error {
	var errs []error
	if f.renderer != nil {
		if err := f.renderer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close renderer: %w", err))
		}
	}
	f.client.CloseIdleConnections()
	return errors.Join(errs...)
}
