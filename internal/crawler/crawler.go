package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/inventoryhub/config"
	"sjsage522/inventoryhub/internal/extractor"
	"sjsage522/inventoryhub/internal/inventory"
	"sjsage522/inventoryhub/internal/profile"
	"sjsage522/inventoryhub/logger"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PageCrawler drives one merchant crawl: it walks listing pages, discovers
// product links and extracts every product page with a bounded worker pool.
type PageCrawler struct {
	fetcher PageFetcher
	cfg     config.CrawlConfig
	log     *logger.Logger
}

// Option configures a PageCrawler
type Option func(*PageCrawler)

// WithLogger sets the base logger
func WithLogger(log *logger.Logger) Option {
	return func(c *PageCrawler) {
		c.log = log
	}
}

// New creates a PageCrawler on top of f
func New(f PageFetcher, cfg config.CrawlConfig, opts ...Option) *PageCrawler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.InterItemDelay < 0 {
		cfg.InterItemDelay = 0
	}

	c := &PageCrawler{fetcher: f, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.ForCrawler("")
	}
	return c
}

// Crawl dispatches to CrawlSingle or CrawlPaginated depending on maxPages
func (c *PageCrawler) Crawl(ctx context.Context, url string, p *profile.MerchantProfile, maxPages int) (*Result, error) {
	if c.cfg.MaxPages > 0 && maxPages > c.cfg.MaxPages {
		c.log.Warn().Int("requested", maxPages).Int("limit", c.cfg.MaxPages).Msg("Clamping page count")
		maxPages = c.cfg.MaxPages
	}
	if maxPages > 1 {
		return c.CrawlPaginated(ctx, url, p, maxPages)
	}

	res := c.newResult(p)
	log := c.runLogger(res)
	log.Info().Str("url", url).Msg("Crawling single product page")

	res.ItemsAttempted = 1
	item, err := c.CrawlSingle(ctx, url, p)
	if err != nil {
		res.ItemErrors = 1
		res.LastItemError = err
		return c.fail(ctx, res, url, err)
	}

	res.PagesVisited = 1
	res.Items.Add(*item)
	return c.finish(res, StatusCompleted, nil)
}

// CrawlSingle fetches one product page and extracts it
func (c *PageCrawler) CrawlSingle(ctx context.Context, url string, p *profile.MerchantProfile) (*inventory.Item, error) {
	page, err := c.fetcher.Fetch(ctx, url, p.Transport())
	if err != nil {
		return nil, err
	}

	item := extractor.Extract(page, p)
	return &item, nil
}

// CrawlPaginated walks up to maxPages listing pages starting at start. It
// stops early when a page yields no new product links. The returned Result
// is never nil and holds everything gathered before a failure.
func (c *PageCrawler) CrawlPaginated(ctx context.Context, start string, p *profile.MerchantProfile, maxPages int) (*Result, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	res := c.newResult(p)
	log := c.runLogger(res)
	log.Info().Str("url", start).Int("max_pages", maxPages).Msg("Starting paginated crawl")

	limiter := c.newLimiter()
	seen := make(map[string]struct{})

	for n := 1; n <= maxPages; n++ {
		if err := ctx.Err(); err != nil {
			return c.finish(res, StatusCanceled, crawlerrors.NewCanceled(p.Name(), err))
		}

		pageURL, err := PageURL(start, p.Pagination(), n)
		if err != nil {
			return c.finish(res, StatusAborted, crawlerrors.NewCrawlAborted(p.Name(), start, err))
		}

		listing, err := c.fetcher.Fetch(ctx, pageURL, p.Transport())
		if err != nil {
			log.Warn().Err(err).Str("url", pageURL).Int("page", n).Msg("Listing page could not be fetched")
			return c.fail(ctx, res, pageURL, err)
		}
		res.PagesVisited++

		var fresh []string
		for _, link := range DiscoverLinks(listing, p) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			fresh = append(fresh, link)
		}
		res.LinksDiscovered += len(fresh)

		log.Debug().Int("page", n).Int("links", len(fresh)).Msg("Listing page processed")
		if len(fresh) == 0 {
			log.Info().Int("page", n).Msg("No new product links, stopping pagination")
			break
		}

		items, err := c.crawlItems(ctx, fresh, p, limiter, res, log)
		res.Items.AddAll(items)
		if err != nil {
			return c.fail(ctx, res, pageURL, err)
		}
	}

	return c.finish(res, StatusCompleted, nil)
}

// crawlItems extracts links with at most cfg.Concurrency fetches in flight
// and returns the items in link order. Per-item failures are recorded on res;
// only cancellation and browser failures are returned.
func (c *PageCrawler) crawlItems(ctx context.Context, links []string, p *profile.MerchantProfile, limiter *rate.Limiter, res *Result, log *logger.Logger) ([]inventory.Item, error) {
	slots := make([]*inventory.Item, len(links))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, link := range links {
		if err := limiter.Wait(gctx); err != nil {
			break
		}

		res.ItemsAttempted++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			item, err := c.CrawlSingle(gctx, link, p)
			if err == nil {
				slots[i] = item
				return nil
			}

			if crawlerrors.Is(err, crawlerrors.ErrorTypeBrowserUnavailable) {
				return err
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}

			log.Warn().Err(err).Str("url", link).Msg("Skipping product page")
			mu.Lock()
			res.ItemErrors++
			res.LastItemError = err
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	items := make([]inventory.Item, 0, len(slots))
	for _, item := range slots {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, err
}

// fail maps err onto the terminal status of the crawl
func (c *PageCrawler) fail(ctx context.Context, res *Result, url string, err error) (*Result, error) {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		cause := ctx.Err()
		if cause == nil {
			cause = err
		}
		return c.finish(res, StatusCanceled, crawlerrors.NewCanceled(res.Merchant, cause))
	case crawlerrors.Is(err, crawlerrors.ErrorTypeBrowserUnavailable):
		return c.finish(res, StatusFailed, err)
	default:
		return c.finish(res, StatusAborted, crawlerrors.NewCrawlAborted(res.Merchant, url, err))
	}
}

func (c *PageCrawler) finish(res *Result, status Status, err error) (*Result, error) {
	res.Status = status
	res.FinishedAt = time.Now().UTC()

	log := c.runLogger(res)
	var event *zerolog.Event
	if err != nil {
		event = log.Warn().Err(err)
	} else {
		event = log.Info()
	}
	event.
		Str("status", string(status)).
		Int("pages", res.PagesVisited).
		Int("links", res.LinksDiscovered).
		Int("items", res.Items.Len()).
		Int("item_errors", res.ItemErrors).
		Dur("duration", res.Duration()).
		Msg("Crawl finished")

	return res, err
}

func (c *PageCrawler) newResult(p *profile.MerchantProfile) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		Merchant:  p.Name(),
		Items:     inventory.NewCollection(),
		StartedAt: time.Now().UTC(),
	}
}

func (c *PageCrawler) runLogger(res *Result) *logger.Logger {
	return c.log.WithFields(logger.Fields{
		"run_id":   res.RunID,
		"merchant": res.Merchant,
	})
}

// newLimiter spaces item fetches by the inter-item delay; a zero delay
// disables pacing
func (c *PageCrawler) newLimiter() *rate.Limiter {
	if c.cfg.InterItemDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(c.cfg.InterItemDelay), 1)
}
