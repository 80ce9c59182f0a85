package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/inventoryhub/config"
	"sjsage522/inventoryhub/internal/crawler"
	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/profile"
	"sjsage522/inventoryhub/logger"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"
	"sjsage522/inventoryhub/services/cache"
	"sjsage522/inventoryhub/services/publisher"
)

const publishTimeout = 30 * time.Second

// Job is one crawl request: a start URL, the merchant whose profile drives
// extraction and the number of listing pages to walk. MaxPages <= 1 crawls
// URL as a single product page.
type Job struct {
	URL       string
	Merchant  string
	MaxPages  int
	Overrides profile.Overrides
}

// Session is a crawler bound to the resources of one job
type Session interface {
	crawler.Crawler
	Close() error
}

// SessionFactory creates a fresh Session for every job
type SessionFactory func() (Session, error)

type pageSession struct {
	*crawler.PageCrawler
	fetcher *fetcher.Fetcher
}

func (s *pageSession) Close() error {
	return s.fetcher.Close()
}

// NewSessionFactory returns a factory building a PageCrawler over its own
// Fetcher, so connection pools and the browser live exactly as long as a job
func NewSessionFactory(fetchCfg config.FetchConfig, crawlCfg config.CrawlConfig, cacheSvc cache.CacheService) SessionFactory {
	return func() (Session, error) {
		opts := []fetcher.Option{}
		if cacheSvc != nil {
			opts = append(opts, fetcher.WithCache(cacheSvc))
		}
		f := fetcher.New(fetchCfg, opts...)
		return &pageSession{PageCrawler: crawler.New(f, crawlCfg), fetcher: f}, nil
	}
}

// Worker runs crawl jobs and publishes the extracted items
type Worker struct {
	newSession    SessionFactory
	publisher     publisher.Publisher
	log           *logger.Logger
	crawlInterval time.Duration
}

// NewWorker creates a new worker. pub may be nil to skip publishing.
func NewWorker(newSession SessionFactory, pub publisher.Publisher, crawlInterval time.Duration) *Worker {
	return &Worker{
		newSession:    newSession,
		publisher:     pub,
		log:           logger.ForWorker(),
		crawlInterval: crawlInterval,
	}
}

// SetLogger replaces the worker logger
func (w *Worker) SetLogger(log *logger.Logger) {
	w.log = log
}

// Run executes one job. The result holds whatever was gathered even when an
// error is returned, and is published before returning.
func (w *Worker) Run(ctx context.Context, job Job) (*crawler.Result, error) {
	if job.URL == "" {
		return nil, crawlerrors.NewValidation(job.Merchant, "url is required", nil)
	}

	p, err := profile.Resolve(job.Merchant, job.Overrides)
	if err != nil {
		return nil, err
	}

	session, err := w.newSession()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			w.log.Warn().Err(closeErr).Str("merchant", p.Name()).Msg("Failed to release crawl session")
		}
	}()

	w.log.Info().
		Str("merchant", p.Name()).
		Str("url", job.URL).
		Int("max_pages", job.MaxPages).
		Str("transport", string(p.Transport())).
		Msg("Running crawl job")

	res, crawlErr := session.Crawl(ctx, job.URL, p, job.MaxPages)
	if res != nil {
		w.publish(ctx, res)
	}

	return res, crawlErr
}

// publish sends every item to the merchant stream. Partial results of a
// canceled crawl are still published.
func (w *Worker) publish(ctx context.Context, res *crawler.Result) {
	if w.publisher == nil || res.Items.Len() == 0 {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	published := 0
	for item := range res.Items.All() {
		data, err := json.Marshal(item)
		if err != nil {
			w.log.Error().Err(err).Str("url", item.ProductURL).Msg("Failed to encode item")
			continue
		}
		if err := w.publisher.Publish(pubCtx, res.Merchant, data); err != nil {
			w.log.Error().Err(err).Str("merchant", res.Merchant).Msg("Failed to publish item")
			continue
		}
		published++
	}

	if err := w.publisher.TrimStreams(pubCtx); err != nil {
		logger.LogError("StreamTrimming", err, "failed to trim streams after %s", res.RunID)
	}

	w.log.Info().
		Str("run_id", res.RunID).
		Str("merchant", res.Merchant).
		Int("published", published).
		Msg("Items published")
}

// Start runs jobs in parallel every crawl interval until ctx is canceled.
// A zero interval runs the jobs once.
func (w *Worker) Start(ctx context.Context, jobs []Job) error {
	for {
		start := time.Now()
		w.runJobs(ctx, jobs)
		w.log.Info().Dur("elapsed", time.Since(start)).Int("jobs", len(jobs)).Msg("Crawl round finished")

		if w.crawlInterval <= 0 {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

func (w *Worker) runJobs(ctx context.Context, jobs []Job) {
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			res, err := w.Run(ctx, job)
			if err != nil {
				w.log.Error().Err(err).Str("merchant", job.Merchant).Str("url", job.URL).Msg("Crawl job failed")
				return
			}
			w.log.Info().
				Str("run_id", res.RunID).
				Str("merchant", res.Merchant).
				Int("items", res.Items.Len()).
				Msg("Crawl job completed")
		}(job)
	}
	wg.Wait()
}
