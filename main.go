package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"sjsage522/inventoryhub/config"
	"sjsage522/inventoryhub/internal/crawler"
	"sjsage522/inventoryhub/internal/inventory"
	"sjsage522/inventoryhub/internal/profile"
	"sjsage522/inventoryhub/logger"
	"sjsage522/inventoryhub/services/cache"
	"sjsage522/inventoryhub/services/publisher"
	"sjsage522/inventoryhub/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Cancel the crawl on SIGINT/SIGTERM; partial results are still saved
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// cliOptions holds the parsed command line
type cliOptions struct {
	URL           string
	Merchant      string
	Pages         int
	Rendered      bool
	Output        string
	Format        inventory.Format
	TitleSelector string
	PriceSelector string
}

// parseArgs parses the command line into cfg and the returned options.
// The URL may appear before, between or after the flags.
func parseArgs(args []string, cfg *config.Config, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("inventoryhub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: inventoryhub [flags] <url>\n\nScrape inventory data from merchant listings.\nBuilt-in merchants: %s\n\n", strings.Join(profile.Names(), ", "))
		fs.PrintDefaults()
	}

	opts := &cliOptions{}
	var format string
	fs.StringVar(&opts.Merchant, "merchant", "Generic", `merchant name, "depop" and "mercari" have dedicated profiles`)
	fs.IntVar(&opts.Pages, "pages", 1, "number of listing pages to crawl, 1 crawls a single product page")
	fs.BoolVar(&opts.Rendered, "rendered", false, "fetch pages through the headless browser")
	fs.StringVar(&opts.Output, "output", "", "output file path (default <OUTPUT_DIR>/inventory_<merchant>_<timestamp>.<format>)")
	fs.StringVar(&format, "format", cfg.Output.Format, "output format: json or csv")
	fs.StringVar(&opts.TitleSelector, "title-selector", "", "CSS selector for the product title")
	fs.StringVar(&opts.PriceSelector, "price-selector", "", "CSS selector for the price")
	fs.IntVar(&cfg.Crawl.Concurrency, "concurrency", cfg.Crawl.Concurrency, "product pages fetched in parallel")
	fs.DurationVar(&cfg.Crawl.InterItemDelay, "delay", cfg.Crawl.InterItemDelay, "pause between product page fetches")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one url, got %d", len(positional))
	}
	opts.URL = positional[0]

	f, err := inventory.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	opts.Format = f

	if opts.Pages < 1 {
		return nil, fmt.Errorf("pages must be at least 1, got %d", opts.Pages)
	}

	return opts, nil
}

// outputPath returns the explicit output path or the timestamped default
func outputPath(opts *cliOptions, dir string, now time.Time) string {
	if opts.Output != "" {
		return opts.Output
	}
	name := strings.Join(strings.Fields(opts.Merchant), "_")
	filename := fmt.Sprintf("inventory_%s_%s.%s", name, now.Format("20060102_150405"), opts.Format)
	return filepath.Join(dir, filename)
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stderr io.Writer) int {
	log := logger.Default
	if log == nil {
		logger.Init()
		log = logger.Default
	}

	cfg := config.LoadConfig()
	opts, err := parseArgs(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Error().Err(err).Msg("Invalid arguments")
		return 1
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("merchant", opts.Merchant).
		Int("pages", opts.Pages).
		Msg("Starting inventory crawl")

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	w := worker.NewWorker(
		worker.NewSessionFactory(cfg.Fetch, cfg.Crawl, services.Cache),
		services.Publisher,
		cfg.CrawlInterval,
	)

	job := worker.Job{
		URL:      opts.URL,
		Merchant: opts.Merchant,
		MaxPages: opts.Pages,
		Overrides: profile.Overrides{
			TitleSelector: opts.TitleSelector,
			PriceSelector: opts.PriceSelector,
			Rendered:      opts.Rendered,
		},
	}

	if cfg.CrawlInterval > 0 {
		log.Info().Dur("crawl_interval", cfg.CrawlInterval).Msg("Starting periodic crawl")
		if err := w.Start(ctx, []worker.Job{job}); err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
			return 1
		}
		log.Info().Msg("Shutting down gracefully...")
		return 0
	}

	res, crawlErr := w.Run(ctx, job)
	if res == nil {
		log.Error().Err(crawlErr).Msg("Crawl could not start")
		return 1
	}

	if err := saveResult(res, opts, cfg.Output.Dir); err != nil {
		log.Error().Err(err).Msg("Failed to save results")
		return 1
	}

	if crawlErr != nil {
		log.Error().
			Err(crawlErr).
			Str("status", string(res.Status)).
			Int("items", res.Items.Len()).
			Msg("Scraping failed")
		return 1
	}

	log.Info().
		Int("items", res.Items.Len()).
		Int("item_errors", res.ItemErrors).
		Msg("Successfully scraped items")
	return 0
}

func saveResult(res *crawler.Result, opts *cliOptions, dir string) error {
	path := outputPath(opts, dir, time.Now())

	written, err := res.Items.SaveToFile(path, opts.Format)
	if err != nil {
		return err
	}
	if !written {
		logger.Warn("No items to save, %s was not written", path)
		return nil
	}

	logger.Default.Info().
		Int("items", res.Items.Len()).
		Str("path", path).
		Str("status", string(res.Status)).
		Msg("Output saved")
	return nil
}

// Services holds the optional backing services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices connects the configured services. Unreachable services
// are skipped with a warning; the crawl itself does not need them.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr, "inventoryhub")
		if err := memcacheService.Ping(); err != nil {
			logger.LogError("cache", err, "memcache at %s is unreachable, host blocking disabled", cfg.MemcacheAddr)
		} else {
			services.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisPublisher.Ping(pingCtx); err != nil {
			logger.LogError("publisher", err, "redis at %s is unreachable, publishing disabled", cfg.RedisAddr)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}
