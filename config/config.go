package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	crawlerrors "sjsage522/inventoryhub/pkg/errors"
)

// DefaultUserAgent is sent with every http fetch unless USER_AGENT overrides it
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetchConfig holds the options of the Fetcher
type FetchConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Rendered transport
	RenderTimeout time.Duration
	SettleDelay   time.Duration
	Headless      bool
	ChromePath    string

	// How long a host stays blocked after answering 429
	RateLimitBlock time.Duration
}

// CrawlConfig holds the options of the PageCrawler
type CrawlConfig struct {
	InterItemDelay time.Duration
	Concurrency    int

	// Upper bound on listing pages a single crawl may request
	MaxPages int
}

// OutputConfig controls where exports are written
type OutputConfig struct {
	Dir    string
	Format string
}

// Config represents the application configuration
type Config struct {
	Fetch  FetchConfig
	Crawl  CrawlConfig
	Output OutputConfig

	// Memcache configuration, empty disables the cache
	MemcacheAddr string

	// Redis configuration, empty disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Zero runs a single job and exits
	CrawlInterval time.Duration

	Environment string
}

// DefaultFetchConfig returns the fetch defaults
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		UserAgent:      DefaultUserAgent,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		RenderTimeout:  30 * time.Second,
		SettleDelay:    2 * time.Second,
		Headless:       true,
		RateLimitBlock: 300 * time.Second,
	}
}

// DefaultCrawlConfig returns the crawl defaults
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		InterItemDelay: 2 * time.Second,
		Concurrency:    4,
		MaxPages:       50,
	}
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	fetch := DefaultFetchConfig()
	crawl := DefaultCrawlConfig()

	return &Config{
		Fetch: FetchConfig{
			UserAgent:      getEnv("USER_AGENT", fetch.UserAgent),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", fetch.RequestTimeout),
			MaxRetries:     getEnvInt("MAX_RETRIES", fetch.MaxRetries),
			RetryDelay:     getEnvDuration("RETRY_DELAY", fetch.RetryDelay),
			RenderTimeout:  getEnvDuration("PAGE_LOAD_TIMEOUT", fetch.RenderTimeout),
			SettleDelay:    getEnvDuration("RENDER_SETTLE_DELAY", fetch.SettleDelay),
			Headless:       getEnvBool("USE_HEADLESS", fetch.Headless),
			ChromePath:     getEnv("CHROME_PATH", ""),
			RateLimitBlock: getEnvDuration("RATE_LIMIT_BLOCK_SECONDS", fetch.RateLimitBlock),
		},
		Crawl: CrawlConfig{
			InterItemDelay: getEnvDuration("INTER_ITEM_DELAY", crawl.InterItemDelay),
			Concurrency:    getEnvInt("CRAWL_CONCURRENCY", crawl.Concurrency),
			MaxPages:       getEnvInt("MAX_PAGES", crawl.MaxPages),
		},
		Output: OutputConfig{
			Dir:    getEnv("OUTPUT_DIR", "scraped_data"),
			Format: strings.ToLower(getEnv("OUTPUT_FORMAT", "json")),
		},
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "inventory"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		CrawlInterval:        getEnvDuration("CRAWL_INTERVAL_SECONDS", 0),
		Environment:          getEnv("INVENTORY_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the crawler cannot work with
func (c *Config) Validate() error {
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	switch c.Output.Format {
	case "json", "csv":
	default:
		return crawlerrors.NewConfiguration(fmt.Sprintf("unsupported output format %q", c.Output.Format), nil)
	}
	if c.CrawlInterval < 0 {
		return crawlerrors.NewConfiguration("crawl interval must not be negative", nil)
	}
	return nil
}

// Validate checks the fetch options
func (f FetchConfig) Validate() error {
	switch {
	case f.MaxRetries < 1:
		return crawlerrors.NewConfiguration("max retries must be at least 1", nil)
	case f.RetryDelay < 0:
		return crawlerrors.NewConfiguration("retry delay must not be negative", nil)
	case f.RequestTimeout <= 0:
		return crawlerrors.NewConfiguration("request timeout must be positive", nil)
	case f.RenderTimeout <= 0:
		return crawlerrors.NewConfiguration("render timeout must be positive", nil)
	case f.SettleDelay < 0:
		return crawlerrors.NewConfiguration("settle delay must not be negative", nil)
	}
	return nil
}

// Validate checks the crawl options
func (c CrawlConfig) Validate() error {
	switch {
	case c.InterItemDelay < 0:
		return crawlerrors.NewConfiguration("inter-item delay must not be negative", nil)
	case c.Concurrency < 1 || c.Concurrency > 16:
		return crawlerrors.NewConfiguration(fmt.Sprintf("concurrency must be between 1 and 16, got %d", c.Concurrency), nil)
	case c.MaxPages < 1:
		return crawlerrors.NewConfiguration("max pages must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("1500ms") or whole seconds ("2")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
