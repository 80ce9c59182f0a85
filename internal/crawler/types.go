package crawler

import (
	"context"
	"time"

	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/inventory"
	"sjsage522/inventoryhub/internal/profile"
)

// PageFetcher retrieves a page through the requested transport
type PageFetcher interface {
	Fetch(ctx context.Context, url string, transport profile.Transport) (*fetcher.RawPage, error)
}

// Crawler interface defines the contract of a merchant crawl
type Crawler interface {
	// Crawl fetches a single product page when maxPages <= 1 and walks the
	// paginated listing starting at url otherwise
	Crawl(ctx context.Context, url string, p *profile.MerchantProfile, maxPages int) (*Result, error)
}

// Status is the terminal state of a crawl
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// Result carries the items gathered by one crawl along with its statistics.
// Items is always non-nil, even when the crawl ends with an error.
type Result struct {
	RunID    string
	Merchant string
	Status   Status
	Items    *inventory.Collection

	PagesVisited    int
	LinksDiscovered int
	ItemsAttempted  int
	ItemErrors      int
	LastItemError   error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the crawl ran
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
