package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/inventoryhub/internal/fetcher"
	"sjsage522/inventoryhub/internal/profile"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"
)

// fakeFetcher serves canned pages keyed by URL and counts calls
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	delays  map[string]time.Duration
	calls   map[string]int
	onFetch func(url string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  make(map[string]string),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, transport profile.Transport) (*fetcher.RawPage, error) {
	f.mu.Lock()
	f.calls[url]++
	body, ok := f.pages[url]
	err := f.errs[url]
	delay := f.delays[url]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, crawlerrors.NewHTTPStatus("", url, 404)
	}

	return &fetcher.RawPage{URL: url, Body: body, Transport: transport, StatusCode: 200, FetchedAt: time.Now()}, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func listingHTML(hrefs ...string) string {
	html := "<html><body><ul>"
	for _, href := range hrefs {
		html += fmt.Sprintf(`<li><a class="product-link" href="%s">item</a></li>`, href)
	}
	return html + "</ul></body></html>"
}

func productHTML(title, price string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><span class="price">%s</span></body></html>`, title, price)
}
