package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewNetwork("Depop", "https://www.depop.com/products/x", "request failed", stderrors.New("connection reset"))
	assert.Equal(t, "[network] Depop https://www.depop.com/products/x: request failed - connection reset", err.Error())

	err = NewConfiguration("max retries must be at least 1", nil)
	assert.Equal(t, "[configuration] : max retries must be at least 1", err.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *CrawlerError
		want bool
	}{
		{"network", NewNetwork("m", "u", "failed", nil), true},
		{"timeout", NewTimeout("m", "u", nil), true},
		{"server error", NewHTTPStatus("m", "u", 503), true},
		{"not found", NewHTTPStatus("m", "u", 404), false},
		{"too many requests", NewHTTPStatus("m", "u", 429), false},
		{"render failure", NewRenderFailure("m", "u", nil), false},
		{"browser unavailable", NewBrowserUnavailable(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.IsRetryable())
		})
	}
}

func TestTypeOfAndIs(t *testing.T) {
	inner := NewTimeout("Mercari", "https://www.mercari.com/item/m1", nil)
	outer := NewNetwork("Mercari", inner.URL, "retries exhausted", inner)
	wrapped := fmt.Errorf("crawl: %w", NewCrawlAborted("Mercari", inner.URL, outer))

	kind, ok := TypeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeCrawlAborted, kind)

	assert.True(t, Is(wrapped, ErrorTypeCrawlAborted))
	assert.True(t, Is(wrapped, ErrorTypeNetwork))
	assert.True(t, Is(wrapped, ErrorTypeTimeout))
	assert.False(t, Is(wrapped, ErrorTypeRenderFailure))

	_, ok = TypeOf(stderrors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", inner)))
}
