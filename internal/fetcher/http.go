package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sjsage522/inventoryhub/helpers"
	"sjsage522/inventoryhub/internal/profile"
	crawlerrors "sjsage522/inventoryhub/pkg/errors"
)

const blockKeyPrefix = "blocked:"

// fetchHTTP issues GETs until one succeeds, a non-retryable error occurs or
// MaxRetries attempts are used up.
func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (*RawPage, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, crawlerrors.NewValidation("", fmt.Sprintf("invalid page url %q", rawURL), err)
	}

	if f.isBlocked(u.Host) {
		blocked := crawlerrors.NewHTTPStatus("", rawURL, http.StatusTooManyRequests)
		blocked.Message = "host is blocked after rate limiting"
		return nil, blocked
	}

	attempts := max(f.cfg.MaxRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		f.log.Debug().
			Str("url", rawURL).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Fetching")

		page, err := f.doRequest(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var ce *crawlerrors.CrawlerError
		if !errors.As(err, &ce) || !ce.IsRetryable() {
			if ce != nil && ce.StatusCode == http.StatusTooManyRequests {
				f.block(u.Host)
			}
			return nil, err
		}

		lastErr = err
		f.log.Warn().Err(err).Str("url", rawURL).Int("attempt", attempt).Msg("Request failed")

		if attempt < attempts {
			if err := sleepContext(ctx, f.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	f.log.Error().Str("url", rawURL).Int("attempts", attempts).Msg("Giving up on page")
	return nil, crawlerrors.NewNetwork("", rawURL, fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (f *Fetcher) doRequest(ctx context.Context, rawURL string) (*RawPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, crawlerrors.NewValidation("", "failed to create request", err)
	}
	helpers.SetBrowserHeaders(req, f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, crawlerrors.NewHTTPStatus("", rawURL, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}

	body, err := helpers.DecodeToUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, crawlerrors.NewNetwork("", rawURL, "failed to decode body", err)
	}

	return &RawPage{
		URL:        rawURL,
		Body:       body,
		FetchedAt:  time.Now().UTC(),
		Transport:  profile.TransportHTTP,
		StatusCode: resp.StatusCode,
	}, nil
}

func classifyTransportError(rawURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return crawlerrors.NewTimeout("", rawURL, err)
	}
	return crawlerrors.NewNetwork("", rawURL, "request failed", err)
}

// isBlocked reports whether host is inside a rate limit block. The cached
// value is the unix time the block ends; stale or unreadable entries are
// removed.
func (f *Fetcher) isBlocked(host string) bool {
	if f.cache == nil {
		return false
	}
	value, err := f.cache.Get(blockKeyPrefix + host)
	if err != nil {
		return false
	}

	until, err := strconv.ParseInt(string(value), 10, 64)
	if err == nil && time.Now().Unix() < until {
		return true
	}

	if err := f.cache.Delete(blockKeyPrefix + host); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("Failed to clear stale rate limit block")
	}
	return false
}

func (f *Fetcher) block(host string) {
	if f.cache == nil || f.cfg.RateLimitBlock <= 0 {
		return
	}
	until := strconv.FormatInt(time.Now().Add(f.cfg.RateLimitBlock).Unix(), 10)
	if err := f.cache.Set(blockKeyPrefix+host, []byte(until), f.cfg.RateLimitBlock); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("Failed to store rate limit block")
		return
	}
	f.log.Warn().Str("host", host).Dur("block", f.cfg.RateLimitBlock).Msg("Host rate limited, blocking further requests")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
