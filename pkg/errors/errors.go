package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents connection-level failures and exhausted retries
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents a request that exceeded its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeHTTPStatus represents a non-2xx response
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeRenderFailure represents a headless render that failed or timed out
	ErrorTypeRenderFailure ErrorType = "render_failure"
	// ErrorTypeBrowserUnavailable represents a browser session that could not be started
	ErrorTypeBrowserUnavailable ErrorType = "browser_unavailable"
	// ErrorTypeCrawlAborted represents a listing page that could not be fetched
	ErrorTypeCrawlAborted ErrorType = "crawl_aborted"
	// ErrorTypeCanceled represents a caller-initiated cancellation
	ErrorTypeCanceled ErrorType = "canceled"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Merchant   string
	URL        string
	StatusCode int
	Message    string
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	subject := e.Merchant
	if e.URL != "" {
		if subject != "" {
			subject += " "
		}
		subject += e.URL
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, subject, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, subject, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTPStatus:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, merchant, url, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Merchant: merchant,
		URL:      url,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(merchant, url, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, merchant, url, message, err)
}

// NewTimeout creates a new timeout error
func NewTimeout(merchant, url string, err error) *CrawlerError {
	return New(ErrorTypeTimeout, merchant, url, "request timed out", err)
}

// NewHTTPStatus creates an error for an unexpected response status
func NewHTTPStatus(merchant, url string, statusCode int) *CrawlerError {
	e := New(ErrorTypeHTTPStatus, merchant, url, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewRenderFailure creates a new render failure error
func NewRenderFailure(merchant, url string, err error) *CrawlerError {
	return New(ErrorTypeRenderFailure, merchant, url, "render failed", err)
}

// NewBrowserUnavailable creates an error for a browser session that failed to start
func NewBrowserUnavailable(err error) *CrawlerError {
	return New(ErrorTypeBrowserUnavailable, "", "", "headless browser could not be started", err)
}

// NewCrawlAborted creates an error for a crawl stopped by a listing page failure
func NewCrawlAborted(merchant, url string, err error) *CrawlerError {
	return New(ErrorTypeCrawlAborted, merchant, url, "listing page could not be fetched", err)
}

// NewCanceled creates a new cancellation error
func NewCanceled(merchant string, err error) *CrawlerError {
	return New(ErrorTypeCanceled, merchant, "", "crawl canceled", err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(merchant, message string, err error) *CrawlerError {
	return New(ErrorTypeValidation, merchant, "", message, err)
}

// TypeOf returns the type of the outermost CrawlerError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type, true
	}
	return "", false
}

// Is reports whether any CrawlerError in err's chain has the given type.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		var ce *CrawlerError
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Type == errType {
			return true
		}
		err = ce.Err
	}
	return false
}

// IsRetryable reports whether err is a retryable CrawlerError.
func IsRetryable(err error) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}
