package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"

	"github.com/alisaosipova/steam-csmoney/internal/challenge"
	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/pkg/sessions"
)

// StaticFetcher uses Colly for plain HTTP fetching.
// It implements the Fetcher interface.
type StaticFetcher struct{}

// NewStatic creates a new static fetcher.
func NewStatic() *StaticFetcher {
	return &StaticFetcher{}
}

// StatusError reports a non-success HTTP status. Unlike transport errors
// it is not swallowed: an operator should see 4xx/5xx responses directly.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Fetch retrieves page text through the session's proxy. Transport errors
// are logged and reported as NoContent; challenge pages likewise. Only a
// non-success HTTP status is returned as an error.
func (f *StaticFetcher) Fetch(ctx context.Context, sess *sessions.Session, targetURL string) (Result, error) {
	// Create a new collector for each request
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(responseTimeout)

	if sess != nil && sess.ProxyURL != "" {
		if err := c.SetProxy(sess.ProxyURL); err != nil {
			logger.Warn("failed to configure proxy", "session", sess.Name, "error", err)
			return NoContent(), nil
		}
	}

	c.OnRequest(func(r *colly.Request) {
		for k, v := range requestHeaders {
			r.Headers.Set(k, v)
		}
	})

	var (
		body       string
		statusCode int
		fetchErr   error
	)

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = err
	}

	if fetchErr != nil {
		if statusCode >= http.StatusBadRequest {
			return NoContent(), &StatusError{URL: targetURL, StatusCode: statusCode}
		}
		logger.Warn("transport failure", "url", targetURL, "error", fetchErr)
		return NoContent(), nil
	}

	if challenge.IsChallenge(body) {
		logger.Warn("challenge page detected", "url", targetURL)
		return NoContent(), nil
	}

	return Content(body), nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}
