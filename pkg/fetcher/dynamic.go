package fetcher

import (
	"context"

	"github.com/chromedp/chromedp"

	"github.com/alisaosipova/steam-csmoney/internal/challenge"
	"github.com/alisaosipova/steam-csmoney/internal/logger"
	"github.com/alisaosipova/steam-csmoney/pkg/sessions"
)

// DynamicFetcher renders pages in a headless browser. It is the fallback
// for targets where the static path keeps hitting challenge pages: a real
// browser passes many of the JS integrity checks a plain GET fails.
type DynamicFetcher struct{}

// NewDynamic creates a new dynamic fetcher.
func NewDynamic() (*DynamicFetcher, error) {
	return &DynamicFetcher{}, nil
}

// allocatorOptions builds browser flags for one request. The proxy comes
// from the session, so the allocator cannot be shared across sessions.
func allocatorOptions(sess *sessions.Session) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if sess != nil && sess.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(sess.ProxyURL))
	}
	return opts
}

// Fetch retrieves rendered page HTML. Navigation failures and timeouts are
// logged and reported as NoContent; the browser does not expose HTTP
// status codes, so there is no hard status path here.
func (f *DynamicFetcher) Fetch(ctx context.Context, sess *sessions.Session, targetURL string) (Result, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(sess)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, responseTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		logger.Warn("browser navigation failed", "url", targetURL, "error", err)
		return NoContent(), nil
	}

	if challenge.IsChallenge(html) {
		logger.Warn("challenge page detected", "url", targetURL)
		return NoContent(), nil
	}

	return Content(html), nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
