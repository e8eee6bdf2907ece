// Package fetcher performs the network GET for one scrape attempt and
// classifies the response. Implement the Fetcher interface to plug in a
// different transport or anti-bot strategy.
package fetcher

import (
	"context"
	"time"

	"github.com/alisaosipova/steam-csmoney/pkg/sessions"
)

// Result is the outcome of one fetch attempt: either usable page text or a
// no-content marker. Transport failures and anti-bot challenges both
// surface as no-content, so the caller only ever distinguishes "got usable
// bytes" from "count a failed attempt".
type Result struct {
	text string
	ok   bool
}

// Content wraps usable page text.
func Content(text string) Result { return Result{text: text, ok: true} }

// NoContent marks an attempt that produced nothing usable.
func NoContent() Result { return Result{} }

// Content returns the page text and whether the fetch produced usable
// content.
func (r Result) Content() (string, bool) { return r.text, r.ok }

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page text through the given session. A returned
	// error is a hard failure (e.g. an unexpected HTTP status) that
	// retrying will not fix; everything transient comes back as NoContent.
	Fetch(ctx context.Context, sess *sessions.Session, url string) (Result, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g. "static",
	// "dynamic").
	Type() string
}

// responseTimeout bounds every request. The identity profile below is
// constant across all calls; the profile is not rotated per request.
const responseTimeout = 10 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Accept-Encoding is left to the transport so response bodies are
// transparently decompressed.
var requestHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Referer":                   "https://cs.money/csgo/trade",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// Mode selects the fetching strategy.
type Mode string

const (
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// New creates a fetcher for the given mode.
func New(mode Mode) (Fetcher, error) {
	switch mode {
	case ModeStatic:
		return NewStatic(), nil
	case ModeDynamic:
		return NewDynamic()
	default:
		return nil, &UnknownModeError{Mode: mode}
	}
}

// UnknownModeError is returned by New for an unrecognized mode.
type UnknownModeError struct {
	Mode Mode
}

func (e *UnknownModeError) Error() string {
	return "unknown fetch mode: " + string(e.Mode)
}
