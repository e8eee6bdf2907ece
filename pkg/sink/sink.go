// Package sink delivers completed item batches downstream.
package sink

import (
	"context"

	"github.com/alisaosipova/steam-csmoney/pkg/market"
)

// Sink accepts one completed batch of items. The producer hands each batch
// over exactly once and never retries a Put; delivery failures propagate
// to the caller.
type Sink interface {
	Put(ctx context.Context, batch *market.Batch) error
}
