// Package market defines the domain model for marketplace items and the
// mapping from raw page records into it.
package market

import (
	"fmt"
	"time"
)

// Category is the closed set of item classes used by the marketplace.
// Codes outside this set indicate the source schema drifted and are a hard
// error, never a default bucket.
type Category int

const (
	CategoryPistol Category = 1
	CategoryKnife  Category = 2
	CategoryRifle  Category = 3
	CategorySMG    Category = 4
	CategoryHeavy  Category = 5
	CategoryGlove  Category = 13
)

var categoryNames = map[Category]string{
	CategoryPistol: "pistol",
	CategoryKnife:  "knife",
	CategoryRifle:  "rifle",
	CategorySMG:    "smg",
	CategoryHeavy:  "heavy",
	CategoryGlove:  "glove",
}

// CategoryFromCode decodes a source category code.
func CategoryFromCode(code int) (Category, error) {
	c := Category(code)
	if _, ok := categoryNames[c]; !ok {
		return 0, fmt.Errorf("unknown item category code %d", code)
	}
	return c, nil
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Item is one normalized marketplace listing. Equality is structural so
// transformed items can be compared directly in tests.
type Item struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	AssetID  string   `json:"asset_id"`
	NameID   int64    `json:"name_id"`
	Category Category `json:"type"`

	// Wear is carried verbatim from the source, never parsed. Empty means
	// the source had no wear value.
	Wear string `json:"float,omitempty"`

	// UnlockAt is the trade-lock expiry in UTC. The zero value means the
	// item is not locked.
	UnlockAt time.Time `json:"unlock_timestamp,omitzero"`

	// OverpayFloat is only ever set on a stack's head item.
	OverpayFloat *float64 `json:"overpay_float,omitempty"`
}

// Batch is the ordered accumulation of items produced by one successful
// extraction pass. It is built by a single scrape attempt and handed to the
// sink exactly once; the producer must not reuse it afterwards.
type Batch struct {
	URL       string    `json:"url,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
	Items     []Item    `json:"items"`
}

// Append adds items to the batch preserving order.
func (b *Batch) Append(items ...Item) {
	b.Items = append(b.Items, items...)
}

// Len returns the number of items accumulated so far.
func (b *Batch) Len() int { return len(b.Items) }
