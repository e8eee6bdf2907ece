package market

import (
	"fmt"
	"strconv"
	"time"
)

// Raw is one undecoded item record as embedded in the page snapshot.
type Raw = map[string]any

// Expand maps one raw record into zero or more items. Records without a
// display name are dropped silently. A record with stack fields expands
// into the head item plus one item per stacked sibling; siblings carry
// their own wear and trade lock and never the overpay metric. Unknown
// category codes and malformed required fields are hard errors.
func Expand(raw Raw, norm Normalizer) ([]Item, error) {
	fullName, ok := raw["fullName"].(string)
	if !ok {
		return nil, nil
	}
	name := norm.Normalize(fullName)

	price, err := requireNumber(raw, "price")
	if err != nil {
		return nil, err
	}
	assetID, ok := raw["assetId"]
	if !ok {
		return nil, fmt.Errorf("item %q: missing assetId", fullName)
	}
	nameID, err := requireNumber(raw, "nameId")
	if err != nil {
		return nil, err
	}
	typeCode, err := requireNumber(raw, "type")
	if err != nil {
		return nil, err
	}
	category, err := CategoryFromCode(int(typeCode))
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", fullName, err)
	}

	items := []Item{{
		Name:         name,
		Price:        price,
		AssetID:      stringify(assetID),
		NameID:       int64(nameID),
		Category:     category,
		Wear:         optionalString(raw["float"]),
		UnlockAt:     unlockTime(raw["tradeLock"]),
		OverpayFloat: overpayFloat(raw),
	}}

	if !isStack(raw) {
		return items, nil
	}

	stacked, _ := raw["stackItems"].([]any)
	for _, entry := range stacked {
		sub, ok := entry.(Raw)
		if !ok {
			return nil, fmt.Errorf("item %q: malformed stack entry %T", fullName, entry)
		}
		subAsset, ok := sub["id"]
		if !ok {
			return nil, fmt.Errorf("item %q: stack entry missing id", fullName)
		}
		items = append(items, Item{
			Name:     name,
			Price:    price,
			AssetID:  stringify(subAsset),
			NameID:   int64(nameID),
			Category: category,
			Wear:     optionalString(sub["float"]),
			UnlockAt: unlockTime(sub["tradeLock"]),
		})
	}
	return items, nil
}

// isStack reports whether raw carries the grouped-record fields. All three
// must be present, matching the source's own convention.
func isStack(raw Raw) bool {
	_, hasSize := raw["stackSize"]
	_, hasID := raw["stackId"]
	_, hasItems := raw["stackItems"]
	return hasSize && hasID && hasItems
}

// unlockTime converts a millisecond-epoch value into an absolute UTC time.
// Absent, zero or non-numeric values yield the zero time.
func unlockTime(v any) time.Time {
	ms, ok := v.(float64)
	if !ok || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func overpayFloat(raw Raw) *float64 {
	overpay, ok := raw["overpay"].(Raw)
	if !ok {
		return nil
	}
	switch v := overpay["float"].(type) {
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// requireNumber reads a mandatory numeric field.
func requireNumber(raw Raw, key string) (float64, error) {
	v, ok := raw[key].(float64)
	if !ok {
		return 0, fmt.Errorf("missing or non-numeric field %q", key)
	}
	return v, nil
}

// stringify renders an asset identifier as a string regardless of the
// source's numeric type.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// optionalString renders an optional source value verbatim, or "" when
// absent.
func optionalString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
