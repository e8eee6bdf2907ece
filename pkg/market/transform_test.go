package market

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

// decodeRaw mirrors how records arrive in production: through encoding/json.
func decodeRaw(t *testing.T, data string) Raw {
	t.Helper()
	var raw Raw
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return raw
}

const knifeJSON = `{
	"fullName": "★ Butterfly Knife | Doppler (Factory New)",
	"price": 24768.93,
	"assetId": 24898849555,
	"nameId": 3985,
	"type": 2,
	"float": "0.008115612901747",
	"tradeLock": 1645430400000,
	"overpay": {"float": 140.69}
}`

func TestExpand_FlatItem(t *testing.T) {
	raw := decodeRaw(t, knifeJSON)

	items, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}

	overpay := 140.69
	want := []Item{{
		Name:         "★ Butterfly Knife | Doppler (Factory New)",
		Price:        24768.93,
		AssetID:      "24898849555",
		NameID:       3985,
		Category:     CategoryKnife,
		Wear:         "0.008115612901747",
		UnlockAt:     time.Unix(1645430400, 0).UTC(),
		OverpayFloat: &overpay,
	}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Expand() = %+v, want %+v", items, want)
	}
}

func TestExpand_MissingName(t *testing.T) {
	raw := decodeRaw(t, `{"price": 1.0, "assetId": 1, "nameId": 1, "type": 2}`)

	items, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("record without fullName should yield no items, got %d", len(items))
	}
}

func TestExpand_Stack(t *testing.T) {
	raw := decodeRaw(t, `{
		"fullName": "AK-47 | Redline (Field-Tested)",
		"price": 12.34,
		"assetId": "100",
		"nameId": 456,
		"type": 3,
		"float": "0.21",
		"overpay": {"float": 3.5},
		"stackSize": 3,
		"stackId": "st-1",
		"stackItems": [
			{"id": 101, "float": "0.25", "tradeLock": 1645009200000},
			{"id": 102}
		]
	}`)

	items, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("stack with 2 siblings should yield 3 items, got %d", len(items))
	}

	head := items[0]
	if head.OverpayFloat == nil || *head.OverpayFloat != 3.5 {
		t.Errorf("head item should carry the overpay metric, got %v", head.OverpayFloat)
	}
	if head.AssetID != "100" {
		t.Errorf("head asset = %q, want 100", head.AssetID)
	}

	for i, sibling := range items[1:] {
		if sibling.OverpayFloat != nil {
			t.Errorf("sibling %d must not carry overpay, got %v", i, *sibling.OverpayFloat)
		}
		if sibling.Name != head.Name || sibling.Price != head.Price || sibling.Category != head.Category {
			t.Errorf("sibling %d should share the head's name/price/category", i)
		}
	}

	// Siblings derive wear and lock from their own sub-record.
	if items[1].AssetID != "101" || items[1].Wear != "0.25" {
		t.Errorf("first sibling = %+v, want asset 101 wear 0.25", items[1])
	}
	if got, want := items[1].UnlockAt, time.Unix(1645009200, 0).UTC(); !got.Equal(want) {
		t.Errorf("first sibling unlock = %v, want %v", got, want)
	}
	if items[2].AssetID != "102" || items[2].Wear != "" || !items[2].UnlockAt.IsZero() {
		t.Errorf("second sibling should have no wear or lock, got %+v", items[2])
	}
}

func TestExpand_UnknownCategory(t *testing.T) {
	raw := decodeRaw(t, `{"fullName": "Mystery Box", "price": 1.0, "assetId": 1, "nameId": 1, "type": 99}`)

	if _, err := Expand(raw, IdentityNormalizer{}); err == nil {
		t.Error("unknown category code must be a hard error")
	}
}

func TestExpand_NoUnlockTimestamp(t *testing.T) {
	raw := decodeRaw(t, `{"fullName": "P250 | Sand Dune", "price": 0.05, "assetId": 7, "nameId": 9, "type": 1}`)

	items, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if !items[0].UnlockAt.IsZero() {
		t.Errorf("absent tradeLock must yield zero time, got %v", items[0].UnlockAt)
	}
}

func TestExpand_AppliesNormalizer(t *testing.T) {
	raw := decodeRaw(t, `{"fullName": "M4A4 | Howl", "price": 900, "assetId": 5, "nameId": 8, "type": 3}`)

	norm := NewPatchNormalizer("Howl", "Howl (Contraband)")
	items, err := Expand(raw, norm)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if items[0].Name != "M4A4 | Howl (Contraband)" {
		t.Errorf("normalizer not applied, got %q", items[0].Name)
	}
}

func TestExpand_Idempotent(t *testing.T) {
	raw := decodeRaw(t, knifeJSON)

	first, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	second, err := Expand(raw, IdentityNormalizer{})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expand() is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestUnlockTime(t *testing.T) {
	if got, want := unlockTime(float64(1645009200000)), time.Unix(1645009200, 0).UTC(); !got.Equal(want) {
		t.Errorf("unlockTime() = %v, want %v", got, want)
	}
	if !unlockTime(nil).IsZero() {
		t.Error("unlockTime(nil) should be zero")
	}
	if !unlockTime(float64(0)).IsZero() {
		t.Error("unlockTime(0) should be zero")
	}
}

func TestCategoryFromCode(t *testing.T) {
	c, err := CategoryFromCode(2)
	if err != nil {
		t.Fatalf("CategoryFromCode(2) error: %v", err)
	}
	if c != CategoryKnife {
		t.Errorf("CategoryFromCode(2) = %v, want knife", c)
	}
	if _, err := CategoryFromCode(42); err == nil {
		t.Error("CategoryFromCode(42) should fail")
	}
}
