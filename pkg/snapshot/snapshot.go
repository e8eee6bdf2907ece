// Package snapshot locates and decodes the structured-data blob a
// marketplace page embeds in its HTML, and digs out the raw item records.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alisaosipova/steam-csmoney/pkg/market"
)

// ErrExtract is the uniform failure kind for everything that can go wrong
// during extraction: marker not found, malformed payload, or unexpected
// page shape. Callers only need errors.Is(err, ErrExtract).
var ErrExtract = errors.New("snapshot extract")

// scriptSelector matches the embedded-state script block. The payload may
// span multiple lines; goquery reads the whole node text either way.
const scriptSelector = `script#__NEXT_DATA__[type="application/json"]`

// itemsPath is the fixed nesting that leads to the item list.
var itemsPath = [...]string{"props", "pageProps", "botInitData", "skinsInfo"}

// Items returns the raw item records embedded in src. src is either an
// HTML page (string) or an already-decoded snapshot object, which lets
// structural behavior be tested without HTML round-trips. A structurally
// valid page without an item list yields an empty slice, not an error.
func Items(src any) ([]market.Raw, error) {
	switch v := src.(type) {
	case string:
		data, err := Decode(v)
		if err != nil {
			return nil, err
		}
		return navigate(data)
	case map[string]any:
		return navigate(v)
	default:
		return nil, fmt.Errorf("%w: unsupported source type %T", ErrExtract, src)
	}
}

// Decode finds the embedded script block in html and decodes its JSON
// payload.
func Decode(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtract, err)
	}

	sel := doc.Find(scriptSelector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: __NEXT_DATA__ script not found", ErrExtract)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrExtract, err)
	}
	return data, nil
}

func navigate(data map[string]any) ([]market.Raw, error) {
	node := data
	for _, key := range itemsPath {
		next, ok := node[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing %q in page data", ErrExtract, key)
		}
		node = next
	}

	list, ok := node["skins"].([]any)
	if !ok {
		// Valid page, just no listings.
		return nil, nil
	}

	items := make([]market.Raw, 0, len(list))
	for _, v := range list {
		if raw, ok := v.(map[string]any); ok {
			items = append(items, raw)
		}
	}
	return items, nil
}
