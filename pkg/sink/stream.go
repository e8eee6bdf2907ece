package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/alisaosipova/steam-csmoney/pkg/market"
)

// Format selects the stream encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stream writes each batch to an io.Writer, one JSON object or one YAML
// document per batch. Useful for piping scrape output to files or other
// processes without a broker.
type Stream struct {
	w      *bufio.Writer
	format Format
}

// NewStream creates a stream sink.
func NewStream(w io.Writer, format Format) (*Stream, error) {
	switch format {
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown stream format: %s", format)
	}
	return &Stream{w: bufio.NewWriter(w), format: format}, nil
}

// Put encodes the batch and flushes it immediately.
func (s *Stream) Put(_ context.Context, batch *market.Batch) error {
	switch s.format {
	case FormatYAML:
		if _, err := s.w.WriteString("---\n"); err != nil {
			return err
		}
		enc := yaml.NewEncoder(s.w)
		enc.SetIndent(2)
		if err := enc.Encode(batch); err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		enc := json.NewEncoder(s.w)
		if err := enc.Encode(batch); err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}
	}
	return s.w.Flush()
}
