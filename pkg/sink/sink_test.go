package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/alisaosipova/steam-csmoney/pkg/market"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sampleBatch() *market.Batch {
	return &market.Batch{
		URL: "https://cs.money/csgo/trade",
		Items: []market.Item{{
			Name:     "AK-47 | Redline (Field-Tested)",
			Price:    12.34,
			AssetID:  "123",
			NameID:   456,
			Category: market.CategoryRifle,
		}},
	}
}

func TestKafka_Put(t *testing.T) {
	w := &fakeWriter{}
	k := NewKafkaWith(w)

	if err := k.Put(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if len(w.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.messages))
	}
	msg := w.messages[0]
	if string(msg.Key) != "https://cs.money/csgo/trade" {
		t.Errorf("message key = %q, want the batch URL", msg.Key)
	}

	var decoded market.Batch
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("message value is not valid JSON: %v", err)
	}
	if len(decoded.Items) != 1 || decoded.Items[0].AssetID != "123" {
		t.Errorf("decoded batch = %+v", decoded)
	}
}

func TestStream_JSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewStream(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("NewStream() error: %v", err)
	}

	if err := s.Put(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	var decoded market.Batch
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Items[0].Name != "AK-47 | Redline (Field-Tested)" {
		t.Errorf("decoded item = %+v", decoded.Items[0])
	}
}

func TestStream_YAML(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewStream(&buf, FormatYAML)
	if err != nil {
		t.Fatalf("NewStream() error: %v", err)
	}

	if err := s.Put(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "---\n") {
		t.Errorf("YAML output should start a new document, got %q", out)
	}
	if !strings.Contains(out, "AK-47 | Redline (Field-Tested)") {
		t.Errorf("YAML output missing item name: %q", out)
	}
}

func TestStream_UnknownFormat(t *testing.T) {
	if _, err := NewStream(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Error("NewStream() should reject unknown formats")
	}
}
