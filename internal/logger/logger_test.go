package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContextCarriesRequestFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).With().Str("request_id", "abc").Logger()

	ctx := NewContext(context.Background(), base)
	l := FromContext(ctx, "pipeline")
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "abc" || entry["component"] != "pipeline" {
		t.Fatalf("unexpected fields %v", entry)
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background(), "fetch")
	if l.GetLevel() == zerolog.Disabled {
		t.Fatalf("expected fallback to the global logger")
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	if err := Setup(cfg); err == nil {
		t.Fatalf("Setup() expected error for unknown level")
	}
}
