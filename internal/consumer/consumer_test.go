package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bibliofonds/recindex/internal/analysis"
	"github.com/bibliofonds/recindex/internal/engine"
	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/internal/store"
)

func newTestEngine(t *testing.T) (*engine.Engine, *store.Memory) {
	t.Helper()
	sc, err := schema.ParseYAML([]byte(`
name: biblio
fields:
  - id: 1
    name: title
    type: text
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	mem := store.NewMemory()
	eng, err := engine.New(sc, analysis.DefaultRegistry(analysis.Options{}), mem, engine.Config{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng, mem
}

func TestHandleMessageIndexesRecord(t *testing.T) {
	eng, mem := newTestEngine(t)
	handler := HandleMessage(eng, HandlerOptions{RetryAttempts: 1})

	event := RecordEvent{
		ID:         "rec-1",
		Fields:     map[string]any{"title": "Silent Spring"},
		IngestedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := handler(context.Background(), []byte("rec-1"), value); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if mem.DocCount() != 1 {
		t.Errorf("DocCount = %d, want 1", mem.DocCount())
	}
	if got := mem.PostingTerms("rec-1", "title"); len(got) != 2 {
		t.Errorf("title postings = %v, want 2 terms", got)
	}
}

func TestHandleMessageFallsBackToKeyForID(t *testing.T) {
	eng, mem := newTestEngine(t)
	handler := HandleMessage(eng, HandlerOptions{RetryAttempts: 1})

	value := []byte(`{"fields":{"title":"Untitled"}}`)
	if err := handler(context.Background(), []byte("rec-2"), value); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if _, err := mem.GetRecord("rec-2"); err != nil {
		t.Errorf("record not stored under message key: %v", err)
	}
}

func TestHandleMessageSkipsMalformedPayload(t *testing.T) {
	eng, mem := newTestEngine(t)
	handler := HandleMessage(eng, HandlerOptions{RetryAttempts: 1})

	if err := handler(context.Background(), []byte("k"), []byte(`{not json`)); err != nil {
		t.Fatalf("malformed payload must be skipped, got %v", err)
	}
	if mem.DocCount() != 0 {
		t.Errorf("DocCount = %d, want 0", mem.DocCount())
	}
}

func TestHandleMessageSkipsSchemaInvalidRecord(t *testing.T) {
	eng, mem := newTestEngine(t)
	handler := HandleMessage(eng, HandlerOptions{RetryAttempts: 1})

	value := []byte(`{"id":"rec-3","fields":{"no_such_field":"x"}}`)
	if err := handler(context.Background(), []byte("rec-3"), value); err != nil {
		t.Fatalf("schema-invalid record must be skipped, got %v", err)
	}
	if mem.DocCount() != 0 {
		t.Errorf("DocCount = %d, want 0", mem.DocCount())
	}
}
