package store

import (
	"reflect"
	"sync"
	"testing"

	"github.com/bibliofonds/recindex/pkg/errors"
)

func TestMemoryCommit(t *testing.T) {
	m := NewMemory()
	if err := m.BeginDocument("doc1"); err != nil {
		t.Fatalf("BeginDocument: %v", err)
	}
	m.AddTerm("title", "miserables")
	m.AddPosting("title", "miserables", 1)
	m.AddKeyword("isbn", "2123456802")
	m.AddAttribute("keywords", 2)
	m.AddSpelling("miserables")
	m.AddSpelling("miserables")
	m.PutRecord([]byte(`{"title":"x"}`))
	if err := m.CommitDocument(); err != nil {
		t.Fatalf("CommitDocument: %v", err)
	}

	if got := m.Terms("doc1", "title"); !reflect.DeepEqual(got, []string{"miserables"}) {
		t.Errorf("Terms = %v", got)
	}
	if got := m.Positions("doc1", "title"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Positions = %v", got)
	}
	if got := m.Keywords("doc1", "isbn"); !reflect.DeepEqual(got, []string{"2123456802"}) {
		t.Errorf("Keywords = %v", got)
	}
	if got := m.Attributes("doc1", "keywords"); !reflect.DeepEqual(got, []any{2}) {
		t.Errorf("Attributes = %v", got)
	}
	if !m.HasSpelling("miserables") {
		t.Error("expected spelling entry")
	}
	if m.SpellingCount() != 1 {
		t.Errorf("SpellingCount = %d, want 1 (deduplicated)", m.SpellingCount())
	}

	record, err := m.GetRecord("doc1")
	if err != nil || string(record) != `{"title":"x"}` {
		t.Errorf("GetRecord = %s, %v", record, err)
	}
}

func TestMemoryGetRecordMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.GetRecord("nope"); !errors.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestMemoryAddWithoutBegin(t *testing.T) {
	m := NewMemory()
	if err := m.AddTerm("f", "t"); err == nil {
		t.Error("expected error when no document is open")
	}
}

func TestMemoryAbortReleasesCommitSlot(t *testing.T) {
	m := NewMemory()
	if err := m.BeginDocument("doc1"); err != nil {
		t.Fatalf("BeginDocument: %v", err)
	}
	m.AddTerm("title", "abandoned")
	if err := m.AbortDocument(); err != nil {
		t.Fatalf("AbortDocument: %v", err)
	}
	if m.DocCount() != 0 {
		t.Errorf("DocCount = %d, want 0", m.DocCount())
	}
	// Abort with nothing open is a no-op.
	if err := m.AbortDocument(); err != nil {
		t.Fatalf("AbortDocument (idle): %v", err)
	}

	// The slot must be free for the next document.
	if err := m.BeginDocument("doc2"); err != nil {
		t.Fatalf("BeginDocument after abort: %v", err)
	}
	m.AddTerm("title", "kept")
	if err := m.CommitDocument(); err != nil {
		t.Fatalf("CommitDocument: %v", err)
	}
	if got := m.Terms("doc2", "title"); !reflect.DeepEqual(got, []string{"kept"}) {
		t.Errorf("Terms = %v", got)
	}
}

func TestMemoryConcurrentCommits(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			if err := m.BeginDocument(id); err != nil {
				t.Errorf("BeginDocument: %v", err)
				return
			}
			m.AddTerm("title", id)
			m.AddSpelling(id)
			if err := m.CommitDocument(); err != nil {
				t.Errorf("CommitDocument: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if m.DocCount() != 8 {
		t.Errorf("DocCount = %d, want 8", m.DocCount())
	}
	if got := m.Terms("c", "title"); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Terms(c) = %v", got)
	}
}
