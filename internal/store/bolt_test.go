package store

import (
	"reflect"
	"testing"

	"github.com/bibliofonds/recindex/pkg/errors"
)

func newTestBolt(t *testing.T) *Bolt {
	t.Helper()
	b, err := NewBolt(t.TempDir())
	if err != nil {
		t.Fatalf("NewBolt: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBoltCommitAndReadBack(t *testing.T) {
	b := newTestBolt(t)
	if err := b.BeginDocument("doc1"); err != nil {
		t.Fatalf("BeginDocument: %v", err)
	}
	b.AddTerm("title", "quick")
	b.AddTerm("title", "fox")
	b.AddPosting("title", "quick", 0)
	b.AddSpelling("quick")
	b.AddSpelling("quick")
	b.PutRecord([]byte(`{"title":"quick fox"}`))
	if err := b.CommitDocument(); err != nil {
		t.Fatalf("CommitDocument: %v", err)
	}

	terms, err := b.Terms("doc1", "title")
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if want := []string{"quick", "fox"}; !reflect.DeepEqual(terms, want) {
		t.Errorf("Terms = %v, want %v", terms, want)
	}

	found, err := b.HasSpelling("quick")
	if err != nil || !found {
		t.Errorf("HasSpelling(quick) = %v, %v", found, err)
	}
	found, _ = b.HasSpelling("slow")
	if found {
		t.Error("HasSpelling(slow) should be false")
	}

	record, err := b.GetRecord("doc1")
	if err != nil || string(record) != `{"title":"quick fox"}` {
		t.Errorf("GetRecord = %s, %v", record, err)
	}
	if _, err := b.GetRecord("absent"); !errors.IsNotFound(err) {
		t.Errorf("GetRecord(absent) err = %v, want NotFound", err)
	}
}

func TestBoltReindexReplacesTerms(t *testing.T) {
	b := newTestBolt(t)
	for _, term := range []string{"first", "second"} {
		if err := b.BeginDocument("doc1"); err != nil {
			t.Fatalf("BeginDocument: %v", err)
		}
		b.AddTerm("title", term)
		if err := b.CommitDocument(); err != nil {
			t.Fatalf("CommitDocument: %v", err)
		}
	}
	terms, err := b.Terms("doc1", "title")
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if want := []string{"second"}; !reflect.DeepEqual(terms, want) {
		t.Errorf("Terms = %v, want %v", terms, want)
	}
}
