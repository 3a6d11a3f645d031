// Package benchmark contains Go benchmarks for the analyzer chains and the
// indexing engine, measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/bibliofonds/recindex/internal/analysis"
	"github.com/bibliofonds/recindex/internal/engine"
	"github.com/bibliofonds/recindex/internal/lookup"
	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/internal/store"
)

const benchSchema = `
name: biblio
stopwords: [the, a, an, of]
fields:
  - id: 1
    name: title
    type: text
    analyzer: [standard-text, remove-stopwords, stem]
  - id: 2
    name: role
    type: values
    lookup: author-role
  - id: 3
    name: published
    type: date
  - id: 4
    name: isbn
    type: isbn
`

const benchText = "the annotated catalogue of early printed books in the library of the national museum"

func benchEngine(b *testing.B) (*engine.Engine, *store.Memory) {
	b.Helper()
	sc, err := schema.ParseYAML([]byte(benchSchema))
	if err != nil {
		b.Fatalf("ParseYAML: %v", err)
	}
	registry := analysis.DefaultRegistry(analysis.Options{
		StemLanguage: "english",
		Lookup: lookup.NewStatic(map[string]map[string]string{
			"author-role": {"aut": "author", "edt": "editor"},
		}),
	})
	mem := store.NewMemory()
	eng, err := engine.New(sc, registry, mem, engine.Config{Workers: 4})
	if err != nil {
		b.Fatalf("engine.New: %v", err)
	}
	return eng, mem
}

// BenchmarkTokenize measures raw tokenisation throughput, acronym collapse
// included.
func BenchmarkTokenize(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokens := analysis.Tokenize(benchText)
		_ = tokens
	}
}

// BenchmarkStandardTextChain measures one pass of the full text chain over a
// single field value.
func BenchmarkStandardTextChain(b *testing.B) {
	sc, err := schema.ParseYAML([]byte(benchSchema))
	if err != nil {
		b.Fatalf("ParseYAML: %v", err)
	}
	node, err := sc.Resolve("title")
	if err != nil {
		b.Fatalf("Resolve: %v", err)
	}
	field := node.(*schema.Field)
	registry := analysis.DefaultRegistry(analysis.Options{StemLanguage: "english"})
	chain, err := registry.Resolve(field.Chain())
	if err != nil {
		b.Fatalf("chain: %v", err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := analysis.New(field, []any{benchText}, sc)
		chain.Run(data)
	}
}

// BenchmarkIndexDocument measures end-to-end per-document indexing
// throughput into the memory store.
func BenchmarkIndexDocument(b *testing.B) {
	eng, _ := benchEngine(b)
	ctx := context.Background()
	fields := map[string]any{
		"title":     benchText,
		"role":      "aut",
		"published": "2023-04-15",
		"isbn":      "978-2-1234-5680-3",
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := eng.IndexData(ctx, fmt.Sprintf("doc-%d", i), fields); err != nil {
			b.Fatalf("IndexData: %v", err)
		}
	}
}

// BenchmarkIndexBatchParallel measures batch throughput with the engine's
// worker pool fanning documents out.
func BenchmarkIndexBatchParallel(b *testing.B) {
	eng, _ := benchEngine(b)
	ctx := context.Background()

	records := make([]engine.Record, 256)
	for i := range records {
		records[i] = engine.Record{
			ID:     fmt.Sprintf("doc-%d", i),
			Fields: map[string]any{"title": benchText, "role": "edt"},
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.IndexBatch(ctx, records); err != nil {
			b.Fatalf("IndexBatch: %v", err)
		}
	}
}
