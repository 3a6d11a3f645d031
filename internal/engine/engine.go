// Package engine drives the indexing pipeline: it walks a document's leaf
// fields in schema order, runs each field's analyzer chain against a private
// FieldData, and commits the resulting bins through the store adapter.
package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bibliofonds/recindex/internal/analysis"
	"github.com/bibliofonds/recindex/internal/document"
	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/internal/store"
	"github.com/bibliofonds/recindex/pkg/errors"
	"github.com/bibliofonds/recindex/pkg/metrics"
)

// fieldChain pairs one leaf field with its resolved analyzer chain.
type fieldChain struct {
	path  string
	field *schema.Field
	chain analysis.Chain
}

// Engine indexes documents against one schema. The schema and resolved
// chains are read-only after construction, so a single Engine is safe for
// concurrent use; per-document state lives in private FieldData instances
// and the store adapter serializes commits.
type Engine struct {
	schema  *schema.Schema
	store   store.Store
	chains  []fieldChain
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Config tunes an Engine.
type Config struct {
	// Workers bounds document-level parallelism in IndexBatch.
	Workers int
	// Metrics may be nil when metrics are disabled.
	Metrics *metrics.Metrics
}

// New resolves every leaf field's analyzer chain up front, failing fast on
// an unregistered analyzer identifier before any document is processed.
func New(sc *schema.Schema, registry *analysis.Registry, st store.Store, cfg Config) (*Engine, error) {
	leaves := sc.Leaves()
	chains := make([]fieldChain, 0, len(leaves))
	for _, leaf := range leaves {
		chain, err := registry.Resolve(leaf.Field.Chain())
		if err != nil {
			return nil, fmt.Errorf("resolving chain for field %s: %w", leaf.Path, err)
		}
		chains = append(chains, fieldChain{
			path:  leaf.Path,
			field: leaf.Field,
			chain: chain,
		})
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		schema:  sc,
		store:   st,
		chains:  chains,
		workers: workers,
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "engine"),
	}, nil
}

// IndexData builds a Document from raw data and indexes it. Schema-shape
// violations fail this document only.
func (e *Engine) IndexData(ctx context.Context, id string, data map[string]any) error {
	doc, err := document.NewWithData(e.schema, data)
	if err != nil {
		return fmt.Errorf("building document %s: %w", id, err)
	}
	return e.IndexDocument(ctx, id, doc)
}

// IndexDocument runs every leaf field's chain and commits the bins. Store
// errors propagate unchanged; there is no internal retry.
func (e *Engine) IndexDocument(ctx context.Context, id string, doc *document.Document) error {
	content := make(map[string][]any, len(e.chains))
	if err := doc.LeafContent(func(path string, f *schema.Field, values []any) error {
		content[path] = values
		return nil
	}); err != nil {
		return err
	}

	backend := fmt.Sprintf("%T", e.store)
	commitStart := time.Now()
	if err := e.store.BeginDocument(id); err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			// Release the commit slot so a failed document never blocks
			// the ones behind it.
			if abortErr := e.store.AbortDocument(); abortErr != nil {
				e.logger.Error("abort failed", "doc_id", id, "error", abortErr)
			}
		}
	}()
	for _, fc := range e.chains {
		values, ok := content[fc.path]
		if !ok {
			continue
		}
		data := analysis.New(fc.field, values, e.schema)
		start := time.Now()
		fc.chain.Run(data)
		if e.metrics != nil {
			e.metrics.FieldsAnalyzedTotal.WithLabelValues(fc.path).Inc()
			e.metrics.AnalyzeDuration.WithLabelValues(fc.path).Observe(time.Since(start).Seconds())
		}
		if err := e.commitBins(fc.path, data); err != nil {
			if e.metrics != nil {
				e.metrics.StoreErrorsTotal.Inc()
			}
			return err
		}
	}
	record, err := json.Marshal(doc.GetData(document.GetOptions{}))
	if err != nil {
		return fmt.Errorf("serializing record %s: %w", id, err)
	}
	if err := e.store.PutRecord(record); err != nil {
		return err
	}
	if err := e.store.CommitDocument(); err != nil {
		committed = true // the adapter released the slot itself
		if e.metrics != nil {
			e.metrics.StoreErrorsTotal.Inc()
		}
		return err
	}
	committed = true
	if e.metrics != nil {
		e.metrics.StoreCommitDuration.WithLabelValues(backend).Observe(time.Since(commitStart).Seconds())
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Debug("document indexed", "doc_id", id, "fields", len(content))
	return nil
}

func (e *Engine) commitBins(path string, data *analysis.FieldData) error {
	terms := data.TermList()
	for _, term := range terms {
		if err := e.store.AddTerm(path, term); err != nil {
			return err
		}
	}
	postings := data.PostingList()
	for _, p := range postings {
		if err := e.store.AddPosting(path, p.Term, p.Position); err != nil {
			return err
		}
	}
	for _, token := range data.Keywords {
		if err := e.store.AddKeyword(path, token); err != nil {
			return err
		}
	}
	for _, value := range data.Attributes {
		if err := e.store.AddAttribute(path, value); err != nil {
			return err
		}
	}
	for _, term := range data.Spellings {
		if err := e.store.AddSpelling(term); err != nil {
			return err
		}
	}
	if e.metrics != nil {
		e.metrics.TermsEmittedTotal.WithLabelValues("term").Add(float64(len(terms)))
		e.metrics.TermsEmittedTotal.WithLabelValues("posting").Add(float64(len(postings)))
		e.metrics.TermsEmittedTotal.WithLabelValues("keyword").Add(float64(len(data.Keywords)))
		e.metrics.TermsEmittedTotal.WithLabelValues("attribute").Add(float64(len(data.Attributes)))
		e.metrics.TermsEmittedTotal.WithLabelValues("spelling").Add(float64(len(data.Spellings)))
	}
	return nil
}

// Record is one unit of an offline batch.
type Record struct {
	ID     string
	Fields map[string]any
}

// IndexBatch indexes records with bounded parallelism. A failed record is
// logged, counted, and skipped; the batch continues. The first context
// cancellation stops the batch.
func (e *Engine) IndexBatch(ctx context.Context, records []Record) (failed int, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	failures := make(chan string, len(records))
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := e.IndexData(ctx, rec.ID, rec.Fields); err != nil {
				e.logger.Error("record failed, skipping",
					"doc_id", rec.ID,
					"error", err,
				)
				if e.metrics != nil {
					reason := "schema"
					if stderrors.Is(err, errors.ErrStore) {
						reason = "store"
					}
					e.metrics.DocsFailedTotal.WithLabelValues(reason).Inc()
				}
				failures <- rec.ID
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(failures), err
	}
	return len(failures), nil
}

// GetDocument rebuilds a Document from the record stored under id.
func (e *Engine) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	data, err := e.store.GetRecord(id)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return document.NewWithData(e.schema, fields)
}
