// recindex is the offline batch indexer. It reads JSON-lines record files
// (one {"id": ..., "fields": {...}} object per line) and indexes them into
// the configured store backend, bypassing Kafka.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibliofonds/recindex/internal/analysis"
	"github.com/bibliofonds/recindex/internal/engine"
	"github.com/bibliofonds/recindex/internal/lookup"
	"github.com/bibliofonds/recindex/internal/schema"
	"github.com/bibliofonds/recindex/internal/store"
	"github.com/bibliofonds/recindex/pkg/config"
	"github.com/bibliofonds/recindex/pkg/logger"
)

const batchSize = 500

type recordLine struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	input := flag.String("input", "-", "JSON-lines record file, - for stdin")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input); err != nil {
		slog.Error("batch indexing failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, input string) error {
	sc, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	tables, err := lookup.LoadStatic(cfg.Lookup.TablesPath)
	if err != nil {
		return fmt.Errorf("loading lookup tables: %w", err)
	}

	var st store.Store
	if cfg.Store.Backend == "memory" {
		st = store.NewMemory()
	} else {
		st, err = store.NewBolt(cfg.Store.DataDir)
		if err != nil {
			return fmt.Errorf("opening bolt store: %w", err)
		}
	}
	defer st.Close()

	registry := analysis.DefaultRegistry(analysis.Options{
		StemLanguage: cfg.Indexer.StemLanguage,
		Lookup:       tables,
	})
	eng, err := engine.New(sc, registry, st, engine.Config{Workers: cfg.Indexer.BatchWorkers})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	var in io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	start := time.Now()
	indexed, failed, err := indexAll(ctx, eng, in)
	if err != nil {
		return err
	}
	slog.Info("batch indexing complete",
		"indexed", indexed,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// indexAll streams records from in and indexes them in bounded batches so
// arbitrarily large files never sit in memory whole.
func indexAll(ctx context.Context, eng *engine.Engine, in io.Reader) (indexed, failed int, err error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	batch := make([]engine.Record, 0, batchSize)
	line := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := eng.IndexBatch(ctx, batch)
		if err != nil {
			return err
		}
		indexed += len(batch) - n
		failed += n
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec recordLine
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Error("skipping malformed line", "line", line, "error", err)
			failed++
			continue
		}
		if rec.ID == "" {
			slog.Error("skipping record without id", "line", line)
			failed++
			continue
		}
		batch = append(batch, engine.Record{ID: rec.ID, Fields: rec.Fields})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return indexed, failed, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return indexed, failed, fmt.Errorf("reading input: %w", err)
	}
	if err := flush(); err != nil {
		return indexed, failed, err
	}
	return indexed, failed, nil
}
