package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/bibliofonds/recindex/pkg/errors"
)

// Postgres persists index bins in PostgreSQL. One document is committed in a
// single transaction; re-indexing a document replaces its previous rows.
type Postgres struct {
	db *sql.DB

	commitMu sync.Mutex
	tx       *sql.Tx
	curID    string
}

// NewPostgres wraps an open *sql.DB (see pkg/postgres) and creates the index
// tables if they do not exist.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db}
	if err := p.ensureTables(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS doc_terms (
			doc_id TEXT NOT NULL,
			field  TEXT NOT NULL,
			term   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS doc_terms_term_idx ON doc_terms (field, term)`,
		`CREATE TABLE IF NOT EXISTS doc_postings (
			doc_id   TEXT NOT NULL,
			field    TEXT NOT NULL,
			term     TEXT NOT NULL,
			position INT  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS doc_postings_term_idx ON doc_postings (field, term)`,
		`CREATE TABLE IF NOT EXISTS doc_keywords (
			doc_id TEXT NOT NULL,
			field  TEXT NOT NULL,
			token  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS doc_attributes (
			doc_id TEXT NOT NULL,
			field  TEXT NOT NULL,
			value  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS spellings (
			term TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			doc_id     TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			status     TEXT NOT NULL DEFAULT 'PENDING',
			indexed_at TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index tables: %w", err)
		}
	}
	return nil
}

func (p *Postgres) BeginDocument(id string) error {
	p.commitMu.Lock()
	tx, err := p.db.Begin()
	if err != nil {
		p.commitMu.Unlock()
		return errors.Newf(errors.ErrStore, "beginning transaction: %v", err)
	}
	for _, table := range []string{"doc_terms", "doc_postings", "doc_keywords", "doc_attributes"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE doc_id = $1`, id); err != nil {
			tx.Rollback()
			p.commitMu.Unlock()
			return errors.Newf(errors.ErrStore, "clearing previous rows: %v", err)
		}
	}
	p.tx = tx
	p.curID = id
	return nil
}

func (p *Postgres) exec(query string, args ...any) error {
	if p.tx == nil {
		return errors.New(errors.ErrInternal, "no document open")
	}
	if _, err := p.tx.Exec(query, args...); err != nil {
		return errors.Newf(errors.ErrStore, "writing bin row: %v", err)
	}
	return nil
}

func (p *Postgres) AddTerm(field, term string) error {
	return p.exec(`INSERT INTO doc_terms (doc_id, field, term) VALUES ($1, $2, $3)`,
		p.curID, field, term)
}

func (p *Postgres) AddPosting(field, term string, position int) error {
	return p.exec(`INSERT INTO doc_postings (doc_id, field, term, position) VALUES ($1, $2, $3, $4)`,
		p.curID, field, term, position)
}

func (p *Postgres) AddKeyword(field, token string) error {
	return p.exec(`INSERT INTO doc_keywords (doc_id, field, token) VALUES ($1, $2, $3)`,
		p.curID, field, token)
}

func (p *Postgres) AddAttribute(field string, value any) error {
	return p.exec(`INSERT INTO doc_attributes (doc_id, field, value) VALUES ($1, $2, $3)`,
		p.curID, field, fmt.Sprintf("%v", value))
}

func (p *Postgres) AddSpelling(term string) error {
	return p.exec(`INSERT INTO spellings (term) VALUES ($1) ON CONFLICT DO NOTHING`, term)
}

func (p *Postgres) PutRecord(data []byte) error {
	return p.exec(`INSERT INTO records (doc_id, data) VALUES ($1, $2)
		ON CONFLICT (doc_id) DO UPDATE SET data = EXCLUDED.data`,
		p.curID, data)
}

func (p *Postgres) CommitDocument() error {
	if p.tx == nil {
		return errors.New(errors.ErrInternal, "no document open")
	}
	err := p.tx.Commit()
	id := p.curID
	p.tx = nil
	p.curID = ""
	p.commitMu.Unlock()
	if err != nil {
		return errors.Newf(errors.ErrStore, "committing document %q: %v", id, err)
	}
	return nil
}

func (p *Postgres) AbortDocument() error {
	if p.tx == nil {
		return nil
	}
	err := p.tx.Rollback()
	p.tx = nil
	p.curID = ""
	p.commitMu.Unlock()
	if err != nil {
		return errors.Newf(errors.ErrStore, "rolling back document: %v", err)
	}
	return nil
}

func (p *Postgres) GetRecord(id string) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(`SELECT data FROM records WHERE doc_id = $1`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrNotFound, "no record for document %q", id)
	}
	if err != nil {
		return nil, errors.Newf(errors.ErrStore, "reading record %q: %v", id, err)
	}
	return data, nil
}

func (p *Postgres) Close() error {
	return nil
}
