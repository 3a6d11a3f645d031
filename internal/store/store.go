// Package store defines the adapter interface the indexing pipeline commits
// its output bins through, plus the memory, bbolt and PostgreSQL backends.
//
// The store is the pipeline's sole synchronization point: implementations
// serialize concurrent document commits so that multiple indexing workers
// can share one adapter. The pipeline itself never reads terms back.
package store

// Store persists the analyzer output bins under a document identifier.
// Usage per document: BeginDocument, any number of Add* calls plus one
// optional PutRecord, then CommitDocument. Begin acquires the commit slot;
// Commit or Abort releases it.
type Store interface {
	BeginDocument(id string) error
	AddTerm(field, term string) error
	AddPosting(field, term string, position int) error
	AddKeyword(field, token string) error
	AddAttribute(field string, value any) error
	AddSpelling(term string) error
	// PutRecord stores the serialized source record for later retrieval.
	PutRecord(data []byte) error
	CommitDocument() error
	// AbortDocument discards the open document and releases the commit
	// slot. Safe to call when no document is open.
	AbortDocument() error

	// GetRecord returns the serialized record stored for id, or an error
	// wrapping pkg/errors.ErrNotFound.
	GetRecord(id string) ([]byte, error)

	Close() error
}

// posting is the flattened positional entry shared by the backends.
type posting struct {
	Term     string `json:"t"`
	Position int    `json:"p"`
}

// docBins buffers one document's flattened output between Begin and Commit.
type docBins struct {
	terms      map[string][]string
	postings   map[string][]posting
	keywords   map[string][]string
	attributes map[string][]any
	spellings  []string
	record     []byte
}

func newDocBins() *docBins {
	return &docBins{
		terms:      make(map[string][]string),
		postings:   make(map[string][]posting),
		keywords:   make(map[string][]string),
		attributes: make(map[string][]any),
	}
}
