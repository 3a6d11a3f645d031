package store

import (
	"sync"

	"github.com/bibliofonds/recindex/pkg/errors"
)

// Memory is an in-process store used by tests and the offline tool's dry
// mode. It keeps committed documents queryable for assertions.
type Memory struct {
	// commitMu serializes whole documents: held from BeginDocument to
	// CommitDocument so concurrent workers interleave safely.
	commitMu sync.Mutex
	mu       sync.RWMutex

	docs      map[string]*docBins
	records   map[string][]byte
	spellings map[string]struct{}

	cur   *docBins
	curID string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string]*docBins),
		records:   make(map[string][]byte),
		spellings: make(map[string]struct{}),
	}
}

func (m *Memory) BeginDocument(id string) error {
	m.commitMu.Lock()
	m.cur = newDocBins()
	m.curID = id
	return nil
}

func (m *Memory) open() (*docBins, error) {
	if m.cur == nil {
		return nil, errors.New(errors.ErrInternal, "no document open")
	}
	return m.cur, nil
}

func (m *Memory) AddTerm(field, term string) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.terms[field] = append(b.terms[field], term)
	return nil
}

func (m *Memory) AddPosting(field, term string, position int) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.postings[field] = append(b.postings[field], posting{Term: term, Position: position})
	return nil
}

func (m *Memory) AddKeyword(field, token string) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.keywords[field] = append(b.keywords[field], token)
	return nil
}

func (m *Memory) AddAttribute(field string, value any) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.attributes[field] = append(b.attributes[field], value)
	return nil
}

func (m *Memory) AddSpelling(term string) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.spellings = append(b.spellings, term)
	return nil
}

func (m *Memory) PutRecord(data []byte) error {
	b, err := m.open()
	if err != nil {
		return err
	}
	b.record = append([]byte(nil), data...)
	return nil
}

func (m *Memory) CommitDocument() error {
	b, err := m.open()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[m.curID] = b
	if b.record != nil {
		m.records[m.curID] = b.record
	}
	for _, s := range b.spellings {
		m.spellings[s] = struct{}{}
	}
	m.mu.Unlock()

	m.cur = nil
	m.curID = ""
	m.commitMu.Unlock()
	return nil
}

func (m *Memory) AbortDocument() error {
	if m.cur == nil {
		return nil
	}
	m.cur = nil
	m.curID = ""
	m.commitMu.Unlock()
	return nil
}

func (m *Memory) GetRecord(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "no record for document %q", id)
	}
	return data, nil
}

func (m *Memory) Close() error { return nil }

// Terms returns the committed terms for one document field.
func (m *Memory) Terms(id, field string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.terms[field]
	}
	return nil
}

// PostingTerms returns the committed posting terms for one document field,
// in commit order.
func (m *Memory) PostingTerms(id, field string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil
	}
	out := make([]string, len(d.postings[field]))
	for i, p := range d.postings[field] {
		out[i] = p.Term
	}
	return out
}

// Positions returns the committed positions for one document field.
func (m *Memory) Positions(id, field string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil
	}
	out := make([]int, len(d.postings[field]))
	for i, p := range d.postings[field] {
		out[i] = p.Position
	}
	return out
}

// Keywords returns the committed keywords for one document field.
func (m *Memory) Keywords(id, field string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.keywords[field]
	}
	return nil
}

// Attributes returns the committed attributes for one document field.
func (m *Memory) Attributes(id, field string) []any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.attributes[field]
	}
	return nil
}

// HasSpelling reports whether term was contributed to the spelling index.
// Spellings are deduplicated at commit.
func (m *Memory) HasSpelling(term string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.spellings[term]
	return ok
}

// SpellingCount returns the size of the deduplicated spelling index.
func (m *Memory) SpellingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spellings)
}

// DocCount returns the number of committed documents.
func (m *Memory) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
