package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/bibliofonds/recindex/pkg/errors"
)

var (
	bucketTerms      = []byte("terms")
	bucketPostings   = []byte("postings")
	bucketKeywords   = []byte("keywords")
	bucketAttributes = []byte("attributes")
	bucketSpellings  = []byte("spellings")
	bucketRecords    = []byte("records")
)

// Bolt persists index bins in a single bbolt database file. Each document's
// bins are buffered between Begin and Commit and written in one transaction,
// keyed by "docID\x00field". The spelling index is a key-presence bucket,
// which deduplicates naturally.
type Bolt struct {
	db *bbolt.DB

	// commitMu serializes whole documents, held from BeginDocument to
	// CommitDocument.
	commitMu sync.Mutex
	cur      *docBins
	curID    string
}

// NewBolt opens (or creates) the index database under dataDir.
func NewBolt(dataDir string) (*Bolt, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	path := filepath.Join(dataDir, "recindex.db")
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening index database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketTerms, bucketPostings, bucketKeywords,
			bucketAttributes, bucketSpellings, bucketRecords,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) BeginDocument(id string) error {
	b.commitMu.Lock()
	b.cur = newDocBins()
	b.curID = id
	return nil
}

func (b *Bolt) open() (*docBins, error) {
	if b.cur == nil {
		return nil, errors.New(errors.ErrInternal, "no document open")
	}
	return b.cur, nil
}

func (b *Bolt) AddTerm(field, term string) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.terms[field] = append(bins.terms[field], term)
	return nil
}

func (b *Bolt) AddPosting(field, term string, position int) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.postings[field] = append(bins.postings[field], posting{Term: term, Position: position})
	return nil
}

func (b *Bolt) AddKeyword(field, token string) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.keywords[field] = append(bins.keywords[field], token)
	return nil
}

func (b *Bolt) AddAttribute(field string, value any) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.attributes[field] = append(bins.attributes[field], value)
	return nil
}

func (b *Bolt) AddSpelling(term string) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.spellings = append(bins.spellings, term)
	return nil
}

func (b *Bolt) PutRecord(data []byte) error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	bins.record = append([]byte(nil), data...)
	return nil
}

func (b *Bolt) CommitDocument() error {
	bins, err := b.open()
	if err != nil {
		return err
	}
	id := b.curID
	err = b.db.Update(func(tx *bbolt.Tx) error {
		if err := writeFieldMap(tx.Bucket(bucketTerms), id, bins.terms); err != nil {
			return err
		}
		if err := writeFieldJSON(tx.Bucket(bucketPostings), id, mapAny(bins.postings)); err != nil {
			return err
		}
		if err := writeFieldMap(tx.Bucket(bucketKeywords), id, bins.keywords); err != nil {
			return err
		}
		if err := writeFieldJSON(tx.Bucket(bucketAttributes), id, mapAny(bins.attributes)); err != nil {
			return err
		}
		sp := tx.Bucket(bucketSpellings)
		for _, term := range bins.spellings {
			if err := sp.Put([]byte(term), nil); err != nil {
				return err
			}
		}
		if bins.record != nil {
			if err := tx.Bucket(bucketRecords).Put([]byte(id), bins.record); err != nil {
				return err
			}
		}
		return nil
	})
	b.cur = nil
	b.curID = ""
	b.commitMu.Unlock()
	if err != nil {
		return errors.Newf(errors.ErrStore, "committing document %q: %v", id, err)
	}
	return nil
}

func (b *Bolt) AbortDocument() error {
	if b.cur == nil {
		return nil
	}
	b.cur = nil
	b.curID = ""
	b.commitMu.Unlock()
	return nil
}

func (b *Bolt) GetRecord(id string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get([]byte(id))
		if v == nil {
			return errors.Newf(errors.ErrNotFound, "no record for document %q", id)
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// HasSpelling reports whether term is present in the spelling bucket.
func (b *Bolt) HasSpelling(term string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(bucketSpellings).Cursor().Seek([]byte(term))
		found = string(k) == term
		return nil
	})
	return found, err
}

// Terms returns the committed terms for one document field.
func (b *Bolt) Terms(id, field string) ([]string, error) {
	var out []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketTerms).Get(binKey(id, field))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

func binKey(id, field string) []byte {
	key := make([]byte, 0, len(id)+1+len(field))
	key = append(key, id...)
	key = append(key, 0)
	key = append(key, field...)
	return key
}

func writeFieldMap(bucket *bbolt.Bucket, id string, fields map[string][]string) error {
	for field, values := range fields {
		data, err := json.Marshal(values)
		if err != nil {
			return err
		}
		if err := bucket.Put(binKey(id, field), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFieldJSON(bucket *bbolt.Bucket, id string, fields map[string]any) error {
	for field, values := range fields {
		data, err := json.Marshal(values)
		if err != nil {
			return err
		}
		if err := bucket.Put(binKey(id, field), data); err != nil {
			return err
		}
	}
	return nil
}

func mapAny[T any](in map[string][]T) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
