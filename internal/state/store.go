// Package state keeps the durable per-tenant state that lives outside the
// ledgers: few-shot example lists and the set of processed source documents.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Bucket names.
const (
	BucketExamples  = "examples"
	BucketProcessed = "processed"
)

// ErrBusy is returned when another process holds the state file for
// longer than the lock timeout.
var ErrBusy = errors.New("state database busy")

const defaultLockTimeout = 5 * time.Second

// Store wraps the bbolt state file. The file lock is taken per transaction
// so a running server and CLI commands can share one data directory.
// Reads take a shared lock; writes an exclusive one.
type Store struct {
	path        string
	lockTimeout time.Duration
	mu          sync.RWMutex
	closed      bool
}

var (
	_ service.ExampleStore   = (*Store)(nil)
	_ service.ProcessedStore = (*Store)(nil)
)

// Open prepares the state file, creating top-level buckets on first use.
func Open(dbPath string) (*Store, error) {
	s := &Store{path: dbPath, lockTimeout: defaultLockTimeout}
	err := s.update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketExamples, BucketProcessed} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close rejects further use of the store. No file handle is held between calls.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) open(readOnly bool) (*bolt.DB, error) {
	if s.closed {
		return nil, errStoreClosed
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.lockTimeout, ReadOnly: readOnly})
	switch {
	case errors.Is(err, bolt.ErrTimeout):
		return nil, fmt.Errorf("%w: %s is locked by another kaikei process", ErrBusy, s.path)
	case err != nil:
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return db, nil
}

var errStoreClosed = errors.New("state store closed")

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, err := s.open(true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open(false)
	if err != nil {
		return err
	}
	if err := db.Update(fn); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

// Examples returns a tenant's examples, most recent first.
func (s *Store) Examples(ctx context.Context, tenantCode string) ([]model.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var examples []model.Example
	err := s.view(func(tx *bolt.Tx) error {
		var err error
		examples, err = readExamples(tx.Bucket([]byte(BucketExamples)), tenantCode)
		return err
	})
	return examples, err
}

// PrependExample adds example to the front of the tenant's list and trims it
// to model.MaxExamples. The read and the write happen in one bbolt transaction.
func (s *Store) PrependExample(ctx context.Context, tenantCode string, example model.Example) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketExamples))

		existing, err := readExamples(b, tenantCode)
		if err != nil {
			return err
		}

		data, err := json.Marshal(model.PrependExample(existing, example))
		if err != nil {
			return fmt.Errorf("failed to marshal examples: %w", err)
		}
		return b.Put([]byte(tenantCode), data)
	})
}

func readExamples(b *bolt.Bucket, tenantCode string) ([]model.Example, error) {
	data := b.Get([]byte(tenantCode))
	if data == nil {
		return nil, nil
	}

	var examples []model.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("failed to decode examples for %s: %w", tenantCode, err)
	}
	return examples, nil
}

// IsProcessed reports whether key already produced a committed entry for the tenant.
func (s *Store) IsProcessed(ctx context.Context, tenantCode, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := s.view(func(tx *bolt.Tx) error {
		tenant := tx.Bucket([]byte(BucketProcessed)).Bucket([]byte(tenantCode))
		found = tenant != nil && tenant.Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

// MarkProcessed records key for the tenant. Marking twice is harmless.
func (s *Store) MarkProcessed(ctx context.Context, tenantCode, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(tx *bolt.Tx) error {
		tenant, err := tx.Bucket([]byte(BucketProcessed)).CreateBucketIfNotExists([]byte(tenantCode))
		if err != nil {
			return fmt.Errorf("failed to create processed bucket for %s: %w", tenantCode, err)
		}
		stamp := time.Now().UTC().Format(time.RFC3339)
		return tenant.Put([]byte(key), []byte(stamp))
	})
}

// ProcessedCount returns how many keys a tenant has marked.
func (s *Store) ProcessedCount(ctx context.Context, tenantCode string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.view(func(tx *bolt.Tx) error {
		if tenant := tx.Bucket([]byte(BucketProcessed)).Bucket([]byte(tenantCode)); tenant != nil {
			n = tenant.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Forget drops everything stored for a tenant.
func (s *Store) Forget(ctx context.Context, tenantCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(BucketExamples)).Delete([]byte(tenantCode)); err != nil {
			return err
		}
		processed := tx.Bucket([]byte(BucketProcessed))
		if processed.Bucket([]byte(tenantCode)) == nil {
			return nil
		}
		return processed.DeleteBucket([]byte(tenantCode))
	})
}
