package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/entry-bot/entrybot/logger"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

// Collection names. The file driver stores each one as <name>.json.
const (
	CollectionStores = "stores"
	CollectionVisits = "visits"
	CollectionTokens = "tokens"
)

// Collections lists every collection in migration order.
var Collections = []string{CollectionStores, CollectionVisits, CollectionTokens}

const defaultTimeout = 10 * time.Second

// ErrStorage is matched by every StoreError so callers can tell storage
// faults apart from domain errors.
var ErrStorage = errors.New("storage failure")

// StoreError wraps an I/O or decode failure for one collection.
type StoreError struct {
	Operation  string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s of %s: %v", e.Operation, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStorage
}

// Backend persists opaque collection documents. Read returns nil, nil when
// the collection has never been written. Write replaces the whole document.
type Backend interface {
	Name() string
	Read(ctx context.Context, collection string) ([]byte, error)
	Write(ctx context.Context, collection string, data []byte) error
	Close(ctx context.Context) error
}

// Store loads and saves whole collections as JSON through a Backend.
type Store struct {
	backend Backend
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewStore(backend Backend, m *metrics.Metrics) *Store {
	return &Store{
		backend: backend,
		metrics: m,
		timeout: defaultTimeout,
	}
}

func (s *Store) Backend() Backend {
	return s.backend
}

// Load decodes the collection into v. A collection that was never written
// leaves v untouched.
func (s *Store) Load(ctx context.Context, collection string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	data, err := s.backend.Read(ctx, collection)
	s.metrics.ObserveStore(collection, "read", start)
	logger.LogStore("read", collection, time.Since(start), err)
	if err != nil {
		return &StoreError{Operation: "read", Collection: collection, Err: err}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StoreError{Operation: "decode", Collection: collection, Err: err}
	}
	return nil
}

// Save encodes v and overwrites the collection.
func (s *Store) Save(ctx context.Context, collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StoreError{Operation: "encode", Collection: collection, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err = s.backend.Write(ctx, collection, data)
	s.metrics.ObserveStore(collection, "write", start)
	logger.LogStore("write", collection, time.Since(start), err)
	if err != nil {
		return &StoreError{Operation: "write", Collection: collection, Err: err}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}

// Copy moves every collection from src to dst verbatim and returns the
// names that were copied. Collections missing in src are skipped.
func Copy(ctx context.Context, src, dst Backend) ([]string, error) {
	var copied []string
	for _, collection := range Collections {
		data, err := src.Read(ctx, collection)
		if err != nil {
			return copied, &StoreError{Operation: "read", Collection: collection, Err: err}
		}
		if data == nil {
			continue
		}
		if !json.Valid(data) {
			return copied, &StoreError{Operation: "decode", Collection: collection, Err: errors.New("invalid JSON document")}
		}
		if err := dst.Write(ctx, collection, data); err != nil {
			return copied, &StoreError{Operation: "write", Collection: collection, Err: err}
		}
		copied = append(copied, collection)
	}
	return copied, nil
}
