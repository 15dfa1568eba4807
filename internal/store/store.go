// Package store keeps the record of which input files a redactor instance
// has already handled.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the outcome of processing one input file
type Status string

const (
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Record describes one handled input file
type Record struct {
	Name        string    `json:"name"`
	Output      string    `json:"output,omitempty"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Pages       int       `json:"pages"`
	Redactions  int       `json:"redactions"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Store is the processed-file record. Names are input file base names.
type Store interface {
	Has(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	// Delete drops the record for name; a missing record is not an error
	Delete(ctx context.Context, name string) error
	Reset(ctx context.Context) error
	Close() error
}

// Kind selects a Store implementation
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

// Open returns the store of the given kind. path is only used by sqlite.
func Open(kind Kind, path string) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// Memory is a Store that lives as long as the process
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Has(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[name]
	return ok, nil
}

func (m *Memory) Put(_ context.Context, rec Record) error {
	if rec.Name == "" {
		return fmt.Errorf("record without name")
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Name] = rec
	return nil
}

// List returns all records ordered by name
func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, name)
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]Record)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
