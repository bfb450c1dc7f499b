package database

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Index describes a SurrealDB index definition.
type Index struct {
	Table  string
	Name   string
	Fields []string
	Unique bool
}

// Statement renders the idempotent DEFINE INDEX statement.
func (i Index) Statement() string {
	stmt := fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s ON TABLE %s FIELDS %s",
		i.Name, i.Table, strings.Join(i.Fields, ", "))
	if i.Unique {
		stmt += " UNIQUE"
	}
	return stmt
}

// Schema holds the index definitions repositories depend on and applies them
// at most once per Schema value. A failed Ensure is retried on the next call.
type Schema struct {
	db      Database
	indexes []Index

	mu      sync.Mutex
	applied bool
}

// NewSchema creates a schema over db.
func NewSchema(db Database, indexes ...Index) *Schema {
	return &Schema{db: db, indexes: indexes}
}

// Register adds index definitions. Indexes added after a successful Ensure
// are applied by the next Ensure call.
func (s *Schema) Register(indexes ...Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range indexes {
		if !s.has(idx) {
			s.indexes = append(s.indexes, idx)
			s.applied = false
		}
	}
}

func (s *Schema) has(idx Index) bool {
	for _, existing := range s.indexes {
		if existing.Table == idx.Table && existing.Name == idx.Name {
			return true
		}
	}
	return false
}

// Indexes returns a copy of the registered definitions.
func (s *Schema) Indexes() []Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Index, len(s.indexes))
	copy(out, s.indexes)
	return out
}

// Ensure defines every registered index, concurrently.
func (s *Schema) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range s.indexes {
		g.Go(func() error {
			if err := s.db.Execute(gctx, idx.Statement(), nil); err != nil {
				return fmt.Errorf("define index %s on %s: %w", idx.Name, idx.Table, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.applied = true
	return nil
}
