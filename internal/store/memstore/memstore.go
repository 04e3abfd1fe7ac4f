// Package memstore is an in-memory store.Store used for dry runs and tests.
package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
)

// Store keeps rows per table in insertion order and hands out
// auto-increment ids starting at 1.
type Store struct {
	rows map[string][]store.Row
	seq  map[string]int64
	keys map[string]map[string]struct{}
}

func New() *Store {
	return &Store{
		rows: make(map[string][]store.Row),
		seq:  make(map[string]int64),
		keys: make(map[string]map[string]struct{}),
	}
}

func (s *Store) Insert(ctx context.Context, rec types.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	table := rec.TableName()
	row := store.Row{}
	for k, v := range rec.Values() {
		row[k] = v
	}

	if ck, ok := rec.(types.CompositeKeyed); ok {
		key := compositeKey(row, ck.CompositeKey())
		if s.keys[table] == nil {
			s.keys[table] = make(map[string]struct{})
		}
		if _, dup := s.keys[table][key]; dup {
			return fmt.Errorf("duplicate key %s in %s", key, table)
		}
		s.keys[table][key] = struct{}{}
	}

	if pk := rec.PrimaryKey(); pk != "" {
		s.seq[table]++
		id := s.seq[table]
		row[pk] = id
		rec.SetID(id)
	}

	s.rows[table] = append(s.rows[table], row)
	return nil
}

func (s *Store) Find(ctx context.Context, table string, filter store.Filter) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []store.Row
	for _, row := range s.rows[table] {
		if matches(row, filter) {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

// Truncate drops all rows of the given tables and restarts their ids.
func (s *Store) Truncate(ctx context.Context, tables []string) error {
	for _, t := range tables {
		delete(s.rows, t)
		delete(s.seq, t)
		delete(s.keys, t)
	}
	return nil
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) int {
	return len(s.rows[table])
}

func matches(row store.Row, filter store.Filter) bool {
	for col, want := range filter {
		got, ok := row[col]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func compositeKey(row store.Row, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%v", c, row[c])
	}
	return strings.Join(parts, ",")
}

func copyRow(row store.Row) store.Row {
	out := make(store.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
