package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/store"
)

var (
	// ErrNoColumns is returned when writing a table that never saw a record.
	ErrNoColumns = errors.New("no columns defined for table")

	// ErrUnknownColumn is returned when a column filter names a column the
	// table does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// cell is a value pinned to its column position.
type cell struct {
	column int
	value  string
}

// Table accumulates record rows for CSV output.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]cell
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// AddRow appends one row built from a page's records. Keys not seen before
// extend the column set; rows added earlier simply leave the new column
// empty. Empty record sets are dropped.
func (t *Table) AddRow(kvs []model.KV) {
	if len(kvs) == 0 {
		return
	}
	row := make([]cell, 0, len(kvs))
	for _, kv := range kvs {
		idx, ok := t.index[kv.Key]
		if !ok {
			idx = len(t.columns)
			t.columns = append(t.columns, kv.Key)
			t.index[kv.Key] = idx
		}
		row = append(row, cell{column: idx, value: kv.Value})
	}
	t.rows = append(t.rows, row)
}

// Columns returns the column names in order of first appearance.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// WriteCSV writes the table with a header row. When columns is non-empty
// only those columns are written, in the given order.
func (t *Table) WriteCSV(w io.Writer, columns ...string) error {
	if len(t.columns) == 0 {
		return ErrNoColumns
	}

	selected := make([]int, 0, len(t.columns))
	header := t.columns
	if len(columns) > 0 {
		header = columns
		for _, name := range columns {
			idx, ok := t.index[name]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			}
			selected = append(selected, idx)
		}
	} else {
		for i := range t.columns {
			selected = append(selected, i)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	full := make([]string, len(t.columns))
	record := make([]string, len(selected))
	for _, row := range t.rows {
		for i := range full {
			full[i] = ""
		}
		for _, c := range row {
			full[c.column] = c.value
		}
		for i, idx := range selected {
			record[i] = full[idx]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FromStore builds a table from every record set in the store, one row per
// page, in page id order.
func FromStore(ctx context.Context, s *store.Store) (*Table, error) {
	t := NewTable()
	err := s.IterRecords(ctx, func(_ int64, kvs []model.KV) error {
		t.AddRow(kvs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}
