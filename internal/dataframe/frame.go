package dataframe

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// ErrUnknownColumn is returned when an operation references a column the
// frame does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Row is one source record: values in source column order plus its context.
type Row struct {
	Values  []any
	Context Context
}

type column struct {
	name string
	get  func(r *Row) any
}

// Frame is an immutable, ordered set of named columns over shared rows.
type Frame struct {
	cols []column
	rows []*Row
}

// New builds a frame from source columns and rows. Every row must have one
// value per column; column names must be unique.
func New(columns []string, rows []Row) (*Frame, error) {
	f := &Frame{
		cols: make([]column, len(columns)),
		rows: make([]*Row, len(rows)),
	}

	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true

		idx := i
		f.cols[i] = column{name: name, get: func(r *Row) any { return r.Values[idx] }}
	}

	for i := range rows {
		if len(rows[i].Values) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(rows[i].Values), len(columns))
		}
		f.rows[i] = &rows[i]
	}

	return f, nil
}

// Empty returns a frame with the given columns and no rows.
func Empty(columns ...string) *Frame {
	f, err := New(columns, nil)
	if err != nil {
		panic(err)
	}
	return f
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

func (f *Frame) lookup(name string) (column, bool) {
	for _, c := range f.cols {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []any {
	r := f.rows[i]
	values := make([]any, len(f.cols))
	for j, c := range f.cols {
		values[j] = c.get(r)
	}
	return values
}

// Value returns a single cell.
func (f *Frame) Value(i int, name string) (any, error) {
	c, ok := f.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return c.get(f.rows[i]), nil
}

// ContextValue resolves a context label for row i. The label stays
// available after projection even though it is not a column.
func (f *Frame) ContextValue(i int, label ContextLabel) (string, bool) {
	return f.rows[i].Context.Lookup(label)
}

// Select projects the frame onto exactly the named columns, in order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if len(names) == 0 {
		return nil, errors.New("select requires at least one column")
	}

	out := &Frame{cols: make([]column, 0, len(names)), rows: f.rows}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("column %q selected twice", name)
		}
		seen[name] = true

		c, ok := f.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, name, f.Columns())
		}
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// WithContext adds a column holding each row's value for label. Rows whose
// lookup misses get an empty string; no row is dropped. If the column
// already exists it is replaced in place. An empty name uses the label.
func (f *Frame) WithContext(label ContextLabel, name string) (*Frame, error) {
	if _, err := ParseContextLabel(string(label)); err != nil {
		return nil, err
	}
	if name == "" {
		name = string(label)
	}

	derived := column{name: name, get: func(r *Row) any {
		v, _ := r.Context.Lookup(label)
		return v
	}}

	out := &Frame{cols: append([]column(nil), f.cols...), rows: f.rows}
	for i, c := range out.cols {
		if c.name == name {
			out.cols[i] = derived
			return out, nil
		}
	}
	out.cols = append(out.cols, derived)
	return out, nil
}

// Where keeps the rows for which p holds, in their original order. The
// schema is unchanged even when no row matches.
func (f *Frame) Where(p Predicate) (*Frame, error) {
	test, err := p.compile(f)
	if err != nil {
		return nil, err
	}

	out := &Frame{cols: f.cols, rows: make([]*Row, 0, len(f.rows))}
	for i, r := range f.rows {
		ok, err := test(r)
		if err != nil {
			return nil, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		if ok {
			out.rows = append(out.rows, r)
		}
	}
	return out, nil
}

// Head returns the first n rows. n beyond Len returns the frame unchanged.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n >= len(f.rows) {
		return f
	}
	return &Frame{cols: f.cols, rows: f.rows[:n:n]}
}

// Records returns each row as a column-name keyed map.
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, len(f.rows))
	for i, r := range f.rows {
		rec := make(map[string]any, len(f.cols))
		for _, c := range f.cols {
			rec[c.name] = c.get(r)
		}
		records[i] = rec
	}
	return records
}

// Strings returns row i rendered for display.
func (f *Frame) Strings(i int) []string {
	values := f.Row(i)
	out := make([]string, len(values))
	for j, v := range values {
		out[j] = FormatValue(v)
	}
	return out
}

// Fingerprint hashes the schema and every rendered cell. Frames with the
// same columns and rows in the same order have the same fingerprint.
func (f *Frame) Fingerprint() uint64 {
	h := xxh3.New()
	for _, name := range f.Columns() {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{1})
	for i := range f.rows {
		for _, cell := range f.Strings(i) {
			_, _ = h.WriteString(cell)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// FormatValue renders a cell for tables and CSV.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
