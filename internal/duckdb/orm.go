package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/coral-mesh/connstats/internal/retry"
)

// Execer matches both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table maps struct type T onto a DuckDB table using `duckdb` struct tags.
// Tag options: "pk" marks primary key columns, "immutable" keeps a column
// out of the upsert SET clause.
type Table[T any] struct {
	db        Execer
	tableName string
	columns   []string
	pkColumns []string
	immutable map[string]bool
	fieldMap  map[string]int
}

// NewTable creates a Table for T. It panics if T is not a struct, which is
// a programming error.
func NewTable[T any](db Execer, tableName string) *Table[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic("Table generic type T must be a struct")
	}

	table := &Table[T]{
		db:        db,
		tableName: tableName,
		immutable: make(map[string]bool),
		fieldMap:  make(map[string]int),
	}

	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("duckdb")
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		table.columns = append(table.columns, col)
		table.fieldMap[col] = i

		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "pk":
				table.pkColumns = append(table.pkColumns, col)
			case "immutable":
				table.immutable[col] = true
			}
		}
	}

	return table
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.tableName
}

// Columns returns the mapped column names in struct order.
func (t *Table[T]) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table[T]) isPK(col string) bool {
	for _, pk := range t.pkColumns {
		if pk == col {
			return true
		}
	}
	return false
}

// insertQuery renders INSERT for all columns, with ON CONFLICT handling
// when the table has a primary key.
func (t *Table[T]) insertQuery() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")

	// #nosec G201 - table and column names come from struct tags, not user input.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.tableName, strings.Join(t.columns, ", "), placeholders)

	if len(t.pkColumns) == 0 {
		return query
	}

	var updates []string
	for _, col := range t.columns {
		if !t.isPK(col) && !t.immutable[col] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	return query + fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(t.pkColumns, ", "), action)
}

func (t *Table[T]) values(item *T) []interface{} {
	val := reflect.ValueOf(item).Elem()
	values := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		values[i] = val.Field(t.fieldMap[col]).Interface()
	}
	return values
}

// Write inserts or upserts a single item.
func (t *Table[T]) Write(ctx context.Context, item *T) error {
	query := t.insertQuery()
	values := t.values(item)

	return retry.Do(ctx, retry.DefaultConfig(), func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	}, IsTransactionConflict)
}

// BatchWrite writes items in a single transaction with one prepared
// statement. When the Table was built on a *sql.Tx the caller owns commit.
func (t *Table[T]) BatchWrite(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}

	return retry.Do(ctx, retry.DefaultConfig(), func() error {
		return t.batchWrite(ctx, items)
	}, IsTransactionConflict)
}

func (t *Table[T]) batchWrite(ctx context.Context, items []*T) (err error) {
	var tx *sql.Tx
	switch d := t.db.(type) {
	case *sql.Tx:
		tx = d
	case *sql.DB:
		tx, err = d.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()
	default:
		return fmt.Errorf("unsupported Execer type for BatchWrite: %T", t.db)
	}

	stmt, err := tx.PrepareContext(ctx, t.insertQuery())
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err = stmt.ExecContext(ctx, t.values(item)...); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}

	if _, owned := t.db.(*sql.DB); owned {
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	return nil
}

// Get retrieves a single item by the first primary key column.
// It returns sql.ErrNoRows when nothing matches.
func (t *Table[T]) Get(ctx context.Context, id any) (*T, error) {
	if len(t.pkColumns) == 0 {
		return nil, errors.New("no primary key defined for table")
	}

	query, args, err := NewQueryBuilder(t.tableName).
		Select(t.columns...).
		Eq(t.pkColumns[0], id).
		Build()
	if err != nil {
		return nil, err
	}

	var item T
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(t.scanDest(&item)...); err != nil {
		return nil, err
	}
	return &item, nil
}

// Find runs the query built by b, selecting the table's mapped columns.
// b must target this table and must not have its own Select.
func (t *Table[T]) Find(ctx context.Context, b *Builder) ([]*T, error) {
	query, args, err := b.Select(t.columns...).Build()
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*T
	for rows.Next() {
		var item T
		if err := rows.Scan(t.scanDest(&item)...); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (t *Table[T]) scanDest(item *T) []interface{} {
	val := reflect.ValueOf(item).Elem()
	dest := make([]interface{}, len(t.columns))
	for i, col := range t.columns {
		dest[i] = val.Field(t.fieldMap[col]).Addr().Interface()
	}
	return dest
}
