package duckdb

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used unquoted as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Builder constructs SELECT queries with a fluent API.
type Builder struct {
	table      string
	columns    []string
	where      []whereClause
	orderBy    []orderClause
	limit      int
	timeColumn string
}

type whereClause struct {
	expr string
	args []interface{}
}

type orderClause struct {
	column string
	desc   bool
}

// NewQueryBuilder creates a new query builder for the specified table.
func NewQueryBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		timeColumn: "time_",
	}
}

// Select specifies the columns to retrieve. No columns means SELECT *.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// TimeColumn sets the column used by TimeRange. Defaults to "time_".
func (b *Builder) TimeColumn(name string) *Builder {
	b.timeColumn = name
	return b
}

// TimeRange adds an inclusive time window filter on the time column:
// <col> >= start AND <col> <= end.
func (b *Builder) TimeRange(start, end time.Time) *Builder {
	return b.Where(fmt.Sprintf("%s >= ? AND %s <= ?", b.timeColumn, b.timeColumn), start, end)
}

// Where adds a raw condition. Multiple conditions are combined with AND.
func (b *Builder) Where(expr string, args ...interface{}) *Builder {
	b.where = append(b.where, whereClause{expr: expr, args: args})
	return b
}

// Eq adds column = ?. An empty string value is skipped (wildcard).
func (b *Builder) Eq(column string, value interface{}) *Builder {
	if str, ok := value.(string); ok && str == "" {
		return b
	}
	return b.Where(fmt.Sprintf("%s = ?", column), value)
}

// In adds column IN (...). No values means no filter.
func (b *Builder) In(column string, values ...interface{}) *Builder {
	if len(values) == 0 {
		return b
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return b.Where(fmt.Sprintf("%s IN (%s)", column, placeholders), values...)
}

// Lt adds column < ?.
func (b *Builder) Lt(column string, value interface{}) *Builder {
	return b.Where(fmt.Sprintf("%s < ?", column), value)
}

// OrderBy adds ORDER BY columns; a "-" prefix sorts descending.
func (b *Builder) OrderBy(columns ...string) *Builder {
	for _, col := range columns {
		desc := strings.HasPrefix(col, "-")
		b.orderBy = append(b.orderBy, orderClause{column: strings.TrimPrefix(col, "-"), desc: desc})
	}
	return b
}

// Limit sets the maximum number of rows to return. Zero means unlimited.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Build renders the query and its positional arguments. It can be called
// repeatedly; the builder is not consumed.
func (b *Builder) Build() (string, []interface{}, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if !ValidIdentifier(b.table) {
		return "", nil, fmt.Errorf("invalid table name %q", b.table)
	}
	if !ValidIdentifier(b.timeColumn) {
		return "", nil, fmt.Errorf("invalid time column %q", b.timeColumn)
	}

	var query strings.Builder
	var args []interface{}

	query.WriteString("SELECT ")
	if len(b.columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(b.columns, ", "))
	}

	query.WriteString(" FROM ")
	query.WriteString(b.table)

	if len(b.where) > 0 {
		exprs := make([]string, len(b.where))
		for i, w := range b.where {
			exprs[i] = w.expr
			args = append(args, w.args...)
		}
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(exprs, " AND "))
	}

	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			parts[i] = o.column
			if o.desc {
				parts[i] += " DESC"
			}
		}
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(parts, ", "))
	}

	if b.limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}

	return query.String(), args, nil
}
