package duckdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateQuery(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		query    string
		args     []interface{}
		expected string
	}{
		{
			name:     "string with quote",
			query:    "SELECT * FROM t WHERE pod = ?",
			args:     []interface{}{"o'brien"},
			expected: "SELECT * FROM t WHERE pod = 'o''brien'",
		},
		{
			name:     "numbers",
			query:    "SELECT * FROM t WHERE remote_port = ? AND ratio > ?",
			args:     []interface{}{int64(27017), 0.5},
			expected: "SELECT * FROM t WHERE remote_port = 27017 AND ratio > 0.5",
		},
		{
			name:     "time and bool",
			query:    "SELECT * FROM t WHERE time_ >= ? AND ssl = ?",
			args:     []interface{}{ts, true},
			expected: "SELECT * FROM t WHERE time_ >= '2024-01-15T10:30:00Z' AND ssl = true",
		},
		{
			name:     "null",
			query:    "SELECT * FROM t WHERE pod = ?",
			args:     []interface{}{nil},
			expected: "SELECT * FROM t WHERE pod = NULL",
		},
		{
			name:     "whitespace collapsed",
			query:    "SELECT *\n\tFROM t\n\tWHERE x = ?",
			args:     []interface{}{1},
			expected: "SELECT * FROM t WHERE x = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InterpolateQuery(tt.query, tt.args))
		})
	}
}

func TestInterpolateQuery_NoMonotonicClock(t *testing.T) {
	got := InterpolateQuery("SELECT ?", []interface{}{time.Now()})
	assert.NotContains(t, got, "m=")
}
