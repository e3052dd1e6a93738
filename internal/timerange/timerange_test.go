package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"relative with sign", "-30s", "", now.Add(-30 * time.Second), now},
		{"relative without sign", "5m", "", now.Add(-5 * time.Minute), now},
		{"relative end", "-1h", "-10m", now.Add(-time.Hour), now.Add(-10 * time.Minute)},
		{"absolute", "2024-06-01T11:00:00Z", "2024-06-01T11:30:00Z",
			time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 11, 30, 0, 0, time.UTC)},
		{"date only", "2024-06-01", "now", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), now},
		{"now to now", "now", "now", now, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Parse(tt.start, tt.end, now)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(w.Start), "start = %s", w.Start)
			assert.True(t, tt.wantEnd.Equal(w.End), "end = %s", w.End)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
	}{
		{"empty start", "", ""},
		{"garbage start", "thirty seconds", ""},
		{"garbage end", "-30s", "later"},
		{"inverted", "-1m", "-2m"},
		{"double negative", "--30s", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.start, tt.end, now)
			assert.ErrorIs(t, err, ErrInvalidTimeRange)
		})
	}
}

func TestWindow_ContainsIsInclusive(t *testing.T) {
	w, err := Parse("-30s", "", now)
	require.NoError(t, err)

	assert.True(t, w.Contains(now.Add(-30*time.Second)), "start boundary is included")
	assert.True(t, w.Contains(now), "end boundary is included")
	assert.True(t, w.Contains(now.Add(-10*time.Second)))
	assert.False(t, w.Contains(now.Add(-30*time.Second-time.Nanosecond)))
	assert.False(t, w.Contains(now.Add(time.Nanosecond)))
	assert.Equal(t, 30*time.Second, w.Duration())
}

func TestTrailing(t *testing.T) {
	assert.Equal(t, Trailing(30*time.Second, now), Trailing(-30*time.Second, now))
	assert.Equal(t, Window{Start: now.Add(-time.Minute), End: now}, Trailing(time.Minute, now))
	assert.Contains(t, Trailing(time.Minute, now).String(), "2024-06-01T11:59:00Z")
}
