package session

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/database"
	"github.com/coral-mesh/connstats/internal/dataframe"
	"github.com/coral-mesh/connstats/internal/testutil"
	"github.com/coral-mesh/connstats/internal/timerange"
)

var (
	plain = false
	now   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func openTestSession(t *testing.T, format helpers.OutputFormat) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := Open(context.Background(), Config{Format: format, Output: &out, Styled: &plain}, testutil.NewTestLoggerWithOutput(t))
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	t.Cleanup(func() { _ = s.Close() })
	return s, &out
}

func seed(t *testing.T, store *database.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertProcesses(ctx, []*database.ProcessMetadata{
		{UPID: "10:1", PID: 10, Pod: "orders-7d9f", Service: "orders", FirstSeen: now, LastSeen: now},
	}))
	require.NoError(t, store.InsertConnStats(ctx, []*database.ConnStat{
		{Time: now.Add(-10 * time.Second), UPID: "10:1", RemoteAddr: "10.0.0.9", RemotePort: 27017, ConnOpen: 1, ConnActive: 1},
		{Time: now.Add(-5 * time.Second), UPID: "11:1", RemoteAddr: "10.0.0.7", RemotePort: 80, ConnActive: 1},
		{Time: now.Add(-time.Hour), UPID: "10:1", RemoteAddr: "10.0.0.9", RemotePort: 27017},
	}))
}

func TestSession_Load(t *testing.T) {
	s, _ := openTestSession(t, helpers.FormatTable)
	seed(t, s.Store())
	assert.NotEmpty(t, s.ID())

	f, err := s.Load(context.Background(), "conn_stats", "-30s", "")
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())

	port, err := f.Value(0, "remote_port")
	require.NoError(t, err)
	assert.Equal(t, int64(27017), port)

	pod, ok := f.ContextValue(0, dataframe.LabelPod)
	assert.True(t, ok)
	assert.Equal(t, "orders-7d9f", pod)

	_, ok = f.ContextValue(1, dataframe.LabelService)
	assert.False(t, ok, "rows of unknown processes carry no context")
}

func TestSession_LoadErrors(t *testing.T) {
	s, _ := openTestSession(t, helpers.FormatTable)
	ctx := context.Background()

	_, err := s.Load(ctx, "http_events", "-30s", "")
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = s.Load(ctx, "conn_stats; DROP TABLE conn_stats", "-30s", "")
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, err = s.Load(ctx, "conn_stats", "yesterday-ish", "")
	assert.ErrorIs(t, err, timerange.ErrInvalidTimeRange)

	_, err = s.Load(ctx, "conn_stats", "-30s", "-1m")
	assert.ErrorIs(t, err, timerange.ErrInvalidTimeRange)
}

func TestSession_LoadWindowBoundary(t *testing.T) {
	s, _ := openTestSession(t, helpers.FormatTable)
	require.NoError(t, s.Store().InsertConnStats(context.Background(), []*database.ConnStat{
		{Time: now.Add(-30 * time.Second), UPID: "1:1", RemotePort: 27017},
		{Time: now.Add(-30*time.Second - time.Microsecond), UPID: "1:1", RemotePort: 27017},
	}))

	f, err := s.Load(context.Background(), "conn_stats", "-30s", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len(), "the window start is inclusive")
}

func TestSession_Display(t *testing.T) {
	s, out := openTestSession(t, helpers.FormatCSV)
	seed(t, s.Store())

	f, err := s.Load(context.Background(), "conn_stats", "-30s", "")
	require.NoError(t, err)
	f, err = f.Select("remote_addr", "remote_port")
	require.NoError(t, err)

	require.NoError(t, s.Display(context.Background(), "output", f))
	assert.Equal(t, "remote_addr,remote_port\n10.0.0.9,27017\n10.0.0.7,80\n", out.String())
}

func TestSession_LoadIgnoresRowCap(t *testing.T) {
	s, _ := openTestSession(t, helpers.FormatCSV)
	seed(t, s.Store())
	s.maxRows = 1

	f, err := s.Load(context.Background(), "conn_stats", "-30s", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestSession_DisplayTruncatesAndWarns(t *testing.T) {
	var out bytes.Buffer
	logger, logs := testutil.NewCapturingLogger(t)
	s, err := Open(context.Background(), Config{Format: helpers.FormatCSV, Output: &out, Styled: &plain, MaxRows: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return now }
	seed(t, s.Store())

	f, err := s.Load(context.Background(), "conn_stats", "-30s", "")
	require.NoError(t, err)
	f, err = f.Select("remote_addr", "remote_port")
	require.NoError(t, err)

	require.NoError(t, s.Display(context.Background(), "output", f))
	assert.Equal(t, "remote_addr,remote_port\n10.0.0.9,27017\n", out.String())
	assert.Contains(t, logs.String(), "Result truncated to max rows")
	assert.Contains(t, logs.String(), `"max_rows":1`)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{Format: "yaml"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Open(ctx, Config{StorePath: filepath.Join(t.TempDir(), "none.duckdb")}, zerolog.Nop())
	assert.ErrorIs(t, err, database.ErrStoreNotFound)
}

func TestSession_SQL(t *testing.T) {
	s, _ := openTestSession(t, helpers.FormatTable)
	seed(t, s.Store())
	s.maxRows = 2

	f, truncated, err := s.SQL(context.Background(), "SELECT remote_addr, remote_port FROM conn_stats ORDER BY time_")
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, []string{"remote_addr", "remote_port"}, f.Columns())
	assert.Equal(t, 2, f.Len())

	_, _, err = s.SQL(context.Background(), "SELECT nope FROM conn_stats")
	assert.Error(t, err)
}
