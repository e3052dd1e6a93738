package script

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/connstats/internal/cli/helpers"
	"github.com/coral-mesh/connstats/internal/database"
	"github.com/coral-mesh/connstats/internal/session"
)

var _ Platform = (*session.Session)(nil)

func TestMongoConnections_OnSession(t *testing.T) {
	ctx := context.Background()
	styled := false
	var out bytes.Buffer

	s, err := session.Open(ctx, session.Config{Format: helpers.FormatCSV, Output: &out, Styled: &styled}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	now := time.Now().UTC()
	require.NoError(t, s.Store().UpsertProcesses(ctx, []*database.ProcessMetadata{
		{UPID: "10:1", PID: 10, Pod: "orders-7d9f", Service: "orders", FirstSeen: now, LastSeen: now},
	}))
	require.NoError(t, s.Store().InsertConnStats(ctx, []*database.ConnStat{
		{Time: now.Add(-2 * time.Second), UPID: "10:1", RemoteAddr: "10.0.0.9", RemotePort: 27017, ConnOpen: 1, ConnActive: 1},
		{Time: now.Add(-2 * time.Second), UPID: "10:1", RemoteAddr: "10.0.0.7", RemotePort: 80, ConnOpen: 1, ConnActive: 1},
		{Time: now.Add(-time.Hour), UPID: "10:1", RemoteAddr: "10.0.0.8", RemotePort: 27017, ConnOpen: 1},
	}))

	require.NoError(t, MongoConnections(ctx, s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"remote_addr,remote_port,conn_open,conn_close,pod,service",
		"10.0.0.9,27017,1,0,orders-7d9f,orders",
	}, lines)
}

func TestMongoConnections_RowCapAppliesAfterFilter(t *testing.T) {
	ctx := context.Background()
	styled := false
	var out bytes.Buffer

	s, err := session.Open(ctx, session.Config{Format: helpers.FormatCSV, Output: &out, Styled: &styled, MaxRows: 2}, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	now := time.Now().UTC()
	require.NoError(t, s.Store().InsertConnStats(ctx, []*database.ConnStat{
		{Time: now.Add(-20 * time.Second), UPID: "11:1", RemoteAddr: "10.0.0.7", RemotePort: 80, ConnActive: 1},
		{Time: now.Add(-15 * time.Second), UPID: "11:1", RemoteAddr: "10.0.0.7", RemotePort: 80, ConnActive: 1},
		{Time: now.Add(-5 * time.Second), UPID: "10:1", RemoteAddr: "10.0.0.9", RemotePort: 27017, ConnOpen: 1, ConnActive: 1},
	}))

	require.NoError(t, MongoConnections(ctx, s))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "the newest mongo row survives a window larger than max rows")
	assert.Equal(t, "10.0.0.9,27017,1,0,,", lines[1])
}
