package duckdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ormProcess struct {
	UPID      string    `duckdb:"upid,pk"`
	Pod       string    `duckdb:"pod"`
	Service   string    `duckdb:"service"`
	FirstSeen time.Time `duckdb:"first_seen,immutable"`
	Ignored   string
}

type ormSample struct {
	Time       time.Time `duckdb:"time_"`
	RemotePort int64     `duckdb:"remote_port"`
}

func newORMTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB("", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE procs (upid VARCHAR PRIMARY KEY, pod VARCHAR, service VARCHAR, first_seen TIMESTAMP);
		CREATE TABLE samples (time_ TIMESTAMP, remote_port BIGINT);
	`)
	require.NoError(t, err)
	return db
}

func TestNewTable_Columns(t *testing.T) {
	table := NewTable[ormProcess](nil, "procs")

	assert.Equal(t, "procs", table.Name())
	assert.Equal(t, []string{"upid", "pod", "service", "first_seen"}, table.Columns())
	assert.Equal(t,
		"INSERT INTO procs (upid, pod, service, first_seen) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT (upid) DO UPDATE SET pod = excluded.pod, service = excluded.service",
		table.insertQuery())

	plain := NewTable[ormSample](nil, "samples")
	assert.Equal(t, "INSERT INTO samples (time_, remote_port) VALUES (?, ?)", plain.insertQuery())
}

func TestNewTable_PanicsOnNonStruct(t *testing.T) {
	assert.Panics(t, func() { NewTable[int](nil, "x") })
}

func TestTable_UpsertKeepsImmutableColumns(t *testing.T) {
	db := newORMTestDB(t)
	ctx := context.Background()
	table := NewTable[ormProcess](db, "procs")

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.Write(ctx, &ormProcess{UPID: "1:100", Pod: "web-1", Service: "web", FirstSeen: first}))
	require.NoError(t, table.Write(ctx, &ormProcess{UPID: "1:100", Pod: "web-2", Service: "web", FirstSeen: first.Add(time.Hour)}))

	got, err := table.Get(ctx, "1:100")
	require.NoError(t, err)
	assert.Equal(t, "web-2", got.Pod)
	assert.True(t, got.FirstSeen.Equal(first), "first_seen must not be overwritten")

	_, err = table.Get(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTable_BatchWriteAndFind(t *testing.T) {
	db := newORMTestDB(t)
	ctx := context.Background()
	table := NewTable[ormSample](db, "samples")

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, table.BatchWrite(ctx, []*ormSample{
		{Time: now, RemotePort: 27017},
		{Time: now, RemotePort: 80},
		{Time: now.Add(time.Second), RemotePort: 27017},
	}))
	require.NoError(t, table.BatchWrite(ctx, nil))

	found, err := table.Find(ctx, NewQueryBuilder("samples").Eq("remote_port", 27017).OrderBy("time_"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(27017), found[0].RemotePort)
	assert.True(t, found[1].Time.After(found[0].Time))
}

func TestTable_BatchWriteInCallerTx(t *testing.T) {
	db := newORMTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, NewTable[ormSample](tx, "samples").BatchWrite(ctx, []*ormSample{{Time: time.Now(), RemotePort: 1}}))
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM samples").Scan(&n))
	assert.Zero(t, n, "caller owns the transaction")
}
