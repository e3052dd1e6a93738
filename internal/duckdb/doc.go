// Package duckdb provides the DuckDB plumbing behind the connstats store:
// opening database files, a small generic ORM and a SELECT builder.
//
// # ORM
//
// Table maps a struct with `duckdb` tags onto a table and writes batches in
// one transaction. Tables with a `pk` column are upserted:
//
//	type processMetadata struct {
//	    UPID string `duckdb:"upid,pk"`
//	    Pod  string `duckdb:"pod"`
//	}
//
//	table := duckdb.NewTable[processMetadata](db, "process_metadata")
//	err := table.BatchWrite(ctx, items)
//
// # Query Builder
//
// The builder generates parameterised SELECT statements with time windows,
// equality filters, ordering and limits:
//
//	sql, args, err := duckdb.NewQueryBuilder("conn_stats").
//	    TimeColumn("time_").
//	    TimeRange(start, end).
//	    Eq("remote_port", 27017).
//	    OrderBy("time_").
//	    Build()
//
// Identifiers are validated because table names can come from the command
// line. The builder only generates SQL; callers execute it.
package duckdb
