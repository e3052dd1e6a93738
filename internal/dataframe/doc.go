// Package dataframe implements the relational operations the connection
// queries are written in: projection, context enrichment and row filtering
// over an in-memory table.
//
// Frames are immutable. Select, WithContext and Where return new frames
// that share the source rows; column values are read from the source only
// when a row is rendered.
//
//	df, err := frame.Select("remote_addr", "remote_port")
//	df, err = df.WithContext(dataframe.LabelPod, "pod")
//	df, err = df.Where(dataframe.Eq("remote_port", 27017))
package dataframe
