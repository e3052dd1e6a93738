package dataframe

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func genRows(t *rapid.T, n int) []Row {
	ports := []int64{27017, 27018, 80, 443, 5432}
	rows := make([]Row, n)
	for i := range rows {
		port := ports[rapid.IntRange(0, len(ports)-1).Draw(t, fmt.Sprintf("port%d", i))]
		ctx := Context{}
		if rapid.Bool().Draw(t, fmt.Sprintf("hasPod%d", i)) {
			ctx[LabelPod] = fmt.Sprintf("pod-%d", i)
		}
		rows[i] = Row{
			Values:  []any{fmt.Sprintf("10.0.0.%d", i), port, int64(i), "extra"},
			Context: ctx,
		}
	}
	return rows
}

func TestProperty_FilterKeepsExactlyMatchingRows(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := genRows(t, rapid.IntRange(0, 30).Draw(t, "n"))
		f, err := New([]string{"remote_addr", "remote_port", "conn_open", "other"}, rows)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		out, err := f.Where(Eq("remote_port", 27017))
		if err != nil {
			t.Fatalf("Where: %v", err)
		}

		want := 0
		for _, r := range rows {
			if r.Values[1] == int64(27017) {
				want++
			}
		}
		if out.Len() != want {
			t.Fatalf("got %d rows, want %d", out.Len(), want)
		}
		for i := 0; i < out.Len(); i++ {
			if port := out.Row(i)[1]; port != int64(27017) {
				t.Fatalf("row %d has remote_port %v", i, port)
			}
		}
	})
}

func TestProperty_ProjectionAndEnrichmentPreserveRowCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := genRows(t, rapid.IntRange(0, 30).Draw(t, "n"))
		f, err := New([]string{"remote_addr", "remote_port", "conn_open", "other"}, rows)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		df, err := f.Select("remote_addr", "remote_port")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		df, err = df.WithContext(LabelPod, "pod")
		if err != nil {
			t.Fatalf("WithContext: %v", err)
		}

		if df.Len() != len(rows) {
			t.Fatalf("got %d rows, want %d", df.Len(), len(rows))
		}
		for i := range rows {
			want, _ := rows[i].Context.Lookup(LabelPod)
			if got := df.Row(i)[2]; got != want {
				t.Fatalf("row %d pod = %v, want %q", i, got, want)
			}
		}
	})
}
