package helpers

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/connstats/internal/dataframe"
)

func testFrame(t *testing.T) *dataframe.Frame {
	t.Helper()
	f, err := dataframe.New(
		[]string{"remote_addr", "remote_port", "pod"},
		[]dataframe.Row{
			{Values: []any{"10.0.0.9", int64(27017), "orders-7d9f"}},
			{Values: []any{"10.0.0.10", int64(27017), ""}},
		},
	)
	require.NoError(t, err)
	return f
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  OutputFormat
		wantErr bool
	}{
		{name: "table formatter", format: FormatTable},
		{name: "json formatter", format: FormatJSON},
		{name: "csv formatter", format: FormatCSV},
		{name: "unsupported format", format: OutputFormat("yaml"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFormatter(tt.format, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestTableFormatter_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(testFrame(t), &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"remote_addr", "remote_port", "pod"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"10.0.0.9", "27017", "orders-7d9f"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"10.0.0.10", "27017"}, strings.Fields(lines[2]))
}

func TestTableFormatter_Styled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{Styled: true}).Format(testFrame(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "remote_port")
	assert.Contains(t, out, "orders-7d9f")
	assert.Contains(t, out, "10.0.0.10")
}

func TestFormatters_EmptyFrame(t *testing.T) {
	empty := dataframe.Empty("remote_addr", "remote_port")

	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(empty, &buf))
	assert.Equal(t, []string{"remote_addr", "remote_port"}, strings.Fields(buf.String()))

	buf.Reset()
	require.NoError(t, (&CSVFormatter{}).Format(empty, &buf))
	assert.Equal(t, "remote_addr,remote_port\n", buf.String())

	buf.Reset()
	require.NoError(t, (&JSONFormatter{}).Format(empty, &buf))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, (&TableFormatter{Styled: true}).Format(empty, &buf))
	assert.Contains(t, buf.String(), "remote_addr")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(testFrame(t), &buf))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.9", got[0]["remote_addr"])
	assert.Equal(t, float64(27017), got[0]["remote_port"])
	assert.Equal(t, "", got[1]["pod"])
}

func TestCSVFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVFormatter{}).Format(testFrame(t), &buf))
	assert.Equal(t,
		"remote_addr,remote_port,pod\n10.0.0.9,27017,orders-7d9f\n10.0.0.10,27017,\n",
		buf.String())
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("csv", SupportedFormats))
	assert.ErrorContains(t, ValidateFormat("xml", SupportedFormats), "table, json, csv")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
