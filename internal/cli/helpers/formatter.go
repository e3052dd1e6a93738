package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/coral-mesh/connstats/internal/dataframe"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// SupportedFormats lists every format NewFormatter accepts.
var SupportedFormats = []OutputFormat{FormatTable, FormatJSON, FormatCSV}

// Formatter renders a frame.
type Formatter interface {
	Format(f *dataframe.Frame, writer io.Writer) error
}

// NewFormatter creates a new Formatter for the given format. styled only
// affects tables and should be true when the writer is a terminal.
func NewFormatter(format OutputFormat, styled bool) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{Styled: styled}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatCSV:
		return &CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter writes an array of objects keyed by column name.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(frame *dataframe.Frame, writer io.Writer) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(frame.Records())
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TableFormatter writes aligned columns. An empty frame still prints its
// header.
type TableFormatter struct {
	Styled bool
}

func (f *TableFormatter) Format(frame *dataframe.Frame, writer io.Writer) error {
	if f.Styled {
		return f.formatStyled(frame, writer)
	}

	w := tabwriter.NewWriter(writer, 0, 0, 3, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(frame.Columns(), "\t")); err != nil {
		return err
	}
	for i := 0; i < frame.Len(); i++ {
		if _, err := fmt.Fprintln(w, strings.Join(frame.Strings(i), "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (f *TableFormatter) formatStyled(frame *dataframe.Frame, writer io.Writer) error {
	rows := make([][]string, frame.Len())
	for i := range rows {
		rows[i] = frame.Strings(i)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(frame.Columns()...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(writer, t.Render())
	return err
}

// CSVFormatter writes a header line followed by one record per row.
type CSVFormatter struct{}

func (f *CSVFormatter) Format(frame *dataframe.Frame, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write(frame.Columns()); err != nil {
		return err
	}
	for i := 0; i < frame.Len(); i++ {
		if err := w.Write(frame.Strings(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
