// Package report prints the outcome of a fetch and exports the table.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"warshipfetch/pkg/model"
)

// Messages printed for each outcome class.
const (
	MsgProgress = "Fetching data with optimized query logic..."
	MsgSuccess  = "✅ Success! Found %d warships."
	MsgEmpty    = "⚠️ Found 0 results. Try loosening the query constraints (drop the image requirement, pick a broader class or raise the limit)."
	MsgFailure  = "❌ Error fetching data: %v"
	MsgSaved    = "Saved to %s"
)

// Placeholder is shown in the preview for absent values.
const Placeholder = "-"

// DefaultPreviewRows matches a dataframe head().
const DefaultPreviewRows = 5

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Reporter writes human-readable run output.
type Reporter struct {
	out         io.Writer
	previewRows int
}

// New creates a Reporter writing to out. previewRows < 0 selects the default.
func New(out io.Writer, previewRows int) *Reporter {
	if previewRows < 0 {
		previewRows = DefaultPreviewRows
	}
	return &Reporter{out: out, previewRows: previewRows}
}

// Progress announces the outgoing request.
func (r *Reporter) Progress() {
	fmt.Fprintln(r.out, MsgProgress)
}

// Failure reports a fetch failure. No table and no preview follow it.
func (r *Reporter) Failure(err error) {
	fmt.Fprintf(r.out, MsgFailure+"\n", err)
}

// Report prints the empty-result warning, or the success line followed by the preview.
func (r *Reporter) Report(t model.ResultTable) {
	if t.Empty() {
		fmt.Fprintln(r.out, MsgEmpty)
		return
	}
	fmt.Fprintf(r.out, MsgSuccess+"\n", t.Len())
	if r.previewRows > 0 {
		fmt.Fprintln(r.out, Preview(t, r.previewRows))
	}
}

// Saved confirms a written export.
func (r *Reporter) Saved(path string) {
	fmt.Fprintf(r.out, MsgSaved+"\n", path)
}

// Preview renders the first n rows as a bordered table with a row index column.
func Preview(t model.ResultTable, n int) string {
	head := t.Head(n)

	rows := make([][]string, 0, len(head))
	for i := range head {
		row := []string{strconv.Itoa(i)}
		for _, v := range head[i].Values() {
			row = append(row, model.Deref(v, Placeholder))
		}
		rows = append(rows, row)
	}

	headers := append([]string{"#"}, model.Columns()...)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	out := tbl.String()
	if rest := t.Len() - len(head); rest > 0 {
		out += fmt.Sprintf("\n... %d more rows", rest)
	}
	return out
}
