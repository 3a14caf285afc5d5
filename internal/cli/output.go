package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/model"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	activeStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	inactiveStyle = cellStyle.Foreground(lipgloss.Color("245"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// colorNotifier prints export outcomes as colored terminal lines.
type colorNotifier struct {
	out io.Writer
	err io.Writer
}

var _ metadata.Notifier = (*colorNotifier)(nil)

func newColorNotifier(out, err io.Writer) *colorNotifier {
	return &colorNotifier{out: out, err: err}
}

func (n *colorNotifier) Success(message, title string) {
	_, _ = successColor.Fprintf(n.out, "✓ %s: %s\n", title, message)
}

func (n *colorNotifier) Error(message, title string) {
	_, _ = errorColor.Fprintf(n.err, "✗ %s: %s\n", title, message)
}

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprintf(w, "✗ %v\n", err)
}

// renderTable draws display rows under the given column descriptors.
func renderTable(rows []model.DisplayRow, columns []model.ColumnDescriptor) string {
	if len(rows) == 0 {
		return mutedColor.Sprint("No records found")
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Label
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = cellValue(r, c.Key)
		}
		data[i] = cells
	}

	statusCol := -1
	for i, c := range columns {
		if c.Key == model.DisplayKeyStatus {
			statusCol = i
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == statusCol && row >= 0 && row < len(rows):
				if rows[row].Status == model.StatusActive.Label() {
					return activeStyle
				}
				return inactiveStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func cellValue(r model.DisplayRow, key string) string {
	switch key {
	case model.DisplayKeyName:
		return r.Name
	case model.DisplayKeyDescription:
		return r.Description
	case model.DisplayKeyStatus:
		return r.Status
	case model.DisplayKeyVersion:
		return strconv.Itoa(r.Version)
	default:
		return ""
	}
}

// writeJSON prints v in the export format followed by a newline.
func writeJSON(w io.Writer, v any) error {
	text, err := metadata.ExportJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
