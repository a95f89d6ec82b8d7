package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stockwatch/internal/models"
)

// Output writes command results for one invocation, honoring the
// --json flag and dropping color when stdout is not a terminal.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput builds the output helper for a command.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(),
	}
}

func isTerminal() bool {
	info, _ := os.Stdout.Stat()
	return info.Mode()&os.ModeCharDevice != 0
}

// IsJSON reports whether --json output was requested.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON writes data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Printf writes a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Println writes its arguments followed by a newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Success writes a green line.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(color.New(color.FgGreen), format, args...)
}

// Error writes a red line.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(color.New(color.FgRed), format, args...)
}

// Warning writes a yellow line.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(color.New(color.FgYellow), format, args...)
}

// Info writes a cyan line.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(color.New(color.FgCyan), format, args...)
}

// Bold writes a bold line.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(color.New(color.Bold), format, args...)
}

// Dim writes a faint line.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(color.New(color.Faint), format, args...)
}

func (o *Output) line(c *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if o.colorEnabled {
		msg = c.Sprint(msg)
	}
	fmt.Fprintln(o.writer, msg)
}

func (o *Output) sprint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	return c.Sprint(text)
}

// Green returns text colored green.
func (o *Output) Green(text string) string {
	return o.sprint(color.New(color.FgGreen), text)
}

// Red returns text colored red.
func (o *Output) Red(text string) string {
	return o.sprint(color.New(color.FgRed), text)
}

// Yellow returns text colored yellow.
func (o *Output) Yellow(text string) string {
	return o.sprint(color.New(color.FgYellow), text)
}

// Cyan returns text colored cyan.
func (o *Output) Cyan(text string) string {
	return o.sprint(color.New(color.FgCyan), text)
}

// BoldText returns text in bold.
func (o *Output) BoldText(text string) string {
	return o.sprint(color.New(color.Bold), text)
}

// DimText returns faint text.
func (o *Output) DimText(text string) string {
	return o.sprint(color.New(color.Faint), text)
}

// SeverityTag returns a bracketed, severity-colored alert tag.
func (o *Output) SeverityTag(severity models.Severity) string {
	tag := fmt.Sprintf("[%s]", strings.ToUpper(string(severity)))
	switch severity {
	case models.SeverityHigh:
		return o.Red(tag)
	case models.SeverityMedium:
		return o.Yellow(tag)
	default:
		return o.Cyan(tag)
	}
}

// SignedPercent formats a percentage with sign, colored by direction.
func (o *Output) SignedPercent(pct float64) string {
	formatted := FormatPercent(pct)
	switch {
	case pct > 0:
		return o.Green(formatted)
	case pct < 0:
		return o.Red(formatted)
	default:
		return formatted
	}
}

// SignedBp formats a basis-point delta with sign, colored by direction.
func (o *Output) SignedBp(bp float64) string {
	sign := ""
	if bp > 0 {
		sign = "+"
	}
	formatted := fmt.Sprintf("%s%.0fbp", sign, bp)
	switch {
	case bp > 0:
		return o.Green(formatted)
	case bp < 0:
		return o.Red(formatted)
	default:
		return formatted
	}
}

// MarketStatus returns a colored session indicator.
func (o *Output) MarketStatus(open bool) string {
	if open {
		return o.Green("OPEN")
	}
	return o.Red("CLOSED")
}

// ansiRe matches the SGR escape sequences the color package emits.
var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

// visibleWidth is the cell width as the terminal renders it.
func visibleWidth(s string) int {
	return len(ansiRe.ReplaceAllString(s, ""))
}

// Table renders aligned columns under a bold header and rule line.
// Cells may carry color codes; alignment uses the visible text only.
type Table struct {
	headers []string
	rows    [][]string
	out     *Output
}

// NewTable creates a table writing through out.
func NewTable(out *Output, headers ...string) *Table {
	return &Table{headers: headers, out: out}
}

// AddRow appends one row. Extra cells beyond the header count are
// dropped at render time.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}
	widths := t.columnWidths()

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = t.out.BoldText(pad(h, widths[i]))
	}
	t.out.Println(strings.Join(header, "  "))

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	t.out.Println(t.out.DimText(strings.Join(rule, "──")))

	for _, row := range t.rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			cells = append(cells, pad(cell, widths[i]))
		}
		t.out.Println(strings.Join(cells, "  "))
	}
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func pad(s string, width int) string {
	if n := width - visibleWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
