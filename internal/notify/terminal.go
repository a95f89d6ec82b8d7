package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"stockwatch/internal/models"
)

// Terminal writes one banner line per alert, colored by severity, with
// a bell on high severity so an unattended scan still gets noticed.
type Terminal struct {
	out          io.Writer
	colorEnabled bool
	bellEnabled  bool
}

// NewTerminal creates a terminal channel writing to out.
func NewTerminal(out io.Writer, colorEnabled bool) *Terminal {
	return &Terminal{
		out:          out,
		colorEnabled: colorEnabled,
		bellEnabled:  true,
	}
}

// SetBellEnabled enables or disables the terminal bell.
func (t *Terminal) SetBellEnabled(enabled bool) {
	t.bellEnabled = enabled
}

// Name returns the channel name.
func (t *Terminal) Name() string {
	return "terminal"
}

// IsEnabled reports whether the channel has a writer.
func (t *Terminal) IsEnabled() bool {
	return t.out != nil
}

// Send writes the banner lines.
func (t *Terminal) Send(_ context.Context, alerts []models.Alert) error {
	for _, a := range alerts {
		line := fmt.Sprintf("[%s] %s %s: %s",
			strings.ToUpper(string(a.Severity)), a.Type, a.Symbol, a.Message)
		if t.colorEnabled {
			line = severityColor(a.Severity).Sprint(line)
		}
		if t.bellEnabled && a.Severity == models.SeverityHigh {
			line += "\a"
		}
		if _, err := fmt.Fprintln(t.out, line); err != nil {
			return fmt.Errorf("writing alert banner: %w", err)
		}
	}
	return nil
}

func severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case models.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
