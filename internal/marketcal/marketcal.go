// Package marketcal answers trading-session questions for the
// exchanges behind watched symbols: whether a date is a trading day,
// whether the session is open at an instant, and how many sessions
// remain to a future date.
package marketcal

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Calendar wraps one exchange calendar. When the MIC is unknown to the
// underlying library, a Monday-Friday approximation on New York hours
// stands in.
type Calendar struct {
	mic      string
	cal      *calendar.Calendar
	loc      *time.Location
	fallback bool
}

// suffixMIC maps ticker suffixes to ISO 10383 MIC codes. Bare symbols
// trade on US exchanges.
var suffixMIC = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"},
	{".PA", "xpar"},
	{".DE", "xfra"},
	{".AS", "xams"},
	{".MI", "xmil"},
	{".MC", "xmad"},
	{".ST", "xsto"},
	{".SW", "xswx"},
	{".TO", "xtse"},
	{".T", "xtks"},
	{".HK", "xhkg"},
	{".AX", "xasx"},
	{".KS", "xkrx"},
	{".SS", "xshg"},
	{".SZ", "xshe"},
}

// ForSymbol resolves the calendar for a ticker by its suffix.
func ForSymbol(symbol string) *Calendar {
	mic := "xnys"
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for _, m := range suffixMIC {
		if strings.HasSuffix(upper, m.suffix) {
			mic = m.mic
			break
		}
	}
	return ForMIC(mic)
}

// ForMIC resolves a calendar by MIC code.
func ForMIC(mic string) *Calendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &Calendar{mic: mic, loc: loc, fallback: true}
	}
	return &Calendar{mic: mic, cal: cal, loc: cal.Loc}
}

// MIC returns the resolved MIC code.
func (c *Calendar) MIC() string {
	return c.mic
}

// IsTradingDay reports whether the exchange trades on the given date.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	date = date.In(c.loc)
	if c.fallback {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.cal.IsBusinessDay(date)
}

// IsOpen reports whether the session is open at t.
func (c *Calendar) IsOpen(t time.Time) bool {
	t = t.In(c.loc)
	if c.fallback {
		if !c.IsTradingDay(t) {
			return false
		}
		h, m := t.Hour(), t.Minute()
		return (h > 9 || (h == 9 && m >= 30)) && h < 16
	}
	return c.cal.IsOpen(t)
}

// TradingDaysUntil counts the trading days after from, up to and
// including until. Same-day and past targets count zero.
func (c *Calendar) TradingDaysUntil(from, until time.Time) int {
	fromDay := dateOnly(from.In(c.loc))
	untilDay := dateOnly(until.In(c.loc))

	days := 0
	for d := fromDay.AddDate(0, 0, 1); !d.After(untilDay); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days++
		}
	}
	return days
}

// Status describes the session for one symbol at an instant.
type Status struct {
	Symbol     string    `json:"symbol"`
	MIC        string    `json:"mic"`
	LocalTime  time.Time `json:"local_time"`
	TradingDay bool      `json:"trading_day"`
	Open       bool      `json:"open"`
}

// StatusFor resolves the session status for a symbol at t.
func StatusFor(symbol string, t time.Time) Status {
	c := ForSymbol(symbol)
	return Status{
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		MIC:        c.mic,
		LocalTime:  t.In(c.loc),
		TradingDay: c.IsTradingDay(t),
		Open:       c.IsOpen(t),
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
