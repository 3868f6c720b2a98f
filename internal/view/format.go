// Package view turns an account's raw movement data into display-ready
// strings. Everything here is pure: callers pass the clock in.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Date layouts per locale, matching what the simulated UI produced for its
// supported locales. Anything unknown gets the day-first layout.
var dateLayouts = map[string]string{
	"en-US": "1/2/2006",
}

var dateTimeLayouts = map[string]string{
	"en-US": "1/2/2006, 3:04 PM",
}

const (
	defaultDateLayout     = "02/01/2006"
	defaultDateTimeLayout = "02/01/2006, 15:04"
)

// FormatRelativeDate renders ts relative to now: "Today" at 0 whole days,
// "Yesterday" at 1, "N days ago" through 7, then an absolute locale date.
// The day distance is the rounded absolute difference in 24h units.
func FormatRelativeDate(ts time.Time, locale string, now time.Time) string {
	days := int(math.Round(math.Abs(now.Sub(ts).Hours() / 24)))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days)
	}

	layout, ok := dateLayouts[locale]
	if !ok {
		layout = defaultDateLayout
	}
	return ts.Format(layout)
}

// FormatDateTime renders a full date-plus-time header string for the locale.
func FormatDateTime(t time.Time, locale string) string {
	layout, ok := dateTimeLayouts[locale]
	if !ok {
		layout = defaultDateTimeLayout
	}
	return t.Format(layout)
}

// FormatCurrency renders amount in the given ISO currency, sign preserved.
// Callers pass abs() where only the magnitude is wanted.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	// Constructing a zero Money guarantees a non-nil currency even for
	// unknown codes.
	cur := *money.New(0, currency).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// FormatClock renders a second count as mm:ss for the countdown label.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
