package format

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("en-IN"))

// Currency renders an amount as rupees with two decimals and en-IN digit
// grouping, e.g. ₹1,500.00.
func Currency(amount float64) string {
	return "₹" + printer.Sprintf("%.2f", amount)
}

// LongDate renders a calendar date like "Monday, 2 June 2025".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday, 2 January 2006")
}

// ShortDate renders a calendar date like "2 Jun 2025".
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// Timestamp renders a booking creation time like "2 Jun 2025, 07:30 PM".
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006, 03:04 PM")
}

// ClockTime turns "19:30" into "07:30 PM". Unparseable input is returned
// unchanged.
func ClockTime(hhmm string) string {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return hhmm
	}
	return t.Format("03:04 PM")
}
