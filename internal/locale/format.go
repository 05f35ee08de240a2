package locale

import (
	"time"

	"golang.org/x/text/message"
)

var arabicMonths = [...]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// Printer returns a message printer localized for l.
func Printer(l Lang) *message.Printer {
	return message.NewPrinter(l.Tag())
}

// FormatNumber renders n with the grouping and digits of l.
func FormatNumber(l Lang, n int) string {
	return Printer(l).Sprintf("%d", n)
}

// FormatPercent renders a 0-100 score as a percentage.
func FormatPercent(l Lang, n int) string {
	if l == Arabic {
		return FormatNumber(l, n) + "٪"
	}
	return FormatNumber(l, n) + "%"
}

// FormatDate renders the UTC calendar day of t, e.g. "Jan 10, 2024" or "10 يناير 2024".
func FormatDate(l Lang, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if l == Arabic {
		return Printer(l).Sprintf("%d %s %d", t.Day(), arabicMonths[t.Month()-1], t.Year())
	}
	return t.Format("Jan 02, 2006")
}

// FormatTimestamp renders date and time of day in UTC.
func FormatTimestamp(l Lang, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(l, t) + " " + t.UTC().Format("15:04:05")
}
