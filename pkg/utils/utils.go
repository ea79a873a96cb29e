package utils

import (
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DueDateLayout is how due dates are shown inside reminder emails
const DueDateLayout = "January 2, 2006"

// StartOfDay truncates t to midnight UTC of its calendar day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDate keeps the calendar day t names in its own offset, as midnight UTC.
// Request timestamps go through here so 2024-03-10T00:00:00+02:00 stays March 10.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow returns the closed-open UTC window [today00:00, tomorrow00:00) containing now
func DayWindow(now time.Time) (time.Time, time.Time) {
	start := StartOfDay(now)
	return start, start.AddDate(0, 0, 1)
}

// ScheduledDate calculates the reminder date for a step: dueDate + dayOffset, date only.
// A negative offset lands before the due date.
func ScheduledDate(dueDate time.Time, dayOffset int) time.Time {
	return StartOfDay(dueDate).AddDate(0, 0, dayOffset)
}

// DaysBetween returns the number of whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// DaysOverdue is the number of days the invoice is past due on the given date, never negative
func DaysOverdue(dueDate, on time.Time) int {
	days := DaysBetween(dueDate, on)
	if days < 0 {
		return 0
	}
	return days
}

// IsDateOverdue checks if dueDate is strictly before the calendar day of now
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	return StartOfDay(dueDate).Before(StartOfDay(now))
}

// SameDay reports whether a and b fall on the same UTC calendar day
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// FormatAmount renders a money amount with two decimals
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// NewlinesToBreaks escapes a plain-text body for HTML and turns its newlines into line breaks
func NewlinesToBreaks(body string) string {
	body = html.EscapeString(strings.ReplaceAll(body, "\r\n", "\n"))
	return strings.ReplaceAll(body, "\n", "<br>")
}
