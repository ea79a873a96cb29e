package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestScheduledDate(t *testing.T) {
	dueDate := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dayOffset int
		expected  time.Time
	}{
		{
			name:      "on the due date",
			dayOffset: 0,
			expected:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "three days before",
			dayOffset: -3,
			expected:  time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "crosses month boundary",
			dayOffset: 30,
			expected:  time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScheduledDate(dueDate, tt.dayOffset)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalendarDate(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "utc midnight",
			input:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "positive offset keeps its own day",
			input:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.FixedZone("", 2*60*60)),
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "negative offset late in the day",
			input:    time.Date(2024, 3, 10, 22, 0, 0, 0, time.FixedZone("", -5*60*60)),
			expected: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalendarDate(tt.input))
		})
	}
}

func TestDayWindow(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	start, end := DayWindow(now)

	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
	assert.False(t, end.Before(now))
}

func TestDayWindow_ConvertsToUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, 5, 2, 3, 0, 0, 0, jakarta) // 2024-05-01 20:00 UTC

	start, _ := DayWindow(now)

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestDaysOverdue(t *testing.T) {
	dueDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		on       time.Time
		expected int
	}{
		{name: "before due date", on: dueDate.AddDate(0, 0, -5), expected: 0},
		{name: "on due date", on: dueDate, expected: 0},
		{name: "one week late", on: dueDate.AddDate(0, 0, 7), expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysOverdue(dueDate, tt.on))
		})
	}
}

func TestIsDateOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	assert.True(t, IsDateOverdue(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsDateOverdue(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsDateOverdue(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), now))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1250.50", FormatAmount(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "99.00", FormatAmount(decimal.NewFromInt(99)))
}

func TestNewlinesToBreaks(t *testing.T) {
	assert.Equal(t, "Hi Ann,<br><br>Please pay.", NewlinesToBreaks("Hi Ann,\r\n\nPlease pay."))
	assert.Equal(t, "Hi &lt;b&gt;Ann&lt;/b&gt; &amp; Co<br>Pay.", NewlinesToBreaks("Hi <b>Ann</b> & Co\nPay."))
}
