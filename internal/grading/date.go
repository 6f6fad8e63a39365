package grading

import (
	"fmt"
	"strconv"
	"strings"
)

// Date is a calendar day without time of day or zone.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewDate builds a Date, rejecting day and month values outside 1-31 and 1-12.
// Day counts per month are not checked, so 31/2 is accepted.
func NewDate(day, month, year int) (Date, error) {
	if day < 1 || day > 31 {
		return Date{}, invalid("day", "must be between 1 and 31, got %d", day)
	}
	if month < 1 || month > 12 {
		return Date{}, invalid("month", "must be between 1 and 12, got %d", month)
	}
	return Date{Day: day, Month: month, Year: year}, nil
}

// ParseDate reads a d/m/yyyy value such as "15/1/2024".
func ParseDate(value string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return Date{}, invalid("date", "expected d/m/yyyy, got %q", value)
	}

	fields := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Date{}, invalid("date", "expected d/m/yyyy, got %q", value)
		}
		fields[i] = n
	}

	return NewDate(fields[0], fields[1], fields[2])
}

// Posterior reports whether d is strictly after other.
func (d Date) Posterior(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// Equal reports whether both values name the same day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// String formats the date as dd/mm/yyyy.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}
