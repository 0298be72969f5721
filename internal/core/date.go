package core

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

var ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)

// ParseOptionalDate reads a YYYY-MM-DD calendar date. An empty string is
// no date.
func ParseOptionalDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return &d, nil
}

// PeriodKey formats a (year, month) pair as "YYYY-MM".
func PeriodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name, or "" when month is out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
