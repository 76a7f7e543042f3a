package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrEmptyDate = errors.New("empty date")

// Years outside this range are not accepted as calendar dates. Partial
// inputs such as "Jan 2" parse with year 0 and land outside it.
const (
	minDateYear = 1677
	maxDateYear = 2262
)

// NormalizeDate parses a date cell in any common layout and formats it as
// M/D/YYYY without zero padding. Ambiguous numeric dates are read month
// first.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyDate
	}
	if !strings.ContainsAny(s, "0123456789") {
		return "", fmt.Errorf("parse date %q: no digits", s)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	if t.IsZero() {
		return "", fmt.Errorf("parse date %q: zero time", s)
	}
	if t.Year() < minDateYear || t.Year() > maxDateYear {
		return "", fmt.Errorf("parse date %q: year %d out of range", s, t.Year())
	}
	return fmt.Sprintf("%d/%d/%04d", int(t.Month()), t.Day(), t.Year()), nil
}
