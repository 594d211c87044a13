package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

var ErrMalformedDate = errors.New("filter: malformed date")

// Range is an inclusive day range. A nil bound disables that side.
type Range struct {
	From *time.Time
	To   *time.Time
	loc  *time.Location
}

// ParseRange parses YYYY-MM-DD bounds in loc. Empty bounds are open; a
// malformed bound is left open and reported with ErrMalformedDate naming the
// offending field, while the other bound still applies.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	r := Range{loc: loc}
	var errs []error
	if t, err := parseDay(from, loc); err != nil {
		errs = append(errs, fmt.Errorf("%w: from=%q", ErrMalformedDate, from))
	} else {
		r.From = t
	}
	if t, err := parseDay(to, loc); err != nil {
		errs = append(errs, fmt.Errorf("%w: to=%q", ErrMalformedDate, to))
	} else {
		r.To = t
	}
	if len(errs) > 0 {
		return r, errors.Join(errs...)
	}
	return r, nil
}

func parseDay(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Contains compares at day granularity, so both bounds include their whole
// day.
func (r Range) Contains(t time.Time) bool {
	loc := r.loc
	if loc == nil {
		loc = time.Local
	}
	day := t.In(loc).Format(DayLayout)
	if r.From != nil && day < r.From.Format(DayLayout) {
		return false
	}
	if r.To != nil && day > r.To.Format(DayLayout) {
		return false
	}
	return true
}
