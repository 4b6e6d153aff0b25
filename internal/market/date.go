package market

import (
	"fmt"
	"time"
)

var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// ParseDate accepts "YYYY-MM-DD" or "YYYY-MM-DD HH:MM" and interprets the
// value as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use 'YYYY-MM-DD' or 'YYYY-MM-DD HH:MM'", s)
}
