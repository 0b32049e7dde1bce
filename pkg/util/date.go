package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var marketLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseMarketDate parses the date strings the market backend emits: plain
// dates for daily bars and "date hh:mm" for intraday bars. RFC3339 and unix
// seconds are accepted too. Results are UTC.
func ParseMarketDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range marketLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatMarketDate renders t the way the backend does, with the time part only
// for intraday points.
func FormatMarketDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DateTimeLayout)
}

// DayKey truncates t to its calendar day in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
