package repository

import "strings"

// UIRange is the range label the chart offers.
type UIRange string

// Period is the lookback string the market backend understands.
type Period string

const (
	Range1D UIRange = "1D"
	Range1W UIRange = "1W"
	Range1M UIRange = "1M"
	Range3M UIRange = "3M"
	Range6M UIRange = "6M"
	Range1Y UIRange = "1Y"
	Range2Y UIRange = "2Y"
)

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
)

var rangePeriods = map[UIRange]Period{
	Range1D: Period1d,
	Range1W: Period5d, // a trading week
	Range1M: Period1mo,
	Range3M: Period3mo,
	Range6M: Period6mo,
	Range1Y: Period1y,
	Range2Y: Period2y,
}

// Ranges lists the selectable ranges in display order.
func Ranges() []UIRange {
	return []UIRange{Range1D, Range1W, Range1M, Range3M, Range6M, Range1Y, Range2Y}
}

// NormalizeRange upper-cases raw and reports whether it is a known range.
func NormalizeRange(raw string) (UIRange, bool) {
	r := UIRange(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := rangePeriods[r]
	return r, ok
}

// DefaultPeriod is used for unknown ranges.
func DefaultPeriod() Period { return Period1y }

// SelectRange maps a UI range to a backend period; unknown input maps to
// DefaultPeriod.
func SelectRange(raw string) Period {
	r, ok := NormalizeRange(raw)
	if !ok {
		return DefaultPeriod()
	}
	return rangePeriods[r]
}

// IsValidPeriod reports whether p is one of the backend periods.
func IsValidPeriod(p Period) bool {
	for _, v := range rangePeriods {
		if v == p {
			return true
		}
	}
	return false
}
