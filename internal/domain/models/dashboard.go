package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tile is one dashboard card.
type Tile struct {
	Ticker    string            `json:"ticker"`
	Price     decimal.Decimal   `json:"price"`
	ChangePct decimal.Decimal   `json:"change_pct"`
	IsUp      bool              `json:"is_up"`
	PredIsUp  bool              `json:"pred_is_up"`
	Sparkline []decimal.Decimal `json:"sparkline"`
}

// TrackedSet is an ordered list of unique, upper-cased tickers. It is not
// safe for concurrent use.
type TrackedSet struct {
	tickers []string
}

// NewTrackedSet normalises the given tickers and drops duplicates and blanks.
func NewTrackedSet(tickers ...string) *TrackedSet {
	s := &TrackedSet{tickers: make([]string, 0, len(tickers))}
	for _, t := range tickers {
		_ = s.Add(t)
	}
	return s
}

// Tickers returns a copy in display order.
func (s *TrackedSet) Tickers() []string {
	out := make([]string, len(s.tickers))
	copy(out, s.tickers)
	return out
}

func (s *TrackedSet) Len() int { return len(s.tickers) }

func (s *TrackedSet) Contains(ticker string) bool {
	return s.indexOf(normalize(ticker)) >= 0
}

// Add appends ticker. Duplicates are rejected with ErrDuplicateTicker.
func (s *TrackedSet) Add(ticker string) error {
	t := normalize(ticker)
	if t == "" {
		return ErrValidationFailure
	}
	if s.indexOf(t) >= 0 {
		return ErrDuplicateTicker
	}
	s.tickers = append(s.tickers, t)
	return nil
}

// Remove deletes ticker and reports whether it was present.
func (s *TrackedSet) Remove(ticker string) bool {
	i := s.indexOf(normalize(ticker))
	if i < 0 {
		return false
	}
	s.tickers = append(s.tickers[:i], s.tickers[i+1:]...)
	return true
}

// Move relocates the element at from so that it ends up at index to,
// shifting the elements in between.
func (s *TrackedSet) Move(from, to int) error {
	n := len(s.tickers)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	t := s.tickers[from]
	if from < to {
		copy(s.tickers[from:to], s.tickers[from+1:to+1])
	} else {
		copy(s.tickers[to+1:from+1], s.tickers[to:from])
	}
	s.tickers[to] = t
	return nil
}

func (s *TrackedSet) indexOf(t string) int {
	for i, v := range s.tickers {
		if v == t {
			return i
		}
	}
	return -1
}

func normalize(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
