package util

import "strings"

// NormalizeTicker trims and upper-cases an instrument symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
