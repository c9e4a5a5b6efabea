// utils/names.go
package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

var nameFolder = cases.Fold()

// NormalizeName canonicalizes a player name for lookups and grouping:
// surrounding whitespace stripped, then Unicode case folding so "Ragnar",
// "ragnar" and "RAGNAR" collapse to one player.
func NormalizeName(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

// NormalizeCategory lowers and trims a category label, mapping the empty
// string to the default ladder.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return "default"
	}
	return c
}

// NormalizeClass lowers and trims a class label so aggregations group
// consistently regardless of reporter casing.
func NormalizeClass(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}
