package core

import (
	"fmt"
	"strings"
)

// ValidateThreshold checks that a similarity threshold lies within [0, 1].
//
// Boundary layers (CLI, HTTP) must call this before handing a threshold to
// the search engine; engine behavior on an out-of-range threshold is
// undefined.
func ValidateThreshold(threshold float64) error {
	if threshold < 0.0 || threshold > 1.0 {
		return fmt.Errorf("%w: got %v", ErrThresholdOutOfRange, threshold)
	}
	return nil
}

// ValidateQuery checks that a search query contains at least one
// non-whitespace character.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}
