// Package catalog holds the pure helpers behind the store-item catalog:
// name normalization (the uniqueness key for items) and default-aisle
// suggestion for items created without a location.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// NormalizeName returns the canonical form of an item name used for
// uniqueness within a store: Unicode case-folded, trimmed, with internal
// whitespace runs collapsed to single spaces. Deterministic and pure.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(fold.String(raw)), " ")
}
