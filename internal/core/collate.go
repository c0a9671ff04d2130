package core

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SymbolComparer returns a locale-aware string comparison (en) for ordering
// symbols. The returned func is not safe for concurrent use.
func SymbolComparer() func(a, b string) int {
	c := collate.New(language.English)
	return c.CompareString
}
