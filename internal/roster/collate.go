package roster

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase)
)

// SetLocale switches the collator used to order names.
func SetLocale(tag language.Tag) {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	collator = collate.New(tag, collate.IgnoreCase)
}

// compareNames orders names the way people expect for the configured locale.
// collate.Collator is not safe for concurrent use.
func compareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// CompareNames is compareNames for other packages that list staff or entities.
func CompareNames(a, b string) int {
	return compareNames(a, b)
}
