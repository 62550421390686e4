package augment

import (
	"fmt"

	"onco-advisor-be/pkg/store"
)

// Augment prepends an explicit statement of the extracted attribute to the
// raw query so retrieval is biased toward records for that cancer type. When
// the attribute is unknown the query passes through unchanged. Pure transform,
// no side effects.
func Augment(rawQuery, cancerType string) string {
	if cancerType == "" || cancerType == store.AttrUnknown {
		return rawQuery
	}
	return fmt.Sprintf("Patient has %s. %s", cancerType, rawQuery)
}
