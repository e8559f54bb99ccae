package pagination

import (
	"sort"

	"github.com/capitalens/capitalens/internal/api"
)

// ListingSorter sorts listings for table output.
type ListingSorter struct {
	validFields map[string]bool
}

// NewListingSorter creates a ListingSorter with the supported sort fields.
func NewListingSorter() *ListingSorter {
	return &ListingSorter{
		validFields: map[string]bool{
			"date":    true,
			"code":    true,
			"company": true,
			"market":  true,
			"price":   true,
		},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *ListingSorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// ValidFields returns all valid sort fields in a consistent order.
func (s *ListingSorter) ValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort sorts listings by the specified field and order. Returns a new sorted
// slice; the input is not modified. An invalid field returns the input
// unchanged.
func (s *ListingSorter) Sort(items []api.Listing, field, order string) []api.Listing {
	if !s.IsValidField(field) {
		return items
	}

	sorted := make([]api.Listing, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		// For descending order, swap i and j in comparisons to keep the
		// sort stable.
		if order == SortOrderDesc {
			i, j = j, i
		}

		switch field {
		case "date":
			return sorted[i].ListingDate.Before(sorted[j].ListingDate.Time)
		case "code":
			return sorted[i].Code < sorted[j].Code
		case "company":
			return sorted[i].Company < sorted[j].Company
		case "market":
			return sorted[i].Market < sorted[j].Market
		case "price":
			return offeringValue(sorted[i].OfferingPrice) < offeringValue(sorted[j].OfferingPrice)
		default:
			return false
		}
	})

	return sorted
}

// offeringValue orders listings without a published price before any priced
// offering.
func offeringValue(price *float64) float64 {
	if price == nil {
		return -1
	}
	return *price
}
