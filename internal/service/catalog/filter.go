package catalog

import (
	"strings"

	"github.com/kirinyoku/tix-bff/internal/domain"
)

// Filter returns the events matching every facet set in c, in input order.
// Search matches title or description, category must match exactly and city
// may match partially; all comparisons ignore case. Criteria with every
// facet empty return events unchanged.
func Filter(events []domain.Event, c domain.FilterCriteria) []domain.Event {
	if c.IsEmpty() {
		return events
	}

	search := strings.ToLower(c.Search)
	city := strings.ToLower(c.City)

	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}

		if c.Category != "" && !strings.EqualFold(e.Category, c.Category) {
			continue
		}

		if city != "" && !strings.Contains(strings.ToLower(e.City), city) {
			continue
		}

		out = append(out, e)
	}

	return out
}
