package session

import (
	"time"

	"github.com/kirinyoku/tix-bff/internal/domain"
)

// State is everything one browsing session owns. It is serialized as a whole
// into the session store after every mutating request.
type State struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	// Version is bumped by every successful save.
	Version int64 `json:"version"`

	Filters domain.FilterCriteria `json:"filters"`

	// Catalog is the last successfully loaded catalog. It stays visible when a
	// later reload fails.
	Catalog    []domain.Event `json:"catalog,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Cities     []string       `json:"cities,omitempty"`

	// Event is the detail snapshot currently viewed. It is only ever replaced
	// by a fresh fetch.
	Event      *domain.Event     `json:"event,omitempty"`
	Selection  domain.Selection  `json:"selection"`
	Submission domain.Submission `json:"submission"`
}

func New(id string, now time.Time) *State {
	return &State{
		ID:         id,
		CreatedAt:  now,
		Submission: domain.Submission{Phase: domain.PhaseIdle},
	}
}

// ClearFilters resets every facet in a single transition.
func (s *State) ClearFilters() {
	s.Filters = domain.FilterCriteria{}
}

// ReplaceEvent swaps the detail snapshot. Switching to a different event
// drops the selection and the submission outcome of the previous one.
func (s *State) ReplaceEvent(e *domain.Event) {
	if s.Event == nil || s.Event.ID != e.ID {
		s.Selection = domain.Selection{}
		s.Submission = domain.Submission{Phase: domain.PhaseIdle}
	}
	s.Event = e
}

// The Merge methods copy the fields one kind of request owns from from into
// s, the copy another request stored in the meantime.

func (s *State) MergeCatalog(from *State) {
	s.Filters = from.Filters
	s.Catalog = from.Catalog
	s.Categories = from.Categories
	s.Cities = from.Cities
}

// MergeEvent keeps a stored snapshot of the same event; it may already be
// the post-booking refresh.
func (s *State) MergeEvent(from *State) {
	if from.Event == nil || (s.Event != nil && s.Event.ID == from.Event.ID) {
		return
	}
	s.ReplaceEvent(from.Event)
	s.Selection = from.Selection
}

func (s *State) MergeSubmission(from *State) {
	s.Event = from.Event
	s.Selection = from.Selection
	s.Submission = from.Submission
}
