package selection

import (
	"errors"

	"github.com/kirinyoku/tix-bff/internal/domain"
)

var ErrInvalidSelection = errors.New("selection is not bookable")

// Selector enforces quantity bounds for one event's tiers. It mutates the
// Selection it was given and never touches the event.
type Selector struct {
	event *domain.Event
	sel   *domain.Selection
}

func New(event *domain.Event, sel *domain.Selection) *Selector {
	return &Selector{event: event, sel: sel}
}

// Init points the selection at the event, keeping the current tier when the
// event still has it and falling back to the first tier otherwise. Quantity
// always restarts at 1.
func (s *Selector) Init() {
	tierID := s.sel.TierID
	if s.sel.EventID != s.event.ID || !s.HasTier(tierID) {
		tierID = ""
		if len(s.event.TicketTypes) > 0 {
			tierID = s.event.TicketTypes[0].ID
		}
	}

	*s.sel = domain.Selection{
		EventID:  s.event.ID,
		TierID:   tierID,
		Quantity: 1,
	}
}

func (s *Selector) HasTier(id string) bool {
	_, ok := s.event.Tier(id)
	return ok
}

// SelectTier switches tier and resets quantity to 1. Unknown ids are ignored;
// callers check HasTier first.
func (s *Selector) SelectTier(id string) {
	if !s.HasTier(id) {
		return
	}

	s.sel.EventID = s.event.ID
	s.sel.TierID = id
	s.sel.Quantity = 1
}

// Tier returns the selected tier.
func (s *Selector) Tier() (domain.TicketType, bool) {
	return s.event.Tier(s.sel.TierID)
}

// Max is the largest quantity the selected tier allows.
func (s *Selector) Max() int {
	t, ok := s.Tier()
	if !ok {
		return 0
	}
	return min(t.Available, domain.MaxTicketsPerBooking)
}

// ChangeQuantity applies quantity+delta only when the result stays within
// [1, Max()]. Out-of-range proposals leave the state untouched.
func (s *Selector) ChangeQuantity(delta int) bool {
	next := s.sel.Quantity + delta
	if next < 1 || next > s.Max() {
		return false
	}

	s.sel.Quantity = next
	return true
}

func (s *Selector) CanIncrement() bool {
	return s.sel.Quantity+1 <= s.Max()
}

func (s *Selector) CanDecrement() bool {
	return s.sel.Quantity-1 >= 1
}

func (s *Selector) Quantity() int {
	return s.sel.Quantity
}

// Total is the selected tier's price times quantity.
func (s *Selector) Total() float64 {
	t, ok := s.Tier()
	if !ok {
		return 0
	}
	return t.Price * float64(s.sel.Quantity)
}

// Valid reports whether the selection satisfies 1 <= quantity <= Max().
func (s *Selector) Valid() bool {
	return s.sel.EventID == s.event.ID &&
		s.sel.Quantity >= 1 &&
		s.sel.Quantity <= s.Max()
}

// Request snapshots a valid selection into a reservation request.
func (s *Selector) Request() (domain.ReservationRequest, error) {
	if !s.Valid() {
		return domain.ReservationRequest{}, ErrInvalidSelection
	}

	return domain.ReservationRequest{
		EventID:      s.event.ID,
		TicketTypeID: s.sel.TierID,
		Quantity:     s.sel.Quantity,
	}, nil
}

// LowestPrice returns the cheapest unit price among tiers. It reports false
// for an empty tier set, which a well-formed event never has.
func LowestPrice(tiers []domain.TicketType) (float64, bool) {
	if len(tiers) == 0 {
		return 0, false
	}

	lowest := tiers[0].Price
	for _, t := range tiers[1:] {
		if t.Price < lowest {
			lowest = t.Price
		}
	}

	return lowest, true
}
