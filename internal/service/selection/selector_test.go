package selection

import (
	"testing"

	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventWithTiers(tiers ...domain.TicketType) *domain.Event {
	return &domain.Event{ID: "E1", Title: "Jazz Night", TicketTypes: tiers}
}

func TestSelector_Init(t *testing.T) {
	ev := eventWithTiers(
		domain.TicketType{ID: "T1", Price: 500, Available: 3},
		domain.TicketType{ID: "T2", Price: 900, Available: 20},
	)

	t.Run("new selection takes the first tier", func(t *testing.T) {
		var sel domain.Selection
		New(ev, &sel).Init()
		assert.Equal(t, domain.Selection{EventID: "E1", TierID: "T1", Quantity: 1}, sel)
	})

	t.Run("keeps a tier the event still has", func(t *testing.T) {
		sel := domain.Selection{EventID: "E1", TierID: "T2", Quantity: 4}
		New(ev, &sel).Init()
		assert.Equal(t, domain.Selection{EventID: "E1", TierID: "T2", Quantity: 1}, sel)
	})

	t.Run("tier of another event is dropped", func(t *testing.T) {
		sel := domain.Selection{EventID: "E9", TierID: "T2", Quantity: 2}
		New(ev, &sel).Init()
		assert.Equal(t, "T1", sel.TierID)
		assert.Equal(t, "E1", sel.EventID)
	})

	t.Run("event without tiers", func(t *testing.T) {
		var sel domain.Selection
		s := New(eventWithTiers(), &sel)
		s.Init()
		assert.Empty(t, sel.TierID)
		assert.Equal(t, 0, s.Max())
		assert.False(t, s.Valid())
	})
}

func TestSelector_QuantityBounds(t *testing.T) {
	ev := eventWithTiers(domain.TicketType{ID: "T1", Price: 500, Available: 3})
	var sel domain.Selection
	s := New(ev, &sel)
	s.Init()

	assert.Equal(t, 3, s.Max())
	assert.False(t, s.CanDecrement())

	// Decrement at 1 is a no-op.
	assert.False(t, s.ChangeQuantity(-1))
	assert.Equal(t, 1, s.Quantity())

	assert.True(t, s.ChangeQuantity(+1))
	assert.True(t, s.ChangeQuantity(+1))
	assert.Equal(t, 3, s.Quantity())
	assert.False(t, s.CanIncrement())

	// Increment at the cap is a no-op.
	assert.False(t, s.ChangeQuantity(+1))
	assert.Equal(t, 3, s.Quantity())

	// Jumps past either bound are rejected whole.
	assert.False(t, s.ChangeQuantity(-5))
	assert.Equal(t, 3, s.Quantity())
}

func TestSelector_MaxCappedPerBooking(t *testing.T) {
	tests := []struct {
		name      string
		available int
		want      int
	}{
		{"below cap", 4, 4},
		{"at cap", domain.MaxTicketsPerBooking, domain.MaxTicketsPerBooking},
		{"above cap", 250, domain.MaxTicketsPerBooking},
		{"sold out", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sel domain.Selection
			s := New(eventWithTiers(domain.TicketType{ID: "T1", Available: tt.available}), &sel)
			s.Init()

			assert.Equal(t, tt.want, s.Max())

			for s.CanIncrement() {
				require.True(t, s.ChangeQuantity(1))
			}
			if tt.want > 0 {
				assert.Equal(t, tt.want, s.Quantity())
			}
		})
	}
}

func TestSelector_SelectTierResetsQuantity(t *testing.T) {
	ev := eventWithTiers(
		domain.TicketType{ID: "T1", Price: 500, Available: 10},
		domain.TicketType{ID: "T2", Price: 900, Available: 10},
	)
	var sel domain.Selection
	s := New(ev, &sel)
	s.Init()
	require.True(t, s.ChangeQuantity(3))

	s.SelectTier("T2")
	assert.Equal(t, "T2", sel.TierID)
	assert.Equal(t, 1, sel.Quantity)

	require.True(t, s.ChangeQuantity(1))
	s.SelectTier("nope")
	assert.Equal(t, "T2", sel.TierID)
	assert.Equal(t, 2, sel.Quantity)
}

func TestSelector_Total(t *testing.T) {
	ev := eventWithTiers(
		domain.TicketType{ID: "T1", Price: 500, Available: 10},
		domain.TicketType{ID: "FREE", Price: 0, Available: 10},
	)
	var sel domain.Selection
	s := New(ev, &sel)
	s.Init()
	require.True(t, s.ChangeQuantity(1))

	assert.Equal(t, 1000.0, s.Total())

	s.SelectTier("FREE")
	require.True(t, s.ChangeQuantity(4))
	assert.Equal(t, 0.0, s.Total())
}

func TestSelector_Request(t *testing.T) {
	ev := eventWithTiers(domain.TicketType{ID: "T1", Price: 500, Available: 5})
	var sel domain.Selection
	s := New(ev, &sel)
	s.Init()
	require.True(t, s.ChangeQuantity(1))

	req, err := s.Request()
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationRequest{EventID: "E1", TicketTypeID: "T1", Quantity: 2}, req)

	// Availability shrank under the selection.
	ev.TicketTypes[0].Available = 1
	_, err = s.Request()
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestLowestPrice(t *testing.T) {
	lowest, ok := LowestPrice([]domain.TicketType{{Price: 1500}, {Price: 499.5}, {Price: 800}})
	assert.True(t, ok)
	assert.Equal(t, 499.5, lowest)

	_, ok = LowestPrice(nil)
	assert.False(t, ok)
}
