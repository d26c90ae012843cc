package history

import (
	"context"
	"testing"
	"time"

	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func reservation(id string, eventDate domain.Date, booked time.Time, amount float64) domain.Reservation {
	return domain.Reservation{
		ID:          id,
		EventDate:   eventDate,
		BookingDate: booked,
		TotalAmount: amount,
		Status:      domain.ReservationConfirmed,
	}
}

func TestBuild(t *testing.T) {
	rs := []domain.Reservation{
		reservation("B1", domain.NewDate(2025, time.May, 1), now.Add(-72*time.Hour), 500),
		reservation("B2", domain.NewDate(2025, time.July, 1), now.Add(-48*time.Hour), 1500),
		reservation("B3", domain.NewDate(2025, time.August, 1), now.Add(-24*time.Hour), 0),
	}

	s := Build(rs, now)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.Upcoming)
	assert.Equal(t, 2000.0, s.TotalSpent)
	assert.True(t, s.OrderVerified)

	require.Len(t, s.Bookings, 3)
	assert.Equal(t, "B3", s.Bookings[0].ID)
	assert.Equal(t, "B2", s.Bookings[1].ID)
	assert.Equal(t, "B1", s.Bookings[2].ID)
	assert.False(t, s.Bookings[2].Upcoming)

	// The input is left as delivered.
	assert.Equal(t, "B1", rs[0].ID)
}

func TestBuild_Empty(t *testing.T) {
	s := Build(nil, now)

	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0, s.Upcoming)
	assert.Equal(t, 0.0, s.TotalSpent)
	assert.NotNil(t, s.Bookings)
	assert.Empty(t, s.Bookings)
	assert.True(t, s.OrderVerified)
}

func TestBuild_EventTodayIsNotUpcoming(t *testing.T) {
	// The event date is midnight of today, which is not after now.
	s := Build([]domain.Reservation{
		reservation("B1", domain.NewDate(2025, time.June, 10), now.Add(-time.Hour), 100),
	}, now)

	assert.Equal(t, 0, s.Upcoming)
}

func TestBuild_UnorderedInputIsFlaggedNotSorted(t *testing.T) {
	rs := []domain.Reservation{
		reservation("B2", domain.NewDate(2025, time.July, 1), now.Add(-24*time.Hour), 100),
		reservation("B1", domain.NewDate(2025, time.July, 1), now.Add(-48*time.Hour), 100),
	}

	s := Build(rs, now)

	assert.False(t, s.OrderVerified)
	assert.Equal(t, "B1", s.Bookings[0].ID)
	assert.Equal(t, "B2", s.Bookings[1].ID)
}

type MockSource struct {
	ListReservationsFunc func(ctx context.Context, token string) ([]domain.Reservation, error)
	GetReservationFunc   func(ctx context.Context, token, id string) (*domain.Reservation, error)
}

func (m *MockSource) ListReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	if m.ListReservationsFunc != nil {
		return m.ListReservationsFunc(ctx, token)
	}
	return nil, nil
}

func (m *MockSource) GetReservation(ctx context.Context, token, id string) (*domain.Reservation, error) {
	if m.GetReservationFunc != nil {
		return m.GetReservationFunc(ctx, token, id)
	}
	return nil, domain.ErrNotFound
}

func TestService_Summary(t *testing.T) {
	src := &MockSource{
		ListReservationsFunc: func(ctx context.Context, token string) ([]domain.Reservation, error) {
			assert.Equal(t, "tok", token)
			return []domain.Reservation{
				reservation("B1", domain.NewDate(2025, time.July, 1), now.Add(-time.Hour), 750),
			}, nil
		},
	}
	svc := New(src, clock.NewFixed(now), nil)

	s, err := svc.Summary(context.Background(), &identity.User{ID: "u1", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Upcoming)
	assert.Equal(t, 750.0, s.TotalSpent)
}

func TestService_SummaryError(t *testing.T) {
	src := &MockSource{
		ListReservationsFunc: func(ctx context.Context, token string) ([]domain.Reservation, error) {
			return nil, &domain.ServiceError{Kind: domain.ErrTransport, Status: 503}
		},
	}
	svc := New(src, clock.NewFixed(now), nil)

	_, err := svc.Summary(context.Background(), &identity.User{Token: "tok"})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestService_Get(t *testing.T) {
	src := &MockSource{
		GetReservationFunc: func(ctx context.Context, token, id string) (*domain.Reservation, error) {
			r := reservation(id, domain.NewDate(2025, time.May, 1), now.Add(-time.Hour), 10)
			return &r, nil
		},
	}
	svc := New(src, clock.NewFixed(now), nil)

	e, err := svc.Get(context.Background(), &identity.User{Token: "tok"}, "B9")
	require.NoError(t, err)
	assert.Equal(t, "B9", e.ID)
	assert.False(t, e.Upcoming)

	_, err = New(&MockSource{}, clock.NewFixed(now), nil).Get(context.Background(), &identity.User{}, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
