package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/identity"
)

// Entry is one reservation ready for display.
type Entry struct {
	domain.Reservation
	Upcoming bool `json:"upcoming"`
}

// Summary is the derived view of a user's reservations.
type Summary struct {
	Bookings   []Entry `json:"bookings"`
	Count      int     `json:"count"`
	Upcoming   int     `json:"upcoming"`
	TotalSpent float64 `json:"totalSpent"`
	// OrderVerified is false when the source was not delivered oldest-first,
	// in which case Bookings is not guaranteed to be newest-first.
	OrderVerified bool `json:"orderVerified"`
}

// Build derives the summary. Display order is the reverse of the input
// order: the inventory service is expected to return bookings oldest-first.
// That expectation is checked, not enforced; no sorting happens here.
func Build(reservations []domain.Reservation, now time.Time) Summary {
	s := Summary{
		Bookings:      make([]Entry, 0, len(reservations)),
		Count:         len(reservations),
		OrderVerified: deliveredOldestFirst(reservations),
	}

	for _, r := range slices.Backward(reservations) {
		upcoming := r.EventDate.After(now)
		if upcoming {
			s.Upcoming++
		}
		s.TotalSpent += r.TotalAmount
		s.Bookings = append(s.Bookings, Entry{Reservation: r, Upcoming: upcoming})
	}

	return s
}

func deliveredOldestFirst(rs []domain.Reservation) bool {
	for i := 1; i < len(rs); i++ {
		if rs[i].BookingDate.Before(rs[i-1].BookingDate) {
			return false
		}
	}
	return true
}

// Source lists the caller's reservations.
type Source interface {
	ListReservations(ctx context.Context, token string) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, token, id string) (*domain.Reservation, error)
}

type Service struct {
	src    Source
	clock  clock.Clock
	logger *slog.Logger
}

func New(src Source, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{src: src, clock: clk, logger: logger}
}

// Summary fetches the user's reservations and derives the view on every
// call.
func (s *Service) Summary(ctx context.Context, user *identity.User) (*Summary, error) {
	const op = "service.history.Summary"

	rs, err := s.src.ListReservations(ctx, user.Token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sum := Build(rs, s.clock.Now())
	if !sum.OrderVerified {
		s.logger.Warn("reservations not delivered oldest-first", "op", op, "user_id", user.ID, "count", sum.Count)
	}

	return &sum, nil
}

func (s *Service) Get(ctx context.Context, user *identity.User, id string) (*Entry, error) {
	const op = "service.history.Get"

	r, err := s.src.GetReservation(ctx, user.Token, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Entry{Reservation: *r, Upcoming: r.EventDate.After(s.clock.Now())}, nil
}
