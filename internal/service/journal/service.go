package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/domain"
	postgresrepo "github.com/kirinyoku/tix-bff/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-bff/internal/repository/redis"
	"github.com/kirinyoku/tix-bff/internal/service/booking"
	"github.com/kirinyoku/tix-bff/internal/uow"
)

const defaultListLimit = 50

// Service stores submission attempts. A successful booking additionally
// notifies the other instances once the journal row is committed.
type Service struct {
	store  *postgresrepo.Store
	pubsub *redisrepo.EventsPubSub
	uow    *uow.UoW
	clock  clock.Clock
	logger *slog.Logger
}

func New(
	store *postgresrepo.Store,
	pubsub *redisrepo.EventsPubSub,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		clock:  clk,
		logger: logger,
	}
}

// Record implements booking.Journal. Journal failures are logged and never
// change the outcome the visitor sees.
func (s *Service) Record(ctx context.Context, sessionID string, req domain.ReservationRequest, res booking.Result) {
	const op = "service.journal.Record"

	a := domain.Attempt{
		ID:           uuid.New(),
		SessionID:    sessionID,
		EventID:      req.EventID,
		TicketTypeID: req.TicketTypeID,
		Quantity:     req.Quantity,
		Outcome:      string(res.Outcome),
		CreatedAt:    s.clock.Now(),
	}

	if res.Err != nil {
		a.Message = res.Err.Error()
	}
	if res.Reservation != nil {
		a.ReservationID = res.Reservation.ID
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Attempts().With(tx).Insert(ctx, a); err != nil {
			return err
		}

		if res.Outcome == booking.OutcomeSucceeded && s.pubsub != nil {
			after(func(ctx context.Context) {
				if err := s.pubsub.PublishEventChanged(ctx, req.EventID); err != nil {
					s.logger.Warn("publish event changed failed", "op", op, "event_id", req.EventID, "error", err)
				}
			})
		}

		return nil
	})
	if err != nil {
		s.logger.Error("journal write failed", "op", op, "session_id", sessionID, "error", err)
	}
}

// List returns the most recent attempts of a session.
func (s *Service) List(ctx context.Context, sessionID string) ([]domain.Attempt, error) {
	const op = "service.journal.List"

	out, err := s.store.Attempts().ListBySession(ctx, sessionID, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// EnsureSchema prepares the journal table.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.store.Attempts().EnsureSchema(ctx)
}
