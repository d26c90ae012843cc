package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/identity"
	"github.com/kirinyoku/tix-bff/internal/service/selection"
	"github.com/kirinyoku/tix-bff/internal/session"
)

// Reservations is the write side of the inventory service.
type Reservations interface {
	CreateReservation(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error)
}

// Refresher fetches the authoritative copy of an event.
type Refresher interface {
	RefreshEvent(ctx context.Context, id string) (*domain.Event, error)
}

// Journal records every attempt that reached the inventory service.
type Journal interface {
	Record(ctx context.Context, sessionID string, req domain.ReservationRequest, res Result)
}

type Outcome string

const (
	OutcomeSucceeded              Outcome = "succeeded"
	OutcomeFailed                 Outcome = "failed"
	OutcomeAuthenticationRequired Outcome = "authentication_required"
)

// Result is what one Submit call produced.
type Result struct {
	Outcome     Outcome
	Request     domain.ReservationRequest
	Reservation *domain.Reservation
	// Err is the classified failure behind OutcomeFailed.
	Err error
	// Reconciled is false when the post-booking re-fetch failed and the
	// session still shows the pre-booking snapshot.
	Reconciled bool
}

// Submitter drives a session through idle -> submitting -> succeeded|failed.
// It does not guard against concurrent calls for one session; the transport
// holds the in-flight lock.
type Submitter struct {
	reservations Reservations
	refresher    Refresher
	journal      Journal
	logger       *slog.Logger
}

// New builds a submitter. journal may be nil.
func New(reservations Reservations, refresher Refresher, journal Journal, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Submitter{
		reservations: reservations,
		refresher:    refresher,
		journal:      journal,
		logger:       logger,
	}
}

// Submit books the session's current selection for user.
//
// A nil user never reaches the inventory service and yields
// OutcomeAuthenticationRequired with the session untouched. On success the
// event is re-fetched exactly once, after the create call returned, and the
// fresh snapshot replaces the session's copy. Seat counts are never adjusted
// locally.
//
// Returns:
//   - error: ErrNoEvent or ErrInvalidSelection when there is nothing valid to
//     submit. Failures of the inventory call are reported through Result.
func (s *Submitter) Submit(ctx context.Context, st *session.State, user *identity.User) (*Result, error) {
	const op = "service.booking.Submit"

	if user == nil {
		return &Result{Outcome: OutcomeAuthenticationRequired}, nil
	}

	if st.Event == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoEvent)
	}

	req, err := selection.New(st.Event, &st.Selection).Request()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSelection)
	}

	st.Submission = domain.Submission{Phase: domain.PhaseSubmitting}

	reservation, err := s.reservations.CreateReservation(ctx, user.Token, req)
	if err != nil {
		res := s.fail(st, req, err)
		s.record(ctx, st.ID, req, *res)
		return res, nil
	}

	st.Submission = domain.Submission{Phase: domain.PhaseSucceeded, Success: MsgConfirmed}
	res := &Result{Outcome: OutcomeSucceeded, Request: req, Reservation: reservation}
	s.record(ctx, st.ID, req, *res)

	res.Reconciled = s.reconcile(ctx, st, req.EventID)

	return res, nil
}

func (s *Submitter) fail(st *session.State, req domain.ReservationRequest, err error) *Result {
	if errors.Is(err, domain.ErrAuthenticationRequired) {
		st.Submission = domain.Submission{Phase: domain.PhaseIdle}
		return &Result{Outcome: OutcomeAuthenticationRequired, Request: req, Err: err}
	}

	// Outages fall back to the generic text even when a body came back.
	msg := MsgFailed
	if !errors.Is(err, domain.ErrTransport) {
		if m, ok := domain.ServerMessage(err); ok {
			msg = m
		}
	}

	st.Submission = domain.Submission{Phase: domain.PhaseFailed, Error: msg}

	return &Result{Outcome: OutcomeFailed, Request: req, Err: err}
}

// reconcile swaps in the authoritative event. On failure the old snapshot
// stays; the booking itself already succeeded.
func (s *Submitter) reconcile(ctx context.Context, st *session.State, eventID string) bool {
	const op = "service.booking.reconcile"

	fresh, err := s.refresher.RefreshEvent(ctx, eventID)
	if err != nil {
		s.logger.Warn("post-booking refresh failed", "op", op, "event_id", eventID, "error", err)
		return false
	}

	st.ReplaceEvent(fresh)
	selection.New(st.Event, &st.Selection).Init()

	return true
}

func (s *Submitter) record(ctx context.Context, sessionID string, req domain.ReservationRequest, res Result) {
	if s.journal == nil {
		return
	}
	s.journal.Record(ctx, sessionID, req, res)
}
