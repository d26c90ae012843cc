package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/identity"
	"github.com/kirinyoku/tix-bff/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockReservations struct {
	CreateReservationFunc func(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error)
	calls                 int
}

func (m *MockReservations) CreateReservation(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error) {
	m.calls++
	if m.CreateReservationFunc != nil {
		return m.CreateReservationFunc(ctx, token, req)
	}
	return &domain.Reservation{ID: "B1", Status: domain.ReservationConfirmed}, nil
}

type MockRefresher struct {
	RefreshEventFunc func(ctx context.Context, id string) (*domain.Event, error)
	calls            int
}

func (m *MockRefresher) RefreshEvent(ctx context.Context, id string) (*domain.Event, error) {
	m.calls++
	if m.RefreshEventFunc != nil {
		return m.RefreshEventFunc(ctx, id)
	}
	return nil, errors.New("not configured")
}

type recordedAttempt struct {
	sessionID string
	req       domain.ReservationRequest
	res       Result
}

type MockJournal struct {
	mu      sync.Mutex
	records []recordedAttempt
}

func (m *MockJournal) Record(ctx context.Context, sessionID string, req domain.ReservationRequest, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recordedAttempt{sessionID: sessionID, req: req, res: res})
}

var testUser = &identity.User{ID: "u1", DisplayName: "Asha", Token: "tok"}

func jazzEvent(available int) *domain.Event {
	return &domain.Event{
		ID:             "E1",
		Title:          "Jazz Night",
		TotalSeats:     100,
		AvailableSeats: available,
		TicketTypes: []domain.TicketType{
			{ID: "T1", Name: "General", Price: 500, Available: available - 5},
			{ID: "T2", Name: "VIP", Price: 1500, Available: 5},
		},
	}
}

// sessionAt returns a session viewing E1 with tier T1 at qty.
func sessionAt(qty int) *session.State {
	st := session.New("s1", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	st.Event = jazzEvent(50)
	st.Selection = domain.Selection{EventID: "E1", TierID: "T1", Quantity: qty}
	return st
}

func TestSubmitter_Success(t *testing.T) {
	st := sessionAt(2)

	reservations := &MockReservations{
		CreateReservationFunc: func(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error) {
			assert.Equal(t, "tok", token)
			assert.Equal(t, domain.ReservationRequest{EventID: "E1", TicketTypeID: "T1", Quantity: 2}, req)
			assert.Equal(t, domain.PhaseSubmitting, st.Submission.Phase)
			return &domain.Reservation{ID: "B1", EventID: "E1", Quantity: 2, TotalAmount: 1000}, nil
		},
	}
	refresher := &MockRefresher{
		RefreshEventFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			assert.Equal(t, 1, reservations.calls, "refresh happens after the create call")
			return jazzEvent(48), nil
		},
	}
	journal := &MockJournal{}

	res, err := New(reservations, refresher, journal, nil).Submit(context.Background(), st, testUser)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 1000.0, res.Reservation.TotalAmount)
	assert.True(t, res.Reconciled)
	assert.Equal(t, 1, refresher.calls)

	assert.Equal(t, domain.Submission{Phase: domain.PhaseSucceeded, Success: MsgConfirmed}, st.Submission)
	assert.Equal(t, 48, st.Event.AvailableSeats)
	assert.Equal(t, domain.Selection{EventID: "E1", TierID: "T1", Quantity: 1}, st.Selection)

	require.Len(t, journal.records, 1)
	assert.Equal(t, "s1", journal.records[0].sessionID)
	assert.Equal(t, OutcomeSucceeded, journal.records[0].res.Outcome)
}

func TestSubmitter_SuccessWithFailedRefresh(t *testing.T) {
	st := sessionAt(2)
	refresher := &MockRefresher{
		RefreshEventFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			return nil, &domain.ServiceError{Kind: domain.ErrTransport, Status: 502}
		},
	}

	res, err := New(&MockReservations{}, refresher, nil, nil).Submit(context.Background(), st, testUser)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.False(t, res.Reconciled)
	assert.Equal(t, domain.PhaseSucceeded, st.Submission.Phase)
	// Seat counts are never decremented locally.
	assert.Equal(t, 50, st.Event.AvailableSeats)
}

func TestSubmitter_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "validation message is shown",
			err:     &domain.ServiceError{Kind: domain.ErrValidation, Status: 400, Message: "Not enough tickets available"},
			wantMsg: "Not enough tickets available",
		},
		{
			name:    "validation without message",
			err:     &domain.ServiceError{Kind: domain.ErrValidation, Status: 409},
			wantMsg: MsgFailed,
		},
		{
			name:    "not found message is shown",
			err:     &domain.ServiceError{Kind: domain.ErrNotFound, Status: 404, Message: "Event not found"},
			wantMsg: "Event not found",
		},
		{
			name:    "transport failure is generic",
			err:     &domain.ServiceError{Kind: domain.ErrTransport, Status: 500, Message: "pq: deadlock detected"},
			wantMsg: MsgFailed,
		},
		{
			name:    "network error",
			err:     errors.New("dial tcp: connection refused"),
			wantMsg: MsgFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := sessionAt(2)
			before := *st.Event
			reservations := &MockReservations{
				CreateReservationFunc: func(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error) {
					return nil, tt.err
				},
			}
			refresher := &MockRefresher{}
			journal := &MockJournal{}

			res, err := New(reservations, refresher, journal, nil).Submit(context.Background(), st, testUser)
			require.NoError(t, err)

			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Equal(t, domain.Submission{Phase: domain.PhaseFailed, Error: tt.wantMsg}, st.Submission)
			assert.Equal(t, 0, refresher.calls, "no re-fetch after a failure")
			assert.Equal(t, before.AvailableSeats, st.Event.AvailableSeats)
			assert.Equal(t, 2, st.Selection.Quantity)
			require.Len(t, journal.records, 1)
			assert.Equal(t, OutcomeFailed, journal.records[0].res.Outcome)
		})
	}
}

func TestSubmitter_Unauthenticated(t *testing.T) {
	st := sessionAt(2)
	reservations := &MockReservations{}
	journal := &MockJournal{}

	res, err := New(reservations, &MockRefresher{}, journal, nil).Submit(context.Background(), st, nil)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAuthenticationRequired, res.Outcome)
	assert.Equal(t, 0, reservations.calls)
	assert.Equal(t, domain.PhaseIdle, st.Submission.Phase)
	assert.Empty(t, journal.records)
}

func TestSubmitter_ExpiredTokenReturnsToIdle(t *testing.T) {
	st := sessionAt(1)
	reservations := &MockReservations{
		CreateReservationFunc: func(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error) {
			return nil, &domain.ServiceError{Kind: domain.ErrAuthenticationRequired, Status: 401}
		},
	}

	res, err := New(reservations, &MockRefresher{}, nil, nil).Submit(context.Background(), st, testUser)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAuthenticationRequired, res.Outcome)
	assert.Equal(t, domain.Submission{Phase: domain.PhaseIdle}, st.Submission)
}

func TestSubmitter_NothingToSubmit(t *testing.T) {
	t.Run("no event", func(t *testing.T) {
		st := session.New("s1", time.Now())
		reservations := &MockReservations{}

		_, err := New(reservations, &MockRefresher{}, nil, nil).Submit(context.Background(), st, testUser)

		assert.ErrorIs(t, err, ErrNoEvent)
		assert.Equal(t, 0, reservations.calls)
	})

	t.Run("quantity above availability", func(t *testing.T) {
		st := sessionAt(2)
		st.Event.TicketTypes[0].Available = 1
		reservations := &MockReservations{}

		_, err := New(reservations, &MockRefresher{}, nil, nil).Submit(context.Background(), st, testUser)

		assert.ErrorIs(t, err, ErrInvalidSelection)
		assert.Equal(t, 0, reservations.calls)
		assert.Equal(t, domain.PhaseIdle, st.Submission.Phase)
	})
}

func TestSubmitter_FailureThenRetry(t *testing.T) {
	st := sessionAt(1)
	fail := true
	reservations := &MockReservations{
		CreateReservationFunc: func(ctx context.Context, token string, req domain.ReservationRequest) (*domain.Reservation, error) {
			if fail {
				return nil, &domain.ServiceError{Kind: domain.ErrTransport, Status: 503}
			}
			return &domain.Reservation{ID: "B2"}, nil
		},
	}
	refresher := &MockRefresher{
		RefreshEventFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			return jazzEvent(49), nil
		},
	}
	s := New(reservations, refresher, nil, nil)

	_, err := s.Submit(context.Background(), st, testUser)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, st.Submission.Phase)

	fail = false
	res, err := s.Submit(context.Background(), st, testUser)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, domain.Submission{Phase: domain.PhaseSucceeded, Success: MsgConfirmed}, st.Submission)
}
