package httpgin

import (
	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/format"
	"github.com/kirinyoku/tix-bff/internal/service/booking"
	"github.com/kirinyoku/tix-bff/internal/service/catalog"
	"github.com/kirinyoku/tix-bff/internal/service/history"
	"github.com/kirinyoku/tix-bff/internal/service/selection"
	"github.com/kirinyoku/tix-bff/internal/session"
)

type SelectTierRequest struct {
	TierID string `json:"tierId" binding:"required"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type CatalogResponse struct {
	Filters    domain.FilterCriteria `json:"filters"`
	Events     []catalog.Card        `json:"events"`
	Categories []string              `json:"categories"`
	Cities     []string              `json:"cities"`
	Stale      bool                  `json:"stale,omitempty"`
}

type SelectionView struct {
	TierID         string  `json:"tierId"`
	Quantity       int     `json:"quantity"`
	Max            int     `json:"max"`
	CanIncrement   bool    `json:"canIncrement"`
	CanDecrement   bool    `json:"canDecrement"`
	SoldOut        bool    `json:"soldOut"`
	Total          float64 `json:"total"`
	TotalFormatted string  `json:"totalFormatted"`
}

type EventView struct {
	Event         *domain.Event     `json:"event"`
	DateFormatted string            `json:"dateFormatted"`
	TimeFormatted string            `json:"timeFormatted"`
	Selection     SelectionView     `json:"selection"`
	Submission    domain.Submission `json:"submission"`
	Stale         bool              `json:"stale,omitempty"`
}

type QuantityResponse struct {
	Applied bool `json:"applied"`
	EventView
}

type BookingResponse struct {
	Outcome     booking.Outcome     `json:"outcome"`
	Reservation *domain.Reservation `json:"reservation,omitempty"`
	Reconciled  bool                `json:"reconciled"`
	Redirect    string              `json:"redirect,omitempty"`
	EventView
}

type BookingEntryView struct {
	history.Entry
	AmountFormatted      string `json:"amountFormatted"`
	EventDateFormatted   string `json:"eventDateFormatted"`
	EventTimeFormatted   string `json:"eventTimeFormatted"`
	BookingDateFormatted string `json:"bookingDateFormatted"`
}

type HistoryResponse struct {
	Bookings            []BookingEntryView `json:"bookings"`
	Count               int                `json:"count"`
	Upcoming            int                `json:"upcoming"`
	TotalSpent          float64            `json:"totalSpent"`
	TotalSpentFormatted string             `json:"totalSpentFormatted"`
	OrderVerified       bool               `json:"orderVerified"`
}

type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
}

type SessionResponse struct {
	ID         string                `json:"id"`
	Filters    domain.FilterCriteria `json:"filters"`
	Selection  domain.Selection      `json:"selection"`
	Submission domain.Submission     `json:"submission"`
}

type AttemptView struct {
	ID            string `json:"id"`
	EventID       string `json:"eventId"`
	TicketTypeID  string `json:"ticketType"`
	Quantity      int    `json:"quantity"`
	Outcome       string `json:"outcome"`
	ReservationID string `json:"reservationId,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// eventView renders the detail page state. inFlight overrides the stored
// phase while another request holds the submission lock.
func eventView(st *session.State, inFlight bool) EventView {
	v := EventView{
		Event:      st.Event,
		Submission: st.Submission,
	}

	if inFlight {
		v.Submission = domain.Submission{Phase: domain.PhaseSubmitting}
	}

	if st.Event == nil {
		return v
	}

	v.DateFormatted = format.LongDate(st.Event.Date.Time)
	v.TimeFormatted = format.ClockTime(st.Event.Time)

	sel := selection.New(st.Event, &st.Selection)
	total := sel.Total()
	v.Selection = SelectionView{
		TierID:         st.Selection.TierID,
		Quantity:       sel.Quantity(),
		Max:            sel.Max(),
		CanIncrement:   sel.CanIncrement(),
		CanDecrement:   sel.CanDecrement(),
		SoldOut:        sel.Max() < 1,
		Total:          total,
		TotalFormatted: format.Currency(total),
	}

	return v
}

func historyView(s *history.Summary) HistoryResponse {
	out := HistoryResponse{
		Bookings:            make([]BookingEntryView, 0, len(s.Bookings)),
		Count:               s.Count,
		Upcoming:            s.Upcoming,
		TotalSpent:          s.TotalSpent,
		TotalSpentFormatted: format.Currency(s.TotalSpent),
		OrderVerified:       s.OrderVerified,
	}

	for _, e := range s.Bookings {
		out.Bookings = append(out.Bookings, entryView(e))
	}

	return out
}

func entryView(e history.Entry) BookingEntryView {
	return BookingEntryView{
		Entry:                e,
		AmountFormatted:      format.Currency(e.TotalAmount),
		EventDateFormatted:   format.ShortDate(e.EventDate.Time),
		EventTimeFormatted:   format.ClockTime(e.EventTime),
		BookingDateFormatted: format.Timestamp(e.BookingDate),
	}
}

func attemptViews(as []domain.Attempt) []AttemptView {
	out := make([]AttemptView, 0, len(as))
	for _, a := range as {
		out = append(out, AttemptView{
			ID:            a.ID.String(),
			EventID:       a.EventID,
			TicketTypeID:  a.TicketTypeID,
			Quantity:      a.Quantity,
			Outcome:       a.Outcome,
			ReservationID: a.ReservationID,
			CreatedAt:     format.Timestamp(a.CreatedAt),
		})
	}
	return out
}
