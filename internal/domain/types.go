package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTicketsPerBooking caps the quantity of a single reservation regardless
// of how many seats a tier still has.
const MaxTicketsPerBooking = 10

const dateLayout = "2006-01-02"

// Date is a calendar date. It decodes either "2006-01-02" or a full RFC3339
// timestamp, the two shapes the inventory service is known to send.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}

	return Date{Time: t.UTC()}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

type TicketType struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

type Event struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	City           string       `json:"city"`
	Venue          string       `json:"venue"`
	Date           Date         `json:"date"`
	Time           string       `json:"time"`
	Organizer      string       `json:"organizer"`
	Image          string       `json:"image"`
	TotalSeats     int          `json:"totalSeats"`
	AvailableSeats int          `json:"availableSeats"`
	TicketTypes    []TicketType `json:"ticketTypes"`
}

// Validate checks the seat-count invariants of an event snapshot.
func (e *Event) Validate() error {
	if e.TotalSeats < 0 || e.AvailableSeats < 0 {
		return fmt.Errorf("event %s: negative seat count", e.ID)
	}

	if e.AvailableSeats > e.TotalSeats {
		return fmt.Errorf("event %s: available seats %d exceed total %d", e.ID, e.AvailableSeats, e.TotalSeats)
	}

	sum := 0
	for _, t := range e.TicketTypes {
		if t.Available < 0 {
			return fmt.Errorf("event %s: tier %s has negative availability", e.ID, t.ID)
		}
		if t.Price < 0 {
			return fmt.Errorf("event %s: tier %s has negative price", e.ID, t.ID)
		}
		sum += t.Available
	}

	if sum > e.AvailableSeats {
		return fmt.Errorf("event %s: tiers offer %d seats, event has %d available", e.ID, sum, e.AvailableSeats)
	}

	return nil
}

// Tier returns the ticket type with the given id.
func (e *Event) Tier(id string) (TicketType, bool) {
	for _, t := range e.TicketTypes {
		if t.ID == id {
			return t, true
		}
	}
	return TicketType{}, false
}

// FilterCriteria is replaced as a whole on every edit. An empty field means
// the facet is unset.
type FilterCriteria struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	City     string `json:"city"`
}

func (c FilterCriteria) IsEmpty() bool {
	return c == FilterCriteria{}
}

// Selection is the chosen tier and quantity for the event being viewed.
type Selection struct {
	EventID  string `json:"eventId"`
	TierID   string `json:"tierId"`
	Quantity int    `json:"quantity"`
}

type ReservationRequest struct {
	EventID      string `json:"eventId"`
	TicketTypeID string `json:"ticketType"`
	Quantity     int    `json:"quantity"`
}

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationPending   ReservationStatus = "pending"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID          string            `json:"id"`
	EventID     string            `json:"eventId,omitempty"`
	EventTitle  string            `json:"eventTitle"`
	EventDate   Date              `json:"eventDate"`
	EventTime   string            `json:"eventTime"`
	Venue       string            `json:"venue"`
	TicketType  string            `json:"ticketType"`
	Quantity    int               `json:"quantity"`
	TotalAmount float64           `json:"totalAmount"`
	Status      ReservationStatus `json:"status"`
	BookingDate time.Time         `json:"bookingDate"`
}

type SubmissionPhase string

const (
	PhaseIdle       SubmissionPhase = "idle"
	PhaseSubmitting SubmissionPhase = "submitting"
	PhaseSucceeded  SubmissionPhase = "succeeded"
	PhaseFailed     SubmissionPhase = "failed"
)

// Submission is the lifecycle of the latest booking attempt. Error is only
// set in PhaseFailed and Success only in PhaseSucceeded.
type Submission struct {
	Phase   SubmissionPhase `json:"phase"`
	Error   string          `json:"error,omitempty"`
	Success string          `json:"success,omitempty"`
}

func (s Submission) Settled() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}

// Attempt is a journal row for one submission.
type Attempt struct {
	ID            uuid.UUID
	SessionID     string
	EventID       string
	TicketTypeID  string
	Quantity      int
	Outcome       string
	Message       string
	ReservationID string
	CreatedAt     time.Time
}
