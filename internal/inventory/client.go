package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirinyoku/tix-bff/internal/domain"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Inventory & Booking Service. Every error it returns
// wraps one of the domain failure kinds.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type createReservationBody struct {
	EventID    string `json:"eventId"`
	TicketType string `json:"ticketType"`
	Quantity   int    `json:"quantity"`
}

// ListEvents fetches the catalog, passing only the facets that are set.
func (c *Client) ListEvents(ctx context.Context, f domain.FilterCriteria) ([]domain.Event, error) {
	const op = "inventory.Client.ListEvents"

	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}

	path := "/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var events []domain.Event
	if err := c.do(ctx, http.MethodGet, path, "", nil, &events); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
		}
	}

	return events, nil
}

// GetEvent fetches one event.
//
// Returns:
//   - error: domain.ErrNotFound if the service does not know the id.
func (c *Client) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	const op = "inventory.Client.GetEvent"

	var e domain.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), "", nil, &e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrTransport, err)
	}

	return &e, nil
}

// CreateReservation books req on behalf of the bearer token.
//
// Returns:
//   - error: domain.ErrValidation when quantity exceeds live availability.
//   - error: domain.ErrAuthenticationRequired when the token is missing or rejected.
func (c *Client) CreateReservation(
	ctx context.Context,
	token string,
	req domain.ReservationRequest,
) (*domain.Reservation, error) {
	const op = "inventory.Client.CreateReservation"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAuthenticationRequired)
	}

	body := createReservationBody{
		EventID:    req.EventID,
		TicketType: req.TicketTypeID,
		Quantity:   req.Quantity,
	}

	var r domain.Reservation
	if err := c.do(ctx, http.MethodPost, "/bookings", token, body, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &r, nil
}

// ListReservations returns the caller's reservations in the order the
// service delivers them.
func (c *Client) ListReservations(ctx context.Context, token string) ([]domain.Reservation, error) {
	const op = "inventory.Client.ListReservations"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAuthenticationRequired)
	}

	var out []domain.Reservation
	if err := c.do(ctx, http.MethodGet, "/bookings", token, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *Client) GetReservation(ctx context.Context, token, id string) (*domain.Reservation, error) {
	const op = "inventory.Client.GetReservation"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAuthenticationRequired)
	}

	var r domain.Reservation
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), token, nil, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &r, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	const op = "inventory.Client.ListCategories"

	var out []string
	if err := c.do(ctx, http.MethodGet, "/categories", "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *Client) ListCities(ctx context.Context) ([]string, error) {
	const op = "inventory.Client.ListCities"

	var out []string
	if err := c.do(ctx, http.MethodGet, "/cities", "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("inventory request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrTransport, err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &eb)

	msg := eb.Error
	if msg == "" {
		msg = eb.Message
	}

	se := &domain.ServiceError{Status: resp.StatusCode, Message: msg}

	switch resp.StatusCode {
	case http.StatusNotFound:
		se.Kind = domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		se.Kind = domain.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		se.Kind = domain.ErrAuthenticationRequired
	default:
		// 5xx bodies may leak internals; keep only the kind.
		se.Kind = domain.ErrTransport
		se.Message = ""
	}

	return se
}
