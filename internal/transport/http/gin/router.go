package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/repository"
	redisrepo "github.com/kirinyoku/tix-bff/internal/repository/redis"
	"github.com/kirinyoku/tix-bff/internal/service"
	"github.com/kirinyoku/tix-bff/internal/service/booking"
	"github.com/kirinyoku/tix-bff/internal/service/catalog"
	"github.com/kirinyoku/tix-bff/internal/service/selection"
	"github.com/kirinyoku/tix-bff/internal/session"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	msgUnavailable    = "Service temporarily unavailable. Please try again."
	msgLoadEvents     = "Failed to load events"
	msgLoadEvent      = "Failed to load event details"
	msgLoadBookings   = "Failed to load bookings"
	msgEventNotFound  = "Event not found"
	msgBookingMissing = "Booking not found"
	msgAuthRequired   = "authentication required"
	msgInFlight       = "booking submission already in progress"
	loginRedirect     = "/login"
	bookingsRedirect  = "/bookings"
	submitLockTTL     = 60 * time.Second
	saveAttempts      = 3
	catalogCacheCtl   = "private, no-cache"
	rateLimitedPrefix = "too many booking attempts"
)

type SessionStore interface {
	Load(ctx context.Context, id string) (*session.State, error)
	Save(ctx context.Context, st *session.State) error
}

// IdempotencyStore provides the submission lock and Idempotency-Key replay.
type IdempotencyStore interface {
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	GetResult(ctx context.Context, key string) (string, bool, error)
	IsLocked(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Limiter interface {
	Allow(ctx context.Context, id string) (redisrepo.Decision, error)
}

type AttemptLister interface {
	List(ctx context.Context, sessionID string) ([]domain.Attempt, error)
}

// Deps are the stores the handlers need besides the services. Limiter and
// Attempts may be nil.
type Deps struct {
	Sessions     SessionStore
	Idempotency  IdempotencyStore
	Limiter      Limiter
	Attempts     AttemptLister
	Clock        clock.Clock
	CORSOrigins  []string
	SecureCookie bool
	SessionTTL   time.Duration
}

type handler struct {
	svcs   *service.Services
	deps   Deps
	logger *slog.Logger
}

func NewRouter(
	svcs *service.Services,
	deps Deps,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	h := &handler{svcs: svcs, deps: deps, logger: logger}

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger))
	if len(deps.CORSOrigins) > 0 {
		r.Use(CORS(deps.CORSOrigins))
	}
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api",
		SessionMiddleware(deps.Sessions, deps.Clock, deps.SecureCookie, deps.SessionTTL),
		AuthMiddleware(svcs.Identity),
	)
	{
		api.GET("/me", h.me)
		api.GET("/session", h.getSession)
		api.GET("/session/attempts", h.listAttempts)

		api.GET("/catalog", h.browse)
		api.DELETE("/catalog/filters", h.clearFilters)

		api.GET("/events/:id", h.openEvent)

		api.PUT("/selection/tier", h.selectTier)
		api.POST("/selection/quantity", h.changeQuantity)

		api.POST("/bookings", h.submitBooking)
		api.GET("/bookings", h.listBookings)
		api.GET("/bookings/:id", h.getBooking)
	}

	return r
}

// @Summary  Current user
// @Success  200  {object}  MeResponse
// @Router   /api/me [get]
func (h *handler) me(c *gin.Context) {
	u := userFrom(c)
	if u == nil {
		c.JSON(http.StatusOK, MeResponse{})
		return
	}
	c.JSON(http.StatusOK, MeResponse{Authenticated: true, Name: u.DisplayName})
}

// @Summary  Session state
// @Success  200  {object}  SessionResponse
// @Router   /api/session [get]
func (h *handler) getSession(c *gin.Context) {
	st := sessionFrom(c)

	sub := st.Submission
	if h.inFlight(c, st) {
		sub = domain.Submission{Phase: domain.PhaseSubmitting}
	}

	c.JSON(http.StatusOK, SessionResponse{
		ID:         st.ID,
		Filters:    st.Filters,
		Selection:  st.Selection,
		Submission: sub,
	})
}

// @Summary  Booking attempts of this session
// @Success  200  {array}  AttemptView
// @Router   /api/session/attempts [get]
func (h *handler) listAttempts(c *gin.Context) {
	if h.deps.Attempts == nil {
		c.JSON(http.StatusOK, []AttemptView{})
		return
	}

	as, err := h.deps.Attempts.List(c.Request.Context(), sessionFrom(c).ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
		return
	}

	c.JSON(http.StatusOK, attemptViews(as))
}

// @Summary  Browse the catalog
// @Param    search    query  string  false  "matches title or description"
// @Param    category  query  string  false  "exact category"
// @Param    city      query  string  false  "city substring"
// @Success  200  {object}  CatalogResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /api/catalog [get]
func (h *handler) browse(c *gin.Context) {
	h.browseWith(c, domain.FilterCriteria{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		City:     c.Query("city"),
	})
}

// @Summary  Clear every filter
// @Success  200  {object}  CatalogResponse
// @Router   /api/catalog/filters [delete]
func (h *handler) clearFilters(c *gin.Context) {
	st := sessionFrom(c)
	h.writeBrowse(c, st, func() (*catalog.Browse, error) {
		return h.svcs.Catalog.ClearFilters(c.Request.Context(), st)
	})
}

func (h *handler) browseWith(c *gin.Context, f domain.FilterCriteria) {
	st := sessionFrom(c)
	h.writeBrowse(c, st, func() (*catalog.Browse, error) {
		return h.svcs.Catalog.Browse(c.Request.Context(), st, f)
	})
}

func (h *handler) writeBrowse(c *gin.Context, st *session.State, load func() (*catalog.Browse, error)) {
	b, err := load()
	if err != nil {
		respondErr(c, err, msgEventNotFound, msgLoadEvents)
		return
	}

	if _, ok := h.save(c, st, func(latest *session.State) { latest.MergeCatalog(st) }); !ok {
		return
	}

	writeJSONWithCache(c, http.StatusOK, CatalogResponse{
		Filters:    b.Filters,
		Events:     b.Events,
		Categories: b.Categories,
		Cities:     b.Cities,
		Stale:      b.Stale,
	}, catalogCacheCtl, true)
}

// @Summary  Open an event
// @Param    id  path  string  true  "Event ID"
// @Success  200  {object}  EventView
// @Failure  404  {object}  ErrorResponse
// @Router   /api/events/{id} [get]
func (h *handler) openEvent(c *gin.Context) {
	st := sessionFrom(c)

	d, err := h.svcs.Catalog.OpenEvent(c.Request.Context(), st, c.Param("id"))
	if err != nil {
		respondErr(c, err, msgEventNotFound, msgLoadEvent)
		return
	}

	saved, ok := h.save(c, st, func(latest *session.State) { latest.MergeEvent(st) })
	if !ok {
		return
	}

	v := eventView(saved, h.inFlight(c, saved))
	v.Stale = d.Stale
	c.JSON(http.StatusOK, v)
}

// @Summary  Select a ticket tier
// @Param    req  body  SelectTierRequest  true  "payload"
// @Success  200  {object}  EventView
// @Failure  422  {object}  ErrorResponse
// @Router   /api/selection/tier [put]
func (h *handler) selectTier(c *gin.Context) {
	var req SelectTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	st := sessionFrom(c)
	if st.Event == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrNoEvent.Error()})
		return
	}

	sel := selection.New(st.Event, &st.Selection)
	if !sel.HasTier(req.TierID) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "unknown ticket type"})
		return
	}
	sel.SelectTier(req.TierID)

	saved, ok := h.save(c, st, func(latest *session.State) {
		if latest.Event != nil && latest.Event.ID == st.Event.ID {
			if s := selection.New(latest.Event, &latest.Selection); s.HasTier(req.TierID) {
				s.SelectTier(req.TierID)
			}
		}
	})
	if !ok {
		return
	}

	c.JSON(http.StatusOK, eventView(saved, h.inFlight(c, saved)))
}

// @Summary  Change ticket quantity
// @Param    req  body  ChangeQuantityRequest  true  "payload"
// @Success  200  {object}  QuantityResponse
// @Router   /api/selection/quantity [post]
func (h *handler) changeQuantity(c *gin.Context) {
	var req ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	st := sessionFrom(c)
	if st.Event == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrNoEvent.Error()})
		return
	}

	applied := selection.New(st.Event, &st.Selection).ChangeQuantity(req.Delta)
	if applied {
		saved, ok := h.save(c, st, func(latest *session.State) {
			if latest.Event != nil && latest.Event.ID == st.Event.ID {
				selection.New(latest.Event, &latest.Selection).ChangeQuantity(req.Delta)
			}
		})
		if !ok {
			return
		}
		st = saved
	}

	c.JSON(http.StatusOK, QuantityResponse{
		Applied:   applied,
		EventView: eventView(st, h.inFlight(c, st)),
	})
}

// @Summary  Submit the current selection as a reservation
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  BookingResponse
// @Failure  401  {object}  ErrorResponse  "authentication required"
// @Failure  409  {object}  BookingResponse "rejected by the inventory service / in flight"
// @Failure  422  {object}  ErrorResponse  "selection not bookable"
// @Failure  429  {object}  ErrorResponse
// @Router   /api/bookings [post]
func (h *handler) submitBooking(c *gin.Context) {
	ctx := c.Request.Context()
	st := sessionFrom(c)
	user := userFrom(c)

	if user == nil {
		authRequired(c)
		return
	}

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	var idemStorageKey string
	if idemKey != "" {
		idemStorageKey = redisrepo.KeyIdemBooking(st.ID, idemKey)
		payload, ok, err := h.deps.Idempotency.GetResult(ctx, idemStorageKey)
		if err != nil {
			h.logger.Warn("idempotency lookup failed", "session_id", st.ID, "error", err)
		} else if ok {
			c.Header("Idempotency-Key", idemKey)
			c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
			return
		}
	}

	if h.deps.Limiter != nil {
		d, err := h.deps.Limiter.Allow(ctx, "session:"+st.ID)
		if err != nil {
			h.logger.Warn("rate limiter unavailable", "error", err)
		} else if !d.Allowed {
			c.Header("Retry-After", d.RetryAfterHeader())
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: rateLimitedPrefix})
			return
		}
	}

	lockKey := redisrepo.KeySubmitLock(st.ID)
	locked, err := h.deps.Idempotency.AcquireLock(ctx, lockKey, submitLockTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
		return
	}
	if !locked {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgInFlight})
		return
	}
	defer func() {
		// The request context may already be gone; the lock must still go.
		if err := h.deps.Idempotency.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			h.logger.Warn("release submission lock failed", "session_id", st.ID, "error", err)
		}
	}()

	res, err := h.svcs.Booking.Submit(ctx, st, user)
	if err != nil {
		respondErr(c, err, msgEventNotFound, msgUnavailable)
		return
	}

	saved, ok := h.save(c, st, func(latest *session.State) { latest.MergeSubmission(st) })
	if !ok {
		return
	}

	if res.Outcome == booking.OutcomeAuthenticationRequired {
		authRequired(c)
		return
	}

	resp := BookingResponse{
		Outcome:     res.Outcome,
		Reservation: res.Reservation,
		Reconciled:  res.Reconciled,
		EventView:   eventView(saved, false),
	}

	if res.Outcome == booking.OutcomeFailed {
		c.JSON(failureStatus(res.Err), resp)
		return
	}

	resp.Redirect = bookingsRedirect

	if idemStorageKey != "" {
		b, err := json.Marshal(resp)
		if err == nil {
			err = h.deps.Idempotency.SaveResult(ctx, idemStorageKey, string(b))
		}
		if err != nil {
			h.logger.Warn("store idempotent result failed", "session_id", st.ID, "error", err)
		}
		c.Header("Idempotency-Key", idemKey)
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary  Booking history of the current user
// @Success  200  {object}  HistoryResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /api/bookings [get]
func (h *handler) listBookings(c *gin.Context) {
	user := userFrom(c)
	if user == nil {
		authRequired(c)
		return
	}

	s, err := h.svcs.History.Summary(c.Request.Context(), user)
	if err != nil {
		respondErr(c, err, msgBookingMissing, msgLoadBookings)
		return
	}

	c.JSON(http.StatusOK, historyView(s))
}

// @Summary  One booking of the current user
// @Param    id  path  string  true  "Booking ID"
// @Success  200  {object}  BookingEntryView
// @Failure  404  {object}  ErrorResponse
// @Router   /api/bookings/{id} [get]
func (h *handler) getBooking(c *gin.Context) {
	user := userFrom(c)
	if user == nil {
		authRequired(c)
		return
	}

	e, err := h.svcs.History.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondErr(c, err, msgBookingMissing, msgLoadBookings)
		return
	}

	c.JSON(http.StatusOK, entryView(*e))
}

// --- Helpers ---

// save persists st. When another request of the session saved first, the
// stored copy is reloaded and merge reapplies this request's change to it.
// It returns the state that was written.
func (h *handler) save(c *gin.Context, st *session.State, merge func(latest *session.State)) (*session.State, bool) {
	ctx := c.Request.Context()

	for attempt := 1; ; attempt++ {
		err := h.deps.Sessions.Save(ctx, st)
		if err == nil {
			return st, true
		}

		if errors.Is(err, repository.ErrConflict) && attempt < saveAttempts {
			latest, lerr := h.deps.Sessions.Load(ctx, st.ID)
			if lerr == nil {
				h.logger.Debug("session saved concurrently, merging", "session_id", st.ID, "attempt", attempt)
				merge(latest)
				st = latest
				continue
			}
			err = lerr
		}

		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
		return nil, false
	}
}

// inFlight reports whether another request is submitting for this session.
func (h *handler) inFlight(c *gin.Context, st *session.State) bool {
	locked, err := h.deps.Idempotency.IsLocked(c.Request.Context(), redisrepo.KeySubmitLock(st.ID))
	return err == nil && locked
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func authRequired(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: msgAuthRequired, Redirect: loginRedirect})
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// respondErr maps a service error to a response. notFoundMsg and
// transportMsg name what the caller was loading; raw errors never reach the
// body.
func respondErr(c *gin.Context, err error, notFoundMsg, transportMsg string) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundMsg})
	case errors.Is(err, domain.ErrAuthenticationRequired):
		authRequired(c)
	case errors.Is(err, domain.ErrValidation):
		msg, ok := domain.ServerMessage(err)
		if !ok {
			msg = booking.MsgFailed
		}
		c.JSON(http.StatusConflict, ErrorResponse{Error: msg})
	case errors.Is(err, booking.ErrNoEvent):
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrNoEvent.Error()})
	case errors.Is(err, booking.ErrInvalidSelection):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: booking.ErrInvalidSelection.Error()})
	case errors.Is(err, domain.ErrTransport):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: transportMsg})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: transportMsg})
	}
}
