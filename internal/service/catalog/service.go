package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/tix-bff/internal/domain"
	redisrepo "github.com/kirinyoku/tix-bff/internal/repository/redis"
	"github.com/kirinyoku/tix-bff/internal/service/selection"
	"github.com/kirinyoku/tix-bff/internal/session"
	"golang.org/x/sync/errgroup"
)

// Source is the read side of the inventory service.
type Source interface {
	ListEvents(ctx context.Context, f domain.FilterCriteria) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListCities(ctx context.Context) ([]string, error)
}

type Config struct {
	CatalogTTL time.Duration
	FacetsTTL  time.Duration
	EventTTL   time.Duration
}

type Service struct {
	src    Source
	cache  *redisrepo.Cache
	cfg    Config
	logger *slog.Logger
}

// New wires the catalog reads. cache may be nil, in which case every read
// goes to the inventory service.
func New(src Source, cache *redisrepo.Cache, cfg Config, logger *slog.Logger) *Service {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = 30 * time.Second
	}

	if cfg.FacetsTTL <= 0 {
		cfg.FacetsTTL = 5 * time.Minute
	}

	if cfg.EventTTL <= 0 {
		cfg.EventTTL = 15 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		src:    src,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Listing is one catalog load: every event plus the facet vocabularies.
type Listing struct {
	Events     []domain.Event
	Categories []string
	Cities     []string
}

// Load fetches events, categories and cities concurrently. The full event
// collection is fetched and filtering happens locally.
func (s *Service) Load(ctx context.Context) (*Listing, error) {
	const op = "service.catalog.Load"

	var l Listing

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := redisrepo.GetOrSetJSON(gCtx, s.cache, redisrepo.KeyCatalog(), s.cfg.CatalogTTL,
			func(ctx context.Context) ([]domain.Event, error) {
				return s.src.ListEvents(ctx, domain.FilterCriteria{})
			})
		l.Events = events
		return err
	})

	g.Go(func() error {
		categories, err := redisrepo.GetOrSetJSON(gCtx, s.cache, redisrepo.KeyCategories(), s.cfg.FacetsTTL,
			s.src.ListCategories)
		l.Categories = categories
		return err
	})

	g.Go(func() error {
		cities, err := redisrepo.GetOrSetJSON(gCtx, s.cache, redisrepo.KeyCities(), s.cfg.FacetsTTL,
			s.src.ListCities)
		l.Cities = cities
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &l, nil
}

// Event returns an event through the cache.
//
// Returns:
//   - error: domain.ErrNotFound if the inventory service does not know the id.
func (s *Service) Event(ctx context.Context, id string) (*domain.Event, error) {
	const op = "service.catalog.Event"

	e, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEvent(id), s.cfg.EventTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.src.GetEvent(ctx, id)
			if err != nil {
				return domain.Event{}, err
			}
			return *e, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &e, nil
}

// RefreshEvent drops cached copies and fetches the authoritative event.
func (s *Service) RefreshEvent(ctx context.Context, id string) (*domain.Event, error) {
	const op = "service.catalog.RefreshEvent"

	if err := s.cache.InvalidateEvent(ctx, id); err != nil {
		s.logger.Warn("cache invalidation failed", "op", op, "event_id", id, "error", err)
	}

	e, err := s.src.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

// Invalidate drops cached reads for an event changed elsewhere.
func (s *Service) Invalidate(ctx context.Context, eventID string) {
	if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.Warn("cache invalidation failed", "op", "service.catalog.Invalidate", "event_id", eventID, "error", err)
	}
}

// Card is a catalog entry with the lowest ticket price.
type Card struct {
	domain.Event
	LowestPrice float64 `json:"lowestPrice"`
}

// Browse is the state of the listing after a filter change.
type Browse struct {
	Filters    domain.FilterCriteria
	Events     []Card
	Categories []string
	Cities     []string
	// Stale is set when the reload failed and the previous catalog is shown.
	Stale bool
}

// Browse replaces the session's criteria with f, reloads the catalog and
// filters it. When the reload fails and the session already holds a catalog,
// that catalog is filtered instead and Stale is set. A failure on the very
// first load is returned.
func (s *Service) Browse(ctx context.Context, st *session.State, f domain.FilterCriteria) (*Browse, error) {
	const op = "service.catalog.Browse"

	st.Filters = f

	stale := false
	l, err := s.Load(ctx)
	switch {
	case err == nil:
		st.Catalog = l.Events
		st.Categories = l.Categories
		st.Cities = l.Cities
	case st.Catalog != nil:
		s.logger.Warn("catalog reload failed, keeping previous snapshot", "op", op, "error", err)
		stale = true
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Browse{
		Filters:    st.Filters,
		Events:     cards(Filter(st.Catalog, st.Filters)),
		Categories: st.Categories,
		Cities:     st.Cities,
		Stale:      stale,
	}, nil
}

// ClearFilters resets every facet at once and reloads the listing.
func (s *Service) ClearFilters(ctx context.Context, st *session.State) (*Browse, error) {
	st.ClearFilters()
	return s.Browse(ctx, st, st.Filters)
}

func cards(events []domain.Event) []Card {
	out := make([]Card, 0, len(events))
	for _, e := range events {
		// Events without tiers violate the inventory contract; show them at 0.
		lowest, _ := selection.LowestPrice(e.TicketTypes)
		out = append(out, Card{Event: e, LowestPrice: lowest})
	}
	return out
}

// Detail is the state of the event page.
type Detail struct {
	Event *domain.Event
	// Stale is set when the fetch failed and the previous snapshot is shown.
	Stale bool
}

// OpenEvent loads event id into the session and selects a tier. A not-found
// event is always returned as an error. A transient failure keeps the
// session's snapshot of the same event visible.
func (s *Service) OpenEvent(ctx context.Context, st *session.State, id string) (*Detail, error) {
	const op = "service.catalog.OpenEvent"

	e, err := s.Event(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && st.Event != nil && st.Event.ID == id {
			s.logger.Warn("event reload failed, keeping previous snapshot", "op", op, "event_id", id, "error", err)
			return &Detail{Event: st.Event, Stale: true}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st.ReplaceEvent(e)
	selection.New(st.Event, &st.Selection).Init()

	return &Detail{Event: st.Event}, nil
}
