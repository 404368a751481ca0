// Package queries binds the upstream resource APIs to the shared query cache.
// Each binding fixes the cache key, the stale time and when the query may run.
package queries

import (
	"context"
	"time"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/querycache"
	"github.com/kafelog/kafelog-web/middleware"
)

const (
	businessStaleTime = 5 * time.Minute
	searchStaleTime   = 2 * time.Minute
	listStaleTime     = 3 * time.Minute
	detailStaleTime   = 5 * time.Minute

	anonymousUser = "anon"
)

type BusinessReader interface {
	GetAll(ctx context.Context, f *downstream.BusinessFilters) (*domain.BusinessList, error)
	Search(ctx context.Context, f *downstream.BusinessSearchFilters) (*domain.BusinessList, error)
	GetByID(ctx context.Context, id string, include []string) (*domain.Business, error)
	GetMyBusinesses(ctx context.Context) ([]domain.Business, error)
}

type CampaignReader interface {
	GetAll(ctx context.Context, f *downstream.CampaignFilters) (*domain.CampaignList, error)
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	GetByBusinessID(ctx context.Context, businessID string, f *downstream.CampaignFilters) (*domain.CampaignList, error)
}

type EventReader interface {
	GetAll(ctx context.Context, f *downstream.EventFilters) (*domain.EventList, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetByBusinessID(ctx context.Context, businessID string, f *downstream.EventFilters) (*domain.EventList, error)
}

type Service struct {
	cache      *querycache.Client
	businesses BusinessReader
	campaigns  CampaignReader
	events     EventReader
}

func New(cache *querycache.Client, b BusinessReader, c CampaignReader, e EventReader) *Service {
	return &Service{cache: cache, businesses: b, campaigns: c, events: e}
}

// Business reads go through the authenticated transport, so their keys carry
// the caller's user id.
func userScope(ctx context.Context) string {
	if id := middleware.GetUserID(ctx); id != "" {
		return id
	}
	return anonymousUser
}

func hasSession(ctx context.Context) bool {
	s := middleware.GetSession(ctx)
	return s != nil && s.AccessToken != ""
}

func always() bool { return true }

func run[T any](ctx context.Context, c *querycache.Client, resource string, stale time.Duration, enabled func() bool, fn func(context.Context) (T, error), keyParts ...any) querycache.Result[T] {
	key, err := querycache.Key(keyParts...)
	if err != nil {
		return querycache.Result[T]{Status: querycache.StatusError, Err: err}
	}
	return querycache.Fetch(ctx, c, querycache.Query[T]{
		Resource:  resource,
		Key:       key,
		Fn:        fn,
		StaleTime: stale,
		Enabled:   enabled,
	})
}

func (s *Service) Businesses(ctx context.Context, f *downstream.BusinessFilters) querycache.Result[*domain.BusinessList] {
	return run(ctx, s.cache, "businesses", businessStaleTime, always,
		func(ctx context.Context) (*domain.BusinessList, error) { return s.businesses.GetAll(ctx, f) },
		"businesses", userScope(ctx), f)
}

// BusinessSearch stays idle until the filters name something to search for.
func (s *Service) BusinessSearch(ctx context.Context, f *downstream.BusinessSearchFilters) querycache.Result[*domain.BusinessList] {
	return run(ctx, s.cache, "businesses", searchStaleTime, f.HasCriteria,
		func(ctx context.Context) (*domain.BusinessList, error) { return s.businesses.Search(ctx, f) },
		"businesses", "search", userScope(ctx), f)
}

func (s *Service) BusinessByID(ctx context.Context, id string, include []string) querycache.Result[*domain.Business] {
	return run(ctx, s.cache, "businesses", detailStaleTime, func() bool { return id != "" },
		func(ctx context.Context) (*domain.Business, error) { return s.businesses.GetByID(ctx, id, include) },
		"businesses", userScope(ctx), id, include)
}

func (s *Service) MyBusinesses(ctx context.Context) querycache.Result[[]domain.Business] {
	return run(ctx, s.cache, "businesses", businessStaleTime, func() bool { return hasSession(ctx) },
		s.businesses.GetMyBusinesses,
		"businesses", "my-businesses", userScope(ctx))
}

func (s *Service) Campaigns(ctx context.Context, f *downstream.CampaignFilters) querycache.Result[*domain.CampaignList] {
	return run(ctx, s.cache, "campaigns", listStaleTime, always,
		func(ctx context.Context) (*domain.CampaignList, error) { return s.campaigns.GetAll(ctx, f) },
		"campaigns", f)
}

func (s *Service) CampaignByID(ctx context.Context, id string) querycache.Result[*domain.Campaign] {
	return run(ctx, s.cache, "campaigns", detailStaleTime, func() bool { return id != "" },
		func(ctx context.Context) (*domain.Campaign, error) { return s.campaigns.GetByID(ctx, id) },
		"campaigns", id)
}

func (s *Service) BusinessCampaigns(ctx context.Context, businessID string, f *downstream.CampaignFilters) querycache.Result[*domain.CampaignList] {
	return run(ctx, s.cache, "campaigns", listStaleTime, func() bool { return businessID != "" },
		func(ctx context.Context) (*domain.CampaignList, error) {
			return s.campaigns.GetByBusinessID(ctx, businessID, f)
		},
		"campaigns", "business", businessID, f)
}

func (s *Service) Events(ctx context.Context, f *downstream.EventFilters) querycache.Result[*domain.EventList] {
	return run(ctx, s.cache, "events", listStaleTime, always,
		func(ctx context.Context) (*domain.EventList, error) { return s.events.GetAll(ctx, f) },
		"events", f)
}

func (s *Service) EventByID(ctx context.Context, id string) querycache.Result[*domain.Event] {
	return run(ctx, s.cache, "events", detailStaleTime, func() bool { return id != "" },
		func(ctx context.Context) (*domain.Event, error) { return s.events.GetByID(ctx, id) },
		"events", id)
}

func (s *Service) BusinessEvents(ctx context.Context, businessID string, f *downstream.EventFilters) querycache.Result[*domain.EventList] {
	return run(ctx, s.cache, "events", listStaleTime, func() bool { return businessID != "" },
		func(ctx context.Context) (*domain.EventList, error) {
			return s.events.GetByBusinessID(ctx, businessID, f)
		},
		"events", "business", businessID, f)
}
