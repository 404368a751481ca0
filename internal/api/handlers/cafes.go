package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/queries"
	"github.com/kafelog/kafelog-web/internal/querycache"
)

// errCafeNotListed hides businesses that are not approved for public listing.
var errCafeNotListed = fmt.Errorf("%w: cafe is not approved", downstream.ErrNotFound)

// cafeBundle is one cafe with its active campaigns and upcoming events.
type cafeBundle struct {
	business  querycache.Result[*domain.Business]
	campaigns querycache.Result[*domain.CampaignList]
	events    querycache.Result[*domain.EventList]
}

// loadCafe runs the three cafe queries concurrently. Each result carries its
// own error; a failed side list does not fail the cafe. A business that is not
// approved is reported as not found.
func loadCafe(ctx context.Context, q *queries.Service, id string) cafeBundle {
	var b cafeBundle
	var g errgroup.Group
	g.Go(func() error {
		b.business = q.BusinessByID(ctx, id, nil)
		return nil
	})
	g.Go(func() error {
		b.campaigns = q.BusinessCampaigns(ctx, id, &downstream.CampaignFilters{Status: domain.CampaignActive})
		return nil
	})
	g.Go(func() error {
		b.events = q.BusinessEvents(ctx, id, &downstream.EventFilters{Status: domain.EventUpcoming})
		return nil
	})
	_ = g.Wait()

	if b.business.IsSuccess() && (b.business.Data == nil || b.business.Data.Status != domain.BusinessApproved) {
		b.business = querycache.Result[*domain.Business]{Status: querycache.StatusError, Err: errCafeNotListed}
	}
	return b
}

func (b cafeBundle) campaignList() []domain.Campaign {
	if b.campaigns.Data == nil {
		return []domain.Campaign{}
	}
	return b.campaigns.Data.Campaigns
}

func (b cafeBundle) eventList() []domain.Event {
	if b.events.Data == nil {
		return []domain.Event{}
	}
	return b.events.Data.Events
}

type CafeHandler struct {
	queries *queries.Service
}

func NewCafeHandler(q *queries.Service) *CafeHandler {
	return &CafeHandler{queries: q}
}

type CafeViewResponse struct {
	Business  *domain.Business  `json:"business"`
	Campaigns []domain.Campaign `json:"campaigns"`
	Events    []domain.Event    `json:"events"`
	Degraded  *DegradedInfo     `json:"degraded,omitempty"`
}

// DegradedInfo names the side lists that could not be loaded.
type DegradedInfo struct {
	Campaigns string `json:"campaigns,omitempty"`
	Events    string `json:"events,omitempty"`
}

// GetCafeView aggregates a cafe page for API clients.
func (h *CafeHandler) GetCafeView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		sendError(w, r, "validation_failed", "invalid cafe id", http.StatusBadRequest)
		return
	}

	b := loadCafe(r.Context(), h.queries, id)
	if b.business.IsError() {
		if errors.Is(b.business.Err, downstream.ErrNotFound) {
			sendError(w, r, "resource_not_found", "cafe not found", http.StatusNotFound)
			return
		}
		handleDownstreamError(w, r, b.business.Err, "failed to fetch cafe")
		return
	}

	resp := CafeViewResponse{
		Business:  withEmptyTags(b.business.Data),
		Campaigns: b.campaignList(),
		Events:    b.eventList(),
	}
	if b.campaigns.IsError() || b.events.IsError() {
		resp.Degraded = &DegradedInfo{
			Campaigns: degradedReason(b.campaigns.Err),
			Events:    degradedReason(b.events.Err),
		}
	}

	render.JSON(w, r, resp)
}

// withEmptyTags copies the business so cached data is never mutated.
func withEmptyTags(b *domain.Business) *domain.Business {
	out := *b
	if out.Amenities == nil {
		out.Amenities = []string{}
	}
	if out.AtmosphereTags == nil {
		out.AtmosphereTags = []string{}
	}
	return &out
}

func degradedReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, downstream.ErrTimeout):
		return "timeout"
	default:
		return "unavailable"
	}
}
