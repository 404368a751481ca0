package downstream

import (
	"context"

	"github.com/kafelog/kafelog-web/internal/domain"
)

const eventsPath = "/api/events"

type EventsAPI struct {
	client *Client
}

func NewEventsAPI(c *Client) *EventsAPI {
	return &EventsAPI{client: c}
}

func (a *EventsAPI) GetAll(ctx context.Context, f *EventFilters) (*domain.EventList, error) {
	return getData[*domain.EventList](ctx, a.client, eventsPath, f.Values())
}

func (a *EventsAPI) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return getData[*domain.Event](ctx, a.client, resourcePath(eventsPath, id), nil)
}

func (a *EventsAPI) GetByBusinessID(ctx context.Context, businessID string, f *EventFilters) (*domain.EventList, error) {
	return getData[*domain.EventList](ctx, a.client, resourcePath(eventsPath, "business", businessID), f.Values())
}
