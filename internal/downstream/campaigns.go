package downstream

import (
	"context"

	"github.com/kafelog/kafelog-web/internal/domain"
)

const campaignsPath = "/api/campaigns"

type CampaignsAPI struct {
	client *Client
}

func NewCampaignsAPI(c *Client) *CampaignsAPI {
	return &CampaignsAPI{client: c}
}

func (a *CampaignsAPI) GetAll(ctx context.Context, f *CampaignFilters) (*domain.CampaignList, error) {
	return getData[*domain.CampaignList](ctx, a.client, campaignsPath, f.Values())
}

func (a *CampaignsAPI) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return getData[*domain.Campaign](ctx, a.client, resourcePath(campaignsPath, id), nil)
}

func (a *CampaignsAPI) GetByBusinessID(ctx context.Context, businessID string, f *CampaignFilters) (*domain.CampaignList, error) {
	return getData[*domain.CampaignList](ctx, a.client, resourcePath(campaignsPath, "business", businessID), f.Values())
}
