package downstream

import (
	"context"
	"net/url"
	"strings"

	"github.com/kafelog/kafelog-web/internal/domain"
)

const businessesPath = "/api/businesses"

// BusinessesAPI reads businesses through the authenticated transport.
type BusinessesAPI struct {
	client *Client
}

func NewBusinessesAPI(c *Client) *BusinessesAPI {
	return &BusinessesAPI{client: c}
}

func (a *BusinessesAPI) GetAll(ctx context.Context, f *BusinessFilters) (*domain.BusinessList, error) {
	return getData[*domain.BusinessList](ctx, a.client, businessesPath, f.Values())
}

func (a *BusinessesAPI) Search(ctx context.Context, f *BusinessSearchFilters) (*domain.BusinessList, error) {
	return getData[*domain.BusinessList](ctx, a.client, businessesPath+"/search", f.Values())
}

// GetByID fetches one business; include names related collections to embed.
func (a *BusinessesAPI) GetByID(ctx context.Context, id string, include []string) (*domain.Business, error) {
	q := url.Values{}
	if len(include) > 0 {
		q.Set("include", strings.Join(include, ","))
	}
	return getData[*domain.Business](ctx, a.client, resourcePath(businessesPath, id), q)
}

// GetMyBusinesses lists the businesses owned by the session user.
func (a *BusinessesAPI) GetMyBusinesses(ctx context.Context) ([]domain.Business, error) {
	data, err := getData[struct {
		Businesses []domain.Business `json:"businesses"`
	}](ctx, a.client, businessesPath+"/my-businesses", nil)
	if err != nil {
		return nil, err
	}
	if data.Businesses == nil {
		return []domain.Business{}, nil
	}
	return data.Businesses, nil
}
