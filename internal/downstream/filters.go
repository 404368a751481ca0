package downstream

import (
	"net/url"
	"strconv"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// Filters are sent as query parameters under the names the API defines.
// Zero values are omitted; nothing else is renamed or dropped.

type BusinessFilters struct {
	Status domain.BusinessStatus `json:"status,omitempty"`
	Page   int                   `json:"page,omitempty"`
	Limit  int                   `json:"limit,omitempty"`
}

func (f *BusinessFilters) Values() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	setString(v, "status", string(f.Status))
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

type BusinessSearchFilters struct {
	BusinessFilters
	Search string `json:"search,omitempty"`
	City   string `json:"city,omitempty"`
	Tags   string `json:"tags,omitempty"`
}

func (f *BusinessSearchFilters) Values() url.Values {
	if f == nil {
		return url.Values{}
	}
	v := f.BusinessFilters.Values()
	setString(v, "search", f.Search)
	setString(v, "city", f.City)
	setString(v, "tags", f.Tags)
	return v
}

// HasCriteria reports whether a search has anything to search for.
func (f *BusinessSearchFilters) HasCriteria() bool {
	return f != nil && (f.Search != "" || f.City != "" || f.Tags != "")
}

type CampaignFilters struct {
	Status domain.CampaignStatus `json:"status,omitempty"`
	Type   domain.CampaignType   `json:"type,omitempty"`
	Page   int                   `json:"page,omitempty"`
	Limit  int                   `json:"limit,omitempty"`
}

func (f *CampaignFilters) Values() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	setString(v, "status", string(f.Status))
	setString(v, "type", string(f.Type))
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

type EventFilters struct {
	Status    domain.EventStatus `json:"status,omitempty"`
	EventType string             `json:"eventType,omitempty"`
	IsFree    *bool              `json:"isFree,omitempty"`
	Page      int                `json:"page,omitempty"`
	Limit     int                `json:"limit,omitempty"`
}

func (f *EventFilters) Values() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	setString(v, "status", string(f.Status))
	setString(v, "eventType", f.EventType)
	if f.IsFree != nil {
		v.Set("isFree", strconv.FormatBool(*f.IsFree))
	}
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val != 0 {
		v.Set(key, strconv.Itoa(val))
	}
}
