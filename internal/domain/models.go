package domain

import "time"

type BusinessStatus string

const (
	BusinessPending   BusinessStatus = "PENDING"
	BusinessApproved  BusinessStatus = "APPROVED"
	BusinessRejected  BusinessStatus = "REJECTED"
	BusinessSuspended BusinessStatus = "SUSPENDED"
)

func (s BusinessStatus) Valid() bool {
	switch s {
	case BusinessPending, BusinessApproved, BusinessRejected, BusinessSuspended:
		return true
	}
	return false
}

type CampaignType string

const (
	CampaignPromotion    CampaignType = "PROMOTION"
	CampaignEvent        CampaignType = "EVENT"
	CampaignAnnouncement CampaignType = "ANNOUNCEMENT"
)

func (t CampaignType) Valid() bool {
	switch t {
	case CampaignPromotion, CampaignEvent, CampaignAnnouncement:
		return true
	}
	return false
}

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignExpired   CampaignStatus = "EXPIRED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignExpired, CampaignCancelled:
		return true
	}
	return false
}

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type Address struct {
	City             string  `json:"city"`
	District         string  `json:"district"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
}

// HasCoordinates reports whether the address can be placed on a map.
func (a Address) HasCoordinates() bool {
	return a.Latitude != 0 || a.Longitude != 0
}

type Business struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AddressObj     Address        `json:"addressObj"`
	Phone          string         `json:"phone"`
	Amenities      []string       `json:"amenities"`
	AtmosphereTags []string       `json:"atmosphereTags"`
	Status         BusinessStatus `json:"status"`
	AverageRating  float64        `json:"averageRating"`
	ReviewCount    int            `json:"reviewCount"`
	IsOpenNow      bool           `json:"isOpenNow"`
}

type Campaign struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	CampaignType CampaignType   `json:"campaignType"`
	Status       CampaignStatus `json:"status"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	BusinessID   string         `json:"businessId"`
}

type Event struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	EventType       string      `json:"eventType"`
	EventDate       time.Time   `json:"eventDate"`
	DurationMinutes int         `json:"durationMinutes"`
	Capacity        int         `json:"capacity"`
	Attendees       int         `json:"attendees"`
	Price           float64     `json:"price"`
	IsFree          bool        `json:"isFree"`
	Status          EventStatus `json:"status"`
	BusinessID      string      `json:"businessId"`
}

// SpotsLeft is capacity minus attendees, never negative. The upstream does not
// guarantee attendees <= capacity.
func (e Event) SpotsLeft() int {
	if left := e.Capacity - e.Attendees; left > 0 {
		return left
	}
	return 0
}

type PaginationInfo struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type BusinessList struct {
	Businesses []Business     `json:"businesses"`
	Pagination PaginationInfo `json:"pagination"`
}

type CampaignList struct {
	Campaigns  []Campaign     `json:"campaigns"`
	Pagination PaginationInfo `json:"pagination"`
}

type EventList struct {
	Events     []Event        `json:"events"`
	Pagination PaginationInfo `json:"pagination"`
}

// Envelope is the wrapper every upstream API response uses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Details *struct {
		Message string `json:"message"`
	} `json:"details,omitempty"`
}

// FailureMessage picks the most specific message an envelope carries.
func (e Envelope[T]) FailureMessage() string {
	if e.Details != nil && e.Details.Message != "" {
		return e.Details.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Session is the authenticated user as resolved from the auth provider's access token.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DisplayName falls back to the email when no name was given at sign-up.
func (s *Session) DisplayName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Email
}

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}
