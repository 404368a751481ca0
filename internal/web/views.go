package web

import (
	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/waitlist"
)

// Option is one entry of a filter bar.
type Option struct {
	Value  string
	Label  string
	Active bool
}

func Options(selected string, pairs ...[2]string) []Option {
	out := make([]Option, len(pairs))
	for i, p := range pairs {
		out[i] = Option{Value: p[0], Label: p[1], Active: p[0] == selected}
	}
	return out
}

type HomeView struct {
	Waitlist waitlist.FormView
	// Open keeps the dialog visible after a non-JS form post.
	Open bool
}

type CafesView struct {
	Query  string
	Modes  []Option
	Cafes  []domain.Business
	Failed bool
}

type CafeDetailView struct {
	Business        *domain.Business
	Campaigns       []domain.Campaign
	Events          []domain.Event
	CampaignsFailed bool
	EventsFailed    bool
}

type CampaignsView struct {
	Types     []Option
	Campaigns []domain.Campaign
	Failed    bool
}

type EventsView struct {
	Categories   []Option
	ShowFeatured bool
	Featured     []domain.Event
	Events       []domain.Event
	Failed       bool
}

type MapView struct {
	Markers []domain.Business
	Failed  bool
}

type ProfileView struct {
	Session    *domain.Session
	Businesses []domain.Business
	Failed     bool
}

type AuthView struct {
	Email     string
	FullName  string
	Error     string
	Success   bool
	OAuthPath string
}

type ErrorView struct {
	Status  int
	Heading string
	Message string
}
