package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/filter"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/queries"
	"github.com/kafelog/kafelog-web/internal/querycache"
	"github.com/kafelog/kafelog-web/internal/waitlist"
	"github.com/kafelog/kafelog-web/internal/web"
	"github.com/kafelog/kafelog-web/middleware"
)

const (
	featuredEvents = 3
	// maxCafeIndexes bounds the memo of folded indexes, one per session scope.
	maxCafeIndexes = 128
)

var (
	approvedBusinesses = downstream.BusinessFilters{Status: domain.BusinessApproved, Page: 1, Limit: 50}

	cafeModes = [][2]string{
		{string(filter.ModeAll), "Tümü"},
		{string(filter.ModeOpen), "Açık"},
		{string(filter.ModeNearby), "Yakın"},
	}
	campaignTypes = [][2]string{
		{filter.All, "Tümü"},
		{string(domain.CampaignPromotion), web.CampaignTypeLabel(domain.CampaignPromotion)},
		{string(domain.CampaignEvent), web.CampaignTypeLabel(domain.CampaignEvent)},
		{string(domain.CampaignAnnouncement), web.CampaignTypeLabel(domain.CampaignAnnouncement)},
	}
	eventCategories = [][2]string{
		{filter.All, "Tümü"},
		{"workshop", web.EventTypeLabel("workshop")},
		{"music", web.EventTypeLabel("music")},
		{"tasting", web.EventTypeLabel("tasting")},
		{"social", web.EventTypeLabel("social")},
		{"art", web.EventTypeLabel("art")},
	}
)

type pageRenderer struct {
	views *web.Renderer
}

// PageHandler serves the server-rendered site.
type PageHandler struct {
	pageRenderer
	queries  *queries.Service
	waitlist WaitlistJoiner

	indexMu    sync.Mutex
	indexes    map[string]cafeIndexEntry
	indexOrder *querycache.LRU
}

type cafeIndexEntry struct {
	fetchedAt time.Time
	index     *filter.CafeIndex
}

func NewPageHandler(views *web.Renderer, q *queries.Service, wl WaitlistJoiner) *PageHandler {
	return &PageHandler{
		pageRenderer: pageRenderer{views: views},
		queries:      q,
		waitlist:     wl,
		indexes:      make(map[string]cafeIndexEntry),
		indexOrder:   querycache.NewLRU(),
	}
}

func (h pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, name, title, nav string, data any) {
	p := web.Page{
		Title:   title,
		Nav:     nav,
		Session: middleware.GetSession(r.Context()),
		Data:    data,
	}
	if err := h.views.Render(w, status, name, p); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("page render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h pageRenderer) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	h.render(w, r, status, "error", heading, "", web.ErrorView{
		Status:  status,
		Heading: heading,
		Message: message,
	})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Sayfa bulunamadı", "Aradığınız sayfa mevcut değil veya taşınmış olabilir.")
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", "KafeLog", "home", web.HomeView{
		Waitlist: waitlist.FormView{Status: waitlist.StatusIdle},
		Open:     r.URL.Query().Get("waitlist") == "open",
	})
}

// JoinWaitlist is the form post from the home page dialog.
func (h *PageHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Geçersiz istek", "Form okunamadı.")
		return
	}

	form := waitlist.NewForm(waitlist.SubmitFunc(h.waitlist.Join))
	form.SetEmail(r.PostForm.Get("email"))

	status := http.StatusOK
	if err := form.Submit(r.Context()); err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, waitlist.ErrInvalidEmail) {
			status = http.StatusBadRequest
		}
	}

	h.render(w, r, status, "home", "KafeLog", "home", web.HomeView{
		Waitlist: form.View(),
		Open:     true,
	})
}

func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", "Hakkımızda", "about", nil)
}

func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", "İletişim", "contact", nil)
}

// cafeIndex reuses the folded index while the underlying collection is unchanged.
// Once maxCafeIndexes scopes are held the least recently used one is dropped.
func (h *PageHandler) cafeIndex(ctx context.Context, res querycache.Result[*domain.BusinessList]) *filter.CafeIndex {
	scope := middleware.GetUserID(ctx)

	h.indexMu.Lock()
	defer h.indexMu.Unlock()
	if e, ok := h.indexes[scope]; ok && e.fetchedAt.Equal(res.FetchedAt) {
		h.indexOrder.Accessed(scope)
		return e.index
	}

	var list []domain.Business
	if res.Data != nil {
		list = res.Data.Businesses
	}
	idx := filter.NewCafeIndex(list)
	if _, ok := h.indexes[scope]; !ok {
		for len(h.indexes) >= maxCafeIndexes {
			victim, ok := h.indexOrder.Victim()
			if !ok {
				break
			}
			delete(h.indexes, victim)
			h.indexOrder.Removed(victim)
		}
	}
	h.indexes[scope] = cafeIndexEntry{fetchedAt: res.FetchedAt, index: idx}
	h.indexOrder.Added(scope)
	return idx
}

func (h *PageHandler) Cafes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := filter.CafeQuery{
		Search: q.Get("q"),
		Mode:   filter.ParseCafeMode(q.Get("filter")),
	}

	f := approvedBusinesses
	res := h.queries.Businesses(r.Context(), &f)

	view := web.CafesView{
		Query: query.Search,
		Modes: web.Options(string(query.Mode), cafeModes...),
	}
	if res.IsError() {
		view.Failed = true
	} else {
		view.Cafes = h.cafeIndex(r.Context(), res).Filter(query)
	}
	h.render(w, r, http.StatusOK, "cafes", "Kafeler", "cafes", view)
}

func (h *PageHandler) Cafe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b := loadCafe(r.Context(), h.queries, id)
	if !b.business.IsSuccess() {
		if b.business.Status == querycache.StatusIdle || errors.Is(b.business.Err, downstream.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.renderError(w, r, http.StatusBadGateway, "Bir hata oluştu", "Kafe bilgileri yüklenirken bir sorun oluştu. Lütfen daha sonra tekrar deneyin.")
		return
	}

	h.render(w, r, http.StatusOK, "cafe", b.business.Data.Name, "cafes", web.CafeDetailView{
		Business:        b.business.Data,
		Campaigns:       b.campaignList(),
		Events:          b.eventList(),
		CampaignsFailed: b.campaigns.IsError(),
		EventsFailed:    b.events.IsError(),
	})
}

func (h *PageHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("type")
	if selected == "" || !domain.CampaignType(selected).Valid() {
		selected = filter.All
	}

	f := &downstream.CampaignFilters{Status: domain.CampaignActive, Page: 1, Limit: 20}
	if selected != filter.All {
		f.Type = domain.CampaignType(selected)
	}
	res := h.queries.Campaigns(r.Context(), f)

	view := web.CampaignsView{Types: web.Options(selected, campaignTypes...)}
	if res.IsError() {
		view.Failed = true
	} else if res.Data != nil {
		view.Campaigns = filter.Campaigns(res.Data.Campaigns, selected)
	}
	h.render(w, r, http.StatusOK, "campaigns", "Kampanyalar", "campaigns", view)
}

func (h *PageHandler) Events(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("category")
	if !knownCategory(selected) {
		selected = filter.All
	}

	f := &downstream.EventFilters{Status: domain.EventUpcoming, Page: 1, Limit: 20}
	if selected != filter.All {
		f.EventType = selected
	}
	res := h.queries.Events(r.Context(), f)

	view := web.EventsView{
		Categories:   web.Options(selected, eventCategories...),
		ShowFeatured: selected == filter.All,
	}
	if res.IsError() {
		view.Failed = true
	} else if res.Data != nil {
		view.Events = filter.Events(res.Data.Events, selected)
		view.Featured = filter.Featured(view.Events, featuredEvents)
	}
	h.render(w, r, http.StatusOK, "events", "Etkinlikler", "events", view)
}

func knownCategory(c string) bool {
	for _, p := range eventCategories {
		if p[0] == c {
			return true
		}
	}
	return false
}

func (h *PageHandler) Map(w http.ResponseWriter, r *http.Request) {
	f := approvedBusinesses
	res := h.queries.Businesses(r.Context(), &f)

	var view web.MapView
	if res.IsError() {
		view.Failed = true
	} else if res.Data != nil {
		for _, b := range res.Data.Businesses {
			if b.Status == domain.BusinessApproved && b.AddressObj.HasCoordinates() {
				view.Markers = append(view.Markers, b)
			}
		}
	}
	h.render(w, r, http.StatusOK, "map", "Harita", "map", view)
}

// RequireSession sends anonymous visitors to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetSession(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())
	res := h.queries.MyBusinesses(r.Context())

	view := web.ProfileView{Session: s}
	if res.IsError() {
		view.Failed = true
	} else {
		view.Businesses = res.Data
	}
	h.render(w, r, http.StatusOK, "profile", "Profil", "", view)
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "settings", "Ayarlar", "", nil)
}
