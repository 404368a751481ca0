package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/waitlist"
)

func render(t *testing.T, name string, p Page) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	r, err := New()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusOK, name, p))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return w, doc
}

func TestNew_ParsesEveryPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, name := range []string{"home", "about", "contact", "cafes", "cafe", "campaigns", "events", "map", "profile", "settings", "login", "register", "error"} {
		assert.True(t, r.Has(name), name)
	}
	assert.Error(t, r.Render(httptest.NewRecorder(), http.StatusOK, "menu", Page{}))
}

func TestFormatters(t *testing.T) {
	at := time.Date(2026, 11, 2, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2 Kasım 2026", FormatDate(at))
	assert.Equal(t, "18:30", FormatTime(at))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "Ücretsiz", FormatPrice(150, true))
	assert.Equal(t, "150 TL", FormatPrice(150, false))
	assert.Equal(t, "12.5 TL", FormatPrice(12.5, false))
	assert.Equal(t, "Müzik", EventTypeLabel("music"))
	assert.Equal(t, "Promosyon", CampaignTypeLabel(domain.CampaignPromotion))
}

func TestRender_CafesList(t *testing.T) {
	w, doc := render(t, "cafes", Page{
		Title: "Kafeler",
		Nav:   "cafes",
		Data: CafesView{
			Query: "kadı",
			Modes: Options("open", [2]string{"all", "Tümü"}, [2]string{"open", "Açık Olanlar"}, [2]string{"nearby", "Yakınımda"}),
			Cafes: []domain.Business{{
				ID: "b1", Name: "Kahve Diyarı", IsOpenNow: true, AverageRating: 4.8, ReviewCount: 12,
				AddressObj: domain.Address{City: "İstanbul", District: "Kadıköy"},
				Amenities:  []string{"wifi", "priz", "teras", "otopark"},
			}},
		},
	})

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Kafeler | KafeLog", doc.Find("title").Text())
	assert.Equal(t, "page", doc.Find(`nav a[href="/cafes"]`).AttrOr("aria-current", ""))

	card := doc.Find(`article.cafe[data-cafe-id="b1"]`)
	require.Equal(t, 1, card.Length())
	assert.Equal(t, "Kahve Diyarı", card.Find("h3").Text())
	assert.Equal(t, "Açık", card.Find(".badge").Text())
	assert.Equal(t, "4.8", card.Find(".rating strong").Text())
	assert.Equal(t, "Kadıköy, İstanbul", card.Find(".location").Text())
	assert.Equal(t, "wifi, priz, teras", card.Find(".amenities").Text())
	assert.Equal(t, "open", doc.Find(".filters a.active").AttrOr("data-value", ""))
	assert.Equal(t, "kadı", doc.Find(`input[name="q"]`).AttrOr("value", ""))
}

func TestRender_ErrorAndEmptyStates(t *testing.T) {
	_, doc := render(t, "cafes", Page{Data: CafesView{Failed: true}})
	assert.Contains(t, doc.Find(".state-error h3").Text(), "Bir hata oluştu")

	_, doc = render(t, "cafes", Page{Data: CafesView{}})
	assert.Equal(t, "Kafe bulunamadı", doc.Find(".state-empty h3").Text())

	_, doc = render(t, "events", Page{Data: EventsView{}})
	assert.Equal(t, "Etkinlik bulunamadı", doc.Find(".state-empty h3").Text())
}

func TestRender_EventsFeatured(t *testing.T) {
	ev := domain.Event{ID: "e1", Title: "Latte Art", EventType: "workshop", Capacity: 10, Attendees: 4,
		EventDate: time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC), IsFree: true}
	_, doc := render(t, "events", Page{Data: EventsView{
		Categories:   Options("all", [2]string{"all", "Tümü"}, [2]string{"workshop", "Workshop"}),
		ShowFeatured: true,
		Featured:     []domain.Event{ev},
		Events:       []domain.Event{ev},
	}})

	featured := doc.Find(".featured article.event")
	require.Equal(t, 1, featured.Length())
	assert.Equal(t, "2 Kasım 2026", featured.Find(".date").Text())
	assert.Equal(t, "18:00", featured.Find(".time").Text())
	assert.Equal(t, "Ücretsiz", featured.Find(".price").Text())
	assert.Equal(t, "6 kişilik yer kaldı", featured.Find(".spots").Text())
	assert.Equal(t, "/events?category=workshop", doc.Find(`.filters a[data-value="workshop"]`).AttrOr("href", ""))
}

func TestRender_HomeWaitlistSuccess(t *testing.T) {
	_, doc := render(t, "home", Page{Data: HomeView{
		Open:     true,
		Waitlist: waitlist.FormView{Status: waitlist.StatusSuccess, CloseAfter: waitlist.CloseDelay},
	}})

	dialog := doc.Find("#waitlist")
	_, hidden := dialog.Attr("hidden")
	assert.False(t, hidden)
	assert.Equal(t, "1500", dialog.AttrOr("data-autoclose-ms", ""))
	assert.Equal(t, "success", dialog.AttrOr("data-status", ""))
	assert.Equal(t, "Kaydolundu!", strings.TrimSpace(dialog.Find("button").Text()))
	_, disabled := dialog.Find("input").Attr("disabled")
	assert.True(t, disabled)
}

func TestRender_NavbarSession(t *testing.T) {
	_, doc := render(t, "about", Page{})
	assert.Equal(t, 1, doc.Find(`a[href="/login"]`).Length())

	_, doc = render(t, "about", Page{Session: &domain.Session{UserID: "u1", Email: "ayse@example.com", FullName: "Ayşe"}})
	assert.Equal(t, "Ayşe", doc.Find("a.user").Text())
	assert.Equal(t, 1, doc.Find(`form[action="/logout"]`).Length())
}

func TestRender_MapMarkers(t *testing.T) {
	_, doc := render(t, "map", Page{Data: MapView{Markers: []domain.Business{{
		ID: "b1", Name: "Kahve Diyarı",
		AddressObj: domain.Address{City: "İstanbul", District: "Kadıköy", Latitude: 40.990, Longitude: 29.029},
	}}}})

	m := doc.Find(`.marker[data-cafe-id="b1"]`)
	assert.Equal(t, "40.990000", m.AttrOr("data-lat", ""))
	assert.Equal(t, "29.029000", m.AttrOr("data-lng", ""))
}
