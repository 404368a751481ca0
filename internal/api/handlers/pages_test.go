package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafelog/kafelog-web/internal/waitlist"
)

const businessesBody = `{"success":true,"data":{"businesses":[
	{"id":"b1","name":"Kahve Diyarı","status":"APPROVED","isOpenNow":true,"averageRating":4.8,"reviewCount":12,
	 "addressObj":{"city":"İstanbul","district":"Kadıköy","latitude":40.99,"longitude":29.03}},
	{"id":"b2","name":"Moda Roasters","status":"APPROVED","isOpenNow":false,
	 "addressObj":{"city":"İzmir","district":"Alsancak"}},
	{"id":"b3","name":"Bekleyen Kafe","status":"PENDING","isOpenNow":true,
	 "addressObj":{"city":"Ankara","district":"Çankaya","latitude":39.9,"longitude":32.8}}
],"pagination":{"currentPage":1,"totalItems":3}}}`

const campaignsBody = `{"success":true,"data":{"campaigns":[
	{"id":"c1","title":"Latte %20","campaignType":"PROMOTION","status":"ACTIVE"},
	{"id":"c2","title":"Caz Gecesi","campaignType":"EVENT","status":"ACTIVE"}
],"pagination":{}}}`

const eventsBody = `{"success":true,"data":{"events":[
	{"id":"e1","title":"Latte Art","eventType":"workshop","eventDate":"2026-11-02T15:30:00Z","capacity":20,"attendees":15,"isFree":true,"status":"upcoming"},
	{"id":"e2","title":"Akustik Akşam","eventType":"music","eventDate":"2026-11-03T18:00:00Z","capacity":40,"attendees":10,"price":150,"status":"upcoming"},
	{"id":"e3","title":"Kahve Tadımı","eventType":"tasting","eventDate":"2026-11-04T12:00:00Z","capacity":12,"attendees":12,"price":200,"status":"upcoming"},
	{"id":"e4","title":"Resim Atölyesi","eventType":"art","eventDate":"2026-11-05T10:00:00Z","capacity":15,"attendees":3,"price":300,"status":"upcoming"}
],"pagination":{}}}`

func newPageRouter(t *testing.T, bodies map[string]string, joiner WaitlistJoiner) (http.Handler, *fakeAPI) {
	t.Helper()
	api, srv := newFakeAPI(t, bodies)
	if joiner == nil {
		joiner = joinerFunc(func(context.Context, string) error { return nil })
	}
	h := NewPageHandler(newRenderer(t), newQueries(t, srv.URL), joiner)

	r := chi.NewRouter()
	r.Get("/", h.Home)
	r.Post("/waitlist", h.JoinWaitlist)
	r.Get("/about", h.About)
	r.Get("/contact", h.Contact)
	r.Get("/cafes", h.Cafes)
	r.Get("/cafes/{id}", h.Cafe)
	r.Get("/campaigns", h.Campaigns)
	r.Get("/events", h.Events)
	r.Get("/map", h.Map)
	r.With(RequireSession).Get("/profile", h.Profile)
	r.With(RequireSession).Get("/settings", h.Settings)
	r.NotFound(h.NotFound)
	return r, api
}

func cardIDs(t *testing.T, w *httptest.ResponseRecorder, selector, attr string) []string {
	t.Helper()
	doc := parseHTML(t, w)
	var ids []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr(attr, ""))
	})
	return ids
}

func TestCafes_ListsApprovedOnly(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses": businessesBody}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b1", "b2"}, cardIDs(t, w, "article.cafe", "data-cafe-id"))

	doc := parseHTML(t, w)
	assert.Equal(t, "all", doc.Find(`nav.filters a.active`).AttrOr("data-value", ""))
}

func TestCafes_TurkishInsensitiveSearch(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses": businessesBody}, nil)

	for _, q := range []string{"KADI", "kadı", "Kadi", "  kahve  "} {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes?q="+url.QueryEscape(q), nil))
		assert.Equal(t, []string{"b1"}, cardIDs(t, w, "article.cafe", "data-cafe-id"), q)
	}

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes?q="+url.QueryEscape("izmir"), nil))
	assert.Equal(t, []string{"b2"}, cardIDs(t, w, "article.cafe", "data-cafe-id"))
}

func TestCafes_OpenAndNearbyModes(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses": businessesBody}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes?filter=open", nil))
	assert.Equal(t, []string{"b1"}, cardIDs(t, w, "article.cafe", "data-cafe-id"))

	w = serve(h, httptest.NewRequest(http.MethodGet, "/cafes?filter=nearby", nil))
	assert.Equal(t, []string{"b1", "b2"}, cardIDs(t, w, "article.cafe", "data-cafe-id"))
}

func TestCafes_EmptyAndErrorStates(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses": businessesBody}, nil)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes?q=zzz", nil))
	doc := parseHTML(t, w)
	assert.Contains(t, doc.Find(".state-empty h3").Text(), "Kafe bulunamadı")

	h, _ = newPageRouter(t, map[string]string{"/api/businesses": "500"}, nil)
	w = serve(h, httptest.NewRequest(http.MethodGet, "/cafes", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	doc = parseHTML(t, w)
	assert.Contains(t, doc.Find(".state-error h3").Text(), "Bir hata oluştu")
	assert.Zero(t, doc.Find("article.cafe").Length())
}

func TestCafes_SharesCachedCollectionAcrossPages(t *testing.T) {
	h, api := newPageRouter(t, map[string]string{"/api/businesses": businessesBody}, nil)

	serve(h, httptest.NewRequest(http.MethodGet, "/cafes", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/cafes?q=moda", nil))
	w := serve(h, httptest.NewRequest(http.MethodGet, "/map", nil))

	assert.Equal(t, 1, api.Hits("/api/businesses"))
	assert.Equal(t, []string{"b1"}, cardIDs(t, w, "#map .marker", "data-cafe-id"))
}

func TestCafes_IndexMemoIsBounded(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{"/api/businesses": businessesBody})
	h := NewPageHandler(newRenderer(t), newQueries(t, srv.URL), nil)

	users := 3 * maxCafeIndexes
	for i := 0; i < users; i++ {
		s := testSession()
		s.UserID = fmt.Sprintf("u%d", i)
		req := withSession(httptest.NewRequest(http.MethodGet, "/cafes?q=kad", nil), s)
		w := serve(http.HandlerFunc(h.Cafes), req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Len(t, h.indexes, maxCafeIndexes)
	assert.Contains(t, h.indexes, fmt.Sprintf("u%d", users-1))
	assert.NotContains(t, h.indexes, "u0")
}

func TestCafe_DetailWithSideLists(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{
		"/api/businesses/b1":          `{"success":true,"data":{"id":"b1","name":"Kahve Diyarı","status":"APPROVED","phone":"+90 216 000 00 00"}}`,
		"/api/campaigns/business/b1": campaignsBody,
		"/api/events/business/b1":    eventsBody,
	}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes/b1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseHTML(t, w)
	assert.Equal(t, "Kahve Diyarı", doc.Find(".cafe-detail h1").Text())
	assert.Equal(t, 2, doc.Find(".cafe-campaigns article.campaign").Length())
	assert.Equal(t, 4, doc.Find(".cafe-events article.event").Length())
	assert.Equal(t, "/cafes", doc.Find(`.navbar nav a[aria-current="page"]`).AttrOr("href", ""))
}

func TestCafe_SideListFailureIsLocal(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{
		"/api/businesses/b1":          `{"success":true,"data":{"id":"b1","name":"Kahve Diyarı","status":"APPROVED"}}`,
		"/api/campaigns/business/b1": "500",
		"/api/events/business/b1":    `{"success":true,"data":{"events":[],"pagination":{}}}`,
	}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes/b1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseHTML(t, w)
	assert.Equal(t, 1, doc.Find(".cafe-campaigns .state-error").Length())
	assert.Contains(t, doc.Find(".cafe-events .state-empty").Text(), "Yaklaşan etkinlik yok")
}

func TestCafe_NotFound(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	doc := parseHTML(t, w)
	assert.Equal(t, "404", doc.Find(".page-error").AttrOr("data-status", ""))
}

func TestCafe_UnapprovedIsNotFound(t *testing.T) {
	for _, status := range []string{"PENDING", "REJECTED", "SUSPENDED", ""} {
		t.Run("status "+status, func(t *testing.T) {
			h, _ := newPageRouter(t, map[string]string{
				"/api/businesses/b3":          `{"success":true,"data":{"id":"b3","name":"Bekleyen Kafe","status":"` + status + `"}}`,
				"/api/campaigns/business/b3": campaignsBody,
				"/api/events/business/b3":    eventsBody,
			}, nil)

			w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes/b3", nil))
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.NotContains(t, w.Body.String(), "Bekleyen Kafe")
		})
	}
}

func TestCafe_UpstreamFailure(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses/b1": "500"}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/cafes/b1", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCampaigns_TypeFilter(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/campaigns": campaignsBody}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/campaigns", nil))
	assert.Equal(t, []string{"c1", "c2"}, cardIDs(t, w, "article.campaign", "data-campaign-id"))

	w = serve(h, httptest.NewRequest(http.MethodGet, "/campaigns?type=PROMOTION", nil))
	assert.Equal(t, []string{"c1"}, cardIDs(t, w, "article.campaign", "data-campaign-id"))
	doc := parseHTML(t, w)
	assert.Equal(t, "PROMOTION", doc.Find("nav.filters a.active").AttrOr("data-value", ""))

	w = serve(h, httptest.NewRequest(http.MethodGet, "/campaigns?type=DISCOUNT", nil))
	doc = parseHTML(t, w)
	assert.Equal(t, "all", doc.Find("nav.filters a.active").AttrOr("data-value", ""))
}

func TestCampaigns_EmptyState(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{
		"/api/campaigns": `{"success":true,"data":{"campaigns":[],"pagination":{}}}`,
	}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/campaigns?type=ANNOUNCEMENT", nil))
	doc := parseHTML(t, w)
	assert.Contains(t, doc.Find(".state-empty h3").Text(), "Kampanya bulunamadı")
}

func TestEvents_FeaturedAndCategory(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/events": eventsBody}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/events", nil))
	doc := parseHTML(t, w)
	assert.Equal(t, 3, doc.Find(".featured article.event").Length())
	assert.Equal(t, 4, doc.Find(".grid.events article.event").Length())

	first := doc.Find(".grid.events article.event").First()
	assert.Equal(t, "2 Kasım 2026", first.Find(".date").Text())
	assert.Equal(t, "18:30", first.Find(".time").Text())
	assert.Equal(t, "Ücretsiz", first.Find(".price").Text())

	w = serve(h, httptest.NewRequest(http.MethodGet, "/events?category=music", nil))
	doc = parseHTML(t, w)
	assert.Zero(t, doc.Find(".featured").Length())
	assert.Equal(t, []string{"e2"}, cardIDs(t, w, ".grid.events article.event", "data-event-id"))
}

func TestEvents_ErrorState(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/events": "500"}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/events", nil))
	doc := parseHTML(t, w)
	assert.Equal(t, 1, doc.Find(".state-error").Length())
	assert.Zero(t, doc.Find("article.event").Length())
}

func TestMap_ErrorState(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{"/api/businesses": "500"}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/map", nil))
	doc := parseHTML(t, w)
	assert.Equal(t, 1, doc.Find(".state-error").Length())
}

func TestProfile_RequiresSession(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{}, nil)

	for _, path := range []string{"/profile", "/settings"} {
		w := serve(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestProfile_ShowsMyBusinesses(t *testing.T) {
	h, api := newPageRouter(t, map[string]string{
		"/api/businesses/my-businesses": `{"success":true,"data":{"businesses":[{"id":"b9","name":"Ayşe'nin Kahvesi","status":"PENDING"}]}}`,
	}, nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/profile", nil), testSession())
	w := serve(h, req)
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseHTML(t, w)
	assert.Equal(t, "Ayşe Yılmaz", doc.Find(".profile h1").Text())
	assert.Equal(t, "b9", doc.Find(".my-businesses li").AttrOr("data-business-id", ""))
	assert.Equal(t, "Bearer tok-u1", api.Auth("/api/businesses/my-businesses"))
}

func TestSettings_ShowsAccount(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{}, nil)

	w := serve(h, withSession(httptest.NewRequest(http.MethodGet, "/settings", nil), testSession()))
	require.Equal(t, http.StatusOK, w.Code)
	doc := parseHTML(t, w)
	assert.Equal(t, "ayse@example.com", doc.Find(".account-settings .email").Text())
}

func TestHome_WaitlistDialog(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{}, nil)

	doc := parseHTML(t, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)))
	_, hidden := doc.Find("#waitlist").Attr("hidden")
	assert.True(t, hidden)

	doc = parseHTML(t, serve(h, httptest.NewRequest(http.MethodGet, "/?waitlist=open", nil)))
	_, hidden = doc.Find("#waitlist").Attr("hidden")
	assert.False(t, hidden)
	assert.Equal(t, "idle", doc.Find("#waitlist").AttrOr("data-status", ""))
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestJoinWaitlistForm_Success(t *testing.T) {
	var got string
	h, _ := newPageRouter(t, map[string]string{}, joinerFunc(func(_ context.Context, email string) error {
		got = email
		return nil
	}))

	w := serve(h, postForm("/waitlist", url.Values{"email": {"ayse@example.com"}}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ayse@example.com", got)

	doc := parseHTML(t, w)
	dialog := doc.Find("#waitlist")
	assert.Equal(t, "success", dialog.AttrOr("data-status", ""))
	assert.Equal(t, "1500", dialog.AttrOr("data-autoclose-ms", ""))
	assert.Equal(t, "Kaydolundu!", dialog.Find("button").Text())
	_, disabled := dialog.Find("button").Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, "", dialog.Find(`input[name="email"]`).AttrOr("value", "x"))
}

func TestJoinWaitlistForm_Failures(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad", waitlist.ErrInvalidEmail), http.StatusBadRequest},
		{errors.New("provider down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h, _ := newPageRouter(t, map[string]string{}, joinerFunc(func(context.Context, string) error { return tc.err }))

		w := serve(h, postForm("/waitlist", url.Values{"email": {"not-an-email"}}))
		assert.Equal(t, tc.status, w.Code)

		doc := parseHTML(t, w)
		dialog := doc.Find("#waitlist")
		assert.Equal(t, "error", dialog.AttrOr("data-status", ""))
		assert.Equal(t, "not-an-email", dialog.Find(`input[name="email"]`).AttrOr("value", ""))
		assert.Contains(t, dialog.Find(".form-error").Text(), "Bir hata oluştu")
		_, autoclose := dialog.Attr("data-autoclose-ms")
		assert.False(t, autoclose)
	}
}

func TestStaticPagesAndNotFound(t *testing.T) {
	h, _ := newPageRouter(t, map[string]string{}, nil)

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/about", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/contact", nil)).Code)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
