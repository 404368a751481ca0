package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/queries"
	"github.com/kafelog/kafelog-web/internal/querycache"
	"github.com/kafelog/kafelog-web/internal/web"
	"github.com/kafelog/kafelog-web/middleware"
)

// fakeAPI serves canned bodies by path. Unknown paths get a 404 envelope; a
// body of "500" answers with a server error.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
	auth   map[string]string
}

func newFakeAPI(t *testing.T, bodies map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{bodies: bodies, hits: map[string]int{}, auth: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		path := r.URL.EscapedPath()
		f.hits[path]++
		f.auth[path] = r.Header.Get("Authorization")
		body, ok := f.bodies[path]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case !ok:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"Not found"}`))
		case body == "500":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) Auth(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

func newQueries(t *testing.T, baseURL string) *queries.Service {
	t.Helper()
	opts := downstream.Options{BaseURL: baseURL, Timeout: 2 * time.Second, Transport: http.DefaultTransport}
	public := downstream.NewPublicClient(opts)
	authed := downstream.NewAuthClient(opts, nil)

	cache := querycache.New(
		querycache.NewMemoryStore(100, querycache.NewLRU()),
		querycache.Options{Retry: 0, RetryDelay: time.Millisecond},
	)
	return queries.New(cache,
		downstream.NewBusinessesAPI(authed),
		downstream.NewCampaignsAPI(public),
		downstream.NewEventsAPI(public),
	)
}

func newRenderer(t *testing.T) *web.Renderer {
	t.Helper()
	r, err := web.New()
	require.NoError(t, err)
	return r
}

func withSession(r *http.Request, s *domain.Session) *http.Request {
	return r.WithContext(middleware.SetSessionForTest(r.Context(), s))
}

func testSession() *domain.Session {
	return &domain.Session{UserID: "u1", Email: "ayse@example.com", FullName: "Ayşe Yılmaz", AccessToken: "tok-u1"}
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

type joinerFunc func(ctx context.Context, email string) error

func (f joinerFunc) Join(ctx context.Context, email string) error { return f(ctx, email) }
