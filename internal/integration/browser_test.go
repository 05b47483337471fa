package integration

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageza/mealbrowser/internal/api"
	"github.com/pageza/mealbrowser/internal/cache"
	"github.com/pageza/mealbrowser/internal/database"
	"github.com/pageza/mealbrowser/internal/mealdb"
	"github.com/pageza/mealbrowser/internal/middleware"
	"github.com/pageza/mealbrowser/internal/router"
	"github.com/pageza/mealbrowser/internal/service"
)

const (
	categoriesJSON  = `{"categories":[{"idCategory":"1","strCategory":"Beef","strCategoryThumb":"beef.png","strCategoryDescription":"Beef is the culinary name for meat from cattle."},{"idCategory":"2","strCategory":"Chicken","strCategoryThumb":"chicken.png","strCategoryDescription":"Chicken is a domesticated bird."}]}`
	areasJSON       = `{"meals":[{"strArea":"British"},{"strArea":"Japanese"}]}`
	ingredientsJSON = `{"meals":[{"idIngredient":"1","strIngredient":"Chicken","strDescription":"A bird."}]}`
	letterJSON      = `{"meals":[{"idMeal":"52768","strMeal":"Apple Frangipan Tart","strMealThumb":"tart.jpg","strCategory":"Dessert","strArea":"British"}]}`
	teriyakiJSON    = `{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole","strMealThumb":"teriyaki.jpg","strCategory":"Chicken","strArea":"Japanese"}]}`
	noMealsJSON     = `{"meals":null}`
)

// upstream fakes the parts of TheMealDB the browser uses
type upstream struct {
	areasDown atomic.Bool
	// slow, when set, blocks the text search for "slow" until closed
	arrived chan struct{}
	release chan struct{}
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/categories.php"):
		w.Write([]byte(categoriesJSON))
	case strings.HasSuffix(r.URL.Path, "/list.php") && q.Get("a") == "list":
		if u.areasDown.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(areasJSON))
	case strings.HasSuffix(r.URL.Path, "/list.php") && q.Get("i") == "list":
		w.Write([]byte(ingredientsJSON))
	case strings.HasSuffix(r.URL.Path, "/search.php") && q.Get("f") != "":
		w.Write([]byte(letterJSON))
	case strings.HasSuffix(r.URL.Path, "/search.php") && q.Get("s") == "slow":
		u.arrived <- struct{}{}
		<-u.release
		w.Write([]byte(teriyakiJSON))
	case strings.HasSuffix(r.URL.Path, "/search.php") && q.Get("s") == "teriyaki":
		w.Write([]byte(teriyakiJSON))
	case strings.HasSuffix(r.URL.Path, "/filter.php") && q.Get("c") == "Chicken":
		w.Write([]byte(teriyakiJSON))
	default:
		w.Write([]byte(noMealsJSON))
	}
}

type stack struct {
	router   *gin.Engine
	upstream *upstream
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := &upstream{arrived: make(chan struct{}), release: make(chan struct{})}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client, err := mealdb.NewClient(mealdb.Options{
		BaseURL:  srv.URL + "/api/json/v1/1/",
		Timeout:  5 * time.Second,
		RPS:      100,
		Burst:    100,
		Cache:    cache.NewMemoryCache(),
		CacheTTL: time.Hour,
	})
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	history := service.NewHistoryService(db)
	browser := service.NewBrowserService(client, service.NewMemorySequencer(service.DefaultSequencerTTL), history)

	return &stack{
		router: router.SetupRouter(router.Dependencies{
			Browser: browser,
			History: history,
			DB:      db,
			Limiter: middleware.NewSearchRateLimiter(nil, 1000),
		}),
		upstream: up,
	}
}

func (s *stack) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestBrowsingSession(t *testing.T) {
	s := setupStack(t)

	// initial page: reference lists plus the default letter
	w := s.get(t, "/")
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	doc := parse(t, w)
	assert.Equal(t, 2, doc.Find("#categoriesDropdown a").Length())
	assert.Equal(t, 3, doc.Find(`select[name="area"] option`).Length())
	assert.Equal(t, 2, doc.Find(`select[name="ingredient"] option`).Length())
	assert.Equal(t, 1, doc.Find(`#content a[href="/meal/52768"]`).Length())
	assert.Equal(t, 0, doc.Find("#notices .alert").Length())

	// text search through the fragment endpoint
	w = s.get(t, "/fragments/meals?q=teriyaki&category=Beef&control=text", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(api.RequestTokenHeader))
	assert.Equal(t, 1, parse(t, w).Find(`a[href="/meal/52772"]`).Length())

	// no match shows the banner
	w = s.get(t, "/fragments/meals?area=Atlantis&control=area", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, parse(t, w).Find(".alert").Text(), "No meals found for the selected criteria.")

	// the page now lists the session's searches
	w = s.get(t, "/?category=Chicken", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	doc = parse(t, w)
	assert.Equal(t, 1, doc.Find(`#content a[href="/meal/52772"]`).Length())
	assert.Equal(t, 1, doc.Find(`aside a[href="/?q=teriyaki"]`).Length())
	assert.Equal(t, 1, doc.Find(`aside a[href="/?letter=a"]`).Length())
	assert.Equal(t, 1, doc.Find(`aside a[href="/?area=Atlantis"]`).Length())
}

func TestSupersededSearchIsDropped(t *testing.T) {
	s := setupStack(t)
	cookie := sessionCookie(t, s.get(t, "/"))

	slow := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		slow <- s.get(t, "/fragments/meals?q=slow&control=text", cookie)
	}()

	// the first search is in flight upstream when the second one is issued
	select {
	case <-s.upstream.arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("slow search never reached the upstream")
	}

	w := s.get(t, "/fragments/meals?q=teriyaki&control=text", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, parse(t, w).Find(`a[href="/meal/52772"]`).Length())

	close(s.upstream.release)
	stale := <-slow
	assert.Equal(t, http.StatusNoContent, stale.Code)
	assert.Equal(t, "true", stale.Header().Get(api.StaleResponseHeader))
	assert.Empty(t, stale.Body.String())
}

func TestReferenceListsFailIndependently(t *testing.T) {
	s := setupStack(t)
	s.upstream.areasDown.Store(true)

	w := s.get(t, "/")
	require.Equal(t, http.StatusOK, w.Code)

	doc := parse(t, w)
	assert.Contains(t, doc.Find("#notices .alert").Text(), "Error fetching areas. Please check your internet connection and try again.")
	assert.Equal(t, 1, doc.Find(`select[name="area"] option`).Length())
	assert.Equal(t, 2, doc.Find("#categoriesDropdown a").Length())
	assert.Equal(t, 2, doc.Find(`select[name="ingredient"] option`).Length())
}

func TestJSONAPI(t *testing.T) {
	s := setupStack(t)

	w := s.get(t, "/api/v1/meals")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Please provide at least one search criterion."}`, w.Body.String())

	w = s.get(t, "/api/v1/meals?ingredient=Chicken")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.get(t, "/api/v1/meals?category=Chicken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"idMeal":"52772"`)

	s.upstream.areasDown.Store(true)
	w = s.get(t, "/api/v1/areas")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
