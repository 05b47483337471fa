package mealdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pageza/mealbrowser/internal/cache"
	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/metrics"
)

// ErrUpstream wraps every transport, status or decoding failure of the API
var ErrUpstream = errors.New("mealdb request failed")

// maxErrorBody bounds how much of a failed response is kept in the error
const maxErrorBody = 512

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	Burst      int
	Cache      cache.Cache
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client talks to TheMealDB JSON API
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewClient creates a Client. A nil Cache disables reference list caching.
func NewClient(opts Options) (*Client, error) {
	base := opts.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid MealDB base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid MealDB base URL %q: must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit, burst := rate.Limit(opts.RPS), opts.Burst
	if opts.RPS <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:  u,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}, nil
}

type categoriesResponse struct {
	Categories []Category `json:"categories"`
}

type mealsResponse[T any] struct {
	Meals []T `json:"meals"`
}

// Categories lists all meal categories
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return cachedList(ctx, c, "categories", func() ([]Category, error) {
		var resp categoriesResponse
		if err := c.get(ctx, "categories", "categories.php", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Categories, nil
	})
}

// Areas lists all cuisine areas
func (c *Client) Areas(ctx context.Context) ([]Area, error) {
	return cachedList(ctx, c, "areas", func() ([]Area, error) {
		var resp mealsResponse[Area]
		if err := c.get(ctx, "list_areas", "list.php", url.Values{"a": {"list"}}, &resp); err != nil {
			return nil, err
		}
		return resp.Meals, nil
	})
}

// Ingredients lists all known ingredients
func (c *Client) Ingredients(ctx context.Context) ([]Ingredient, error) {
	return cachedList(ctx, c, "ingredients", func() ([]Ingredient, error) {
		var resp mealsResponse[Ingredient]
		if err := c.get(ctx, "list_ingredients", "list.php", url.Values{"i": {"list"}}, &resp); err != nil {
			return nil, err
		}
		return resp.Meals, nil
	})
}

// MealsByLetter lists meals whose name starts with letter
func (c *Client) MealsByLetter(ctx context.Context, letter string) ([]MealSummary, error) {
	return c.meals(ctx, "search_letter", "search.php", "f", letter)
}

// SearchMeals finds meals by free text in their name
func (c *Client) SearchMeals(ctx context.Context, text string) ([]MealSummary, error) {
	return c.meals(ctx, "search_text", "search.php", "s", text)
}

// MealsByCategory filters meals by category
func (c *Client) MealsByCategory(ctx context.Context, category string) ([]MealSummary, error) {
	return c.meals(ctx, "filter_category", "filter.php", "c", category)
}

// MealsByArea filters meals by area
func (c *Client) MealsByArea(ctx context.Context, area string) ([]MealSummary, error) {
	return c.meals(ctx, "filter_area", "filter.php", "a", area)
}

// MealsByIngredient filters meals by main ingredient
func (c *Client) MealsByIngredient(ctx context.Context, ingredient string) ([]MealSummary, error) {
	return c.meals(ctx, "filter_ingredient", "filter.php", "i", ingredient)
}

// LookupMeal returns the full recipe for id, or nil when there is none
func (c *Client) LookupMeal(ctx context.Context, id string) (*MealDetail, error) {
	var resp mealsResponse[MealDetail]
	if err := c.get(ctx, "lookup", "lookup.php", url.Values{"i": {id}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Meals) == 0 {
		return nil, nil
	}
	return &resp.Meals[0], nil
}

func (c *Client) meals(ctx context.Context, endpoint, path, param, value string) ([]MealSummary, error) {
	var resp mealsResponse[MealSummary]
	if err := c.get(ctx, endpoint, path, url.Values{param: {value}}, &resp); err != nil {
		return nil, err
	}
	if resp.Meals == nil {
		// {"meals": null} means no match
		return []MealSummary{}, nil
	}
	return resp.Meals, nil
}

// URL returns the absolute request URL for path and query
func (c *Client) URL(path string, query url.Values) string {
	ref := &url.URL{Path: path, RawQuery: query.Encode()}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}

	target := c.URL(path, query)
	log := logger.For(ctx).WithFields(logrus.Fields{"endpoint": endpoint, "url": target})
	log.Debug("mealdb request")

	start := time.Now()
	status := "error"
	defer func() {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: status %d: %s", ErrUpstream, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %w", ErrUpstream, endpoint, err)
	}

	log.WithField("duration", time.Since(start).String()).Debug("mealdb response")
	return nil
}

// cachedList serves a reference list from the cache, filling it on a miss.
// Cache failures are logged and fall through to the API.
func cachedList[T any](ctx context.Context, c *Client, key string, fetch func() ([]T, error)) ([]T, error) {
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.For(ctx).WithError(err).Warnf("reference cache read failed for %s", key)
		case ok:
			var items []T
			if err := json.Unmarshal(data, &items); err == nil {
				metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
				return items, nil
			}
			logger.For(ctx).Warnf("discarding corrupt cache entry for %s", key)
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}
	logger.For(ctx).Debugf("fetched %d %s", len(items), key)

	if c.cache != nil && len(items) > 0 {
		data, err := json.Marshal(items)
		if err == nil {
			err = c.cache.Set(ctx, key, data, c.cacheTTL)
		}
		if err != nil {
			logger.For(ctx).WithError(err).Warnf("reference cache write failed for %s", key)
		}
	}
	return items, nil
}
