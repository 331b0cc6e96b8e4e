package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

const baseURL = "http://example.test"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLoader(t *testing.T) (*Loader, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	l, err := New(baseURL+"/",
		WithHTTPClient(&http.Client{Transport: transport}),
		WithRateLimit(rate.Inf, 1),
	)
	require.NoError(t, err)
	return l, transport
}

func page(items []map[string]any, pageNum, limit, total int) map[string]any {
	return map[string]any{"data": items, "page": pageNum, "limit": limit, "total": total}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("localhost:8080")
	assert.Error(t, err)
	_, err = New("://nope")
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	l, transport := newTestLoader(t)

	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "2", q.Get("page"))
			assert.Equal(t, "5", q.Get("limit"))
			assert.Equal(t, "lime", q.Get("search"))
			assert.Equal(t, "citrus", q.Get("category"))
			return httpmock.NewJsonResponse(http.StatusOK, page([]map[string]any{
				{"id": 7, "title": "Lime Mojito", "price": "10", "category": map[string]any{"slug": "citrus"}, "rating": map[string]any{"average": 4.2}},
			}, 2, 5, 6))
		})

	batch, err := l.Fetch(context.Background(), "products", Request{Page: 2, Limit: 5, Search: "lime", Category: "citrus"})
	require.NoError(t, err)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "7", batch.Items[0].ID)
	assert.Equal(t, "products", batch.Items[0].Collection)
	assert.Equal(t, "citrus", batch.Items[0].Category)
	assert.Equal(t, 4.2, batch.Items[0].Rating)
	assert.Equal(t, 10.0, batch.Items[0].Price)
	assert.Equal(t, 6, batch.Total)
	assert.Equal(t, uint64(1), batch.Generation)
}

func TestFetch_OmitsCategoryAll(t *testing.T) {
	l, transport := newTestLoader(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/recipes",
		func(req *http.Request) (*http.Response, error) {
			assert.False(t, req.URL.Query().Has("category"))
			return httpmock.NewJsonResponse(http.StatusOK, page(nil, 1, 12, 0))
		})

	batch, err := l.Fetch(context.Background(), "recipes", Request{Category: "all"})
	require.NoError(t, err)
	assert.Empty(t, batch.Items)
}

func TestFetch_ClassifiesErrors(t *testing.T) {
	l, transport := newTestLoader(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/orders", httpmock.NewStringResponder(http.StatusNotFound, `{"message":"unknown collection"}`))
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products", httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"))
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/bundles", httpmock.NewStringResponder(http.StatusOK, "{not json"))

	_, err := l.Fetch(context.Background(), "orders", Request{})
	var notFound ErrNotFound
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "not_found", ErrorLabel(err))

	_, err = l.Fetch(context.Background(), "products", Request{})
	var upstream ErrUpstream
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	assert.Equal(t, "bad gateway", upstream.Body)
	assert.Equal(t, "upstream", ErrorLabel(err))

	_, err = l.Fetch(context.Background(), "bundles", Request{})
	assert.Error(t, err)
	assert.Equal(t, "other", ErrorLabel(err))
	assert.Equal(t, "none", ErrorLabel(nil))
}

func TestFetch_NewerRequestSupersedesOlder(t *testing.T) {
	l, transport := newTestLoader(t)

	started := make(chan struct{})
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("search") == "slow" {
				close(started)
				<-req.Context().Done()
				return nil, req.Context().Err()
			}
			return httpmock.NewJsonResponse(http.StatusOK, page([]map[string]any{{"id": "fast", "title": "Fast"}}, 1, 12, 1))
		})

	oldResult := make(chan error, 1)
	go func() {
		_, err := l.Fetch(context.Background(), "products", Request{Search: "slow"})
		oldResult <- err
	}()

	<-started
	batch, err := l.Fetch(context.Background(), "products", Request{Search: "fast"})
	require.NoError(t, err)
	assert.Equal(t, "fast", batch.Items[0].ID)
	assert.Equal(t, uint64(2), batch.Generation)

	select {
	case err := <-oldResult:
		assert.ErrorIs(t, err, ErrSuperseded)
		assert.Equal(t, "superseded", ErrorLabel(err))
	case <-time.After(5 * time.Second):
		t.Fatal("superseded fetch did not return")
	}
}

func TestFetch_CollectionsAreIndependent(t *testing.T) {
	l, transport := newTestLoader(t)

	release := make(chan struct{})
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/recipes",
		func(req *http.Request) (*http.Response, error) {
			<-release
			return httpmock.NewJsonResponse(http.StatusOK, page([]map[string]any{{"id": "r1"}}, 1, 12, 1))
		})
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, page([]map[string]any{{"id": "p1"}}, 1, 12, 1)))

	recipes := make(chan error, 1)
	go func() {
		_, err := l.Fetch(context.Background(), "recipes", Request{})
		recipes <- err
	}()

	_, err := l.Fetch(context.Background(), "products", Request{})
	require.NoError(t, err)

	close(release)
	assert.NoError(t, <-recipes)
}

func TestFetch_ParentCancellation(t *testing.T) {
	l, transport := newTestLoader(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products",
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Fetch(ctx, "products", Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSuperseded)
}

func TestFetchAll(t *testing.T) {
	l, transport := newTestLoader(t)

	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/products",
		func(req *http.Request) (*http.Response, error) {
			p, _ := strconv.Atoi(req.URL.Query().Get("page"))
			var items []map[string]any
			for i := 0; i < 2 && (p-1)*2+i < 5; i++ {
				items = append(items, map[string]any{"id": fmt.Sprintf("p%d", (p-1)*2+i), "title": "x"})
			}
			return httpmock.NewJsonResponse(http.StatusOK, page(items, p, 2, 5))
		})

	items, err := l.FetchAll(context.Background(), "products", Request{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "p0", items[0].ID)
	assert.Equal(t, "p4", items[4].ID)
	assert.Equal(t, 3, transport.GetTotalCallCount())
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	l, transport := newTestLoader(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/v1/bundles",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") == "1" {
				return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"data": []map[string]any{{"id": "b1"}}})
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"data": []map[string]any{}})
		})

	items, err := l.FetchAll(context.Background(), "bundles", Request{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}
