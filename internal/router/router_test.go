package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardman/internal/models"
	"cardman/internal/services/catalog"
	"cardman/internal/services/wallet"
	"cardman/internal/store"
	"cardman/internal/store/memstore"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	st := memstore.New()
	catalogSvc := catalog.NewService(st)
	return New(catalogSvc, wallet.NewService(st, catalogSvc))
}

func do(t *testing.T, rt *Router, method, path, body string) Response {
	t.Helper()
	return rt.Dispatch(context.Background(), Request{Method: method, Path: path, Body: []byte(body)})
}

func decode(t *testing.T, resp Response) models.Document {
	t.Helper()
	doc, err := models.DecodeJSON(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestParseEvent(t *testing.T) {
	t.Run("legacy shape", func(t *testing.T) {
		req, err := ParseEvent([]byte(`{"httpMethod": "POST", "path": "/api/cards", "body": "{\"card_id\": \"x\"}"}`))
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/cards", req.Path)
		assert.JSONEq(t, `{"card_id": "x"}`, string(req.Body))
	})

	t.Run("nested shape wins over legacy fields", func(t *testing.T) {
		req, err := ParseEvent([]byte(`{
			"httpMethod": "POST",
			"rawPath": "/api/recommendations/dining",
			"requestContext": {"http": {"method": "GET"}}
		}`))
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/api/recommendations/dining", req.Path)
	})

	t.Run("empty legacy fields default to GET /", func(t *testing.T) {
		req, err := ParseEvent([]byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/", req.Path)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{broken`))
		assert.Error(t, err)
	})
}

const sampleCard = `{
	"card_id": "chase-sapphire-preferred",
	"card_name": "Chase Sapphire Preferred",
	"bank": "Chase",
	"annual_fee": 95.0,
	"cashback_categories": {
		"dining": {"rate": 3, "description": "3x dining"}
	}
}`

func TestOptionsShortCircuits(t *testing.T) {
	rt := newRouter(t)

	for _, path := range []string{"/api/cards", "/anything/at/all", "/"} {
		resp := do(t, rt, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Body)
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	}
}

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	rt := newRouter(t)

	responses := []Response{
		do(t, rt, http.MethodGet, "/api/cards", ""),
		do(t, rt, http.MethodGet, "/api/cards/missing", ""),
		do(t, rt, http.MethodPatch, "/api/nope", ""),
	}
	for _, resp := range responses {
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
		assert.NotEmpty(t, resp.Headers["Access-Control-Allow-Methods"])
		assert.NotEmpty(t, resp.Headers["Access-Control-Allow-Headers"])
	}
}

func TestUnmatchedRouteEchoesPathAndMethod(t *testing.T) {
	rt := newRouter(t)

	resp := do(t, rt, http.MethodPost, "/api/unknown/route", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Route not found", body.GetString("error"))
	assert.Equal(t, "/api/unknown/route", body.GetString("path"))
	assert.Equal(t, http.MethodPost, body.GetString("method"))

	// A known path with an unhandled method falls to the same 404.
	resp = do(t, rt, http.MethodPut, "/api/cards", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCardLifecycle(t *testing.T) {
	rt := newRouter(t)

	resp := do(t, rt, http.MethodPost, "/api/cards", sampleCard)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode(t, resp)
	cardDoc, ok := created["card"].(models.Document)
	require.True(t, ok)
	assert.NotEmpty(t, cardDoc.GetString("created_at"))

	// Stored decimals come back as plain JSON numbers.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &raw))
	fee := raw["card"].(map[string]any)["annual_fee"]
	assert.Equal(t, float64(95), fee)

	resp = do(t, rt, http.MethodGet, "/api/cards", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decode(t, resp)
	cards, ok := listing["cards"].([]any)
	require.True(t, ok)
	assert.Len(t, cards, 1)

	resp = do(t, rt, http.MethodGet, "/api/cards/chase-sapphire-preferred", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode(t, resp)
	assert.Equal(t, "Chase", got.GetString("bank"))

	resp = do(t, rt, http.MethodPut, "/api/cards/chase-sapphire-preferred", `{"annual_fee": "150"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, rt, http.MethodDelete, "/api/cards/chase-sapphire-preferred", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, rt, http.MethodGet, "/api/cards/chase-sapphire-preferred", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode(t, resp).GetString("error"), "card")
}

func TestCreateCardFailures(t *testing.T) {
	rt := newRouter(t)

	resp := do(t, rt, http.MethodPost, "/api/cards", `{"card_id": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp).GetString("error"), "missing required field")

	resp = do(t, rt, http.MethodPost, "/api/cards", `{broken`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Equal(t, http.StatusCreated, do(t, rt, http.MethodPost, "/api/cards", sampleCard).StatusCode)
	resp = do(t, rt, http.MethodPost, "/api/cards", sampleCard)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp).GetString("error"), "already exists")
}

func TestWalletRoutes(t *testing.T) {
	rt := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, rt, http.MethodPost, "/api/cards", sampleCard).StatusCode)

	// Missing card_id.
	resp := do(t, rt, http.MethodPost, "/api/users/user-001/cards", `{"notes": "x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown card.
	resp = do(t, rt, http.MethodPost, "/api/users/user-001/cards", `{"card_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, rt, http.MethodPost, "/api/users/user-001/cards",
		`{"card_id": "chase-sapphire-preferred", "notes": "main card"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assoc, ok := decode(t, resp)["user_card"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, "active", assoc.GetString("card_status"))

	// Duplicate association.
	resp = do(t, rt, http.MethodPost, "/api/users/user-001/cards",
		`{"card_id": "chase-sapphire-preferred"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Enriched listing is a bare array overlaying wallet fields.
	resp = do(t, rt, http.MethodGet, "/api/users/user-001/cards", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var enriched []models.Document
	require.NoError(t, json.Unmarshal(resp.Body, &enriched))
	require.Len(t, enriched, 1)
	assert.Equal(t, "main card", enriched[0].GetString("user_notes"))
	assert.Equal(t, "Chase", enriched[0].GetString("bank"))

	resp = do(t, rt, http.MethodPut, "/api/users/user-001/cards/chase-sapphire-preferred",
		`{"notes": "updated"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, rt, http.MethodDelete, "/api/users/user-001/cards/chase-sapphire-preferred", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, rt, http.MethodDelete, "/api/users/user-001/cards/chase-sapphire-preferred", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecommendationRoute(t *testing.T) {
	rt := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, rt, http.MethodPost, "/api/cards", sampleCard).StatusCode)

	resp := do(t, rt, http.MethodGet, "/api/recommendations/dining", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "dining", body.GetString("category"))
	card, ok := body["card"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, "chase-sapphire-preferred", card.GetString("card_id"))

	resp = do(t, rt, http.MethodGet, "/api/recommendations/grocery", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategorySearchRoute(t *testing.T) {
	rt := newRouter(t)
	require.Equal(t, http.StatusCreated, do(t, rt, http.MethodPost, "/api/cards", sampleCard).StatusCode)

	resp := do(t, rt, http.MethodGet, "/api/categories/dining/cards", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	cards, ok := body["cards"].([]any)
	require.True(t, ok)
	assert.Len(t, cards, 1)

	resp = do(t, rt, http.MethodGet, "/api/categories/grocery/cards", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode(t, resp)["cards"])
}

// failingStore forces the unexpected-error path through the router.
type failingStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingStore) Get(context.Context, string, store.Key) (models.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Put(context.Context, string, store.Key, models.Document) error {
	return errStoreDown
}
func (failingStore) Merge(context.Context, string, store.Key, models.Document) (models.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(context.Context, string, store.Key) error { return errStoreDown }
func (failingStore) Query(context.Context, string, string, store.Filter) ([]models.Document, error) {
	return nil, errStoreDown
}
func (failingStore) Scan(context.Context, string, store.ScanOptions) (store.ScanPage, error) {
	return store.ScanPage{}, errStoreDown
}
func (failingStore) Ping(context.Context) error { return errStoreDown }
func (failingStore) Close() error               { return nil }

func TestUnexpectedFailureBecomes500(t *testing.T) {
	catalogSvc := catalog.NewService(failingStore{})
	rt := New(catalogSvc, wallet.NewService(failingStore{}, catalogSvc))

	resp := do(t, rt, http.MethodGet, "/api/cards", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decode(t, resp).GetString("error"), "store unavailable")
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}
