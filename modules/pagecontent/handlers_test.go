package pagecontent

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	Routes(r, svc, nil)
	return r
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHandlers_LocationPage(t *testing.T) {
	h := newTestRouter(t)

	rec, body := get(t, h, "/api/pages/seo/search-engine-optimisation/parnell")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "parnell", body["location"])
	assert.Equal(t, "seo", body["family"])

	rec, _ = get(t, h, "/api/pages/paid-advertisement/google-ads/auckland")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = get(t, h, "/api/pages/hosting-it-security/hosting-it-security/auckland")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Page not found", body["message"])

	rec, _ = get(t, h, "/api/pages/plumbing/x/auckland")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_ShortPaths(t *testing.T) {
	h := newTestRouter(t)

	rec, body := get(t, h, "/api/pages/seo/local-seo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local-seo", body["slug"])
	assert.Nil(t, body["location"])

	rec, body = get(t, h, "/api/pages/seo/parnell")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "search-engine-optimisation", body["slug"])
	assert.Equal(t, "parnell", body["location"])

	rec, _ = get(t, h, "/api/pages/seo/atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_Locations(t *testing.T) {
	h := newTestRouter(t)

	rec, body := get(t, h, "/api/locations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["locations"], 179)
	assert.Equal(t, []any{"north-island", "south-island"}, body["roots"])

	rec, body = get(t, h, "/api/locations/queenstown")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Queenstown", body["name"])
	assert.Equal(t, []any{"arrowtown"}, body["descendants"])

	rec, body = get(t, h, "/api/locations/parnell")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["descendants"])

	rec, _ = get(t, h, "/api/locations/atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = get(t, h, "/api/locations/normalize?q=Ngapuna")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ngapuna-rotorua", body["slug"])

	rec, body = get(t, h, "/api/locations/normalize?q=atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, body["slug"])

	rec, _ = get(t, h, "/api/locations/normalize")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_Services(t *testing.T) {
	h := newTestRouter(t)

	rec, body := get(t, h, "/api/services")
	require.Equal(t, http.StatusOK, rec.Code)
	families := body["families"].([]any)
	require.Len(t, families, 7)
	seo := families[0].(map[string]any)
	assert.Equal(t, "seo", seo["key"])
	assert.Equal(t, "search-engine-optimisation", seo["defaultSlug"])

	rec, body = get(t, h, "/api/services/seo/params")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["params"], 3*179)

	rec, body = get(t, h, "/api/services/hosting/params")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["params"])

	rec, _ = get(t, h, "/api/services/plumbing/params")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
