package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(Defaults{Rate: 0.05, Dividend: 0.05, Workers: 2}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestPrice(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/v1/price?type=call&spot=100&strike=110&years=0.054757&vol=0.2")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var row map[string]any
	require.NoError(t, json.Unmarshal(body, &row))
	assert.Equal(t, true, row["solved"])
	assert.Equal(t, "0.2", row["implied_vol"])
	assert.Equal(t, 0.05, row["rate"]) // default applied
	assert.NotNil(t, row["delta"])
}

func TestPriceExplicitRate(t *testing.T) {
	ts := newTestServer(t)
	_, body := get(t, ts.URL+"/v1/price?type=put&spot=100&strike=100&years=1&vol=0.2&rate=0&dividend=0")

	var row map[string]any
	require.NoError(t, json.Unmarshal(body, &row))
	assert.Equal(t, 0.0, row["rate"])
	assert.Equal(t, 0.0, row["dividend"])
}

func TestImpliedVol(t *testing.T) {
	ts := newTestServer(t)

	t.Run("solved", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/v1/iv?type=call&spot=100&strike=105&years=0.25&rate=0.03&dividend=0.01&price=2.5")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var row map[string]any
		require.NoError(t, json.Unmarshal(body, &row))
		assert.Equal(t, "2.5", row["price"])
		assert.NotNil(t, row["implied_vol"])
	})

	t.Run("below intrinsic", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/v1/iv?type=call&spot=100&strike=90&years=0.05&price=1")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var row map[string]any
		require.NoError(t, json.Unmarshal(body, &row))
		assert.Equal(t, false, row["solved"])
		assert.Nil(t, row["implied_vol"])
		assert.Contains(t, row["error"], "below intrinsic")
	})
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		path  string
		error string
	}{
		{"missing spot", "/v1/price?type=call&strike=100&years=1&vol=0.2", "spot"},
		{"not a number", "/v1/price?type=call&spot=abc&strike=100&years=1&vol=0.2", "spot"},
		{"bad type", "/v1/price?type=fly&spot=100&strike=100&years=1&vol=0.2", "invalid quote"},
		{"price on price route", "/v1/price?type=call&spot=100&strike=100&years=1&price=3", "/v1/iv"},
		{"vol on iv route", "/v1/iv?type=call&spot=100&strike=100&years=1&vol=0.2", "/v1/price"},
		{"iv without price", "/v1/iv?type=call&spot=100&strike=100&years=1", "exactly one"},
		{"infinite spot", "/v1/price?type=call&spot=Inf&strike=100&years=0.5&vol=0.2", "finite"},
		{"infinite years", "/v1/price?type=call&spot=100&strike=100&years=%2BInf&vol=0.2", "finite"},
		{"nan price", "/v1/iv?type=call&spot=100&strike=100&years=1&price=NaN", "finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e map[string]string
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Contains(t, e["error"], tt.error)
		})
	}
}

func TestChain(t *testing.T) {
	ts := newTestServer(t)
	body := `[
		{"id":"a","type":"call","spot":100,"strike":110,"rate":0.05,"dividend":0.05,"years":0.054757,"vol":0.2},
		{"id":"b","type":"call","spot":100,"strike":90,"rate":0.05,"dividend":0.05,"years":0.054757,"price":1}
	]`

	resp, err := http.Post(ts.URL+"/v1/chain", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["id"])
	assert.Equal(t, true, rows[0]["solved"])
	assert.Equal(t, false, rows[1]["solved"])
}

func TestChainRejectsInvalid(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`not json`, `[{"type":"call","spot":-1,"strike":100,"years":1,"vol":0.2}]`} {
		resp, err := http.Post(ts.URL+"/v1/chain", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	get(t, ts.URL+"/v1/price?type=call&spot=100&strike=110&years=0.5&vol=0.2")
	get(t, ts.URL+"/v1/iv?type=call&spot=100&strike=90&years=0.05&price=1")

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := string(body)
	assert.Contains(t, out, `http_server_requests_total{method="GET",path="/v1/price",status="200"} 1`)
	assert.Contains(t, out, `http_server_requests_total{method="GET",path="/v1/iv",status="422"} 1`)
	assert.Contains(t, out, "optgreeks_iv_solve_failures_total 1")
	assert.Contains(t, out, "optgreeks_quotes_evaluated_total 2")
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := get(t, ts.URL+"/v1/chain")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
