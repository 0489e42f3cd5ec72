package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llazzari/personal-finance/internal/app"
	"github.com/llazzari/personal-finance/internal/config"
	"github.com/llazzari/personal-finance/internal/logger"
)

type predictFunc func([]string) ([]string, error)

func (f predictFunc) Predict(d []string) ([]string, error) { return f(d) }

func constant(label string) predictFunc {
	return func(d []string) ([]string, error) {
		out := make([]string, len(d))
		for i := range out {
			out[i] = label
		}
		return out, nil
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Profiles = []string{"home"}

	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	a, err := app.New(cfg, logger.NewWithWriter(&logs), reg)
	require.NoError(t, err)
	a.Categorizer.Subcategories = constant("dining_out")
	a.Categorizer.Incomes = constant("salary")

	srv := httptest.NewServer(NewServer(a, reg).Router())
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv, a
}

func dataURL(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return "data:text/csv;base64," + base64.StdEncoding.EncodeToString(raw)
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func upload(t *testing.T, srv *httptest.Server, save bool) UploadResponse {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/uploads", UploadRequest{
		Profile:  "home",
		Context:  "statement",
		Bank:     "Nubank",
		Contents: []string{dataURL(t, "nubank_statement.csv")},
		Save:     save,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[UploadResponse](t, resp)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListBanks(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/banks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	banks := decodeBody[[]Bank](t, resp)
	assert.Len(t, banks, 9)
	assert.Equal(t, "statement", banks[0].Context)
}

func TestUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	got := upload(t, srv, false)

	assert.NotEmpty(t, got.BatchID)
	require.Len(t, got.Expenses, 2)
	require.Len(t, got.Incomes, 1)
	assert.Equal(t, "2024-03-01", got.Expenses[0].Date)
	assert.Equal(t, "45.9", got.Expenses[0].Amount.String())
	assert.Equal(t, 0, got.Expenses[0].ID)
	assert.Equal(t, 1, got.Expenses[1].ID)
}

func TestUploadRejected(t *testing.T) {
	srv, a := newTestServer(t)
	bad := "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte("foo,bar\n1,2\n"))

	resp := do(t, http.MethodPost, srv.URL+"/api/uploads", UploadRequest{
		Profile:  "home",
		Context:  "statement",
		Bank:     "Nubank",
		Contents: []string{bad},
		Save:     true,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "parse", body.Kind)

	rows, err := a.Table(t.Context(), "home", "expenses")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUploadBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing contents", UploadRequest{Profile: "home", Context: "statement", Bank: "Nubank"}, http.StatusBadRequest},
		{"bad context", UploadRequest{Profile: "home", Context: "savings", Bank: "Nubank", Contents: []string{"x"}}, http.StatusBadRequest},
		{"unknown bank", UploadRequest{Profile: "home", Context: "statement", Bank: "Acme", Contents: []string{"x"}}, http.StatusNotFound},
		{"unknown profile", UploadRequest{Profile: "work", Context: "statement", Bank: "Nubank", Contents: []string{"x"}}, http.StatusNotFound},
		{"not json", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/api/uploads", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCategorize(t *testing.T) {
	srv, _ := newTestServer(t)
	batch := upload(t, srv, false)

	resp := do(t, http.MethodPost, srv.URL+"/api/categorize", CategorizeRequest{Rows: batch.Expenses})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[CategorizeResponse](t, resp)
	assert.True(t, got.Updated)
	require.Len(t, got.Rows, 2)
	for _, r := range got.Rows {
		assert.Equal(t, "dining_out", *r.Subcategory)
		assert.Equal(t, "food", *r.Category)
	}

	// Everything categorized: no update, rows echoed back.
	resp = do(t, http.MethodPost, srv.URL+"/api/categorize", CategorizeRequest{Rows: got.Rows})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeBody[CategorizeResponse](t, resp)
	assert.False(t, again.Updated)
	assert.Len(t, again.Rows, 2)

	resp = do(t, http.MethodPost, srv.URL+"/api/categorize", CategorizeRequest{Rows: batch.Incomes, Incomes: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inc := decodeBody[CategorizeResponse](t, resp)
	assert.Equal(t, "salary", *inc.Rows[0].Category)

	resp = do(t, http.MethodPost, srv.URL+"/api/categorize", CategorizeRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeBody[CategorizeResponse](t, resp).Updated)
}

func TestTables(t *testing.T) {
	srv, _ := newTestServer(t)
	batch := upload(t, srv, true)

	resp := do(t, http.MethodGet, srv.URL+"/api/tables/home/expenses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decodeBody[TableResponse](t, resp)
	require.Len(t, table.Rows, len(batch.Expenses))
	assert.Empty(t, table.Rows[0].Date)

	sub := "Restaurantes"
	table.Rows[0].Subcategory = &sub
	resp = do(t, http.MethodPut, srv.URL+"/api/tables/home/expenses", TableRequest{Rows: table.Rows[:1]})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/home/expenses", nil)
	table = decodeBody[TableResponse](t, resp)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "dining_out", *table.Rows[0].Subcategory)
	assert.Equal(t, "food", *table.Rows[0].Category)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/home/savings", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/work/expenses", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutTableInvalidRows(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodPut, srv.URL+"/api/tables/home/expenses", TableRequest{Rows: []Row{{Year: 2024, Month: 13, Bank: "x", Description: "y"}}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCategorizeTable(t *testing.T) {
	srv, _ := newTestServer(t)
	upload(t, srv, true)

	resp := do(t, http.MethodPost, srv.URL+"/api/tables/home/expenses/categorize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[CategorizeResponse](t, resp).Updated)
}

func TestReports(t *testing.T) {
	srv, _ := newTestServer(t)
	upload(t, srv, true)
	resp := do(t, http.MethodPost, srv.URL+"/api/tables/home/expenses/categorize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodPost, srv.URL+"/api/tables/home/incomes/categorize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	base := srv.URL + "/api/reports/home"

	resp = do(t, http.MethodGet, base+"/years", nil)
	assert.Equal(t, map[string][]int{"years": {2024}}, decodeBody[map[string][]int](t, resp))

	resp = do(t, http.MethodGet, base+"/months?year=2024", nil)
	assert.Equal(t, map[string][]int{"months": {3}}, decodeBody[map[string][]int](t, resp))

	resp = do(t, http.MethodGet, base+"/monthly?year=2024&month=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	monthly := decodeBody[MonthlyReport](t, resp)
	assert.Equal(t, "145.8", monthly.Total.String())
	require.Len(t, monthly.Subcategories, 1)
	assert.Equal(t, "food", monthly.Subcategories[0].Category)
	require.Len(t, monthly.Incomes, 1)
	assert.Equal(t, "salary", monthly.Incomes[0].Category)

	resp = do(t, http.MethodGet, base+"/evolution?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), `"month_name":"Mar"`)

	resp = do(t, http.MethodGet, base+"/yearly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), `"type":"incomes"`)

	resp = do(t, http.MethodGet, base+"/categories?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), `"category":"food"`)

	resp = do(t, http.MethodGet, base+"/months", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, http.MethodGet, base+"/monthly?year=2024&month=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportsEmptyProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/reports/home/evolution?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"points":[]}`, readAll(t, resp))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	upload(t, srv, false)

	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	assert.Contains(t, body, `finboard_uploads_total{bank="Nubank",context="statement",outcome="ok"} 1`)
	assert.Contains(t, body, "finboard_pipeline_duration_seconds")
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	_, err := sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	return sb.String()
}
