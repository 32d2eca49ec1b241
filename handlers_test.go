package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/pkg/config"
	"fintrack/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// newTestRouter wires the domain handlers over an in-memory ledger. Routes that
// go straight to gorm are covered by the integration test.
func newTestRouter(t *testing.T) (*gin.Engine, *ledger.MemoryStore, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg = config.DefaultConfig()
	jwtSecret = []byte("test-secret")
	log = zerolog.Nop()
	decimal.MarshalJSONWithoutQuotes = true
	mem := ledger.NewMemoryStore()
	if err := initServices(mem); err != nil {
		t.Fatalf("init services: %v", err)
	}
	tok, err := issueAccessToken(1, "alice", "user", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return newRouter(), mem, tok
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return performRequest(r, method, path, &buf, token, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	r, _, _ := newTestRouter(t)
	rec := performRequest(r, http.MethodGet, "/health", nil, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestAPIRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)
	if rec := performRequest(r, http.MethodGet, "/api/forecast", nil, "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodGet, "/api/forecast", nil, "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token got %d", rec.Code)
	}
	expired, _ := issueAccessToken(1, "alice", "user", -time.Minute)
	if rec := performRequest(r, http.MethodGet, "/api/forecast", nil, expired, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", rec.Code)
	}
}

func TestForecastHandler(t *testing.T) {
	r, mem, tok := newTestRouter(t)
	today := ledger.DateOnly(time.Now().UTC())
	mem.AddIncome(1, today.AddDate(0, 0, -5), decimal.NewFromInt(1000), "Job")
	mem.AddExpense(1, today.AddDate(0, 0, -3), decimal.NewFromInt(400), "Rent", "")
	mem.AddIncome(2, today, decimal.NewFromInt(99999), "someone else")

	rec := performRequest(r, http.MethodGet, "/api/forecast", nil, tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forecast status %d body=%s", rec.Code, rec.Body.String())
	}
	res := decodeBody[struct {
		CurrentBalance float64 `json:"current_balance"`
		Projection     []struct {
			Date    string  `json:"date"`
			Balance float64 `json:"balance"`
		} `json:"projection"`
	}](t, rec)
	if res.CurrentBalance != 600 {
		t.Fatalf("expected balance 600 got %v", res.CurrentBalance)
	}
	if len(res.Projection) != 91 || res.Projection[0].Date != today.Format(dateLayout) {
		t.Fatalf("unexpected projection %d points starting %v", len(res.Projection), res.Projection)
	}
}

func TestSummaryHandlerDateRange(t *testing.T) {
	r, mem, tok := newTestRouter(t)
	mem.AddIncome(1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(2000), "Job")
	mem.AddExpense(1, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("12.50"), "Food", "")
	mem.AddExpense(1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100), "Food", "")

	rec := performRequest(r, http.MethodGet, "/api/summary?start_date=2024-05-01&end_date=2024-05-31", nil, tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status %d", rec.Code)
	}
	got := decodeBody[map[string]float64](t, rec)
	if got["total_income"] != 2000 || got["total_expense"] != 12.5 || got["net"] != 1987.5 {
		t.Fatalf("unexpected summary %v", got)
	}
}

func TestSuggestCategoryHandler(t *testing.T) {
	r, _, tok := newTestRouter(t)
	if err := learner.Learn(context.Background(), 1, "Corner Grocery", "Food"); err != nil {
		t.Fatalf("learn: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/api/categories/suggest", tok, map[string]string{"description": "corner grocery"})
	got := decodeBody[map[string]any](t, rec)
	if got["suggested_category"] != "Food" || got["confidence"] != "high" {
		t.Fatalf("expected high confidence Food got %v", got)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/suggest-category", tok, map[string]string{"description": "CORNER GROCERY #12"})
	got = decodeBody[map[string]any](t, rec)
	if got["suggested_category"] != "Food" || got["confidence"] != "medium" {
		t.Fatalf("expected medium confidence Food got %v", got)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/categories/suggest", tok, map[string]string{"description": "airline"})
	got = decodeBody[map[string]any](t, rec)
	if got["suggested_category"] != nil || got["confidence"] != nil {
		t.Fatalf("expected nulls got %v", got)
	}
}

func TestCategoryHandlers(t *testing.T) {
	r, _, tok := newTestRouter(t)

	rec := performRequest(r, http.MethodGet, "/api/categories", nil, tok, "")
	names := decodeBody[[]string](t, rec)
	if len(names) != len(ledger.DefaultCategories) {
		t.Fatalf("expected seeded defaults got %v", names)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/categories", tok, map[string]string{"name": "Pets"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d body=%s", rec.Code, rec.Body.String())
	}
	pets := decodeBody[ledger.CategoryRow](t, rec)

	if rec = doJSON(t, r, http.MethodPost, "/api/categories", tok, map[string]string{"name": "Pets"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate got %d", rec.Code)
	}
	if rec = doJSON(t, r, http.MethodPost, "/api/categories", tok, map[string]string{"name": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name got %d", rec.Code)
	}

	path := "/api/categories/" + fmt.Sprint(pets.ID)
	if rec = doJSON(t, r, http.MethodPut, path, tok, map[string]string{"name": "Animals"}); rec.Code != http.StatusOK {
		t.Fatalf("rename status %d body=%s", rec.Code, rec.Body.String())
	}
	if rec = performRequest(r, http.MethodDelete, path, nil, tok, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status %d", rec.Code)
	}
	if rec = performRequest(r, http.MethodDelete, path, nil, tok, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete got %d", rec.Code)
	}
	if rec = performRequest(r, http.MethodDelete, "/api/categories/abc", nil, tok, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodGet, "/api/categories/extended", nil, tok, "")
	rows := decodeBody[[]ledger.CategoryRow](t, rec)
	for _, row := range rows {
		if row.Name == ledger.DefaultCategory {
			rec = performRequest(r, http.MethodDelete, "/api/categories/"+fmt.Sprint(row.ID), nil, tok, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("deleting the default category should be refused, got %d", rec.Code)
			}
			return
		}
	}
	t.Fatalf("default category missing from %v", rows)
}

func uploadCSV(t *testing.T, r http.Handler, tok, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	w, _ := mw.CreateFormFile("file", name)
	_, _ = w.Write([]byte(content))
	_ = mw.Close()
	return performRequest(r, http.MethodPost, "/api/transactions/import", &buf, tok, mw.FormDataContentType())
}

func TestImportHandler(t *testing.T) {
	r, mem, tok := newTestRouter(t)
	csv := "Date,Description,Amount\n2024-05-01,Payroll,2500\n2024-05-03,Corner Grocery,-54.20\n"

	rec := uploadCSV(t, r, tok, "bank.csv", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status %d body=%s", rec.Code, rec.Body.String())
	}
	res := decodeBody[map[string]any](t, rec)
	if res["imported"] != float64(2) || res["duplicates"] != float64(0) || res["batch_id"] == "" {
		t.Fatalf("unexpected result %v", res)
	}
	rec = uploadCSV(t, r, tok, "bank.csv", csv)
	res = decodeBody[map[string]any](t, rec)
	if res["imported"] != float64(0) || res["duplicates"] != float64(2) {
		t.Fatalf("reimport should only find duplicates, got %v", res)
	}
	if exp := mem.Expenses(1); len(exp) != 1 || exp[0].Category != ledger.DefaultCategory {
		t.Fatalf("expected one uncategorized expense got %+v", exp)
	}

	if rec = uploadCSV(t, r, tok, "bank.pdf", csv); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format got %d", rec.Code)
	}
	if rec = uploadCSV(t, r, tok, "bank.csv", "foo,bar\n1,2\n"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing columns got %d", rec.Code)
	}
	if rec = performRequest(r, http.MethodPost, "/api/transactions/import", nil, tok, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file got %d", rec.Code)
	}
}

func TestInvalidMonthIsBadRequest(t *testing.T) {
	r, _, tok := newTestRouter(t)
	rec := performRequest(r, http.MethodGet, "/api/budget/projection?month=2024-13", nil, tok, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestBankRoutesDisabled(t *testing.T) {
	r, _, tok := newTestRouter(t)
	if rec := performRequest(r, http.MethodPost, "/simplefin/sync", nil, tok, ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the bank feed is off got %d", rec.Code)
	}
}
