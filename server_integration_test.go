package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"fintrack/models"
	"fintrack/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	cfg = config.DefaultConfig()
	config.ApplyEnv(&cfg)
	cfg.Uploads.Base = t.TempDir()
	jwtSecret = []byte("integration-secret")
	log = zerolog.Nop()
	decimal.MarshalJSONWithoutQuotes = true
	if err := initDB(); err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := initServices(newGormStore()); err != nil {
		t.Fatalf("init services: %v", err)
	}
	return newRouter()
}

func mustJSON(v any) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)
	username := fmt.Sprintf("user_%d", time.Now().UnixNano())

	// 1. Register user
	resp := performRequest(r, http.MethodPost, "/register", mustJSON(map[string]string{"username": username, "password": "pass123"}), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/register", mustJSON(map[string]string{"username": username, "password": "pass123"}), "", "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second register got %d", resp.Code)
	}

	// 2. Login
	resp = performRequest(r, http.MethodPost, "/login", mustJSON(map[string]string{"username": username, "password": "pass123"}), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Income, expense and a learned category
	today := time.Now().UTC().Format(dateLayout)
	resp = performRequest(r, http.MethodPost, "/api/incomes", mustJSON(map[string]any{"amount": 3000, "source": "Paycheck", "date": today}), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create income failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/api/expenses", mustJSON(map[string]any{"amount": "45.10", "category": "Food", "description": "Corner Grocery", "date": today}), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/api/categories/suggest", mustJSON(map[string]string{"description": "corner grocery"}), token, "application/json")
	var sug map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &sug)
	if sug["suggested_category"] != "Food" {
		t.Fatalf("expected learned category got %v", sug)
	}

	// 4. Budget and status
	month := time.Now().UTC().Format("2006-01")
	resp = performRequest(r, http.MethodPost, "/api/budget", mustJSON(map[string]any{"category": "Food", "amount": 400, "month": month}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("set budget failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/api/budget/status?month="+month, nil, token, "")
	var status struct {
		TotalSpent float64 `json:"total_spent"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &status)
	if resp.Code != 200 || status.TotalSpent != 45.1 {
		t.Fatalf("budget status failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 5. Forecast
	resp = performRequest(r, http.MethodGet, "/api/forecast", nil, token, "")
	var fc struct {
		CurrentBalance float64 `json:"current_balance"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &fc)
	if resp.Code != 200 || fc.CurrentBalance != 2954.9 {
		t.Fatalf("forecast failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Export
	resp = performRequest(r, http.MethodGet, "/api/export/transactions", nil, token, "")
	if resp.Code != 200 || !strings.Contains(resp.Header().Get("Content-Disposition"), "finance_export.csv") {
		t.Fatalf("export failed status=%d headers=%v", resp.Code, resp.Header())
	}
	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected header and two rows got %v (%v)", rows, err)
	}
	if rows[0][3] != "Amount" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	// 7. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/api/expenses", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list expenses got %d", unauth.Code)
	}
}

func loginNewUser(t *testing.T, r http.Handler) (string, uint) {
	t.Helper()
	username := fmt.Sprintf("user_%d", time.Now().UnixNano())
	creds := map[string]string{"username": username, "password": "pass123"}
	if resp := performRequest(r, http.MethodPost, "/register", mustJSON(creds), "", "application/json"); resp.Code != 200 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp := performRequest(r, http.MethodPost, "/login", mustJSON(creds), "", "application/json")
	var login struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &login)
	if login.Token == "" {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/me", nil, login.Token, "")
	var me struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &me)
	if me.ID == 0 {
		t.Fatalf("me failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	return login.Token, me.ID
}

func TestExpenseEditLearnsCategory(t *testing.T) {
	r := setupTestServer(t)
	token, uid := loginNewUser(t, r)
	ctx := context.Background()

	resp := performRequest(r, http.MethodPost, "/api/expenses", mustJSON(map[string]any{"amount": "12.50", "category": " Food ", "description": "Corner Grocery"}), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &created)

	var stored models.Expense
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("load expense: %v", err)
	}
	if stored.Category != "Food" {
		t.Fatalf("expected trimmed category Food got %q", stored.Category)
	}
	m, err := store.FindMapping(ctx, uid, "corner grocery")
	if err != nil || m == nil || m.Category != "Food" || m.Count != 1 {
		t.Fatalf("expected Food/1 after create got %+v (%v)", m, err)
	}

	path := fmt.Sprintf("/api/expenses/%d", created.ID)
	resp = performRequest(r, http.MethodPut, path, mustJSON(map[string]string{"category": "Food"}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("update expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	m, err = store.FindMapping(ctx, uid, "corner grocery")
	if err != nil || m == nil || m.Category != "Food" || m.Count != 2 {
		t.Fatalf("same category should bump count to 2, got %+v (%v)", m, err)
	}

	resp = performRequest(r, http.MethodPut, path, mustJSON(map[string]string{"category": "Shopping"}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("update expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	m, err = store.FindMapping(ctx, uid, "corner grocery")
	if err != nil || m == nil || m.Category != "Shopping" || m.Count != 1 {
		t.Fatalf("new category should replace mapping with count 1, got %+v (%v)", m, err)
	}

	resp = performRequest(r, http.MethodPut, path, mustJSON(map[string]string{"amount": "13"}), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("update expense failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	m, _ = store.FindMapping(ctx, uid, "corner grocery")
	if m == nil || m.Count != 1 {
		t.Fatalf("edits without a category must not learn, got %+v", m)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg = config.DefaultConfig()
	config.ApplyEnv(&cfg)
	log = zerolog.Nop()
	if err := initDB(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
