package bankfeed

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/pkg/categorize"
	"fintrack/pkg/importer"
	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

const accountsBody = `{
  "errors": [],
  "accounts": [{
    "id": "acct-1", "name": "Checking", "currency": "USD",
    "balance": "1520.10", "balance-date": 1717286400,
    "transactions": [
      {"id": "t1", "posted": 1717200000, "amount": "-42.50", "description": "POS 1234", "payee": "Corner Grocery"},
      {"id": "t2", "posted": 1717286400, "amount": "2000.00", "description": "ACME PAYROLL"},
      {"id": "", "posted": 1717286400, "amount": "-1.00", "description": "no id"}
    ]
  }]
}`

func bridge(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/simplefin/create/abc", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte("https://u:p@bridge.test/simplefin\n"))
	})
	mux.HandleFunc("/simplefin/accounts", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("bad credentials"))
			return
		}
		if r.URL.Query().Get("start-date") == "" || r.URL.Query().Get("end-date") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(accountsBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func accessURL(srv *httptest.Server, user string) string {
	return strings.Replace(srv.URL, "http://", "http://"+user+"@", 1) + "/simplefin"
}

func TestClaim(t *testing.T) {
	srv := bridge(t)
	c := NewClient(srv.Client())
	claim := srv.URL + "/simplefin/create/abc"

	got, err := c.Claim(context.Background(), base64.StdEncoding.EncodeToString([]byte(claim)))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got != "https://u:p@bridge.test/simplefin" {
		t.Fatalf("unexpected access url %q", got)
	}
	if got, err := c.Claim(context.Background(), claim); err != nil || got == "" {
		t.Fatalf("plain url claim: %q %v", got, err)
	}

	var se *StatusError
	if _, err := c.Claim(context.Background(), srv.URL+"/simplefin/create/missing"); !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError got %v", err)
	}
	if _, err := c.Claim(context.Background(), "%%%"); !errors.Is(err, ErrBadSetupToken) {
		t.Fatalf("expected ErrBadSetupToken got %v", err)
	}
}

func TestAccounts(t *testing.T) {
	srv := bridge(t)
	c := NewClient(srv.Client())
	end := time.Now()
	set, err := c.Accounts(context.Background(), accessURL(srv, "u:p"), end.Add(-SyncWindow), end)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(set.Accounts) != 1 || len(set.Accounts[0].Transactions) != 3 {
		t.Fatalf("unexpected set %+v", set)
	}
	if !set.Accounts[0].Balance.Equal(decimal.RequireFromString("1520.10")) {
		t.Fatalf("unexpected balance %s", set.Accounts[0].Balance)
	}

	var se *StatusError
	if _, err := c.Accounts(context.Background(), accessURL(srv, "u:wrong"), end, end); !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError got %v", err)
	}
}

func TestIsSetupToken(t *testing.T) {
	if !IsSetupToken("https://bridge.test/simplefin/create/xyz") {
		t.Fatalf("claim url is a setup token")
	}
	if IsSetupToken("https://u:p@bridge.test/simplefin") {
		t.Fatalf("access url is not a setup token")
	}
	if !IsSetupToken(strings.Repeat("A", 60)) {
		t.Fatalf("long base64 is a setup token")
	}
}

func TestSyncImportsOnce(t *testing.T) {
	srv := bridge(t)
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	learner := categorize.NewLearner(store)
	if err := learner.Learn(ctx, 1, "Corner Grocery", "Food"); err != nil {
		t.Fatalf("learn: %v", err)
	}
	s := NewSyncer(NewClient(srv.Client()), importer.New(store, learner))

	res, err := s.Sync(ctx, 1, accessURL(srv, "u:p"))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.NewTransactions != 2 || len(res.Accounts) != 1 || res.Errors == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	exp := store.Expenses(1)
	if len(exp) != 1 || exp[0].Category != "Food" || exp[0].Description != "Corner Grocery" {
		t.Fatalf("unexpected expenses %+v", exp)
	}
	inc := store.Incomes(1)
	if len(inc) != 1 || inc[0].Source != "ACME PAYROLL" {
		t.Fatalf("unexpected incomes %+v", inc)
	}

	again, err := s.Sync(ctx, 1, accessURL(srv, "u:p"))
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if again.NewTransactions != 0 || again.Duplicates != 2 {
		t.Fatalf("expected only duplicates got %+v", again)
	}
}

func TestToTransactionsFallbacks(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	set := AccountSet{Accounts: []Account{{Transactions: []Transaction{{ID: "x", Amount: decimal.NewFromInt(-5)}}}}}
	txns := ToTransactions(set, now)
	if len(txns) != 1 || txns[0].Description != unknownDescription {
		t.Fatalf("unexpected %+v", txns)
	}
	if !txns[0].Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("missing posted time should use now, got %s", txns[0].Date)
	}
}
