package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCSVHeaderDetection(t *testing.T) {
	in := "Posted Date,Payee Name,Category,Total\n2024/03/09,Hardware Store,Home,-12.5\n"
	txns, err := ParseCSV(strings.NewReader(in), 7)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 row got %d", len(txns))
	}
	tx := txns[0]
	if tx.Description != "Hardware Store" || !tx.Amount.Equal(decimal.RequireFromString("-12.5")) {
		t.Fatalf("unexpected row %+v", tx)
	}
	if tx.Date.Format("2006-01-02") != "2024-03-09" {
		t.Fatalf("unexpected date %s", tx.Date)
	}
	if len(tx.ExternalID) != 32 {
		t.Fatalf("expected 32 char id got %q", tx.ExternalID)
	}
}

func TestParseCSVDateFormats(t *testing.T) {
	cases := map[string]string{
		"2024-01-31": "2024-01-31",
		"01/31/2024": "2024-01-31",
		"31/01/2024": "2024-01-31",
		"2024/01/31": "2024-01-31",
		"01-31-2024": "2024-01-31",
	}
	for in, want := range cases {
		got, ok := parseCSVDate(in)
		if !ok || got.Format("2006-01-02") != want {
			t.Fatalf("%s: expected %s got %v %v", in, want, got, ok)
		}
	}
	if _, ok := parseCSVDate("Jan 31"); ok {
		t.Fatalf("expected unparsable date")
	}
}

func TestParseCSVExternalIDStable(t *testing.T) {
	in := "date,memo,amount\n2024-01-02,Rent,-900\n"
	a, _ := ParseCSV(strings.NewReader(in), 1)
	b, _ := ParseCSV(strings.NewReader(in), 1)
	c, _ := ParseCSV(strings.NewReader(in), 2)
	if a[0].ExternalID != b[0].ExternalID {
		t.Fatalf("ids differ between runs")
	}
	if a[0].ExternalID == c[0].ExternalID {
		t.Fatalf("ids must differ between users")
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("when,what\n2024-01-01,x\n"), 1); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns got %v", err)
	}
	if _, err := ParseCSV(strings.NewReader(""), 1); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns for empty input got %v", err)
	}
}
