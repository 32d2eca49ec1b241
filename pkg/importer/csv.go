package importer

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

// ErrMissingColumns is returned when a CSV header lacks a date, description or amount column.
var ErrMissingColumns = errors.New("csv needs date, description and amount columns")

var csvDateLayouts = []string{"2006-01-02", "01/02/2006", "02/01/2006", "2006/01/02", "01-02-2006"}

var (
	descHints   = []string{"desc", "payee", "memo", "name"}
	amountHints = []string{"amount", "value", "total", "price"}
)

func findColumn(header []string, hints ...string) int {
	for i, h := range header {
		lh := strings.ToLower(h)
		for _, hint := range hints {
			if strings.Contains(lh, hint) {
				return i
			}
		}
	}
	return -1
}

// ParseCSV reads a bank export. Columns are found by header name; rows with
// an unreadable date or amount are skipped. The external id is a content hash
// so re-importing the same file finds duplicates.
func ParseCSV(r io.Reader, userID uint) ([]ledger.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	dateCol := findColumn(header, "date")
	descCol := findColumn(header, descHints...)
	amountCol := findColumn(header, amountHints...)
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return nil, ErrMissingColumns
	}
	need := max(dateCol, descCol, amountCol)

	var out []ledger.Transaction
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) <= need {
			continue
		}
		date, ok := parseCSVDate(strings.TrimSpace(rec[dateCol]))
		if !ok {
			continue
		}
		amount, err := parseCSVAmount(rec[amountCol])
		if err != nil {
			continue
		}
		desc := strings.TrimSpace(rec[descCol])
		out = append(out, ledger.Transaction{
			ExternalID:  csvExternalID(date, desc, amount, userID),
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
	}
	return out, nil
}

func parseCSVDate(s string) (time.Time, bool) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCSVAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

func csvExternalID(date time.Time, desc string, amount decimal.Decimal, userID uint) string {
	raw := fmt.Sprintf("csv_%s_%s_%s_%d", date.Format("2006-01-02"), desc, amount.String(), userID)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:32]
}
