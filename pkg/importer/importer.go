// Package importer turns bank exports (CSV, OFX, QFX) and bank feed
// transactions into incomes and expenses, skipping anything already imported.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedFormat is returned for files that are not .csv, .ofx or .qfx.
var ErrUnsupportedFormat = errors.New("unsupported file format, use CSV, OFX or QFX")

// ImportedSource is the income source recorded for imported deposits.
const ImportedSource = "Imported"

// Categorizer assigns a category to an imported expense.
type Categorizer interface {
	AutoCategorize(ctx context.Context, userID uint, description string) (string, error)
}

// Result summarizes one import run.
type Result struct {
	BatchID    string `json:"batch_id"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
}

type Importer struct {
	store ledger.TransactionStore
	cat   Categorizer
	now   func() time.Time
}

func New(store ledger.TransactionStore, cat Categorizer) *Importer {
	return &Importer{store: store, cat: cat, now: time.Now}
}

// Import stores txns for the user. Rows whose external id already exists in
// either table count as duplicates; zero amounts are ignored. When accountID
// is set and something was imported, the net amount is added to that account.
func (im *Importer) Import(ctx context.Context, userID uint, txns []ledger.Transaction, accountID *uint) (Result, error) {
	res := Result{BatchID: uuid.NewString()}
	log := logger.FromContext(ctx).With().Str("batch", res.BatchID).Uint("user_id", userID).Logger()
	net := decimal.Zero

	for _, tx := range txns {
		if tx.Amount.IsZero() {
			continue
		}
		if tx.ExternalID != "" {
			exists, err := im.store.ExternalIDExists(ctx, userID, tx.ExternalID)
			if err != nil {
				return res, err
			}
			if exists {
				res.Duplicates++
				continue
			}
		}
		if tx.AccountID == nil {
			tx.AccountID = accountID
		}

		var err error
		if tx.Amount.IsNegative() {
			var category string
			category, err = im.cat.AutoCategorize(ctx, userID, tx.Description)
			if err != nil {
				return res, err
			}
			err = im.store.InsertExpense(ctx, userID, tx, category)
		} else {
			source := tx.Source
			if source == "" {
				source = ImportedSource
			}
			err = im.store.InsertIncome(ctx, userID, tx, source)
		}
		if errors.Is(err, ledger.ErrDuplicate) {
			res.Duplicates++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Imported++
		net = net.Add(tx.Amount)
	}

	if accountID != nil && res.Imported > 0 {
		if err := im.store.AdjustAccountBalance(ctx, userID, *accountID, net, im.now().UTC()); err != nil {
			return res, fmt.Errorf("update account %d: %w", *accountID, err)
		}
	}
	log.Info().Int("imported", res.Imported).Int("duplicates", res.Duplicates).Msg("import finished")
	return res, nil
}

// Parse reads a bank export, picking the parser from the file extension.
func Parse(userID uint, filename string, r io.Reader) ([]ledger.Transaction, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r, userID)
	case ".ofx", ".qfx":
		return ParseOFX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ImportFile parses and imports one uploaded or dropped file.
func (im *Importer) ImportFile(ctx context.Context, userID uint, filename string, r io.Reader, accountID *uint) (Result, error) {
	txns, err := Parse(userID, filename, r)
	if err != nil {
		return Result{}, err
	}
	return im.Import(ctx, userID, txns, accountID)
}
