package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fintrack/pkg/importer"
	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"
	"fintrack/pkg/receipt"
)

// Scanner reads a receipt image. receipt.ExtractTotal in production.
type Scanner func(path string) (receipt.Scan, error)

// Dispatcher routes inbox files for one user: statements to the importer,
// images to the receipt scanner.
type Dispatcher struct {
	UserID    uint
	AccountID *uint
	Importer  *importer.Importer
	Store     ledger.TransactionStore
	Cat       importer.Categorizer
	Scan      Scanner
	Now       func() time.Time
}

// Handle implements Handler.
func (d *Dispatcher) Handle(ctx context.Context, path string) error {
	name := filepath.Base(path)
	switch {
	case IsStatement(name):
		return d.importStatement(ctx, path)
	case IsImage(name):
		return d.fileReceipt(ctx, path)
	}
	return importer.ErrUnsupportedFormat
}

func (d *Dispatcher) importStatement(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := d.Importer.ImportFile(ctx, d.UserID, filepath.Base(path), f, d.AccountID)
	if err != nil {
		return err
	}
	lg := logger.FromContext(ctx)
	lg.Info().
		Str("file", filepath.Base(path)).
		Int("imported", res.Imported).
		Int("duplicates", res.Duplicates).
		Msg("statement imported")
	return nil
}

// fileReceipt files the scanned total as an expense. The external id is the
// image hash, so dropping the same photo twice files it once.
func (d *Dispatcher) fileReceipt(ctx context.Context, path string) error {
	id, err := fileID(path)
	if err != nil {
		return err
	}
	exists, err := d.Store.ExternalIDExists(ctx, d.UserID, id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	scan, err := d.Scan(path)
	if err != nil {
		return fmt.Errorf("scan receipt: %w", err)
	}
	category, err := d.Cat.AutoCategorize(ctx, d.UserID, scan.Merchant)
	if err != nil {
		lg := logger.FromContext(ctx)
		lg.Warn().Err(err).Msg("categorize receipt")
	}
	desc := scan.Merchant
	if desc == "" {
		desc = "Receipt " + filepath.Base(path)
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	tx := ledger.Transaction{
		ExternalID:  id,
		Date:        ledger.DateOnly(now().UTC()),
		Description: desc,
		Amount:      scan.Total.Neg(),
		AccountID:   d.AccountID,
	}
	if err := d.Store.InsertExpense(ctx, d.UserID, tx, category); err != nil && !errors.Is(err, ledger.ErrDuplicate) {
		return err
	}
	lg := logger.FromContext(ctx)
	lg.Info().
		Str("file", filepath.Base(path)).
		Str("total", scan.Total.StringFixed(2)).
		Str("category", category).
		Msg("receipt filed")
	return nil
}

func fileID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "receipt_" + hex.EncodeToString(h.Sum(nil))[:32], nil
}
