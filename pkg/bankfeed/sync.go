package bankfeed

import (
	"context"
	"time"

	"fintrack/pkg/importer"
	"fintrack/pkg/ledger"
	"fintrack/pkg/logger"
)

// SyncWindow is how far back each sync asks for transactions.
const SyncWindow = 30 * 24 * time.Hour

const unknownDescription = "Unknown Transaction"

// SyncResult is returned to the caller after a sync.
type SyncResult struct {
	Accounts        []Account `json:"accounts"`
	NewTransactions int       `json:"new_transactions"`
	Duplicates      int       `json:"duplicates"`
	Errors          []string  `json:"errors"`
}

type Syncer struct {
	client   *Client
	importer *importer.Importer
	now      func() time.Time
}

func NewSyncer(client *Client, im *importer.Importer) *Syncer {
	return &Syncer{client: client, importer: im, now: time.Now}
}

// Sync pulls the last SyncWindow of transactions and imports the ones not seen before.
func (s *Syncer) Sync(ctx context.Context, userID uint, accessURL string) (SyncResult, error) {
	end := s.now()
	set, err := s.client.Accounts(ctx, accessURL, end.Add(-SyncWindow), end)
	if err != nil {
		return SyncResult{}, err
	}
	txns := ToTransactions(set, end)
	res, err := s.importer.Import(ctx, userID, txns, nil)
	if err != nil {
		return SyncResult{}, err
	}
	l := logger.FromContext(ctx)
	l.Info().
		Int("accounts", len(set.Accounts)).
		Int("new", res.Imported).
		Msg("simplefin sync")
	out := SyncResult{
		Accounts:        set.Accounts,
		NewTransactions: res.Imported,
		Duplicates:      res.Duplicates,
		Errors:          set.Errors,
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return out, nil
}

// ToTransactions flattens an account set. Transactions without an id are
// dropped; a missing posted time falls back to now.
func ToTransactions(set AccountSet, now time.Time) []ledger.Transaction {
	var out []ledger.Transaction
	for _, acct := range set.Accounts {
		for _, t := range acct.Transactions {
			if t.ID == "" {
				continue
			}
			posted := now
			if t.Posted > 0 {
				posted = time.Unix(t.Posted, 0)
			}
			desc := t.Payee
			if desc == "" {
				desc = t.Description
			}
			if desc == "" {
				desc = unknownDescription
			}
			out = append(out, ledger.Transaction{
				ExternalID:  t.ID,
				Date:        ledger.DateOnly(posted.UTC()),
				Description: desc,
				Amount:      t.Amount,
				Source:      desc,
			})
		}
	}
	return out
}
