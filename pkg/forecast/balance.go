package forecast

import (
	"context"
	"fmt"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

// BalanceSource yields the starting balance of a projection.
type BalanceSource interface {
	CurrentBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
}

// LedgerBalance is all-time income minus all-time expense.
type LedgerBalance struct {
	Store ledger.Reader
}

func (b LedgerBalance) CurrentBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	in, err := b.Store.SumIncomes(ctx, userID, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := b.Store.SumExpenses(ctx, userID, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return in.Sub(out), nil
}

// AccountBalance sums the balances of the user's accounts.
type AccountBalance struct {
	Store ledger.Reader
}

func (b AccountBalance) CurrentBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	return b.Store.SumAccountBalances(ctx, userID)
}

// Balance source names accepted by NewBalanceSource.
const (
	SourceLedger   = "ledger"
	SourceAccounts = "accounts"
)

// NewBalanceSource maps a configured name onto a BalanceSource.
func NewBalanceSource(name string, store ledger.Reader) (BalanceSource, error) {
	switch name {
	case "", SourceLedger:
		return LedgerBalance{Store: store}, nil
	case SourceAccounts:
		return AccountBalance{Store: store}, nil
	}
	return nil, fmt.Errorf("unknown balance source %q", name)
}
