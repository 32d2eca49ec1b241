// Package forecast projects a user's daily balance 91 days ahead from ledger
// history, recurring paydays and the unspent part of this month's budget.
package forecast

import (
	"context"
	"time"

	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

const (
	// HistoryDays is the trailing window used for burn and income rates.
	HistoryDays = 60
	// ProjectionDays is the number of days after today that get a point.
	ProjectionDays = 90
	// OverrideDivisor spreads a manual monthly income over a flat month.
	OverrideDivisor = 30
)

// PaydayThreshold separates paydays from small income.
var PaydayThreshold = decimal.NewFromInt(100)

// Point is one projected day.
type Point struct {
	Date    string  `json:"date"`
	Balance float64 `json:"balance"`
}

// Result is the forecast returned to callers.
type Result struct {
	CurrentBalance float64         `json:"current_balance"`
	DailyBurn      float64         `json:"daily_burn"`
	DailyIncome    float64         `json:"daily_income"`
	Paydays        map[int]float64 `json:"paydays"`
	Projection     []Point         `json:"projection"`
}

// Engine computes forecasts. It holds no per-user state.
type Engine struct {
	store   ledger.Reader
	balance BalanceSource
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBalanceSource replaces the income-minus-expense starting balance.
func WithBalanceSource(src BalanceSource) Option {
	return func(e *Engine) { e.balance = src }
}

// NewEngine builds an Engine reading from store.
func NewEngine(store ledger.Reader, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	if e.balance == nil {
		e.balance = LedgerBalance{Store: store}
	}
	return e
}

// Today is the engine's current UTC date.
func (e *Engine) Today() time.Time {
	return ledger.DateOnly(e.now().UTC())
}

// Forecast runs the projection for userID.
func (e *Engine) Forecast(ctx context.Context, userID uint) (Result, error) {
	today := e.Today()
	month := ledger.MonthOf(today)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	historyStart := today.AddDate(0, 0, -HistoryDays)

	balance, err := e.balance.CurrentBalance(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	start := balance

	recentSpend, err := e.store.SumExpenses(ctx, userID, &historyStart, nil)
	if err != nil {
		return Result{}, err
	}
	burn := recentSpend.Div(decimal.NewFromInt(HistoryDays))

	rates, err := e.incomeRates(ctx, userID, month, historyStart)
	if err != nil {
		return Result{}, err
	}

	extra, daysLeft, err := e.budgetCatchUp(ctx, userID, month, monthStart, today)
	if err != nil {
		return Result{}, err
	}

	projection := make([]Point, 0, ProjectionDays+1)
	simulated := decimal.Zero
	for i := 0; i <= ProjectionDays; i++ {
		target := today.AddDate(0, 0, i)
		projection = append(projection, Point{Date: target.Format("2006-01-02"), Balance: round2(balance)})

		spend := burn
		if i < daysLeft {
			spend = spend.Add(extra)
		}
		balance = balance.Sub(spend)
		balance = balance.Add(rates.daily)
		simulated = simulated.Add(rates.daily)
		if pay, ok := rates.paydays[target.Day()]; ok {
			balance = balance.Add(pay)
			simulated = simulated.Add(pay)
		}
	}

	dailyIncome := simulated.Div(decimal.NewFromInt(ProjectionDays))
	if rates.override {
		dailyIncome = rates.daily
	}

	paydays := make(map[int]float64, len(rates.paydays))
	for dom, amt := range rates.paydays {
		paydays[dom] = round2(amt)
	}
	return Result{
		CurrentBalance: round2(start),
		DailyBurn:      round2(burn),
		DailyIncome:    round2(dailyIncome),
		Paydays:        paydays,
		Projection:     projection,
	}, nil
}

type incomeRates struct {
	daily    decimal.Decimal
	paydays  map[int]decimal.Decimal
	override bool
}

func (e *Engine) incomeRates(ctx context.Context, userID uint, month string, historyStart time.Time) (incomeRates, error) {
	override, err := e.store.ManualIncomeOverride(ctx, userID, month)
	if err != nil {
		return incomeRates{}, err
	}
	if override != nil {
		return incomeRates{
			daily:    override.Div(decimal.NewFromInt(OverrideDivisor)),
			paydays:  map[int]decimal.Decimal{},
			override: true,
		}, nil
	}
	incomes, err := e.store.ListIncomes(ctx, userID, historyStart)
	if err != nil {
		return incomeRates{}, err
	}
	paydays, small := DetectPaydays(incomes)
	return incomeRates{daily: small.Div(decimal.NewFromInt(HistoryDays)), paydays: paydays}, nil
}

// budgetCatchUp spreads this month's unspent budget over the days left in it.
// daysLeft counts today and is never below 1.
func (e *Engine) budgetCatchUp(ctx context.Context, userID uint, month string, monthStart, today time.Time) (decimal.Decimal, int, error) {
	budgets, err := e.store.ListBudgets(ctx, userID, month)
	if err != nil {
		return decimal.Zero, 0, err
	}
	planned := decimal.Zero
	for _, b := range budgets {
		planned = planned.Add(b.Amount)
	}
	spent, err := e.store.SumExpenses(ctx, userID, &monthStart, nil)
	if err != nil {
		return decimal.Zero, 0, err
	}
	remaining := decimal.Max(decimal.Zero, planned.Sub(spent))

	nextMonth := monthStart.AddDate(0, 1, 0)
	daysLeft := int(nextMonth.Sub(today).Hours() / 24)
	if daysLeft < 1 {
		daysLeft = 1
	}
	return remaining.Div(decimal.NewFromInt(int64(daysLeft))), daysLeft, nil
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
