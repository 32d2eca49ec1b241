package forecast

import (
	"fintrack/pkg/ledger"

	"github.com/shopspring/decimal"
)

// DetectPaydays buckets incomes above PaydayThreshold by day of month and
// keeps a running average per bucket. Everything else is summed into small.
func DetectPaydays(incomes []ledger.IncomePoint) (paydays map[int]decimal.Decimal, small decimal.Decimal) {
	paydays = map[int]decimal.Decimal{}
	seen := map[int]int64{}
	small = decimal.Zero
	for _, in := range incomes {
		if !in.Amount.GreaterThan(PaydayThreshold) {
			small = small.Add(in.Amount)
			continue
		}
		dom := in.Date.Day()
		seen[dom]++
		avg := paydays[dom]
		// avg += (x - avg) / n
		paydays[dom] = avg.Add(in.Amount.Sub(avg).Div(decimal.NewFromInt(seen[dom])))
	}
	return paydays, small
}
