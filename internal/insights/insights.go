// Package insights produces natural-language financial insights from monthly
// aggregate statistics. The Gemini-backed generator is injected into the
// components that need it; there is no process-wide client state.
package insights

import (
	"context"

	"github.com/shopspring/decimal"
)

// MonthlyStats is the aggregate a generator receives. Net is income minus
// expenses; ByCategory holds expense totals keyed by category id.
type MonthlyStats struct {
	Month            string
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	Net              decimal.Decimal
	TransactionCount int
	ByCategory       map[string]decimal.Decimal
}

// Generator produces up to three insight strings for a month of activity.
type Generator interface {
	Generate(ctx context.Context, stats MonthlyStats) ([]string, error)
}

// MaxInsights bounds the number of insight strings in a report.
const MaxInsights = 3

// Fallback returns the fixed insight set used when generation fails after
// all retries. Always exactly three strings, never empty.
func Fallback() []string {
	return []string{
		"You spent heavily in some categories. Consider optimizing.",
		"Set a clearer budget target for next month.",
		"Recurring expenses might be growing - review them.",
	}
}
