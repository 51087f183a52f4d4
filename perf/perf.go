// Package perf computes read-only performance indicators over a finished
// run's ledger.
package perf

import (
	"fmt"
	"math"

	"github.com/tradekit/replaysim/ledger"
)

// Indicator is evaluated once per completed run.
type Indicator interface {
	Name() string
	Calculate(l *ledger.Ledger) (float64, error)
}

// equity is cash plus invested value at one account row.
func equity(row ledger.AccountRow) float64 {
	return row.Cash + row.Invested
}

// CAGR is the compound annual growth rate of total equity between the
// first and last account rows.
type CAGR struct{}

func (CAGR) Name() string { return "cagr" }

func (CAGR) Calculate(l *ledger.Ledger) (float64, error) {
	rows := l.AccountRows()
	if len(rows) < 2 {
		return 0, fmt.Errorf("perf: cagr needs at least two account rows, have %d", len(rows))
	}
	first, last := rows[0], rows[len(rows)-1]

	start := equity(first)
	if start <= 0 {
		return 0, fmt.Errorf("perf: cagr needs positive starting equity")
	}
	years := last.Date.Sub(first.Date).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0, fmt.Errorf("perf: cagr needs a positive time span")
	}
	return math.Pow(equity(last)/start, 1/years) - 1, nil
}

// ProfitFactor is gross profit over gross loss across all closed lots.
// With profits and no losses it is +Inf.
type ProfitFactor struct{}

func (ProfitFactor) Name() string { return "profit_factor" }

func (ProfitFactor) Calculate(l *ledger.Ledger) (float64, error) {
	var grossProfit, grossLoss float64
	for _, pos := range l.Positions() {
		for _, lot := range pos.ClosedLots {
			gain := lot.Value - lot.OpenPrice*math.Abs(lot.Size)
			if gain >= 0 {
				grossProfit += gain
			} else {
				grossLoss -= gain
			}
		}
	}
	if grossLoss == 0 {
		if grossProfit == 0 {
			return 0, nil
		}
		return math.Inf(1), nil
	}
	return grossProfit / grossLoss, nil
}

// MaxDrawdown is the largest peak-to-trough equity decline, as a fraction
// of the peak.
type MaxDrawdown struct{}

func (MaxDrawdown) Name() string { return "max_drawdown" }

func (MaxDrawdown) Calculate(l *ledger.Ledger) (float64, error) {
	var peak, worst float64
	for _, row := range l.AccountRows() {
		e := equity(row)
		if e > peak {
			peak = e
		}
		if peak > 0 {
			if dd := (peak - e) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst, nil
}
