// Package backtest wires a bar source, ledger, strategy stack and journal
// into one replay run.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/tradekit/replaysim/config"
	"github.com/tradekit/replaysim/journal"
	"github.com/tradekit/replaysim/ledger"
	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/perf"
	"github.com/tradekit/replaysim/pkg/id"
	"github.com/tradekit/replaysim/sequencer"
	"github.com/tradekit/replaysim/strategies"
)

// Runner drives one replay run. Source and Config are required; an empty
// Stack falls back to the configured strategy name. Journal may be nil.
type Runner struct {
	Source     sequencer.BarSource
	Config     *config.Config
	Stack      []ledger.Strategy
	Journal    journal.Journal
	Indicators []perf.Indicator
	Dataset    string
	Log        *slog.Logger
}

// Run replays the source to exhaustion and returns the run summary.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Source == nil {
		return Result{}, fmt.Errorf("backtest: Source is required")
	}
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	led, err := ledger.New(cfg, ledger.WithLogger(log))
	if err != nil {
		return Result{}, err
	}

	stack := r.Stack
	if len(stack) == 0 {
		strat, err := strategies.ByName(cfg.Strategy, led)
		if err != nil {
			return Result{}, fmt.Errorf("backtest: %w", err)
		}
		stack = []ledger.Strategy{strat}
	}
	for _, s := range stack {
		led.AddStrategy(s)
	}

	from, _ := cfg.FromTime()
	to, _ := cfg.ToTime()
	seq := sequencer.New(r.Source, sequencer.WithBounds(from, to), sequencer.WithLogger(log))
	led.Bind(seq)

	if err := seq.Run(ctx); err != nil {
		return Result{}, err
	}

	result := Result{
		RunID:     id.New(),
		Created:   time.Now().UTC(),
		Strategy:  cfg.Strategy.Name,
		Dataset:   r.Dataset,
		StartCash: cfg.Cash,
		EndCash:   led.Cash(),
		Invested:  led.Invested(),
		Metrics:   make(map[string]float64, len(r.Indicators)),
	}
	rows := led.AccountRows()
	result.Bars = len(rows) / 2
	if len(rows) > 0 {
		result.Start = rows[0].Date
		result.End = rows[len(rows)-1].Date
	}

	for _, ind := range r.Indicators {
		v, err := ind.Calculate(led)
		if err != nil {
			log.Warn("performance indicator failed", "name", ind.Name(), "err", err)
			v = math.NaN()
		}
		result.Metrics[ind.Name()] = v
	}

	if r.Journal != nil {
		if err := r.record(led, result); err != nil {
			return result, fmt.Errorf("backtest: journal: %w", err)
		}
	}
	return result, nil
}

func (r *Runner) record(led *ledger.Ledger, result Result) error {
	err := r.Journal.RecordRun(journal.RunRecord{
		RunID:     result.RunID,
		Created:   result.Created,
		Strategy:  result.Strategy,
		Dataset:   result.Dataset,
		Start:     result.Start,
		End:       result.End,
		StartCash: result.StartCash,
		EndCash:   result.EndCash,
		Invested:  result.Invested,
	})
	if err != nil {
		return err
	}

	for _, row := range led.AccountRows() {
		err := r.Journal.RecordAccount(journal.AccountRecord{
			RunID:    result.RunID,
			Date:     row.Date,
			Type:     row.Type,
			Cash:     row.Cash,
			Invested: row.Invested,
		})
		if err != nil {
			return err
		}
	}

	positions := led.Positions()
	insts := make([]*market.Instrument, 0, len(positions))
	for inst := range positions {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name() < insts[j].Name() })
	for _, inst := range insts {
		for _, lot := range positions[inst].ClosedLots {
			err := r.Journal.RecordLot(journal.LotRecord{
				RunID:      result.RunID,
				Instrument: inst.Name(),
				Size:       lot.Size,
				OpenPrice:  lot.OpenPrice,
				Value:      lot.Value,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// RunAll executes runners one after another, the way parameter sweeps run
// here: each run owns its ledger, sequencer and instruments, so nothing is
// shared between them.
func RunAll(ctx context.Context, runners []*Runner) ([]Result, error) {
	results := make([]Result, 0, len(runners))
	for i, r := range runners {
		res, err := r.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("backtest: run %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}
