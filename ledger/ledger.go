// Package ledger owns the cash/position bookkeeping of a replay run. It
// subscribes to sequencer events, drives the strategy stack, executes the
// accumulated orders at every bar open and appends immutable account and
// position history rows at every open and close.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tradekit/replaysim/config"
	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/sequencer"
	"github.com/tradekit/replaysim/series"
)

// Account history column keys, alongside market.ColDate.
const (
	ColType     = "type"
	ColCash     = "cash"
	ColInvested = "invested"

	TypeOpen  = "open"
	TypeClose = "close"
)

// Strategy is one element of the strategy stack. Both methods are
// optional in spirit: embed strategies.Base for no-op defaults.
//
// HandleClose receives the orders mapping returned by the previous stack
// element (the pending orders for the first element) and the instruments
// closed this bar, and returns the mapping handed to the next element.
type Strategy interface {
	HandleNewInstrument(ctx context.Context, inst *market.Instrument) error
	HandleClose(ctx context.Context, orders Orders, closed []*market.Instrument) (Orders, error)
}

// AccountRow is a typed view of one account history row.
type AccountRow struct {
	Date     time.Time
	Type     string
	Cash     float64
	Invested float64
}

type Option func(*Ledger)

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithStrategies(stack ...Strategy) Option {
	return func(l *Ledger) { l.strategies = append(l.strategies, stack...) }
}

type Ledger struct {
	log        *slog.Logger
	strategies []Strategy

	cash      float64
	positions map[*market.Instrument]Position
	pending   []Order

	account         *series.Series
	positionHistory *series.Series
}

// New builds a ledger from a configuration, validating it first (cash
// defaults to 1000 when unset).
func New(cfg *config.Config, opts ...Option) (*Ledger, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	l := &Ledger{
		log:             slog.Default(),
		cash:            cfg.Cash,
		positions:       make(map[*market.Instrument]Position),
		account:         series.New(),
		positionHistory: series.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// AddStrategy appends a strategy to the stack. Useful when a strategy
// needs the ledger itself (e.g. as a read-only position book) and so
// cannot be passed to New.
func (l *Ledger) AddStrategy(s Strategy) {
	l.strategies = append(l.strategies, s)
}

// Bind subscribes the ledger to a sequencer's events. The ledger registers
// one handler per event; strategies are driven from inside those handlers,
// never directly by the sequencer.
func (l *Ledger) Bind(seq *sequencer.Sequencer) {
	seq.OnNewInstrument(l.handleNewInstrument)
	seq.OnOpen(l.handleOpen)
	seq.OnClose(l.handleClose)
}

func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the instrument's position.
func (l *Ledger) Position(inst *market.Instrument) (Position, bool) {
	pos, ok := l.positions[inst]
	if !ok {
		return Position{}, false
	}
	return pos.Clone(), true
}

// Positions returns a copy of the current position mapping.
func (l *Ledger) Positions() map[*market.Instrument]Position {
	out := make(map[*market.Instrument]Position, len(l.positions))
	for inst, pos := range l.positions {
		out[inst] = pos.Clone()
	}
	return out
}

// PendingOrders returns a copy of the order queue for the next bar.
func (l *Ledger) PendingOrders() []Order {
	out := make([]Order, len(l.pending))
	copy(out, l.pending)
	return out
}

// AccountHistory exposes the raw account series (one open and one close
// row per simulated date).
func (l *Ledger) AccountHistory() *series.Series {
	return l.account
}

// PositionHistory exposes the raw position snapshot series.
func (l *Ledger) PositionHistory() *series.Series {
	return l.positionHistory
}

// AccountRows returns the account history as typed rows, oldest first.
func (l *Ledger) AccountRows() []AccountRow {
	rows, err := l.account.Tail(l.account.Len())
	if err != nil {
		return nil
	}
	out := make([]AccountRow, len(rows))
	for i, row := range rows {
		out[i].Date, _ = row.Time(market.ColDate)
		if v, ok := row.Get(ColType); ok {
			out[i].Type, _ = v.(string)
		}
		out[i].Cash, _ = row.Float(ColCash)
		out[i].Invested, _ = row.Float(ColInvested)
	}
	return out
}

// Invested is the summed value of all current positions.
func (l *Ledger) Invested() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.Value
	}
	return total
}

func (l *Ledger) handleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	for _, s := range l.strategies {
		if err := s.HandleNewInstrument(ctx, inst); err != nil {
			return fmt.Errorf("ledger: strategy new-instrument: %w", err)
		}
	}
	return nil
}

// handleOpen trades: it revalues positions at the bar's open prices,
// executes the pending orders accumulated on the previous close, adjusts
// cash by the change in total position value and snapshots the account.
// The pending queue is cleared afterwards; orders live for exactly one bar.
func (l *Ledger) handleOpen(ctx context.Context, opened []*market.Instrument) error {
	prices := make(map[*market.Instrument]float64, len(opened))
	for _, inst := range opened {
		if price, ok := inst.HeadOpen(); ok {
			prices[inst] = price
		}
	}
	l.revalue(prices)

	before := l.Invested()
	l.positions = ExecuteOrders(l.positions, MergeOrders(l.pending), prices, l.cash, l.log)
	after := l.Invested()
	l.cash += before - after
	l.pending = nil

	date, _ := opened[0].HeadDate()
	l.snapshot(date, TypeOpen)
	return nil
}

// handleClose collects next bar's orders from the strategy stack, then
// revalues positions at the close prices. No trading happens here.
func (l *Ledger) handleClose(ctx context.Context, closed []*market.Instrument) error {
	orders := make(Orders, len(l.pending))
	for _, o := range MergeOrders(l.pending) {
		orders[o.Instrument] = o.Size
	}

	for _, s := range l.strategies {
		next, err := s.HandleClose(ctx, orders, closed)
		if err != nil {
			return fmt.Errorf("ledger: strategy close: %w", err)
		}
		if err := validateOrders(next); err != nil {
			return err
		}
		if next == nil {
			next = Orders{}
		}
		orders = next
	}
	for _, o := range sortedOrders(orders) {
		l.pending = append(l.pending, o)
	}

	prices := make(map[*market.Instrument]float64, len(closed))
	for _, inst := range closed {
		if price, ok := inst.HeadClose(); ok {
			prices[inst] = price
		}
	}
	l.revalue(prices)

	date, _ := closed[0].HeadDate()
	l.snapshot(date, TypeClose)
	return nil
}

// revalue recomputes position values for the instruments that have a price
// this bar. Positions in instruments outside the bar keep their values.
func (l *Ledger) revalue(prices map[*market.Instrument]float64) {
	for inst, price := range prices {
		if pos, ok := l.positions[inst]; ok {
			l.positions[inst] = pos.revalue(price)
		}
	}
}

// snapshot appends one account row and one position row. History rows are
// immutable once appended.
func (l *Ledger) snapshot(date time.Time, typ string) {
	l.account.Add(series.RowOf(
		market.ColDate, date,
		ColType, typ,
		ColCash, l.cash,
		ColInvested, l.Invested(),
	))

	row := series.RowOf(market.ColDate, date, ColType, typ)
	for _, inst := range l.sortedInstruments() {
		row.Set(inst.Name(), l.positions[inst].Clone()) //nolint:errcheck // names are unique
	}
	l.positionHistory.Add(row)
}

func (l *Ledger) sortedInstruments() []*market.Instrument {
	out := make([]*market.Instrument, 0, len(l.positions))
	for inst := range l.positions {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
