package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradekit/replaysim/config"
	"github.com/tradekit/replaysim/ledger"
	"github.com/tradekit/replaysim/market"
)

// Base provides no-op defaults for both strategy capabilities. Embed it so
// a strategy only implements what it actually uses; HandleClose passes the
// incoming orders through unchanged so stacks compose.
type Base struct{}

func (Base) HandleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	return nil
}

func (Base) HandleClose(ctx context.Context, orders ledger.Orders, closed []*market.Instrument) (ledger.Orders, error) {
	return orders, nil
}

// PositionReader is the read-only slice of the ledger strategies may see.
type PositionReader interface {
	Position(inst *market.Instrument) (ledger.Position, bool)
}

var registry = make(map[string]ledger.Strategy)

func Register(name string, strat ledger.Strategy) {
	registry[name] = strat
}

func Get(name string) (ledger.Strategy, bool) {
	strat, ok := registry[name]
	return strat, ok
}

// ByName builds a strategy from its configuration.
func ByName(cfg config.StrategyConfig, book PositionReader) (ledger.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "noop", "none":
		return Noop{}, nil

	case "sma-cross", "smacross":
		return NewSMACross(cfg.Fast, cfg.Slow, cfg.Size, book), nil

	default:
		if strat, ok := Get(cfg.Name); ok {
			return strat, nil
		}
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, sma-cross)", cfg.Name)
	}
}
