package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/tradekit/replaysim/market"
)

// Order is a signed trade request: positive size buys or covers, negative
// sells or shorts. Orders are valid for exactly one simulated bar.
type Order struct {
	Instrument *market.Instrument
	Size       float64
}

// Orders is the mapping a strategy's HandleClose returns: requested signed
// size per instrument.
type Orders map[*market.Instrument]float64

// ValidationError reports a malformed orders mapping or configuration.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "ledger: " + e.Reason
}

// validateOrders rejects mappings with a nil instrument key or a
// non-finite size. A nil mapping is treated as empty.
func validateOrders(orders Orders) error {
	for inst, size := range orders {
		if inst == nil {
			return &ValidationError{Reason: "orders mapping key must be an instrument"}
		}
		if math.IsNaN(size) || math.IsInf(size, 0) {
			return &ValidationError{Reason: fmt.Sprintf("order size for %s must be a finite number", inst.Name())}
		}
	}
	return nil
}

// MergeOrders nets multiple orders for the same instrument into one,
// preserving the position of each instrument's first occurrence.
func MergeOrders(orders []Order) []Order {
	merged := make([]Order, 0, len(orders))
	index := make(map[*market.Instrument]int)
	for _, o := range orders {
		if i, ok := index[o.Instrument]; ok {
			merged[i].Size += o.Size
			continue
		}
		index[o.Instrument] = len(merged)
		merged = append(merged, o)
	}
	return merged
}

// sortedOrders flattens an orders mapping into a deterministic slice,
// ordered by instrument name.
func sortedOrders(orders Orders) []Order {
	out := make([]Order, 0, len(orders))
	for inst, size := range orders {
		out = append(out, Order{Instrument: inst, Size: size})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Instrument.Name() < out[j].Instrument.Name()
	})
	return out
}
