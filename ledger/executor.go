package ledger

import (
	"log/slog"
	"math"
	"sort"

	"github.com/tradekit/replaysim/market"
)

// Pure order-execution arithmetic. Nothing in this file mutates its
// inputs; positions come back as new values with cloned lot slices.

// CalculatePositionValue values a holding of the given signed size at the
// current price. A short position gains what the price loses, mirrored
// around its open price.
func CalculatePositionValue(price, openPrice, size float64) float64 {
	if size < 0 {
		return (openPrice + (openPrice - price)) * -size
	}
	return price * size
}

// newLot books a freshly opened lot at the given price. A long lot is
// worth price times size. A short lot opens at its per-unit value, which
// at its own open price is the price itself; the size factor enters on
// the first revaluation.
func newLot(size, price float64) Lot {
	value := CalculatePositionValue(price, price, size)
	if size < 0 {
		value = price
	}
	return Lot{Size: size, OpenPrice: price, Value: value}
}

// ExecuteOrder applies one signed order to a position at the given price
// and returns the resulting position.
//
// An order with the same sign as the position (or an empty position)
// enlarges it with a fresh lot. An opposite-signed order walks the lots in
// their original order, closing them (or a fraction of the last one
// touched) into ClosedLots; any amount left after all lots are consumed
// reverses the position with a new lot at the current price.
func ExecuteOrder(orderSize float64, pos Position, price float64) Position {
	next := pos.Clone()
	if orderSize == 0 {
		return next
	}

	if pos.Size == 0 || (orderSize > 0) == (pos.Size > 0) {
		lot := newLot(orderSize, price)
		next.Lots = append(next.Lots, lot)
		next.Size += lot.Size
		next.Value += lot.Value
		return next
	}

	remaining := orderSize
	survivors := make([]Lot, 0, len(next.Lots))
	for i, lot := range next.Lots {
		if remaining == 0 {
			survivors = append(survivors, next.Lots[i:]...)
			break
		}
		if math.Abs(lot.Size) > math.Abs(remaining) {
			// Split: shrink the lot, keep its open price, move the
			// closed fraction (with its share of the value) to the audit
			// trail.
			kept := lot
			kept.Size = lot.Size + remaining
			kept.Value = lot.Value * (kept.Size / lot.Size)
			survivors = append(survivors, kept)
			next.ClosedLots = append(next.ClosedLots, Lot{
				Size:      -remaining,
				OpenPrice: lot.OpenPrice,
				Value:     lot.Value - kept.Value,
			})
			remaining = 0
			continue
		}
		next.ClosedLots = append(next.ClosedLots, lot)
		remaining += lot.Size
	}
	if remaining != 0 {
		// Reversal: leftover opens a fresh lot at the current price.
		survivors = append(survivors, newLot(remaining, price))
	}

	next.Lots = survivors
	next.Size, next.Value = 0, 0
	for _, lot := range survivors {
		next.Size += lot.Size
		next.Value += lot.Value
	}
	return next
}

// ExecuteOrders runs a bar's merged orders against the available cash and
// returns the new position mapping. Orders without a price this bar are
// dropped with a warning. The rest execute in ascending net-cost order
// (net cost = new value − old value; negative frees cash) so that
// cash-freeing trades run first; an order whose net cost exceeds the cash
// remaining at its turn is skipped with a warning and the run continues.
func ExecuteOrders(
	positions map[*market.Instrument]Position,
	orders []Order,
	prices map[*market.Instrument]float64,
	cash float64,
	log *slog.Logger,
) map[*market.Instrument]Position {
	if log == nil {
		log = slog.Default()
	}

	type execution struct {
		inst    *market.Instrument
		after   Position
		netCost float64
	}
	execs := make([]execution, 0, len(orders))
	for _, o := range orders {
		price, ok := prices[o.Instrument]
		if !ok {
			log.Warn("order dropped, no price this bar",
				"instrument", o.Instrument.Name(), "size", o.Size)
			continue
		}
		before := positions[o.Instrument]
		after := ExecuteOrder(o.Size, before, price)
		execs = append(execs, execution{
			inst:    o.Instrument,
			after:   after,
			netCost: after.Value - before.Value,
		})
	}

	sort.SliceStable(execs, func(i, j int) bool {
		return execs[i].netCost < execs[j].netCost
	})

	result := make(map[*market.Instrument]Position, len(positions))
	for inst, pos := range positions {
		result[inst] = pos
	}

	remaining := cash
	for _, e := range execs {
		if e.netCost > remaining {
			log.Warn("order skipped, insufficient cash",
				"instrument", e.inst.Name(), "netCost", e.netCost, "cash", remaining)
			continue
		}
		result[e.inst] = e.after
		remaining -= e.netCost
	}
	return result
}
