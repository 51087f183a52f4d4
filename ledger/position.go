package ledger

// Lot records one entry into a position: its signed size, current value
// and the price it was opened at. Tracking entries separately (instead of
// averaging) is what makes realized gain/loss on partial closes exact.
type Lot struct {
	Size      float64
	Value     float64
	OpenPrice float64
}

// Position aggregates the open lots of one instrument. Size and Value are
// always the sums over Lots; ClosedLots is an append-only audit trail of
// every lot (or lot fraction) that has been closed, never truncated.
type Position struct {
	Size       float64
	Value      float64
	Lots       []Lot
	ClosedLots []Lot
}

// Clone returns a deep copy.
func (p Position) Clone() Position {
	c := p
	c.Lots = make([]Lot, len(p.Lots))
	copy(c.Lots, p.Lots)
	c.ClosedLots = make([]Lot, len(p.ClosedLots))
	copy(c.ClosedLots, p.ClosedLots)
	return c
}

// revalue recomputes every lot's value at price and the aggregates from
// the lots. Size never changes here; only valuations move.
func (p Position) revalue(price float64) Position {
	c := p.Clone()
	c.Value = 0
	for i, lot := range c.Lots {
		c.Lots[i].Value = CalculatePositionValue(price, lot.OpenPrice, lot.Size)
		c.Value += c.Lots[i].Value
	}
	return c
}
