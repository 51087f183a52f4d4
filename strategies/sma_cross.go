package strategies

import (
	"context"
	"fmt"
	"math"

	"github.com/tradekit/replaysim/indicators"
	"github.com/tradekit/replaysim/ledger"
	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/series"
)

// SMACross targets a long position of Size units while the fast SMA is
// above the slow one and a short position of Size units while it is below,
// emitting the difference to the current position as an order on every
// cross. Indicator columns are registered per instrument as transformers,
// so derived values live on the instrument's own rows.
type SMACross struct {
	Base

	Fast int
	Slow int
	Size float64

	book    PositionReader
	fastCol string
	slowCol string
}

func NewSMACross(fast, slow int, size float64, book PositionReader) *SMACross {
	if fast <= 0 {
		fast = 5
	}
	if slow <= fast {
		slow = fast * 4
	}
	if size == 0 {
		size = 1
	}
	return &SMACross{
		Fast:    fast,
		Slow:    slow,
		Size:    size,
		book:    book,
		fastCol: fmt.Sprintf("sma_%d", fast),
		slowCol: fmt.Sprintf("sma_%d", slow),
	}
}

func (s *SMACross) HandleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	in := []string{market.ColClose}
	if err := inst.AddTransformer(in, indicators.Compute(indicators.NewSMA(s.Fast)), series.ToKey(s.fastCol)); err != nil {
		return err
	}
	return inst.AddTransformer(in, indicators.Compute(indicators.NewSMA(s.Slow)), series.ToKey(s.slowCol))
}

func (s *SMACross) HandleClose(ctx context.Context, orders ledger.Orders, closed []*market.Instrument) (ledger.Orders, error) {
	out := ledger.Orders{}
	for inst, size := range orders {
		out[inst] = size
	}

	for _, inst := range closed {
		rows, err := inst.Head(2)
		if err != nil {
			continue // not enough bars yet
		}
		curFast, curSlow, ok := smaPair(rows[0], s.fastCol, s.slowCol)
		if !ok {
			continue
		}
		prevFast, prevSlow, ok := smaPair(rows[1], s.fastCol, s.slowCol)
		if !ok {
			continue
		}

		var target float64
		switch {
		case prevFast <= prevSlow && curFast > curSlow:
			target = s.Size
		case prevFast >= prevSlow && curFast < curSlow:
			target = -s.Size
		default:
			continue
		}

		current := 0.0
		if s.book != nil {
			if pos, held := s.book.Position(inst); held {
				current = pos.Size
			}
		}
		if delta := target - current; delta != 0 {
			out[inst] += delta
		}
	}
	return out, nil
}

func smaPair(row *series.Row, fastCol, slowCol string) (fast, slow float64, ok bool) {
	fast, fok := row.Float(fastCol)
	slow, sok := row.Float(slowCol)
	if !fok || !sok || math.IsNaN(fast) || math.IsNaN(slow) {
		return 0, 0, false
	}
	return fast, slow, true
}
