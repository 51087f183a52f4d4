package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/replaysim/config"
	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/sequencer"
)

type sliceSource struct {
	batches [][]sequencer.Record
	i       int
}

func (s *sliceSource) Next(ctx context.Context) ([]sequencer.Record, bool, error) {
	if s.i >= len(s.batches) {
		return nil, false, nil
	}
	b := s.batches[s.i]
	s.i++
	return b, true, nil
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func bar(d time.Time, inst string, open, close float64) sequencer.Record {
	return sequencer.Record{
		market.ColDate:       d,
		market.ColInstrument: inst,
		market.ColOpen:       open,
		market.ColClose:      close,
	}
}

// buyOnce emits one order for every instrument on the first close it sees.
type buyOnce struct {
	size float64
	done bool
}

func (s *buyOnce) HandleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	return nil
}

func (s *buyOnce) HandleClose(ctx context.Context, orders Orders, closed []*market.Instrument) (Orders, error) {
	if s.done {
		return orders, nil
	}
	s.done = true
	out := Orders{}
	for inst, size := range orders {
		out[inst] = size
	}
	for _, inst := range closed {
		out[inst] += s.size
	}
	return out, nil
}

func runLedger(t *testing.T, cash float64, batches [][]sequencer.Record, stack ...Strategy) *Ledger {
	t.Helper()
	led, err := New(&config.Config{Cash: cash}, WithStrategies(stack...))
	require.NoError(t, err)
	seq := sequencer.New(&sliceSource{batches: batches})
	led.Bind(seq)
	require.NoError(t, seq.Run(context.Background()))
	return led
}

func TestLedgerDefaultCash(t *testing.T) {
	t.Parallel()

	led, err := New(nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, led.Cash(), 1e-9)
}

func TestLedgerTradesAtNextOpen(t *testing.T) {
	t.Parallel()

	led := runLedger(t, 1000, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 12)},
		{bar(day(2), "aapl", 14, 16)},
		{bar(day(3), "aapl", 15, 13)},
	}, &buyOnce{size: 2})

	rows := led.AccountRows()
	require.Len(t, rows, 6, "one open and one close row per date")

	assert.Equal(t, AccountRow{Date: day(1), Type: TypeOpen, Cash: 1000, Invested: 0}, rows[0])
	assert.Equal(t, AccountRow{Date: day(1), Type: TypeClose, Cash: 1000, Invested: 0}, rows[1])
	// Order placed on day 1 close fills at day 2 open (14): cost 28.
	assert.Equal(t, AccountRow{Date: day(2), Type: TypeOpen, Cash: 972, Invested: 28}, rows[2])
	// Close revalues at 16 without trading.
	assert.Equal(t, AccountRow{Date: day(2), Type: TypeClose, Cash: 972, Invested: 32}, rows[3])
	assert.Equal(t, AccountRow{Date: day(3), Type: TypeOpen, Cash: 972, Invested: 30}, rows[4])
	assert.Equal(t, AccountRow{Date: day(3), Type: TypeClose, Cash: 972, Invested: 26}, rows[5])

	// Cash change between consecutive opens equals minus the net cost.
	assert.InDelta(t, -28.0, rows[2].Cash-rows[0].Cash, 1e-9)
	assert.InDelta(t, 0.0, rows[4].Cash-rows[2].Cash, 1e-9)

	assert.Empty(t, led.PendingOrders(), "orders are valid for exactly one bar")
}

func TestLedgerInvestedMatchesPositions(t *testing.T) {
	t.Parallel()

	led := runLedger(t, 1000, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 12), bar(day(1), "0700", 4, 5)},
		{bar(day(2), "aapl", 14, 16), bar(day(2), "0700", 6, 7)},
	}, &buyOnce{size: 2})

	total := 0.0
	for _, pos := range led.Positions() {
		total += pos.Value
	}
	assert.InDelta(t, total, led.Invested(), 1e-9)

	rows := led.AccountRows()
	last := rows[len(rows)-1]
	assert.InDelta(t, total, last.Invested, 1e-9)
}

func TestLedgerStrategyChain(t *testing.T) {
	t.Parallel()

	led := runLedger(t, 1000, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 10)},
		{bar(day(2), "aapl", 10, 10)},
	}, &buyOnce{size: 1}, &buyOnce{size: 2})

	// Both stack elements contribute on day 1; the merged order fills at
	// day 2 open for 3 units at 10.
	inst := led.sortedInstruments()[0]
	pos, ok := led.Position(inst)
	require.True(t, ok)
	assert.InDelta(t, 3.0, pos.Size, 1e-9)
	assert.InDelta(t, 970.0, led.Cash(), 1e-9)
}

type badOrders struct{}

func (badOrders) HandleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	return nil
}

func (badOrders) HandleClose(ctx context.Context, orders Orders, closed []*market.Instrument) (Orders, error) {
	out := Orders{}
	for _, inst := range closed {
		out[inst] = math.NaN()
	}
	return out, nil
}

func TestLedgerRejectsMalformedOrders(t *testing.T) {
	t.Parallel()

	led, err := New(&config.Config{Cash: 1000}, WithStrategies(badOrders{}))
	require.NoError(t, err)
	seq := sequencer.New(&sliceSource{batches: [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 12)},
	}})
	led.Bind(seq)

	runErr := seq.Run(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, runErr, &ve)
}

type recordingStrategy struct {
	newInstruments []string
}

func (s *recordingStrategy) HandleNewInstrument(ctx context.Context, inst *market.Instrument) error {
	s.newInstruments = append(s.newInstruments, inst.Name())
	return nil
}

func (s *recordingStrategy) HandleClose(ctx context.Context, orders Orders, closed []*market.Instrument) (Orders, error) {
	return orders, nil
}

func TestLedgerForwardsNewInstrument(t *testing.T) {
	t.Parallel()

	rec := &recordingStrategy{}
	runLedger(t, 1000, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 12)},
		{bar(day(2), "aapl", 11, 12), bar(day(2), "0700", 5, 6)},
	}, rec)

	assert.Equal(t, []string{"aapl", "0700"}, rec.newInstruments)
}

func TestLedgerSkipsUnaffordableOrderAndContinues(t *testing.T) {
	t.Parallel()

	led := runLedger(t, 100, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 10)},
		{bar(day(2), "aapl", 200, 210)}, // 2 units cost 400 > 100 cash
		{bar(day(3), "aapl", 220, 230)},
	}, &buyOnce{size: 2})

	assert.InDelta(t, 100.0, led.Cash(), 1e-9, "skipped order leaves cash untouched")
	assert.Empty(t, led.Positions())
	require.Len(t, led.AccountRows(), 6, "run continues past the skip")
}

func TestLedgerShortPositionGainsWhenPriceFalls(t *testing.T) {
	t.Parallel()

	led := runLedger(t, 1000, [][]sequencer.Record{
		{bar(day(1), "aapl", 10, 10)},
		{bar(day(2), "aapl", 10, 8)},
	}, &buyOnce{size: -5})

	// Short 5 at 10: the fresh lot books at its per-unit value 10, so the
	// open row shows cash 990 and invested 10. At close 8 revaluation
	// restores the full short formula, (10 + (10-8)) * 5 = 60.
	rows := led.AccountRows()
	assert.InDelta(t, 990.0, rows[2].Cash, 1e-9)
	assert.InDelta(t, 10.0, rows[2].Invested, 1e-9)
	assert.InDelta(t, 60.0, rows[3].Invested, 1e-9)
}
