package indicators

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/replaysim/series"
)

func TestSimpleMA(t *testing.T) {
	t.Parallel()

	ma := NewSMA(3)
	assert.False(t, ma.Ready())

	for _, v := range []float64{1, 2, 3} {
		ma.Update(v)
	}
	require.True(t, ma.Ready())
	assert.InDelta(t, 2.0, ma.Value(), 1e-9)

	ma.Update(7)
	assert.InDelta(t, 4.0, ma.Value(), 1e-9, "window slides")
}

func TestExponentialMASeedsWithSMA(t *testing.T) {
	t.Parallel()

	ema := NewEMA(3)
	for _, v := range []float64{1, 2, 3} {
		ema.Update(v)
	}
	require.True(t, ema.Ready())
	assert.InDelta(t, 2.0, ema.Value(), 1e-9)

	ema.Update(4)
	// multiplier = 2/(3+1) = 0.5
	assert.InDelta(t, 3.0, ema.Value(), 1e-9)
}

func TestComputeAdapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := series.NewGraph()
	require.NoError(t, g.AddTransformer([]string{"close"}, Compute(NewSMA(2)), series.ToKey("sma_2")))

	require.NoError(t, g.Add(ctx, series.RowOf("close", 10.0)))
	head, _ := g.Current()
	v, ok := head.Float("sma_2")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v), "NaN until warm")

	require.NoError(t, g.Add(ctx, series.RowOf("close", 20.0)))
	head, _ = g.Current()
	v, _ = head.Float("sma_2")
	assert.InDelta(t, 15.0, v, 1e-9)
}
