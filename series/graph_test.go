package series

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTransformerValidation(t *testing.T) {
	t.Parallel()

	g := NewGraph()

	err := g.AddTransformer(nil, nil, ToKey("out"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	noop := func(ctx context.Context, args []any) (any, error) { return 0.0, nil }
	err = g.AddTransformer(nil, noop, Output{})
	require.ErrorAs(t, err, &ve)

	require.NoError(t, g.AddTransformer(nil, noop, ToKey("out")))
}

func TestTransformerRunsWhenInputsPresent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	calls := 0
	require.NoError(t, g.AddTransformer([]string{"open", "close"}, func(ctx context.Context, args []any) (any, error) {
		calls++
		return args[0].(float64) + args[1].(float64), nil
	}, ToKey("sum")))

	require.NoError(t, g.Add(ctx, RowOf("date", 1, "open", 2.0)))
	assert.Equal(t, 0, calls, "close not present yet")

	require.NoError(t, g.Set(ctx, RowOf("close", 3.0)))
	assert.Equal(t, 1, calls)

	head, _ := g.Current()
	sum, ok := head.Float("sum")
	require.True(t, ok)
	assert.Equal(t, 5.0, sum)

	// A later Set must not re-run the transformer on the same row.
	require.NoError(t, g.Set(ctx, RowOf("volume", 9.0)))
	assert.Equal(t, 1, calls)

	// A new row resets eligibility.
	require.NoError(t, g.Add(ctx, RowOf("open", 4.0)))
	require.NoError(t, g.Set(ctx, RowOf("close", 6.0)))
	assert.Equal(t, 2, calls)
}

func TestTransformerFixpointChaining(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	// b depends on a's output even though b is registered first.
	require.NoError(t, g.AddTransformer([]string{"doubled"}, func(ctx context.Context, args []any) (any, error) {
		return args[0].(float64) + 1, nil
	}, ToKey("doubled_plus_one")))
	require.NoError(t, g.AddTransformer([]string{"open"}, func(ctx context.Context, args []any) (any, error) {
		return args[0].(float64) * 2, nil
	}, ToKey("doubled")))

	require.NoError(t, g.Add(ctx, RowOf("open", 3.0)))

	head, _ := g.Current()
	doubled, _ := head.Float("doubled")
	plusOne, _ := head.Float("doubled_plus_one")
	assert.Equal(t, 6.0, doubled)
	assert.Equal(t, 7.0, plusOne)
}

func TestZeroInputTransformerRunsFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	count := 0.0
	require.NoError(t, g.AddTransformer(nil, func(ctx context.Context, args []any) (any, error) {
		count++
		return count, nil
	}, ToKey("row_num")))

	require.NoError(t, g.Add(ctx, RowOf("open", 1.0)))
	require.NoError(t, g.Add(ctx, RowOf("open", 2.0)))

	head, _ := g.Current()
	n, _ := head.Float("row_num")
	assert.Equal(t, 2.0, n, "stateful carry-over runs once per row")
}

func TestMultiOutputMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	require.NoError(t, g.AddTransformer([]string{"open"}, func(ctx context.Context, args []any) (any, error) {
		v := args[0].(float64)
		return map[string]any{"half": v / 2, "double": v * 2}, nil
	}, ToKeys(map[string]string{"half": "open_half", "double": "open_double"})))

	require.NoError(t, g.Add(ctx, RowOf("open", 8.0)))

	head, _ := g.Current()
	half, _ := head.Float("open_half")
	double, _ := head.Float("open_double")
	assert.Equal(t, 4.0, half)
	assert.Equal(t, 16.0, double)
}

func TestMultiOutputMissingDestination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	require.NoError(t, g.AddTransformer([]string{"open"}, func(ctx context.Context, args []any) (any, error) {
		return map[string]any{"known": 1.0, "surprise": 2.0}, nil
	}, ToKeys(map[string]string{"known": "k"})))

	err := g.Add(ctx, RowOf("open", 1.0))
	var me *MissingOutputKeyError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "surprise", me.Field)
}

func TestTransformerOverwriteIsFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewGraph()

	require.NoError(t, g.AddTransformer([]string{"open"}, func(ctx context.Context, args []any) (any, error) {
		return 1.0, nil
	}, ToKey("open")))

	err := g.Add(ctx, RowOf("open", 1.0))
	var oe *OverwriteError
	require.ErrorAs(t, err, &oe)
}
