package indicators

import (
	"context"
	"fmt"
	"math"

	"github.com/tradekit/replaysim/series"
)

// Compute wraps a streaming indicator as a transform-graph compute step.
// The indicator carries its own state across rows; until it has seen its
// warmup the produced column is NaN, which downstream readers treat as
// "not ready yet".
//
// A Streaming value must not be shared between graphs: each instrument
// needs its own instance.
func Compute(ind Streaming) series.ComputeFunc {
	return func(ctx context.Context, args []any) (any, error) {
		v, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("indicators: %s input is not a number (%T)", ind.Name(), args[0])
		}
		ind.Update(v)
		if !ind.Ready() {
			return math.NaN(), nil
		}
		return ind.Value(), nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
