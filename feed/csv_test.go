package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/replaysim/market"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVBarFeedBatchesByDate(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, `date,instrument,open,close,volume
2024-01-01,aapl,10,11,5000
2024-01-03,aapl,11,12,6000
2024-01-03,0700,5,6,7000
`)

	f, err := NewCSVBarFeed(path)
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()

	batch, ok, err := f.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, "aapl", batch[0][market.ColInstrument])
	assert.Equal(t, 10.0, batch[0][market.ColOpen])
	assert.Equal(t, 11.0, batch[0][market.ColClose])
	assert.Equal(t, 5000.0, batch[0]["volume"])
	date, _ := batch[0][market.ColDate].(time.Time)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), date)

	batch, ok, err = f.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Equal(t, "aapl", batch[0][market.ColInstrument])
	assert.Equal(t, "0700", batch[1][market.ColInstrument])

	_, ok, err = f.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSVBarFeedWithoutHeader(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "2024-01-01,aapl,10,11\n")

	f, err := NewCSVBarFeed(path)
	require.NoError(t, err)
	defer f.Close()

	batch, ok, err := f.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, 11.0, batch[0][market.ColClose])
}

func TestCSVBarFeedBadRow(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "2024-01-01,aapl,ten,11\n")

	f, err := NewCSVBarFeed(path)
	require.NoError(t, err)
	defer f.Close()

	_, _, err = f.Next(context.Background())
	assert.Error(t, err)
}
