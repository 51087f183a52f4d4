package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	created := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	run := RunRecord{
		RunID:     "01HXYZ",
		Created:   created,
		Strategy:  "sma-cross",
		Dataset:   "bars.csv",
		Start:     created.AddDate(0, -1, 0),
		End:       created,
		StartCash: 1000,
		EndCash:   1080,
		Invested:  40,
	}
	require.NoError(t, j.RecordRun(run))

	require.NoError(t, j.RecordAccount(AccountRecord{
		RunID: "01HXYZ", Date: run.Start, Type: "open", Cash: 1000, Invested: 0,
	}))
	require.NoError(t, j.RecordAccount(AccountRecord{
		RunID: "01HXYZ", Date: run.Start, Type: "close", Cash: 1000, Invested: 0,
	}))
	require.NoError(t, j.RecordLot(LotRecord{
		RunID: "01HXYZ", Instrument: "aapl", Size: 2, OpenPrice: 10, Value: 24,
	}))

	got, err := j.GetRun("01HXYZ")
	require.NoError(t, err)
	assert.Equal(t, "sma-cross", got.Strategy)
	assert.InDelta(t, 1080.0, got.EndCash, 1e-9)

	account, err := j.ListAccountByRun("01HXYZ")
	require.NoError(t, err)
	require.Len(t, account, 2)
	assert.Equal(t, "open", account[0].Type, "open row sorts before close")

	lots, err := j.ListLotsByRun("01HXYZ")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, "aapl", lots[0].Instrument)

	_, err = j.GetRun("missing")
	assert.Error(t, err)
}
