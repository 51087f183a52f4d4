// Package feed supplies bar-batch sources for the sequencer.
package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/sequencer"
)

// CSVBarFeed reads canonical bar CSV rows:
//
//	date,instrument,open,close[,extra...]
//
// where date is RFC3339 or a plain 2006-01-02 day. A header row names any
// extra columns; without one, extra columns are ignored. Consecutive rows
// sharing a date form one batch, so the file must be sorted by date.
// Empty rows are skipped.
type CSVBarFeed struct {
	f     *os.File
	r     *csv.Reader
	extra []string

	pending  sequencer.Record
	sawFirst bool
	done     bool
}

func NewCSVBarFeed(path string) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVBarFeed{f: f, r: r}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// Next returns the next interval's records. ok=false at EOF.
func (f *CSVBarFeed) Next(ctx context.Context) ([]sequencer.Record, bool, error) {
	if f.done && f.pending == nil {
		return nil, false, nil
	}

	var batch []sequencer.Record
	var batchDate time.Time

	if f.pending != nil {
		batch = append(batch, f.pending)
		batchDate, _ = f.pending[market.ColDate].(time.Time)
		f.pending = nil
	}

	for {
		rec, err := f.readRecord()
		if err == io.EOF {
			f.done = true
			if len(batch) == 0 {
				return nil, false, nil
			}
			return batch, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		if rec == nil {
			continue
		}

		date, _ := rec[market.ColDate].(time.Time)
		if len(batch) == 0 {
			batch = append(batch, rec)
			batchDate = date
			continue
		}
		if date.Equal(batchDate) {
			batch = append(batch, rec)
			continue
		}
		f.pending = rec
		return batch, true, nil
	}
}

// readRecord parses one CSV row, returning (nil, nil) for skippable rows.
func (f *CSVBarFeed) readRecord() (sequencer.Record, error) {
	row, err := f.r.Read()
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, nil
	}

	if !f.sawFirst {
		f.sawFirst = true
		if strings.EqualFold(strings.TrimSpace(row[0]), market.ColDate) {
			for i := 4; i < len(row); i++ {
				f.extra = append(f.extra, strings.TrimSpace(row[i]))
			}
			return nil, nil
		}
	}

	if len(row) < 4 {
		return nil, fmt.Errorf("feed: need date,instrument,open,close, got %d columns", len(row))
	}

	date, err := parseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return nil, err
	}

	inst := strings.TrimSpace(row[1])

	open, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("feed: bad open %q: %w", row[2], err)
	}
	closePrice, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return nil, fmt.Errorf("feed: bad close %q: %w", row[3], err)
	}

	rec := sequencer.Record{
		market.ColDate:       date,
		market.ColInstrument: inst,
		market.ColOpen:       open,
		market.ColClose:      closePrice,
	}
	for i, name := range f.extra {
		col := 4 + i
		if col >= len(row) {
			break
		}
		v := strings.TrimSpace(row[col])
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			rec[name] = n
		} else {
			rec[name] = v
		}
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse("2006-01-02", s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("feed: bad date %q: %w", s, err)
	}
	return t, nil
}
