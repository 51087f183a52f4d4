package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes account rows and closed lots to a pair of CSV files.
// Run summaries have no natural CSV home and are dropped; use the SQLite
// journal when they matter.
type CSVJournal struct {
	account *csv.Writer
	lots    *csv.Writer
	af, lf  *os.File
}

func NewCSV(accountPath, lotsPath string) (*CSVJournal, error) {
	af, err := os.Create(accountPath)
	if err != nil {
		return nil, err
	}
	lf, err := os.Create(lotsPath)
	if err != nil {
		af.Close()
		return nil, err
	}

	aw := csv.NewWriter(af)
	lw := csv.NewWriter(lf)

	if err := aw.Write([]string{"run_id", "date", "type", "cash", "invested"}); err != nil {
		return nil, err
	}
	if err := lw.Write([]string{"run_id", "instrument", "size", "open_price", "value"}); err != nil {
		return nil, err
	}

	aw.Flush()
	if err := aw.Error(); err != nil {
		return nil, err
	}
	lw.Flush()
	if err := lw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{account: aw, lots: lw, af: af, lf: lf}, nil
}

func (j *CSVJournal) RecordRun(RunRecord) error {
	return nil
}

func (j *CSVJournal) RecordAccount(a AccountRecord) error {
	err := j.account.Write([]string{
		a.RunID,
		a.Date.Format(time.RFC3339),
		a.Type,
		f(a.Cash),
		f(a.Invested),
	})
	if err != nil {
		return err
	}
	j.account.Flush()
	return j.account.Error()
}

func (j *CSVJournal) RecordLot(l LotRecord) error {
	err := j.lots.Write([]string{
		l.RunID,
		l.Instrument,
		f(l.Size),
		f(l.OpenPrice),
		f(l.Value),
	})
	if err != nil {
		return err
	}
	j.lots.Flush()
	return j.lots.Error()
}

func (j *CSVJournal) Close() error {
	j.account.Flush()
	if err := j.account.Error(); err != nil {
		return err
	}
	j.lots.Flush()
	if err := j.lots.Error(); err != nil {
		return err
	}

	if err := j.af.Close(); err != nil {
		return err
	}
	return j.lf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
