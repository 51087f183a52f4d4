// Package journal records completed replay runs. It is an export surface
// only: the engine never reads state back to resume a run.
package journal

import "time"

// RunRecord summarizes one completed replay run.
type RunRecord struct {
	RunID     string
	Created   time.Time
	Strategy  string
	Dataset   string
	Start     time.Time
	End       time.Time
	StartCash float64
	EndCash   float64
	Invested  float64
}

// AccountRecord is one account history row (open or close) of a run.
type AccountRecord struct {
	RunID    string
	Date     time.Time
	Type     string
	Cash     float64
	Invested float64
}

// LotRecord is one closed tax lot of a run.
type LotRecord struct {
	RunID      string
	Instrument string
	Size       float64
	OpenPrice  float64
	Value      float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordAccount(AccountRecord) error
	RecordLot(LotRecord) error
	Close() error
}

// Nop discards everything. Used when journaling is not configured.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error         { return nil }
func (Nop) RecordAccount(AccountRecord) error { return nil }
func (Nop) RecordLot(LotRecord) error         { return nil }
func (Nop) Close() error                      { return nil }
