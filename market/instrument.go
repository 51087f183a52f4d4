package market

import (
	"time"

	"github.com/tradekit/replaysim/series"
)

// Bar column keys shared by the feed, the sequencer and the ledger.
const (
	ColDate       = "date"
	ColOpen       = "open"
	ColClose      = "close"
	ColInstrument = "instrument"
)

// Instrument is a named transform graph holding one instrument's bars plus
// any derived columns. Instruments are created by the event sequencer on
// first reference and live for the whole run; strategies and the ledger
// hold references but never create or destroy them.
type Instrument struct {
	*series.Graph
	name string
}

func NewInstrument(name string) *Instrument {
	return &Instrument{Graph: series.NewGraph(), name: name}
}

func (i *Instrument) Name() string {
	return i.name
}

// HeadDate returns the current bar's date, false when no bar exists.
func (i *Instrument) HeadDate() (time.Time, bool) {
	head, ok := i.Current()
	if !ok {
		return time.Time{}, false
	}
	return head.Time(ColDate)
}

// HeadOpen returns the current bar's open price.
func (i *Instrument) HeadOpen() (float64, bool) {
	head, ok := i.Current()
	if !ok {
		return 0, false
	}
	return head.Float(ColOpen)
}

// HeadClose returns the current bar's close price, false until the close
// columns have been merged.
func (i *Instrument) HeadClose() (float64, bool) {
	head, ok := i.Current()
	if !ok {
		return 0, false
	}
	return head.Float(ColClose)
}
