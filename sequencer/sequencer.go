// Package sequencer turns raw per-interval bar batches into causally
// ordered instrument events. For every batch it emits new-instrument
// events for unseen instruments, then one open event, then one close
// event; every handler chain is run to completion, sequentially and in
// registration order, before the next event or batch begins.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/tradekit/replaysim/market"
	"github.com/tradekit/replaysim/series"
)

// Record is one raw bar: a mapping carrying at least date (time.Time),
// open and close (numbers) and instrument (string), plus any extra fields.
type Record map[string]any

// BarSource yields one interval's records per call, in emission order.
// ok=false with a nil error signals the end of the data set.
type BarSource interface {
	Next(ctx context.Context) (batch []Record, ok bool, err error)
}

// DataContractError reports a bar record missing a mandatory field or
// carrying one with the wrong type. It aborts the run: ledger state after
// a partial bar is not well-defined.
type DataContractError struct {
	Field  string
	Reason string
}

func (e *DataContractError) Error() string {
	return fmt.Sprintf("sequencer: bar record field %q %s", e.Field, e.Reason)
}

type NewInstrumentHandler func(ctx context.Context, inst *market.Instrument) error

// BatchHandler receives the instruments opened or closed in one batch, in
// record order.
type BatchHandler func(ctx context.Context, insts []*market.Instrument) error

type Option func(*Sequencer)

// WithBounds restricts the run to batches whose date falls inside
// [from, to]. A zero bound is open-ended. Batches outside the bounds are
// dropped entirely; no events are emitted for them.
func WithBounds(from, to time.Time) Option {
	return func(s *Sequencer) {
		s.from, s.to = from, to
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Sequencer) {
		s.log = log
	}
}

type Sequencer struct {
	source BarSource
	from   time.Time
	to     time.Time
	log    *slog.Logger

	instruments map[string]*market.Instrument
	created     []*market.Instrument

	onNew   []NewInstrumentHandler
	onOpen  []BatchHandler
	onClose []BatchHandler
}

func New(source BarSource, opts ...Option) *Sequencer {
	s := &Sequencer{
		source:      source,
		log:         slog.Default(),
		instruments: make(map[string]*market.Instrument),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) OnNewInstrument(h NewInstrumentHandler) {
	s.onNew = append(s.onNew, h)
}

func (s *Sequencer) OnOpen(h BatchHandler) {
	s.onOpen = append(s.onOpen, h)
}

func (s *Sequencer) OnClose(h BatchHandler) {
	s.onClose = append(s.onClose, h)
}

// Instrument looks up an instrument by name.
func (s *Sequencer) Instrument(name string) (*market.Instrument, bool) {
	inst, ok := s.instruments[name]
	return inst, ok
}

// Instruments returns all instruments in creation order.
func (s *Sequencer) Instruments() []*market.Instrument {
	out := make([]*market.Instrument, len(s.created))
	copy(out, s.created)
	return out
}

// Run consumes the source to exhaustion. Batch N+1 is not read until batch
// N's open and close handler chains have both fully completed.
func (s *Sequencer) Run(ctx context.Context) error {
	for {
		batch, ok, err := s.source.Next(ctx)
		if err != nil {
			return fmt.Errorf("sequencer: read batch: %w", err)
		}
		if !ok {
			return nil
		}
		if len(batch) == 0 {
			continue
		}
		if err := s.processBatch(ctx, batch); err != nil {
			return err
		}
	}
}

func (s *Sequencer) processBatch(ctx context.Context, batch []Record) error {
	bars := make([]bar, len(batch))
	for i, rec := range batch {
		b, err := validateRecord(rec)
		if err != nil {
			return err
		}
		bars[i] = b
	}

	if !s.inBounds(bars[0].date) {
		s.log.Debug("batch outside date bounds, skipped", "date", bars[0].date)
		return nil
	}

	// New instruments first, so every handler has seen an instrument
	// before it shows up in an open event.
	insts := make([]*market.Instrument, len(bars))
	for i, b := range bars {
		inst, ok := s.instruments[b.instrument]
		if !ok {
			inst = market.NewInstrument(b.instrument)
			s.instruments[b.instrument] = inst
			s.created = append(s.created, inst)
			for _, h := range s.onNew {
				if err := h(ctx, inst); err != nil {
					return fmt.Errorf("sequencer: new-instrument handler: %w", err)
				}
			}
		}
		insts[i] = inst
	}

	for i, b := range bars {
		row := series.RowOf(market.ColDate, b.date, market.ColOpen, b.open)
		if err := insts[i].Add(ctx, row); err != nil {
			return fmt.Errorf("sequencer: open %s: %w", b.instrument, err)
		}
	}
	for _, h := range s.onOpen {
		if err := h(ctx, insts); err != nil {
			return fmt.Errorf("sequencer: open handler: %w", err)
		}
	}

	for i, b := range bars {
		if err := insts[i].Set(ctx, closeRow(b)); err != nil {
			return fmt.Errorf("sequencer: close %s: %w", b.instrument, err)
		}
	}
	for _, h := range s.onClose {
		if err := h(ctx, insts); err != nil {
			return fmt.Errorf("sequencer: close handler: %w", err)
		}
	}
	return nil
}

func (s *Sequencer) inBounds(date time.Time) bool {
	if !s.from.IsZero() && date.Before(s.from) {
		return false
	}
	if !s.to.IsZero() && date.After(s.to) {
		return false
	}
	return true
}

type bar struct {
	date       time.Time
	open       float64
	close      float64
	instrument string
	extra      map[string]any
}

func validateRecord(rec Record) (bar, error) {
	var b bar

	v, ok := rec[market.ColDate]
	if !ok {
		return b, &DataContractError{Field: market.ColDate, Reason: "is missing"}
	}
	if b.date, ok = v.(time.Time); !ok || b.date.IsZero() {
		return b, &DataContractError{Field: market.ColDate, Reason: "is not a valid timestamp"}
	}

	if b.open, ok = numField(rec, market.ColOpen); !ok {
		return b, &DataContractError{Field: market.ColOpen, Reason: "is missing or not a finite number"}
	}
	if b.close, ok = numField(rec, market.ColClose); !ok {
		return b, &DataContractError{Field: market.ColClose, Reason: "is missing or not a finite number"}
	}

	v, ok = rec[market.ColInstrument]
	if !ok {
		return b, &DataContractError{Field: market.ColInstrument, Reason: "is missing"}
	}
	if b.instrument, ok = v.(string); !ok || b.instrument == "" {
		return b, &DataContractError{Field: market.ColInstrument, Reason: "is not a valid identifier"}
	}

	b.extra = make(map[string]any)
	for k, v := range rec {
		switch k {
		case market.ColDate, market.ColOpen, market.ColClose, market.ColInstrument:
			// Either already on the open row or merged explicitly at close.
		default:
			b.extra[k] = v
		}
	}
	return b, nil
}

// closeRow carries the close price plus every extra field, close first and
// the rest in sorted order so column insertion order is deterministic.
func closeRow(b bar) *series.Row {
	row := series.NewRow()
	row.Set(market.ColClose, b.close) //nolint:errcheck // fresh row

	names := make([]string, 0, len(b.extra))
	for k := range b.extra {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		row.Set(k, b.extra[k]) //nolint:errcheck // fresh row, distinct keys
	}
	return row
}

// numField reads a numeric record field. NaN and infinite prices fail the
// contract the same way a wrong type does.
func numField(rec Record, key string) (float64, bool) {
	v, ok := rec[key]
	if !ok {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
