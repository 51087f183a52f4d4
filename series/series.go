package series

import "fmt"

// Series is an append-only ordered sequence of rows. The most recent row is
// the head, the oldest the tail. Rows are immutable once a later row has
// been added; the head row grows through Set until the next Add.
type Series struct {
	rows []*Row
}

func New() *Series {
	return &Series{}
}

// Add appends a clone of row, which becomes the new head.
func (s *Series) Add(row *Row) {
	s.rows = append(s.rows, row.Clone())
}

// Set merges the columns of partial into the head row. Writing a column the
// head row already carries is an OverwriteError. Before the first Add there
// is no head row and Set is a no-op; zero-input transformers rely on that.
func (s *Series) Set(partial *Row) error {
	head, ok := s.Current()
	if !ok {
		return nil
	}
	for _, k := range partial.keys {
		if err := head.Set(k, partial.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Series) Len() int {
	return len(s.rows)
}

// Current returns the head row, false when the series is empty.
func (s *Series) Current() (*Row, bool) {
	if len(s.rows) == 0 {
		return nil, false
	}
	return s.rows[len(s.rows)-1], true
}

// Head returns the n most recent rows, newest first.
func (s *Series) Head(n int) ([]*Row, error) {
	if n > len(s.rows) {
		return nil, fmt.Errorf("series: head(%d) exceeds %d stored rows", n, len(s.rows))
	}
	out := make([]*Row, n)
	for i := 0; i < n; i++ {
		out[i] = s.rows[len(s.rows)-1-i]
	}
	return out, nil
}

// Tail returns the n oldest rows, oldest first.
func (s *Series) Tail(n int) ([]*Row, error) {
	if n > len(s.rows) {
		return nil, fmt.Errorf("series: tail(%d) exceeds %d stored rows", n, len(s.rows))
	}
	out := make([]*Row, n)
	copy(out, s.rows[:n])
	return out, nil
}
