package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Result is a lightweight summary of a replay run.
type Result struct {
	RunID    string
	Created  time.Time
	Strategy string
	Dataset  string

	Start time.Time
	End   time.Time
	Bars  int

	StartCash float64
	EndCash   float64
	Invested  float64

	Metrics map[string]float64
}

// Equity is ending cash plus invested value.
func (r Result) Equity() float64 {
	return r.EndCash + r.Invested
}

func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Replay Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	if r.Strategy != "" {
		fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	}
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %.2f\n", r.StartCash)
	fmt.Fprintf(w, "End Cash:      %.2f\n", r.EndCash)
	fmt.Fprintf(w, "Invested:      %.2f\n", r.Invested)
	fmt.Fprintf(w, "Equity:        %.2f\n", r.Equity())
	if r.StartCash > 0 {
		fmt.Fprintf(w, "Return:        %.2f%%\n", (r.Equity()/r.StartCash-1)*100)
	}

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Metrics")
		fmt.Fprintln(w, "--------------------------------------------------")
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%-14s %.4f\n", name+":", r.Metrics[name])
		}
	}

	fmt.Fprintln(w)
}
