package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradekit/replaysim/backtest"
	"github.com/tradekit/replaysim/config"
	"github.com/tradekit/replaysim/feed"
	"github.com/tradekit/replaysim/journal"
	"github.com/tradekit/replaysim/perf"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a CSV bar dataset through a strategy",
	Long: `Run replays a CSV dataset (date,instrument,open,close[,extra...]) bar by
bar through the configured strategy stack and prints a run summary.

Supported strategies:
  - noop: never trades (baseline)
  - sma-cross: SMA crossover with configurable fast/slow periods

Example:
  replaysim run --bars data/us.csv --strategy sma-cross --fast 10 --slow 40 --size 5`,
	RunE: runReplay,
}

var (
	runBarsPath   string
	runConfigPath string
	runCash       float64
	runStrategy   string
	runFast       int
	runSlow       int
	runSize       float64
	runFrom       string
	runTo         string
	runDBPath     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runBarsPath, "bars", "b", "", "path to bar CSV (date,instrument,open,close[,extra...]) (required)")
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config (flags override it)")
	runCmd.Flags().Float64Var(&runCash, "cash", 0, "starting cash (default 1000)")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (noop, sma-cross)")
	runCmd.Flags().IntVar(&runFast, "fast", 0, "sma-cross: fast period")
	runCmd.Flags().IntVar(&runSlow, "slow", 0, "sma-cross: slow period")
	runCmd.Flags().Float64Var(&runSize, "size", 0, "sma-cross: target position size")
	runCmd.Flags().StringVar(&runFrom, "from", "", "skip batches before this date (RFC3339 or 2006-01-02)")
	runCmd.Flags().StringVar(&runTo, "to", "", "skip batches after this date")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "record the run to this SQLite journal")

	runCmd.MarkFlagRequired("bars")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	src, err := feed.NewCSVBarFeed(runBarsPath)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}
	defer src.Close()

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	runner := &backtest.Runner{
		Source:  src,
		Config:  cfg,
		Journal: j,
		Dataset: runBarsPath,
		Indicators: []perf.Indicator{
			perf.CAGR{},
			perf.ProfitFactor{},
			perf.MaxDrawdown{},
		},
	}

	result, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	result.Print(os.Stdout)
	return nil
}

func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if runCash != 0 {
		cfg.Cash = runCash
	}
	if runStrategy != "" {
		cfg.Strategy.Name = runStrategy
	}
	if runFast != 0 {
		cfg.Strategy.Fast = runFast
	}
	if runSlow != 0 {
		cfg.Strategy.Slow = runSlow
	}
	if runSize != 0 {
		cfg.Strategy.Size = runSize
	}
	if runFrom != "" {
		cfg.From = runFrom
	}
	if runTo != "" {
		cfg.To = runTo
	}
	if runDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: runDBPath}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.AccountFile, cfg.Journal.LotsFile)
	default:
		return journal.Nop{}, nil
	}
}
