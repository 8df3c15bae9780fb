package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/sigwatch/internal/control"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single health check and print the result",
	Long: `check fetches the latest block once, evaluates it and prints the outcome.
Alerts are logged rather than paged.`,
	Run: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewWatcher(cfg, control.Options{DryRun: true})
	if err != nil {
		slog.Error("Failed to initialize Watcher", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Node.Timeout+5*time.Second)
	defer cancel()

	report, checkErr := app.CheckOnce(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "VALIDATOR\tCHAIN\tHEIGHT\tBLOCK AGE\tSIGNED\tSTATUS")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.1fs\t%t\t%s\n",
		report.Validator,
		report.Chain,
		report.Counters.LastHeight,
		report.BlockAgeSeconds,
		report.Counters.LastSigned,
		report.SystemStatus,
	)
	_ = w.Flush()

	if checkErr != nil {
		slog.Error("Check failed", "error", checkErr)
		os.Exit(1)
	}
}
