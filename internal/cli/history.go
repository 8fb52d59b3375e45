package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/transcript"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent exchanges",
	Long: `Show recent prompt/reply exchanges from the transcript database.

Reads the database directly, so it works whether or not a server is
running.

Examples:
  cube history
  cube history --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max exchanges")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if cfg.TranscriptDB == "" {
		return fmt.Errorf("transcript is disabled; set CUBE_TRANSCRIPT_DB")
	}

	ts, err := transcript.Open(cfg.TranscriptDB)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer ts.Close()

	exchanges, err := ts.Recent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	if len(exchanges) == 0 {
		fmt.Println("No exchanges recorded.")
		return nil
	}

	fmt.Printf("Exchanges (%d):\n\n", len(exchanges))
	for _, ex := range exchanges {
		fmt.Printf("%s  [%s]\n", ex.CreatedAt.Local().Format(time.DateTime), ex.Intent)
		fmt.Printf("  > %s\n", firstLine(ex.Prompt))
		fmt.Printf("  < %s\n", firstLine(ex.Reply))
		if verbose {
			fmt.Printf("  label=%s score=%.2f duration=%dms\n", ex.Label, ex.Score, ex.DurationMs)
		}
		fmt.Println()
	}

	if verbose {
		stats, err := ts.Totals(ctx)
		if err != nil {
			return fmt.Errorf("transcript totals: %w", err)
		}
		fmt.Printf("Total recorded: %d (avg %.0fms)\n", stats.Total, stats.AvgDurationMs)
		labels := make([]string, 0, len(stats.ByLabel))
		for label := range stats.ByLabel {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Printf("  %s: %d\n", label, stats.ByLabel[label])
		}
	}

	return nil
}
