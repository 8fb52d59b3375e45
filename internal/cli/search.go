package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/websearch"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web for cubing material",
	Long: `Search the web through the DuckDuckGo HTML endpoint.

Runs locally without a server. Useful for finding fresh material to fold
into the corpus.

Examples:
  cube search "F2L tutorial"
  cube search "world record 3x3" --limit 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max results (0 uses the config default)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	limit := cfg.SearchResults
	if searchLimit > 0 {
		limit = searchLimit
	}

	ws := websearch.New(websearch.Options{
		UserAgent:  cfg.SearchUserAgent,
		MaxResults: limit,
		Logger:     logger,
	})

	results, err := ws.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%d. %s\n", i+1, r.Title)
		fmt.Printf("   %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
		fmt.Println()
	}

	return nil
}
