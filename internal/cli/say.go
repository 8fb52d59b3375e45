package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/respond"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/source"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/store"
)

var (
	sayMaxTokens int
	saySeed      int64
)

var sayCmd = &cobra.Command{
	Use:   "say <prompt>",
	Short: "Generate a reply locally, without a server",
	Long: `Load the corpus from the configured source, build the model in memory,
and print the best reply for the prompt.

Examples:
  cube say "how do I solve the white cross?"
  cube say --max-tokens 20 "hello"
  cube say -v "what is F2L?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func init() {
	sayCmd.Flags().IntVarP(&sayMaxTokens, "max-tokens", "m", 0, "token budget for the reply (0 = config default)")
	sayCmd.Flags().Int64Var(&saySeed, "seed", 0, "random seed for reproducible output (0 = random)")
}

func runSay(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	ctx := context.Background()

	responder, err := localResponder(ctx)
	if err != nil {
		return err
	}

	if saySeed != 0 {
		responder = responder.WithRNG(func() *rand.Rand {
			return rand.New(rand.NewSource(saySeed))
		})
	}

	res, err := responder.Generate(ctx, prompt, sayMaxTokens)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Println(res.Chosen)

	if verbose {
		fmt.Printf("\nintent: %s\n", res.Intent)
		for i, c := range res.Candidates {
			marker := "  "
			if i == res.ChosenIndex {
				marker = "* "
			}
			fmt.Printf("%s%-12s %6.2f  %s\n", marker, c.Label, c.Score, firstLine(c.Text))
		}
	}

	return nil
}

// localResponder loads the corpus from the configured source and builds
// a standalone response pipeline, no server involved.
func localResponder(ctx context.Context) (*respond.Responder, error) {
	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init corpus source: %w", err)
	}

	data, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	st := store.New()
	if err := st.Reload(data); err != nil {
		return nil, err
	}

	return respond.New(st, respond.Config{
		DefaultMaxTokens: cfg.DefaultMaxTokens,
		TokenCap:         cfg.TokenCap,
		Logger:           logger,
	}), nil
}

// firstLine flattens candidate text for the table view.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
