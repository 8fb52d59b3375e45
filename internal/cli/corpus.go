package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/brain"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/source"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and validate the corpus",
	Long: `Inspect and validate the response corpus.

Subcommands:
  show      Summarize the configured corpus
  validate  Check a corpus file and report problems

Examples:
  cube corpus show
  cube corpus validate
  cube corpus validate ./corpus.json`,
}

var corpusShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the configured corpus",
	RunE:  runCorpusShow,
}

var corpusValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a corpus file and report problems",
	Long: `Parse a corpus document and report anything that would degrade answers.

With no argument the corpus comes from the configured source, so this
doubles as a dry run for 'cube serve'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCorpusValidate,
}

func init() {
	corpusCmd.AddCommand(corpusShowCmd)
	corpusCmd.AddCommand(corpusValidateCmd)
}

// loadConfiguredCorpus reads corpus bytes from the source named in the config.
func loadConfiguredCorpus(ctx context.Context) ([]byte, string, error) {
	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, "", fmt.Errorf("init corpus source: %w", err)
	}

	data, err := src.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load corpus: %w", err)
	}
	return data, src.Describe(), nil
}

func runCorpusShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, origin, err := loadConfiguredCorpus(ctx)
	if err != nil {
		return err
	}

	b, err := brain.Parse(data)
	if err != nil {
		return fmt.Errorf("parse corpus: %w", err)
	}

	fmt.Printf("Corpus from %s\n\n", origin)
	if b.Empty() {
		fmt.Println("No intents found.")
		return nil
	}

	names := b.IntentNames()
	fmt.Printf("Intents (%d):\n\n", len(names))
	for _, name := range names {
		it := b.Intents[name]
		fmt.Printf("- %-20s %3d triggers  %3d keywords  %3d examples  %3d responses\n",
			name, len(it.Triggers), len(it.Keywords), len(it.Examples), len(it.Responses))
	}

	if kw := b.AllGlobalKeywords(); len(kw) > 0 {
		fmt.Printf("\nGlobal keywords: %d\n", len(kw))
	}

	if verbose {
		for _, name := range names {
			it := b.Intents[name]
			if len(it.Examples) == 0 {
				continue
			}
			fmt.Printf("\n%s examples:\n", name)
			for _, ex := range it.Examples {
				fmt.Printf("  - %s\n", firstLine(ex))
			}
		}
	}

	return nil
}

func runCorpusValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var (
		data   []byte
		origin string
		err    error
	)
	if len(args) == 1 {
		origin = args[0]
		data, err = os.ReadFile(origin)
		if err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}
	} else {
		data, origin, err = loadConfiguredCorpus(ctx)
		if err != nil {
			return err
		}
	}

	b, err := brain.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", origin, err)
	}

	trainable := 0
	for _, name := range b.IntentNames() {
		it := b.Intents[name]
		if len(it.Examples) > 0 || len(it.Responses) > 0 {
			trainable++
		}
	}
	fmt.Printf("%s: %d intents, %d trainable, %d global keywords\n",
		origin, len(b.Intents), trainable, len(b.AllGlobalKeywords()))

	warnings := lintBrain(b)
	if len(warnings) == 0 {
		fmt.Println("OK")
		return nil
	}

	fmt.Printf("\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		fmt.Printf("  • %s\n", w)
	}
	return nil
}

// lintBrain flags corpus shapes that parse fine but degrade answers.
// An empty or thin corpus still serves, so these are warnings, not errors.
func lintBrain(b *brain.Brain) []string {
	var warnings []string

	if b.Empty() {
		warnings = append(warnings, "corpus has no intents")
	}

	for _, name := range b.IntentNames() {
		it := b.Intents[name]
		if len(it.Examples) == 0 && len(it.Responses) == 0 {
			warnings = append(warnings, fmt.Sprintf("intent %q has no examples or responses to train on", name))
		}
		if len(it.Triggers) == 0 && len(it.Keywords) == 0 {
			warnings = append(warnings, fmt.Sprintf("intent %q has no triggers or keywords; it can only match through global keywords", name))
		}
		for _, tr := range it.Triggers {
			if strings.TrimSpace(tr) == "" {
				warnings = append(warnings, fmt.Sprintf("intent %q has an empty trigger", name))
			}
		}
	}

	return warnings
}
