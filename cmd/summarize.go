package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/batch"
	"github.com/ziadkadry99/topicreader/internal/credentials"
	"github.com/ziadkadry99/topicreader/internal/llm"
	"github.com/ziadkadry99/topicreader/internal/progress"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate, export and import post summaries in topic files",
}

var summarizeGenerateCmd = &cobra.Command{
	Use:   "generate <file|glob>...",
	Short: "Summarize posts that have no summary yet",
	Long: `Summarizes every post whose summary is empty (or a known placeholder) and
writes the summaries back into the file. A one-time <file>.bak backup is made
before the first write. With --selective only posts marked ai_summarize are
summarized, and the mark is cleared afterwards. Globs such as
"exports/**/*.json" are expanded; .bak files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarizeGenerate,
}

var summarizeExportCmd = &cobra.Command{
	Use:   "export <source> <output>",
	Short: "Write the summaries of a topic file to a {post_id: summary} JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := batch.ExportFile(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d summaries to %s\n", n, args[1])
		return nil
	},
}

var summarizeImportCmd = &cobra.Command{
	Use:   "import <summaries> <target>",
	Short: "Copy summaries from a {post_id: summary} JSON file into a topic file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := batch.ImportFile(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d summaries into %s\n", n, args[1])
		return nil
	},
}

func init() {
	summarizeGenerateCmd.Flags().Bool("selective", false, "only summarize posts marked ai_summarize")
	summarizeGenerateCmd.Flags().Bool("overwrite", false, "re-summarize posts that already have a summary")
	summarizeGenerateCmd.Flags().Bool("dry-run", false, "estimate tokens and cost without making API calls")
	summarizeGenerateCmd.Flags().Int("concurrency", 0, "max parallel LLM calls (overrides config)")

	summarizeCmd.AddCommand(summarizeGenerateCmd, summarizeExportCmd, summarizeImportCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarizeGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := batch.Options{
		Concurrency: cfg.MaxConcurrency,
		Model:       cfg.Model,
		MaxCostUSD:  cfg.MaxCostUSD,
	}
	opts.Selective, _ = cmd.Flags().GetBool("selective")
	opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		opts.Concurrency = n
	}

	files, err := batch.Expand(args)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d file(s) to process\n", len(files))
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	opts.APIKey = credentials.NewStore(database).Get(string(cfg.Provider))
	if !opts.DryRun && opts.APIKey == "" && llm.NeedsKey(string(cfg.Provider)) {
		return fmt.Errorf("%w: set %s or save a key from the reader", ai.ErrMissingCredential, llm.KeyEnv(string(cfg.Provider)))
	}
	svc := newAIService(cfg, database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var totalSummarized, totalErrors int
	var totalCost float64
	for _, file := range files {
		opts.Reporter = progress.NewReporter("Summarizing " + filepath.Base(file))
		if opts.DryRun {
			opts.Reporter = progress.Nop{}
		}

		res, err := batch.Generate(ctx, file, svc, opts)
		if errors.Is(err, batch.ErrBudget) {
			return fmt.Errorf("%w (raise max_cost_usd or use --dry-run to inspect)", err)
		}
		if err != nil {
			return err
		}

		totalCost += res.EstimatedCost
		if opts.DryRun {
			fmt.Printf("%s: %d of %d posts selected, ~%d input / ~%d output tokens, ~$%.4f\n",
				file, res.Selected, res.Posts, res.InputTokens, res.OutputTokens, res.EstimatedCost)
			continue
		}

		totalSummarized += res.Summarized
		totalErrors += len(res.Errors)
		fmt.Printf("%s: summarized %d of %d selected posts\n", file, res.Summarized, res.Selected)
		if verbose {
			for _, e := range res.Errors {
				fmt.Fprintf(os.Stderr, "  %v\n", e)
			}
		}
		if res.QuotaExhausted {
			fmt.Fprintln(os.Stderr, "API quota exhausted; stopping. Summaries written so far were saved.")
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	if opts.DryRun {
		fmt.Printf("\nEstimated total: ~$%.4f with %s\n", totalCost, cfg.Model)
		return nil
	}
	fmt.Printf("\nDone in %s: %d summaries written, %d error(s)\n", time.Since(start).Round(time.Millisecond), totalSummarized, totalErrors)
	return nil
}
