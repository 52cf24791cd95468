package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/history"
	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/pipeline"
)

var (
	askJSON   bool
	askNoSave bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Research a question end to end",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "), false)
	},
}

var followupCmd = &cobra.Command{
	Use:   "followup [question]",
	Short: "Ask a follow-up that builds on recent runs",
	Long:  "Seeds the session context from the newest history entries, so a follow-up like \"what are the risks?\" stays on the subject of the previous question.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "), true)
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, followupCmd} {
		c.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
		c.Flags().BoolVar(&askNoSave, "no-save", false, "do not record the run in history")
	}
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(followupCmd)
}

func runAsk(cmd *cobra.Command, question string, followup bool) error {
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if followup {
		seedChain(p, store)
	}

	run := p.Start(ctx, question, followup)
	result, err := run.Wait()
	if err != nil {
		printSteps(run.Steps())
		return err
	}

	if !askNoSave {
		if err := store.Save(ctx, result); err != nil {
			zap.L().Warn("could not save run to history", zap.Error(err))
		}
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

// seedChain rebuilds the session context from the newest stored runs,
// oldest first, so a follow-up in a fresh process still has a subject.
func seedChain(p *pipeline.Pipeline, store history.Store) {
	entries, err := store.List(context.Background(), cfg.Pipeline.ChainDepth)
	if err != nil {
		zap.L().Warn("could not seed context from history", zap.Error(err))
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		result, err := store.Get(context.Background(), e.ID)
		if err != nil {
			continue
		}
		kind := "research"
		if e.Contextual {
			kind = "followup"
		}
		p.Chain().Push(kind, e.Query, result.Digest(model.SummaryLen))
	}
}

func printResult(result *model.ResearchResult) {
	fmt.Println(result.Synthesis)
	fmt.Println()
	fmt.Printf("run %s: %d queries, %d results, %d articles, %dms\n",
		result.ID,
		result.Stats.QueriesUsed,
		result.Stats.SearchResults,
		result.Stats.Articles,
		result.Stats.DurationMS,
	)
	if len(result.SearchResults) > 0 {
		fmt.Println("\nSources:")
		for _, r := range result.SearchResults {
			fmt.Printf("  - %s (%s)\n", r.Title, r.URL)
		}
	}
}

func printSteps(steps []model.PipelineStep) {
	for _, s := range steps {
		fmt.Fprintf(os.Stderr, "  %-10s %-24s %s\n", s.State, s.Label, s.Detail)
	}
}
