package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pui/internal/pack"
)

var (
	repomapDepth           int
	repomapIncludeExternal bool
	repomapBudget          int
	repomapFormat          string
)

var repomapCmd = &cobra.Command{
	Use:   "repomap",
	Short: "Generate a token-budgeted repository map",
	Long: `Generate the RepoMap pack: a structural overview of the repository
(directory layout, module dependencies, symbol index, key relationships)
laid out within a token budget for consumption by an LLM coding agent.

Examples:
  pui repomap
  pui repomap --budget=4000
  pui repomap --depth=3 --include-external
  pui repomap --format=json`,
	Run: runRepomap,
}

func init() {
	repomapCmd.Flags().IntVar(&repomapDepth, "depth", 2, "Maximum module dependency depth")
	repomapCmd.Flags().BoolVar(&repomapIncludeExternal, "include-external", false, "Include external dependencies")
	repomapCmd.Flags().IntVar(&repomapBudget, "budget", pack.RepoMapDefaultBudget, "Token budget for the pack")
	repomapCmd.Flags().StringVar(&repomapFormat, "format", "markdown", "Output format (markdown, json)")
	rootCmd.AddCommand(repomapCmd)
}

func runRepomap(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger("human")

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	if repomapBudget > pack.RepoMapMaxBudget {
		repomapBudget = pack.RepoMapMaxBudget
	}

	repoState, err := engine.GetRepoState(ctx, "full")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repo state: %v\n", err)
		os.Exit(1)
	}

	doc, err := pack.BuildRepoMap(ctx, engine, repomapDepth, repomapIncludeExternal, repoState.RepoStateId, repoState.ComputedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building repo map: %v\n", err)
		os.Exit(1)
	}

	if repomapFormat == "json" {
		data, err := pack.RenderJSON(doc, repomapBudget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering repo map: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		output, err := pack.Render(doc, repomapBudget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering repo map: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(output)
	}

	logger.Debug("Repo map generated", map[string]interface{}{
		"budget":   repomapBudget,
		"sections": len(doc.Sections),
		"duration": time.Since(start).Milliseconds(),
	})
}
