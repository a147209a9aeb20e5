package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pui/internal/pack"
)

var (
	zoomBudget int
	zoomFormat string
)

var zoomCmd = &cobra.Command{
	Use:   "zoom <symbolId>",
	Short: "Zoom into a single symbol within a token budget",
	Long: `Generate the Zoom pack for a single symbol: signature, docs,
a skeletonized body, callers, callees, a code slice, and related symbols,
laid out within a token budget for consumption by an LLM coding agent.

Examples:
  pui zoom symbol-123
  pui zoom symbol-123 --budget=2000
  pui zoom symbol-123 --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runZoom,
}

func init() {
	zoomCmd.Flags().IntVar(&zoomBudget, "budget", pack.ZoomDefaultBudget, "Token budget for the pack")
	zoomCmd.Flags().StringVar(&zoomFormat, "format", "markdown", "Output format (markdown, json)")
	rootCmd.AddCommand(zoomCmd)
}

func runZoom(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger("human")
	symbolID := args[0]

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	if zoomBudget > pack.ZoomMaxBudget {
		zoomBudget = pack.ZoomMaxBudget
	}

	repoState, err := engine.GetRepoState(ctx, "full")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repo state: %v\n", err)
		os.Exit(1)
	}

	doc, err := pack.BuildZoom(ctx, engine, repoRoot, symbolID, repoState.ComputedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building zoom pack: %v\n", err)
		os.Exit(1)
	}

	if zoomFormat == "json" {
		data, err := pack.RenderJSON(doc, zoomBudget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering zoom pack: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		output, err := pack.Render(doc, zoomBudget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering zoom pack: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(output)
	}

	logger.Debug("Zoom pack generated", map[string]interface{}{
		"symbolId": symbolID,
		"budget":   zoomBudget,
		"sections": len(doc.Sections),
		"duration": time.Since(start).Milliseconds(),
	})
}
