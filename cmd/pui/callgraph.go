package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"pui/internal/pack"
	"pui/internal/query"
)

var (
	callgraphDirection string
	callgraphDepth     int
	callgraphFormat    string
	callgraphBudget    int
)

var callgraphCmd = &cobra.Command{
	Use:     "callgraph <symbol-id>",
	Aliases: []string{"graph"},
	Short:   "Get caller/callee relationships for a symbol",
	Long: `Build a lightweight call graph showing callers and callees of a symbol.

Direction options:
  - callers: Show only functions that call this symbol
  - callees: Show only functions called by this symbol
  - both: Show both callers and callees (default)

Examples:
  pui callgraph 'scip-go gomod myproject myproject/pkg/MyFunction'
  pui callgraph --direction=callers --depth=2 'symbol-id'
  pui callgraph --format=human 'symbol-id'`,
	Args: cobra.ExactArgs(1),
	Run:  runCallgraph,
}

func init() {
	callgraphCmd.Flags().StringVar(&callgraphDirection, "direction", "both", "Direction to traverse (callers, callees, both)")
	callgraphCmd.Flags().IntVar(&callgraphDepth, "depth", 1, "Maximum depth to traverse (1-4)")
	callgraphCmd.Flags().StringVar(&callgraphFormat, "format", "json", "Output format (json, human)")
	callgraphCmd.Flags().IntVar(&callgraphBudget, "budget", 0, "Token budget; lowest-score nodes are dropped until the rendered graph fits (0 = unlimited)")
	rootCmd.AddCommand(callgraphCmd)
}

func runCallgraph(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(callgraphFormat)
	symbolId := args[0]

	repoRoot := mustGetRepoRoot()
	engine := mustGetEngine(repoRoot, logger)
	ctx := newContext()

	opts := query.CallGraphOptions{
		SymbolId:  symbolId,
		Direction: callgraphDirection,
		Depth:     callgraphDepth,
	}
	response, err := engine.GetCallGraph(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting call graph: %v\n", err)
		os.Exit(1)
	}

	cliResponse := convertCallgraphResponse(response)
	droppedForBudget := 0

	output, err := FormatResponse(cliResponse, OutputFormat(callgraphFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}

	if callgraphBudget > 0 {
		output, droppedForBudget, err = fitCallgraphToBudget(cliResponse, callgraphBudget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fitting call graph to budget: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println(output)

	logger.Debug("Callgraph query completed", map[string]interface{}{
		"symbolId":          symbolId,
		"direction":         callgraphDirection,
		"nodes":             len(response.Nodes),
		"edges":             len(response.Edges),
		"droppedForBudget":  droppedForBudget,
		"duration":          time.Since(start).Milliseconds(),
	})
}

// fitCallgraphToBudget drops the lowest-score, deepest nodes (and any edges
// touching them) until the rendered graph's estimated token count fits
// within budget, or only the root node remains. It re-renders after each
// drop since removing a node changes the serialized size non-linearly.
func fitCallgraphToBudget(resp *CallgraphResponseCLI, budget int) (string, int, error) {
	nodes := append([]CallgraphNodeCLI(nil), resp.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Score != nodes[j].Score {
			return nodes[i].Score > nodes[j].Score
		}
		return nodes[i].Depth < nodes[j].Depth
	})

	dropped := 0
	for {
		trimmed := &CallgraphResponseCLI{
			Root:       resp.Root,
			Nodes:      nodes,
			Edges:      keepEdgesFor(resp.Edges, nodes),
			Provenance: resp.Provenance,
		}

		text, err := FormatResponse(trimmed, OutputFormat(callgraphFormat))
		if err != nil {
			return "", dropped, err
		}

		if pack.Estimate(text) <= budget || len(nodes) <= 1 {
			return text, dropped, nil
		}

		nodes = nodes[:len(nodes)-1]
		dropped++
	}
}

func keepEdgesFor(edges []CallgraphEdgeCLI, nodes []CallgraphNodeCLI) []CallgraphEdgeCLI {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	out := make([]CallgraphEdgeCLI, 0, len(edges))
	for _, e := range edges {
		if ids[e.From] && ids[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// CallgraphResponseCLI contains call graph results for CLI output
type CallgraphResponseCLI struct {
	Root       string             `json:"root"`
	Nodes      []CallgraphNodeCLI `json:"nodes"`
	Edges      []CallgraphEdgeCLI `json:"edges"`
	Provenance *ProvenanceCLI     `json:"provenance,omitempty"`
}

// CallgraphNodeCLI represents a node in the call graph
type CallgraphNodeCLI struct {
	ID       string       `json:"id"`
	SymbolId string       `json:"symbolId,omitempty"`
	Name     string       `json:"name"`
	Location *LocationCLI `json:"location,omitempty"`
	Depth    int          `json:"depth"`
	Role     string       `json:"role"`
	Score    float64      `json:"score"`
}

// CallgraphEdgeCLI represents an edge in the call graph
type CallgraphEdgeCLI struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func convertCallgraphResponse(resp *query.CallGraphResponse) *CallgraphResponseCLI {
	nodes := make([]CallgraphNodeCLI, 0, len(resp.Nodes))
	for _, n := range resp.Nodes {
		node := CallgraphNodeCLI{
			ID:       n.ID,
			SymbolId: n.SymbolId,
			Name:     n.Name,
			Depth:    n.Depth,
			Role:     n.Role,
			Score:    n.Score,
		}
		if n.Location != nil {
			node.Location = &LocationCLI{
				FileID:      n.Location.FileId,
				Path:        n.Location.FileId,
				StartLine:   n.Location.StartLine,
				StartColumn: n.Location.StartColumn,
			}
		}
		nodes = append(nodes, node)
	}

	edges := make([]CallgraphEdgeCLI, 0, len(resp.Edges))
	for _, e := range resp.Edges {
		edges = append(edges, CallgraphEdgeCLI{
			From: e.From,
			To:   e.To,
		})
	}

	result := &CallgraphResponseCLI{
		Root:  resp.Root,
		Nodes: nodes,
		Edges: edges,
	}

	if resp.Provenance != nil {
		result.Provenance = &ProvenanceCLI{
			RepoStateId:     resp.Provenance.RepoStateId,
			RepoStateDirty:  resp.Provenance.RepoStateDirty,
			QueryDurationMs: resp.Provenance.QueryDurationMs,
		}
	}

	return result
}
