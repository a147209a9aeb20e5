package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pui/internal/query"
)

// Zoom pack default/max token budgets.
const (
	ZoomDefaultBudget = 4000
	ZoomMaxBudget     = 8000
)

// keywords that keep a source line in the skeletonized view: calls,
// control flow, and returns/throws. Best-effort and language-agnostic.
var skeletonKeywords = []string{"return", "raise", "throw", "panic", "if ", "for ", "while ", "switch", "match ", "("}

// BuildZoom assembles the Zoom pack for a single symbol: Header, Signature,
// Docs, Skeleton, Callers, Callees, Code Slice, Related, Metadata.
func BuildZoom(ctx context.Context, engine *query.Engine, repoRoot, symbolId, generatedAt string) (Doc, error) {
	symResp, err := engine.GetSymbol(ctx, query.GetSymbolOptions{SymbolId: symbolId, RepoStateMode: "full"})
	if err != nil {
		return Doc{}, err
	}
	if symResp.Symbol == nil {
		return Doc{
			Type:        "zoom",
			GeneratedAt: generatedAt,
			Sections: []Section{
				{Title: "Metadata", Mandatory: true, Rows: []string{
					fmt.Sprintf("- schema_version: %s", SchemaVersion),
					fmt.Sprintf("- generated_at: %s", generatedAt),
					fmt.Sprintf("- error: symbol not found: %s", symbolId),
				}},
			},
		}, nil
	}
	sym := symResp.Symbol

	callGraph, cgErr := engine.GetCallGraph(ctx, query.CallGraphOptions{SymbolId: symbolId, Direction: "both", Depth: 1})
	var callers, callees []query.CallGraphNode
	if cgErr == nil {
		for _, n := range callGraph.Nodes {
			switch n.Role {
			case "caller":
				callers = append(callers, n)
			case "callee":
				callees = append(callees, n)
			}
		}
	}

	var source []string
	if sym.Location != nil {
		if data, readErr := os.ReadFile(filepath.Join(repoRoot, sym.Location.FileId)); readErr == nil {
			source = strings.Split(string(data), "\n")
		}
	}

	sections := []Section{
		{Title: "Signature", Mandatory: true, Rows: []string{"```", sym.Signature, "```"}},
		{Title: "Docs", Rows: docsRows(sym.Documentation)},
		{Title: "Skeleton", Rows: skeletonRows(source, sym)},
		{Title: "Callers", Rows: callGraphRows(callers)},
		{Title: "Callees", Rows: callGraphRows(callees)},
		{Title: "Code Slice", Rows: codeSliceRows(source, sym)},
		{Title: "Related", Rows: relatedRows(sym)},
		zoomMetadataSection(symbolId, generatedAt, sym),
	}

	return Doc{
		Type:         "zoom",
		IndexVersion: sym.ModuleId,
		GeneratedAt:  generatedAt,
		Sections:     sections,
	}, nil
}

func docsRows(doc string) []string {
	if doc == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}

// skeletonRows keeps the signature line plus lines matching call/branch/
// return keywords within the symbol's span, collapsing runs of dropped
// lines into a single placeholder.
func skeletonRows(source []string, sym *query.SymbolInfo) []string {
	if source == nil || sym.Location == nil || sym.Location.StartLine < 1 {
		return nil
	}
	start := sym.Location.StartLine - 1
	end := sym.Location.EndLine
	if end == 0 || end > len(source) {
		end = len(source)
	}
	if start >= end || start >= len(source) {
		return nil
	}

	var rows []string
	collapsed := false
	for _, line := range source[start:end] {
		trimmed := strings.TrimSpace(line)
		keep := trimmed == "" || matchesAny(trimmed, skeletonKeywords)
		if keep {
			rows = append(rows, line)
			collapsed = false
			continue
		}
		if !collapsed {
			rows = append(rows, "    // ...")
			collapsed = true
		}
	}
	return rows
}

func matchesAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

func codeSliceRows(source []string, sym *query.SymbolInfo) []string {
	if source == nil || sym.Location == nil || sym.Location.StartLine < 1 {
		return nil
	}
	start := sym.Location.StartLine - 1
	end := sym.Location.EndLine
	if end == 0 || end > len(source) {
		end = len(source)
	}
	if start >= end || start >= len(source) {
		return nil
	}
	rows := []string{"```"}
	rows = append(rows, source[start:end]...)
	rows = append(rows, "```")
	return rows
}

func callGraphRows(nodes []query.CallGraphNode) []string {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		if nodes[i].Score != nodes[j].Score {
			return nodes[i].Score > nodes[j].Score
		}
		return nodes[i].Name < nodes[j].Name
	})
	rows := make([]string, 0, len(nodes))
	for _, n := range nodes {
		loc := ""
		if n.Location != nil {
			loc = fmt.Sprintf(" (%s:%d)", n.Location.FileId, n.Location.StartLine)
		}
		rows = append(rows, fmt.Sprintf("- `%s` %s%s — confidence %.2f", n.SymbolId, n.Name, loc, n.Score))
	}
	return rows
}

func relatedRows(sym *query.SymbolInfo) []string {
	if sym.ContainerName == "" {
		return nil
	}
	return []string{fmt.Sprintf("- container: `%s`", sym.ContainerName)}
}

func zoomMetadataSection(symbolId, generatedAt string, sym *query.SymbolInfo) Section {
	rows := []string{
		fmt.Sprintf("- schema_version: %s", SchemaVersion),
		fmt.Sprintf("- symbol_id: %s", symbolId),
		fmt.Sprintf("- generated_at: %s", generatedAt),
		fmt.Sprintf("- location_freshness: %s", sym.LocationFreshness),
	}
	if sym.Location != nil {
		rows = append(rows, fmt.Sprintf("- location: %s:%d", sym.Location.FileId, sym.Location.StartLine))
	}
	return Section{Title: "Metadata", Mandatory: true, Rows: rows}
}
