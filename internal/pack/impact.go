package pack

import (
	"context"
	"fmt"
	"sort"

	"pui/internal/query"
)

// Impact pack default/max token budgets.
const (
	ImpactDefaultBudget = 6000
	ImpactMaxBudget     = 12000
)

// BuildImpact assembles the Impact pack for a changed symbol: Header,
// Changed Items, Upstream, Downstream, Tests, Risk, Ranked Files, Metadata.
func BuildImpact(ctx context.Context, engine *query.Engine, symbolId string, depth int, includeTests bool, generatedAt string) (Doc, error) {
	resp, err := engine.AnalyzeImpact(ctx, query.AnalyzeImpactOptions{
		SymbolId:     symbolId,
		Depth:        depth,
		IncludeTests: includeTests,
	})
	if err != nil {
		return Doc{}, err
	}

	sections := []Section{
		changedItemsSection(resp),
		upstreamSection(resp),
		downstreamSection(resp),
		testsSection(resp),
		riskSection(resp),
		rankedFilesSection(resp),
		impactMetadataSection(symbolId, generatedAt, resp),
	}

	return Doc{
		Type:        "impact",
		GeneratedAt: generatedAt,
		Sections:    sections,
	}, nil
}

func changedItemsSection(resp *query.AnalyzeImpactResponse) Section {
	if resp.Symbol == nil {
		return Section{Title: "Changed Items", Rows: nil}
	}
	return Section{Title: "Changed Items", Rows: []string{
		fmt.Sprintf("- `%s` %s (%s)", resp.Symbol.StableId, resp.Symbol.Name, resp.Symbol.Kind),
	}}
}

func upstreamSection(resp *query.AnalyzeImpactResponse) Section {
	direct := filterImpact(resp.DirectImpact, "direct-caller")
	return Section{Title: "Upstream", Rows: impactRows(direct)}
}

func downstreamSection(resp *query.AnalyzeImpactResponse) Section {
	transitive := append([]query.ImpactItem(nil), resp.TransitiveImpact...)
	sort.Slice(transitive, func(i, j int) bool { return transitive[i].Distance < transitive[j].Distance })
	return Section{Title: "Downstream", Rows: impactRows(transitive)}
}

func testsSection(resp *query.AnalyzeImpactResponse) Section {
	all := append(append([]query.ImpactItem(nil), resp.DirectImpact...), resp.TransitiveImpact...)
	tests := filterImpact(all, "test-dependency")
	return Section{Title: "Tests", Rows: impactRows(tests)}
}

func filterImpact(items []query.ImpactItem, kind string) []query.ImpactItem {
	var out []query.ImpactItem
	for _, it := range items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

func impactRows(items []query.ImpactItem) []string {
	rows := make([]string, 0, len(items))
	for _, it := range items {
		loc := ""
		if it.Location != nil {
			loc = fmt.Sprintf(" (%s:%d)", it.Location.FileId, it.Location.StartLine)
		}
		rationale := "test proximity"
		if it.Kind != "test-dependency" {
			rationale = fmt.Sprintf("%s at distance %d", it.Kind, it.Distance)
		}
		rows = append(rows, fmt.Sprintf("- `%s` %s%s — confidence %.2f, %s", it.StableId, it.Name, loc, it.Confidence, rationale))
	}
	return rows
}

func riskSection(resp *query.AnalyzeImpactResponse) Section {
	if resp.RiskScore == nil {
		return Section{Title: "Risk", Rows: nil}
	}
	rows := []string{
		fmt.Sprintf("- level: %s (score %.2f)", resp.RiskScore.Level, resp.RiskScore.Score),
		fmt.Sprintf("- %s", resp.RiskScore.Explanation),
	}
	for _, f := range resp.RiskScore.Factors {
		rows = append(rows, fmt.Sprintf("  - %s: %.2f (weight %.2f)", f.Name, f.Value, f.Weight))
	}
	return Section{Title: "Risk", Rows: rows}
}

// rankedFilesSection renders the engine's fan-in / test-proximity / file
// centrality review order, falling back to a per-module summary when the
// backend could not produce a ranking (e.g. no store attached).
func rankedFilesSection(resp *query.AnalyzeImpactResponse) Section {
	if len(resp.RankedReview) > 0 {
		rows := make([]string, 0, len(resp.RankedReview))
		for _, ri := range resp.RankedReview {
			rows = append(rows, fmt.Sprintf("- `%s` %s (%s) — %s", ri.StableId, ri.Name, ri.Kind, ri.Rationale))
		}
		return Section{Title: "Ranked Files", Rows: rows}
	}

	mods := append([]query.ModuleImpact(nil), resp.ModulesAffected...)
	sort.Slice(mods, func(i, j int) bool {
		if mods[i].ImpactCount != mods[j].ImpactCount {
			return mods[i].ImpactCount > mods[j].ImpactCount
		}
		return mods[i].ModuleId < mods[j].ModuleId
	})
	rows := make([]string, 0, len(mods))
	for _, m := range mods {
		rows = append(rows, fmt.Sprintf("- `%s` — %d affected (%d direct, %d breaking)", m.ModuleId, m.ImpactCount, m.DirectCount, m.BreakingCount))
	}
	return Section{Title: "Ranked Files", Rows: rows}
}

func impactMetadataSection(symbolId, generatedAt string, resp *query.AnalyzeImpactResponse) Section {
	rows := []string{
		fmt.Sprintf("- schema_version: %s", SchemaVersion),
		fmt.Sprintf("- symbol_id: %s", symbolId),
		fmt.Sprintf("- generated_at: %s", generatedAt),
	}
	if resp.Truncated {
		rows = append(rows, "- truncated: true")
	}
	return Section{Title: "Metadata", Mandatory: true, Rows: rows}
}
