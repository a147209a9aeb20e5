package pack

import (
	"context"
	"fmt"
	"sort"

	"pui/internal/query"
)

// RepoMapBudget holds the default/max token budgets for the RepoMap pack.
const (
	RepoMapDefaultBudget = 8000
	RepoMapMaxBudget     = 16000
)

// BuildRepoMap assembles the RepoMap pack: Header, Summary, Directory,
// Module Deps, Symbol Index, Key Relationships, Metadata, in that fixed
// order. It queries the engine for a module-granularity architecture view
// and the FTS-backed symbol index.
func BuildRepoMap(ctx context.Context, engine *query.Engine, depth int, includeExternal bool, repoStateId, generatedAt string) (Doc, error) {
	arch, err := engine.GetArchitecture(ctx, query.GetArchitectureOptions{
		Depth:               depth,
		IncludeExternalDeps: includeExternal,
		Granularity:         "module",
		InferModules:        true,
	})
	if err != nil {
		return Doc{}, err
	}

	sections := []Section{
		summarySection(arch),
		directorySection(arch),
		moduleDepsSection(arch),
		symbolIndexSection(ctx, engine),
		keyRelationshipsSection(arch),
		metadataSection(repoStateId, generatedAt, arch),
	}
	return Doc{
		Type:         "repomap",
		IndexVersion: repoStateId,
		GeneratedAt:  generatedAt,
		Sections:     sections,
	}, nil
}

func summarySection(arch *query.GetArchitectureResponse) Section {
	var files, symbols int
	for _, m := range arch.Modules {
		files += m.FileCount
		symbols += m.SymbolCount
	}
	rows := []string{
		fmt.Sprintf("- Modules: %d", len(arch.Modules)),
		fmt.Sprintf("- Files: %d", files),
		fmt.Sprintf("- Symbols: %d", symbols),
		fmt.Sprintf("- Entrypoints: %d", len(arch.Entrypoints)),
	}
	return Section{Title: "Summary", Rows: rows}
}

func directorySection(arch *query.GetArchitectureResponse) Section {
	mods := append([]query.ModuleSummary(nil), arch.Modules...)
	sort.Slice(mods, func(i, j int) bool { return mods[i].Path < mods[j].Path })

	rows := make([]string, 0, len(mods))
	for _, m := range mods {
		rows = append(rows, fmt.Sprintf("- `%s` (%s) — %d files, %d symbols", m.Path, m.Language, m.FileCount, m.SymbolCount))
	}
	return Section{Title: "Directory", Rows: rows}
}

func moduleDepsSection(arch *query.GetArchitectureResponse) Section {
	edges := append([]query.DependencyEdge(nil), arch.DependencyGraph...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	rows := make([]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, fmt.Sprintf("- `%s` -> `%s` (%s, strength %d)", e.From, e.To, e.Kind, e.Strength))
	}
	return Section{Title: "Module Deps", Rows: rows}
}

func symbolIndexSection(ctx context.Context, engine *query.Engine) Section {
	if engine == nil {
		return Section{Title: "Symbol Index", Rows: nil}
	}
	results, err := engine.SearchSymbolsFTS(ctx, "*", 200)
	if err != nil {
		return Section{Title: "Symbol Index", Rows: nil}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Rank != results[j].Rank {
			return results[i].Rank > results[j].Rank
		}
		return results[i].ID < results[j].ID
	})

	rows := make([]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, fmt.Sprintf("- `%s` %s (%s) — %s", r.ID, r.Name, r.Kind, r.FilePath))
	}
	return Section{Title: "Symbol Index", Rows: rows}
}

func keyRelationshipsSection(arch *query.GetArchitectureResponse) Section {
	edges := append([]query.DependencyEdge(nil), arch.DependencyGraph...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].Strength > edges[j].Strength })

	limit := 20
	if len(edges) < limit {
		limit = len(edges)
	}
	rows := make([]string, 0, limit)
	for _, e := range edges[:limit] {
		rows = append(rows, fmt.Sprintf("- `%s` depends on `%s` (%d references)", e.From, e.To, e.Strength))
	}
	return Section{Title: "Key Relationships", Rows: rows}
}

func metadataSection(repoStateId, generatedAt string, arch *query.GetArchitectureResponse) Section {
	rows := []string{
		fmt.Sprintf("- schema_version: %s", SchemaVersion),
		fmt.Sprintf("- index_version: %s", repoStateId),
		fmt.Sprintf("- generated_at: %s", generatedAt),
		fmt.Sprintf("- detection_method: %s", arch.DetectionMethod),
	}
	if arch.Truncated {
		rows = append(rows, "- truncated: true")
	}
	return Section{Title: "Metadata", Mandatory: true, Rows: rows}
}
