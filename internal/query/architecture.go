package query

import (
	"context"
	"sort"
	"time"

	"pui/internal/architecture"
	"pui/internal/compression"
	"pui/internal/errors"
	"pui/internal/modules"
	"pui/internal/output"
)

// GetArchitectureOptions contains options for getArchitecture.
type GetArchitectureOptions struct {
	Depth               int
	IncludeExternalDeps bool
	Refresh             bool

	// Granularity selects the level of detail: "module" (default),
	// "directory", or "file".
	Granularity  string
	InferModules bool
	TargetPath   string
}

// GetArchitectureResponse is the response for getArchitecture.
type GetArchitectureResponse struct {
	// Metadata, always present.
	Granularity     string `json:"granularity"`
	DetectionMethod string `json:"detectionMethod,omitempty"`

	// Module-level fields (granularity=module)
	Modules         []ModuleSummary  `json:"modules,omitempty"`
	DependencyGraph []DependencyEdge `json:"dependencyGraph,omitempty"`
	Entrypoints     []Entrypoint     `json:"entrypoints,omitempty"`

	// Directory-level fields (granularity=directory)
	Directories           []DirectorySummary        `json:"directories,omitempty"`
	DirectoryDependencies []DirectoryDependencyEdge `json:"directoryDependencies,omitempty"`

	// File-level fields (granularity=file)
	Files            []FileSummary        `json:"files,omitempty"`
	FileDependencies []FileDependencyEdge `json:"fileDependencies,omitempty"`

	Truncated       bool                  `json:"truncated,omitempty"`
	TruncationInfo  *TruncationInfo       `json:"truncationInfo,omitempty"`
	Provenance      *Provenance           `json:"provenance"`
	Drilldowns      []output.Drilldown    `json:"drilldowns,omitempty"`
	Confidence      float64               `json:"confidence"`
	ConfidenceBasis []ConfidenceBasisItem `json:"confidenceBasis"`
	Limitations     []string              `json:"limitations,omitempty"`
}

// DirectorySummary mirrors architecture.DirectorySummary for directory-level responses.
type DirectorySummary struct {
	Path           string `json:"path"`
	FileCount      int    `json:"fileCount"`
	SymbolCount    int    `json:"symbolCount"`
	Language       string `json:"language,omitempty"`
	LOC            int    `json:"loc,omitempty"`
	Role           string `json:"role,omitempty"`
	HasIndexFile   bool   `json:"hasIndexFile"`
	IncomingEdges  int    `json:"incomingEdges"`
	OutgoingEdges  int    `json:"outgoingEdges"`
	IsIntermediate bool   `json:"isIntermediate,omitempty"`
}

// DirectoryDependencyEdge mirrors architecture.DirectoryDependencyEdge.
type DirectoryDependencyEdge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Kind        string   `json:"kind,omitempty"`
	ImportCount int      `json:"importCount"`
	Symbols     []string `json:"symbols,omitempty"`
	Strength    int      `json:"strength,omitempty"`
}

// FileSummary mirrors architecture.FileSummary for file-level responses.
type FileSummary struct {
	Path          string `json:"path"`
	Language      string `json:"language,omitempty"`
	SymbolCount   int    `json:"symbolCount"`
	LOC           int    `json:"loc,omitempty"`
	IncomingEdges int    `json:"incomingEdges"`
	OutgoingEdges int    `json:"outgoingEdges"`
}

// FileDependencyEdge mirrors architecture.FileDependencyEdge.
type FileDependencyEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Kind     string `json:"kind"`
	Line     int    `json:"line,omitempty"`
	Resolved bool   `json:"resolved"`
}

// ModuleSummary describes a module in the architecture.
type ModuleSummary struct {
	ModuleId      string `json:"moduleId"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Language      string `json:"language,omitempty"`
	SymbolCount   int    `json:"symbolCount"`
	FileCount     int    `json:"fileCount"`
	ExportedCount int    `json:"exportedCount,omitempty"`
	IncomingEdges int    `json:"incomingEdges"`
	OutgoingEdges int    `json:"outgoingEdges"`
	IsEntrypoint  bool   `json:"isEntrypoint,omitempty"`
}

// DependencyEdge represents a dependency between modules.
type DependencyEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Kind     string `json:"kind"` // local-file, local-module, workspace-package, external-dependency, stdlib
	Strength int    `json:"strength"`
}

// Entrypoint represents an entry point in the codebase.
type Entrypoint struct {
	ModuleId string `json:"moduleId"`
	FileId   string `json:"fileId"`
	Kind     string `json:"kind"` // main, test, script, api
	Name     string `json:"name,omitempty"`
}

// GetArchitecture returns the codebase architecture.
// v5.2 compliant with hard caps: max 20 modules, 50 edges
func (e *Engine) GetArchitecture(ctx context.Context, opts GetArchitectureOptions) (*GetArchitectureResponse, error) {
	startTime := time.Now()

	// v5.2 hard caps
	const maxModules = 20
	const maxEdges = 50
	const minEdgeStrength = 1 // Minimum strength to keep an edge

	// Default options
	if opts.Depth <= 0 {
		opts.Depth = 2
	}
	granularity := architecture.ParseGranularity(opts.Granularity)

	var confidenceBasis []ConfidenceBasisItem
	var limitations []string

	// Get repo state (full mode for architecture)
	repoState, err := e.GetRepoState(ctx, "full")
	if err != nil {
		return nil, e.wrapError(err, errors.InternalError)
	}

	// Create import scanner for the architecture generator
	importScanner := modules.NewImportScanner(&e.config.ImportScan, e.logger)

	// Create architecture generator
	generator := architecture.NewArchitectureGenerator(e.repoRoot, e.config, importScanner, e.logger)

	// Build generator options
	genOpts := &architecture.GeneratorOptions{
		Depth:               opts.Depth,
		IncludeExternalDeps: opts.IncludeExternalDeps,
		Refresh:             opts.Refresh,
		Granularity:         granularity,
		InferModules:        opts.InferModules,
		TargetPath:          opts.TargetPath,
	}

	// Generate architecture
	arch, err := generator.Generate(ctx, repoState.RepoStateId, genOpts)
	if err != nil {
		return nil, e.wrapError(err, errors.InternalError)
	}

	confidenceBasis = append(confidenceBasis, ConfidenceBasisItem{
		Backend: "scip",
		Status:  "available",
	})

	resp := &GetArchitectureResponse{
		Granularity:     string(arch.Granularity),
		DetectionMethod: arch.DetectionMethod,
	}

	var completeness CompletenessInfo
	var truncationInfo *TruncationInfo

	switch granularity {
	case architecture.GranularityDirectory:
		resp.Directories = convertDirectorySummaries(arch.Directories)
		resp.DirectoryDependencies = convertDirectoryEdges(arch.DirectoryDependencies)
		completeness = CompletenessInfo{Score: 1.0, Reason: "full-backend"}

	case architecture.GranularityFile:
		resp.Files = convertFileSummaries(arch.Files)
		resp.FileDependencies = convertFileEdges(arch.FileDependencies)
		completeness = CompletenessInfo{Score: 1.0, Reason: "full-backend"}

	default:
		// Convert to response format
		moduleSummaries := convertModuleSummaries(arch.Modules)
		edges := convertArchEdges(arch.DependencyGraph, opts.IncludeExternalDeps)
		entrypoints := convertArchEntrypoints(arch.Entrypoints)

		// Enrich module summaries with symbol counts from SCIP
		if e.scipAdapter != nil && e.scipAdapter.IsAvailable() {
			for i := range moduleSummaries {
				// Count symbols for this module's path prefix
				symbolCount := e.scipAdapter.CountSymbolsByPath(moduleSummaries[i].Path)
				moduleSummaries[i].SymbolCount = symbolCount
			}
		}

		// Compute edge counts for modules
		computeEdgeCounts(moduleSummaries, edges)

		// Sort modules by impact (incoming edges DESC) with deterministic tie-breaker
		sort.Slice(moduleSummaries, func(i, j int) bool {
			if moduleSummaries[i].IncomingEdges != moduleSummaries[j].IncomingEdges {
				return moduleSummaries[i].IncomingEdges > moduleSummaries[j].IncomingEdges
			}
			if moduleSummaries[i].SymbolCount != moduleSummaries[j].SymbolCount {
				return moduleSummaries[i].SymbolCount > moduleSummaries[j].SymbolCount
			}
			return moduleSummaries[i].ModuleId < moduleSummaries[j].ModuleId
		})

		// v5.2: Prune edges - keep only those with strength >= minEdgeStrength
		originalEdgeCount := len(edges)
		prunedEdges := make([]DependencyEdge, 0, len(edges))
		for _, edge := range edges {
			if edge.Strength >= minEdgeStrength {
				prunedEdges = append(prunedEdges, edge)
			}
		}
		edges = prunedEdges

		// v5.2: Sort edges by strength DESC, then lexical tie-breaker
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].Strength != edges[j].Strength {
				return edges[i].Strength > edges[j].Strength
			}
			if edges[i].From != edges[j].From {
				return edges[i].From < edges[j].From
			}
			return edges[i].To < edges[j].To
		})

		// v5.2: Apply edge cap
		if len(edges) > maxEdges {
			limitations = append(limitations, "Edge count exceeded; showing top 50 by strength")
			edges = edges[:maxEdges]
		}

		// v5.2: Apply module cap
		if len(moduleSummaries) > maxModules {
			truncationInfo = &TruncationInfo{
				Reason:        "max-modules",
				OriginalCount: len(moduleSummaries),
				ReturnedCount: maxModules,
			}
			limitations = append(limitations, "Module count exceeded; showing top 20 by impact")
			moduleSummaries = moduleSummaries[:maxModules]
		}

		// Track if we pruned edges
		if originalEdgeCount > len(edges) && len(limitations) == 0 {
			limitations = append(limitations, "Some weak edges pruned")
		}

		resp.Modules = moduleSummaries
		resp.DependencyGraph = edges
		resp.Entrypoints = entrypoints
		completeness = CompletenessInfo{Score: 1.0, Reason: "full-backend"}
	}

	// Compute confidence
	confidence := 0.89 // Partial static analysis (SCIP available)
	if len(limitations) > 0 {
		confidence = 0.79 // With limitations
	}

	// Build provenance
	provenance := e.buildProvenance(repoState, "full", startTime, nil, completeness)

	// Generate drilldowns
	var compTrunc *compression.TruncationInfo
	if truncationInfo != nil {
		compTrunc = &compression.TruncationInfo{
			Reason:        compression.TruncMaxModules,
			OriginalCount: truncationInfo.OriginalCount,
			ReturnedCount: truncationInfo.ReturnedCount,
		}
	}

	var topModule *output.Module
	if len(resp.Modules) > 0 {
		topModule = &output.Module{
			ModuleId: resp.Modules[0].ModuleId,
			Name:     resp.Modules[0].Name,
		}
	}

	drilldowns := e.generateDrilldowns(compTrunc, completeness, "", topModule)

	resp.Truncated = truncationInfo != nil
	resp.TruncationInfo = truncationInfo
	resp.Provenance = provenance
	resp.Drilldowns = drilldowns
	resp.Confidence = confidence
	resp.ConfidenceBasis = confidenceBasis
	resp.Limitations = limitations

	return resp, nil
}

// convertModuleSummaries converts architecture module summaries to response format.
func convertModuleSummaries(archModules []architecture.ModuleSummary) []ModuleSummary {
	result := make([]ModuleSummary, 0, len(archModules))

	for _, m := range archModules {
		result = append(result, ModuleSummary{
			ModuleId:    m.ModuleId,
			Name:        m.Name,
			Path:        m.RootPath,
			Language:    m.Language,
			SymbolCount: m.SymbolCount,
			FileCount:   m.FileCount,
		})
	}

	return result
}

// convertArchEdges converts architecture dependency edges to response format.
func convertArchEdges(archEdges []architecture.DependencyEdge, includeExternal bool) []DependencyEdge {
	edges := make([]DependencyEdge, 0, len(archEdges))

	for _, edge := range archEdges {
		// Filter external dependencies if not requested
		kindStr := string(edge.Kind)
		if !includeExternal && kindStr == "external-dependency" {
			continue
		}

		edges = append(edges, DependencyEdge{
			From:     edge.From,
			To:       edge.To,
			Kind:     kindStr,
			Strength: edge.Strength,
		})
	}

	return edges
}

// convertArchEntrypoints converts architecture entrypoints to response format.
func convertArchEntrypoints(archEntrypoints []architecture.Entrypoint) []Entrypoint {
	entrypoints := make([]Entrypoint, 0, len(archEntrypoints))

	for _, ep := range archEntrypoints {
		entrypoints = append(entrypoints, Entrypoint{
			ModuleId: ep.ModuleId,
			FileId:   ep.FileId,
			Kind:     ep.Kind,
			Name:     ep.Name,
		})
	}

	return entrypoints
}

// convertDirectorySummaries converts architecture directory summaries to response format.
func convertDirectorySummaries(dirs []architecture.DirectorySummary) []DirectorySummary {
	result := make([]DirectorySummary, 0, len(dirs))
	for _, d := range dirs {
		result = append(result, DirectorySummary{
			Path:           d.Path,
			FileCount:      d.FileCount,
			SymbolCount:    d.SymbolCount,
			Language:       d.Language,
			LOC:            d.LOC,
			Role:           d.Role,
			HasIndexFile:   d.HasIndexFile,
			IncomingEdges:  d.IncomingEdges,
			OutgoingEdges:  d.OutgoingEdges,
			IsIntermediate: d.IsIntermediate,
		})
	}
	return result
}

// convertDirectoryEdges converts architecture directory dependency edges to response format.
func convertDirectoryEdges(edges []architecture.DirectoryDependencyEdge) []DirectoryDependencyEdge {
	result := make([]DirectoryDependencyEdge, 0, len(edges))
	for _, e := range edges {
		result = append(result, DirectoryDependencyEdge{
			From:        e.From,
			To:          e.To,
			Kind:        string(e.Kind),
			ImportCount: e.ImportCount,
			Symbols:     e.Symbols,
			Strength:    e.Strength,
		})
	}
	return result
}

// convertFileSummaries converts architecture file summaries to response format.
func convertFileSummaries(files []architecture.FileSummary) []FileSummary {
	result := make([]FileSummary, 0, len(files))
	for _, f := range files {
		result = append(result, FileSummary{
			Path:          f.Path,
			Language:      f.Language,
			SymbolCount:   f.SymbolCount,
			LOC:           f.LOC,
			IncomingEdges: f.IncomingEdges,
			OutgoingEdges: f.OutgoingEdges,
		})
	}
	return result
}

// convertFileEdges converts architecture file dependency edges to response format.
func convertFileEdges(edges []architecture.FileDependencyEdge) []FileDependencyEdge {
	result := make([]FileDependencyEdge, 0, len(edges))
	for _, e := range edges {
		result = append(result, FileDependencyEdge{
			From:     e.From,
			To:       e.To,
			Kind:     string(e.Kind),
			Line:     e.Line,
			Resolved: e.Resolved,
		})
	}
	return result
}

// computeEdgeCounts updates modules with edge counts.
func computeEdgeCounts(modules []ModuleSummary, edges []DependencyEdge) {
	incoming := make(map[string]int)
	outgoing := make(map[string]int)

	for _, edge := range edges {
		outgoing[edge.From]++
		incoming[edge.To]++
	}

	for i := range modules {
		modules[i].IncomingEdges = incoming[modules[i].ModuleId]
		modules[i].OutgoingEdges = outgoing[modules[i].ModuleId]
	}
}
