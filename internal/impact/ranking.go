package impact

import (
	"fmt"
	"regexp"
	"sort"
)

// FileCentralityProvider supplies module-level import fan-in/fan-out for a
// file, used as the third ranking factor. Backed by the edges table's
// MODULE_DEPENDS_ON rows in the real engine.
type FileCentralityProvider interface {
	// GetFileCentrality returns the number of modules that import the module
	// owning fileId (fan-in) and the number of modules it imports (fan-out).
	GetFileCentrality(fileId string) (importFanIn, importFanOut int, err error)
}

var testPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`_test\.go$`),
	regexp.MustCompile(`(^|/)test_[^/]+\.py$`),
	regexp.MustCompile(`\.spec\.[jt]sx?$`),
	regexp.MustCompile(`\.test\.[^/]+$`),
}

// isTestPath reports whether a file path matches one of the language-aware
// test naming conventions from the ranking spec.
func isTestPath(path string) bool {
	for _, p := range testPathPatterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// RankedItem is a single impact item annotated with the four ranking
// factors and a one-line rationale, suitable for `--explain` output.
type RankedItem struct {
	Item           ImpactItem
	FanInWeight    float64 // sum of confidences of every reference sharing this item's StableId
	TestProximate  bool    // item's location matches a test file pattern, or its kind is TestDependency
	FileCentrality int     // import fan-in + fan-out of the item's file, 0 if unknown
	SeverityBumped bool    // true when the analyzed symbol's API surface is public
	Rationale      string
}

// RankImpactItems orders impact items for review using the engine's
// four-factor key: fan-in (confidence-weighted), test proximity, file
// centrality, then API-surface severity. Fan-in, test proximity, and file
// centrality decide order; the API-surface flag does not reorder items, it
// only marks that the underlying risk score is bumped one band, since it is
// a property of the changed symbol rather than of an individual item.
func RankImpactItems(items []ImpactItem, centralityProv FileCentralityProvider, apiSurfacePublic bool) []RankedItem {
	fanIn := make(map[string]float64, len(items))
	for _, it := range items {
		fanIn[it.StableId] += it.Confidence
	}

	ranked := make([]RankedItem, 0, len(items))
	for _, it := range items {
		testProx := it.Kind == TestDependency
		var fileID string
		if it.Location != nil {
			fileID = it.Location.FileId
			testProx = testProx || isTestPath(fileID)
		}

		centrality := 0
		if centralityProv != nil && fileID != "" {
			if in, out, err := centralityProv.GetFileCentrality(fileID); err == nil {
				centrality = in + out
			}
		}

		ri := RankedItem{
			Item:           it,
			FanInWeight:    fanIn[it.StableId],
			TestProximate:  testProx,
			FileCentrality: centrality,
			SeverityBumped: apiSurfacePublic,
		}
		ri.Rationale = buildRationale(ri)
		ranked = append(ranked, ri)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FanInWeight != b.FanInWeight {
			return a.FanInWeight > b.FanInWeight
		}
		// Test-covered call sites carry lower review urgency than uncovered ones.
		if a.TestProximate != b.TestProximate {
			return !a.TestProximate
		}
		if a.FileCentrality != b.FileCentrality {
			return a.FileCentrality > b.FileCentrality
		}
		return a.Item.StableId < b.Item.StableId
	})

	return ranked
}

func buildRationale(ri RankedItem) string {
	reason := fmt.Sprintf("fan-in %.2f", ri.FanInWeight)
	if ri.TestProximate {
		reason += ", covered by nearby tests"
	}
	if ri.FileCentrality > 0 {
		reason += fmt.Sprintf(", file centrality %d", ri.FileCentrality)
	}
	if ri.SeverityBumped {
		reason += ", public API surface (+1 severity band)"
	}
	return reason
}

// bumpRiskForAPISurface elevates a risk score one band when the analyzed
// symbol's derived visibility is public, per the engine's API-surface flag.
func bumpRiskForAPISurface(risk *RiskScore, vis *VisibilityInfo) {
	if risk == nil || vis == nil || vis.Visibility != VisibilityPublic {
		return
	}
	switch risk.Level {
	case RiskLow:
		risk.Level = RiskMedium
	case RiskMedium:
		risk.Level = RiskHigh
	}
	risk.Explanation += " Elevated one severity band: symbol is part of the public API surface."
}
