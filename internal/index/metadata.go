// Package index provides index metadata persistence and freshness tracking.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pui/internal/repostate"
)

const (
	// MetadataVersion is the current version of the metadata format.
	MetadataVersion = 1

	// metadataFile is the filename for index metadata.
	metadataFile = "index-meta.json"
)

// IndexMeta contains metadata about the SCIP index.
type IndexMeta struct {
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	CommitHash  string    `json:"commitHash"`
	RepoStateID string    `json:"repoStateId"`
	FileCount   int       `json:"fileCount"`
	Duration    string    `json:"duration"`
	Indexer     string    `json:"indexer"`
	IndexerArgs []string  `json:"indexerArgs,omitempty"`
}

// FreshnessResult describes index freshness status.
type FreshnessResult struct {
	Fresh            bool
	Reason           string
	CommitsBehind    int
	HasUncommitted   bool
	IndexedCommit    string
	CurrentCommit    string
	CurrentRepoState string
}

// LoadMeta loads index metadata from the .pui directory.
// Returns nil without error if no metadata file exists.
func LoadMeta(puiDir string) (*IndexMeta, error) {
	path := filepath.Join(puiDir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No metadata yet
		}
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}

	var meta IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing index metadata: %w", err)
	}

	// Version mismatch - treat as no metadata
	if meta.Version != MetadataVersion {
		return nil, nil
	}

	return &meta, nil
}

// Save writes index metadata to the .pui directory.
func (m *IndexMeta) Save(puiDir string) error {
	if err := os.MkdirAll(puiDir, 0755); err != nil {
		return fmt.Errorf("creating .pui directory: %w", err)
	}

	m.Version = MetadataVersion

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index metadata: %w", err)
	}

	path := filepath.Join(puiDir, metadataFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	return nil
}

// CheckFreshness determines if the index is up to date.
// For git repos, compares against current repo state.
// For non-git repos, falls back to time-based staleness (24h).
func (m *IndexMeta) CheckFreshness(repoRoot string) FreshnessResult {
	if m == nil {
		return FreshnessResult{
			Fresh:  false,
			Reason: "no index metadata found",
		}
	}

	// Try to compute current repo state
	rs, err := repostate.ComputeRepoState(repoRoot)
	if err != nil {
		// Non-git repo: fall back to time-based staleness
		return m.checkTimeFreshness()
	}

	result := FreshnessResult{
		IndexedCommit:    m.CommitHash,
		CurrentCommit:    rs.HeadCommit,
		CurrentRepoState: rs.RepoStateID,
	}

	// Check 1: RepoStateID match (covers commits + uncommitted changes)
	if m.RepoStateID == rs.RepoStateID {
		result.Fresh = true
		return result
	}

	// Check 2: Same commit but dirty working tree
	if m.CommitHash == rs.HeadCommit && rs.Dirty {
		result.Fresh = false
		result.HasUncommitted = true
		result.Reason = "uncommitted changes detected"
		return result
	}

	// Check 3: Different commits
	if m.CommitHash != rs.HeadCommit {
		behind := countCommitsBehind(repoRoot, m.CommitHash, rs.HeadCommit)
		result.Fresh = false
		result.CommitsBehind = behind

		if rs.Dirty {
			result.HasUncommitted = true
			if behind > 0 {
				result.Reason = fmt.Sprintf("%d commit(s) behind HEAD + uncommitted changes", behind)
			} else {
				result.Reason = "uncommitted changes detected"
			}
		} else if behind > 0 {
			result.Reason = fmt.Sprintf("%d commit(s) behind HEAD", behind)
		} else {
			result.Reason = "repository state changed"
		}
		return result
	}

	// Fallback: RepoStateID differs but we can't determine why
	result.Fresh = false
	result.Reason = "repository state changed"
	return result
}

// checkTimeFreshness checks freshness for non-git repos.
func (m *IndexMeta) checkTimeFreshness() FreshnessResult {
	age := time.Since(m.CreatedAt)
	if age > 24*time.Hour {
		return FreshnessResult{
			Fresh:  false,
			Reason: fmt.Sprintf("index is %s old", humanDuration(age)),
		}
	}
	return FreshnessResult{
		Fresh: true,
	}
}

// countCommitsBehind returns the number of commits between two refs.
func countCommitsBehind(repoRoot, fromCommit, toCommit string) int {
	if fromCommit == "" || toCommit == "" {
		return 0
	}

	// Use git rev-list to count commits
	cmd := exec.Command("git", "rev-list", "--count", fmt.Sprintf("%s..%s", fromCommit, toCommit))
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return 0
	}

	var count int
	fmt.Sscanf(strings.TrimSpace(string(out)), "%d", &count)
	return count
}

// humanDuration formats a duration in human-readable form.
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// test comment
