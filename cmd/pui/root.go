package main

import (
	"os"

	"pui/internal/config"
	"pui/internal/tier"
	"pui/internal/version"

	"github.com/spf13/cobra"
)

var (
	// tierFlag is the CLI --tier flag value
	tierFlag string
)

var rootCmd = &cobra.Command{
	Use:   "pui",
	Short: "pui - token-budgeted code intelligence index",
	Long: `pui builds and serves a token-budgeted code intelligence index for polyglot
repositories, consumed by LLM coding agents through RepoMap, Zoom, and Impact packs
plus a broader query surface (search, references, callgraph, impact analysis,
dead code, ownership, coupling, complexity, decisions).`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("PUI version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&tierFlag, "tier", "",
		"Analysis tier: fast, standard, full, or auto (default: auto)")
}

// resolveTierMode determines the effective tier mode from CLI flag, env var, and config.
// Precedence: CLI flag > PUI_TIER env var > config.json tier > auto
func resolveTierMode(cfg *config.Config) (tier.TierMode, error) {
	// 1. CLI flag (highest priority)
	if tierFlag != "" {
		return tier.ParseTierMode(tierFlag)
	}

	// 2. Environment variable
	if env := os.Getenv("PUI_TIER"); env != "" {
		return tier.ParseTierMode(env)
	}

	// 3. Config file default
	if cfg != nil && cfg.Tier != "" {
		return tier.ParseTierMode(cfg.Tier)
	}

	// 4. Auto-detect (default)
	return tier.TierModeAuto, nil
}
