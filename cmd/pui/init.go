package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pui/internal/config"
	"pui/internal/errors"
	"pui/internal/logging"

	"github.com/spf13/cobra"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize PUI configuration",
	Long:  "Creates a .pui/ directory with default configuration in the current repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .pui directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: "human",
		Level:  "info",
	})

	// Get current directory
	cwd, err := os.Getwd()
	if err != nil {
		return errors.NewPuiError(errors.InternalError, "Failed to get current directory", err, nil, nil)
	}

	// Check if .pui already exists
	puiDir := filepath.Join(cwd, ".pui")
	if _, statErr := os.Stat(puiDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("PUI already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(puiDir, "config.json"))
			fmt.Println("\nRun 'pui init --force' to reinitialize.")
			return nil
		}
		// Remove existing directory
		if removeErr := os.RemoveAll(puiDir); removeErr != nil {
			return errors.NewPuiError(errors.InternalError, "Failed to remove existing .pui directory", removeErr, nil, nil)
		}
		logger.Info("Removed existing .pui directory", nil)
	}

	// Create .pui directory
	if mkdirErr := os.MkdirAll(puiDir, 0755); mkdirErr != nil {
		return errors.NewPuiError(errors.InternalError, "Failed to create .pui directory", mkdirErr, nil, nil)
	}

	// Create default config
	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."

	// Write config file
	configPath := filepath.Join(puiDir, "config.json")
	configData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.NewPuiError(errors.InternalError, "Failed to marshal config", err, nil, nil)
	}

	if writeErr := os.WriteFile(configPath, configData, 0644); writeErr != nil {
		return errors.NewPuiError(errors.InternalError, "Failed to write config file", writeErr, nil, nil)
	}

	logger.Info("PUI initialized successfully", map[string]interface{}{
		"config_path": configPath,
	})

	fmt.Println("PUI initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'pui doctor' to check your setup")
	fmt.Println("  2. Run 'pui status' to see system status")

	return nil
}
