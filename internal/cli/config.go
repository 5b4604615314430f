package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/legalner/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCmd builds the config command
func newConfigCmd(o *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage extract-entities configuration",
		Long: `Manage extract-entities configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LEGALNER_*)
3. Config file (~/.legalner/config.yaml)
4. Defaults`,
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			if configFile := o.v.ConfigFileUsed(); configFile != "" {
				_, _ = fmt.Fprintf(errOut, "Configuration file: %s\n\n", configFile)
			} else {
				_, _ = fmt.Fprintf(errOut, "No configuration file found (using defaults)\n\n")
			}

			cfg := *o.cfg
			if cfg.Model.APIKey != "" {
				cfg.Model.APIKey = "********"
			}

			// Marshal config to YAML for display
			yamlData, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			_, _ = fmt.Fprint(out, string(yamlData))

			_, _ = fmt.Fprintln(errOut)
			_, _ = fmt.Fprintln(errOut, "Configuration hierarchy (highest to lowest priority):")
			_, _ = fmt.Fprintln(errOut, "  1. CLI flags")
			_, _ = fmt.Fprintln(errOut, "  2. Environment variables (LEGALNER_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
			_, _ = fmt.Fprintln(errOut, "  3. Config file (~/.legalner/config.yaml)")
			_, _ = fmt.Fprintln(errOut, "  4. Defaults")
			return nil
		},
	}

	var initPath string
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration file",
		Long:  `Create a default configuration file at ~/.legalner/config.yaml with all available options.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := initPath
			if configPath == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("error finding home directory: %w", err)
				}
				configPath = filepath.Join(home, ".legalner", "config.yaml")
			}

			if err := writeDefaultConfig(configPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
			_, _ = fmt.Fprintf(out, "\nTo view the configuration:\n")
			_, _ = fmt.Fprintf(out, "  extract-entities config show\n")
			return nil
		},
	}
	configInitCmd.Flags().StringVar(&initPath, "path", "", "write the file here instead of ~/.legalner/config.yaml")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	return configCmd
}

// writeDefaultConfig writes the commented default configuration to path.
// An existing file is never overwritten.
func writeDefaultConfig(path string) (err error) {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'extract-entities config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal the complete default config to YAML
	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# extract-entities configuration file\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (LEGALNER_*, e.g. LEGALNER_MODEL_NAME=http)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n")
	printf("#\n")
	printf("# model.name: rules (built-in), http (spaCy model server), openai, anthropic or ollama\n\n")
	printf("%s", yamlData)
	printf("\n# Extra legal trigger words (LAW or NORM):\n")
	printf("# lexicon:\n")
	printf("#   extra:\n")
	printf("#     acuerdo: NORM\n")
	printf("#     constitución: LAW\n")
	printf("\n# API keys (recommended to use environment variables instead):\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	printf("#   export ANTHROPIC_API_KEY=sk-ant-...\n")
	return err
}
