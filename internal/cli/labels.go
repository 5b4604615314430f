package cli

import (
	"fmt"
	"sort"

	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type labelEntry struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// newLabelsCmd builds the labels command
func newLabelsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the label catalog of the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := o.loadModel(cmd.Context())
			if err != nil {
				return err
			}

			labels := m.Labels()
			entries := make([]labelEntry, 0, len(labels))
			for label, desc := range labels {
				entries = append(entries, labelEntry{Label: label, Description: desc})
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })

			yamlData, err := yaml.Marshal(entries)
			if err != nil {
				return fmt.Errorf("error marshaling labels: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(yamlData))
			return nil
		},
	}
}

// newLexiconCmd builds the lexicon command
func newLexiconCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lexicon",
		Short: "Print the legal trigger words and their categories",
		Long: `Print the legal lexicon used for legal references: the built-in trigger
words plus any lexicon.extra entries from the configuration. A trigger
followed by a number starts a reference, e.g. "Ley 45 de 2007".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lx, err := lexicon.New(o.cfg.Lexicon.Extra)
			if err != nil {
				return err
			}

			yamlData, err := yaml.Marshal(lx.Entries())
			if err != nil {
				return fmt.Errorf("error marshaling lexicon: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(yamlData))
			return nil
		},
	}
}
