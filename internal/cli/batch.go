package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/ppiankov/legalner/internal/pipeline"
	"github.com/ppiankov/legalner/internal/worker"
	"github.com/spf13/cobra"
)

// newBatchCmd builds the batch command
func newBatchCmd(o *options) *cobra.Command {
	var (
		listFile string
		outDir   string
	)

	batchCmd := &cobra.Command{
		Use:   "batch [input_file.txt...]",
		Short: "Extract entities from many documents concurrently",
		Long: `Process several documents with one loaded model and write one JSON file
per input into the output directory (<name>.json).

Inputs come from the arguments and/or a list file with one path per line.
Lines starting with # are ignored.

Example:
  extract-entities batch --out-dir entidades/ fallos/*.txt
  extract-entities batch --list documentos.txt --out-dir entidades/ --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := o.loadModel(ctx)
			if err != nil {
				return err
			}

			inputs := args
			if listFile != "" {
				listed, err := worker.ReadInputsFromFile(listFile)
				if err != nil {
					return fmt.Errorf("read input list: %w", err)
				}
				inputs = append(inputs, listed...)
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no input files (pass paths or --list)")
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			lx, err := lexicon.New(o.cfg.Lexicon.Extra)
			if err != nil {
				return &ProcessingError{Err: err}
			}

			p := pipeline.NewPipeline(o.cfg, m, lx)
			p.SetLog(o.logWriter(cmd))

			workers := o.cfg.Batch.Workers
			_, _ = fmt.Fprintf(o.logWriter(cmd), "⚙️  Processing %d files with %d workers\n", len(inputs), workers)

			results := worker.NewBatchProcessor(p, workers).ProcessFiles(ctx, inputs, outDir)

			out := cmd.OutOrStdout()
			total, failed := 0, 0
			for _, res := range results {
				if res.Error != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", res.Input, res.Error)
					continue
				}
				total += res.Count
				_, _ = fmt.Fprintf(out, "✓ %s → %s (%d entities)\n", res.Input, res.Output, res.Count)
			}

			_, _ = fmt.Fprintf(out, "Processing complete. %d of %d files succeeded. Found %d entities.\n", len(results)-failed, len(results), total)
			if failed > 0 {
				return &ProcessingError{Err: fmt.Errorf("%d of %d files failed", failed, len(results))}
			}
			return nil
		},
	}

	batchCmd.Flags().StringVar(&listFile, "list", "", "file with one input path per line")
	batchCmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for the JSON outputs")
	batchCmd.Flags().Int("workers", 0, "documents processed concurrently (default from config: 4)")
	_ = o.v.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))

	return batchCmd
}
