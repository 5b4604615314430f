package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Processor extracts the entities of one input file into one output file
type Processor interface {
	ProcessFile(ctx context.Context, inputPath, outputPath string) (int, error)
}

// FileJob represents one document to process
type FileJob struct {
	Input     string
	Output    string
	Processor Processor
}

// Execute executes the file job
func (j *FileJob) Execute(ctx context.Context) Result {
	count, err := j.Processor.ProcessFile(ctx, j.Input, j.Output)
	if err != nil {
		return &FileResult{Input: j.Input, Output: j.Output, Error: err}
	}
	return &FileResult{Input: j.Input, Output: j.Output, Count: count}
}

// FileResult represents the result of a file job
type FileResult struct {
	Input  string
	Output string
	Count  int
	Error  error
}

// GetError returns the error from the file result
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple documents concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessFiles writes one JSON file per input into outDir. Results follow
// the order of inputs.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, inputs []string, outDir string) []*FileResult {
	if len(inputs) == 0 {
		return []*FileResult{}
	}

	outputs := OutputPaths(inputs, outDir)

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, input := range inputs {
		pool.Submit(&FileJob{
			Input:     input,
			Output:    outputs[i],
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	fileResults := make([]*FileResult, len(inputs))
	for i := range inputs {
		if i < len(results) && results[i] != nil {
			fileResults[i] = results[i].(*FileResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("not processed")
		}
		fileResults[i] = &FileResult{Input: inputs[i], Output: outputs[i], Error: err}
	}

	return fileResults
}

// ProcessList reads input paths from listPath and processes them concurrently
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath, outDir string) ([]*FileResult, error) {
	inputs, err := ReadInputsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessFiles(ctx, inputs, outDir), nil
}

// OutputPaths maps every input to outDir/<name>.json. Inputs sharing a base
// name get a numeric suffix so no output is overwritten within a batch.
func OutputPaths(inputs []string, outDir string) []string {
	used := make(map[string]int)
	paths := make([]string, len(inputs))

	for i, input := range inputs {
		base := filepath.Base(input)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if name == "" {
			name = base
		}

		key := strings.ToLower(name)
		used[key]++
		if n := used[key]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		paths[i] = filepath.Join(outDir, name+".json")
	}
	return paths
}

// ReadInputsFromFile reads input paths from a file (one per line)
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
