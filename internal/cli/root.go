package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ppiankov/legalner/internal/lexicon"
	"github.com/ppiankov/legalner/internal/model"
	"github.com/ppiankov/legalner/internal/nlp"
	"github.com/ppiankov/legalner/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	version   = "legalner v0.1.0"
	usageLine = "Usage: extract-entities <input_file.txt> <output_file.json>"
	modelHint = `Configure an available model, for example:
  extract-entities --model rules <input> <output>
  extract-entities --model http --model-url http://localhost:8000 <input> <output>
  OPENAI_API_KEY=sk-... extract-entities --model openai <input> <output>
  ANTHROPIC_API_KEY=sk-ant-... extract-entities --model anthropic <input> <output>
  extract-entities --model ollama --llm-model llama3.1 <input> <output>`
)

var (
	// ErrUsage is returned when the command is not called with exactly two paths
	ErrUsage = errors.New("wrong number of arguments")

	// ErrInputNotFound is returned when the input path does not exist
	ErrInputNotFound = errors.New("input file not found")
)

// InputNotFoundError names the missing input path
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input file %s does not exist", e.Path)
}

// Is matches ErrInputNotFound
func (e *InputNotFoundError) Is(target error) bool {
	return target == ErrInputNotFound
}

// ProcessingError wraps a failure while reading, extracting or writing
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string { return e.Err.Error() }
func (e *ProcessingError) Unwrap() error { return e.Err }

// options holds the flag values and configuration of one command tree
type options struct {
	cfgFile   string
	verbose   bool
	model     string
	modelURL  string
	catalog   string
	gazetteer string
	llmModel  string
	timeout   time.Duration

	v   *viper.Viper
	cfg *model.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	o := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "extract-entities <input_file.txt> <output_file.json>",
		Short: "Extract named entities and legal references from Spanish legal text",
		Long: `extract-entities reads a UTF-8 text file, recognizes named entities
(people, organizations, locations, dates, amounts) with the configured NLP
model, adds digit-led legal references such as "Ley 45 de 2007", and writes
the entities as a JSON array.

Example:
  extract-entities sentencia.txt entidades.json
  extract-entities --model http --model-url http://localhost:8000 fallo.txt out.json
  extract-entities --model openai --llm-model gpt-4o-mini fallo.txt out.json
  extract-entities batch --out-dir entidades/ fallos/*.txt`,
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return o.initConfig(cmd) },
		RunE:              o.runExtract,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.cfgFile, "config", "", "config file (default: $HOME/.legalner/config.yaml)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&o.model, "model", "", "NLP model (rules, http, openai, anthropic, ollama)")
	pf.StringVar(&o.modelURL, "model-url", "", "model server URL (http) or API base URL (LLM backends)")
	pf.StringVar(&o.catalog, "catalog", "", "YAML label catalog overriding the model's")
	pf.StringVar(&o.gazetteer, "gazetteer", "", "YAML gazetteer for the rules model")
	pf.StringVar(&o.llmModel, "llm-model", "", "chat model for the openai, anthropic and ollama backends")

	rootCmd.Flags().DurationVar(&o.timeout, "timeout", 2*time.Minute, "overall extraction timeout")

	// Bind flags to viper
	_ = o.v.BindPFlag("output.verbose", pf.Lookup("verbose"))
	_ = o.v.BindPFlag("model.name", pf.Lookup("model"))
	_ = o.v.BindPFlag("model.base_url", pf.Lookup("model-url"))
	_ = o.v.BindPFlag("model.catalog", pf.Lookup("catalog"))
	_ = o.v.BindPFlag("model.gazetteer", pf.Lookup("gazetteer"))
	_ = o.v.BindPFlag("model.llm_model", pf.Lookup("llm-model"))

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newBatchCmd(o))
	rootCmd.AddCommand(newConfigCmd(o))
	rootCmd.AddCommand(newLabelsCmd(o))
	rootCmd.AddCommand(newLexiconCmd(o))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return executeArgs(NewRootCommand(), os.Args[1:])
}

// executeArgs runs cmd with args. Two positional arguments whose first names
// an existing regular file always mean extraction, even when that file is
// called like a subcommand ("version", "batch", ...).
func executeArgs(cmd *cobra.Command, args []string) error {
	if isFilePair(args) {
		subs := append([]*cobra.Command(nil), cmd.Commands()...)
		cmd.RemoveCommand(subs...)
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}

// isFilePair parses the root flags of args on a scratch command and reports
// whether exactly two positionals remain, the first a regular file
func isFilePair(args []string) bool {
	scratch := NewRootCommand()
	scratch.SetOut(io.Discard)
	scratch.SetErr(io.Discard)
	if err := scratch.ParseFlags(args); err != nil {
		return false
	}

	positional := scratch.Flags().Args()
	if len(positional) != 2 {
		return false
	}
	info, err := os.Stat(positional[0])
	return err == nil && info.Mode().IsRegular()
}

// FormatError renders err the way it is shown to the user
func FormatError(err error) string {
	var procErr *ProcessingError
	switch {
	case errors.Is(err, ErrUsage):
		return usageLine
	case errors.Is(err, nlp.ErrModelUnavailable):
		return fmt.Sprintf("Error: %v\n%s", err, modelHint)
	case errors.As(err, &procErr):
		return fmt.Sprintf("Error processing file: %v", procErr.Err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Display the version number of extract-entities.`,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func (o *options) runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	// The model is required before anything else happens
	m, err := o.loadModel(ctx)
	if err != nil {
		return err
	}

	if len(args) != 2 {
		return ErrUsage
	}
	inputPath, outputPath := args[0], args[1]

	if _, err := os.Stat(inputPath); errors.Is(err, os.ErrNotExist) {
		return &InputNotFoundError{Path: inputPath}
	}

	lx, err := lexicon.New(o.cfg.Lexicon.Extra)
	if err != nil {
		return &ProcessingError{Err: err}
	}

	log := o.logWriter(cmd)
	_, _ = fmt.Fprintf(log, "Input: %s\n", inputPath)
	_, _ = fmt.Fprintf(log, "Model: %s\n", m.Name())
	_, _ = fmt.Fprintf(log, "Lexicon: %d triggers\n", lx.Len())

	p := pipeline.NewPipeline(o.cfg, m, lx)
	p.SetLog(log)

	count, err := p.ProcessFile(ctx, inputPath, outputPath)
	if err != nil {
		return &ProcessingError{Err: err}
	}

	p.RenderSummary(cmd.OutOrStdout(), count)
	return nil
}

// loadModel builds the configured NLP model
func (o *options) loadModel(ctx context.Context) (nlp.Model, error) {
	m, err := nlp.Load(ctx, o.cfg.Model)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(o.logWriter(nil), "✓ Loaded %s model\n", m.Name())
	return m, nil
}

// logWriter returns stderr in verbose mode and io.Discard otherwise
func (o *options) logWriter(cmd *cobra.Command) io.Writer {
	if o.cfg == nil || !o.cfg.Output.Verbose {
		return io.Discard
	}
	if cmd != nil {
		return cmd.ErrOrStderr()
	}
	return os.Stderr
}

// initConfig reads in .env, the config file and ENV variables
func (o *options) initConfig(cmd *cobra.Command) error {
	// .env is optional; it usually carries OPENAI_API_KEY
	_ = godotenv.Load()

	setDefaults(o.v, model.DefaultConfig())

	if o.cfgFile != "" {
		// Use config file from the flag
		o.v.SetConfigFile(o.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search for config in home directory
		o.v.AddConfigPath(filepath.Join(home, ".legalner"))
		o.v.SetConfigType("yaml")
		o.v.SetConfigName("config")
	}

	// Read in environment variables that match LEGALNER_*
	o.v.SetEnvPrefix("LEGALNER")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg := model.DefaultConfig()
	if err := o.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = apiKeyFromEnv(cfg.Model.Name)
	}
	o.cfg = cfg

	if used := o.v.ConfigFileUsed(); used != "" && cfg.Output.Verbose {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", used)
	}
	return nil
}

// apiKeyFromEnv returns the provider's conventional API key variable
func apiKeyFromEnv(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// setDefaults registers every config key so env variables are picked up
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("model.name", cfg.Model.Name)
	v.SetDefault("model.catalog", cfg.Model.Catalog)
	v.SetDefault("model.gazetteer", cfg.Model.Gazetteer)
	v.SetDefault("model.base_url", cfg.Model.BaseURL)
	v.SetDefault("model.api_key", cfg.Model.APIKey)
	v.SetDefault("model.llm_model", cfg.Model.LLMModel)
	v.SetDefault("model.max_tokens", cfg.Model.MaxTokens)
	v.SetDefault("model.timeout", cfg.Model.Timeout)
	v.SetDefault("model.requests_per_second", cfg.Model.RequestsPerSecond)
	v.SetDefault("model.burst", cfg.Model.Burst)
	v.SetDefault("model.chunk_size", cfg.Model.ChunkSize)
	v.SetDefault("model.cache_ttl", cfg.Model.CacheTTL)
	v.SetDefault("model.http_proxy", cfg.Model.HTTPProxy)
	v.SetDefault("model.https_proxy", cfg.Model.HTTPSProxy)
	v.SetDefault("model.no_proxy", cfg.Model.NoProxy)
	v.SetDefault("lexicon.extra", map[string]string{})
	v.SetDefault("output.indent", cfg.Output.Indent)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
}
