package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/equivocal/cmd/equivocal/internal/config"
	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/kv"
	"github.com/haivivi/equivocal/pkg/scene"
)

var (
	// Global flags
	verbose      bool
	formatOutput string
	outputFile   string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "equivocal",
	Short: "Learn sound prototypes and compose soundscapes from text",
	Long: `equivocal - semantic scene audio without rendering.

Sounds are learned from a folder of tiers, each holding one folder per
category:

  samples/Tier_1/forest_ambience/*.wav   base layers
  samples/Tier_2/bird_chirp/*.wav        distinctive events
  samples/Tier_3/...                     texture

Every clip is reduced to perceptual descriptors (valence, energy, onset
entropy, harmonic ratio, timbre, ...) and each category keeps the mean of
its clips. Prompts select categories through a keyword vocabulary and
blend their prototypes into a soundscape.

Configuration is stored in the OS config directory (override with
$EQUIVOCAL_CONFIG_DIR):
  macOS:   ~/Library/Application Support/equivocal/
  Linux:   ~/.config/equivocal/
  Windows: %AppData%/equivocal/

Examples:
  equivocal learn ./samples
  equivocal compose "a peaceful forest with birds chirping"
  equivocal listen forest_ambience --format table
  equivocal blend forest_ambience:3 thunder:1
  equivocal export --to s3://my-bucket/models`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "table", "output format (table, yaml, json, raw)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to a file instead of stdout")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	globalConfig = nil
	configLoadErr = nil
	cfg, err := config.Load()
	if err != nil {
		// Commands that need config get the error from GetConfig, so
		// 'equivocal version' still works with a broken config file.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// newLogger returns the stderr logger for cfg. --verbose forces debug.
func newLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.Log.SlogLevel()
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// env is an opened engine with its store.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  kv.Store
	engine *scene.Engine
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", "error", err)
	}
}

// openEngine opens the configured store and builds an engine over it.
func openEngine() (*env, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	vocab, err := loadVocabulary(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Store.Backend != kv.BackendMemory {
		if err := os.MkdirAll(cfg.StoreDir(), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	store, err := kv.Open(cfg.Store.Backend, cfg.StoreDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	engine, err := scene.NewEngine(store,
		scene.WithAnalysis(cfg.Analysis.FBank()),
		scene.WithVocabulary(vocab),
		scene.WithLogger(logger),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: store, engine: engine}, nil
}

// loadVocabulary returns the built-in vocabulary merged with the configured
// vocabulary file.
func loadVocabulary(cfg *config.Config) (scene.Vocabulary, error) {
	vocab := scene.DefaultVocabulary()
	path := cfg.VocabularyPath()
	if path == "" {
		return vocab, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	extra, err := scene.ParseVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return vocab.Merge(extra), nil
}

// output writes v in the --format format to --output or stdout, after the
// optional jq query.
func output(v any, query string) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{Format: format, File: outputFile, Query: query})
}
