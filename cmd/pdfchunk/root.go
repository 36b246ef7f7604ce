package main

import (
	"fmt"
	"os"

	"github.com/Abraxas-365/docingest/config"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	logLevel string
	logJSON  bool
	envFile  string
}

// app carries the resolved configuration to subcommands.
type app struct {
	flags rootFlags
	cfg   *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "pdfchunk",
		Short:         "Load PDFs, split them into overlapping chunks and index them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")
	cmd.PersistentFlags().BoolVar(&a.flags.logJSON, "log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringVar(&a.flags.envFile, "env-file", "", "Load environment variables from this file (default .env when present)")

	cmd.AddCommand(newSplitCommand(a))
	cmd.AddCommand(newEmbedCommand(a))
	cmd.AddCommand(newIndexCommand(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := loadEnvFile(a.flags.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = a.flags.logJSON
	}
	a.cfg = cfg

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     cmd.ErrOrStderr(),
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
	return nil
}

// loadEnvFile loads path, or .env when path is empty and the file exists.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// chunkFlags binds chunking and loading flags shared by split and index.
type chunkFlags struct {
	size      int
	overlap   int
	recursive bool
}

func (f *chunkFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.size, "chunk-size", 0, "Maximum chunk length in characters (default from config, 500)")
	cmd.Flags().IntVar(&f.overlap, "chunk-overlap", 0, "Characters repeated between consecutive chunks (default from config, 20)")
	cmd.Flags().BoolVar(&f.recursive, "recursive", false, "Descend into subdirectories")
}

func (f *chunkFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("chunk-size") {
		cfg.Chunk.Size = f.size
	}
	if cmd.Flags().Changed("chunk-overlap") {
		cfg.Chunk.Overlap = f.overlap
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Load.Recursive = f.recursive
	}
	return config.Validate(cfg)
}

// embedFlags binds model flags shared by embed and index.
type embedFlags struct {
	model     string
	modelsDir string
	offline   bool
}

func (f *embedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "Sentence-transformers model id")
	cmd.Flags().StringVar(&f.modelsDir, "models-dir", "", "Directory caching model weights")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Fail instead of downloading missing weights")
}

func (f *embedFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("model") {
		cfg.Embedding.Model = f.model
	}
	if cmd.Flags().Changed("models-dir") {
		cfg.Embedding.ModelsDir = f.modelsDir
	}
	if cmd.Flags().Changed("offline") {
		cfg.Embedding.Offline = f.offline
	}
}
