// Package cli provides the bubblesync command-line interface.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	configfile "github.com/praxis-labs/bubblesync/internal/adapters/driven/config/file"
	"github.com/praxis-labs/bubblesync/internal/adapters/driven/embedding/ollama"
	"github.com/praxis-labs/bubblesync/internal/adapters/driven/embedding/openai"
	"github.com/praxis-labs/bubblesync/internal/adapters/driven/storage/sqlite"
	chromemindex "github.com/praxis-labs/bubblesync/internal/adapters/driven/vector/chromem"
	"github.com/praxis-labs/bubblesync/internal/connectors/bubble"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driving"
	"github.com/praxis-labs/bubblesync/internal/core/services"
	"github.com/praxis-labs/bubblesync/internal/extractors"
	"github.com/praxis-labs/bubblesync/internal/logger"
	"github.com/praxis-labs/bubblesync/internal/postprocessors"
)

var version = "dev"

// Persistent flags.
var (
	configPath string
	verbose    bool
)

// Wired services, populated by setup(). Tests may inject their own before
// calling a command's RunE.
var (
	appConfig        *configfile.Config
	appLogger        *zap.Logger
	syncOrchestrator driving.SyncOrchestrator
	embedder         driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	closers          []func() error
)

var rootCmd = &cobra.Command{
	Use:   "bubblesync",
	Short: "Synchronise Bubble application data into a local vector index",
	Long: `bubblesync pulls records from a Bubble application's Data API,
converts them into searchable documents and keeps a local vector index
in step with the source, incrementally and idempotently.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.bubblesync/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ver string) error {
	if ver != "" {
		version = ver
	}
	defer closeAll()
	return rootCmd.Execute()
}

// setup loads configuration and wires the full service graph. Commands
// that need services call it from their RunE; version does not.
func setup() error {
	if syncOrchestrator != nil {
		return nil // already wired, e.g. by a test
	}

	cfg, err := configfile.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg
	appLogger = logger.New(verbose)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening sync store: %w", err)
	}
	closers = append(closers, store.Close)

	embedder, err = buildEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	vectorIndex, err = chromemindex.NewIndex(chromemindex.Config{
		Path:       vectorPath(cfg.DataDir),
		VectorSize: embedder.Dimensions(),
	}, appLogger)
	if err != nil {
		return err
	}
	closers = append(closers, vectorIndex.Close)

	client, err := bubble.NewClient(bubble.Config{
		BaseURL:           cfg.Source.BaseURL,
		Token:             cfg.Source.Token,
		PageSize:          cfg.Source.PageSize,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("building API client: %w", err)
	}
	fetcher := bubble.NewConnector(client, appLogger)

	registry := extractors.NewRegistry()
	extractors.RegisterDefaults(registry)

	mapper := services.NewMapper(registry, services.MapperConfig{
		MinTextLength: cfg.Mapping.MinTextLength,
		MaxTextLength: cfg.Mapping.MaxTextLength,
	}, services.WithMapperLogger(appLogger))

	procRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(procRegistry)
	chunkProc, err := procRegistry.Build("chunker", map[string]any{
		"chunk_size": cfg.Chunking.ChunkSize,
		"overlap":    cfg.Chunking.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("building chunker: %w", err)
	}
	pipeline := postprocessors.NewPipeline(chunkProc)

	writer := services.NewWriter(vectorIndex, store.ChunkRefStore(), embedder, appLogger)
	syncOrchestrator = services.NewOrchestrator(fetcher, mapper, pipeline, writer, store.SyncStateStore(), appLogger)
	return nil
}

func buildEmbedder(cfg *configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     configfile.OpenAIAPIKey(),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	}
}

func vectorPath(dataDir string) string {
	if dataDir == "" {
		return "" // chromem config applies its own default
	}
	return filepath.Join(dataDir, "vectors")
}

func closeAll() {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i]()
	}
	closers = nil
	if appLogger != nil {
		_ = appLogger.Sync()
	}
}
