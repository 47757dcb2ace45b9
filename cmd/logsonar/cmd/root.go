// Package cmd provides the CLI commands for logsonar.
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akodali/logsonar/internal/config"
	"github.com/akodali/logsonar/internal/embed"
	"github.com/akodali/logsonar/internal/logging"
	"github.com/akodali/logsonar/internal/pipeline"
	"github.com/akodali/logsonar/internal/query"
	"github.com/akodali/logsonar/internal/source"
	"github.com/akodali/logsonar/internal/store"
	"github.com/akodali/logsonar/internal/ui"
	"github.com/akodali/logsonar/pkg/version"
)

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the logsonar CLI.
func NewRootCmd() *cobra.Command {
	var (
		offline bool
		debug   bool
		file    string
		follow  string
	)

	cmd := &cobra.Command{
		Use:   "logsonar",
		Short: "Semantic search over your live logs",
		Long: `logsonar follows a log stream (journalctl by default), suppresses
repeated lines into periodic summaries, embeds everything into an in-memory
vector index, and answers free-text similarity queries as the logs arrive.

Just run 'logsonar' and start typing queries.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runPipeline(cmd.Context(), offline, debug, file, follow)
		},
	}

	cmd.SetVersionTemplate("logsonar version {{.Version}}\n")

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings (skip Ollama)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to ~/.logsonar/logs/")
	cmd.Flags().StringVar(&file, "file", "", "Tail this file instead of running the source command")
	cmd.Flags().StringVar(&follow, "follow", "", "Source command to follow (default \"journalctl -f -o short\")")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// runPipeline is the default action: ingestion in the background, the query
// loop in the foreground. Typing "exit" or a SIGINT both drain the pipeline
// before returning.
func runPipeline(ctx context.Context, offline, debug bool, file, follow string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if offline {
		cfg.Embeddings.Provider = "static"
	}
	if file != "" {
		cfg.Source.File = file
	}
	if follow != "" {
		cfg.Source.Command = strings.Fields(follow)
		cfg.Source.File = ""
	}

	logCfg := logging.DefaultConfig()
	if debug {
		logCfg = logging.DebugConfig()
	} else if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	embedder, err := embed.NewFromConfig(ctx, cfg.Embeddings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	storeCfg := store.DefaultConfig(embedder.Dimensions())
	if cfg.Index.MaxSize > 0 {
		storeCfg.MaxSize = cfg.Index.MaxSize
	}
	st, err := store.New(storeCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	src, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	svc := pipeline.New(cfg, src, embedder, st, logger)
	engine := query.NewEngine(st,
		embed.NewCachedEmbedder(embedder, cfg.Embeddings.CacheSize),
		query.Options{K: cfg.Query.K, Display: cfg.Query.Display},
		logger)
	repl := ui.NewREPL(engine)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The REPL owns the terminal; its exit (sentinel or EOF) shuts the
	// pipeline down. A signal cancels the pipeline first and the process
	// exits once ingestion has drained.
	go func() {
		if err := repl.Run(ctx); err != nil {
			logger.Warn("query loop ended with error", "error", err)
		}
		cancel()
	}()

	return svc.Run(ctx)
}

func newSource(cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	if cfg.Source.File != "" {
		return source.NewFileSource(cfg.Source.File, logger)
	}
	return source.NewCommandSource(cfg.Source.Command, cfg.Source.MaxRestarts, logger)
}
