package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foliolens/foliolens/analyze"
	"github.com/foliolens/foliolens/config"
	"github.com/foliolens/foliolens/llm"
	"github.com/foliolens/foliolens/model"
	"github.com/foliolens/foliolens/scrape"
	"github.com/foliolens/foliolens/server"
)

func serveCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*logLevel)
		},
	}
}

func analyzeCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze one URL and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(*logLevel, args[0])
		},
	}
}

func runServe(logLevel string) error {
	logger := buildLogger(logLevel)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Model.WatchRegistry && cfg.Model.RegistryPath != "" {
		watcher, err := config.NewRegistryWatcher(cfg.Model.RegistryPath, registry, logger)
		if err != nil {
			return fmt.Errorf("create registry watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start registry watcher: %w", err)
		}
		defer watcher.Stop()
	}

	pipeline, chat := buildPipeline(cfg, registry, logger)
	handler := server.NewHandler(pipeline, chat, logger)
	srv := server.New(cfg.Server, handler, logger)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

func runAnalyze(logLevel, rawURL string) error {
	logger := buildLogger(logLevel)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, _ := buildPipeline(cfg, registry, logger)
	analysis, pageURL, err := pipeline.ProcessURL(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("process %s: %w", pageURL, err)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func buildLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func buildRegistry(cfg *config.Config) (*model.Registry, error) {
	if cfg.Model.RegistryPath == "" {
		return model.NewDefaultRegistry(), nil
	}
	registry, err := model.LoadFromFile(cfg.Model.RegistryPath)
	if err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// buildPipeline assembles the fetch/extract/analyze pipeline and the chat
// responder from the loaded configuration.
func buildPipeline(cfg *config.Config, registry *model.Registry, logger *slog.Logger) (*server.Pipeline, *analyze.Chat) {
	client := llm.NewClient(registry,
		llm.WithHTTPClient(&http.Client{Timeout: cfg.Model.Timeout}),
		llm.WithLogger(logger))

	fetcher := scrape.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxContentSize)

	var renderer server.PageRenderer
	if cfg.Render.Enabled {
		renderer = scrape.NewBrowserRenderer(renderOptions(cfg.Render), logger)
	}

	extractor := scrape.NewExtractor(logger)
	analyzer := analyze.NewAnalyzer(client, logger)
	chat := analyze.NewChat(client, logger)

	return server.NewPipeline(fetcher, renderer, extractor, analyzer, logger), chat
}

func renderOptions(cfg config.RenderConfig) scrape.RenderOptions {
	opts := scrape.DefaultRenderOptions()
	if cfg.ContentSelector != "" {
		opts.ContentSelector = cfg.ContentSelector
	}
	if cfg.MarkerTimeout > 0 {
		opts.MarkerTimeout = cfg.MarkerTimeout
	}
	if cfg.SettleDelay > 0 {
		opts.SettleDelay = cfg.SettleDelay
	}
	if cfg.NavigationTimeout > 0 {
		opts.NavigationTimeout = cfg.NavigationTimeout
	}
	opts.ExecutablePath = cfg.ExecutablePath
	opts.ArtifactsDir = cfg.ArtifactsDir
	opts.SaveArtifacts = cfg.SaveArtifacts
	return opts
}
