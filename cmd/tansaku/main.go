// Package main is the tansaku CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/server"
	"github.com/hyperjump/tansaku/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/tansaku/config.yaml"

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	debug      bool
	serverURL  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "tansaku",
		Short:         "Semantic content search engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&g.serverURL, "server", "", "server URL (empty = open the store directly)")

	root.AddCommand(
		newServerCmd(g),
		newSearchCmd(g),
		newAddCmd(g),
		newGetCmd(g),
		newSimilarCmd(g),
		newStatsCmd(g),
		newSuggestCmd(g),
		newImportCmd(g),
		newMCPCmd(g),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory; if that exists it is used. A missing file at
// the default path yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Load("")
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds a logger, logging config warnings once.
func (g *globals) setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || g.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	for _, w := range cfg.Validate() {
		logger.Warn("config warning", zap.String("warning", w))
	}
	return cfg, logger, nil
}

// openApp wires every component against the configured store.
func (g *globals) openApp(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, logger, err := g.setup()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, logger, nil
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newServerCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(g)
		},
	}
}

func runServer(g *globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, logger, err := g.openApp(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	cfg := a.Config

	if res, err := a.Importer.LoadIfEmpty(ctx, cfg.Import.SampleFile); err != nil {
		logger.Warn("sample data load failed", zap.String("path", cfg.Import.SampleFile), zap.Error(err))
	} else if res != nil {
		logger.Info("sample data loaded",
			zap.String("path", res.Source),
			zap.Int("imported", res.Imported),
			zap.Int("failed", res.Failed),
		)
	}

	if cfg.Import.WatchDir != "" {
		w, err := a.Importer.Watch(ctx, cfg.Import.WatchDir)
		if err != nil {
			_ = a.Close(ctx)
			return err
		}
		defer w.Stop()
		logger.Info("watching drop directory", zap.String("dir", w.Dir()))
	}

	srv := server.NewServer(a, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-sigChan:
		logger.Info("Shutting down...")
	case runErr = <-errCh:
		logger.Error("Server failed", zap.Error(runErr))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn("close failed", zap.Error(err))
	}
	return runErr
}
