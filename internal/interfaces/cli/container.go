// Package cli wires the plugmate commands. All components are built with
// explicit constructor composition from the loaded configuration; there is no
// ambient registry.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/plugmate/plugmate/internal/application/analyzer"
	"github.com/plugmate/plugmate/internal/application/installer"
	"github.com/plugmate/plugmate/internal/application/resolver"
	"github.com/plugmate/plugmate/internal/config"
	"github.com/plugmate/plugmate/internal/core/ports"
	"github.com/plugmate/plugmate/internal/infrastructure/binary"
	"github.com/plugmate/plugmate/internal/infrastructure/catalog"
	"github.com/plugmate/plugmate/internal/infrastructure/manifest"
	"github.com/plugmate/plugmate/internal/infrastructure/metadata"
)

// Container holds the constructed components the commands run against.
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Fs         afero.Fs
	Manifest   *manifest.Store
	Metadata   *metadata.Store
	Repository *catalog.Repository
	Resolver   *resolver.Service
	Analyzer   *analyzer.Analyzer
	Installer  *installer.Service
	Manager    *installer.Manager
}

// NewContainer builds every component from the configuration.
func NewContainer(cfg *config.Config, verbose bool) *Container {
	return NewContainerWithFs(cfg, verbose, afero.NewOsFs())
}

// NewContainerWithFs builds the container on an explicit filesystem, for
// tests.
func NewContainerWithFs(cfg *config.Config, verbose bool, fs afero.Fs) *Container {
	logger := newLogger(cfg.LogLevel, verbose)

	manifestStore := manifest.NewStore(fs, cfg.ManifestFile())
	metadataStore := metadata.NewStore(fs, cfg.MetadataPath())

	var sources []ports.Source
	for _, c := range cfg.Catalogs {
		switch c.Type {
		case "local":
			sources = append(sources, catalog.NewLocalSource(fs, c.Path))
		case "http":
			sources = append(sources, catalog.NewHTTPSource(c.URL, cfg.DownloadTimeout))
		}
	}
	repository := catalog.NewRepository(logger.With("component", "catalog"), sources...)
	registry := catalog.NewRegistry(
		catalog.NewGitHubClient(cfg.DownloadTimeout),
		catalog.NewModrinthClient(cfg.DownloadTimeout),
	)

	scanner := binary.NewDirScanner(fs, cfg.PluginsPath(), logger.With("component", "scanner"))
	deps := analyzer.New(scanner)

	res := resolver.New(metadataStore)
	installSvc := installer.NewService(
		manifestStore,
		metadataStore,
		repository,
		registry,
		res,
		fs,
		cfg.PluginsPath(),
		logger.With("component", "installer"),
	)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Fs:         fs,
		Manifest:   manifestStore,
		Metadata:   metadataStore,
		Repository: repository,
		Resolver:   resolver.NewService(manifestStore, res),
		Analyzer:   deps,
		Installer:  installSvc,
		Manager:    installer.NewManager(installSvc, deps),
	}
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelWarn
	if verbose {
		lvl = slog.LevelDebug
	} else {
		switch strings.ToLower(level) {
		case "debug":
			lvl = slog.LevelDebug
		case "info":
			lvl = slog.LevelInfo
		case "error":
			lvl = slog.LevelError
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
