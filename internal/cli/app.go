package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pendergraft/contract-metadata/internal/assets"
	"github.com/pendergraft/contract-metadata/internal/chains/evm"
	"github.com/pendergraft/contract-metadata/internal/config"
	"github.com/pendergraft/contract-metadata/internal/fetch"
	"github.com/pendergraft/contract-metadata/internal/logger"
	"github.com/pendergraft/contract-metadata/internal/observability/metrics"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/verification"
)

// app bundles what every command needs after flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	layout  registry.Layout
	command string
	start   time.Time
}

// loadApp resolves configuration (flags override file and environment),
// builds the logger and enables metrics when a textfile is configured.
func loadApp(command string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if rootDir != "" {
		cfg.Registry.Root = rootDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	metrics.Init(cfg.Metrics.Textfile != "")

	log.Debug("configuration loaded",
		zap.String("source", cfg.Source),
		zap.String("root", cfg.Registry.Root),
		zap.String("command", command),
	)

	return &app{
		cfg:     cfg,
		logger:  log,
		layout:  registry.NewLayout(cfg.Registry.Root),
		command: command,
		start:   time.Now(),
	}, nil
}

func (a *app) fetcher() *fetch.Fetcher {
	return fetch.New(fetch.Config{
		Timeout:       a.cfg.FetchTimeout(),
		MaxRedirects:  a.cfg.Fetch.MaxRedirects,
		MaxBodySize:   a.cfg.Fetch.MaxSizeMB << 20,
		RatePerSecond: a.cfg.Fetch.RatePerSecond,
	}, a.logger)
}

func (a *app) assetService() *assets.Service {
	return assets.NewService(a.layout, a.fetcher(), a.logger)
}

func (a *app) verifier() *verification.Service {
	return verification.NewService(a.layout, evm.DefaultRegistry(), a.logger)
}

// finish records the command duration and flushes metrics. A metrics write
// failure is logged, not returned, so it never masks the command result.
func (a *app) finish() {
	metrics.ObserveCommand(a.command, a.start)
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("writing metrics textfile", zap.String("path", a.cfg.Metrics.Textfile), zap.Error(err))
	}
	_ = a.logger.Sync()
}

// decorated reports whether w is an interactive terminal.
func decorated(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// okMark prefixes success lines on terminals.
func okMark(w io.Writer) string {
	if decorated(w) {
		return "✅ "
	}
	return ""
}
