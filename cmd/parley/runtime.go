package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/internal/logging"
	"github.com/ShayCichocki/parley/internal/metrics"
	"github.com/ShayCichocki/parley/internal/orchestrator"
	"github.com/ShayCichocki/parley/internal/state"
)

// runtime holds the shared components every command wires into its
// orchestrators.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	lexicon  lexicon.Source
	registry *prometheus.Registry
	metrics  *metrics.Pipeline
	store    state.Store

	closers []func() error
}

// runtimeOptions tweak how the runtime is built for a command.
type runtimeOptions struct {
	// repoLog sends logs to the project log file when no file is configured.
	repoLog bool
}

// newRuntime builds the logger, lexicon source, metrics and optional
// transcript store from the configuration.
func newRuntime(c *config.Config, opts runtimeOptions) (*runtime, error) {
	r := &runtime{cfg: c}

	if opts.repoLog && c.Logging.File == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		r.logger = logging.ForRepo(cwd)
	} else {
		logger, err := logging.New(c.Logging)
		if err != nil {
			return nil, err
		}
		r.logger = logger
	}
	r.closers = append(r.closers, func() error {
		// Sync fails on stderr for some terminals; nothing to do about it.
		_ = r.logger.Sync()
		return nil
	})

	if err := r.openLexicon(); err != nil {
		r.Close()
		return nil, err
	}

	r.registry = prometheus.NewRegistry()
	r.metrics = metrics.New(r.registry)

	if c.State.Record {
		if err := r.openStore(); err != nil {
			r.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *runtime) openLexicon() error {
	path := r.cfg.Lexicon.Path
	switch {
	case path == "":
		r.lexicon = lexicon.DefaultSource()
	case r.cfg.Lexicon.Watch:
		w, err := lexicon.NewWatcher(path,
			lexicon.WithLogger(r.logger.Named("lexicon")),
			lexicon.WithReloadHook(func(*lexicon.Tables) {
				r.logger.Info("lexicon reloaded", zap.String("path", path))
			}))
		if err != nil {
			return fmt.Errorf("watch lexicon: %w", err)
		}
		r.lexicon = w
		r.closers = append(r.closers, w.Close)
	default:
		tables, err := lexicon.Load(path)
		if err != nil {
			return err
		}
		r.lexicon = lexicon.NewStatic(tables)
	}
	return nil
}

func (r *runtime) openStore() error {
	path := r.cfg.State.DBPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		path = state.ProjectDBPath(cwd)
	}

	db, err := state.Open(path)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate database: %w", err)
	}
	r.logger.Debug("state database ready", zap.String("path", db.Path()))
	r.store = db
	r.closers = append(r.closers, db.Close)
	return nil
}

// newOrchestrator creates an orchestrator for one conversation.
func (r *runtime) newOrchestrator(opts ...orchestrator.Option) *orchestrator.Orchestrator {
	base := []orchestrator.Option{
		orchestrator.WithConfig(r.cfg),
		orchestrator.WithLexicon(r.lexicon),
		orchestrator.WithLogger(r.logger),
		orchestrator.WithMetrics(r.metrics),
	}
	if r.store != nil {
		base = append(base, orchestrator.WithRecorder(r.store))
	}
	return orchestrator.New(append(base, opts...)...)
}

// serveMetrics exposes the registry over HTTP until the runtime is closed.
func (r *runtime) serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	r.logger.Info("serving metrics", zap.String("addr", addr))

	r.closers = append(r.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// Close releases everything the runtime opened, newest first.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
