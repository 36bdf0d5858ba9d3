package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brightmath/brightmath/internal/adaptive"
	"github.com/brightmath/brightmath/internal/api"
	"github.com/brightmath/brightmath/internal/assessment"
	"github.com/brightmath/brightmath/internal/events"
	"github.com/brightmath/brightmath/internal/insights"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/seed"
	"github.com/brightmath/brightmath/internal/skillgraph"
	"github.com/brightmath/brightmath/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

type serveConfig struct {
	Addr            string        `env:"BRIGHTMATH_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"BRIGHTMATH_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"BRIGHTMATH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func runServe(cmd *cobra.Command, _ []string) error {
	// A missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	var cfg serveConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := seedIfEmpty(ctx, st, logger); err != nil {
		return err
	}

	skills, err := st.LoadSkills(ctx)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	graph, err := skillgraph.Load(skills)
	if err != nil {
		return fmt.Errorf("load skill graph: %w", err)
	}
	questions, err := st.LoadQuestions(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	bank := questionbank.New(questions)

	bus := events.NewBus(logger)
	tracker := mastery.NewTracker(graph, st, bus, logger)
	selector := adaptive.NewSelector(bank, st, nil)
	assessments := assessment.NewService(graph, bank, st, tracker, bus, logger)
	engine := insights.NewEngine(graph, st, nil, logger)

	server := api.New(graph, bank, assessments, tracker, selector, engine, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", cfg.Addr, "db", dbPath,
			"skills", graph.Len(), "questions", bank.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seedIfEmpty loads the embedded curriculum into a fresh database.
func seedIfEmpty(ctx context.Context, st *store.Store, logger *slog.Logger) error {
	seeded, err := st.Seeded(ctx)
	if err != nil {
		return fmt.Errorf("check seed state: %w", err)
	}
	if seeded {
		return nil
	}

	catalog, err := seed.Default()
	if err != nil {
		return fmt.Errorf("load embedded seed: %w", err)
	}
	if err := catalog.Apply(ctx, st); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	logger.Info("seeded empty database",
		"skills", len(catalog.Skills), "questions", len(catalog.Questions))
	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
