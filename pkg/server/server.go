package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/sync-sentinel/pkg/handlers/monitor"
	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	syncsentinelmiddleware "github.com/de-tools/sync-sentinel/pkg/server/middleware"
	"github.com/de-tools/sync-sentinel/pkg/services/triage"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb/audit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Tables     []domain.Table
	AuditStore audit.Store
	Triager    *triage.Engine
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	handler := handlers.NewHandler(
		config.Dependencies.Tables,
		config.Dependencies.AuditStore,
		config.Dependencies.Triager,
	)

	router := chi.NewRouter()

	router.Use(syncsentinelmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/tables", handler.ListTables)
		r.Get("/tables/{table}/metrics", handler.GetMetrics)
		r.Get("/tables/{table}/history", handler.GetHistory)
		r.Get("/tables/{table}/recommendations", handler.GetRecommendations)
		r.Get("/tables/{table}/quality", handler.GetQualitySummary)
	})

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
