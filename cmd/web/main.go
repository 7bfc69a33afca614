package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/server"
	"github.com/de-tools/sync-sentinel/pkg/services/config"
	"github.com/de-tools/sync-sentinel/pkg/services/monitor"
	"github.com/de-tools/sync-sentinel/pkg/services/triage"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb"
	duckdbaudit "github.com/de-tools/sync-sentinel/pkg/store/duckdb/audit"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/snowflakedb/gosnowflake"
)

var (
	cfgPath   string
	connsPath string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the Sync Sentinel monitoring server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "sentinel.yaml",
		"Path to the monitor configuration file")
	rootCmd.Flags().StringVarP(&connsPath, "connections", "n", "connections.ini",
		"Path to the connection profiles file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load monitor config: %w", err)
	}

	registry, err := config.NewRegistry(connsPath)
	if err != nil {
		return fmt.Errorf("failed to create connection registry: %w", err)
	}

	auditDB, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.AuditDBPath})
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	auditStore, err := duckdbaudit.NewStore(auditDB)
	if err != nil {
		return fmt.Errorf("failed to create audit store: %w", err)
	}

	providers, err := monitor.NewSQLProviders(ctx, cfg.Tables, registry)
	if err != nil {
		return err
	}

	controller := monitor.NewController(providers, auditStore, auditDB, triage.NewEngine(), monitor.Settings{
		Thresholds:          cfg.Thresholds(),
		Policy:              cfg.Policy(),
		StuckThresholdHours: cfg.StuckThresholdHours,
	})

	logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	logger.Info().Int("tables", len(cfg.Tables)).Dur("interval", cfg.CheckInterval).Msg("monitoring started")

	go runMonitorLoop(ctx, controller, cfg.CheckInterval)

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Tables:     controller.Tables(),
			AuditStore: auditStore,
			Triager:    triage.NewEngine(),
		},
	})

	return api.Start()
}

func runMonitorLoop(ctx context.Context, controller *monitor.Controller, interval time.Duration) {
	logger := zerolog.Ctx(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		for _, result := range controller.RunAll(ctx) {
			if result.Err != nil {
				logger.Error().Err(result.Err).Str("table", result.Table.Name).Msg("monitoring run failed")
			}
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("monitoring loop stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
