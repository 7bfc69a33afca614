package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/services/config"
	"github.com/de-tools/sync-sentinel/pkg/services/monitor"
	"github.com/de-tools/sync-sentinel/pkg/services/triage"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb"
	duckdbaudit "github.com/de-tools/sync-sentinel/pkg/store/duckdb/audit"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/databricks/databricks-sql-go"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/snowflakedb/gosnowflake"
)

var (
	cfgPath   string
	connsPath string
	tableName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Sync Sentinel - source/lake reconciliation checks",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run one reconciliation pass and record the results",
		RunE:  runCheck,
	}
	checkCmd.Flags().StringVarP(&cfgPath, "config", "c", "sentinel.yaml",
		"Path to the monitor configuration file")
	checkCmd.Flags().StringVarP(&connsPath, "connections", "n", "connections.ini",
		"Path to the connection profiles file")
	checkCmd.Flags().StringVarP(&tableName, "table", "t", "",
		"Check a single table instead of all configured tables")

	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
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
	defer auditDB.Close()

	auditStore, err := duckdbaudit.NewStore(auditDB)
	if err != nil {
		return fmt.Errorf("failed to create audit store: %w", err)
	}

	providers, err := monitor.NewSQLProviders(ctx, cfg.Tables, registry)
	if err != nil {
		return err
	}

	engine := triage.NewEngine()
	controller := monitor.NewController(providers, auditStore, auditDB, engine, monitor.Settings{
		Thresholds:          cfg.Thresholds(),
		Policy:              cfg.Policy(),
		StuckThresholdHours: cfg.StuckThresholdHours,
	})

	var results []monitor.RunResult
	if tableName != "" {
		run, err := controller.RunTable(ctx, domain.Table{Name: tableName})
		results = []monitor.RunResult{{Table: domain.Table{Name: tableName}, Run: run, Err: err}}
	} else {
		results = controller.RunAll(ctx)
	}

	failed := false
	for _, result := range results {
		if result.Err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: check failed: %v\n", result.Table.Name, result.Err)
			continue
		}
		printRun(result, engine)
	}

	if failed {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

func printRun(result monitor.RunResult, engine *triage.Engine) {
	run := result.Run
	m := run.Metrics

	fmt.Printf("%s run #%d [%s]\n", run.Table.Name, run.RunID, run.Severity)
	fmt.Printf("  source=%d lake=%d gap=%d (%.2f%%)\n", m.SourceCount, m.LakeCount, m.SyncGap, m.GapPercentage)
	fmt.Printf("  freshness lag: %.2fh  quality score: %.2f", m.FreshnessLagHours, m.QualityScore)
	if m.LowConfidence {
		fmt.Print(" (low confidence)")
	}
	fmt.Println()
	if len(m.MissingPartitions) > 0 {
		keys := make([]string, 0, len(m.MissingPartitions))
		for _, k := range m.MissingPartitions {
			keys = append(keys, k.String())
		}
		fmt.Printf("  missing partitions: %s\n", strings.Join(keys, ", "))
	}

	analysis := engine.Analyze(m, run.Severity)
	fmt.Printf("  root cause: %s (risk %d/100)\n", analysis.RootCause, analysis.RiskScore)
	for _, rec := range analysis.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}
