package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/services/metrics"
	"github.com/de-tools/sync-sentinel/pkg/services/partition"
	"github.com/de-tools/sync-sentinel/pkg/services/severity"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb/audit"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SnapshotProvider supplies the two point-in-time snapshots for a run.
type SnapshotProvider interface {
	FetchSource(ctx context.Context, table domain.Table) (domain.SourceSnapshot, error)
	FetchLake(ctx context.Context, table domain.Table) (domain.LakeSnapshot, error)
}

// Triager consumes a computed report and produces the persisted summary line.
// Optional: the pipeline runs identically without one.
type Triager interface {
	Summarize(report domain.MetricsReport, severity domain.Severity) string
}

type Settings struct {
	Thresholds severity.Thresholds
	Policy     partition.Policy
	// StuckThresholdHours flags partitions whose last load lags the source
	// snapshot by more than this many hours.
	StuckThresholdHours float64
}

// Controller drives one reconciliation run per table: snapshot capture,
// metric computation, severity classification and the audit record. Each run
// is a single unit of work with no internal parallelism; tables run
// concurrently as independent units.
type Controller struct {
	providers map[string]SnapshotProvider
	recorder  audit.Store
	// auditDB, when set, scopes each run's record step to one transaction so
	// cancellation leaves no partial run or orphaned issues.
	auditDB  *sql.DB
	triager  Triager
	settings Settings
	now      func() time.Time
}

func NewController(
	providers map[string]SnapshotProvider,
	recorder audit.Store,
	auditDB *sql.DB,
	triager Triager,
	settings Settings,
) *Controller {
	return &Controller{
		providers: providers,
		recorder:  recorder,
		auditDB:   auditDB,
		triager:   triager,
		settings:  settings,
		now:       time.Now,
	}
}

func (c *Controller) Tables() []domain.Table {
	tables := make([]domain.Table, 0, len(c.providers))
	for name := range c.providers {
		tables = append(tables, domain.Table{Name: name})
	}
	return tables
}

// RunTable executes one full monitoring run. A failure anywhere leaves the
// audit trail untouched; the caller retries the whole run, never mid-pipeline.
func (c *Controller) RunTable(ctx context.Context, table domain.Table) (domain.AuditRun, error) {
	logger := zerolog.Ctx(ctx)
	started := c.now()

	provider, ok := c.providers[table.Name]
	if !ok {
		return domain.AuditRun{}, fmt.Errorf("%w: %s is not monitored", domain.ErrTableNotFound, table.Name)
	}

	source, err := provider.FetchSource(ctx, table)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("fetch source snapshot: %w", err)
	}
	lake, err := provider.FetchLake(ctx, table)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("fetch lake snapshot: %w", err)
	}

	now := c.now()
	report := metrics.Compute(source, lake, c.settings.Policy.Expected(now), now)
	sev := severity.Classify(report, c.settings.Thresholds)

	var triage *string
	if c.triager != nil {
		summary := c.triager.Summarize(report, sev)
		triage = &summary
	}

	issues := c.deriveIssues(lake, source.AsOf, now)
	executionSeconds := c.now().Sub(started).Seconds()

	run, err := c.record(ctx, table, report, sev, triage, executionSeconds, issues)
	if err != nil {
		return domain.AuditRun{}, err
	}

	logger.Info().
		Str("table", table.Name).
		Int64("run_id", run.RunID).
		Str("severity", sev.String()).
		Float64("gap_pct", report.GapPercentage).
		Int("issues", len(issues)).
		Msg("reconciliation run recorded")
	return run, nil
}

// record persists the run and its issues atomically when a transactional
// audit DB is available.
func (c *Controller) record(
	ctx context.Context,
	table domain.Table,
	report domain.MetricsReport,
	sev domain.Severity,
	triage *string,
	executionSeconds float64,
	issues []domain.DataQualityIssue,
) (domain.AuditRun, error) {
	if c.auditDB == nil {
		run, err := c.recorder.Record(ctx, table, report, sev, triage, executionSeconds)
		if err != nil {
			return domain.AuditRun{}, fmt.Errorf("record audit run: %w", err)
		}
		if err := c.recorder.AttachIssues(ctx, table, run.RunID, issues); err != nil {
			return domain.AuditRun{}, fmt.Errorf("attach issues: %w", err)
		}
		return run, nil
	}

	tx, err := c.auditDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("begin record transaction: %w", err)
	}
	txCtx := duckdb.WithTransaction(ctx, tx)

	run, err := c.recorder.Record(txCtx, table, report, sev, triage, executionSeconds)
	if err != nil {
		_ = tx.Rollback()
		return domain.AuditRun{}, fmt.Errorf("record audit run: %w", err)
	}
	if err := c.recorder.AttachIssues(txCtx, table, run.RunID, issues); err != nil {
		_ = tx.Rollback()
		return domain.AuditRun{}, fmt.Errorf("attach issues: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.AuditRun{}, fmt.Errorf("commit audit run: %w", err)
	}
	return run, nil
}

// deriveIssues itemizes findings from the lake snapshot: one issue per
// quality flag per partition, plus stalled-load findings.
func (c *Controller) deriveIssues(lake domain.LakeSnapshot, sourceAsOf, now time.Time) []domain.DataQualityIssue {
	var issues []domain.DataQualityIssue
	for _, p := range lake.Partitions {
		for _, flag := range p.Flags {
			issues = append(issues, domain.DataQualityIssue{
				IssueID:    uuid.NewString(),
				Type:       domain.IssueType(flag),
				RecordID:   p.Key.String(),
				Details:    fmt.Sprintf("partition %s carries flag %s across %d rows", p.Key, flag, p.RowCount),
				DetectedAt: now,
			})
		}

		if c.settings.StuckThresholdHours > 0 {
			lag := sourceAsOf.Sub(p.LastLoadAt).Hours()
			if lag > c.settings.StuckThresholdHours {
				issues = append(issues, domain.DataQualityIssue{
					IssueID:    uuid.NewString(),
					Type:       domain.IssueOther,
					RecordID:   p.Key.String(),
					Details:    fmt.Sprintf("partition %s has received no loads for %.1f hours", p.Key, lag),
					DetectedAt: now,
				})
			}
		}
	}
	return issues
}

type RunResult struct {
	Table domain.Table
	Run   domain.AuditRun
	Err   error
}

// RunAll monitors every configured table concurrently. A failed table never
// blocks or fails the others.
func (c *Controller) RunAll(ctx context.Context) []RunResult {
	tables := c.Tables()
	results := make([]RunResult, len(tables))

	var wg sync.WaitGroup
	for i, table := range tables {
		wg.Add(1)
		go func(i int, table domain.Table) {
			defer wg.Done()
			run, err := c.RunTable(ctx, table)
			results[i] = RunResult{Table: table, Run: run, Err: err}
		}(i, table)
	}
	wg.Wait()
	return results
}
