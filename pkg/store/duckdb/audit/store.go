package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/adapters"
	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/models/store"
	"github.com/de-tools/sync-sentinel/pkg/store/duckdb"
)

// Store is the append-only audit trail. Record and AttachIssues are the only
// write operations; existing runs and issues are never updated or deleted.
type Store interface {
	Record(
		ctx context.Context,
		table domain.Table,
		report domain.MetricsReport,
		severity domain.Severity,
		triage *string,
		executionSeconds float64,
	) (domain.AuditRun, error)
	AttachIssues(ctx context.Context, table domain.Table, runID int64, issues []domain.DataQualityIssue) error

	Latest(ctx context.Context, table domain.Table) (domain.AuditRun, error)
	History(ctx context.Context, table domain.Table, limit int) ([]domain.AuditRun, error)
	Issues(ctx context.Context, table domain.Table, runID int64) ([]domain.DataQualityIssue, error)
	QualitySummary(ctx context.Context, table domain.Table) ([]store.QualitySummary, error)
}

type auditStore struct {
	db *sql.DB
	// mu serializes run_id allocation: a single-writer discipline keeps ids
	// strictly increasing and gap-free per table.
	mu sync.Mutex
	// lastRunAt guards against timestamp ties within clock resolution so the
	// run_timestamp ordering stays strict.
	lastRunAt time.Time
	now       func() time.Time
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &auditStore{db: db, now: time.Now}, nil
}

const runColumns = `run_id, table_name, run_timestamp, source_count, lake_count, sync_gap,
		gap_percentage, freshness_lag_hours, missing_partitions, quality_score,
		low_confidence, computed_at, severity, triage_summary, execution_seconds`

func (a *auditStore) Record(
	ctx context.Context,
	table domain.Table,
	report domain.MetricsReport,
	severity domain.Severity,
	triage *string,
	executionSeconds float64,
) (domain.AuditRun, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	runAt := a.now()
	if !runAt.After(a.lastRunAt) {
		runAt = a.lastRunAt.Add(time.Microsecond)
	}
	a.lastRunAt = runAt

	run := domain.AuditRun{
		Table:            table,
		RunAt:            runAt,
		Metrics:          report,
		Severity:         severity,
		TriageSummary:    triage,
		ExecutionSeconds: executionSeconds,
	}
	rec := adapters.MapDomainRunToStoreRecord(run)

	missing, err := json.Marshal(rec.MissingPartitions)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("marshal missing partitions: %w", err)
	}

	tx := duckdb.GetTransaction(ctx)
	ownTx := tx == nil
	if ownTx {
		tx, err = a.db.BeginTx(ctx, nil)
		if err != nil {
			return domain.AuditRun{}, fmt.Errorf("begin record transaction: %w", err)
		}
		defer func() {
			if ownTx {
				_ = tx.Rollback()
			}
		}()
	}

	// run_id assignment is transactional with the insert.
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(run_id), 0) + 1 FROM audit_runs WHERE table_name = ?`,
		rec.TableName,
	).Scan(&run.RunID)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("allocate run_id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO audit_runs (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, runColumns),
		run.RunID,
		rec.TableName,
		rec.RunAt,
		rec.SourceCount,
		rec.LakeCount,
		rec.SyncGap,
		rec.GapPercentage,
		rec.FreshnessLagHours,
		string(missing),
		rec.QualityScore,
		rec.LowConfidence,
		rec.ComputedAt,
		rec.Severity,
		rec.TriageSummary,
		rec.ExecutionSeconds,
	)
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("insert audit run: %w", err)
	}

	if ownTx {
		if err := tx.Commit(); err != nil {
			return domain.AuditRun{}, fmt.Errorf("commit audit run: %w", err)
		}
		ownTx = false
	}
	return run, nil
}

// AttachIssues persists issue rows for an existing run, all-or-nothing. A
// run_id that does not exist yields ErrDanglingReference and zero rows.
func (a *auditStore) AttachIssues(
	ctx context.Context,
	table domain.Table,
	runID int64,
	issues []domain.DataQualityIssue,
) error {
	if len(issues) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	ownTx := tx == nil
	if ownTx {
		var err error
		tx, err = a.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin attach transaction: %w", err)
		}
		defer func() {
			if ownTx {
				_ = tx.Rollback()
			}
		}()
	}

	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_runs WHERE table_name = ? AND run_id = ?`,
		table.Name, runID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("verify audit run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: table %s run %d", domain.ErrDanglingReference, table.Name, runID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO data_quality_issues (
			issue_id, run_id, table_name, issue_type,
			record_identifier, issue_details, detected_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for _, issue := range issues {
		rec := adapters.MapDomainIssueToStoreRecord(issue)
		_, err = stmt.ExecContext(ctx,
			rec.IssueID, runID, table.Name, rec.IssueType,
			rec.RecordID, rec.Details, rec.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert issue %s: %w", rec.IssueID, err)
		}
	}

	if ownTx {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit issues: %w", err)
		}
		ownTx = false
	}
	return nil
}

func (a *auditStore) Latest(ctx context.Context, table domain.Table) (domain.AuditRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM latest_runs WHERE table_name = ?`, runColumns)
	row := a.db.QueryRowContext(ctx, query, table.Name)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return domain.AuditRun{}, fmt.Errorf("%w: %s has no audit runs", domain.ErrTableNotFound, table.Name)
	}
	if err != nil {
		return domain.AuditRun{}, fmt.Errorf("query latest run: %w", err)
	}
	return run, nil
}

func (a *auditStore) History(ctx context.Context, table domain.Table, limit int) ([]domain.AuditRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_runs
		WHERE table_name = ?
		ORDER BY run_timestamp, run_id
		LIMIT ?`, runColumns)

	rows, err := a.db.QueryContext(ctx, query, table.Name, limit)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.AuditRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run history: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (a *auditStore) Issues(ctx context.Context, table domain.Table, runID int64) ([]domain.DataQualityIssue, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT issue_id, run_id, issue_type, record_identifier, issue_details, detected_timestamp
		FROM data_quality_issues
		WHERE table_name = ? AND run_id = ?
		ORDER BY detected_timestamp`, table.Name, runID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	issues := make([]domain.DataQualityIssue, 0)
	for rows.Next() {
		var rec store.QualityIssueRecord
		if err := rows.Scan(&rec.IssueID, &rec.RunID, &rec.IssueType, &rec.RecordID, &rec.Details, &rec.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, adapters.MapStoreRecordToDomainIssue(rec))
	}
	return issues, rows.Err()
}

func (a *auditStore) QualitySummary(ctx context.Context, table domain.Table) ([]store.QualitySummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name, run_id, issue_type, issue_count
		FROM quality_summary
		WHERE table_name = ?
		ORDER BY issue_type`, table.Name)
	if err != nil {
		return nil, fmt.Errorf("query quality summary: %w", err)
	}
	defer rows.Close()

	summaries := make([]store.QualitySummary, 0)
	for rows.Next() {
		var s store.QualitySummary
		if err := rows.Scan(&s.TableName, &s.RunID, &s.IssueType, &s.IssueCount); err != nil {
			return nil, fmt.Errorf("scan quality summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.AuditRun, error) {
	var (
		rec        store.AuditRunRecord
		missingRaw []byte
		triage     sql.NullString
	)
	err := row.Scan(
		&rec.RunID,
		&rec.TableName,
		&rec.RunAt,
		&rec.SourceCount,
		&rec.LakeCount,
		&rec.SyncGap,
		&rec.GapPercentage,
		&rec.FreshnessLagHours,
		&missingRaw,
		&rec.QualityScore,
		&rec.LowConfidence,
		&rec.ComputedAt,
		&rec.Severity,
		&triage,
		&rec.ExecutionSeconds,
	)
	if err != nil {
		return domain.AuditRun{}, err
	}

	if len(missingRaw) > 0 {
		if err := json.Unmarshal(missingRaw, &rec.MissingPartitions); err != nil {
			return domain.AuditRun{}, fmt.Errorf("unmarshal missing partitions: %w", err)
		}
	}
	if triage.Valid {
		s := triage.String
		rec.TriageSummary = &s
	}
	return adapters.MapStoreRecordToDomainRun(rec), nil
}
