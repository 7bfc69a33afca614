package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const AuditRunsSchema = `
	CREATE TABLE IF NOT EXISTS audit_runs (
		run_id BIGINT NOT NULL,
		table_name VARCHAR NOT NULL,
		run_timestamp TIMESTAMP NOT NULL,
		source_count BIGINT NOT NULL,
		lake_count BIGINT NOT NULL,
		sync_gap BIGINT NOT NULL,
		gap_percentage DOUBLE NOT NULL,
		freshness_lag_hours DOUBLE NOT NULL,
		missing_partitions JSON NOT NULL,
		quality_score DOUBLE NOT NULL,
		low_confidence BOOLEAN NOT NULL,
		computed_at TIMESTAMP NOT NULL,
		severity VARCHAR NOT NULL,
		triage_summary VARCHAR NULL,
		execution_seconds DOUBLE NOT NULL,
		PRIMARY KEY (table_name, run_id)
	);
`

const QualityIssuesSchema = `
	CREATE TABLE IF NOT EXISTS data_quality_issues (
		issue_id VARCHAR NOT NULL PRIMARY KEY,
		run_id BIGINT NOT NULL,
		table_name VARCHAR NOT NULL,
		issue_type VARCHAR NOT NULL,
		record_identifier VARCHAR NOT NULL,
		issue_details VARCHAR NOT NULL,
		detected_timestamp TIMESTAMP NOT NULL
	);
`

// Read-optimized views for dashboard consumption.
const LatestRunsView = `
	CREATE OR REPLACE VIEW latest_runs AS
	SELECT r.*
	FROM audit_runs r
	JOIN (
		SELECT table_name, MAX(run_id) AS run_id
		FROM audit_runs
		GROUP BY table_name
	) latest ON r.table_name = latest.table_name AND r.run_id = latest.run_id;
`

const QualitySummaryView = `
	CREATE OR REPLACE VIEW quality_summary AS
	SELECT i.table_name, i.run_id, i.issue_type, COUNT(*) AS issue_count
	FROM data_quality_issues i
	JOIN latest_runs l ON i.table_name = l.table_name AND i.run_id = l.run_id
	GROUP BY i.table_name, i.run_id, i.issue_type;
`

var bootQueries = []string{
	AuditRunsSchema,
	QualityIssuesSchema,
	LatestRunsView,
	QualitySummaryView,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
