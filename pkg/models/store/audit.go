package store

import "time"

// AuditRunRecord is the flattened audit_runs row shape.
type AuditRunRecord struct {
	RunID             int64
	TableName         string
	RunAt             time.Time
	SourceCount       int64
	LakeCount         int64
	SyncGap           int64
	GapPercentage     float64
	FreshnessLagHours float64
	MissingPartitions []string
	QualityScore      float64
	LowConfidence     bool
	ComputedAt        time.Time
	Severity          string
	TriageSummary     *string
	ExecutionSeconds  float64
}

type QualityIssueRecord struct {
	IssueID    string
	RunID      int64
	IssueType  string
	RecordID   string
	Details    string
	DetectedAt time.Time
}

// QualitySummary backs the quality_summary read view: current issue spread
// for the latest run of a table.
type QualitySummary struct {
	TableName  string
	RunID      int64
	IssueType  string
	IssueCount int64
}
