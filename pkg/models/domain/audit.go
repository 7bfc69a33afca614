package domain

import "time"

type IssueType string

const (
	IssueNullValue   IssueType = "NULL_VALUE"
	IssueOrphan      IssueType = "ORPHAN"
	IssueDuplicate   IssueType = "DUPLICATE"
	IssueSchemaDrift IssueType = "SCHEMA_DRIFT"
	IssueOther       IssueType = "OTHER"
)

// AuditRun is one immutable record of a reconciliation attempt. RunID is
// assigned at insert time and is strictly increasing, gap-free per table.
type AuditRun struct {
	RunID            int64
	Table            Table
	RunAt            time.Time
	Metrics          MetricsReport
	Severity         Severity
	TriageSummary    *string
	ExecutionSeconds float64
}

// DataQualityIssue is an itemized finding attached to its owning AuditRun.
// Issues are never reassigned to a different run.
type DataQualityIssue struct {
	IssueID    string
	RunID      int64
	Type       IssueType
	RecordID   string
	Details    string
	DetectedAt time.Time
}
