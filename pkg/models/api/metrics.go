package api

import "time"

type Severity string

const (
	SeverityOK       Severity = "OK"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type Table struct {
	Name string `json:"name"`
}

// MetricsResponse is the flat latest-run record served by GET metrics.
type MetricsResponse struct {
	Table             string    `json:"table"`
	RunID             int64     `json:"run_id"`
	RunAt             time.Time `json:"run_at"`
	SourceCount       int64     `json:"source_count"`
	LakeCount         int64     `json:"lake_count"`
	SyncGap           int64     `json:"sync_gap"`
	GapPercentage     float64   `json:"gap_percentage"`
	FreshnessLagHours float64   `json:"freshness_lag_hours"`
	MissingPartitions []string  `json:"missing_partitions"`
	QualityScore      float64   `json:"quality_score"`
	LowConfidence     bool      `json:"low_confidence"`
	Severity          Severity  `json:"severity"`
	ExecutionSeconds  float64   `json:"execution_seconds"`
}

type HistoryResponse struct {
	Table string            `json:"table"`
	Runs  []MetricsResponse `json:"runs"`
}

// TriageResponse carries advisory text keyed by the run it was derived from.
type TriageResponse struct {
	Table           string   `json:"table"`
	RunID           int64    `json:"run_id"`
	Severity        Severity `json:"severity"`
	RiskScore       int      `json:"risk_score"`
	RootCause       string   `json:"root_cause"`
	Recommendations []string `json:"recommendations"`
	PriorityAction  string   `json:"priority_action"`
}
