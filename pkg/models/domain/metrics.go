package domain

import "time"

// MetricsReport is the fixed set of drift metrics derived from one
// source/lake snapshot pair. Conventions for the empty edge cases:
//   - GapPercentage is 0.0 when SourceCount is 0 (never a division error).
//   - QualityScore is 0 with LowConfidence set when the lake holds no rows;
//     an empty lake is insufficient data, not perfect quality.
type MetricsReport struct {
	SourceCount       int64
	LakeCount         int64
	SyncGap           int64
	GapPercentage     float64
	FreshnessLagHours float64
	MissingPartitions []PartitionKey
	QualityScore      float64
	LowConfidence     bool
	ComputedAt        time.Time
}
