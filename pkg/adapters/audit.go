package adapters

import (
	"github.com/de-tools/sync-sentinel/pkg/models/api"
	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/models/store"
)

func MapDomainRunToStoreRecord(run domain.AuditRun) store.AuditRunRecord {
	missing := make([]string, 0, len(run.Metrics.MissingPartitions))
	for _, key := range run.Metrics.MissingPartitions {
		missing = append(missing, key.String())
	}
	return store.AuditRunRecord{
		RunID:             run.RunID,
		TableName:         run.Table.Name,
		RunAt:             run.RunAt,
		SourceCount:       run.Metrics.SourceCount,
		LakeCount:         run.Metrics.LakeCount,
		SyncGap:           run.Metrics.SyncGap,
		GapPercentage:     run.Metrics.GapPercentage,
		FreshnessLagHours: run.Metrics.FreshnessLagHours,
		MissingPartitions: missing,
		QualityScore:      run.Metrics.QualityScore,
		LowConfidence:     run.Metrics.LowConfidence,
		ComputedAt:        run.Metrics.ComputedAt,
		Severity:          run.Severity.String(),
		TriageSummary:     run.TriageSummary,
		ExecutionSeconds:  run.ExecutionSeconds,
	}
}

func MapStoreRecordToDomainRun(rec store.AuditRunRecord) domain.AuditRun {
	missing := make([]domain.PartitionKey, 0, len(rec.MissingPartitions))
	for _, s := range rec.MissingPartitions {
		if key, ok := ParsePartitionKey(s); ok {
			missing = append(missing, key)
		}
	}
	return domain.AuditRun{
		RunID: rec.RunID,
		Table: domain.Table{Name: rec.TableName},
		RunAt: rec.RunAt,
		Metrics: domain.MetricsReport{
			SourceCount:       rec.SourceCount,
			LakeCount:         rec.LakeCount,
			SyncGap:           rec.SyncGap,
			GapPercentage:     rec.GapPercentage,
			FreshnessLagHours: rec.FreshnessLagHours,
			MissingPartitions: missing,
			QualityScore:      rec.QualityScore,
			LowConfidence:     rec.LowConfidence,
			ComputedAt:        rec.ComputedAt,
		},
		Severity:         domain.ParseSeverity(rec.Severity),
		TriageSummary:    rec.TriageSummary,
		ExecutionSeconds: rec.ExecutionSeconds,
	}
}

func MapDomainIssueToStoreRecord(issue domain.DataQualityIssue) store.QualityIssueRecord {
	return store.QualityIssueRecord{
		IssueID:    issue.IssueID,
		RunID:      issue.RunID,
		IssueType:  string(issue.Type),
		RecordID:   issue.RecordID,
		Details:    issue.Details,
		DetectedAt: issue.DetectedAt,
	}
}

func MapStoreRecordToDomainIssue(rec store.QualityIssueRecord) domain.DataQualityIssue {
	return domain.DataQualityIssue{
		IssueID:    rec.IssueID,
		RunID:      rec.RunID,
		Type:       domain.IssueType(rec.IssueType),
		RecordID:   rec.RecordID,
		Details:    rec.Details,
		DetectedAt: rec.DetectedAt,
	}
}

func MapDomainRunToAPIMetrics(run domain.AuditRun) api.MetricsResponse {
	missing := make([]string, 0, len(run.Metrics.MissingPartitions))
	for _, key := range run.Metrics.MissingPartitions {
		missing = append(missing, key.String())
	}
	return api.MetricsResponse{
		Table:             run.Table.Name,
		RunID:             run.RunID,
		RunAt:             run.RunAt,
		SourceCount:       run.Metrics.SourceCount,
		LakeCount:         run.Metrics.LakeCount,
		SyncGap:           run.Metrics.SyncGap,
		GapPercentage:     run.Metrics.GapPercentage,
		FreshnessLagHours: run.Metrics.FreshnessLagHours,
		MissingPartitions: missing,
		QualityScore:      run.Metrics.QualityScore,
		LowConfidence:     run.Metrics.LowConfidence,
		Severity:          api.Severity(run.Severity.String()),
		ExecutionSeconds:  run.ExecutionSeconds,
	}
}
