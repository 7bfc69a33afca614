package triage

import (
	"fmt"
	"strings"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// Analysis is the advisory output handed to dashboards. It is derived from a
// MetricsReport by value; the engine never touches audit state.
type Analysis struct {
	RootCause       string
	RiskScore       int
	Recommendations []string
	PriorityAction  string
}

// Engine is a deterministic rule-based triage consumer. It stands in for any
// external summarizer: the monitoring core works identically with it absent.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Analyze turns computed drift metrics into a root cause guess, a 0-100 risk
// score and concrete follow-up actions.
func (e *Engine) Analyze(report domain.MetricsReport, severity domain.Severity) Analysis {
	a := Analysis{
		RootCause:       rootCause(report),
		RiskScore:       riskScore(report),
		Recommendations: recommendations(report),
	}
	a.PriorityAction = priorityAction(report, severity)
	return a
}

// Summarize renders the analysis as the one-line triage summary persisted
// alongside an audit run.
func (e *Engine) Summarize(report domain.MetricsReport, severity domain.Severity) string {
	a := e.Analyze(report, severity)
	return fmt.Sprintf("%s (risk %d/100): %s", severity, a.RiskScore, a.RootCause)
}

func rootCause(r domain.MetricsReport) string {
	switch {
	case len(r.MissingPartitions) > 0 && r.SyncGap > 0:
		return "ETL loads are skipping partitions and leaving the lake behind the source"
	case len(r.MissingPartitions) > 0:
		return "recent partition loads did not land in the lake"
	case r.SyncGap < 0:
		return "the lake over-counts the source, most likely duplicated loads"
	case r.SyncGap > 0:
		return "the lake is missing records relative to the source"
	case r.LowConfidence:
		return "the lake holds no rows; quality cannot be assessed"
	case r.QualityScore < 100:
		return "loaded rows carry data quality flags"
	default:
		return "source and lake are in sync"
	}
}

// riskScore weighs the drift signals: gap percentage dominates, each missing
// partition adds 10, degraded quality adds up to 30. Clamped to [0,100].
func riskScore(r domain.MetricsReport) int {
	score := 0.0
	if r.GapPercentage < 0 {
		score += -r.GapPercentage
	} else {
		score += r.GapPercentage
	}
	score += float64(len(r.MissingPartitions)) * 10
	score += (100 - r.QualityScore) * 0.3

	if score > 100 {
		return 100
	}
	return int(score)
}

func recommendations(r domain.MetricsReport) []string {
	var recs []string
	if r.SyncGap > 0 {
		recs = append(recs, fmt.Sprintf("resync %d missing records from the source", r.SyncGap))
	}
	if r.SyncGap < 0 {
		recs = append(recs, "run deduplication on the lake table and compare load job history")
	}
	if len(r.MissingPartitions) > 0 {
		keys := make([]string, 0, len(r.MissingPartitions))
		for _, k := range r.MissingPartitions {
			keys = append(keys, k.String())
		}
		recs = append(recs, fmt.Sprintf("backfill partitions %s via the partition recovery job", strings.Join(keys, ", ")))
	}
	if r.QualityScore < 100 && !r.LowConfidence {
		recs = append(recs, "inspect flagged partitions and quarantine affected rows")
	}
	if r.FreshnessLagHours > 24 {
		recs = append(recs, "check ETL pipeline status and scheduler logs for stalled loads")
	}
	if len(recs) == 0 {
		recs = append(recs, "no action required; keep monitoring")
	}
	return recs
}

func priorityAction(r domain.MetricsReport, severity domain.Severity) string {
	if severity == domain.SeverityOK {
		return "no immediate action; stores are within SLA"
	}
	if len(r.MissingPartitions) > 0 {
		return "backfill missing partitions first; they break downstream partition pruning"
	}
	return "close the sync gap first; it skews every downstream report"
}
