package severity

import (
	"fmt"
	"math"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// Thresholds contains the SLA limits a MetricsReport is classified against.
type Thresholds struct {
	// WarningPct is the absolute gap percentage at which a run degrades to WARNING.
	WarningPct float64
	// CriticalPct is the absolute gap percentage at which a run degrades to CRITICAL.
	CriticalPct float64
	// QualityCriticalFloor is the quality score below which a run is CRITICAL.
	QualityCriticalFloor float64
}

// DefaultThresholds returns the stock SLA configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningPct:           1.0,
		CriticalPct:          5.0,
		QualityCriticalFloor: 90.0,
	}
}

func (t Thresholds) Validate() error {
	if t.WarningPct < 0 || t.CriticalPct < 0 {
		return fmt.Errorf("%w: thresholds must be non-negative", domain.ErrInvalidConfig)
	}
	if t.WarningPct > t.CriticalPct {
		return fmt.Errorf("%w: warning_pct %.2f exceeds critical_pct %.2f",
			domain.ErrInvalidConfig, t.WarningPct, t.CriticalPct)
	}
	if t.QualityCriticalFloor < 0 || t.QualityCriticalFloor > 100 {
		return fmt.Errorf("%w: quality_critical_floor must be within [0,100]", domain.ErrInvalidConfig)
	}
	return nil
}

// Classify maps a report to {OK, WARNING, CRITICAL}. The result is the maximum
// over all sub-checks: one failing check escalates regardless of the others.
func Classify(report domain.MetricsReport, thresholds Thresholds) domain.Severity {
	result := domain.SeverityOK
	absGap := math.Abs(report.GapPercentage)

	if absGap >= thresholds.CriticalPct {
		result = result.Max(domain.SeverityCritical)
	} else if absGap >= thresholds.WarningPct {
		result = result.Max(domain.SeverityWarning)
	}

	if len(report.MissingPartitions) > 0 {
		result = result.Max(domain.SeverityCritical)
	}

	if report.QualityScore < thresholds.QualityCriticalFloor {
		result = result.Max(domain.SeverityCritical)
	}

	return result
}
