package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// precision for percentages, lags and scores: 2 decimals, fixed for stable
// comparison and display.
const precision = 100

func round2(v float64) float64 {
	return math.Round(v*precision) / precision
}

// Compute derives a MetricsReport from one source/lake snapshot pair. Pure and
// deterministic: the expected partition set and the reference time are passed
// in rather than inferred.
//
// Conventions:
//   - SyncGap is source minus lake, reported as-is. A negative gap means the
//     lake over-counts and is a meaningful duplication signal, never clamped.
//   - GapPercentage is 0.0 when the source holds no rows.
//   - With zero lake partitions the freshness lag spans from the source
//     snapshot to now (the lake is treated as maximally stale).
//   - QualityScore weighs flagged partitions by their row counts; an empty
//     lake scores 0 with LowConfidence set.
func Compute(
	source domain.SourceSnapshot,
	lake domain.LakeSnapshot,
	expected []domain.PartitionKey,
	now time.Time,
) domain.MetricsReport {
	gap := source.RowCount - lake.RowCount

	gapPct := 0.0
	if source.RowCount > 0 {
		gapPct = round2(100 * float64(gap) / float64(source.RowCount))
	}

	return domain.MetricsReport{
		SourceCount:       source.RowCount,
		LakeCount:         lake.RowCount,
		SyncGap:           gap,
		GapPercentage:     gapPct,
		FreshnessLagHours: freshnessLag(source, lake, now),
		MissingPartitions: missingPartitions(expected, lake.Partitions),
		QualityScore:      qualityScore(lake),
		LowConfidence:     lake.RowCount == 0,
		ComputedAt:        now,
	}
}

func freshnessLag(source domain.SourceSnapshot, lake domain.LakeSnapshot, now time.Time) float64 {
	if len(lake.Partitions) == 0 {
		return round2(now.Sub(source.AsOf).Hours())
	}

	var latest time.Time
	for _, p := range lake.Partitions {
		if p.LastLoadAt.After(latest) {
			latest = p.LastLoadAt
		}
	}
	return round2(source.AsOf.Sub(latest).Hours())
}

func missingPartitions(expected []domain.PartitionKey, present []domain.PartitionRow) []domain.PartitionKey {
	loaded := make(map[domain.PartitionKey]struct{}, len(present))
	for _, p := range present {
		loaded[p.Key] = struct{}{}
	}

	missing := make([]domain.PartitionKey, 0)
	for _, key := range expected {
		if _, ok := loaded[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Before(missing[j]) })
	return missing
}

func qualityScore(lake domain.LakeSnapshot) float64 {
	if lake.RowCount == 0 {
		return 0
	}

	var flagged int64
	for _, p := range lake.Partitions {
		if len(p.Flags) > 0 {
			flagged += p.RowCount
		}
	}

	score := round2(100 * (1 - float64(flagged)/float64(lake.RowCount)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
