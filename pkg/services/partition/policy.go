package partition

import (
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// Policy generates the partition keys expected to exist in the lake for the
// monitoring window ending at the given reference time. Policies are
// injected; the metrics calculator never infers expectations itself.
type Policy interface {
	Expected(now time.Time) []domain.PartitionKey
}

// Daily expects one partition per calendar day for the trailing Days window,
// the reference day included.
type Daily struct {
	Days int
}

func (p Daily) Expected(now time.Time) []domain.PartitionKey {
	return trailingDays(now, p.Days, func(time.Time) bool { return true })
}

// BusinessDaily expects one partition per business day: weekends and a fixed
// set of US holidays are skipped, matching the loader's schedule.
type BusinessDaily struct {
	Days int
}

var holidays = map[[2]int]struct{}{
	{1, 1}:   {}, // New Year
	{7, 4}:   {}, // Independence Day
	{11, 25}: {}, // around Thanksgiving
	{12, 24}: {},
	{12, 25}: {},
}

func (p BusinessDaily) Expected(now time.Time) []domain.PartitionKey {
	return trailingDays(now, p.Days, isBusinessDay)
}

func isBusinessDay(t time.Time) bool {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := holidays[[2]int{int(t.Month()), t.Day()}]
	return !holiday
}

func trailingDays(now time.Time, days int, include func(time.Time) bool) []domain.PartitionKey {
	keys := make([]domain.PartitionKey, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		if !include(day) {
			continue
		}
		keys = append(keys, domain.PartitionKey{
			Year:  day.Year(),
			Month: int(day.Month()),
			Day:   day.Day(),
		})
	}
	return keys
}
