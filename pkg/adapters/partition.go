package adapters

import (
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// ParsePartitionKey reads the persisted "YYYY-MM-DD" form.
func ParsePartitionKey(s string) (domain.PartitionKey, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return domain.PartitionKey{}, false
	}
	return domain.PartitionKey{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, true
}
