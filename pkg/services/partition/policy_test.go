package partition

import (
	"testing"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func TestDaily_Expected(t *testing.T) {
	// Tuesday
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	keys := Daily{Days: 3}.Expected(now)

	assert.Equal(t, []domain.PartitionKey{
		{Year: 2025, Month: 6, Day: 8},
		{Year: 2025, Month: 6, Day: 9},
		{Year: 2025, Month: 6, Day: 10},
	}, keys)
}

func TestDaily_Expected_CrossesMonthBoundary(t *testing.T) {
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	keys := Daily{Days: 2}.Expected(now)

	assert.Equal(t, []domain.PartitionKey{
		{Year: 2025, Month: 6, Day: 30},
		{Year: 2025, Month: 7, Day: 1},
	}, keys)
}

func TestBusinessDaily_Expected_SkipsWeekends(t *testing.T) {
	// Monday, so the trailing window covers Sat and Sun
	now := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)

	keys := BusinessDaily{Days: 4}.Expected(now)

	assert.Equal(t, []domain.PartitionKey{
		{Year: 2025, Month: 6, Day: 6},
		{Year: 2025, Month: 6, Day: 9},
	}, keys)
}

func TestBusinessDaily_Expected_SkipsHolidays(t *testing.T) {
	// July 4 2025 is a Friday
	now := time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC)

	keys := BusinessDaily{Days: 5}.Expected(now)

	assert.Equal(t, []domain.PartitionKey{
		{Year: 2025, Month: 7, Day: 3},
		{Year: 2025, Month: 7, Day: 7},
	}, keys)
}

func TestIsBusinessDay(t *testing.T) {
	assert.True(t, isBusinessDay(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, isBusinessDay(time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)))
	assert.False(t, isBusinessDay(time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)))
}
