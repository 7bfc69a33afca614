package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/rs/zerolog"
)

// LakeStore reads partition-level snapshots from the downstream lake table.
// The table is expected to carry the partition columns (year, month, day), a
// load_timestamp and a nullable quality_flag per row, matching the warehouse
// loader contract.
type LakeStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewLakeStore(db *sql.DB) (*LakeStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &LakeStore{db: db, now: time.Now}, nil
}

// FetchLake captures the lake row count plus per-partition row counts, last
// load timestamps and quality flags.
func (l *LakeStore) FetchLake(ctx context.Context, table domain.Table) (domain.LakeSnapshot, error) {
	logger := zerolog.Ctx(ctx)

	partitions, total, err := l.fetchPartitions(ctx, table)
	if err != nil {
		return domain.LakeSnapshot{}, err
	}

	if err := l.fetchFlags(ctx, table, partitions); err != nil {
		return domain.LakeSnapshot{}, err
	}

	rows := make([]domain.PartitionRow, 0, len(partitions))
	for _, p := range partitions {
		rows = append(rows, *p)
	}

	logger.Debug().
		Str("table", table.Name).
		Int64("count", total).
		Int("partitions", len(rows)).
		Msg("lake snapshot captured")

	return domain.LakeSnapshot{
		Table:      table,
		RowCount:   total,
		Partitions: rows,
		AsOf:       l.now(),
	}, nil
}

func (l *LakeStore) fetchPartitions(
	ctx context.Context,
	table domain.Table,
) (map[domain.PartitionKey]*domain.PartitionRow, int64, error) {
	logger := zerolog.Ctx(ctx)

	query := fmt.Sprintf(`
		SELECT year, month, day, COUNT(*) AS record_count, MAX(load_timestamp) AS last_load
		FROM %s
		GROUP BY year, month, day
		ORDER BY year, month, day`, table.Name)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, classifyQueryErr(table, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close partition query rows")
		}
	}(rows)

	partitions := make(map[domain.PartitionKey]*domain.PartitionRow)
	var total int64
	for rows.Next() {
		var (
			year, month, day int
			count            int64
			lastLoad         time.Time
		)
		if err := rows.Scan(&year, &month, &day, &count, &lastLoad); err != nil {
			return nil, 0, fmt.Errorf("%w: scan partition row: %v", domain.ErrSnapshotUnavailable, err)
		}
		key := domain.PartitionKey{Year: year, Month: month, Day: day}
		partitions[key] = &domain.PartitionRow{Key: key, RowCount: count, LastLoadAt: lastLoad}
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrSnapshotUnavailable, err)
	}
	return partitions, total, nil
}

func (l *LakeStore) fetchFlags(
	ctx context.Context,
	table domain.Table,
	partitions map[domain.PartitionKey]*domain.PartitionRow,
) error {
	logger := zerolog.Ctx(ctx)

	query := fmt.Sprintf(`
		SELECT year, month, day, quality_flag
		FROM %s
		WHERE quality_flag IS NOT NULL
		GROUP BY year, month, day, quality_flag`, table.Name)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return classifyQueryErr(table, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close quality flag rows")
		}
	}(rows)

	for rows.Next() {
		var (
			year, month, day int
			flag             string
		)
		if err := rows.Scan(&year, &month, &day, &flag); err != nil {
			return fmt.Errorf("%w: scan quality flag row: %v", domain.ErrSnapshotUnavailable, err)
		}
		key := domain.PartitionKey{Year: year, Month: month, Day: day}
		if p, ok := partitions[key]; ok {
			p.Flags = append(p.Flags, domain.QualityFlag(flag))
		}
	}
	return rows.Err()
}
