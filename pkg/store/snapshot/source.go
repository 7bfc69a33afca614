package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/rs/zerolog"
)

// SourceStore reads point-in-time snapshots from the authoritative store over
// a plain database/sql handle, so any registered driver (mysql, snowflake,
// oracle) works unchanged.
type SourceStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSourceStore(db *sql.DB) (*SourceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &SourceStore{db: db, now: time.Now}, nil
}

// FetchSource captures the source row count for the table.
func (s *SourceStore) FetchSource(ctx context.Context, table domain.Table) (domain.SourceSnapshot, error) {
	logger := zerolog.Ctx(ctx)

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table.Name)
	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return domain.SourceSnapshot{}, classifyQueryErr(table, err)
	}

	logger.Debug().Str("table", table.Name).Int64("count", count).Msg("source snapshot captured")
	return domain.SourceSnapshot{
		Table:    table,
		RowCount: count,
		AsOf:     s.now(),
	}, nil
}

// classifyQueryErr separates "the table is unknown" (fatal for the run) from
// transient store failures (retryable). Driver error shapes differ, so the
// match is on the message; ORA-00942 is Oracle's unknown-table code.
func classifyQueryErr(table domain.Table, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "ora-00942") {
		return fmt.Errorf("%w: %s: %v", domain.ErrTableNotFound, table.Name, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrSnapshotUnavailable, table.Name, err)
}
