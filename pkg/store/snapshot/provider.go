package snapshot

import (
	"context"
	"database/sql"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
)

// Provider pairs a source and a lake handle into the snapshot provider a
// monitoring run consumes.
type Provider struct {
	source *SourceStore
	lake   *LakeStore
}

func NewProvider(sourceDB, lakeDB *sql.DB) (*Provider, error) {
	source, err := NewSourceStore(sourceDB)
	if err != nil {
		return nil, err
	}
	lake, err := NewLakeStore(lakeDB)
	if err != nil {
		return nil, err
	}
	return &Provider{source: source, lake: lake}, nil
}

func (p *Provider) FetchSource(ctx context.Context, table domain.Table) (domain.SourceSnapshot, error) {
	return p.source.FetchSource(ctx, table)
}

func (p *Provider) FetchLake(ctx context.Context, table domain.Table) (domain.LakeSnapshot, error) {
	return p.lake.FetchLake(ctx, table)
}
