package monitor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/sync-sentinel/pkg/services/config"
	"github.com/de-tools/sync-sentinel/pkg/store/snapshot"
)

// NewSQLProviders opens the configured connection profiles and pairs them
// into one snapshot provider per monitored table. Handles are shared between
// tables using the same profile.
func NewSQLProviders(
	ctx context.Context,
	tables []config.TableConfig,
	registry config.Registry,
) (map[string]SnapshotProvider, error) {
	handles := map[string]*sql.DB{}
	open := func(profileName string) (*sql.DB, error) {
		if db, ok := handles[profileName]; ok {
			return db, nil
		}
		profile, err := registry.GetProfile(ctx, profileName)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open(profile.Driver, profile.DSN)
		if err != nil {
			return nil, fmt.Errorf("open profile %s: %w", profileName, err)
		}
		handles[profileName] = db
		return db, nil
	}

	providers := make(map[string]SnapshotProvider, len(tables))
	for _, table := range tables {
		sourceDB, err := open(table.SourceProfile)
		if err != nil {
			return nil, err
		}
		lakeDB, err := open(table.LakeProfile)
		if err != nil {
			return nil, err
		}
		provider, err := snapshot.NewProvider(sourceDB, lakeDB)
		if err != nil {
			return nil, err
		}
		providers[table.Name] = provider
	}
	return providers, nil
}
