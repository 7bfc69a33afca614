package config

import (
	"context"
	"fmt"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// ConnProfile is one named connection from the connections file. Driver must
// match a database/sql driver registered by the binary (mysql, snowflake,
// databricks, duckdb).
type ConnProfile struct {
	Name   string
	Driver string
	DSN    string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*ConnProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*ConnProfile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s not found", domain.ErrInvalidConfig, name)
	}

	profile := &ConnProfile{
		Name:   name,
		Driver: section.Key("driver").String(),
		DSN:    section.Key("dsn").String(),
	}
	if profile.Driver == "" || profile.DSN == "" {
		return nil, fmt.Errorf("%w: profile %s must set driver and dsn", domain.ErrInvalidConfig, name)
	}
	return profile, nil
}
