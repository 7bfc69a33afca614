package config

import (
	"fmt"
	"time"

	"github.com/de-tools/sync-sentinel/pkg/models/domain"
	"github.com/de-tools/sync-sentinel/pkg/services/partition"
	"github.com/de-tools/sync-sentinel/pkg/services/severity"
	"github.com/spf13/viper"
)

const (
	PolicyDaily         = "daily"
	PolicyBusinessDaily = "business_daily"
)

type TableConfig struct {
	// Name is the monitored table, e.g. "hr.employees".
	Name string `mapstructure:"name"`
	// SourceProfile and LakeProfile name connection profiles in the registry.
	SourceProfile string `mapstructure:"source_profile"`
	LakeProfile   string `mapstructure:"lake_profile"`
}

type Config struct {
	WarningPct           float64       `mapstructure:"warning_pct"`
	CriticalPct          float64       `mapstructure:"critical_pct"`
	QualityCriticalFloor float64       `mapstructure:"quality_critical_floor"`
	PartitionPolicy      string        `mapstructure:"partition_policy"`
	PartitionWindowDays  int           `mapstructure:"partition_window_days"`
	StuckThresholdHours  float64       `mapstructure:"stuck_threshold_hours"`
	CheckInterval        time.Duration `mapstructure:"check_interval"`
	AuditDBPath          string        `mapstructure:"audit_db_path"`
	Tables               []TableConfig `mapstructure:"tables"`
}

// Load reads and validates the monitor configuration. Invalid configuration
// is fatal at startup, never a per-run error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("warning_pct", 1.0)
	v.SetDefault("critical_pct", 5.0)
	v.SetDefault("quality_critical_floor", 90.0)
	v.SetDefault("partition_policy", PolicyBusinessDaily)
	v.SetDefault("partition_window_days", 30)
	v.SetDefault("stuck_threshold_hours", 24.0)
	v.SetDefault("check_interval", 5*time.Minute)
	v.SetDefault("audit_db_path", "sync-sentinel.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse monitor config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if c.PartitionPolicy != PolicyDaily && c.PartitionPolicy != PolicyBusinessDaily {
		return fmt.Errorf("%w: unknown partition_policy %q", domain.ErrInvalidConfig, c.PartitionPolicy)
	}
	if c.PartitionWindowDays <= 0 {
		return fmt.Errorf("%w: partition_window_days must be positive", domain.ErrInvalidConfig)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("%w: at least one table is required", domain.ErrInvalidConfig)
	}
	for _, table := range c.Tables {
		if table.Name == "" {
			return fmt.Errorf("%w: table.name is required", domain.ErrInvalidConfig)
		}
		if table.SourceProfile == "" || table.LakeProfile == "" {
			return fmt.Errorf("%w: table %s must name source_profile and lake_profile",
				domain.ErrInvalidConfig, table.Name)
		}
	}
	return nil
}

func (c *Config) Thresholds() severity.Thresholds {
	return severity.Thresholds{
		WarningPct:           c.WarningPct,
		CriticalPct:          c.CriticalPct,
		QualityCriticalFloor: c.QualityCriticalFloor,
	}
}

func (c *Config) Policy() partition.Policy {
	if c.PartitionPolicy == PolicyDaily {
		return partition.Daily{Days: c.PartitionWindowDays}
	}
	return partition.BusinessDaily{Days: c.PartitionWindowDays}
}
