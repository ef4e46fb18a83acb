package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Lifecycle LifecycleConfig
	Schedule  ScheduleConfig
	Documents DocumentConfig
	Formance  FormanceConfig
	Redis     RedisConfig
	Ops       OpsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// LifecycleConfig holds the temporal business rules
type LifecycleConfig struct {
	StatusCatalogFile        string
	NewAssetGrace            time.Duration
	DefectiveRetentionMonths int
	RepairDueSoonWindow      time.Duration
	AssetCodePrefix          string
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ScheduleConfig holds the fixed job times and the catch-up window
type ScheduleConfig struct {
	Location       *time.Location
	BookValueTimes []TimeOfDay
	StatusTimes    []TimeOfDay
	PurgeTimes     []TimeOfDay
	CatchupStart   TimeOfDay
	CatchupEnd     TimeOfDay
	RunTimeout     time.Duration
}

// DocumentConfig selects where repair job orders are kept
type DocumentConfig struct {
	Backend         string // "local" or "gcs"
	Dir             string
	Bucket          string
	CredentialsJSON string
	MaxBytes        int64
}

// FormanceConfig enables the depreciation journal when StackURL is set
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	Currency     string
}

// Enabled reports whether the journal is configured.
func (c FormanceConfig) Enabled() bool { return c.StackURL != "" }

// RedisConfig enables the cross-process run lock when Address is set
type RedisConfig struct {
	Address string
	LockTTL time.Duration
}

// OpsConfig holds the ops HTTP server settings
type OpsConfig struct {
	Addr string
}
