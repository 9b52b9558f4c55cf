// Package config binds the viper-resolved configuration surface (an
// optional YAML file, env vars prefixed RECON_, and flags, in ascending
// precedence) into the typed configs internal/reconciler and
// internal/matcher expect, generalising the donor's bank-profile
// configuration builders into the cycle-based domain's tunables.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"upi-recon-engine/internal/matcher"
	"upi-recon-engine/internal/reconciler"
)

// Keys are the viper keys read by this package, matching the
// configuration surface.
const (
	KeyUploadDir              = "upload_dir"
	KeyOutputDir              = "output_dir"
	KeyAmountEpsilon          = "amount_epsilon"
	KeyDateToleranceDays      = "date_tolerance_days"
	KeyCutOffHour             = "cut_off_hour"
	KeyCutOffMinute           = "cut_off_minute"
	KeyMaxAuditEntriesPerFile = "max_audit_entries_per_file"
	KeyRollbackLockTimeoutMs  = "rollback_lock_timeout_ms"
	KeySourceSystem           = "source_system"
)

// SetDefaults installs the default values for every key this package
// reads, so a config file or env var only needs to override what differs.
func SetDefaults() {
	def := matcher.DefaultConfig()
	viper.SetDefault(KeyAmountEpsilon, def.AmountTolerance)
	viper.SetDefault(KeyDateToleranceDays, def.DateToleranceDays)
	viper.SetDefault(KeyCutOffHour, def.CutOffHour)
	viper.SetDefault(KeyCutOffMinute, def.CutOffMinute)
	viper.SetDefault(KeyMaxAuditEntriesPerFile, 10000)
	viper.SetDefault(KeyRollbackLockTimeoutMs, 30000)
	viper.SetDefault(KeySourceSystem, "reconciler")
	viper.SetDefault(KeyOutputDir, "./output")
	viper.SetDefault(KeyUploadDir, "./uploads")
}

// CreateMatchingConfig builds a matcher.Config from the resolved viper
// values, applying the same CLI-override pattern as the donor's
// CreateMatchingConfig (take the package default, then apply whichever
// tunables the operator set).
func CreateMatchingConfig() *matcher.Config {
	cfg := matcher.DefaultConfig()
	cfg.AmountTolerance = viper.GetFloat64(KeyAmountEpsilon)
	cfg.DateToleranceDays = viper.GetInt(KeyDateToleranceDays)
	cfg.CutOffHour = viper.GetInt(KeyCutOffHour)
	cfg.CutOffMinute = viper.GetInt(KeyCutOffMinute)
	return cfg
}

// CreateReconcilerConfig builds an internal/reconciler.Config from the
// resolved viper values.
func CreateReconcilerConfig() *reconciler.Config {
	return &reconciler.Config{
		OutputRoot:             viper.GetString(KeyOutputDir),
		SourceSystem:           viper.GetString(KeySourceSystem),
		MaxAuditEntriesPerFile: viper.GetInt(KeyMaxAuditEntriesPerFile),
	}
}

// UploadDir returns the configured upload directory, where the CLI
// expects to find files named by the NPCI/DRC filename conventions.
func UploadDir() string {
	return viper.GetString(KeyUploadDir)
}

// RollbackLockTimeoutMs returns the configured lock-wait timeout in
// milliseconds for rollback subcommands.
func RollbackLockTimeoutMs() int {
	return viper.GetInt(KeyRollbackLockTimeoutMs)
}

// Validate checks the resolved configuration is internally consistent
// before a cycle runs.
func Validate(matchCfg *matcher.Config, reconCfg *reconciler.Config) error {
	if err := matchCfg.Validate(); err != nil {
		return fmt.Errorf("invalid matching config: %w", err)
	}
	if err := reconCfg.Validate(); err != nil {
		return fmt.Errorf("invalid reconciler config: %w", err)
	}
	return nil
}
