// Package config is the server's runtime configuration surface, grounded
// on cfg/validate.go and cmd/root.go (teacher): a struct unmarshalled by
// spf13/viper (with mitchellh/mapstructure doing the decode), validated
// once at startup by the Validate function, and bound to spf13/cobra
// flags in cmd/.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/userlandfs/server/internal/fscap"
	"github.com/userlandfs/server/internal/logger"
)

// Config is the fully resolved server configuration, per spec.md §6's CLI
// surface plus the ambient knobs SPEC_FULL.md §10 adds.
type Config struct {
	DriverName string `mapstructure:"driver-name"`
	Port       int    `mapstructure:"port"`
	Debug      bool   `mapstructure:"debug"`

	PriorityWorkers uint32 `mapstructure:"priority-workers"`
	NormalWorkers   uint32 `mapstructure:"normal-workers"`
	PortCapacity    int32  `mapstructure:"port-capacity"`

	BlockCache BlockCacheConfig `mapstructure:"block-cache"`

	Dialect        string `mapstructure:"dialect"`
	AttrOpenPolicy string `mapstructure:"attr-open-policy"`

	Logging LoggingConfig `mapstructure:"logging"`

	DispatcherRegistrationTTL time.Duration `mapstructure:"dispatcher-registration-ttl"`
}

// BlockCacheConfig mirrors blockcache.Config's fields, decoupled so
// internal/blockcache never needs to import internal/config.
type BlockCacheConfig struct {
	MaxBlocks          int `mapstructure:"max-blocks"`
	MaxBlocksPerDevice int `mapstructure:"max-blocks-per-device"`
	ReadAheadBytes     int `mapstructure:"read-ahead-bytes"`

	// IOThrottleHz bounds the backend device I/O rate the cache's
	// flush and read-ahead paths may issue, in bytes/second. Zero
	// disables throttling.
	IOThrottleHz float64 `mapstructure:"io-throttle-hz"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	FilePath        string                 `mapstructure:"file-path"`
	Severity        string                 `mapstructure:"severity"`
	Format          string                 `mapstructure:"format"`
	LogRotateConfig logger.LogRotateConfig `mapstructure:"log-rotate"`
}

// Default returns the configuration used when no flags or config file
// override a field, matching spec.md §9's documented defaults.
func Default() Config {
	return Config{
		PriorityWorkers: 2,
		NormalWorkers:   8,
		PortCapacity:    4096,
		BlockCache: BlockCacheConfig{
			MaxBlocks:          4096,
			MaxBlocksPerDevice: 1024,
			ReadAheadBytes:     32 * 1024,
		},
		Dialect:        "current",
		AttrOpenPolicy: "create-on-open",
		Logging: LoggingConfig{
			Severity:        logger.Info,
			Format:          "json",
			LogRotateConfig: logger.DefaultLogRotateConfig(),
		},
		DispatcherRegistrationTTL: 30 * time.Second,
	}
}

// BindFlags registers the server's flags on fs, mirroring cfg.BindFlags's
// flag-per-field pattern but scaled to spec.md §6's small surface.
func BindFlags(fs *pflag.FlagSet) error {
	d := Default()
	fs.Bool("debug", d.Debug, "log a notice after startup; no debugger is entered and serving continues")
	fs.Uint32("priority-workers", d.PriorityWorkers, "worker count servicing mount/unmount/sync")
	fs.Uint32("normal-workers", d.NormalWorkers, "worker count servicing file I/O")
	fs.Int32("port-capacity", d.PortCapacity, "port capacity in bytes; validated only, worker ports always use the 4096-byte default")
	fs.Int("block-cache.max-blocks", d.BlockCache.MaxBlocks, "process-wide block cache capacity")
	fs.Int("block-cache.max-blocks-per-device", d.BlockCache.MaxBlocksPerDevice, "per-device block cache capacity")
	fs.Int("block-cache.read-ahead-bytes", d.BlockCache.ReadAheadBytes, "read-ahead window in bytes")
	fs.Float64("block-cache.io-throttle-hz", d.BlockCache.IOThrottleHz, "bytes/second bound on flush and read-ahead backend I/O; 0 disables throttling")
	fs.String("dialect", d.Dialect, "kernel calling convention: legacy or current")
	fs.String("attr-open-policy", d.AttrOpenPolicy, "attribute-open emulation: create-on-open or create-on-first-write")
	fs.String("logging.file-path", d.Logging.FilePath, "log file path; empty logs to stderr")
	fs.String("logging.severity", d.Logging.Severity, "log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF")
	fs.String("logging.format", d.Logging.Format, "log format: text or json")
	fs.Duration("dispatcher-registration-ttl", d.DispatcherRegistrationTTL, "dispatcher registration heartbeat TTL")
	return viper.BindPFlags(fs)
}

// Load unmarshals viper's bound state into a Config, using mapstructure
// directly (rather than viper.Unmarshal's defaults) so the time.Duration
// decode hook is explicit, matching cfg/decode_hook.go's approach of
// naming every non-trivial decode hook rather than relying on viper's
// implicit ones.
func Load() (Config, error) {
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate reports a non-nil error if cfg cannot be used to start a
// server, matching cfg.ValidateConfig's "one function, every field"
// shape.
func Validate(cfg Config) error {
	if cfg.DriverName == "" {
		return fmt.Errorf("driver-name is required")
	}
	if cfg.PriorityWorkers == 0 && cfg.NormalWorkers == 0 {
		return fmt.Errorf("at least one of priority-workers or normal-workers must be non-zero")
	}
	if cfg.PortCapacity <= 0 {
		return fmt.Errorf("port-capacity must be positive")
	}
	if cfg.BlockCache.MaxBlocks <= 0 {
		return fmt.Errorf("block-cache.max-blocks must be positive")
	}
	if err := dialectOf(cfg.Dialect); err != nil {
		return err
	}
	if cfg.AttrOpenPolicy != "create-on-open" && cfg.AttrOpenPolicy != "create-on-first-write" {
		return fmt.Errorf("attr-open-policy must be create-on-open or create-on-first-write, got %q", cfg.AttrOpenPolicy)
	}
	if cfg.Logging.LogRotateConfig.MaxFileSizeMB <= 0 {
		return fmt.Errorf("logging.log-rotate.max-file-size-mb should be at least 1")
	}
	if cfg.Logging.LogRotateConfig.BackupFileCount < 0 {
		return fmt.Errorf("logging.log-rotate.backup-file-count should be 0 or positive")
	}
	if cfg.DispatcherRegistrationTTL <= 0 {
		return fmt.Errorf("dispatcher-registration-ttl must be positive")
	}
	return nil
}

func dialectOf(s string) error {
	switch s {
	case "legacy", "current":
		return nil
	default:
		return fmt.Errorf("dialect must be legacy or current, got %q", s)
	}
}

// FscapDialect resolves the validated Dialect string to an fscap.Dialect.
func (c Config) FscapDialect() fscap.Dialect {
	if c.Dialect == "legacy" {
		return fscap.DialectLegacy
	}
	return fscap.DialectCurrent
}
