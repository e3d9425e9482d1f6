package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/userlandfs/server/internal/fscap"
)

func validConfig() Config {
	c := Default()
	c.DriverName = "example-fs"
	c.Logging.LogRotateConfig.MaxFileSizeMB = 1
	return c
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"missing driver name", func(c *Config) { c.DriverName = "" }, true},
		{"no workers at all", func(c *Config) { c.PriorityWorkers, c.NormalWorkers = 0, 0 }, true},
		{"only priority workers", func(c *Config) { c.NormalWorkers = 0 }, false},
		{"zero port capacity", func(c *Config) { c.PortCapacity = 0 }, true},
		{"zero max blocks", func(c *Config) { c.BlockCache.MaxBlocks = 0 }, true},
		{"bad dialect", func(c *Config) { c.Dialect = "beos98" }, true},
		{"bad attr policy", func(c *Config) { c.AttrOpenPolicy = "whenever" }, true},
		{"bad log rotate size", func(c *Config) { c.Logging.LogRotateConfig.MaxFileSizeMB = 0 }, true},
		{"negative backup count", func(c *Config) { c.Logging.LogRotateConfig.BackupFileCount = -1 }, true},
		{"zero registration ttl", func(c *Config) { c.DispatcherRegistrationTTL = 0 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFscapDialect(t *testing.T) {
	c := validConfig()
	c.Dialect = "legacy"
	assert.Equal(t, fscap.DialectLegacy, c.FscapDialect())

	c.Dialect = "current"
	assert.Equal(t, fscap.DialectCurrent, c.FscapDialect())
}
