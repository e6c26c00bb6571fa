// Package config provides configuration management for netsync.
//
// Config file locations (priority order):
//  1. $NETSYNC_CONFIG
//  2. ./netsync.yaml
//  3. ~/.config/netsync/config.yaml
//  4. /etc/netsync/config.yaml
//
// Scalar settings can be overridden from the environment (NETSYNC_ prefix)
// or command line flags through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultTopLevelName is the controller's root site container
const DefaultTopLevelName = "Global"

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes YAML config bytes and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = "netsync"
	}
	if c.Load.TopLevelName == "" {
		c.Load.TopLevelName = DefaultTopLevelName
	}
	if c.Export.Format == "" {
		c.Export.Format = "json"
	}
}

// overridable lists the keys viper may override from env or flags
var overridable = []string{
	"logger.level",
	"logger.format",
	"logger.log_file",
	"source.path",
	"database.path",
	"export.path",
	"export.format",
	"export.compress",
	"metrics.textfile_path",
	"load.import_global",
	"load.import_meraki",
	"load.show_failures",
	"load.debug",
	"load.tenant",
	"load.controller_group",
}

// ApplyOverrides copies every overridable key set in v onto the config.
// Map and list settings (hostname_map, location_map) are file-only since
// viper folds map keys to lower case.
func (c *Config) ApplyOverrides(v *viper.Viper) {
	if v == nil {
		return
	}
	for _, key := range overridable {
		if !v.IsSet(key) {
			continue
		}
		switch key {
		case "logger.level":
			c.Logger.Level = v.GetString(key)
		case "logger.format":
			c.Logger.Format = v.GetString(key)
		case "logger.log_file":
			c.Logger.LogFile = v.GetString(key)
		case "source.path":
			c.Source.Path = v.GetString(key)
		case "database.path":
			c.Database.Path = v.GetString(key)
		case "export.path":
			c.Export.Path = v.GetString(key)
		case "export.format":
			c.Export.Format = v.GetString(key)
		case "export.compress":
			c.Export.Compress = v.GetBool(key)
		case "metrics.textfile_path":
			c.Metrics.TextfilePath = v.GetString(key)
		case "load.import_global":
			c.Load.ImportGlobal = v.GetBool(key)
		case "load.import_meraki":
			c.Load.ImportMeraki = v.GetBool(key)
		case "load.show_failures":
			c.Load.ShowFailures = v.GetBool(key)
		case "load.debug":
			c.Load.Debug = v.GetBool(key)
		case "load.tenant":
			c.Load.Tenant = v.GetString(key)
		case "load.controller_group":
			c.Load.ControllerGroup = v.GetString(key)
		}
	}
	c.applyDefaults()
}

// Validate checks field constraints and compiles the hostname rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", e.Namespace(), e.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	for i, rule := range c.Load.HostnameMap {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("invalid config: hostname_map[%d] pattern %q: %w", i, rule.Pattern, err)
		}
	}
	return nil
}
