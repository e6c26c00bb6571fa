package config

import "netsync/internal/domain"

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	Logger   LoggerConfig   `yaml:"logger" mapstructure:"logger"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Load     LoadConfig     `yaml:"load" mapstructure:"load"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// LoggerConfig holds logging settings
type LoggerConfig struct {
	Level       string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format      string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	LogFile     string `yaml:"log_file,omitempty" mapstructure:"log_file"`
	MaxSize     int    `yaml:"max_size,omitempty" mapstructure:"max_size" validate:"min=0"`
	MaxBackups  int    `yaml:"max_backups,omitempty" mapstructure:"max_backups" validate:"min=0"`
	MaxAge      int    `yaml:"max_age,omitempty" mapstructure:"max_age" validate:"min=0"`
	Compress    bool   `yaml:"compress,omitempty" mapstructure:"compress"`
}

// SourceConfig points at the controller inventory to load
type SourceConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // controller dump, YAML or JSON
}

// LoadConfig is the per-deployment load policy handed to the adapter
type LoadConfig struct {
	ImportGlobal    bool                        `yaml:"import_global" mapstructure:"import_global"`
	TopLevelName    string                      `yaml:"top_level_name" mapstructure:"top_level_name" validate:"required"`
	ImportMeraki    bool                        `yaml:"import_meraki" mapstructure:"import_meraki"`
	ShowFailures    bool                        `yaml:"show_failures" mapstructure:"show_failures"`
	Debug           bool                        `yaml:"debug" mapstructure:"debug"`
	HostnameMap     []RoleRule                  `yaml:"hostname_map,omitempty" mapstructure:"hostname_map" validate:"dive"`
	LocationMap     map[string]LocationOverride `yaml:"location_map,omitempty" mapstructure:"location_map"`
	Tenant          string                      `yaml:"tenant,omitempty" mapstructure:"tenant"`
	ControllerGroup string                      `yaml:"controller_group,omitempty" mapstructure:"controller_group"`
	Controller      *ControllerLocation         `yaml:"controller,omitempty" mapstructure:"controller"`
}

// RoleRule assigns Role to devices whose hostname matches Pattern
type RoleRule struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern" validate:"required"`
	Role    string `yaml:"role" mapstructure:"role" validate:"required"`
}

// LocationOverride replaces discovered values for a named location.
// Empty fields leave the discovered value in place.
type LocationOverride struct {
	Name       string `yaml:"name,omitempty" mapstructure:"name"`
	Parent     string `yaml:"parent,omitempty" mapstructure:"parent"`
	AreaParent string `yaml:"area_parent,omitempty" mapstructure:"area_parent"`
}

// ControllerLocation is where the controller itself is installed
type ControllerLocation struct {
	Area       string `yaml:"area,omitempty" mapstructure:"area"`
	AreaParent string `yaml:"area_parent,omitempty" mapstructure:"area_parent"`
	Building   string `yaml:"building,omitempty" mapstructure:"building"`
	Floor      string `yaml:"floor,omitempty" mapstructure:"floor"` // full floor name, e.g. "hkg - 1"
	Address    string `yaml:"address,omitempty" mapstructure:"address"`
	Latitude   string `yaml:"latitude,omitempty" mapstructure:"latitude"`
	Longitude  string `yaml:"longitude,omitempty" mapstructure:"longitude"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty disables persistence
}

// ExportConfig controls writing the loaded snapshot to disk
type ExportConfig struct {
	Path     string `yaml:"path,omitempty" mapstructure:"path"`
	Format   string `yaml:"format" mapstructure:"format" validate:"oneof=json yaml"`
	Compress bool   `yaml:"compress,omitempty" mapstructure:"compress"`
}

// MetricsConfig controls run metrics output
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty" mapstructure:"textfile_path"`
}

// Namespace returns the address namespace for the run
func (l LoadConfig) Namespace() string {
	if l.Tenant != "" {
		return l.Tenant
	}
	return domain.DefaultNamespace
}

// Override returns the location override for name, if any
func (l LoadConfig) Override(name string) (LocationOverride, bool) {
	o, ok := l.LocationMap[name]
	return o, ok
}
