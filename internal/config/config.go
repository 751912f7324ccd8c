// Package config is used to load the configuration file
package config

import (
	"fmt"
	"time"

	"github.com/otawalk/otawalk/internal/db"
	"github.com/otawalk/otawalk/internal/ota"
	"github.com/otawalk/otawalk/internal/updater"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ModeManual is the updater's manual check mode.
const ModeManual = "manual"

type updaterConf struct {
	Path    string        `mapstructure:"path" yaml:"path"`
	Region  string        `mapstructure:"region" yaml:"region"`
	Mode    string        `mapstructure:"mode" yaml:"mode"`
	Proxy   string        `mapstructure:"proxy" yaml:"proxy,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type normalizeConf struct {
	Prefer        string   `mapstructure:"prefer" yaml:"prefer"`
	OTAFields     []string `mapstructure:"ota-fields" yaml:"ota-fields,omitempty"`
	OSFields      []string `mapstructure:"os-fields" yaml:"os-fields,omitempty"`
	AndroidFields []string `mapstructure:"android-fields" yaml:"android-fields,omitempty"`
	PatchFields   []string `mapstructure:"patch-fields" yaml:"patch-fields,omitempty"`
}

// Config is the configuration struct
type Config struct {
	ModelsDir string        `mapstructure:"models-dir" yaml:"models-dir"`
	LinksDir  string        `mapstructure:"links-dir" yaml:"links-dir"`
	Updater   updaterConf   `mapstructure:"updater" yaml:"updater"`
	Normalize normalizeConf `mapstructure:"normalize" yaml:"normalize"`
	Database  db.Config     `mapstructure:"database" yaml:"database,omitempty"`
}

// SetDefaults registers the default values with viper.
func SetDefaults(v *viper.Viper) {
	def := ota.DefaultPolicy()
	v.SetDefault("models-dir", "models")
	v.SetDefault("links-dir", "links")
	v.SetDefault("updater.path", "./updater")
	v.SetDefault("updater.region", "CN")
	v.SetDefault("updater.mode", ModeManual)
	v.SetDefault("updater.timeout", updater.DefaultTimeout)
	v.SetDefault("normalize.prefer", def.PreferredComponent)
	v.SetDefault("normalize.ota-fields", []string(def.OTAFields))
	v.SetDefault("normalize.os-fields", []string(def.OSVersionFields))
	v.SetDefault("normalize.android-fields", []string(def.AndroidFields))
	v.SetDefault("normalize.patch-fields", []string(def.SecurityPatchFields))
}

func (c *Config) verify() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models-dir must be set")
	}
	if c.LinksDir == "" {
		return fmt.Errorf("links-dir must be set")
	}
	if c.Updater.Path == "" {
		return fmt.Errorf("updater.path must be set")
	}
	if c.Updater.Region == "" {
		return fmt.Errorf("updater.region must be set")
	}
	if c.Updater.Mode != ModeManual {
		if _, err := cast.ToIntE(c.Updater.Mode); err != nil {
			return fmt.Errorf("updater.mode must be %q or a number, got %q", ModeManual, c.Updater.Mode)
		}
	}
	if c.Updater.Timeout <= 0 {
		c.Updater.Timeout = updater.DefaultTimeout
	}
	if c.Database.Enabled() {
		switch c.Database.Driver {
		case "memory", "sqlite", "postgres":
		default:
			return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
		}
	}
	return nil
}

// Policy returns the normalization policy described by the config.
func (c *Config) Policy() *ota.Policy {
	p := ota.DefaultPolicy()
	p.PreferredComponent = c.Normalize.Prefer
	if len(c.Normalize.OTAFields) > 0 {
		p.OTAFields = c.Normalize.OTAFields
	}
	if len(c.Normalize.OSFields) > 0 {
		p.OSVersionFields = c.Normalize.OSFields
	}
	if len(c.Normalize.AndroidFields) > 0 {
		p.AndroidFields = c.Normalize.AndroidFields
	}
	if len(c.Normalize.PatchFields) > 0 {
		p.SecurityPatchFields = c.Normalize.PatchFields
	}
	return p
}

// Source returns the updater invocation described by the config.
func (c *Config) Source() *updater.Exec {
	return &updater.Exec{
		Path:    c.Updater.Path,
		Region:  c.Updater.Region,
		Mode:    c.Updater.Mode,
		Proxy:   c.Updater.Proxy,
		Timeout: c.Updater.Timeout,
	}
}

// LoadConfig loads the configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load loads the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	var c *Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}
	if c == nil {
		c = &Config{}
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return c, nil
}
