// Package config provides configuration types and helpers for chlog.
package config

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/chlog/internal/changelog"
	"github.com/bimmerbailey/chlog/internal/classify"
	"github.com/spf13/viper"
)

// Config holds the application-wide configuration.
type Config struct {
	File     string        `mapstructure:"file"`
	Fallback string        `mapstructure:"fallback"`
	Format   string        `mapstructure:"format"`
	Verbose  bool          `mapstructure:"verbose"`
	LogFile  string        `mapstructure:"log_file"`
	Patterns PatternConfig `mapstructure:"patterns"`
}

// PatternConfig selects the change-line patterns.
type PatternConfig struct {
	// Built-in pattern names.
	// Available: conventional_user, conventional_internal, merge, chore
	UserFacing []string `mapstructure:"user_facing"`
	Internal   []string `mapstructure:"internal"`

	// Additional raw regular expressions matched against the whole line.
	ExtraUserFacing []string `mapstructure:"extra_user_facing"`
	ExtraInternal   []string `mapstructure:"extra_internal"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("file", changelog.DefaultPath)
	v.SetDefault("fallback", changelog.DefaultFallback)
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("patterns.user_facing", classify.DefaultUserFacing())
	v.SetDefault("patterns.internal", classify.DefaultInternal())
	v.SetDefault("patterns.extra_user_facing", []string{})
	v.SetDefault("patterns.extra_internal", []string{})
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by decoding alone.
func (c Config) Validate() error {
	if strings.TrimSpace(c.File) == "" {
		return fmt.Errorf("file must not be empty")
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (want text or json)", c.Format)
	}
	if !strings.HasPrefix(c.Fallback, "- ") {
		return fmt.Errorf("fallback %q must be a bullet line starting with \"- \"", c.Fallback)
	}
	if _, err := classify.New(c.ClassifierOptions()); err != nil {
		return err
	}
	return nil
}

// ClassifierOptions converts the pattern configuration for classify.New.
func (c Config) ClassifierOptions() classify.Options {
	return classify.Options{
		UserFacing:      c.Patterns.UserFacing,
		Internal:        c.Patterns.Internal,
		ExtraUserFacing: c.Patterns.ExtraUserFacing,
		ExtraInternal:   c.Patterns.ExtraInternal,
	}
}
