// Package config loads project configuration for the strata CLI and any
// tools that need to locate a project and its build directory.
package config

import "fmt"

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory the configuration was anchored at.
	// Derived while loading, never read from the file itself.
	ProjectRoot string `koanf:"-"`

	// ProjectFile is the top-level build definition file.
	ProjectFile string `koanf:"project_file"`

	// BuildRoot is the directory build configurations live under. Each
	// configuration gets its own subdirectory named after its id.
	BuildRoot string `koanf:"build_root"`

	Profile      string `koanf:"profile"`
	BuildVariant string `koanf:"build_variant"`
	Verbose      bool   `koanf:"verbose"`

	// Properties are free-form overrides merged into the build
	// configuration, e.g. module property presets.
	Properties map[string]any `koanf:"properties"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BuildRoot == "" {
		return fmt.Errorf("build_root is required")
	}
	if c.BuildVariant == "" {
		return fmt.Errorf("build_variant is required")
	}
	return nil
}

// BuildConfiguration assembles the configuration map a build graph is
// keyed by. The strata-owned settings live under the "strata" key; user
// properties sit beside it.
func (c *Config) BuildConfiguration() map[string]any {
	cfg := map[string]any{
		"strata": map[string]any{
			"profile":      c.Profile,
			"buildVariant": c.BuildVariant,
		},
	}
	for k, v := range c.Properties {
		if k == "strata" {
			continue
		}
		cfg[k] = v
	}
	return cfg
}
