package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "strata.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "strata.yml"

// Default configuration values.
const (
	DefaultProjectFile  = "root.strata"
	DefaultBuildRoot    = "build"
	DefaultBuildVariant = "debug"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

func configFileIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a strata config
// file. Returns empty string if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configFileIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file >
// defaults. An absent config file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	projectRoot := ""
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("resolving config file path: %w", err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	} else if cwd, err := os.Getwd(); err == nil {
		if root := FindProjectRoot(cwd); root != "" {
			projectRoot = root
			cfgFile = configFileIn(root)
		} else {
			projectRoot = cwd
		}
	} else {
		projectRoot = "."
	}

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"project_file":  DefaultProjectFile,
		"build_root":    DefaultBuildRoot,
		"build_variant": DefaultBuildVariant,
		"verbose":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// STRATA_BUILD_ROOT -> build_root
	if err := k.Load(env.Provider("STRATA_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "STRATA_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI uses --variant for brevity.
			if key == "variant" {
				return "build_variant", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.ProjectFile = resolveRelativeTo(cfg.ProjectFile, projectRoot)
	cfg.BuildRoot = resolveRelativeTo(cfg.BuildRoot, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
