package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the contents of config.toml.
type Config struct {
	// Partitions are the roots build-all patches, relative to "/"
	Partitions []string `toml:"partitions"`

	// ModulesDir overrides Paths.Modules
	ModulesDir string `toml:"modules_dir"`

	// UpperDir and WorkDir make every root overlay writable when both exist
	UpperDir string `toml:"upper_dir"`
	WorkDir  string `toml:"work_dir"`

	// SourceName is the source string shown for overlay mounts
	SourceName string `toml:"source_name"`

	// LogLevel is a logrus level name
	LogLevel string `toml:"log_level"`
}

// DefaultPartitions are patched by build-all when the config names none.
var DefaultPartitions = []string{"system", "vendor", "product", "system_ext", "odm"}

// Default returns the configuration used when no config file exists.
func Default(paths *Paths) *Config {
	return &Config{
		Partitions: append([]string(nil), DefaultPartitions...),
		ModulesDir: paths.Modules,
		SourceName: "modoverlay",
		LogLevel:   "info",
	}
}

// Load reads paths.Config over the defaults. A missing file yields the
// defaults. MODOVERLAY_LOG_LEVEL overrides the file's log level.
func Load(paths *Paths) (*Config, error) {
	cfg := Default(paths)

	meta, err := toml.DecodeFile(paths.Config, cfg)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", paths.Config, err)
	}
	if err == nil {
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), paths.Config)
		}
	}

	if lvl := os.Getenv("MODOVERLAY_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if len(cfg.Partitions) == 0 {
		cfg.Partitions = append([]string(nil), DefaultPartitions...)
	}
	return cfg, nil
}
