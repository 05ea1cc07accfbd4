package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix selects environment variables that override file settings.
// Nested keys use a double underscore: CARGOWRAP_INSTALLER__COMMAND.
const EnvPrefix = "CARGOWRAP_"

// Config is the on-disk cargowrap.yaml.
type Config struct {
	Version int `koanf:"version" yaml:"version"`
	// Crate is the directory holding Cargo.toml, relative to the config file.
	Crate     string          `koanf:"crate" yaml:"crate,omitempty"`
	Installer InstallerConfig `koanf:"installer" yaml:"installer"`
	// AutoInstall installs missing toolchains before build, test and run.
	AutoInstall bool `koanf:"auto_install" yaml:"auto_install"`
	// InheritEnv seeds the global environment from the calling process.
	InheritEnv   bool              `koanf:"inherit_env" yaml:"inherit_env"`
	Env          map[string]string `koanf:"env" yaml:"env,omitempty"`
	OutputDir    string            `koanf:"output_dir" yaml:"output_dir,omitempty"`
	HostBuildDir string            `koanf:"host_build_dir" yaml:"host_build_dir,omitempty"`
	// Args holds per-action argument templates shared by all targets.
	Args        map[string]string `koanf:"args" yaml:"args,omitempty"`
	Targets     []TargetConfig    `koanf:"targets" yaml:"targets"`
	TargetFiles []string          `koanf:"target_files" yaml:"target_files,omitempty"`
}

type InstallerConfig struct {
	Command        string   `koanf:"command" yaml:"command"`
	ListArgs       []string `koanf:"list_args" yaml:"list_args,omitempty"`
	AddArgs        []string `koanf:"add_args" yaml:"add_args,omitempty"`
	MinimumVersion string   `koanf:"minimum_version" yaml:"minimum_version,omitempty"`
}

// TargetConfig declares one platform target.
type TargetConfig struct {
	Target  string `koanf:"target" yaml:"target"`
	Command string `koanf:"command" yaml:"command"`
	// Kind is "toolchain" or "wrapper". When empty it is inferred from Command.
	Kind string            `koanf:"kind" yaml:"kind,omitempty"`
	Env  map[string]string `koanf:"env" yaml:"env,omitempty"`
	// Args maps an action to an argument template such as
	// "build --release --target $TARGET".
	Args map[string]string `koanf:"args" yaml:"args,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Installer: InstallerConfig{
			Command:  "rustup",
			ListArgs: []string{"target", "list", "--installed"},
			AddArgs:  []string{"target", "add"},
		},
		AutoInstall:  true,
		InheritEnv:   true,
		OutputDir:    "target",
		HostBuildDir: "build",
	}
}

func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"version":             d.Version,
		"crate":               ".",
		"installer.command":   d.Installer.Command,
		"installer.list_args": d.Installer.ListArgs,
		"installer.add_args":  d.Installer.AddArgs,
		"auto_install":        d.AutoInstall,
		"inherit_env":         d.InheritEnv,
		"output_dir":          d.OutputDir,
		"host_build_dir":      d.HostBuildDir,
	}
}

// Load reads the configuration, layering (lowest to highest) defaults, the
// YAML file at path, CARGOWRAP_* environment variables and explicitly set
// flags. A missing file yields the defaults. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, eris.Wrap(err, "load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, eris.Wrapf(err, "read config %s", path)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, eris.Wrapf(err, "stat config %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, eris.Wrap(err, "load environment overrides")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, eris.Wrap(err, "load flag overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, eris.Wrap(err, "decode config")
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// flagKeys maps CLI flags onto configuration keys.
var flagKeys = map[string]string{
	"auto-install": "auto_install",
	"installer":    "installer.command",
	"inherit-env":  "inherit_env",
}

// envKey turns CARGOWRAP_INSTALLER__COMMAND into installer.command.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// ApplyDefaults fills fields the YAML left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.Crate) == "" {
		c.Crate = "."
	}
	if strings.TrimSpace(c.Installer.Command) == "" {
		c.Installer.Command = defaults.Installer.Command
	}
	if len(c.Installer.ListArgs) == 0 {
		c.Installer.ListArgs = defaults.Installer.ListArgs
	}
	if len(c.Installer.AddArgs) == 0 {
		c.Installer.AddArgs = defaults.Installer.AddArgs
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.HostBuildDir == "" {
		c.HostBuildDir = defaults.HostBuildDir
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yamlv3.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
