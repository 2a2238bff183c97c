package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/revlauncher/internal/config/loader"
	"github.com/dshills/revlauncher/internal/logging"
	"github.com/dshills/revlauncher/internal/settings/java"
)

// AppName names the per-user configuration directory.
const AppName = "rev-launcher"

// FileBaseName is the config file name without extension.
const FileBaseName = "revlauncher"

// Configuration keys.
const (
	KeyConfigDir        = "paths.configDir"
	KeyLogLevel         = "logging.level"
	KeyJavaCommand      = "java.command"
	KeyJavaProbeTimeout = "java.probeTimeout"
)

// Keys lists every recognized configuration key.
var Keys = []string{KeyConfigDir, KeyLogLevel, KeyJavaCommand, KeyJavaProbeTimeout}

// Config is the launcher's resolved configuration.
type Config struct {
	Paths   PathsConfig
	Logging LoggingConfig
	Java    JavaConfig

	// File is the config file that was read, if any.
	File string

	sources map[string]Source
}

// PathsConfig locates persisted state.
type PathsConfig struct {
	// ConfigDir holds the global settings file and the scope manifest.
	ConfigDir string
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string
}

// JavaConfig configures Java detection.
type JavaConfig struct {
	Command      string
	ProbeTimeout time.Duration
}

// Source reports which layer supplied key.
func (c *Config) Source(key string) Source {
	return c.sources[key]
}

// Values returns the resolved configuration as a nested map.
func (c *Config) Values() map[string]any {
	values := make(map[string]any)
	loader.SetPath(values, KeyConfigDir, c.Paths.ConfigDir)
	loader.SetPath(values, KeyLogLevel, c.Logging.Level)
	loader.SetPath(values, KeyJavaCommand, c.Java.Command)
	loader.SetPath(values, KeyJavaProbeTimeout, c.Java.ProbeTimeout.String())
	return values
}

// Detector returns a Java detector configured from c.
func (c *Config) Detector() *java.Detector {
	return &java.Detector{
		Command:    c.Java.Command,
		Timeout:    c.Java.ProbeTimeout,
		LegacyFile: filepath.Join(c.Paths.ConfigDir, java.LegacyFileName),
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs            loader.FileSystem
	env           loader.Loader
	flags         map[string]any
	userConfigDir func() (string, error)
}

// WithFS sets the file system the config file is read from.
func WithFS(fs loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEnv replaces the environment loader.
func WithEnv(l loader.Loader) Option {
	return func(o *options) {
		o.env = l
	}
}

// WithFlags supplies flag values keyed by configuration key. They take
// precedence over every other source.
func WithFlags(flags map[string]any) Option {
	return func(o *options) {
		for k, v := range flags {
			o.flags[k] = v
		}
	}
}

// WithUserConfigDir overrides how the per-user base directory is found.
func WithUserConfigDir(fn func() (string, error)) Option {
	return func(o *options) {
		o.userConfigDir = fn
	}
}

// Load resolves the configuration from defaults, the config file,
// environment variables and flags.
func Load(opts ...Option) (*Config, error) {
	o := options{
		fs:            loader.DefaultFS(),
		env:           loader.NewEnvLoader(loader.DefaultEnvPrefix),
		flags:         make(map[string]any),
		userConfigDir: os.UserConfigDir,
	}
	for _, opt := range opts {
		opt(&o)
	}

	env, err := o.env.Load()
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	flags := make(map[string]any)
	for k, v := range o.flags {
		loader.SetPath(flags, k, v)
	}

	defaults := layer{source: SourceDefault, data: defaultConfig(o.userConfigDir)}
	envLayer := layer{source: SourceEnv, data: env}
	flagLayer := layer{source: SourceFlag, data: flags}

	// the config file lives in the config dir, so resolve it first
	early, earlySources := mergeLayers([]layer{defaults, envLayer, flagLayer})
	configDir, err := getString(early, KeyConfigDir)
	if err != nil {
		return nil, attribute(err, earlySources)
	}
	configDir = expandHome(configDir)

	layers := []layer{defaults}
	var file string
	if fl := loader.FirstExisting(o.fs, candidates(configDir)...); fl != nil {
		data, err := fl.Load()
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		file = fl.Path()
		layers = append(layers, layer{source: SourceFile, data: data})
	}
	layers = append(layers, envLayer, flagLayer)

	merged, sources := mergeLayers(layers)
	sources[KeyConfigDir] = earlySources[KeyConfigDir]

	cfg := &Config{
		Paths: PathsConfig{ConfigDir: configDir},
		File:  file,
	}
	if cfg.Logging.Level, err = getString(merged, KeyLogLevel); err != nil {
		return nil, attribute(err, sources)
	}
	if cfg.Java.Command, err = getString(merged, KeyJavaCommand); err != nil {
		return nil, attribute(err, sources)
	}
	if cfg.Java.ProbeTimeout, err = getDuration(merged, KeyJavaProbeTimeout); err != nil {
		return nil, attribute(err, sources)
	}
	cfg.sources = sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.Paths.ConfigDir == "" {
		return c.invalid(KeyConfigDir, "must not be empty", c.Paths.ConfigDir)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return c.invalid(KeyLogLevel, "unknown level", c.Logging.Level)
	}
	if c.Java.Command == "" {
		return c.invalid(KeyJavaCommand, "must not be empty", c.Java.Command)
	}
	if c.Java.ProbeTimeout <= 0 {
		return c.invalid(KeyJavaProbeTimeout, "must be positive", c.Java.ProbeTimeout)
	}
	return nil
}

func (c *Config) invalid(key, reason string, value any) error {
	return &ValidationError{Key: key, Source: c.Source(key), Reason: reason, Value: value}
}

// DefaultConfigDir returns <user config dir>/rev-launcher, or a relative
// directory when the user config dir is unknown.
func DefaultConfigDir(userConfigDir func() (string, error)) string {
	base, err := userConfigDir()
	if err != nil || base == "" {
		return "." + AppName
	}
	return filepath.Join(base, AppName)
}

func defaultConfig(userConfigDir func() (string, error)) map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"configDir": DefaultConfigDir(userConfigDir),
		},
		"logging": map[string]any{
			"level": logging.DefaultLevel,
		},
		"java": map[string]any{
			"command":      java.DefaultCommand,
			"probeTimeout": java.DefaultProbeTimeout,
		},
	}
}

// candidates returns the config file names tried, in order.
func candidates(dir string) []string {
	exts := []string{".toml", ".yaml", ".yml", ".json"}
	paths := make([]string, len(exts))
	for i, ext := range exts {
		paths[i] = filepath.Join(dir, FileBaseName+ext)
	}
	return paths
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func getString(m map[string]any, key string) (string, error) {
	v, _ := loader.GetPath(m, key)
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Key: key, Want: "string", Got: typeName(v)}
	}
	return s, nil
}

// getDuration accepts a duration, a duration string such as "5s", or a
// number of seconds.
func getDuration(m map[string]any, key string) (time.Duration, error) {
	v, _ := loader.GetPath(m, key)
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &ValidationError{Key: key, Reason: "invalid duration", Value: val}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case uint64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, &TypeError{Key: key, Want: "duration", Got: typeName(v)}
	}
}
