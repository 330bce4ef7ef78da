// Package config loads hpp2puml settings from a YAML file, HPP2PUML_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalid is returned when the merged configuration fails validation.
var ErrInvalid = errors.Base("invalid configuration")

const (
	// EnvPrefix prefixes every environment variable, e.g.
	// HPP2PUML_ENABLE_DEPENDENCY.
	EnvPrefix = "HPP2PUML"
	// DefaultFile is read from the working directory when no config file is
	// given explicitly.
	DefaultFile = ".hpp2puml.yaml"
)

// Log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config is the merged run configuration.
type Config struct {
	InputFiles       []string `mapstructure:"input_files" json:"input_files"`
	Exclude          []string `mapstructure:"exclude" json:"exclude"`
	OutputFile       string   `mapstructure:"output_file" json:"output_file"`
	TemplateFile     string   `mapstructure:"template_file" json:"template_file"`
	EnableDependency bool     `mapstructure:"enable_dependency" json:"enable_dependency"`
	Strict           bool     `mapstructure:"strict" json:"strict"`
	LogLevel         string   `mapstructure:"log_level" json:"log_level"`
}

// flagKeys maps configuration keys to the command-line flags that override
// them.
var flagKeys = map[string]string{
	"input_files":       "input-file",
	"exclude":           "exclude",
	"output_file":       "output-file",
	"template_file":     "template-file",
	"enable_dependency": "enable-dependency",
	"strict":            "strict",
	"log_level":         "log-level",
}

// Load merges the config file at path (or DefaultFile when path is empty
// and the file exists), the environment and flags, then validates the
// result. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", LogLevelInfo)
	v.SetDefault("enable_dependency", false)
	v.SetDefault("strict", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Errorf("reading config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and normalises the log level.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	err := validation.ValidateStruct(c,
		validation.Field(&c.InputFiles, validation.Required),
		validation.Field(&c.LogLevel, validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
		validation.Field(&c.TemplateFile, validation.By(fileExists)),
	)
	if err != nil {
		return errors.Errorf("%w: %s", ErrInvalid, err)
	}
	return nil
}

// SlogLevel returns the log level as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fileExists(value any) error {
	path, _ := value.(string)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("file does not exist")
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	return nil
}
