package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

// Config represents the honeypot configuration
type Config struct {
	Host    string        `yaml:"host" validate:"omitempty,ip|hostname"`
	Ports   PortList      `yaml:"ports" validate:"min=1,dive,min=1,max=65535"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig defines logging settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"` // trace, debug, info, warn, error
	Format string `yaml:"format" validate:"oneof=text json"`                          // text, json
	File   string `yaml:"file,omitempty"`
}

// MetricsConfig defines the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Address string `yaml:"address" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from a file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapAs(errors.ErrConfigLoad, err, "failed to read config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapAs(errors.ErrConfigLoad, err, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrCreateDefault loads config or creates a default one
func LoadOrCreateDefault(path string) (*Config, error) {
	// If file exists, load it
	if _, err := os.Stat(path); err == nil {
		return LoadConfig(path)
	}

	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapAs(errors.ErrConfigSave, err, "failed to create config directory")
	}

	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:  constants.DefaultHost,
		Ports: defaultPorts(),
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Format: constants.DefaultLogFormat,
			File:   constants.DefaultLogFile,
		},
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapAs(errors.ErrConfigSave, err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePermissions); err != nil {
		return errors.WrapAs(errors.ErrConfigSave, err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Ports) == 0 {
		return errors.ErrNoPorts
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.WrapAs(errors.ErrInvalidConfig, err, "invalid configuration")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.WrapAs(errors.ErrInvalidConfig, stderrors.New(strings.Join(msgs, "; ")), "invalid configuration")
}

func defaultPorts() PortList {
	ports, err := ParsePorts(constants.DefaultPorts)
	if err != nil {
		panic(fmt.Sprintf("invalid default ports %q: %v", constants.DefaultPorts, err))
	}
	return ports
}
