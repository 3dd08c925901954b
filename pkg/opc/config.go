package opc

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config contains the options shared by every package opened or created
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `mapstructure:"log_level"`
	// Creator is written to the core properties of newly created packages
	Creator string `mapstructure:"creator"`
	// CompressionLevel is the deflate level used when saving (-2 to 9, -1 is the library default)
	CompressionLevel int `mapstructure:"compression_level"`
	// MaxPartSize rejects archive entries larger than this many bytes. 0 disables the check.
	MaxPartSize int64 `mapstructure:"max_part_size"`
	// StrictRelationships turns skipped relationship entries into parse failures
	StrictRelationships bool `mapstructure:"strict_relationships"`
}

// EnvPrefix is the prefix of the environment variables read by ConfigFromEnvironment
const EnvPrefix = "OPC"

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:            "info",
		Creator:             "go-opc",
		CompressionLevel:    -1,
		MaxPartSize:         0,
		StrictRelationships: false,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("creator", d.Creator)
	v.SetDefault("compression_level", d.CompressionLevel)
	v.SetDefault("max_part_size", d.MaxPartSize)
	v.SetDefault("strict_relationships", d.StrictRelationships)
}

// NewViper returns a viper instance with the package defaults and the
// OPC_* environment bindings applied.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ConfigFromViper decodes a configuration from v.
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ConfigFromEnvironment creates a configuration from OPC_* environment variables.
// Values that fail to decode fall back to the defaults.
func ConfigFromEnvironment() *Config {
	cfg, err := ConfigFromViper(NewViper())
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadConfig reads a yaml, toml or json configuration file. Environment
// variables take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := ConfigFromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.Creator == "" {
		config.Creator = defaults.Creator
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be between -2 and 9, got %d", c.CompressionLevel)
	}

	if c.MaxPartSize < 0 {
		return errors.New("max part size cannot be negative")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	configOnce.Do(func() {
		globalConfigMutex.Lock()
		if globalConfig == nil {
			globalConfig = ConfigFromEnvironment()
		}
		globalConfigMutex.Unlock()
	})

	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	configOnce.Do(func() {})
	globalConfigMutex.Lock()
	globalConfig = NewConfigWithDefaults(config)
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}
