package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/util"
)

const (
	defaultConfigName = ".vmpower"
	defaultConfigDir  = ".vmpower"
	envPrefix         = "VMPOWER"
)

// Default run parameters, applied when the config file omits them
const (
	DefaultWorkers     = 10
	DefaultBatchSize   = 500
	DefaultBatchDelay  = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 30 * time.Second
	DefaultOpTimeout   = 5 * time.Minute
	DefaultTimeout     = 30 * time.Second
)

// Manager handles vmpower configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager. An empty configPath
// searches the default locations (~/.vmpower/config.yaml, ~/.vmpower.yaml).
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// Load loads the configuration from file, environment, and defaults
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Check ~/.vmpower/config.yaml then ~/.vmpower.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.config = &Config{}

	if err := m.viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		m.applyDefaults()
		return m.config, nil
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	return m.config, nil
}

// Save saves the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configDir := filepath.Join(home, defaultConfigDir)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		m.configPath = filepath.Join(configDir, "config.yaml")
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// applyDefaults fills in zero-valued run parameters
func (m *Manager) applyDefaults() {
	d := &m.config.Defaults

	if d.Workers == 0 {
		d.Workers = DefaultWorkers
	}
	if d.BatchSize == 0 {
		d.BatchSize = DefaultBatchSize
	}
	if d.BatchDelay == 0 {
		d.BatchDelay = DefaultBatchDelay
	}
	if d.MaxAttempts == 0 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.RetryDelay == 0 {
		d.RetryDelay = DefaultRetryDelay
	}
	if d.OpTimeout == 0 {
		d.OpTimeout = DefaultOpTimeout
	}
	if d.OutputFormat == "" {
		d.OutputFormat = "table"
	}

	if m.config.VCenter.Timeout == 0 {
		m.config.VCenter.Timeout = DefaultTimeout
	}
}

// Validate checks run parameters against their allowed ranges. Connection
// parameters are validated separately because commands that never touch
// the endpoint (version, completion) do not need them.
func (c *Config) Validate() error {
	d := c.Defaults

	if d.Workers < executor.MinWorkers || d.Workers > executor.MaxWorkers {
		return fmt.Errorf("%w: workers must be between %d and %d, got %d",
			util.ErrInvalidConfig, executor.MinWorkers, executor.MaxWorkers, d.Workers)
	}
	if d.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1, got %d", util.ErrInvalidConfig, d.BatchSize)
	}
	if d.BatchDelay < 0 {
		return fmt.Errorf("%w: batch delay cannot be negative", util.ErrInvalidConfig)
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", util.ErrInvalidConfig, d.MaxAttempts)
	}
	if d.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive", util.ErrInvalidConfig)
	}
	if d.OpTimeout < 0 {
		return fmt.Errorf("%w: operation timeout cannot be negative", util.ErrInvalidConfig)
	}

	return nil
}

// ValidateConnection checks that the endpoint parameters required to open
// a session are present
func (c *Config) ValidateConnection() error {
	if c.VCenter.Host == "" {
		return fmt.Errorf("%w: vCenter host is required (flag --host, config vcenter.host, or VMPOWER_VCENTER_HOST)", util.ErrInvalidConfig)
	}
	if c.VCenter.Username == "" {
		return fmt.Errorf("%w: vCenter username is required", util.ErrInvalidConfig)
	}
	if c.VCenter.Password == "" {
		return fmt.Errorf("%w: vCenter password is required", util.ErrInvalidConfig)
	}
	return nil
}
