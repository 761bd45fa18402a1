package config

import "time"

// Config represents the vmpower configuration file structure
type Config struct {
	// VCenter holds the connection parameters for the managed endpoint
	VCenter VCenterConfig `yaml:"vcenter,omitempty" json:"vcenter,omitempty" mapstructure:"vcenter"`

	// Defaults contains default settings for runs
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty" mapstructure:"defaults"`
}

// VCenterConfig represents connection configuration for a vCenter endpoint
type VCenterConfig struct {
	// Host is the vCenter hostname or URL (https://host/sdk is assumed
	// for a bare hostname)
	Host string `yaml:"host" json:"host" mapstructure:"host"`

	// Username is the vCenter user
	Username string `yaml:"username" json:"username" mapstructure:"username"`

	// Password is the vCenter password
	Password string `yaml:"password,omitempty" json:"-" mapstructure:"password"`

	// Insecure skips TLS certificate verification
	Insecure bool `yaml:"insecure,omitempty" json:"insecure,omitempty" mapstructure:"insecure"`

	// Timeout bounds the session login call
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// DefaultsConfig contains default run parameters
type DefaultsConfig struct {
	// Workers is the worker pool concurrency cap
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty" mapstructure:"workers"`

	// BatchSize is the maximum operations per batch
	BatchSize int `yaml:"batchSize,omitempty" json:"batchSize,omitempty" mapstructure:"batchSize"`

	// BatchDelay is the pause between batches
	BatchDelay time.Duration `yaml:"batchDelay,omitempty" json:"batchDelay,omitempty" mapstructure:"batchDelay"`

	// MaxAttempts bounds whole-run retries (1 disables retry)
	MaxAttempts int `yaml:"maxAttempts,omitempty" json:"maxAttempts,omitempty" mapstructure:"maxAttempts"`

	// RetryDelay is the base backoff delay between run attempts
	RetryDelay time.Duration `yaml:"retryDelay,omitempty" json:"retryDelay,omitempty" mapstructure:"retryDelay"`

	// OpTimeout is the per-operation deadline (zero disables)
	OpTimeout time.Duration `yaml:"opTimeout,omitempty" json:"opTimeout,omitempty" mapstructure:"opTimeout"`

	// OutputFormat is the default output format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty" mapstructure:"outputFormat"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty" mapstructure:"noColor"`
}
