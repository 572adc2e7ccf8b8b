package config

import (
	"time"

	"github.com/kbukum/stepflow/observability"
	"github.com/kbukum/stepflow/validation"
)

// Config is the configuration of a process running stepflow pipelines.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Engine        EngineConfig        `yaml:"engine" mapstructure:"engine"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// EngineConfig holds the defaults applied to every pipeline definition.
type EngineConfig struct {
	// FaultTolerant converts service errors and panics into error Results.
	FaultTolerant bool `yaml:"fault_tolerant" mapstructure:"fault_tolerant"`
	// Tracing wraps runs and steps in spans from the global tracer provider.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	// Metrics records run and step instruments on the global meter provider.
	Metrics bool `yaml:"metrics" mapstructure:"metrics"`
	// DefinitionDirs are searched, in order, for YAML pipeline definitions.
	DefinitionDirs []string `yaml:"definition_dirs" mapstructure:"definition_dirs" validate:"dive,required"`
}

// ObservabilityConfig configures the OTLP exporters.
type ObservabilityConfig struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if len(c.Engine.DefinitionDirs) == 0 {
		c.Engine.DefinitionDirs = []string{"./flows"}
	}
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.Interval == 0 {
		c.Observability.Interval = 15 * time.Second
	}
}

// Validate checks the base fields and the struct tags of every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

func (c *Config) service() observability.Service {
	return observability.Service{Name: c.Name, Version: c.Version, Environment: c.Environment}
}

func (c *Config) exporter() observability.Exporter {
	return observability.Exporter{Endpoint: c.Observability.Endpoint, Insecure: c.Observability.Insecure}
}

// TracerConfig derives the tracer settings from the service and
// observability sections.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		Service:    c.service(),
		Exporter:   c.exporter(),
		SampleRate: c.Observability.SampleRate,
	}
}

// MeterConfig derives the meter settings from the service and observability
// sections.
func (c *Config) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		Service:  c.service(),
		Exporter: c.exporter(),
		Interval: c.Observability.Interval,
	}
}

// Load reads the configuration of serviceName, applies defaults and
// validates it. An empty name in the file defaults to serviceName.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
