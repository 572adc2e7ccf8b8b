package config

import (
	"fmt"

	"github.com/kbukum/stepflow/logger"
	"github.com/kbukum/stepflow/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig identifies the process that runs pipelines. Its name,
// version and environment become resource attributes of exported spans and
// metrics. Applications with their own settings embed Config or this struct:
//
//	type OrdersConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Payments      PaymentsConfig `yaml:"payments" mapstructure:"payments"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults selects development with debug on when no environment is
// set, and fills in the version and the logging section.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = "0.0.0"
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
}

// Validate checks the name, the environment and the logging section.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.OneOf("environment", c.Environment, Environments)
	if err := v.Err(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Logger builds the logger described by the logging section, named after
// the service.
func (c *ServiceConfig) Logger() *logger.Logger {
	return logger.New(&c.Logging, c.Name)
}
