package flow

import (
	"github.com/kbukum/stepflow/config"
	"github.com/kbukum/stepflow/observability"
)

// OptionsFromConfig maps the engine configuration onto definition options.
// Tracing and metrics use the global providers, so observability.InitTracer
// and observability.InitMeter should run first.
func OptionsFromConfig(cfg config.EngineConfig) ([]Option, error) {
	var opts []Option
	if cfg.FaultTolerant {
		opts = append(opts, WithFaultTolerance())
	}
	if cfg.Tracing {
		opts = append(opts, WithTracing(nil))
	}
	if cfg.Metrics {
		m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMetrics(m))
	}
	return opts, nil
}

// LoaderFromConfig returns a FileLoader over the configured definition
// directories.
func LoaderFromConfig(cfg config.EngineConfig) *FileLoader {
	return NewFileLoader(cfg.DefinitionDirs...)
}
