package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Service identifies the process in exported spans and metrics.
type Service struct {
	Name        string
	Version     string
	Environment string
}

// Resource merges the service attributes into the SDK default resource.
func (s Service) Resource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(s.Name),
			semconv.ServiceVersion(s.Version),
			attribute.String("environment", s.Environment),
		),
	)
}

// Exporter addresses an OTLP HTTP collector.
type Exporter struct {
	// Endpoint is host:port, e.g. "localhost:4318".
	Endpoint string
	Insecure bool
}

func developmentDefaults(serviceName string) (Service, Exporter) {
	return Service{Name: serviceName, Version: "1.0.0", Environment: "development"},
		Exporter{Endpoint: "localhost:4318", Insecure: true}
}
