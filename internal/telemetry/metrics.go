package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgroster"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	SavesTotal      metric.Int64Counter
	SaveErrorsTotal metric.Int64Counter
	SaveDuration    metric.Float64Histogram

	// Repository metrics
	FetchErrorsTotal          metric.Int64Counter
	OrganizationsCreatedTotal metric.Int64Counter
	MembersCreatedTotal       metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance bound to the global meter provider.
// Instruments created before InitTelemetry delegate to the provider once it is set.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

// NewMetrics creates all metric instruments on the given meter.
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.SavesTotal, _ = meter.Int64Counter(
		"orgroster.session.saves.total",
		metric.WithDescription("Total number of session save attempts with pending changes"),
		metric.WithUnit("{save}"),
	)

	m.SaveErrorsTotal, _ = meter.Int64Counter(
		"orgroster.session.save.errors.total",
		metric.WithDescription("Total number of session saves rejected by the backend"),
		metric.WithUnit("{error}"),
	)

	m.SaveDuration, _ = meter.Float64Histogram(
		"orgroster.session.save.duration",
		metric.WithDescription("Duration of backend commits"),
		metric.WithUnit("ms"),
	)

	m.FetchErrorsTotal, _ = meter.Int64Counter(
		"orgroster.repository.fetch.errors.total",
		metric.WithDescription("Total number of repository fetches that kept stale data"),
		metric.WithUnit("{error}"),
	)

	m.OrganizationsCreatedTotal, _ = meter.Int64Counter(
		"orgroster.organizations.created.total",
		metric.WithDescription("Total number of organizations saved"),
		metric.WithUnit("{organization}"),
	)

	m.MembersCreatedTotal, _ = meter.Int64Counter(
		"orgroster.members.created.total",
		metric.WithDescription("Total number of members saved"),
		metric.WithUnit("{member}"),
	)

	return m
}
