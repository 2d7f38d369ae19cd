package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthzMetrics counts authorization decisions by required permission and outcome.
type AuthzMetrics struct {
	decisions metric.Int64Counter
}

// NewAuthzMetrics registers the decision counter on meter.
func NewAuthzMetrics(meter metric.Meter) (*AuthzMetrics, error) {
	decisions, err := meter.Int64Counter(
		"authz.decisions",
		metric.WithDescription("Authorization gate decisions"),
	)
	if err != nil {
		return nil, err
	}
	return &AuthzMetrics{decisions: decisions}, nil
}

// Record counts one decision.
func (m *AuthzMetrics) Record(ctx context.Context, required string, allowed bool) {
	m.decisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("permission", required),
			attribute.Bool("allowed", allowed),
		),
	)
}
