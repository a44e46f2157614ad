package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the auth counters. A nil *Metrics is a valid no-op receiver so
// call sites do not have to guard against disabled telemetry.
type Metrics struct {
	logins        metric.Int64Counter
	loginFailures metric.Int64Counter
	refreshes     metric.Int64Counter
	renewals      metric.Int64Counter
	revocations   metric.Int64Counter
}

// NewMetrics registers the auth counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.logins, err = meter.Int64Counter("auth.logins",
		metric.WithDescription("Successful logins")); err != nil {
		return nil, err
	}
	if m.loginFailures, err = meter.Int64Counter("auth.login_failures",
		metric.WithDescription("Rejected login attempts")); err != nil {
		return nil, err
	}
	if m.refreshes, err = meter.Int64Counter("auth.refreshes",
		metric.WithDescription("Refresh-token rotations")); err != nil {
		return nil, err
	}
	if m.renewals, err = meter.Int64Counter("auth.renewals",
		metric.WithDescription("Silent access-token renewals")); err != nil {
		return nil, err
	}
	if m.revocations, err = meter.Int64Counter("auth.revocations",
		metric.WithDescription("Session revocations")); err != nil {
		return nil, err
	}
	return m, nil
}

// CountLogin increments the login counter.
func (m *Metrics) CountLogin(ctx context.Context) {
	if m != nil {
		m.logins.Add(ctx, 1)
	}
}

// CountLoginFailure increments the login-failure counter.
func (m *Metrics) CountLoginFailure(ctx context.Context) {
	if m != nil {
		m.loginFailures.Add(ctx, 1)
	}
}

// CountRefresh increments the refresh counter.
func (m *Metrics) CountRefresh(ctx context.Context) {
	if m != nil {
		m.refreshes.Add(ctx, 1)
	}
}

// CountRenewal increments the silent-renewal counter.
func (m *Metrics) CountRenewal(ctx context.Context) {
	if m != nil {
		m.renewals.Add(ctx, 1)
	}
}

// CountRevocation increments the revocation counter.
func (m *Metrics) CountRevocation(ctx context.Context) {
	if m != nil {
		m.revocations.Add(ctx, 1)
	}
}
