package health

import "context"

// Pinger checks a dependency's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AIChecker checks AI provider availability.
type AIChecker interface {
	HealthCheck(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
