package health

import (
	"context"
	"fmt"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component works but is slow or near capacity.
	StatusDegraded
	// StatusUnhealthy indicates the component cannot serve requests.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                     { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// Pinger is implemented by store clients that can probe their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingConfig configures a PingChecker.
type PingConfig struct {
	// DegradedLatency marks a successful but slow ping as degraded.
	// Zero disables the latency check.
	DegradedLatency time.Duration
}

// PingChecker reports a store's reachability.
type PingChecker struct {
	name   string
	pinger Pinger
	config PingConfig
	now    func() time.Time
}

// NewPingChecker creates a checker that pings p.
func NewPingChecker(name string, p Pinger, config PingConfig) *PingChecker {
	return &PingChecker{name: name, pinger: p, config: config, now: time.Now}
}

// Name returns the name of this checker.
func (c *PingChecker) Name() string { return c.name }

// Check pings the store.
func (c *PingChecker) Check(ctx context.Context) Result {
	start := c.now()
	err := c.pinger.Ping(ctx)
	latency := c.now().Sub(start)
	details := map[string]any{"latency": latency.String()}

	if err != nil {
		return Unhealthy(fmt.Sprintf("%s unreachable", c.name), err).WithDetails(details)
	}
	if c.config.DegradedLatency > 0 && latency >= c.config.DegradedLatency {
		return Degraded(fmt.Sprintf("%s slow: %s", c.name, latency)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%s reachable", c.name)).WithDetails(details)
}
