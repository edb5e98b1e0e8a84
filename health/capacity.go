package health

import (
	"context"
	"fmt"
)

// Sizer reports how many entries a store holds.
type Sizer interface {
	Len() int
}

// CapacityConfig configures a CapacityChecker.
type CapacityConfig struct {
	// MaxEntries is the expected upper bound. Required.
	MaxEntries int

	// WarningThreshold is the fraction of MaxEntries that triggers degraded
	// status. Value should be between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the fraction of MaxEntries that triggers unhealthy
	// status. Default: 0.95
	CriticalThreshold float64
}

// CapacityChecker watches the entry count of an in-process store, which
// grows without bound when TTLs are not set.
type CapacityChecker struct {
	name   string
	sizer  Sizer
	config CapacityConfig
}

// NewCapacityChecker creates a capacity checker.
func NewCapacityChecker(name string, s Sizer, config CapacityConfig) *CapacityChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold > 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 1)
	}
	return &CapacityChecker{name: name, sizer: s, config: config}
}

// Name returns the name of this checker.
func (c *CapacityChecker) Name() string { return c.name }

// Check compares the entry count against the thresholds.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	entries := c.sizer.Len()
	details := map[string]any{"entries": entries, "max_entries": c.config.MaxEntries}
	if c.config.MaxEntries <= 0 {
		return Healthy(fmt.Sprintf("%d entries", entries)).WithDetails(details)
	}

	ratio := float64(entries) / float64(c.config.MaxEntries)
	details["usage_percent"] = ratio * 100

	switch {
	case ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("entries critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("entries high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("entries normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
