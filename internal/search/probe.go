package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/osintrat/internal/backend"
)

// HealthChecker reports the status of the search backend.
type HealthChecker interface {
	Health(ctx context.Context) (*backend.Health, error)
}

// Probe answers whether the search backend is currently usable.
type Probe struct {
	checker HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewProbe creates a probe bounding each health request to timeout.
func NewProbe(checker HealthChecker, timeout time.Duration, logger *zap.Logger) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{checker: checker, timeout: timeout, logger: logger}
}

// IsAvailable returns true only when the backend answers within the timeout and
// reports itself available. It never returns an error.
func (p *Probe) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	h, err := p.checker.Health(ctx)
	if err != nil {
		p.logger.Warn("search backend health check failed", zap.Error(err))
		return false
	}
	if h == nil || h.Status != backend.StatusAvailable {
		status := ""
		if h != nil {
			status = h.Status
		}
		p.logger.Warn("search backend not available", zap.String("status", status))
		return false
	}
	return true
}
