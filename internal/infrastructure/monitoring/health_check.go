package monitoring

import (
	"context"
	"sync"
	"time"
)

// ReadinessProbe is a single named dependency check (redis, object
// storage, CDN token endpoint).
type ReadinessProbe struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
}

type HealthChecker struct {
	mu     sync.RWMutex
	probes []ReadinessProbe
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddProbe(name string, timeout time.Duration, check func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, ReadinessProbe{Name: name, Check: check, Timeout: timeout})
}

// CheckAll runs every probe and reports aggregate readiness. A single
// failing dependency marks the whole service unready.
func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	probes := make([]ReadinessProbe, len(h.probes))
	copy(probes, h.probes)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(probes)),
	}

	for _, probe := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, probe.Timeout)
		err := probe.Check(probeCtx)
		cancel()

		if err != nil {
			status.Status = "unhealthy"
			status.Checks[probe.Name] = err.Error()
		} else {
			status.Checks[probe.Name] = "healthy"
		}
	}

	return status
}
