// internal/monitoring/health.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// CheckFunc reports a problem as a non-nil error.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single check
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// SystemHealth represents overall health information
type SystemHealth struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	System    SystemMetrics          `json:"system"`
}

// SystemMetrics provides process level figures
type SystemMetrics struct {
	GoroutineCount int    `json:"goroutine_count"`
	AllocatedBytes uint64 `json:"allocated_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// HealthManager runs registered checks on demand
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	version string
	started time.Time
	timeout time.Duration
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checks:  make(map[string]CheckFunc),
		version: version,
		started: time.Now(),
		timeout: 5 * time.Second,
	}
}

// RegisterCheck adds or replaces a named check
func (hm *HealthManager) RegisterCheck(name string, check CheckFunc) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[name] = check
}

// GetHealth runs every check. The system is unhealthy when any check fails.
func (hm *HealthManager) GetHealth(ctx context.Context) SystemHealth {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(hm.checks))
	for k, v := range hm.checks {
		checks[k] = v
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	health := SystemHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Version:   hm.version,
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult, len(names)),
		System:    systemMetrics(),
	}

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
		start := time.Now()
		err := checks[name](checkCtx)
		cancel()

		result := CheckResult{Status: HealthStatusHealthy, Duration: time.Since(start)}
		if err != nil {
			result.Status = HealthStatusUnhealthy
			result.Error = err.Error()
			health.Status = HealthStatusUnhealthy
		}
		health.Checks[name] = result
	}
	return health
}

func systemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemMetrics{
		GoroutineCount: runtime.NumGoroutine(),
		AllocatedBytes: m.Alloc,
		NumGC:          m.NumGC,
	}
}

// HealthHandler serves the health report, with 503 when unhealthy
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.GetHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if health.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}
