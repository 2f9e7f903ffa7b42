package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"gnosislens-api/pkg/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthConfig describes what the health endpoints report on.
type HealthConfig struct {
	Service   string
	Version   string
	StoreType string
	CacheName string
	Store     Pinger
}

// Handler contains shared HTTP handlers and their dependencies.
type Handler struct {
	cfg       HealthConfig
	startTime time.Time
}

// New creates a new handler.
func New(cfg HealthConfig) *Handler {
	return &Handler{cfg: cfg, startTime: time.Now()}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.cfg.Version,
	})
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Check represents an individual readiness check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Ready handles GET /api/ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := []Check{{Name: "api", Status: "ok"}, h.storeCheck(r.Context())}

	allReady := true
	for _, check := range checks {
		if check.Status != "ok" {
			allReady = false
			break
		}
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, ReadyResponse{
		Ready:     allReady,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

func (h *Handler) storeCheck(ctx context.Context) Check {
	check := Check{Name: "store:" + h.cfg.StoreType, Status: "ok"}
	if h.cfg.Store == nil {
		check.Status = "not_configured"
		return check
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.cfg.Store.Ping(ctx); err != nil {
		check.Status = "error"
		check.Error = err.Error()
	}
	return check
}

// StatusChecks represents the checks in status response
type StatusChecks struct {
	Store        string  `json:"store"`
	Cache        string  `json:"cache"`
	HeapMB       float64 `json:"heap_mb"`
	SystemMemPct float64 `json:"system_mem_percent"`
	SystemCPUPct float64 `json:"system_cpu_percent"`
	Goroutines   int     `json:"goroutines"`
}

// StatusResponse represents the unified status response for monitoring.
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	PingMS        int64        `json:"ping_ms"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	requestStart := time.Now()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	checks := StatusChecks{
		Store:      h.storeCheck(r.Context()).Status,
		Cache:      h.cfg.CacheName,
		HeapMB:     round2(float64(memStats.HeapAlloc) / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		checks.SystemMemPct = round2(vm.UsedPercent)
	}
	if pct, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(pct) > 0 {
		checks.SystemCPUPct = round2(pct[0])
	}

	status := "ok"
	if checks.Store == "error" {
		status = "degraded"
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, StatusResponse{
		Service:       h.cfg.Service,
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		PingMS:        time.Since(requestStart).Milliseconds(),
		Checks:        checks,
	})
}

func round2(x float64) float64 {
	return float64(int64(x*100)) / 100
}
