package handler

import (
	"crypto/subtle"
	"net/http"
	"runtime"
	"time"

	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/internal/repository"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// AdminHandler reports store and runtime statistics to operators.
type AdminHandler struct {
	repo      repository.PurchaseRepository
	rates     *exchangerate.Provider
	cacheName string
	adminKey  string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler guarded by adminKey.
func NewAdminHandler(repo repository.PurchaseRepository, rates *exchangerate.Provider, cacheName, adminKey string) *AdminHandler {
	return &AdminHandler{
		repo:      repo,
		rates:     rates,
		cacheName: cacheName,
		adminKey:  adminKey,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Admin-Key")
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		response.Error(w, apierror.Unauthorized("Invalid admin key"))
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["cache"] = h.cacheName

	if storeStats, err := h.repo.GetStats(ctx); err == nil {
		storeStats["status"] = "connected"
		stats["store"] = storeStats
	} else {
		stats["store"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}

	if h.rates != nil {
		if snap := h.rates.Snapshot(); snap != nil {
			stats["rates"] = map[string]interface{}{
				"currencies": len(snap.Rates),
				"fetched_at": snap.FetchedAt.Format(time.RFC3339),
				"age":        time.Since(snap.FetchedAt).Round(time.Second).String(),
			}
		} else {
			stats["rates"] = map[string]interface{}{"status": "not_loaded"}
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
