package handlers

import (
	"net/http"
	"time"

	"github.com/healthbridge/medgrant/internal/cache"
	"github.com/healthbridge/medgrant/internal/database"
)

// HealthHandler reports liveness of the stores the grant flows depend on.
type HealthHandler struct {
	cache   cache.Cache
	started time.Time
}

func NewHealthHandler(cacheImpl cache.Cache) *HealthHandler {
	return &HealthHandler{cache: cacheImpl, started: time.Now()}
}

type healthResponse struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health. Degrades rather than fails: a dead cache only
// slows issuance down, so it never flips readiness on its own.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Service:   "medgrant",
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Services:  make(map[string]string),
	}

	if h.databaseHealthy() {
		response.Services["database"] = "healthy"
	} else {
		response.Services["database"] = "unhealthy"
		response.Status = "degraded"
	}

	if _, err := h.cache.Exists(r.Context(), cache.CodeKey("health")); err != nil {
		response.Services["cache"] = "unhealthy"
		response.Status = "degraded"
	} else {
		response.Services["cache"] = "healthy"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, response)
}

// Ready handles GET /ready. Grants cannot be issued or redeemed without the
// database, so readiness tracks it alone.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.databaseHealthy() {
		respondMessage(w, http.StatusServiceUnavailable, "service not ready")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *HealthHandler) databaseHealthy() bool {
	if database.DB == nil {
		return false
	}
	sqlDB, err := database.DB.DB()
	return err == nil && sqlDB.Ping() == nil
}
