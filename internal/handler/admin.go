package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"auctionhouse-api/internal/middleware"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/internal/service"
	"auctionhouse-api/pkg/response"
)

// AdminHandler serves moderation and operator endpoints. Every route goes
// through the same services as the rest of the API, so the admin capability
// check cannot be bypassed here.
type AdminHandler struct {
	moderation *service.ModerationService
	roles      *service.RoleService
	sweeper    *service.Sweeper
	store      repository.AuctionRepository
	dbType     string
	startTime  time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	moderation *service.ModerationService,
	roles *service.RoleService,
	sweeper *service.Sweeper,
	store repository.AuctionRepository,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		roles:      roles,
		sweeper:    sweeper,
		store:      store,
		dbType:     dbType,
		startTime:  time.Now(),
	}
}

// Pending handles GET /api/v1/admin/auctions/pending
func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	listings, err := h.moderation.Pending(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSONWithMeta(w, listings, limit, offset, len(listings))
}

// Approve handles POST /api/v1/admin/auctions/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	a, err := h.moderation.Approve(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, a)
}

// Reject handles POST /api/v1/admin/auctions/{id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	a, err := h.moderation.Reject(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, a)
}

// RoleRequest is the body of a role grant.
type RoleRequest struct {
	Role model.Role `json:"role"`
}

// ListRoles handles GET /api/v1/admin/roles/{user_id}
func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.roles.RequireAdmin(ctx, middleware.GetUserID(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	roles, err := h.roles.Roles(ctx, chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, roles)
}

// GrantRole handles PUT /api/v1/admin/roles/{user_id}
func (h *AdminHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	if err := h.roles.Grant(ctx, middleware.GetUserID(ctx), userID, req.Role); err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, map[string]string{"user_id": userID, "role": string(req.Role)})
}

// RevokeRole handles DELETE /api/v1/admin/roles/{user_id}/{role}
func (h *AdminHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := model.Role(chi.URLParam(r, "role"))
	if err := h.roles.Revoke(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"), role); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// Sweep handles POST /api/v1/admin/sweep. It runs one finalization pass now
// instead of waiting for the next tick.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.roles.RequireAdmin(ctx, middleware.GetUserID(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.sweeper.RunOnce(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, map[string]int{"finalized": n})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.roles.RequireAdmin(ctx, middleware.GetUserID(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	storeStats, err := h.store.Stats(ctx)
	if err == nil {
		stats["auctions"] = storeStats
	} else {
		stats["auctions"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
