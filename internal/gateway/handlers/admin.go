package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/admin"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/logger"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/models"
)

// AdminHandler serves /api/admin. Routes expect RequireAdmin in front.
type AdminHandler struct {
	service *admin.Service
	logger  *zap.Logger
}

func NewAdminHandler(svc *admin.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger.OrDefault(log)}
}

// HandleListUsers handles GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	res, err := h.service.ListUsers(r.Context(), admin.Query{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
	})
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePremiumAccess handles POST /api/admin/premium-access
func (h *AdminHandler) HandlePremiumAccess(w http.ResponseWriter, r *http.Request) {
	var req admin.PremiumRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", reasonBadRequest)
		return
	}

	ent := EntitlementFrom(r.Context())
	res, err := h.service.SetPremium(r.Context(), &models.User{ID: ent.UserID, Email: ent.Email}, req)
	if err != nil {
		h.logger.Warn("premium access change failed",
			zap.String("action", req.Action),
			zap.String("admin_id", ent.UserID),
			zap.Error(err),
		)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleListGrants handles GET /api/admin/grants
func (h *AdminHandler) HandleListGrants(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListGrants(r.Context())
	if err != nil {
		h.logger.Error("failed to list grants", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
