package handler

import (
	"net/http"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"go.uber.org/zap"
)

// CurrentUserDTO describes the caller as the admin UI needs it
type CurrentUserDTO struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Email        string                  `json:"email,omitempty"`
	Roles        []string                `json:"roles"`
	Permissions  []domain.PermissionType `json:"permissions"`
	IsSuperAdmin bool                    `json:"isSuperAdmin"`
}

// AuthHandler reports who the caller is and what they may do
type AuthHandler struct {
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the caller with roles and effective permissions
// @Tags Auth
// @Produce json
// @Success 200 {object} CurrentUserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, CurrentUserDTO{
		ID:           user.UserID,
		Name:         user.Actor(),
		Email:        user.Email,
		Roles:        user.RolesAsStrings(),
		Permissions:  user.Permissions(),
		IsSuperAdmin: user.IsSuperAdmin(),
	})
}

// Permissions godoc
// @Summary List the caller's permissions
// @Tags Auth
// @Produce json
// @Param check query string false "Return only whether this permission is held"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/permissions [get]
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if check := r.URL.Query().Get("check"); check != "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"permission": check,
			"allowed":    user.HasPermission(domain.PermissionType(check)),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"permissions": user.Permissions(),
	})
}
