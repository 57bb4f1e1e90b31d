package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/middleware"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/validator"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

type PermissionHandler struct {
	perms     *store.PermissionStore
	users     *store.UserStore
	resources *store.ResourceStore
	log       *logger.Logger
}

func NewPermissionHandler(perms *store.PermissionStore, users *store.UserStore, resources *store.ResourceStore) *PermissionHandler {
	return &PermissionHandler{
		perms:     perms,
		users:     users,
		resources: resources,
		log:       logger.New("permission_handler"),
	}
}

func (h *PermissionHandler) bindPair(c echo.Context) (*validator.PermissionRequest, error) {
	var req validator.PermissionRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	ctx := c.Request().Context()
	if _, err := h.users.GetByID(ctx, req.UserID); err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if _, err := h.resources.GetByID(ctx, req.ResourceID); err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Resource not found")
	}
	return &req, nil
}

// Grant godoc
// @Summary Grant a user access to a resource
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validator.PermissionRequest true "User and resource pair"
// @Success 200 {object} map[string]string
// @Router /permissions/grant [post]
func (h *PermissionHandler) Grant(c echo.Context) error {
	req, err := h.bindPair(c)
	if err != nil {
		return err
	}

	sess := middleware.GetSession(c)
	if err := h.perms.Grant(c.Request().Context(), req.UserID, req.ResourceID, sess.UserID); err != nil {
		return h.log.Error("Failed to grant permission", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "granted"})
}

// Revoke godoc
// @Summary Revoke a user's access to a resource
// @Description Writes an explicit can_access=false row; the pair stays auditable.
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validator.PermissionRequest true "User and resource pair"
// @Success 200 {object} map[string]string
// @Router /permissions/revoke [post]
func (h *PermissionHandler) Revoke(c echo.Context) error {
	req, err := h.bindPair(c)
	if err != nil {
		return err
	}

	sess := middleware.GetSession(c)
	if err := h.perms.Revoke(c.Request().Context(), req.UserID, req.ResourceID, sess.UserID); err != nil {
		return h.log.Error("Failed to revoke permission", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}

// ListForUser godoc
// @Summary List all explicit permission rows for a user
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Router /permissions/user/{id} [get]
func (h *PermissionHandler) ListForUser(c echo.Context) error {
	perms, err := h.perms.ListForUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.log.Error("Failed to list permissions", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"permissions": perms})
}
