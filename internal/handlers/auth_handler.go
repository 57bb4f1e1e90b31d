package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/middleware"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/validator"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

type AuthHandler struct {
	users *store.UserStore
	log   *logger.Logger
}

func NewAuthHandler(users *store.UserStore) *AuthHandler {
	return &AuthHandler{users: users, log: logger.New("auth_handler")}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: string(u.Role)}
}

// Register godoc
// @Summary Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RegisterRequest true "Registration payload"
// @Success 201 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req validator.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Self-registration always creates a plain user; admins promote
	// through the role endpoint.
	user, err := h.users.Create(c.Request().Context(), req.Username, req.Password, models.UserRoleUser)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return echo.NewHTTPError(http.StatusConflict, "Username already exists")
		}
		return h.log.Error("Failed to create user", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"user": toUserResponse(user),
	})
}

// Login godoc
// @Summary Authenticate and receive a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req validator.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.Verify(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	token, err := utils.GenerateJWT(*user)
	if err != nil {
		return h.log.Error("Failed to generate token", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// GetMe godoc
// @Summary Get the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	sess := middleware.GetSession(c)
	user, err := h.users.GetByID(c.Request().Context(), sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": toUserResponse(user),
	})
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /users [get]
func (h *AuthHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return h.log.Error("Failed to list users", err)
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"users": out})
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body validator.UpdateRoleRequest true "New role"
// @Success 200 {object} map[string]string
// @Router /users/{id}/role [put]
func (h *AuthHandler) UpdateRole(c echo.Context) error {
	var req validator.UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id := c.Param("id")
	if _, err := h.users.GetByID(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if err := h.users.UpdateRole(c.Request().Context(), id, models.UserRole(req.Role)); err != nil {
		return h.log.Error("Failed to update role", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Router /users/{id} [delete]
func (h *AuthHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	sess := middleware.GetSession(c)
	if sess.UserID == id {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot delete your own account")
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return h.log.Error("Failed to delete user", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
