package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/samriddhidvd/TechM-AI-Assistant/docs/swagger"

	authmw "github.com/samriddhidvd/TechM-AI-Assistant/internal/api/middleware"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "TechM AI Assistant")
	})
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api/v1")

	// Public auth endpoints.
	api.POST("/auth/register", s.handlers.Auth.Register)
	api.POST("/auth/login", s.handlers.Auth.Login)

	// Everything else requires a valid token.
	auth := authmw.NewAuthMiddleware(s.config.JWT.Secret, store.NewUserStore(s.db))
	authed := api.Group("", auth.Middleware())

	authed.GET("/auth/me", s.handlers.Auth.GetMe)

	authed.POST("/chat", s.handlers.Chat.Ask)
	authed.GET("/chat/history", s.handlers.Chat.History)

	authed.GET("/resources", s.handlers.Resource.List)
	authed.GET("/resources/sync/status", s.handlers.Resource.SyncStatus)

	// Admin-only management surface.
	admin := authed.Group("", authmw.RequireAdmin())

	admin.GET("/users", s.handlers.Auth.ListUsers)
	admin.PUT("/users/:id/role", s.handlers.Auth.UpdateRole)
	admin.DELETE("/users/:id", s.handlers.Auth.DeleteUser)

	admin.DELETE("/resources/:id", s.handlers.Resource.Delete)
	admin.POST("/resources/sync/file", s.handlers.Resource.SyncFile)
	admin.POST("/resources/sync/folder", s.handlers.Resource.SyncFolder)

	admin.POST("/permissions/grant", s.handlers.Permission.Grant)
	admin.POST("/permissions/revoke", s.handlers.Permission.Revoke)
	admin.GET("/permissions/user/:id", s.handlers.Permission.ListForUser)
}
