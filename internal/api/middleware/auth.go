package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/session"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

var log = logger.New("auth_middleware")

const sessionKey = "session"

type AuthMiddleware struct {
	jwtSecret string
	users     *store.UserStore
}

func NewAuthMiddleware(jwtSecret string, users *store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret, users: users}
}

// Middleware validates the bearer token, loads the user and stores an
// explicit session value in the request context. The role always comes
// from the database row, not the token, so role changes take effect on
// the next request.
func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			return m.validateJWT(c, tokenParts[1], next)
		}
	}
}

func (m *AuthMiddleware) validateJWT(c echo.Context, tokenString string, next echo.HandlerFunc) error {
	claims := &utils.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		log.Warn("Error parsing JWT token: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
	}

	user, err := m.users.GetByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	c.Set(sessionKey, session.New(user))
	return next(c)
}

// RequireAdmin rejects non-admin sessions. Must run after Middleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := GetSession(c)
			if sess == nil || !sess.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

// GetSession returns the authenticated session, nil when absent.
func GetSession(c echo.Context) *session.Session {
	if sess, ok := c.Get(sessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}
