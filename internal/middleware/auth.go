package middleware

import (
	"net/http"
	"strings"

	"aigym-api/pkg/jwtutil"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store admin info in context for later use
		c.Set("admin_id", claims.AdminID)
		c.Set("email", claims.Email)
		c.Set("admin_role", claims.Role)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// RequireSuperAdmin restricts a route to operators with the 'super_admin' role.
// It must run after AuthMiddleware.
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("admin_role").(string)
		if role != "super_admin" {
			log := logger.FromContext(c)
			log.Warn("Insufficient role for restricted operation", zap.String("role", role))
			prometheus.RecordAuthError("insufficient_role")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "super admin role required"})
		}
		return next(c)
	}
}
