package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hanzlah101/t3-clone/internal/domain"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/auth"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/responses"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const principalContextKey = "principal"

// AuthMiddleware validates JWT bearer tokens and stores the authenticated
// principal in the gin context.
func AuthMiddleware(validator *auth.JWTValidator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "9f2e7d4c-1a3b-4e5f-8c6d-0b9a8e7f6d51")
			return
		}

		principal, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			logger.Warn().Err(err).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("jwt validation failed")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "invalid or expired token", "4c8b3a2e-6f5d-4a19-b7e8-2d1c0f9e8a62")
			return
		}

		c.Set(principalContextKey, *principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
