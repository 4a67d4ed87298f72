package v1

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feanor306/task-app-api/internal/models"
)

const (
	userCtxKey  = "user"
	tokenCtxKey = "token"
)

// HandleAuthMiddleware resolves the bearer token to its user and puts
// both on the request context. It owns no route logic; a request that
// fails extraction or validation is aborted with 401 here.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError("authorization header required"))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError("invalid authorization header"))
		return
	}

	token := parts[1]
	user, err := h.tokens.Validate(c, token)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to validate token")
		abort(c, newUnauthorizedError("invalid token"))
		return
	}

	c.Set(userCtxKey, user)
	c.Set(tokenCtxKey, token)
	c.Next()
}

func userFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func tokenFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(tokenCtxKey)
	if !exists {
		return "", false
	}
	token, ok := value.(string)
	return token, ok
}
