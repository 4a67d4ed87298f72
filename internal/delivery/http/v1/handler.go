package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/feanor306/task-app-api/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleLogoutAll(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleGetMe(c *gin.Context)
	HandleUpdateMe(c *gin.Context)
	HandleDeleteMe(c *gin.Context)

	HandleUploadAvatar(c *gin.Context)
	HandleDeleteAvatar(c *gin.Context)
	HandleGetAvatar(c *gin.Context)
}

type handlerImpl struct {
	logger  zerolog.Logger
	users   services.UserService
	tokens  services.TokenService
	avatars services.AvatarService
}

func New(
	logger zerolog.Logger,
	userService services.UserService,
	tokenService services.TokenService,
	avatarService services.AvatarService,
) Handler {
	return &handlerImpl{
		logger:  logger,
		users:   userService,
		tokens:  tokenService,
		avatars: avatarService,
	}
}

// RegisterRoutes mounts the handler on the router. The avatar read
// route stays public; everything else behind /users/me and the logout
// routes require a bearer token.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router.POST("/users", h.HandleRegister)
	router.POST("/users/login", h.HandleLogin)
	router.POST("/users/logout", h.HandleAuthMiddleware, h.HandleLogout)
	router.POST("/users/logoutAll", h.HandleAuthMiddleware, h.HandleLogoutAll)

	router.GET("/users/me", h.HandleAuthMiddleware, h.HandleGetMe)
	router.PATCH("/users/me", h.HandleAuthMiddleware, h.HandleUpdateMe)
	router.DELETE("/users/me", h.HandleAuthMiddleware, h.HandleDeleteMe)

	router.POST("/users/me/avatar", h.HandleAuthMiddleware, h.HandleUploadAvatar)
	router.DELETE("/users/me/avatar", h.HandleAuthMiddleware, h.HandleDeleteAvatar)
	router.GET("/users/:id/avatar", h.HandleGetAvatar)
}
