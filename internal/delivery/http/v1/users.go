package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/feanor306/task-app-api/internal/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=7,max=255"`
	Age      *int   `json:"age" binding:"omitempty,gte=0"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if strings.Contains(strings.ToLower(req.Password), "password") {
		h.logger.Error().Msg("password contains forbidden word")
		abort(c, newBadRequestError(errWeakPassword.Error()))
		return
	}

	params := services.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Age != nil {
		params.Age = *req.Age
	}

	result, err := h.users.Register(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			abort(c, newBadRequestError(services.ErrEmailTaken.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.users.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		// Failed logins answer 400 rather than 401: the caller holds no
		// session to be unauthorized about.
		case errors.Is(err, services.ErrInvalidCredentials):
			abort(c, newBadRequestError(services.ErrInvalidCredentials.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}
	token, ok := tokenFromContext(c)
	if !ok {
		h.logger.Error().Msg("no token found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	err := h.tokens.Revoke(c, user.ID, token)
	if err != nil && !errors.Is(err, services.ErrInvalidToken) {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Status(http.StatusOK)
}

func (h *handlerImpl) HandleLogoutAll(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	err := h.tokens.RevokeAll(c, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout everywhere")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Status(http.StatusOK)
}

func (h *handlerImpl) HandleGetMe(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=7,max=255"`
	Age      *int    `json:"age" binding:"omitempty,gte=0"`
}

var allowedUpdateFields = map[string]struct{}{
	"name":     {},
	"email":    {},
	"password": {},
	"age":      {},
}

func (h *handlerImpl) HandleUpdateMe(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	// The field whitelist is checked before anything touches storage.
	var fields map[string]json.RawMessage
	err = json.Unmarshal(body, &fields)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to unmarshal request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	for field := range fields {
		if _, ok := allowedUpdateFields[field]; !ok {
			h.logger.Error().
				Str("field", field).
				Msg("unknown update field")
			abort(c, newBadRequestError(errInvalidFields.Error()))
			return
		}
	}

	var req updateUserRequest
	err = binding.JSON.BindBody(body, &req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if req.Password != nil && strings.Contains(strings.ToLower(*req.Password), "password") {
		h.logger.Error().Msg("password contains forbidden word")
		abort(c, newBadRequestError(errWeakPassword.Error()))
		return
	}

	updated, err := h.users.Update(c, user.ID, services.UpdateParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update user")
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			abort(c, newBadRequestError(services.ErrEmailTaken.Error()))
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *handlerImpl) HandleDeleteMe(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	err := h.users.Delete(c, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete user")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusOK)
}
