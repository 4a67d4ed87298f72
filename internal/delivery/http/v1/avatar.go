package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feanor306/task-app-api/internal/services"
)

const avatarFormField = "avatar"

func (h *handlerImpl) HandleUploadAvatar(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("avatar attachment required")
		abort(c, newBadRequestError("avatar attachment required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open avatar attachment")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read avatar attachment")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	err = h.avatars.Upload(c, user.ID, data)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to upload avatar")
		switch {
		case errors.Is(err, services.ErrInvalidImage):
			abort(c, newBadRequestError(services.ErrInvalidImage.Error()))
		case errors.Is(err, services.ErrImageTooLarge):
			abort(c, newBadRequestError(services.ErrImageTooLarge.Error()))
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusOK)
}

func (h *handlerImpl) HandleDeleteAvatar(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError("unauthorized"))
		return
	}

	err := h.avatars.Delete(c, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete avatar")
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

func (h *handlerImpl) HandleGetAvatar(c *gin.Context) {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		// A malformed id cannot match any user, so it reads as not found
		// rather than reaching the storage layer.
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("malformed user id")
		abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		return
	}

	avatar, err := h.avatars.GetByUserID(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to get avatar")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Data(http.StatusOK, "image/png", avatar)
}
