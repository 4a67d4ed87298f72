package services

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/feanor306/task-app-api/internal/postgres"
)

const (
	// Uploads larger than this are rejected before decoding.
	maxAvatarBytes = 1 << 20
	avatarSize     = 250
)

type avatarServiceImpl struct {
	logger zerolog.Logger
	db     postgres.DB
}

func NewAvatarService(
	logger zerolog.Logger,
	db postgres.DB,
) AvatarService {
	return &avatarServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *avatarServiceImpl) Upload(ctx context.Context, userID string, data []byte) error {
	if len(data) > maxAvatarBytes {
		s.logger.Error().
			Int("size", len(data)).
			Msg("avatar upload too large")
		return ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to decode avatar image")
		return ErrInvalidImage
	}

	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to encode avatar image")
		return err
	}

	const updateAvatarQuery = `
UPDATE users
SET avatar = $1,
    updated_at = $2
WHERE id = $3
`
	tag, err := s.db.Exec(
		ctx,
		updateAvatarQuery,
		buf.Bytes(),
		time.Now(),
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to update avatar")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("user_id", userID).
			Msg("user not found")
		return ErrUserNotFound
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("size", buf.Len()).
		Msg("uploaded avatar")
	return nil
}

func (s *avatarServiceImpl) Delete(ctx context.Context, userID string) error {
	const clearAvatarQuery = `
UPDATE users
SET avatar = NULL,
    updated_at = $1
WHERE id = $2
`
	tag, err := s.db.Exec(
		ctx,
		clearAvatarQuery,
		time.Now(),
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to clear avatar")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("user_id", userID).
			Msg("user not found")
		return ErrUserNotFound
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("deleted avatar")
	return nil
}

func (s *avatarServiceImpl) GetByUserID(ctx context.Context, userID string) ([]byte, error) {
	var avatar []byte

	const selectAvatarQuery = `
SELECT avatar
FROM users
WHERE id = $1
`
	err := s.db.QueryRow(
		ctx,
		selectAvatarQuery,
		userID,
	).Scan(&avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select avatar")
		return nil, err
	}

	if len(avatar) == 0 {
		s.logger.Warn().
			Str("user_id", userID).
			Msg("user has no avatar")
		return nil, ErrUserNotFound
	}

	return avatar, nil
}
