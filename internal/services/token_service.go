package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/feanor306/task-app-api/internal/models"
	"github.com/feanor306/task-app-api/internal/postgres"
)

type tokenServiceImpl struct {
	logger     zerolog.Logger
	db         postgres.DB
	issuer     string
	signingKey []byte
	tokenTTL   time.Duration
}

func NewTokenService(
	logger zerolog.Logger,
	db postgres.DB,
	issuer string,
	signingKey []byte,
	tokenTTL time.Duration,
) TokenService {
	return &tokenServiceImpl{
		logger:     logger,
		db:         db,
		issuer:     issuer,
		signingKey: signingKey,
		tokenTTL:   tokenTTL,
	}
}

func (s *tokenServiceImpl) Issue(ctx context.Context, q postgres.Querier, userID string) (string, error) {
	tokenUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate token uuid")
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to sign token")
		return "", err
	}

	const insertTokenQuery = `
INSERT INTO tokens (id,
                    user_id,
                    token,
                    created_at)
VALUES ($1, $2, $3, $4)
`
	_, err = q.Exec(
		ctx,
		insertTokenQuery,
		tokenUUID.String(),
		userID,
		signed,
		now,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to insert token")
		return "", err
	}
	s.logger.Debug().
		Str("token_id", tokenUUID.String()).
		Str("user_id", userID).
		Msg("issued token")

	return signed, nil
}

func (s *tokenServiceImpl) Validate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to parse token")
		return nil, ErrInvalidToken
	}

	user := models.User{}

	const selectUserByTokenQuery = `
SELECT u.id,
       u.name,
       u.email,
       u.password,
       u.age,
       u.created_at,
       u.updated_at
FROM tokens t
         JOIN users u ON u.id = t.user_id
WHERE t.token = $1
`
	err = s.db.QueryRow(
		ctx,
		selectUserByTokenQuery,
		token,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Age,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().Msg("token revoked or user gone")
			return nil, ErrInvalidToken
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select user by token")
		return nil, err
	}

	if claims.Subject != user.ID {
		s.logger.Error().
			Str("subject", claims.Subject).
			Str("user_id", user.ID).
			Msg("token subject mismatch")
		return nil, ErrInvalidToken
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("validated token")

	return &user, nil
}

func (s *tokenServiceImpl) Revoke(ctx context.Context, userID, token string) error {
	const deleteTokenQuery = `
DELETE FROM tokens
WHERE user_id = $1 AND
      token = $2
`
	tag, err := s.db.Exec(
		ctx,
		deleteTokenQuery,
		userID,
		token,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete token")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("user_id", userID).
			Msg("token already revoked")
		return ErrInvalidToken
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("revoked token")
	return nil
}

func (s *tokenServiceImpl) RevokeAll(ctx context.Context, userID string) error {
	const deleteTokensByUserIDQuery = `
DELETE FROM tokens
WHERE user_id = $1
`
	tag, err := s.db.Exec(
		ctx,
		deleteTokensByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete tokens by user id")
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("revoked all tokens")
	return nil
}

func (s *tokenServiceImpl) parseToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("unexpected token claims")
	}
	return claims, nil
}
