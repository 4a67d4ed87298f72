package services

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/feanor306/task-app-api/internal/models"
	"github.com/feanor306/task-app-api/internal/postgres"
)

type userServiceImpl struct {
	logger   zerolog.Logger
	db       postgres.DB
	tokens   TokenService
	notifier Notifier
}

func NewUserService(
	logger zerolog.Logger,
	db postgres.DB,
	tokens TokenService,
	notifier Notifier,
) UserService {
	return &userServiceImpl{
		logger:   logger,
		db:       db,
		tokens:   tokens,
		notifier: notifier,
	}
}

func (s *userServiceImpl) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	now := time.Now()
	user := models.User{
		Name:      params.Name,
		Email:     params.Email,
		Age:       params.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUserQuery = `
INSERT INTO users (id,
                   name,
                   email,
                   password,
                   age,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = tx.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.Age,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrEmailTaken
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("inserted user")

	token, err := s.tokens.Issue(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.notifier.SendWelcome(user.Email, user.Name)

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("registered user")
	return &AuthResult{User: &user, Token: token}, nil
}

func (s *userServiceImpl) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user := models.User{
		Email: params.Email,
	}

	const selectUserByEmailQuery = `
SELECT id,
       name,
       password,
       age,
       created_at,
       updated_at
FROM users
WHERE email = $1
`
	err := s.db.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Password,
		&user.Age,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return &AuthResult{User: &user, Token: token}, nil
}

func (s *userServiceImpl) Update(ctx context.Context, userID string, params UpdateParams) (*models.User, error) {
	if params.Password != nil {
		passwordHash, err := argon2id.CreateHash(*params.Password, argon2id.DefaultParams)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to hash password")
			return nil, err
		}
		params.Password = &passwordHash
	}

	user := models.User{
		ID:        userID,
		UpdatedAt: time.Now(),
	}

	const updateUserQuery = `
UPDATE users
SET name = COALESCE($1, name),
    email = COALESCE($2, email),
    password = COALESCE($3, password),
    age = COALESCE($4, age),
    updated_at = $5
WHERE id = $6
RETURNING name, email, age, created_at
`
	err := s.db.QueryRow(
		ctx,
		updateUserQuery,
		params.Name,
		params.Email,
		params.Password,
		params.Age,
		user.UpdatedAt,
		user.ID,
	).Scan(
		&user.Name,
		&user.Email,
		&user.Age,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user with this email already exists")
			return nil, ErrEmailTaken
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("updated user")
	return &user, nil
}

func (s *userServiceImpl) Delete(ctx context.Context, userID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user := models.User{
		ID: userID,
	}

	const selectUserByIDQuery = `
SELECT name,
       email
FROM users
WHERE id = $1
`
	err = tx.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Name,
		&user.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("user not found")
			return ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select user by id")
		return err
	}

	const deleteTasksByUserIDQuery = `
DELETE FROM tasks
WHERE user_id = $1
`
	tag, err := tx.Exec(
		ctx,
		deleteTasksByUserIDQuery,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to delete tasks by user id")
		return err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted tasks by user id")

	const deleteTokensByUserIDQuery = `
DELETE FROM tokens
WHERE user_id = $1
`
	tag, err = tx.Exec(
		ctx,
		deleteTokensByUserIDQuery,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to delete tokens by user id")
		return err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted tokens by user id")

	const deleteUserQuery = `
DELETE FROM users
WHERE id = $1
`
	_, err = tx.Exec(
		ctx,
		deleteUserQuery,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to delete user")
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	s.notifier.SendCancellation(user.Email, user.Name)

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("deleted user")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
