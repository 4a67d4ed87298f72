package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer     = "task-app"
	testSigningKey = "test-signing-key"
)

func newTestTokenService(t *testing.T) (TokenService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewTokenService(zerolog.Nop(), mock, testIssuer, []byte(testSigningKey), time.Hour)
	return svc, mock
}

func signTestToken(t *testing.T, key, issuer, userID string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "email", "password", "age", "created_at", "updated_at",
	})
}

func TestTokenServiceIssue(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()

	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	signed, err := svc.Issue(context.Background(), mock, userID)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(testSigningKey), nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	require.True(t, ok)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceIssueDistinctTokens(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()

	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	first, err := svc.Issue(context.Background(), mock, userID)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), mock, userID)
	require.NoError(t, err)

	// Every login gets its own token; earlier ones are not reused.
	assert.NotEqual(t, first, second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceValidate(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()
	token := signTestToken(t, testSigningKey, testIssuer, userID, time.Hour)

	now := time.Now()
	mock.ExpectQuery("FROM tokens").
		WithArgs(token).
		WillReturnRows(userRows().
			AddRow(userID, "Baatman", "batman@example.com", "hash", 30, now, now))

	user, err := svc.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "batman@example.com", user.Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	svc, mock := newTestTokenService(t)

	_, err := svc.Validate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// Storage is never consulted for a token that fails parsing.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	svc, _ := newTestTokenService(t)
	token := signTestToken(t, "some-other-key", testIssuer, uuid.NewString(), time.Hour)

	_, err := svc.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceValidateExpired(t *testing.T) {
	svc, _ := newTestTokenService(t)
	token := signTestToken(t, testSigningKey, testIssuer, uuid.NewString(), -time.Minute)

	_, err := svc.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceValidateRevoked(t *testing.T) {
	svc, mock := newTestTokenService(t)
	token := signTestToken(t, testSigningKey, testIssuer, uuid.NewString(), time.Hour)

	mock.ExpectQuery("FROM tokens").
		WithArgs(token).
		WillReturnError(pgx.ErrNoRows)

	// A well-signed token whose row is gone is invalid: this is what
	// makes single-device logout effective.
	_, err := svc.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceValidateSubjectMismatch(t *testing.T) {
	svc, mock := newTestTokenService(t)
	token := signTestToken(t, testSigningKey, testIssuer, uuid.NewString(), time.Hour)

	now := time.Now()
	mock.ExpectQuery("FROM tokens").
		WithArgs(token).
		WillReturnRows(userRows().
			AddRow(uuid.NewString(), "Someone", "else@example.com", "hash", 0, now, now))

	_, err := svc.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRevoke(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()

	mock.ExpectExec("DELETE FROM tokens").
		WithArgs(userID, "the-token").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, svc.Revoke(context.Background(), userID, "the-token"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenServiceRevokeMissing(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()

	mock.ExpectExec("DELETE FROM tokens").
		WithArgs(userID, "the-token").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.Revoke(context.Background(), userID, "the-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceRevokeAll(t *testing.T) {
	svc, mock := newTestTokenService(t)
	userID := uuid.NewString()

	mock.ExpectExec("DELETE FROM tokens").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, svc.RevokeAll(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}
