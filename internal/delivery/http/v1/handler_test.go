package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/feanor306/task-app-api/internal/models"
	"github.com/feanor306/task-app-api/internal/postgres"
	"github.com/feanor306/task-app-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const validTestToken = "valid-test-token"

func testUser() *models.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:        "0197fa3d-2f5b-7c3e-9d10-1a2b3c4d5e6f",
		Name:      "Baatman",
		Email:     "batman@example.com",
		Password:  "$argon2id$not-a-real-hash",
		Age:       30,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type fakeUserService struct {
	registerFn func(services.RegisterParams) (*services.AuthResult, error)
	loginFn    func(services.LoginParams) (*services.AuthResult, error)
	updateFn   func(string, services.UpdateParams) (*models.User, error)
	deleteFn   func(string) error

	updateCalls int
	deleteCalls int
}

func (f *fakeUserService) Register(_ context.Context, params services.RegisterParams) (*services.AuthResult, error) {
	return f.registerFn(params)
}

func (f *fakeUserService) Login(_ context.Context, params services.LoginParams) (*services.AuthResult, error) {
	return f.loginFn(params)
}

func (f *fakeUserService) Update(_ context.Context, userID string, params services.UpdateParams) (*models.User, error) {
	f.updateCalls++
	return f.updateFn(userID, params)
}

func (f *fakeUserService) Delete(_ context.Context, userID string) error {
	f.deleteCalls++
	return f.deleteFn(userID)
}

type fakeTokenService struct {
	user *models.User

	revoked    [][2]string
	revokedAll []string
}

func (f *fakeTokenService) Issue(context.Context, postgres.Querier, string) (string, error) {
	panic("not used by handlers")
}

func (f *fakeTokenService) Validate(_ context.Context, token string) (*models.User, error) {
	if token == validTestToken && f.user != nil {
		return f.user, nil
	}
	return nil, services.ErrInvalidToken
}

func (f *fakeTokenService) Revoke(_ context.Context, userID, token string) error {
	f.revoked = append(f.revoked, [2]string{userID, token})
	return nil
}

func (f *fakeTokenService) RevokeAll(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

type fakeAvatarService struct {
	uploadFn func(string, []byte) error
	deleteFn func(string) error
	getFn    func(string) ([]byte, error)
}

func (f *fakeAvatarService) Upload(_ context.Context, userID string, data []byte) error {
	return f.uploadFn(userID, data)
}

func (f *fakeAvatarService) Delete(_ context.Context, userID string) error {
	return f.deleteFn(userID)
}

func (f *fakeAvatarService) GetByUserID(_ context.Context, userID string) ([]byte, error) {
	return f.getFn(userID)
}

func newTestRouter(users services.UserService, tokens services.TokenService, avatars services.AvatarService) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router, New(zerolog.Nop(), users, tokens, avatars))
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func performMultipart(t *testing.T, router *gin.Engine, path, token, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
