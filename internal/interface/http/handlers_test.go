package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/messaging"
	"github.com/oksasatya/go-ddd-identity/internal/infrastructure/security"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
	"github.com/oksasatya/go-ddd-identity/pkg/validation"
)

const password = "Str0ng!pass"

type recordingEmails struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (r *recordingEmails) EnqueueEmail(_ context.Context, job mailer.EmailJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingEmails) lastVerifyToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.jobs) == 0 {
		return ""
	}
	link, _ := r.jobs[len(r.jobs)-1].Data["VerifyURL"].(string)
	_, token, _ := strings.Cut(link, "token=")
	return token
}

type memAvatars struct{}

func (memAvatars) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.test/" + objectPath, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type HandlerSuite struct {
	suite.Suite
	router *gin.Engine
	repo   *memory.UserRepository
	emails *recordingEmails
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	validation.Init()

	s.repo = memory.NewUserRepository()
	s.emails = &recordingEmails{}
	tokens := security.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour, "identity", "identity-api")
	sessions := cache.NewMemorySessionStore()

	svc := application.NewService(application.Deps{
		Users:          s.repo,
		Credentials:    s.repo,
		Passwords:      security.NewBcryptPasswordService(4),
		Tokens:         tokens,
		Events:         messaging.LogPublisher{},
		Emails:         s.emails,
		Sessions:       sessions,
		Verifications:  cache.NewMemoryVerificationStore(),
		Avatars:        memAvatars{},
		VerifyEmailURL: "https://app.test/verify",
	})

	authH := NewAuthHandler(svc, nil, helpers.NewCookie("", false))
	userH := NewUserHandler(svc, nil)
	adminH := NewAdminHandler(svc)
	requireAuth := middleware.Auth(tokens, sessions)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	api := r.Group("/api")
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/refresh", authH.Refresh)
	api.POST("/auth/verify/confirm", authH.VerifyConfirm)
	api.GET("/health", NewHealthHandler(map[string]Check{
		"memory": func(context.Context) error { return nil },
	}).Health)

	authed := api.Group("/", requireAuth)
	authed.POST("/auth/logout", authH.Logout)
	authed.POST("/auth/verify/init", authH.VerifyInit)
	authed.GET("/profile", userH.GetProfile)
	authed.PUT("/profile", userH.UpdateProfile)
	authed.POST("/profile/avatar", userH.UploadAvatar)
	authed.PUT("/profile/password", userH.ChangePassword)
	authed.GET("/admin/users", adminH.ListUsers)
	authed.POST("/admin/users/:id/suspend", adminH.Suspend)
	authed.PUT("/admin/users/:id/role", adminH.ChangeRole)
	authed.DELETE("/admin/users/:id", adminH.Delete)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, envelope) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var out T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &out))
	}
	return out, env
}

func (s *HandlerSuite) register(email string) application.AuthResult {
	rec := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"email": email, "password": password, "first_name": "Ann", "last_name": "Lee",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	res, _ := decode[application.AuthResult](s.T(), rec)
	return res
}

// activate verifies the user's email and optionally grants a role.
func (s *HandlerSuite) activate(email string, role vo.Role) {
	ctx := context.Background()
	em, err := vo.NewEmail(email)
	s.Require().NoError(err)
	u, err := s.repo.FindByEmail(ctx, em)
	s.Require().NoError(err)
	if role != "" {
		u.ChangeRole(role, time.Now())
	}
	_, err = u.VerifyEmail(time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Save(ctx, u))
}

func (s *HandlerSuite) TestRegisterSetsCookiesAndReturnsTokens() {
	rec := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"email": "ann@example.com", "password": password, "first_name": "Ann",
	}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	res, env := decode[application.AuthResult](s.T(), rec)
	s.True(env.Success)
	s.Equal(3600, res.ExpiresIn)
	s.NotEmpty(res.AccessToken)
	s.Equal("ann@example.com", res.User.Email)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	s.True(names[helpers.AccessCookie])
	s.True(names[helpers.RefreshCookie])

	profile := s.do(http.MethodGet, "/api/profile", nil, res.AccessToken)
	s.Equal(http.StatusOK, profile.Code)
	view, _ := decode[application.UserView](s.T(), profile)
	s.Equal(res.User.ID, view.ID)
}

func (s *HandlerSuite) TestRegisterWithoutNames() {
	rec := s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "anon@example.com", "password": password}, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	res, _ := decode[application.AuthResult](s.T(), rec)
	s.Equal("anon@example.com", res.User.Email)
	s.Empty(res.User.FirstName)
	s.Empty(res.User.DisplayName)
}

func (s *HandlerSuite) TestRegisterRejectsOverlongPassword() {
	long := password + strings.Repeat("x", 72)
	rec := s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "ann@example.com", "password": long}, "")
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestRegisterRejectsBadInput() {
	rec := s.do(http.MethodPost, "/api/auth/register", gin.H{"password": password, "first_name": "Ann"}, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	_, env := decode[any](s.T(), rec)
	s.Contains(string(env.Error), `"email"`)

	rec = s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "ann@example.com", "password": "weak", "first_name": "Ann"}, "")
	s.Equal(http.StatusBadRequest, rec.Code)

	s.register("dup@example.com")
	rec = s.do(http.MethodPost, "/api/auth/register", gin.H{"email": "DUP@example.com", "password": password, "first_name": "Ann"}, "")
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestLoginAfterEmailVerification() {
	res := s.register("ann@example.com")

	login := gin.H{"email": "ann@example.com", "password": password}
	rec := s.do(http.MethodPost, "/api/auth/login", login, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/verify/init", nil, res.AccessToken)
	s.Require().Equal(http.StatusAccepted, rec.Code, rec.Body.String())
	token := s.emails.lastVerifyToken()
	s.Require().NotEmpty(token)

	rec = s.do(http.MethodPost, "/api/auth/verify/confirm", gin.H{"token": token}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	view, _ := decode[application.UserView](s.T(), rec)
	s.True(view.EmailVerified)
	s.Equal("ACTIVE", view.Status)

	rec = s.do(http.MethodPost, "/api/auth/verify/confirm", gin.H{"token": token}, "")
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ann@example.com", "password": "Wr0ng!pass"}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", login, "")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestRefreshRotatesAndLogoutRevokes() {
	res := s.register("ann@example.com")
	s.activate("ann@example.com", "")

	rec := s.do(http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": res.RefreshToken}, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rotated, _ := decode[application.AuthResult](s.T(), rec)
	s.NotEqual(res.RefreshToken, rotated.RefreshToken)

	rec = s.do(http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": res.RefreshToken}, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: helpers.RefreshCookie, Value: rotated.RefreshToken})
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/refresh", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/logout", nil, rotated.AccessToken)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/profile", nil, rotated.AccessToken)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestProfileUpdateAndPasswordChange() {
	res := s.register("ann@example.com")
	s.activate("ann@example.com", "")

	rec := s.do(http.MethodPut, "/api/profile", gin.H{"last_name": "Smith"}, res.AccessToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	view, _ := decode[application.UserView](s.T(), rec)
	s.Equal("Ann Smith", view.DisplayName)

	rec = s.do(http.MethodPut, "/api/profile/password", gin.H{"current_password": "nope", "new_password": "N3w!password"}, res.AccessToken)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, "/api/profile/password", gin.H{"current_password": password, "new_password": "N3w!password"}, res.AccessToken)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ann@example.com", "password": "N3w!password"}, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestUploadAvatar() {
	res := s.register("ann@example.com")
	s.activate("ann@example.com", "")

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="Me.PNG"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	s.Require().NoError(err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile/avatar", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	view, _ := decode[application.UserView](s.T(), rec)
	s.True(strings.HasPrefix(view.Avatar, "https://cdn.test/avatars/"+res.User.ID+"/"))
	s.True(strings.HasSuffix(view.Avatar, ".png"))

	rec = s.do(http.MethodPost, "/api/profile/avatar", nil, res.AccessToken)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestAdministration() {
	admin := s.register("root@example.com")
	s.activate("root@example.com", vo.RoleAdmin)
	member := s.register("ann@example.com")
	s.activate("ann@example.com", "")

	rec := s.do(http.MethodGet, "/api/admin/users", nil, member.AccessToken)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/users", nil, admin.AccessToken)
	s.Require().Equal(http.StatusOK, rec.Code)
	users, env := decode[[]application.UserView](s.T(), rec)
	s.Len(users, 2)
	s.EqualValues(2, env.Meta["count"])

	rec = s.do(http.MethodPost, "/api/admin/users/"+admin.User.ID+"/suspend", nil, admin.AccessToken)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/users/"+member.User.ID+"/suspend", gin.H{"reason": "spam"}, admin.AccessToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	view, _ := decode[application.UserView](s.T(), rec)
	s.Equal("SUSPENDED", view.Status)

	rec = s.do(http.MethodGet, "/api/profile", nil, member.AccessToken)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPut, "/api/admin/users/"+member.User.ID+"/role", gin.H{"role": "KING"}, admin.AccessToken)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/admin/users/"+member.User.ID+"/role", gin.H{"role": "MODERATOR"}, admin.AccessToken)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	view, _ = decode[application.UserView](s.T(), rec)
	s.Equal("MODERATOR", view.Role)

	rec = s.do(http.MethodDelete, "/api/admin/users/"+member.User.ID, nil, admin.AccessToken)
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/api/admin/users/"+member.User.ID, nil, admin.AccessToken)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestProtectedRoutesNeedToken() {
	rec := s.do(http.MethodGet, "/api/profile", nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodGet, "/api/profile", nil, "not-a-jwt")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func TestHealthReportsFailingChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return assert.AnError },
	})
	r := gin.New()
	r.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}
