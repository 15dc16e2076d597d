package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
	"github.com/oksasatya/go-ddd-identity/pkg/response"
)

type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: cookies}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"omitempty,personname"`
	LastName  string `json:"last_name" binding:"omitempty,personname"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type googleRequest struct {
	// Token is a Google ID token, an authorization code or a callback URL carrying one.
	Token string `json:"token" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	signIn(c, h.Cookies, h.Svc.Tokens.RefreshTokenTTL(), res, http.StatusCreated, "registration successful")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	signIn(c, h.Cookies, h.Svc.Tokens.RefreshTokenTTL(), res, http.StatusOK, "login successful")
}

func (h *AuthHandler) Google(c *gin.Context) {
	var req googleRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Svc.ExternalProviderLogin(c.Request.Context(), application.ExternalLoginInput{
		Token:     req.Token,
		IPAddress: middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	signIn(c, h.Cookies, h.Svc.Tokens.RefreshTokenTTL(), res, http.StatusOK, "login successful")
}

func (h *AuthHandler) GoogleURL(c *gin.Context) {
	url, state, err := h.Svc.GoogleAuthURL(c.Query("state"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"url": url, "state": state}, "ok")
}

// Refresh accepts the refresh token in the body or the refresh_token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(helpers.RefreshCookie)
	}
	if token == "" {
		response.Abort(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	res, err := h.Svc.RefreshTokens(c.Request.Context(), token)
	if err != nil {
		response.FromError(c, err)
		return
	}
	signIn(c, h.Cookies, h.Svc.Tokens.RefreshTokenTTL(), res, http.StatusOK, "token refreshed")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), currentUser(c)); err != nil {
		response.FromError(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.OK(c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}

func (h *AuthHandler) VerifyInit(c *gin.Context) {
	if err := h.Svc.RequestEmailVerification(c.Request.Context(), currentUser(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusAccepted, gin.H{"sent": true}, "verification email sent")
}

func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req verifyConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.Svc.ConfirmEmailVerification(c.Request.Context(), req.Token)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user, "email verified")
}
