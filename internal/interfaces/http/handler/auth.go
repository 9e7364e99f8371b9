package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/identity"
	"github.com/poinmhs/backend/internal/interfaces/http/dto"
	"github.com/poinmhs/backend/internal/interfaces/http/middleware"
)

// CookieSettings describes the session cookie written at login
type CookieSettings struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite string
}

func (s CookieSettings) sameSite() http.SameSite {
	switch strings.ToLower(s.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (s CookieSettings) name() string {
	if s.Name == "" {
		return middleware.DefaultTokenName
	}
	return s.Name
}

func (s CookieSettings) path() string {
	if s.Path == "" {
		return "/"
	}
	return s.Path
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookie      CookieSettings
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// Login godoc
// @ID           loginAuth
// @Summary      Log in
// @Description  Authenticate with a NIM or NIP and password. The token is returned and also set as an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Login credentials"
// @Success      200 {object} APIResponse[identity.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, result.AccessToken, int(time.Until(result.ExpiresAt).Seconds()))
	h.Success(c, result)
}

// Logout godoc
// @ID           logoutAuth
// @Summary      Log out
// @Description  Revoke the current token and clear the session cookie
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[MessageData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, "", -1)
	h.Success(c, MessageData{Message: "Logged out"})
}

// Me godoc
// @ID           getAuthMe
// @Summary      Current session
// @Description  Return the logged in user and, for students, their record summary
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identity.MeResult]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	result, err := h.authService.Me(c.Request.Context(), principal(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ChangePassword godoc
// @ID           changePasswordAuth
// @Summary      Change password
// @Description  Change the password of the logged in user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.ChangePasswordInput true "Old and new password"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req identity.ChangePasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationFailed(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), principal(c), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Password changed"})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.name(),
		Value:    value,
		Path:     h.cookie.path(),
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: h.cookie.sameSite(),
	})
}
