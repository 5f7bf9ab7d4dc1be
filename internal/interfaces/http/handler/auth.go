package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/infrastructure/auth"
	"github.com/spoolgate/backend/internal/infrastructure/config"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
	"github.com/spoolgate/backend/internal/interfaces/http/middleware"
)

// IdentityService is the part of the identity provider the auth endpoints use
type IdentityService interface {
	Login(ctx context.Context, username, password string) (*auth.IssuedToken, *auth.User, error)
	Revoke(ctx context.Context, identity auth.Identity) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	identity IdentityService
	cookie   config.CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity IdentityService, cookie config.CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultAuthCookie
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandler{identity: identity, cookie: cookie}
}

// Login authenticates an operator, sets the auth cookie and returns the token
//
//	@Summary		Operator login
//	@Description	Authenticate an operator and set the auth-token cookie
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequest	true	"Login credentials"
//	@Success		200		{object}	dto.Response{data=dto.LoginResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		429		{object}	dto.Response
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	token, user, err := h.identity.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Unauthorized(c, "Invalid username or password")
			return
		}
		h.HandleError(c, err)
		return
	}

	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	h.setCookie(c, token.Token, maxAge)

	h.Success(c, dto.LoginResponse{
		Token:     token.Token,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: token.ExpiresAt,
	})
}

// Logout revokes the caller's token and clears the cookie
//
//	@Summary		Operator logout
//	@Description	Revoke the current token and clear the cookie
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.identity.Revoke(c.Request.Context(), identity); err != nil {
		logger.GetGinLogger(c).Error("Failed to revoke token", zap.Error(err))
		h.InternalError(c, "Failed to log out")
		return
	}

	h.setCookie(c, "", -1)
	h.Success(c, nil)
}

// Me describes the authenticated caller
//
//	@Summary	Current operator
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	dto.Response{data=dto.IdentityResponse}
//	@Failure	401	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, dto.IdentityResponse{
		Username: identity.Subject,
		Role:     identity.Role,
		IsAdmin:  identity.IsAdmin(),
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
