package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/volunnet/volunnet/internal/app/models/dto"
	"github.com/volunnet/volunnet/internal/app/services"
	"github.com/volunnet/volunnet/internal/middleware"
)

// CookieSettings describes the session and refresh cookies
type CookieSettings struct {
	SessionName string
	RefreshName string
	Domain      string
	Secure      bool
}

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	cookies     CookieSettings
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, cookies CookieSettings, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

func (c *AuthController) setSessionCookies(ctx *gin.Context, token dto.TokenResponse) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookies.SessionName, token.AccessToken, int(token.ExpiresIn), "/", c.cookies.Domain, c.cookies.Secure, true)
	if token.RefreshToken != "" {
		ctx.SetCookie(c.cookies.RefreshName, token.RefreshToken, int(token.RefreshTokenExpiresIn), "/api/v1/auth", c.cookies.Domain, c.cookies.Secure, true)
	}
}

func (c *AuthController) clearSessionCookies(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookies.SessionName, "", -1, "/", c.cookies.Domain, c.cookies.Secure, true)
	ctx.SetCookie(c.cookies.RefreshName, "", -1, "/api/v1/auth", c.cookies.Domain, c.cookies.Secure, true)
}

// refreshToken reads the refresh token from an optional JSON body, then from the refresh cookie
func (c *AuthController) refreshToken(ctx *gin.Context) (string, bool) {
	var req dto.RefreshTokenRequest
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return "", false
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = ctx.Cookie(c.cookies.RefreshName)
	}
	return req.RefreshToken, true
}

// Register handles user registration
// @Summary Register a new volunteer or organization
// @Description Creates the account, its role profile and default notification preferences, then starts a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("role", string(req.Role)).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", resp.User.ID).Str("role", resp.User.Role).Msg("User registered")
	c.setSessionCookies(ctx, resp.Token)
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "Registration successful"))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and sets the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Info().Err(err).Msg("Login rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookies(ctx, resp.Token)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Login successful"))
}

// RefreshToken rotates the refresh token
// @Summary Refresh session
// @Description Exchanges a refresh token (body or cookie) for a new token pair. The old refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	token, ok := c.refreshToken(ctx)
	if !ok {
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), token)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookies(ctx, resp.Token)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Session refreshed"))
}

// Logout revokes the caller's sessions and clears the cookies
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	token, ok := c.refreshToken(ctx)
	if !ok {
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), middleware.UserID(ctx), token); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.clearSessionCookies(ctx)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Logged out"))
}

// VerifyEmail consumes a verification token
// @Summary Verify email address
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired token"
// @Router /auth/verify-email [get]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Verification token is required").WithField("token")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.authService.VerifyEmail(ctx.Request.Context(), token); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Email verified"))
}

// ResendVerification issues a fresh verification link
// @Summary Resend verification email
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Already verified"
// @Security BearerAuth
// @Router /auth/resend-verification [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	if err := c.authService.ResendVerification(ctx.Request.Context(), middleware.UserID(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Verification email sent"))
}

// ForgotPassword starts a password reset. The answer is the same whether or not the email is known.
// @Summary Request a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.APIResponse
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.authService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "If the account exists, a reset link has been sent"))
}

// ResetPassword sets a new password with a reset token
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "Invalid or used token"
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if err := c.authService.ResetPassword(ctx.Request.Context(), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.clearSessionCookies(ctx)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Password updated"))
}

// Me returns the current user and their profile
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.MeResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	me, err := c.authService.Me(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(me, ""))
}
