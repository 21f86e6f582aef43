package handlers

import (
	"net/http"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService *services.AuthService
	cookie      CookieConfig
	validator   *validator.Validate
}

func NewAuthHandler(authService *services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.authService.TokenTTL().Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// Register creates an account and starts a session
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, "Registration failed", err)
		return
	}

	h.setSession(c, result.Token)
	utils.SuccessResponse(c, http.StatusCreated, "Registration successful", result)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, "Authentication failed", err)
		return
	}

	h.setSession(c, result.Token)
	utils.SuccessResponse(c, http.StatusOK, "Login successful", result)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSession(c)
	utils.SuccessResponse(c, http.StatusOK, "Logout successful", nil)
}

// RefreshToken reissues the session token when it is close to expiry
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := h.authService.RefreshToken(middleware.TokenFromRequest(c, h.cookie.Name))
	if err != nil {
		serviceError(c, "Token refresh failed", err)
		return
	}

	h.setSession(c, token)
	utils.SuccessResponse(c, http.StatusOK, "Token refreshed successfully", gin.H{"token": token})
}

func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var req services.CheckEmailRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	exists, err := h.authService.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		serviceError(c, "Failed to check email", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Email checked", gin.H{"exists": exists})
}

// SecurityQuestions lists the recovery questions for an email address
func (h *AuthHandler) SecurityQuestions(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Email parameter is required", nil)
		return
	}

	questions, err := h.authService.SecurityQuestionsForEmail(c.Request.Context(), email)
	if err != nil {
		serviceError(c, "Failed to retrieve security questions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Security questions retrieved successfully", gin.H{"questions": questions})
}

func (h *AuthHandler) VerifySecurityQuestions(c *gin.Context) {
	var req services.VerifySecurityQuestionsRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	result, err := h.authService.VerifySecurityQuestions(c.Request.Context(), &req)
	if err != nil {
		serviceError(c, "Verification failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Security answers verified", result)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		serviceError(c, "Password reset failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", nil)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, "Failed to retrieve user", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User retrieved successfully", user)
}

func (h *AuthHandler) MySecurityQuestions(c *gin.Context) {
	questions, err := h.authService.MySecurityQuestions(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, "Failed to retrieve security questions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Security questions retrieved successfully", gin.H{"questions": questions})
}

// UpdateSecurityQuestions replaces the user's recovery questions
func (h *AuthHandler) UpdateSecurityQuestions(c *gin.Context) {
	var req services.SetSecurityQuestionsRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	if err := h.authService.SetSecurityQuestions(c.Request.Context(), middleware.UserID(c), &req); err != nil {
		serviceError(c, "Failed to update security questions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Security questions updated successfully", nil)
}
