package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	"github.com/Payphone-Digital/fleet-registry/internal/middleware"
	"github.com/Payphone-Digital/fleet-registry/internal/service"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	var req dto.UserLoginRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	logger.InfoWithContext(ctx, "User login attempt").
		String("email", req.Email).
		Log()

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		respondError(c, ctx, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// IssueToken trades the Basic credentials of the request for a token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "IssueToken")

	tok, err := h.authService.IssueToken(ctx, middleware.CallerFrom(c))
	if err != nil {
		respondError(c, ctx, "Token request rejected", err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (h *AuthHandler) RequestReset(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RequestReset")

	var req dto.ResetRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(ctx, req); err != nil {
		respondError(c, ctx, "Password reset request failed", err)
		return
	}
	c.JSON(http.StatusAccepted, constants.BuildSuccessResponse("An email with instructions to reset your password has been sent to you."))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.authService.ResetPassword(ctx, c.Param("token"), req); err != nil {
		respondError(c, ctx, "Password reset failed", err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Your password has been updated."))
}

func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResendConfirmation")

	if err := h.authService.ResendConfirmation(ctx, middleware.CallerFrom(c)); err != nil {
		respondError(c, ctx, "Failed to resend confirmation", err)
		return
	}
	c.JSON(http.StatusAccepted, constants.BuildSuccessResponse("A new confirmation email has been sent to you by email."))
}

func (h *AuthHandler) Confirm(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Confirm")

	if err := h.authService.Confirm(ctx, middleware.CallerFrom(c), c.Param("token")); err != nil {
		respondError(c, ctx, "Confirmation failed", err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("You have confirmed your account."))
}

func (h *AuthHandler) RequestEmailChange(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RequestEmailChange")

	var req dto.ChangeEmailRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.authService.RequestEmailChange(ctx, middleware.CallerFrom(c), req); err != nil {
		respondError(c, ctx, "Email change request failed", err)
		return
	}
	c.JSON(http.StatusAccepted, constants.BuildSuccessResponse("An email with instructions to confirm your new email address has been sent to you."))
}

func (h *AuthHandler) ChangeEmail(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ChangeEmail")

	if err := h.authService.ChangeEmail(ctx, middleware.CallerFrom(c), c.Param("token")); err != nil {
		respondError(c, ctx, "Email change failed", err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Your email address has been updated."))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ChangePassword")

	var req dto.ChangePasswordRequest
	if !bindJSON(c, ctx, &req) {
		return
	}

	if err := h.authService.ChangePassword(ctx, middleware.CallerFrom(c), req); err != nil {
		respondError(c, ctx, "Password change failed", err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Your password has been updated."))
}
