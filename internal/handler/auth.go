package handler

import (
	"net/http"

	"github.com/contactdesk/backend/internal/constants"
	"github.com/contactdesk/backend/internal/dto"
	apperrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/middleware"
	"github.com/contactdesk/backend/internal/service"
	ctxutil "github.com/contactdesk/backend/pkg/context"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a new account. All signup rejections, including empty
// fields, respond with 409 so the endpoint leaks nothing about which check
// failed.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Signup")

	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Malformed signup request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid request body", nil))
		return
	}

	user, err := h.authService.Signup(ctx, req.Username, req.Password)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.WarnWithContext(ctx, "Signup rejected").
			String("username", req.Username).
			Int("http_status", status).
			Err(err).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// Login exchanges credentials for an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid request body", nil))
		return
	}

	_, accessToken, refreshToken, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.WarnWithContext(ctx, "Login rejected").
			String("username", req.Username).
			Int("http_status", status).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.BearerScheme,
	})
}

// Logout clears the authenticated user's stored refresh token, revoking
// every outstanding token of the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("invalid token", nil))
		return
	}

	if err := h.authService.Logout(ctx, user); err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.ErrorWithContext(ctx, "Logout failed").
			Int("http_status", status).
			Err(err).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("logged out"))
}

// Refresh rotates a refresh token into a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Refresh")

	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("invalid request body", nil))
		return
	}

	_, accessToken, refreshToken, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.WarnWithContext(ctx, "Refresh rejected").
			Int("http_status", status).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.BearerScheme,
	})
}

// VerifyEmail consumes the opaque token from the verification link.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "VerifyEmail")

	token := c.Param("token")
	if err := h.authService.VerifyEmail(ctx, token); err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.WarnWithContext(ctx, "Email verification rejected").
			Int("http_status", status).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("email verified"))
}

// UploadAvatar stores a new avatar for the authenticated user. The image
// arrives as a multipart "file" part and must be JPEG or PNG.
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UploadAvatar")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("invalid token", nil))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("missing file", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("unreadable file", nil))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get(constants.HeaderContentType)
	url, err := h.authService.UploadAvatar(ctx, user, file, fileHeader.Size, contentType)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		logger.WarnWithContext(ctx, "Avatar upload rejected").
			String("content_type", contentType).
			Int("http_status", status).
			Err(err).
			Log()
		c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
