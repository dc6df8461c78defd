package middleware

import (
	"strings"

	"github.com/contactdesk/backend/internal/constants"
	domerrors "github.com/contactdesk/backend/internal/errors"
	"github.com/contactdesk/backend/internal/model"
	"github.com/contactdesk/backend/internal/service"
	ctxutil "github.com/contactdesk/backend/pkg/context"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextKeyUser is the gin context key the resolved user is stored under.
const ContextKeyUser = "auth_user"

type JWTMiddleware struct {
	auth *service.AuthService
}

func NewJWTMiddleware(auth *service.AuthService) *JWTMiddleware {
	return &JWTMiddleware{auth: auth}
}

// RequireAuth resolves the bearer token to a user and aborts with 401 when
// anything in the resolution chain fails.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			logger.GetLogger().Warn("Missing Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortUnauthorized(c, domerrors.ErrInvalidToken)
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != constants.BearerScheme {
			logger.GetLogger().Warn("Invalid Authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			abortUnauthorized(c, domerrors.ErrInvalidToken)
			return
		}

		user, err := m.auth.Resolve(c.Request.Context(), tokenParts[1])
		if err != nil {
			logger.GetLogger().Warn("Token resolution failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("reason", domerrors.GetErrorMessage(err)))
			abortUnauthorized(c, err)
			return
		}

		// Make the identity available to handlers and to structured logs
		c.Set(ContextKeyUser, user)
		ctx := ctxutil.WithUserID(c.Request.Context(), user.ID)
		ctx = ctxutil.WithUsername(ctx, user.Username)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(
		domerrors.ToHTTPStatus(err),
		constants.BuildErrorResponse(domerrors.GetErrorMessage(err), nil),
	)
}

// CurrentUser returns the user RequireAuth stored on the gin context.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	val, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil, false
	}
	user, ok := val.(*model.User)
	return user, ok
}
