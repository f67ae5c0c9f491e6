package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// Authenticator resolves request credentials to a caller.
type Authenticator interface {
	AuthenticateBasic(ctx context.Context, emailOrToken, password string) (dto.Caller, error)
	AuthenticateToken(ctx context.Context, token string) (dto.Caller, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth accepts HTTP Basic (email and password, or a token as the
// username with an empty password) and Bearer tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithFunction(c.Request.Context(), "middleware", "RequireAuth")

		caller, err := m.authenticate(ctx, c)
		if err != nil {
			status := domainerrors.ToHTTPStatus(err)
			message := domainerrors.ErrUnauthorized.Message
			if status != http.StatusUnauthorized {
				message = domainerrors.GetErrorMessage(err)
			} else {
				c.Header(constants.HeaderWWWAuth, `Basic realm="Authentication Required"`)
			}

			logger.WarnWithContext(ctx, "Authentication rejected").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				StatusCode(status).
				Err(err).
				Log()

			c.AbortWithStatusJSON(status, constants.BuildErrorResponse(status, message))
			return
		}

		c.Set(constants.GinKeyCaller, caller)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), caller.UserID))
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(ctx context.Context, c *gin.Context) (dto.Caller, error) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return dto.Caller{}, domainerrors.ErrUnauthorized
	}

	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		if token == "" {
			return dto.Caller{}, domainerrors.ErrUnauthorized
		}
		return m.auth.AuthenticateToken(ctx, token)
	}

	username, password, ok := c.Request.BasicAuth()
	if !ok {
		return dto.Caller{}, domainerrors.ErrUnauthorized
	}
	return m.auth.AuthenticateBasic(ctx, username, password)
}

// CallerFrom returns the caller stored by RequireAuth.
func CallerFrom(c *gin.Context) dto.Caller {
	if v, ok := c.Get(constants.GinKeyCaller); ok {
		if caller, ok := v.(dto.Caller); ok {
			return caller
		}
	}
	return dto.Caller{}
}
