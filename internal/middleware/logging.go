package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

const slowRequest = 2 * time.Second

// LoggingMiddleware sends the gin access log to zap.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			fields := []zap.Field{
				zap.String("method", param.Method),
				zap.String("path", param.Path),
				zap.Int("status_code", param.StatusCode),
				zap.Int64("latency_ms", param.Latency.Milliseconds()),
				zap.String("client_ip", param.ClientIP),
				zap.Int("body_size", param.BodySize),
			}
			if param.Request != nil {
				ctx := param.Request.Context()
				fields = append(fields,
					zap.String("user_agent", ctxutil.GetUserAgent(ctx)),
					zap.String("request_id", ctxutil.GetRequestID(ctx)),
				)
			}

			switch {
			case param.StatusCode >= http.StatusInternalServerError:
				logger.GetLogger().Error("HTTP request", append(fields, zap.String("error", param.ErrorMessage))...)
			case param.StatusCode >= http.StatusBadRequest:
				logger.GetLogger().Warn("HTTP request", fields...)
			case param.Latency > slowRequest:
				logger.GetLogger().Warn("Slow request detected", fields...)
			default:
				logger.GetLogger().Info("HTTP request", fields...)
			}

			return ""
		},
		Output: io.Discard,
	})
}

// RecoveryMiddleware turns panics into a 500 error body.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)

		c.AbortWithStatusJSON(http.StatusInternalServerError,
			constants.BuildErrorResponse(http.StatusInternalServerError, constants.MsgInternalError))
	})
}
