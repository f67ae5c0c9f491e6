package constants

import "net/http"

// Standard Response Field Keys
const (
	ResponseFieldPrev    = "prev"
	ResponseFieldNext    = "next"
	ResponseFieldCount   = "count"
	ResponseFieldPage    = "page"
	ResponseFieldMessage = "message"
	ResponseFieldError   = "error"
)

// ErrorClass returns the error class string sent with a given status.
func ErrorClass(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrorClassBadRequest
	case http.StatusUnauthorized:
		return ErrorClassUnauthorized
	case http.StatusForbidden:
		return ErrorClassForbidden
	case http.StatusNotFound:
		return ErrorClassNotFound
	case http.StatusTooManyRequests:
		return ErrorClassTooManyRequests
	case http.StatusServiceUnavailable:
		return ErrorClassServiceUnavailable
	default:
		return ErrorClassInternal
	}
}

// BuildListResponse builds the list envelope keyed by the resource plural.
func BuildListResponse(key string, items any, prev, next *string, count int64, page int) map[string]any {
	return map[string]any{
		key:                items,
		ResponseFieldPrev:  prev,
		ResponseFieldNext:  next,
		ResponseFieldCount: count,
		ResponseFieldPage:  page,
	}
}

func BuildErrorResponse(status int, message string) map[string]any {
	return map[string]any{
		ResponseFieldError:   ErrorClass(status),
		ResponseFieldMessage: message,
	}
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldMessage: message,
	}
}
