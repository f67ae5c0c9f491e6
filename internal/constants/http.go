package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderLocation      = "Location"
	HeaderWWWAuth       = "WWW-Authenticate"
)

// Error classes carried in the "error" field of every error body
const (
	ErrorClassBadRequest         = "bad request"
	ErrorClassUnauthorized       = "unauthorized"
	ErrorClassForbidden          = "forbidden"
	ErrorClassNotFound           = "notfound"
	ErrorClassTooManyRequests    = "too many requests"
	ErrorClassServiceUnavailable = "service unavailable"
	ErrorClassInternal           = "internal server error"
)

// Common HTTP Error Messages
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgNotFound           = "Resource not found, please check your url or parameter."
	MsgBadRequest         = "Invalid request"
	MsgInternalError      = "Internal server error"
	MsgRateLimited        = "Rate limit exceeded"
)
