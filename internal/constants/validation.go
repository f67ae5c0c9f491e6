package constants

import "time"

// Field Length Limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 32
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MaxNameLength     = 64
	MaxEmailLength    = 255
)

// Token lifetimes
const (
	AuthTokenTTL         = time.Hour
	ConfirmationTokenTTL = time.Hour
	ResetTokenTTL        = time.Hour
	EmailChangeTokenTTL  = time.Hour
)

// Validation Patterns
const (
	UsernamePattern = `^[A-Za-z][A-Za-z0-9_.]*$`
)
