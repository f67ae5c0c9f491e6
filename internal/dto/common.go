package dto

import (
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
)

// Caller is the authenticated identity of a request. Handlers read it
// from the gin context and pass it to services explicitly.
type Caller struct {
	UserID    string
	Email     string
	Admin     bool
	Confirmed bool
	TokenUsed bool
}

// EpochPtr converts an optional instant to epoch seconds.
func EpochPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.Unix()
	return &v
}

// TimePtr converts optional epoch seconds to a UTC instant.
func TimePtr(epoch *int64) *time.Time {
	if epoch == nil {
		return nil
	}
	t := time.Unix(*epoch, 0).UTC()
	return &t
}

// ResourceURL is the canonical location of one entity.
func ResourceURL(route, id string) string {
	return constants.APIBasePath + "/" + route + "/" + id
}

// StringPtr returns nil for an empty reference.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
