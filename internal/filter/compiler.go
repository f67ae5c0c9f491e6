package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
)

const (
	minPrefix = "min"
	maxPrefix = "max"
)

// Epoch second bounds of years 1 through 9999 UTC.
const (
	MinEpochSeconds int64 = -62135596800
	MaxEpochSeconds int64 = 253402300799
)

// IsNoValue reports whether a raw parameter value means "no filter".
func IsNoValue(v string) bool {
	switch v {
	case "", `""`, "null", "NaN":
		return true
	}
	return false
}

// FirstValues flattens query values to their first value per key.
func FirstValues(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		} else {
			out[k] = ""
		}
	}
	return out
}

type boundKind int

const (
	plainKey boundKind = iota
	lowerKey
	upperKey
)

type classified struct {
	param string
	field Field
	bound boundKind
	value string
}

// Compile validates raw list parameters against the registry of resource
// and builds the Condition. The page parameter is ignored. Errors carry
// the UNKNOWN_FIELD, BAD_TIMESTAMP or BAD_ENUM codes.
func Compile(resource string, params map[string]string) (Condition, error) {
	reg := FieldsFor(resource)

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == constants.QueryParamPage {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Every key must be attributable before any value is looked at.
	items := make([]classified, 0, len(keys))
	for _, k := range keys {
		item, ok := classify(reg, k)
		if !ok {
			return Condition{}, domainerrors.WithMessage(domainerrors.ErrUnknownField,
				"Parameter error: unknown filter %q.", k)
		}
		item.value = params[k]
		items = append(items, item)
	}

	byKey := make(map[string]Constraint, len(items))
	for _, item := range items {
		if IsNoValue(item.value) {
			continue
		}

		f := item.field
		if item.bound != plainKey {
			t, err := parseEpoch(item.param, item.value)
			if err != nil {
				return Condition{}, err
			}
			c, exists := byKey[f.Key]
			if exists && c.Op != OpRange {
				return Condition{}, conflictingTimestamp(f)
			}
			c.Key, c.Kind, c.Op = f.Key, f.Kind, OpRange
			if item.bound == lowerKey {
				c.Min, c.HasMin = t, true
			} else {
				c.Max, c.HasMax = t, true
			}
			byKey[f.Key] = c
			continue
		}

		if c, exists := byKey[f.Key]; exists && c.Op == OpRange {
			return Condition{}, conflictingTimestamp(f)
		}

		c, err := coerce(item.param, f, item.value)
		if err != nil {
			return Condition{}, err
		}
		byKey[f.Key] = c
	}

	return newCondition(resource, byKey), nil
}

func classify(reg *Registry, key string) (classified, bool) {
	if f, ok := reg.Lookup(key); ok {
		return classified{param: key, field: f, bound: plainKey}, true
	}

	var bound boundKind
	var rest string
	switch {
	case strings.HasPrefix(key, minPrefix):
		bound, rest = lowerKey, key[len(minPrefix):]
	case strings.HasPrefix(key, maxPrefix):
		bound, rest = upperKey, key[len(maxPrefix):]
	default:
		return classified{}, false
	}

	f, ok := reg.Lookup(rest)
	if !ok || !f.Rangeable {
		return classified{}, false
	}
	return classified{param: key, field: f, bound: bound}, true
}

func coerce(param string, f Field, raw string) (Constraint, error) {
	c := Constraint{Key: f.Key, Kind: f.Kind, Op: OpEqual}

	switch f.Kind {
	case KindExact, KindReference:
		c.Value = raw
	case KindSubstring:
		c.Op = OpContains
		c.Value = raw
	case KindEnum:
		if !f.allows(raw) {
			return Constraint{}, domainerrors.WithMessage(domainerrors.ErrBadEnum,
				"%s must be one of %s.", param, strings.Join(f.allowed, ", "))
		}
		c.Value = raw
	case KindBool:
		switch raw {
		case "1":
			c.Value = true
		case "0":
			c.Value = false
		default:
			return Constraint{}, domainerrors.WithMessage(domainerrors.ErrBadEnum,
				"%s must be 1 or 0.", param)
		}
	case KindTimestamp:
		t, err := parseEpoch(param, raw)
		if err != nil {
			return Constraint{}, err
		}
		c.Value = t
	}
	return c, nil
}

// parseEpoch reads base-10 epoch seconds representable as a calendar
// instant in years 1 to 9999.
func parseEpoch(param, raw string) (time.Time, error) {
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || sec < MinEpochSeconds || sec > MaxEpochSeconds {
		return time.Time{}, domainerrors.WithMessage(domainerrors.ErrBadTimestamp,
			"utc timestamp out of range: %s.", param)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func conflictingTimestamp(f Field) error {
	return domainerrors.WithMessage(domainerrors.ErrBadTimestamp,
		"%s cannot be filtered by value and by range at once.", f.Name)
}
