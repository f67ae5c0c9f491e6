package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Op is the comparison a constraint applies.
type Op int

const (
	OpEqual Op = iota
	OpContains
	OpRange
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "eq"
	case OpContains:
		return "contains"
	case OpRange:
		return "range"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Constraint restricts one store key. Value holds a string for exact,
// substring, enum and reference kinds, a bool for booleans and a
// time.Time for timestamp equality. Range constraints use Min/Max and
// the HasMin/HasMax flags; both bounds are inclusive.
type Constraint struct {
	Key    string
	Kind   Kind
	Op     Op
	Value  any
	Min    time.Time
	Max    time.Time
	HasMin bool
	HasMax bool
}

// Text returns the string value of an equality or contains constraint.
func (c Constraint) Text() string {
	s, _ := c.Value.(string)
	return s
}

// Bool returns the value of a boolean constraint.
func (c Constraint) Bool() bool {
	b, _ := c.Value.(bool)
	return b
}

// Time returns the instant of a timestamp equality constraint.
func (c Constraint) Time() time.Time {
	t, _ := c.Value.(time.Time)
	return t
}

func (c Constraint) String() string {
	switch c.Op {
	case OpRange:
		var b strings.Builder
		b.WriteString(c.Key)
		b.WriteString(" in [")
		if c.HasMin {
			fmt.Fprintf(&b, "%d", c.Min.Unix())
		}
		b.WriteString(",")
		if c.HasMax {
			fmt.Fprintf(&b, "%d", c.Max.Unix())
		}
		b.WriteString("]")
		return b.String()
	default:
		v := c.Value
		if t, ok := v.(time.Time); ok {
			v = t.Unix()
		}
		return fmt.Sprintf("%s %s %q", c.Key, c.Op, fmt.Sprint(v))
	}
}

// Condition is the compiled, immutable filter of one list request.
// Constraints are kept sorted by key, one per key.
type Condition struct {
	resource    string
	constraints []Constraint
}

// Empty returns a condition matching every entity of the resource.
func Empty(resource string) Condition {
	return Condition{resource: resource}
}

func newCondition(resource string, byKey map[string]Constraint) Condition {
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cs := make([]Constraint, 0, len(keys))
	for _, k := range keys {
		cs = append(cs, byKey[k])
	}
	return Condition{resource: resource, constraints: cs}
}

func (c Condition) Resource() string { return c.resource }

func (c Condition) Len() int { return len(c.constraints) }

func (c Condition) IsEmpty() bool { return len(c.constraints) == 0 }

// Constraints returns a copy of the constraints in key order.
func (c Condition) Constraints() []Constraint {
	out := make([]Constraint, len(c.constraints))
	copy(out, c.constraints)
	return out
}

// Get returns the constraint on a store key.
func (c Condition) Get(key string) (Constraint, bool) {
	i := sort.Search(len(c.constraints), func(i int) bool { return c.constraints[i].Key >= key })
	if i < len(c.constraints) && c.constraints[i].Key == key {
		return c.constraints[i], true
	}
	return Constraint{}, false
}

// With returns a copy of c with an extra equality constraint, replacing
// any existing constraint on the same key. Services use it to scope a
// query without going through the compiler.
func (c Condition) With(key string, kind Kind, value any) Condition {
	byKey := make(map[string]Constraint, len(c.constraints)+1)
	for _, k := range c.constraints {
		byKey[k.Key] = k
	}
	byKey[key] = Constraint{Key: key, Kind: kind, Op: OpEqual, Value: value}
	return newCondition(c.resource, byKey)
}

// String renders the condition canonically. Equal conditions render
// equal strings, which makes it usable as a cache key component.
func (c Condition) String() string {
	parts := make([]string, len(c.constraints))
	for i, k := range c.constraints {
		parts[i] = k.String()
	}
	return c.resource + "{" + strings.Join(parts, "; ") + "}"
}
