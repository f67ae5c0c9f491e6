// Package filter turns list query parameters into typed, store-neutral
// conditions. Each resource has a closed registry of filterable fields;
// anything outside it is rejected.
package filter

import (
	"fmt"
	"sort"
)

// Kind is the value kind of a filterable field.
type Kind int

const (
	KindExact Kind = iota
	KindSubstring
	KindEnum
	KindBool
	KindReference
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindSubstring:
		return "substring"
	case KindEnum:
		return "enum"
	case KindBool:
		return "boolean"
	case KindReference:
		return "reference"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Resource names
const (
	ResourceVehicle = "vehicle"
	ResourceDriver  = "driver"
	ResourceTask    = "task"
	ResourceTrip    = "trip"
	ResourceUser    = "user"
)

// Enum value sets
var (
	PowerTypes = []string{"electric", "hybrid", "fuel"}
	Genders    = []string{"male", "female", "other"}
)

// Field describes one filterable query parameter. Name is the parameter
// as clients send it, Key the column or document field it constrains.
type Field struct {
	Name      string
	Key       string
	Kind      Kind
	Rangeable bool
	allowed   []string
}

// Allowed returns the permitted values of an enum field.
func (f Field) Allowed() []string {
	out := make([]string, len(f.allowed))
	copy(out, f.allowed)
	return out
}

func (f Field) allows(v string) bool {
	for _, a := range f.allowed {
		if a == v {
			return true
		}
	}
	return false
}

// Registry is the immutable field set of one resource.
type Registry struct {
	resource string
	byName   map[string]Field
	names    []string
}

func newRegistry(resource string, fields ...Field) *Registry {
	r := &Registry{resource: resource, byName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := r.byName[f.Name]; dup {
			panic(fmt.Sprintf("filter: duplicate field %q for %s", f.Name, resource))
		}
		if f.Rangeable && f.Kind != KindTimestamp {
			panic(fmt.Sprintf("filter: field %q is rangeable but not a timestamp", f.Name))
		}
		r.byName[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	sort.Strings(r.names)
	return r
}

func (r *Registry) Resource() string { return r.resource }

// Lookup returns the field registered under a plain parameter name.
func (r *Registry) Lookup(name string) (Field, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Fields lists the registered fields ordered by name.
func (r *Registry) Fields() []Field {
	out := make([]Field, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.byName[n])
	}
	return out
}

func exact(name, key string) Field     { return Field{Name: name, Key: key, Kind: KindExact} }
func substring(name, key string) Field { return Field{Name: name, Key: key, Kind: KindSubstring} }
func boolean(name, key string) Field   { return Field{Name: name, Key: key, Kind: KindBool} }
func reference(name, key string) Field { return Field{Name: name, Key: key, Kind: KindReference} }

func enum(name, key string, allowed []string) Field {
	return Field{Name: name, Key: key, Kind: KindEnum, allowed: append([]string(nil), allowed...)}
}

func timestamp(name, key string) Field {
	return Field{Name: name, Key: key, Kind: KindTimestamp, Rangeable: true}
}

var registries = map[string]*Registry{
	ResourceVehicle: newRegistry(ResourceVehicle,
		exact("CarId", "car_id"),
		exact("LicensePlate", "license_plate"),
		exact("Project", "project"),
		substring("Brand", "brand"),
		enum("PowerType", "power_type", PowerTypes),
		boolean("AutonomousVehicle", "autonomous_vehicle"),
		timestamp("BuyTime", "buy_time"),
	),
	ResourceDriver: newRegistry(ResourceDriver,
		exact("DriverId", "driver_id"),
		substring("FirstName", "first_name"),
		substring("LastName", "last_name"),
		exact("City", "city"),
		enum("Gender", "gender", Genders),
		reference("Vehicle", "vehicle_id"),
		timestamp("BirthDay", "birth_day"),
	),
	ResourceTask: newRegistry(ResourceTask,
		reference("car", "car_id"),
		reference("driver", "driver_id"),
		boolean("is_return", "is_return"),
		exact("disk_number", "disk_number"),
		timestamp("start_time", "start_time"),
		timestamp("end_time", "end_time"),
	),
	ResourceTrip: newRegistry(ResourceTrip,
		reference("car", "car_id"),
		reference("driver", "driver_id"),
		exact("disk_number", "disk_number"),
		timestamp("start_time", "start_time"),
		timestamp("end_time", "end_time"),
	),
	ResourceUser: newRegistry(ResourceUser,
		exact("email", "email"),
		exact("username", "username"),
		substring("name", "name"),
		boolean("admin", "admin"),
		boolean("confirmed", "confirmed"),
	),
}

// FieldsFor returns the registry of a resource. An unknown resource is a
// wiring bug and panics.
func FieldsFor(resource string) *Registry {
	r, ok := registries[resource]
	if !ok {
		panic(fmt.Sprintf("filter: no registry for resource %q", resource))
	}
	return r
}

// Resources lists every resource with a registry.
func Resources() []string {
	out := make([]string, 0, len(registries))
	for name := range registries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
