package filter

import (
	"errors"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
)

var sentinels = []string{"", `""`, "null", "NaN"}

func genVehicleParams() gopter.Gen {
	return gen.MapOf(
		gen.OneConstOf("CarId", "LicensePlate", "Project", "Brand"),
		gen.AlphaString(),
	)
}

// A sentinel value behaves exactly like an absent parameter.
func TestPropertySentinelValuesAreNoOps(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("adding a sentinel-valued filter does not change the condition", prop.ForAll(
		func(params map[string]string, field string, idx int) bool {
			base := make(map[string]string, len(params))
			for k, v := range params {
				if k != field {
					base[k] = v
				}
			}
			want, err := Compile(ResourceVehicle, base)
			if err != nil {
				return false
			}

			withSentinel := make(map[string]string, len(base)+1)
			for k, v := range base {
				withSentinel[k] = v
			}
			withSentinel[field] = sentinels[idx]

			got, err := Compile(ResourceVehicle, withSentinel)
			return err == nil && got.String() == want.String()
		},
		genVehicleParams(),
		gen.OneConstOf("Brand", "PowerType", "AutonomousVehicle", "minBuyTime", "BuyTime"),
		gen.IntRange(0, len(sentinels)-1),
	))

	properties.TestingRun(t)
}

// One unknown key fails compilation no matter what else is present.
func TestPropertyUnknownKeyAlwaysFails(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("unknown key yields UNKNOWN_FIELD", prop.ForAll(
		func(params map[string]string, unknown string, value string) bool {
			key := "x" + unknown
			in := make(map[string]string, len(params)+1)
			for k, v := range params {
				in[k] = v
			}
			in[key] = value

			_, err := Compile(ResourceVehicle, in)
			return errors.Is(err, domainerrors.ErrUnknownField)
		},
		genVehicleParams(),
		gen.AlphaString(),
		gen.OneGenOf(gen.AlphaString(), gen.OneConstOf(sentinels[0], sentinels[1], sentinels[2], sentinels[3])),
	))

	properties.TestingRun(t)
}

// Every in-range epoch second compiles, every out-of-range one fails.
func TestPropertyRangeBounds(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("bounds inside years 1..9999 compile", prop.ForAll(
		func(sec int64) bool {
			cond, err := Compile(ResourceVehicle, map[string]string{"minBuyTime": strconv.FormatInt(sec, 10)})
			if err != nil {
				return false
			}
			c, ok := cond.Get("buy_time")
			return ok && c.HasMin && c.Min.Unix() == sec
		},
		gen.Int64Range(MinEpochSeconds, MaxEpochSeconds),
	))

	properties.Property("bounds outside years 1..9999 fail", prop.ForAll(
		func(over int64, below bool) bool {
			sec := MaxEpochSeconds + over
			if below {
				sec = MinEpochSeconds - over
			}
			_, err := Compile(ResourceVehicle, map[string]string{"maxBuyTime": strconv.FormatInt(sec, 10)})
			return errors.Is(err, domainerrors.ErrBadTimestamp)
		},
		gen.Int64Range(1, 1<<40),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
