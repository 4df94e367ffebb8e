package grimoire

import (
	"context"
	"math"
	"strings"

	"github.com/mielalabs/mpl-magick/mpl"
)

func (r *Registry) occultatorModule() Module {
	return Module{
		Name: "occultator",
		Doc:  "esoteric arithmetic: digital roots, golden spirals, prime seals",
		Functions: []Function{
			{Name: "reduce_tesla", Params: []string{"n"}, Required: 1, Doc: "digital root (1-9, 0 for 0)", Handler: intHandler(ReduceTesla)},
			{Name: "expand_fibonacci", Params: []string{"n"}, Required: 1, Doc: "nearest Fibonacci number", Handler: intHandler(NearestFibonacci)},
			{Name: "solomon_key", Params: []string{"text"}, Required: 1, Doc: "smallest prime at or above the code point sum", Handler: textHandler(SolomonKey)},
			{Name: "gematria", Params: []string{"text"}, Required: 1, Doc: "code point sum of the upper-cased text", Handler: textHandler(Gematria)},
			{Name: "harmonics", Params: []string{"n"}, Required: 1, Doc: "3-6-9 harmonic divisions of a raw value", Handler: harmonics},
			{Name: "calculate", Params: []string{"value", "mode"}, Required: 1, Doc: "route by mode: TESLA, FIBONACCI or SOLOMON", Handler: calculate},
		},
	}
}

func intHandler(fn func(int64) int64) Handler {
	return func(_ context.Context, args []mpl.Value) (mpl.Value, error) {
		n, ok := toInt(args[0])
		if !ok {
			return mpl.NewInt(0), nil
		}
		return mpl.NewInt(fn(n)), nil
	}
}

func textHandler(fn func(string) int64) Handler {
	return func(_ context.Context, args []mpl.Value) (mpl.Value, error) {
		return mpl.NewInt(fn(args[0].String())), nil
	}
}

// ReduceTesla returns the digital root of n, e.g. 452 -> 2.
func ReduceTesla(n int64) int64 {
	if n == 0 {
		return 0
	}
	m := (n - 1) % 9
	if m < 0 {
		m += 9
	}
	return m + 1
}

// NearestFibonacci returns the Fibonacci number closest to target, the
// lower one on ties. Non-positive targets give 0.
func NearestFibonacci(target int64) int64 {
	if target <= 0 {
		return 0
	}
	a, b := int64(0), int64(1)
	for b < target {
		if b > math.MaxInt64-a {
			// b is the last Fibonacci number an int64 holds
			return b
		}
		a, b = b, a+b
	}
	if target-a <= b-target {
		return a
	}
	return b
}

// SolomonKey returns the first prime at or above the code point sum of text.
func SolomonKey(text string) int64 {
	candidate := runeSum(text)
	for !isPrime(candidate) {
		candidate++
	}
	return candidate
}

// Gematria is the code point sum of the upper-cased name.
func Gematria(name string) int64 {
	return runeSum(strings.ToUpper(name))
}

// Harmonics divides a raw gematria value into its 3-6-9 lookback periods.
func Harmonics(raw int64) map[string]int64 {
	return map[string]int64{
		"raw_trend":  raw,
		"harmonic_3": raw / 3,
		"harmonic_6": raw / 6,
		"harmonic_9": raw / 9,
	}
}

func harmonics(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	raw, _ := toInt(args[0])
	out := make(map[string]mpl.Value, 4)
	for k, v := range Harmonics(raw) {
		out[k] = mpl.NewInt(v)
	}
	return mpl.NewVessel(out), nil
}

// calculate routes to one engine by mode; unknown modes yield Void.
func calculate(ctx context.Context, args []mpl.Value) (mpl.Value, error) {
	switch strings.ToUpper(optString(args, 1, "TESLA")) {
	case "TESLA":
		return intHandler(ReduceTesla)(ctx, args[:1])
	case "FIBONACCI":
		return intHandler(NearestFibonacci)(ctx, args[:1])
	case "SOLOMON":
		return textHandler(SolomonKey)(ctx, args[:1])
	default:
		return mpl.NewVoid(), nil
	}
}

func runeSum(text string) int64 {
	var sum int64
	for _, r := range text {
		sum += int64(r)
	}
	return sum
}

func isPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	for i := int64(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}
