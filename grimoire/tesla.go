package grimoire

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mielalabs/mpl-magick/mpl"
)

func (r *Registry) teslaModule() Module {
	return Module{
		Name: "tesla",
		Doc:  "time and frequency",
		Functions: []Function{
			{Name: "oscillate", Params: []string{"hz"}, Required: 1, Doc: "pause for hz seconds", Handler: r.oscillate},
			{Name: "amplify", Params: []string{"signal", "factor"}, Required: 2, Doc: "multiply a signal, warning on non-harmonic factors", Handler: r.amplify},
		},
	}
}

const (
	maxOscillation  = float64(math.MaxInt64) / float64(time.Second)
	maxAmplifyBytes = maxScryBytes
)

// oscillate sleeps for hz seconds, returning early when ctx is done.
func (r *Registry) oscillate(ctx context.Context, args []mpl.Value) (mpl.Value, error) {
	hz, ok := toFloat(args[0])
	if !ok || math.IsNaN(hz) || hz < 0 {
		return mpl.NewVoid(), fmt.Errorf("oscillate expects a non-negative frequency, got %s", args[0])
	}
	if hz >= maxOscillation {
		return mpl.NewVoid(), fmt.Errorf("oscillate frequency %s exceeds %.0f seconds", args[0], maxOscillation)
	}
	r.logger.Info("oscillating", "hz", hz)
	timer := time.NewTimer(time.Duration(hz * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return mpl.NewVoid(), ctx.Err()
	case <-timer.C:
		return mpl.NewVoid(), nil
	}
}

func (r *Registry) amplify(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	signal, factor := args[0], args[1]
	if !isHarmonic(factor) {
		r.logger.Warn("non-harmonic amplification detects dissonance", "factor", factor.String())
	}
	switch {
	case signal.Kind() == mpl.KindString && factor.Kind() == mpl.KindInt:
		text, n := signal.String(), factor.Int()
		if n <= 0 || text == "" {
			return mpl.NewString(""), nil
		}
		if n > int64(maxAmplifyBytes/len(text)) {
			return mpl.NewVoid(), fmt.Errorf("amplified signal would exceed %d bytes", maxAmplifyBytes)
		}
		return mpl.NewString(strings.Repeat(text, int(n))), nil
	case signal.IsNumeric() && factor.IsNumeric():
		return mpl.MultiplyValues(signal, factor)
	default:
		return mpl.NewVoid(), fmt.Errorf("cannot amplify %s by %s", signal.Kind(), factor.Kind())
	}
}

func isHarmonic(v mpl.Value) bool {
	if !v.IsNumeric() {
		return false
	}
	switch v.Float() {
	case 3, 6, 9:
		return true
	default:
		return false
	}
}
