package grimoire

import (
	"strconv"
	"strings"

	"github.com/mielalabs/mpl-magick/mpl"
)

// toInt coerces loosely the way transmute into Mana does. ok is false when
// the value has no integer reading.
func toInt(v mpl.Value) (int64, bool) {
	switch v.Kind() {
	case mpl.KindInt, mpl.KindFloat:
		return v.Int(), true
	case mpl.KindBool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case mpl.KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat(v mpl.Value) (float64, bool) {
	switch v.Kind() {
	case mpl.KindInt, mpl.KindFloat:
		return v.Float(), true
	case mpl.KindBool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case mpl.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// optString returns args[i] as text, or fallback when it was not supplied.
func optString(args []mpl.Value, i int, fallback string) string {
	if i >= len(args) {
		return fallback
	}
	return args[i].String()
}
