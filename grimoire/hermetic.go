package grimoire

import (
	"context"
	"strings"

	"github.com/mielalabs/mpl-magick/mpl"
)

func (r *Registry) hermeticModule() Module {
	return Module{
		Name: "hermetic",
		Doc:  "transformation of elements and vessels",
		Functions: []Function{
			{Name: "transmute", Params: []string{"value", "type"}, Required: 2, Doc: "convert a value into Mana, Flux or Sigil", Handler: transmute},
			{Name: "purify", Params: []string{"value"}, Required: 1, Doc: "trim a Sigil or drop Void entries", Handler: purify},
			{Name: "fuse", Params: []string{"a", "b"}, Required: 2, Doc: "merge vessels, join lists, or concatenate", Handler: fuse},
		},
	}
}

// transmute converts to the named element type. Unparseable input becomes
// zero; unknown types return the value unchanged.
func transmute(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	target := args[0]
	switch args[1].String() {
	case "Mana", "int":
		i, _ := toInt(target)
		return mpl.NewInt(i), nil
	case "Flux", "float":
		f, _ := toFloat(target)
		return mpl.NewFloat(f), nil
	case "Sigil", "str":
		return mpl.NewString(target.String()), nil
	default:
		return target, nil
	}
}

func purify(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	val := args[0]
	switch val.Kind() {
	case mpl.KindString:
		return mpl.NewString(strings.TrimSpace(val.String())), nil
	case mpl.KindList:
		out := make([]mpl.Value, 0, len(val.List()))
		for _, item := range val.List() {
			if !item.IsVoid() {
				out = append(out, item)
			}
		}
		return mpl.NewList(out), nil
	case mpl.KindVessel:
		out := make(map[string]mpl.Value, len(val.Vessel()))
		for k, item := range val.Vessel() {
			if !item.IsVoid() {
				out[k] = item
			}
		}
		return mpl.NewVessel(out), nil
	default:
		return val, nil
	}
}

// fuse merges two vessels (right wins), joins two lists, and otherwise
// concatenates the textual forms.
func fuse(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	a, b := args[0], args[1]
	switch {
	case a.Kind() == mpl.KindVessel && b.Kind() == mpl.KindVessel:
		merged := make(map[string]mpl.Value, len(a.Vessel())+len(b.Vessel()))
		for k, v := range a.Vessel() {
			merged[k] = v
		}
		for k, v := range b.Vessel() {
			merged[k] = v
		}
		return mpl.NewVessel(merged), nil
	case a.Kind() == mpl.KindList && b.Kind() == mpl.KindList:
		joined := make([]mpl.Value, 0, len(a.List())+len(b.List()))
		joined = append(joined, a.List()...)
		joined = append(joined, b.List()...)
		return mpl.NewList(joined), nil
	default:
		return mpl.NewString(a.String() + b.String()), nil
	}
}
