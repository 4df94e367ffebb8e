package mpl

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

func (k ValueKind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBool:
		return "Boolean"
	case KindInt:
		return "Mana"
	case KindFloat:
		return "Flux"
	case KindString:
		return "Sigil"
	case KindVessel:
		return "Vessel"
	case KindList:
		return "List"
	case KindHost:
		return "External"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	case KindVoid:
		return "Void"
	case KindBool:
		if v.Bool() {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case KindFloat:
		return formatFlux(v.data.(float64))
	case KindList:
		elems := v.data.([]Value)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.Inspect()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case KindVessel:
		entries := v.data.(map[string]Value)
		if len(entries) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(entries))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, entries[k].Inspect()))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case KindHost:
		return fmt.Sprintf("<%v>", v.data)
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

// Inspect renders v the way it appears nested inside a Vessel or List:
// Sigils are quoted, everything else uses String.
func (v Value) Inspect() string {
	if v.kind == KindString {
		return strconv.Quote(v.data.(string))
	}
	return v.String()
}

func formatFlux(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Truthy reports whether v selects the then-branch of a conditional.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindVoid:
		return false
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.data.(int64) != 0
	case KindFloat:
		return v.data.(float64) != 0
	case KindString:
		return v.data.(string) != ""
	case KindList:
		return len(v.data.([]Value)) > 0
	case KindVessel:
		return len(v.data.(map[string]Value)) > 0
	default:
		return true
	}
}

// Equal is structural, type-sensitive equality. Mana and Flux compare by
// numeric value; no other cross-kind pair is ever equal.
func (v Value) Equal(other Value) bool {
	if v.IsNumeric() && other.IsNumeric() {
		if v.kind == KindInt && other.kind == KindInt {
			return v.Int() == other.Int()
		}
		return v.Float() == other.Float()
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindVoid:
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindString:
		return v.data.(string) == other.data.(string)
	case KindList:
		left, right := v.List(), other.List()
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if !left[i].Equal(right[i]) {
				return false
			}
		}
		return true
	case KindVessel:
		left, right := v.Vessel(), other.Vessel()
		if len(left) != len(right) {
			return false
		}
		for k, lv := range left {
			rv, ok := right[k]
			if !ok || !lv.Equal(rv) {
				return false
			}
		}
		return true
	default:
		// host payloads compare by identity when their type allows it
		if v.data == nil || other.data == nil {
			return v.data == other.data
		}
		lt, rt := reflect.TypeOf(v.data), reflect.TypeOf(other.data)
		if lt != rt || !lt.Comparable() {
			return false
		}
		return v.data == other.data
	}
}
