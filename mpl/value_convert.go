package mpl

import (
	"encoding/json"
	"fmt"
)

// FromGo converts decoded JSON/YAML data and plain Go scalars into a Value.
// Anything it does not recognise is wrapped as External.
func FromGo(val any) Value {
	switch v := val.(type) {
	case nil:
		return NewVoid()
	case Value:
		return v
	case bool:
		return NewBool(v)
	case string:
		return NewString(v)
	case int:
		return NewInt(int64(v))
	case int32:
		return NewInt(int64(v))
	case int64:
		return NewInt(v)
	case uint64:
		return NewInt(int64(v))
	case float32:
		return NewFloat(float64(v))
	case float64:
		return NewFloat(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return NewInt(i)
		}
		if f, err := v.Float64(); err == nil {
			return NewFloat(f)
		}
		return NewString(v.String())
	case []any:
		out := make([]Value, len(v))
		for i, item := range v {
			out[i] = FromGo(item)
		}
		return NewList(out)
	case []Value:
		return NewList(v)
	case map[string]any:
		out := make(map[string]Value, len(v))
		for key, item := range v {
			out[key] = FromGo(item)
		}
		return NewVessel(out)
	case map[any]any:
		out := make(map[string]Value, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = FromGo(item)
		}
		return NewVessel(out)
	case map[string]Value:
		return NewVessel(v)
	default:
		return NewExternal(v)
	}
}

// ToGo converts a Value into plain Go data suitable for encoding.
func ToGo(val Value) any {
	switch val.Kind() {
	case KindVoid:
		return nil
	case KindBool:
		return val.Bool()
	case KindInt:
		return val.Int()
	case KindFloat:
		return val.Float()
	case KindString:
		return val.String()
	case KindList:
		items := val.List()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ToGo(item)
		}
		return out
	case KindVessel:
		entries := val.Vessel()
		out := make(map[string]any, len(entries))
		for key, item := range entries {
			out[key] = ToGo(item)
		}
		return out
	default:
		return val.External()
	}
}
