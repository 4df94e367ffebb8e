package mpl

// ValueKind enumerates the closed set of runtime value kinds.
type ValueKind int

const (
	KindVoid ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVessel
	KindList
	KindHost
)

// Value is a dynamically typed MPL value. The zero Value is Void.
type Value struct {
	kind ValueKind
	data any
}

func NewVoid() Value           { return Value{kind: KindVoid} }
func NewBool(b bool) Value     { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value     { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value { return Value{kind: KindString, data: s} }
func NewList(l []Value) Value  { return Value{kind: KindList, data: l} }
func NewVessel(v map[string]Value) Value {
	if v == nil {
		v = make(map[string]Value)
	}
	return Value{kind: KindVessel, data: v}
}

// NewExternal wraps an opaque host value returned by a collaborator.
func NewExternal(x any) Value { return Value{kind: KindHost, data: x} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsVoid() bool { return v.kind == KindVoid }

func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

// Vessel returns the underlying map of a Vessel value, or nil.
func (v Value) Vessel() map[string]Value {
	if v.kind != KindVessel {
		return nil
	}
	return v.data.(map[string]Value)
}

func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.data.([]Value)
}

// External returns the opaque host payload of an External value.
func (v Value) External() any {
	if v.kind != KindHost {
		return nil
	}
	return v.data
}
