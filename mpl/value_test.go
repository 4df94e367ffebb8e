package mpl

import "testing"

func TestValueStringForms(t *testing.T) {
	tests := []struct {
		val  Value
		want string
	}{
		{NewVoid(), "Void"},
		{NewBool(true), "True"},
		{NewBool(false), "False"},
		{NewInt(-7), "-7"},
		{NewFloat(5), "5.0"},
		{NewFloat(2.5), "2.5"},
		{NewString("plain"), "plain"},
		{NewList([]Value{NewInt(1), NewString("a")}), `[1, "a"]`},
		{NewVessel(map[string]Value{"b": NewInt(2), "a": NewString("x")}), `{a: "x", b: 2}`},
		{NewVessel(nil), "{}"},
	}
	for _, tt := range tests {
		if got := tt.val.String(); got != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}

func TestValueTruthy(t *testing.T) {
	tests := []struct {
		val  Value
		want bool
	}{
		{NewVoid(), false},
		{NewBool(false), false},
		{NewBool(true), true},
		{NewInt(0), false},
		{NewInt(3), true},
		{NewFloat(0), false},
		{NewFloat(0.1), true},
		{NewString(""), false},
		{NewString("x"), true},
		{NewList(nil), false},
		{NewVessel(map[string]Value{"k": NewVoid()}), true},
		{NewExternal(struct{}{}), true},
	}
	for _, tt := range tests {
		if got := tt.val.Truthy(); got != tt.want {
			t.Fatalf("%s (%s): expected %v", tt.val, tt.val.Kind(), tt.want)
		}
	}
}

func TestValueEquality(t *testing.T) {
	if !NewInt(1).Equal(NewFloat(1)) {
		t.Fatalf("expected Mana and Flux to compare numerically")
	}
	if NewString("1").Equal(NewInt(1)) {
		t.Fatalf("expected Sigil never to equal a number")
	}
	a := NewVessel(map[string]Value{"k": NewList([]Value{NewInt(1)})})
	b := NewVessel(map[string]Value{"k": NewList([]Value{NewFloat(1)})})
	if !a.Equal(b) {
		t.Fatalf("expected structural vessel equality")
	}
	if NewVoid().Equal(NewBool(false)) {
		t.Fatalf("expected Void to differ from False")
	}
}

func TestFromGoRoundTrip(t *testing.T) {
	val := FromGo(map[string]any{
		"name":  "Bael",
		"rank":  1,
		"power": 9.5,
		"tags":  []any{"king", true},
	})
	if val.Kind() != KindVessel {
		t.Fatalf("expected vessel, got %s", val.Kind())
	}
	fields := val.Vessel()
	if fields["rank"].Kind() != KindInt || fields["power"].Kind() != KindFloat {
		t.Fatalf("unexpected numeric kinds: %s %s", fields["rank"].Kind(), fields["power"].Kind())
	}
	back, ok := ToGo(val).(map[string]any)
	if !ok || back["name"] != "Bael" {
		t.Fatalf("unexpected ToGo result %#v", ToGo(val))
	}
}
