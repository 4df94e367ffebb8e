package grimoire

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mielalabs/mpl-magick/mpl"
)

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	reg, err := New(opts)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func call(t *testing.T, reg *Registry, module, function string, args ...mpl.Value) mpl.Value {
	t.Helper()
	val, err := reg.Call(context.Background(), module, function, args)
	if err != nil {
		t.Fatalf("%s.%s: %v", module, function, err)
	}
	return val
}

func TestRegistryModules(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	var names []string
	for _, module := range reg.Modules() {
		names = append(names, module.Name)
	}
	if got := strings.Join(names, ","); got != "divination,hermetic,occultator,runic,solomonic,tesla" {
		t.Fatalf("unexpected modules %s", got)
	}
	if !reg.HasModule("runic") || reg.HasModule("necronomicon") {
		t.Fatalf("unexpected HasModule answers")
	}
}

func TestRegistryRejectsInvalidModules(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	noop := func(context.Context, []mpl.Value) (mpl.Value, error) { return mpl.NewVoid(), nil }

	tests := []struct {
		name   string
		module Module
		target error
	}{
		{"duplicate module", Module{Name: "runic"}, errDuplicate},
		{"empty name", Module{Name: "  "}, errInvalid},
		{"missing handler", Module{Name: "enochian", Functions: []Function{{Name: "speak"}}}, errInvalid},
		{"duplicate function", Module{Name: "enochian", Functions: []Function{{Name: "a", Handler: noop}, {Name: "a", Handler: noop}}}, errDuplicate},
		{"bad arity", Module{Name: "enochian", Functions: []Function{{Name: "a", Required: 2, Params: []string{"x"}, Handler: noop}}}, errInvalid},
	}
	for _, tt := range tests {
		if err := reg.Register(tt.module); !errors.Is(err, tt.target) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.target, err)
		}
	}
}

func TestRegistryCallErrors(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	if _, err := reg.Call(context.Background(), "runic", "scribble", nil); !errors.Is(err, mpl.ErrFizzle) {
		t.Fatalf("expected fizzle for unknown function, got %v", err)
	}
	if _, err := reg.Call(context.Background(), "enochian", "speak", nil); !errors.Is(err, mpl.ErrFizzle) {
		t.Fatalf("expected fizzle for unknown module, got %v", err)
	}
	_, err := reg.Call(context.Background(), "hermetic", "fuse", []mpl.Value{mpl.NewInt(1)})
	if err == nil || !strings.Contains(err.Error(), "expects 2 arguments") {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestFunctionSignature(t *testing.T) {
	fn := Function{Name: "encode", Params: []string{"text", "method"}, Required: 1}
	if got := fn.Signature(); got != "encode(text, method?)" {
		t.Fatalf("unexpected signature %s", got)
	}
}

func TestRegistryDrivesEngine(t *testing.T) {
	var printed bytes.Buffer
	reg := newTestRegistry(t, Options{Output: &printed, Input: strings.NewReader("seeker\n")})
	out := &mpl.BufferOutput{}
	engine, err := mpl.NewEngine(mpl.Config{Registry: reg, Output: out})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	session := engine.NewSession()
	_, err = session.Run(context.Background(), `
summon occultator
summon divination
invoke.occultator(rite = "gematria", text = "paimon")
echo _
bind n to "42"
morph n into Mana
echo n + 1
bind spirit to 1
omen name
invoke.divination(rite = "inscribe", message = "hail " + name)
`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(out.Lines, ","); got != "452,43" {
		t.Fatalf("unexpected output %s", got)
	}
	if printed.String() != "hail seeker\n" {
		t.Fatalf("unexpected inscription %q", printed.String())
	}
	if _, err := session.Run(context.Background(), "bind v to 1\nhex v with rank = 2"); err != nil {
		t.Fatalf("hex: %v", err)
	}
	if v, _ := session.Env().Get("v"); v.String() != "1{rank: 2}" {
		t.Fatalf("expected non-vessel fuse to concatenate, got %s", v)
	}
}
