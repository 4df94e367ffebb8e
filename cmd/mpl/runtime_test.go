package main

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mielalabs/mpl-magick/mpl"
)

func TestEchoWriterSplitsLines(t *testing.T) {
	out := &mpl.BufferOutput{}
	w := &echoWriter{out: out}
	for _, chunk := range []string{"first\nsec", "ond\n", "tail"} {
		if _, err := io.WriteString(w, chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	lines, _ := out.Drain()
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestShellRuntimeRoutesInscriptions(t *testing.T) {
	cfg, err := loadConfig(t.TempDir()+"/absent.toml", false)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	output := &mpl.BufferOutput{}
	rt, err := newRuntime(context.Background(), runtimeOptions{
		Config: cfg,
		Output: output,
		Logger: log.New(io.Discard),
		Stdout: &echoWriter{out: output},
	})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()

	if _, err := rt.engine.Execute(context.Background(), `summon divination
invoke.divination(rite = "inscribe", message = "so it is written")
echo "after"`); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines, diags := output.Drain()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	if len(lines) != 2 || lines[0] != "so it is written" || lines[1] != "after" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestRitualErrorLabels(t *testing.T) {
	engine, err := mpl.NewEngine(mpl.Config{Output: &mpl.BufferOutput{}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	tests := []struct {
		source string
		prefix string
	}{
		{`echo "open`, "scan error: "},
		{`echo undefined_name`, "runtime error (UnknownVariable): "},
		{`echo 1 / 0`, "runtime error (DivisionByZero): "},
	}
	for _, tt := range tests {
		_, err := engine.Execute(context.Background(), tt.source)
		if err == nil {
			t.Fatalf("%s: expected error", tt.source)
		}
		got := ritualError(err).Error()
		if len(got) < len(tt.prefix) || got[:len(tt.prefix)] != tt.prefix {
			t.Fatalf("%s: unexpected label %q", tt.source, got)
		}
	}
}
