package grimoire

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mielalabs/mpl-magick/mpl"
)

func TestTransmute(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	tests := []struct {
		value mpl.Value
		to    string
		want  mpl.Value
	}{
		{mpl.NewString(" 12 "), "Mana", mpl.NewInt(12)},
		{mpl.NewString("abc"), "Mana", mpl.NewInt(0)},
		{mpl.NewFloat(3.9), "Mana", mpl.NewInt(3)},
		{mpl.NewBool(true), "Mana", mpl.NewInt(1)},
		{mpl.NewString("2.5"), "Flux", mpl.NewFloat(2.5)},
		{mpl.NewString("nope"), "Flux", mpl.NewFloat(0)},
		{mpl.NewInt(7), "Sigil", mpl.NewString("7")},
		{mpl.NewFloat(7), "Sigil", mpl.NewString("7.0")},
		{mpl.NewInt(7), "Vessel", mpl.NewInt(7)},
	}
	for _, tt := range tests {
		got := call(t, reg, "hermetic", "transmute", tt.value, mpl.NewString(tt.to))
		if got.Kind() != tt.want.Kind() || !got.Equal(tt.want) {
			t.Fatalf("transmute %s into %s: expected %s %s, got %s %s", tt.value, tt.to, tt.want.Kind(), tt.want, got.Kind(), got)
		}
	}
}

func TestFuseAndPurify(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	a := mpl.NewVessel(map[string]mpl.Value{"name": mpl.NewString("Bael"), "rank": mpl.NewInt(1)})
	b := mpl.NewVessel(map[string]mpl.Value{"rank": mpl.NewInt(2)})
	if got := call(t, reg, "hermetic", "fuse", a, b); got.String() != `{name: "Bael", rank: 2}` {
		t.Fatalf("unexpected fuse %s", got)
	}
	lists := call(t, reg, "hermetic", "fuse", mpl.NewList([]mpl.Value{mpl.NewInt(1)}), mpl.NewList([]mpl.Value{mpl.NewInt(2)}))
	if lists.String() != "[1, 2]" {
		t.Fatalf("unexpected list fuse %s", lists)
	}
	if got := call(t, reg, "hermetic", "purify", mpl.NewString("  salt \n")); got.String() != "salt" {
		t.Fatalf("unexpected purify %q", got.String())
	}
	list := mpl.NewList([]mpl.Value{mpl.NewInt(1), mpl.NewVoid(), mpl.NewInt(2)})
	if got := call(t, reg, "hermetic", "purify", list); got.String() != "[1, 2]" {
		t.Fatalf("unexpected purify %s", got)
	}
}

func TestOccultatorArithmetic(t *testing.T) {
	if got := ReduceTesla(452); got != 2 {
		t.Fatalf("reduce 452: %d", got)
	}
	if got := ReduceTesla(0); got != 0 {
		t.Fatalf("reduce 0: %d", got)
	}
	if got := ReduceTesla(-5); got != 4 {
		t.Fatalf("reduce -5: %d", got)
	}
	if got := NearestFibonacci(452); got != 377 {
		t.Fatalf("fibonacci 452: %d", got)
	}
	if got := NearestFibonacci(4); got != 3 {
		t.Fatalf("fibonacci 4: %d", got)
	}
	for _, target := range []int64{9_000_000_000_000_000_000, math.MaxInt64} {
		if got := NearestFibonacci(target); got != 7540113804746346429 {
			t.Fatalf("fibonacci %d: %d", target, got)
		}
	}
	if got := SolomonKey("ABADDON"); got != 491 {
		t.Fatalf("solomon ABADDON: %d", got)
	}
	if got := Gematria("paimon"); got != 452 {
		t.Fatalf("gematria paimon: %d", got)
	}
	h := Harmonics(452)
	if h["harmonic_3"] != 150 || h["harmonic_6"] != 75 || h["harmonic_9"] != 50 {
		t.Fatalf("unexpected harmonics %v", h)
	}

	reg := newTestRegistry(t, Options{})
	if got := call(t, reg, "occultator", "calculate", mpl.NewInt(452), mpl.NewString("FIBONACCI")); got.Int() != 377 {
		t.Fatalf("calculate fibonacci: %s", got)
	}
	if got := call(t, reg, "occultator", "calculate", mpl.NewInt(452)); got.Int() != 2 {
		t.Fatalf("calculate default: %s", got)
	}
	if got := call(t, reg, "occultator", "calculate", mpl.NewInt(1), mpl.NewString("ASTRAL")); !got.IsVoid() {
		t.Fatalf("expected Void for unknown mode, got %s", got)
	}
	vessel := call(t, reg, "occultator", "harmonics", mpl.NewInt(452)).Vessel()
	if vessel["raw_trend"].Int() != 452 {
		t.Fatalf("unexpected harmonics vessel %v", vessel)
	}
}

func TestRunic(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	encoded := call(t, reg, "runic", "encode", mpl.NewString("hail"))
	if encoded.String() != "aGFpbA==" {
		t.Fatalf("unexpected base64 %s", encoded)
	}
	if got := call(t, reg, "runic", "decode", encoded); got.String() != "hail" {
		t.Fatalf("unexpected decode %s", got)
	}
	if got := call(t, reg, "runic", "encode", mpl.NewString("hi"), mpl.NewString("hex")); got.String() != "6869" {
		t.Fatalf("unexpected hex %s", got)
	}
	if got := call(t, reg, "runic", "encode", mpl.NewString("hi"), mpl.NewString("rot13")); got.String() != "hi" {
		t.Fatalf("expected unknown method to pass text through, got %s", got)
	}
	if _, err := reg.Call(context.Background(), "runic", "decode", []mpl.Value{mpl.NewString("!!!")}); err == nil {
		t.Fatalf("expected invalid base64 error")
	}
	if got := ForgeSigil("I will win"); got != "WLN" {
		t.Fatalf("unexpected sigil %s", got)
	}
	if got := call(t, reg, "runic", "title", mpl.NewString("hermes trismegistus")); got.String() != "Hermes Trismegistus" {
		t.Fatalf("unexpected title %s", got)
	}
	if _, err := uuid.Parse(call(t, reg, "runic", "uuid").String()); err != nil {
		t.Fatalf("expected a uuid: %v", err)
	}
}

func TestTesla(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	if got := call(t, reg, "tesla", "amplify", mpl.NewInt(7), mpl.NewInt(3)); got.Int() != 21 {
		t.Fatalf("unexpected amplify %s", got)
	}
	if got := call(t, reg, "tesla", "amplify", mpl.NewString("om"), mpl.NewInt(3)); got.String() != "omomom" {
		t.Fatalf("unexpected chant %s", got)
	}
	if got := call(t, reg, "tesla", "amplify", mpl.NewFloat(1.5), mpl.NewInt(4)); got.String() != "6.0" {
		t.Fatalf("unexpected amplify %s", got)
	}
	if got := call(t, reg, "tesla", "amplify", mpl.NewInt(4611686018427387904), mpl.NewInt(4)); got.Kind() != mpl.KindFloat || got.Float() != 18446744073709551616 {
		t.Fatalf("expected an overflowing product to become Flux, got %s %s", got.Kind(), got)
	}
	if got := call(t, reg, "tesla", "amplify", mpl.NewString("om"), mpl.NewInt(-2)); got.String() != "" {
		t.Fatalf("expected empty chant, got %q", got)
	}
	for _, factor := range []int64{1 << 40, 4611686018427387904} {
		if _, err := reg.Call(context.Background(), "tesla", "amplify", []mpl.Value{mpl.NewString("ab"), mpl.NewInt(factor)}); err == nil {
			t.Fatalf("expected amplify by %d to be refused", factor)
		}
	}
	for _, hz := range []mpl.Value{mpl.NewFloat(1e10), mpl.NewFloat(math.NaN()), mpl.NewInt(-1)} {
		if _, err := reg.Call(context.Background(), "tesla", "oscillate", []mpl.Value{hz}); err == nil {
			t.Fatalf("expected oscillate(%s) to be refused", hz)
		}
	}
	call(t, reg, "tesla", "oscillate", mpl.NewInt(0))

	out := &mpl.BufferOutput{}
	engine, err := mpl.NewEngine(mpl.Config{Registry: reg, Output: out})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	_, err = engine.Execute(context.Background(), `summon tesla
circle invoke.tesla(rite = "amplify", s = "ab", f = 4611686018427387904)
echo "after"`)
	if err != nil {
		t.Fatalf("circle did not contain the refused amplify: %v", err)
	}
	if len(out.Lines) != 1 || out.Lines[0] != "after" || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected output %v diagnostics %v", out.Lines, out.Diagnostics)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = reg.Call(ctx, "tesla", "oscillate", []mpl.Value{mpl.NewInt(60)})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("oscillate ignored the context")
	}
}

func TestSolomonicRequiresPermission(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	if _, err := reg.Call(context.Background(), "solomonic", "summon", []mpl.Value{mpl.NewString("sleep 10")}); !errors.Is(err, errProcessesDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if got := call(t, reg, "solomonic", "banish", mpl.NewInt(99999999)); got.Bool() {
		t.Fatalf("expected unknown pid to report false")
	}
}

func TestSolomonicLifecycle(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	reg := newTestRegistry(t, Options{AllowProcesses: true})
	pid := call(t, reg, "solomonic", "summon", mpl.NewString("sleep 30"))
	if pid.Int() <= 0 {
		t.Fatalf("expected a pid, got %s", pid)
	}
	if got := call(t, reg, "solomonic", "bind", pid, mpl.NewString("64MB")); !got.Bool() {
		t.Fatalf("expected bind to succeed")
	}
	if got := call(t, reg, "solomonic", "banish", pid); !got.Bool() {
		t.Fatalf("expected banish to succeed")
	}
	if got := call(t, reg, "solomonic", "bind", pid); got.Bool() {
		t.Fatalf("expected banished daemon to be forgotten")
	}
	if got := call(t, reg, "solomonic", "summon", mpl.NewString("/definitely/not/a/binary")); got.Int() != -1 {
		t.Fatalf("expected -1 for failed summon, got %s", got)
	}
}

func TestScryHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"spirit":"Bael","legions":66,"ranks":[1,2]}`))
		case "/text":
			_, _ = w.Write([]byte("the veil is thin"))
		case "/echo":
			if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			_, _ = w.Write(buf.Bytes())
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	reg := newTestRegistry(t, Options{})
	reply := call(t, reg, "divination", "scry", mpl.NewString(server.URL+"/json")).Vessel()
	if reply["spirit"].String() != "Bael" || reply["legions"].Kind() != mpl.KindInt || len(reply["ranks"].List()) != 2 {
		t.Fatalf("unexpected json reply %v", reply)
	}
	if got := call(t, reg, "divination", "scry", mpl.NewString(server.URL+"/text")); got.String() != "the veil is thin" {
		t.Fatalf("unexpected text reply %s", got)
	}
	request := mpl.NewVessel(map[string]mpl.Value{
		"url":  mpl.NewString(server.URL + "/echo"),
		"body": mpl.NewVessel(map[string]mpl.Value{"offering": mpl.NewInt(3)}),
	})
	if got := call(t, reg, "divination", "scry", request).Vessel(); got["offering"].Int() != 3 {
		t.Fatalf("unexpected echo reply %v", got)
	}
	if _, err := reg.Call(context.Background(), "divination", "scry", []mpl.Value{mpl.NewString(server.URL + "/broken")}); err == nil {
		t.Fatalf("expected error status to fail")
	}
	if _, err := reg.Call(context.Background(), "divination", "scry", []mpl.Value{mpl.NewString("gopher://old")}); err == nil {
		t.Fatalf("expected unsupported scheme to fail")
	}
}

func TestScryWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"answer":"`+strings.ToUpper(string(msg))+`"}`))
	}))
	defer server.Close()

	reg := newTestRegistry(t, Options{HTTPTimeout: 5 * time.Second})
	request := mpl.NewVessel(map[string]mpl.Value{
		"url":  mpl.NewString("ws" + strings.TrimPrefix(server.URL, "http")),
		"body": mpl.NewString("speak"),
	})
	reply := call(t, reg, "divination", "scry", request).Vessel()
	if reply["answer"].String() != "SPEAK" {
		t.Fatalf("unexpected websocket reply %v", reply)
	}
}

func TestOmenInscribeAndSeed(t *testing.T) {
	var out bytes.Buffer
	reg := newTestRegistry(t, Options{Input: strings.NewReader("first\r\nsecond"), Output: &out})
	if got := call(t, reg, "divination", "omen"); got.String() != "first" {
		t.Fatalf("unexpected omen %q", got.String())
	}
	if got := call(t, reg, "divination", "omen"); got.String() != "second" {
		t.Fatalf("unexpected omen %q", got.String())
	}
	if got := call(t, reg, "divination", "omen"); !got.IsVoid() {
		t.Fatalf("expected Void at end of input, got %s", got)
	}
	call(t, reg, "divination", "inscribe", mpl.NewInt(9))
	if out.String() != "9\n" {
		t.Fatalf("unexpected inscription %q", out.String())
	}
	seed := call(t, reg, "divination", "tarot_seed").Int()
	if seed < 100000 || seed > 999999 {
		t.Fatalf("seed out of range: %d", seed)
	}
}
