package grimoire

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mielalabs/mpl-magick/mpl"
)

const maxScryBytes = 4 << 20

func (r *Registry) divinationModule() Module {
	return Module{
		Name: "divination",
		Doc:  "networking, input, output and chance",
		Functions: []Function{
			{Name: "scry", Params: []string{"request"}, Required: 1, Doc: "fetch a URL (http, https, ws, wss); JSON replies become vessels", Handler: r.scry},
			{Name: "tarot_seed", Doc: "draw a six-digit seed", Handler: tarotSeed},
			{Name: "inscribe", Params: []string{"message"}, Required: 1, Doc: "write a line to the host output", Handler: r.inscribe},
			{Name: "omen", Doc: "read one line of host input", Handler: r.omen},
		},
	}
}

type scryRequest struct {
	url     string
	method  string
	body    []byte
	headers http.Header
}

// parseScryRequest accepts a bare URL or a vessel with url, method, body
// and headers fields.
func parseScryRequest(v mpl.Value) (scryRequest, error) {
	req := scryRequest{headers: http.Header{}}
	switch v.Kind() {
	case mpl.KindString:
		req.url = v.String()
	case mpl.KindVessel:
		fields := v.Vessel()
		target, ok := fields["url"]
		if !ok || target.Kind() != mpl.KindString {
			return req, errors.New("scry request needs a url")
		}
		req.url = target.String()
		if method, ok := fields["method"]; ok {
			req.method = strings.ToUpper(method.String())
		}
		if body, ok := fields["body"]; ok {
			encoded, err := encodeBody(body)
			if err != nil {
				return req, err
			}
			req.body = encoded
		}
		for key, val := range fields["headers"].Vessel() {
			req.headers.Set(key, val.String())
		}
	default:
		return req, fmt.Errorf("scry expects a url or request vessel, got %s", v.Kind())
	}
	if req.method == "" {
		req.method = http.MethodGet
		if req.body != nil {
			req.method = http.MethodPost
		}
	}
	return req, nil
}

func encodeBody(body mpl.Value) ([]byte, error) {
	switch body.Kind() {
	case mpl.KindString:
		return []byte(body.String()), nil
	case mpl.KindVoid:
		return nil, nil
	default:
		return json.Marshal(mpl.ToGo(body))
	}
}

// decodeReply turns a JSON payload into vessels and lists, and anything
// else into a Sigil.
func decodeReply(data []byte) mpl.Value {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err == nil && !dec.More() {
		return mpl.FromGo(decoded)
	}
	return mpl.NewString(string(data))
}

func (r *Registry) scry(ctx context.Context, args []mpl.Value) (mpl.Value, error) {
	req, err := parseScryRequest(args[0])
	if err != nil {
		return mpl.NewVoid(), err
	}
	parsed, err := url.Parse(req.url)
	if err != nil {
		return mpl.NewVoid(), fmt.Errorf("invalid url %q: %w", req.url, err)
	}
	r.logger.Info("scrying", "url", req.url)
	switch parsed.Scheme {
	case "http", "https":
		return r.scryHTTP(ctx, req)
	case "ws", "wss":
		return r.scryWebsocket(ctx, req)
	default:
		return mpl.NewVoid(), fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}

func (r *Registry) scryHTTP(ctx context.Context, req scryRequest) (mpl.Value, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return mpl.NewVoid(), err
	}
	httpReq.Header = req.headers
	if req.body != nil && httpReq.Header.Get("Content-Type") == "" && json.Valid(req.body) {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return mpl.NewVoid(), fmt.Errorf("scry failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScryBytes))
	if err != nil {
		return mpl.NewVoid(), fmt.Errorf("failed to read reply: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return mpl.NewVoid(), fmt.Errorf("scry %s: %s", req.url, resp.Status)
	}
	return decodeReply(data), nil
}

// scryWebsocket sends the request body, if any, and returns the first reply.
func (r *Registry) scryWebsocket(ctx context.Context, req scryRequest) (mpl.Value, error) {
	conn, _, err := r.opts.Dialer.DialContext(ctx, req.url, req.headers)
	if err != nil {
		return mpl.NewVoid(), fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(r.opts.HTTPTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if len(req.body) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, req.body); err != nil {
			return mpl.NewVoid(), fmt.Errorf("failed to send message: %w", err)
		}
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return mpl.NewVoid(), fmt.Errorf("failed to read message: %w", err)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return decodeReply(data), nil
}

func tarotSeed(context.Context, []mpl.Value) (mpl.Value, error) {
	return mpl.NewInt(int64(100000 + rand.IntN(900000))), nil
}

func (r *Registry) inscribe(_ context.Context, args []mpl.Value) (mpl.Value, error) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	if _, err := fmt.Fprintln(r.opts.Output, args[0].String()); err != nil {
		return mpl.NewVoid(), err
	}
	return mpl.NewVoid(), nil
}

type omenReader struct {
	mu     sync.Mutex
	reader *bufio.Reader
}

func newOmenReader(in io.Reader) *omenReader {
	return &omenReader{reader: bufio.NewReader(in)}
}

// omen reads one line; exhausted input yields Void.
func (r *Registry) omen(context.Context, []mpl.Value) (mpl.Value, error) {
	r.omens.mu.Lock()
	defer r.omens.mu.Unlock()
	line, err := r.omens.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return mpl.NewVoid(), err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return mpl.NewVoid(), nil
	}
	return mpl.NewString(strings.TrimRight(line, "\r\n")), nil
}
