package mpl

import (
	"errors"
	"testing"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		source string
		kind   ValueKind
		text   string
	}{
		{"0", KindInt, "0"},
		{"42", KindInt, "42"},
		{"9223372036854775807", KindInt, "9223372036854775807"},
		{"3.14", KindFloat, "3.14"},
		{"10.0", KindFloat, "10.0"},
	}
	for _, tt := range tests {
		tokens, err := Scan(tt.source)
		if err != nil {
			t.Fatalf("scan %q: %v", tt.source, err)
		}
		if len(tokens) != 2 || tokens[0].Type != tokenNumber || tokens[1].Type != tokenEOF {
			t.Fatalf("scan %q: unexpected tokens %v", tt.source, tokenTypes(tokens))
		}
		if tokens[0].Value.Kind() != tt.kind {
			t.Fatalf("scan %q: expected %s, got %s", tt.source, tt.kind, tokens[0].Value.Kind())
		}
		if got := tokens[0].Value.String(); got != tt.text {
			t.Fatalf("scan %q: expected %s, got %s", tt.source, tt.text, got)
		}
		if tokens[0].Lexeme != tt.source {
			t.Fatalf("scan %q: lexeme %q", tt.source, tokens[0].Lexeme)
		}
	}
}

func TestScanOperators(t *testing.T) {
	tokens, err := Scan("-> - == = != <= < >= > + * / ( ) { } , .")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []TokenType{
		tokenArrow, tokenMinus, tokenEQ, tokenAssign, tokenNotEQ, tokenLTE, tokenLT,
		tokenGTE, tokenGT, tokenPlus, tokenAsterisk, tokenSlash, tokenLParen,
		tokenRParen, tokenLBrace, tokenRBrace, tokenComma, tokenDot, tokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tokens, err := Scan("bind truth to True # trailing comment\nmorph x into Flux\nécho_1")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []TokenType{
		tokenBind, tokenIdent, tokenTo, tokenBoolean,
		tokenMorph, tokenIdent, tokenInto, tokenTypeFlux,
		tokenIdent, tokenEOF,
	}
	got := tokenTypes(tokens)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if !tokens[3].Value.Bool() {
		t.Fatalf("expected True literal to decode to true")
	}
	if tokens[4].Pos.Line != 2 || tokens[8].Pos.Line != 3 {
		t.Fatalf("unexpected lines: %d, %d", tokens[4].Pos.Line, tokens[8].Pos.Line)
	}
	if tokens[8].Lexeme != "écho_1" {
		t.Fatalf("unexpected identifier %q", tokens[8].Lexeme)
	}
}

func TestScanStrings(t *testing.T) {
	tokens, err := Scan("echo \"line one\nline \\\"two\\\"\\t!\"\necho 1")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if tokens[1].Type != tokenString {
		t.Fatalf("expected string token, got %s", tokens[1].Type)
	}
	if got := tokens[1].Value.String(); got != "line one\nline \"two\"\t!" {
		t.Fatalf("unexpected decoded string %q", got)
	}
	if tokens[2].Pos.Line != 3 {
		t.Fatalf("expected echo on line 3, got %d", tokens[2].Pos.Line)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
		text   string
	}{
		{"lone bang", "bind x to 1\n!", 2, "!"},
		{"unknown glyph", "echo @", 1, "@"},
		{"unterminated string", "echo 1\necho \"open\n\n", 2, `"`},
		{"integer overflow", "bind x to 99999999999999999999", 1, "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Scan(tt.source)
			if err == nil {
				t.Fatalf("expected scan error, got tokens %v", tokenTypes(tokens))
			}
			var scanErr *ScanError
			if !errors.As(err, &scanErr) {
				t.Fatalf("expected *ScanError, got %T", err)
			}
			if scanErr.Pos.Line != tt.line {
				t.Fatalf("expected line %d, got %d", tt.line, scanErr.Pos.Line)
			}
			if scanErr.Text != tt.text {
				t.Fatalf("expected offending text %q, got %q", tt.text, scanErr.Text)
			}
			if tokens != nil {
				t.Fatalf("expected no tokens on scan failure")
			}
		})
	}
}

func TestScanEmptySourceYieldsEOF(t *testing.T) {
	tokens, err := Scan("  # nothing here\n\t")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Type != tokenEOF {
		t.Fatalf("expected a single EOF token, got %v", tokenTypes(tokens))
	}
}
