package mpl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string

	offset int
	width  int

	line   int
	column int

	ch rune

	// failure describes the most recent illegal token.
	failure string
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1, column: 0}
	l.readRune()
	return l
}

// Scan converts source into tokens terminated by a single EOF token. The
// first malformed lexeme aborts the scan with a *ScanError.
func Scan(source string) ([]Token, error) {
	l := newLexer(source)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == tokenIllegal {
			return nil, &ScanError{Pos: tok.Pos, Text: tok.Lexeme, Message: l.failure, source: source}
		}
		tokens = append(tokens, tok)
		if tok.Type == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.width = 0
		l.ch = 0
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w

	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}

	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) peekRuneN(n int) rune {
	idx := l.offset
	var r rune
	var w int
	for i := 0; i <= n; i++ {
		if idx >= len(l.input) {
			return 0
		}
		r, w = utf8.DecodeRuneInString(l.input[idx:])
		if i == n {
			return r
		}
		idx += w
	}
	return 0
}

func (l *lexer) atEnd() bool {
	return l.width == 0 && l.offset >= len(l.input)
}

func (l *lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.currentOffset()
	tok := Token{Pos: Position{Line: l.line, Column: l.column}, Value: NewVoid()}

	if l.atEnd() {
		tok.Type = tokenEOF
		return tok
	}

	switch l.ch {
	case '(':
		tok.Type = tokenLParen
		l.readRune()
	case ')':
		tok.Type = tokenRParen
		l.readRune()
	case '{':
		tok.Type = tokenLBrace
		l.readRune()
	case '}':
		tok.Type = tokenRBrace
		l.readRune()
	case ',':
		tok.Type = tokenComma
		l.readRune()
	case '.':
		tok.Type = tokenDot
		l.readRune()
	case '+':
		tok.Type = tokenPlus
		l.readRune()
	case '*':
		tok.Type = tokenAsterisk
		l.readRune()
	case '/':
		tok.Type = tokenSlash
		l.readRune()
	case '-':
		tok.Type = l.twoRune('>', tokenArrow, tokenMinus)
	case '=':
		tok.Type = l.twoRune('=', tokenEQ, tokenAssign)
	case '<':
		tok.Type = l.twoRune('=', tokenLTE, tokenLT)
	case '>':
		tok.Type = l.twoRune('=', tokenGTE, tokenGT)
	case '!':
		if l.peekRune() != '=' {
			l.failure = "unexpected character '!' (did you mean '!='?)"
			tok.Type = tokenIllegal
			l.readRune()
			break
		}
		l.readRune()
		l.readRune()
		tok.Type = tokenNotEQ
	case '"':
		value, ok := l.readString()
		if !ok {
			l.failure = "unterminated string"
			tok.Type = tokenIllegal
			tok.Lexeme = `"`
			return tok
		}
		tok.Type = tokenString
		tok.Value = NewString(value)
	default:
		switch {
		case isIdentifierStart(l.ch):
			literal := l.readIdentifier()
			tok.Type = lookupIdent(literal)
			if tok.Type == tokenBoolean {
				tok.Value = NewBool(literal == "True")
			}
		case isDigit(l.ch):
			literal, isFloat := l.readNumber()
			value, err := decodeNumber(literal, isFloat)
			if err != nil {
				l.failure = err.Error()
				tok.Type = tokenIllegal
				tok.Lexeme = literal
				return tok
			}
			tok.Type = tokenNumber
			tok.Value = value
		default:
			l.failure = fmt.Sprintf("unknown glyph %q", l.ch)
			tok.Type = tokenIllegal
			l.readRune()
		}
	}

	tok.Lexeme = l.input[start:l.currentOffset()]
	return tok
}

// twoRune consumes the current rune and, when the next rune is second, that
// rune too, returning the matching token type.
func (l *lexer) twoRune(second rune, pair, single TokenType) TokenType {
	if l.peekRune() == second {
		l.readRune()
		l.readRune()
		return pair
	}
	l.readRune()
	return single
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readRune()
			continue
		case '#':
			l.skipComment()
			continue
		default:
			return
		}
	}
}

func (l *lexer) skipComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readRune()
	}
}

func (l *lexer) readIdentifier() string {
	start := l.currentOffset()
	for isIdentifierRune(l.peekRune()) {
		l.readRune()
	}
	literal := l.input[start:l.offset]
	l.readRune()
	return literal
}

func (l *lexer) readNumber() (string, bool) {
	start := l.currentOffset()
	hasDot := false

	for {
		r := l.peekRune()
		switch {
		case r == '.' && !hasDot && isDigit(l.peekRuneN(1)):
			hasDot = true
			l.readRune()
		case isDigit(r):
			l.readRune()
		default:
			literal := l.input[start:l.offset]
			l.readRune()
			return literal, hasDot
		}
	}
}

// readString consumes a double-quoted literal. Newlines inside the literal
// are kept; the lexer's line counter follows them.
func (l *lexer) readString() (string, bool) {
	var sb strings.Builder

	for {
		l.readRune()
		if l.atEnd() {
			return "", false
		}
		switch l.ch {
		case '"':
			l.readRune()
			return sb.String(), true
		case '\\':
			next := l.peekRune()
			switch next {
			case '"', '\\':
				l.readRune()
				sb.WriteRune(next)
			case 'n':
				l.readRune()
				sb.WriteByte('\n')
			case 't':
				l.readRune()
				sb.WriteByte('\t')
			default:
				sb.WriteRune(l.ch)
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func decodeNumber(literal string, isFloat bool) (Value, error) {
	if isFloat {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return NewVoid(), fmt.Errorf("invalid number %s", literal)
		}
		return NewFloat(f), nil
	}
	i, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return NewVoid(), fmt.Errorf("number %s out of range", literal)
	}
	return NewInt(i), nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || isDigit(r) || r == '_'
}
