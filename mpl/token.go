package mpl

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	tokenIdent   TokenType = "IDENT"
	tokenNumber  TokenType = "NUMBER"
	tokenString  TokenType = "STRING"
	tokenBoolean TokenType = "BOOLEAN"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenLT       TokenType = "<"
	tokenGT       TokenType = ">"
	tokenLTE      TokenType = "<="
	tokenGTE      TokenType = ">="
	tokenEQ       TokenType = "=="
	tokenNotEQ    TokenType = "!="
	tokenArrow    TokenType = "->"

	tokenComma  TokenType = ","
	tokenDot    TokenType = "."
	tokenLParen TokenType = "("
	tokenRParen TokenType = ")"
	tokenLBrace TokenType = "{"
	tokenRBrace TokenType = "}"

	// verbs
	tokenInvoke TokenType = "INVOKE"
	tokenBind   TokenType = "BIND"
	tokenSummon TokenType = "SUMMON"
	tokenCircle TokenType = "CIRCLE"
	tokenSeal   TokenType = "SEAL"
	tokenOmen   TokenType = "OMEN"
	tokenHex    TokenType = "HEX"
	tokenMorph  TokenType = "MORPH"
	tokenPact   TokenType = "PACT"
	tokenBanish TokenType = "BANISH"
	tokenPurge  TokenType = "PURGE"
	tokenAbyss  TokenType = "ABYSS"
	tokenEcho   TokenType = "ECHO"

	tokenCycle TokenType = "CYCLE"
	tokenIf    TokenType = "IF"
	tokenElse  TokenType = "ELSE"
	tokenTo    TokenType = "TO"
	tokenWith  TokenType = "WITH"
	tokenInto  TokenType = "INTO"

	tokenTypeSigil  TokenType = "SIGIL"
	tokenTypeMana   TokenType = "MANA"
	tokenTypeFlux   TokenType = "FLUX"
	tokenTypeVessel TokenType = "VESSEL"
	tokenTypeVoid   TokenType = "VOID"
)

// Token captures lexical information for the parser. Lexeme is the exact
// source text; Value holds the decoded literal for NUMBER, STRING and BOOLEAN
// tokens and is Void otherwise.
type Token struct {
	Type   TokenType
	Lexeme string
	Value  Value
	Pos    Position
}

// Position identifies a location in the source file.
type Position struct {
	Line   int
	Column int
}

var keywords = map[string]TokenType{
	"invoke": tokenInvoke,
	"bind":   tokenBind,
	"summon": tokenSummon,
	"circle": tokenCircle,
	"seal":   tokenSeal,
	"omen":   tokenOmen,
	"hex":    tokenHex,
	"morph":  tokenMorph,
	"pact":   tokenPact,
	"banish": tokenBanish,
	"purge":  tokenPurge,
	"abyss":  tokenAbyss,
	"echo":   tokenEcho,

	"cycle": tokenCycle,
	"if":    tokenIf,
	"else":  tokenElse,
	"to":    tokenTo,
	"with":  tokenWith,
	"into":  tokenInto,

	"Sigil":  tokenTypeSigil,
	"Mana":   tokenTypeMana,
	"Flux":   tokenTypeFlux,
	"Vessel": tokenTypeVessel,
	"Void":   tokenTypeVoid,

	"True":  tokenBoolean,
	"False": tokenBoolean,
}

func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return tokenIdent
}

// statementStarts lists the tokens that open a statement. The parser
// resynchronises on them after a syntax error.
var statementStarts = map[TokenType]struct{}{
	tokenInvoke: {},
	tokenBind:   {},
	tokenSummon: {},
	tokenCircle: {},
	tokenSeal:   {},
	tokenOmen:   {},
	tokenHex:    {},
	tokenMorph:  {},
	tokenPact:   {},
	tokenBanish: {},
	tokenPurge:  {},
	tokenAbyss:  {},
	tokenEcho:   {},
	tokenCycle:  {},
	tokenIf:     {},
	tokenLBrace: {},
}

// Verbs returns the statement keywords in declaration order.
func Verbs() []string {
	return []string{
		"invoke", "bind", "summon", "circle", "seal", "omen", "hex",
		"morph", "pact", "banish", "purge", "abyss", "echo",
		"cycle", "if", "else", "to", "with", "into",
	}
}

// TypeName returns the element type name for a type token, e.g. "Mana".
func (tt TokenType) TypeName() string {
	switch tt {
	case tokenTypeSigil:
		return "Sigil"
	case tokenTypeMana:
		return "Mana"
	case tokenTypeFlux:
		return "Flux"
	case tokenTypeVessel:
		return "Vessel"
	case tokenTypeVoid:
		return "Void"
	default:
		return ""
	}
}
