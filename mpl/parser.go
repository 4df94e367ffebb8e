package mpl

type parser struct {
	tokens  []Token
	current int
	source  string
	errors  []error
}

func newParser(tokens []Token, source string) *parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != tokenEOF {
		var pos Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos
		}
		tokens = append(tokens, Token{Type: tokenEOF, Pos: pos})
	}
	return &parser{tokens: tokens, source: source}
}

// Parse builds statements from a token stream. A statement containing a
// syntax error is dropped and reported; parsing resumes at the next
// statement keyword.
func Parse(tokens []Token) ([]Statement, []error) {
	return newParser(tokens, "").ParseProgram()
}

// ParseSource scans and parses source in one step. A scan error is returned
// as the only error and yields no statements.
func ParseSource(source string) ([]Statement, []error) {
	tokens, err := Scan(source)
	if err != nil {
		return nil, []error{err}
	}
	return newParser(tokens, source).ParseProgram()
}

func (p *parser) ParseProgram() ([]Statement, []error) {
	statements := []Statement{}
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, p.errors
}

func (p *parser) declaration() Statement {
	start := p.current
	stmt := p.statement()
	if stmt == nil {
		p.synchronize(start)
		return nil
	}
	return stmt
}

// synchronize discards tokens until the next statement keyword, closing
// brace or end of input, always making progress past a failed statement.
func (p *parser) synchronize(start int) {
	if p.current == start && !p.isAtEnd() {
		p.advance()
	}
	for !p.isAtEnd() {
		if _, ok := statementStarts[p.peek().Type]; ok {
			return
		}
		if p.check(tokenRBrace) {
			return
		}
		p.advance()
	}
}

func (p *parser) statement() Statement {
	switch {
	case p.match(tokenInvoke):
		return p.parseInvokeStatement()
	case p.match(tokenBind):
		return p.parseBindStatement()
	case p.match(tokenSummon):
		return p.parseSummonStatement()
	case p.match(tokenCircle):
		return p.parseCircleStatement()
	case p.match(tokenSeal):
		return p.parseSealStatement()
	case p.match(tokenOmen):
		return p.parseOmenStatement()
	case p.match(tokenHex):
		return p.parseHexStatement()
	case p.match(tokenMorph):
		return p.parseMorphStatement()
	case p.match(tokenPact):
		return p.parsePactStatement()
	case p.match(tokenBanish):
		return p.parseBanishStatement()
	case p.match(tokenPurge):
		return p.parsePurgeStatement()
	case p.match(tokenAbyss):
		return p.parseAbyssStatement()
	case p.match(tokenEcho):
		return p.parseEchoStatement()
	case p.match(tokenCycle):
		return p.parseCycleStatement()
	case p.match(tokenIf):
		return p.parseIfStatement()
	case p.match(tokenLBrace):
		return p.parseBlock()
	}
	p.errorAt(p.peek(), "expected a ritual command")
	return nil
}

func (p *parser) parseInvokeStatement() Statement {
	pos := p.previous().Pos
	if _, ok := p.consume(tokenDot, "expected '.' after 'invoke'"); !ok {
		return nil
	}
	entity, ok := p.consume(tokenIdent, "expected entity name")
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenLParen, "expected '(' after entity name"); !ok {
		return nil
	}
	params, ok := p.parameters()
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenRParen, "expected ')' after parameters"); !ok {
		return nil
	}
	return &InvokeStmt{Entity: entity.Lexeme, Params: params, position: pos}
}

func (p *parser) parseBindStatement() Statement {
	pos := p.previous().Pos
	name, ok := p.consume(tokenIdent, "expected variable name")
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenTo, "expected 'to' after variable name"); !ok {
		return nil
	}
	value := p.expression()
	if value == nil {
		return nil
	}
	return &BindStmt{Name: name.Lexeme, Value: value, position: pos}
}

func (p *parser) parseSummonStatement() Statement {
	pos := p.previous().Pos
	module, ok := p.consume(tokenIdent, "expected module name to summon")
	if !ok {
		return nil
	}
	return &SummonStmt{Module: module.Lexeme, position: pos}
}

func (p *parser) parseCircleStatement() Statement {
	pos := p.previous().Pos
	body := p.statement()
	if body == nil {
		return nil
	}
	return &CircleStmt{Body: body, position: pos}
}

func (p *parser) parseSealStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected variable to seal")
	if !ok {
		return nil
	}
	return &SealStmt{Target: target.Lexeme, position: pos}
}

func (p *parser) parseOmenStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected variable to receive the omen")
	if !ok {
		return nil
	}
	return &OmenStmt{Target: target.Lexeme, position: pos}
}

func (p *parser) parseHexStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected target to hex")
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenWith, "expected 'with' after hex target"); !ok {
		return nil
	}
	params, ok := p.parameters()
	if !ok {
		return nil
	}
	return &HexStmt{Target: target.Lexeme, Params: params, position: pos}
}

func (p *parser) parseMorphStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected target to morph")
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenInto, "expected 'into' after morph target"); !ok {
		return nil
	}
	if !p.match(tokenTypeSigil, tokenTypeMana, tokenTypeFlux, tokenTypeVessel) {
		p.errorAt(p.peek(), "expected element type (Sigil, Mana, Flux, Vessel)")
		return nil
	}
	return &MorphStmt{Target: target.Lexeme, Type: p.previous().Type, position: pos}
}

func (p *parser) parsePactStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected target for pact")
	if !ok {
		return nil
	}
	if _, ok := p.consume(tokenWith, "expected 'with' after pact target"); !ok {
		return nil
	}
	request := p.expression()
	if request == nil {
		return nil
	}
	return &PactStmt{Target: target.Lexeme, Request: request, position: pos}
}

func (p *parser) parseBanishStatement() Statement {
	pos := p.previous().Pos
	target, ok := p.consume(tokenIdent, "expected target to banish")
	if !ok {
		return nil
	}
	return &BanishStmt{Target: target.Lexeme, position: pos}
}

func (p *parser) parsePurgeStatement() Statement {
	pos := p.previous().Pos
	stmt := &PurgeStmt{position: pos}
	if p.match(tokenIdent) {
		stmt.Target = p.previous().Lexeme
	}
	return stmt
}

func (p *parser) parseAbyssStatement() Statement {
	pos := p.previous().Pos
	message := p.expression()
	if message == nil {
		return nil
	}
	return &AbyssStmt{Message: message, position: pos}
}

func (p *parser) parseEchoStatement() Statement {
	pos := p.previous().Pos
	message := p.expression()
	if message == nil {
		return nil
	}
	return &EchoStmt{Message: message, position: pos}
}

func (p *parser) parseCycleStatement() Statement {
	pos := p.previous().Pos
	if _, ok := p.consume(tokenLParen, "expected '(' after 'cycle'"); !ok {
		return nil
	}
	frequency := p.expression()
	if frequency == nil {
		return nil
	}
	if _, ok := p.consume(tokenRParen, "expected ')' after frequency"); !ok {
		return nil
	}
	body := p.statement()
	if body == nil {
		return nil
	}
	return &CycleStmt{Frequency: frequency, Body: body, position: pos}
}

func (p *parser) parseIfStatement() Statement {
	pos := p.previous().Pos
	condition := p.expression()
	if condition == nil {
		return nil
	}
	then := p.statement()
	if then == nil {
		return nil
	}
	stmt := &IfStmt{Condition: condition, Then: then, position: pos}
	if p.match(tokenElse) {
		stmt.Else = p.statement()
		if stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *parser) parseBlock() Statement {
	pos := p.previous().Pos
	stmts := []Statement{}
	for !p.check(tokenRBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, ok := p.consume(tokenRBrace, "expected '}' after block"); !ok {
		return nil
	}
	return &BlockStmt{Statements: stmts, position: pos}
}

// parameters reads `name = expr` pairs separated by commas. An empty list is
// allowed; a comma must always be followed by another pair.
func (p *parser) parameters() ([]Param, bool) {
	params := []Param{}
	if !p.check(tokenIdent) {
		return params, true
	}
	for {
		name, ok := p.consume(tokenIdent, "expected parameter name")
		if !ok {
			return nil, false
		}
		if _, ok := p.consume(tokenAssign, "expected '=' after parameter name"); !ok {
			return nil, false
		}
		value := p.expression()
		if value == nil {
			return nil, false
		}
		params = append(params, Param{Name: name.Lexeme, Value: value})
		if !p.match(tokenComma) {
			return params, true
		}
	}
}
