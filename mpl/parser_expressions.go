package mpl

func (p *parser) expression() Expression {
	return p.equality()
}

func (p *parser) equality() Expression {
	expr := p.comparison()
	for expr != nil && p.match(tokenEQ, tokenNotEQ) {
		op := p.previous()
		right := p.comparison()
		if right == nil {
			return nil
		}
		expr = &Binary{Left: expr, Operator: op, Right: right, position: op.Pos}
	}
	return expr
}

func (p *parser) comparison() Expression {
	expr := p.term()
	for expr != nil && p.match(tokenLT, tokenGT, tokenLTE, tokenGTE) {
		op := p.previous()
		right := p.term()
		if right == nil {
			return nil
		}
		expr = &Binary{Left: expr, Operator: op, Right: right, position: op.Pos}
	}
	return expr
}

func (p *parser) term() Expression {
	expr := p.factor()
	for expr != nil && p.match(tokenPlus, tokenMinus) {
		op := p.previous()
		right := p.factor()
		if right == nil {
			return nil
		}
		expr = &Binary{Left: expr, Operator: op, Right: right, position: op.Pos}
	}
	return expr
}

func (p *parser) factor() Expression {
	expr := p.unary()
	for expr != nil && p.match(tokenAsterisk, tokenSlash) {
		op := p.previous()
		right := p.unary()
		if right == nil {
			return nil
		}
		expr = &Binary{Left: expr, Operator: op, Right: right, position: op.Pos}
	}
	return expr
}

func (p *parser) unary() Expression {
	if p.match(tokenMinus) {
		op := p.previous()
		right := p.unary()
		if right == nil {
			return nil
		}
		return &Unary{Operator: op, Right: right, position: op.Pos}
	}
	return p.primary()
}

func (p *parser) primary() Expression {
	tok := p.peek()
	switch tok.Type {
	case tokenNumber, tokenString, tokenBoolean:
		p.advance()
		return &Literal{Value: tok.Value, position: tok.Pos}
	case tokenIdent:
		p.advance()
		return &Variable{Name: tok.Lexeme, position: tok.Pos}
	case tokenLParen:
		p.advance()
		inner := p.expression()
		if inner == nil {
			return nil
		}
		if _, ok := p.consume(tokenRParen, "expected ')' after expression"); !ok {
			return nil
		}
		return &Grouping{Inner: inner, position: tok.Pos}
	}
	p.errorAt(tok, "expected expression")
	return nil
}

func (p *parser) match(types ...TokenType) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) consume(tt TokenType, message string) (Token, bool) {
	if p.check(tt) {
		return p.advance(), true
	}
	p.errorAt(p.peek(), message)
	return Token{}, false
}

func (p *parser) check(tt TokenType) bool {
	if p.isAtEnd() {
		return tt == tokenEOF
	}
	return p.peek().Type == tt
}

func (p *parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *parser) isAtEnd() bool {
	return p.peek().Type == tokenEOF
}

func (p *parser) peek() Token {
	return p.tokens[p.current]
}

func (p *parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *parser) errorAt(tok Token, message string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     tok.Pos,
		Lexeme:  tok.Lexeme,
		AtEnd:   tok.Type == tokenEOF,
		Message: message,
		source:  p.source,
	})
}
