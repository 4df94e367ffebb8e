package mpl

type Node interface {
	Pos() Position
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

// Param is one `name = expr` pair of an invoke or hex parameter list.
type Param struct {
	Name  string
	Value Expression
}

type Literal struct {
	Value    Value
	position Position
}

func (e *Literal) exprNode()     {}
func (e *Literal) Pos() Position { return e.position }

type Variable struct {
	Name     string
	position Position
}

func (e *Variable) exprNode()     {}
func (e *Variable) Pos() Position { return e.position }

type Binary struct {
	Left     Expression
	Operator Token
	Right    Expression
	position Position
}

func (e *Binary) exprNode()     {}
func (e *Binary) Pos() Position { return e.position }

type Unary struct {
	Operator Token
	Right    Expression
	position Position
}

func (e *Unary) exprNode()     {}
func (e *Unary) Pos() Position { return e.position }

type Grouping struct {
	Inner    Expression
	position Position
}

func (e *Grouping) exprNode()     {}
func (e *Grouping) Pos() Position { return e.position }
