package mpl

type InvokeStmt struct {
	Entity   string
	Params   []Param
	position Position
}

func (s *InvokeStmt) stmtNode()     {}
func (s *InvokeStmt) Pos() Position { return s.position }

type BindStmt struct {
	Name     string
	Value    Expression
	position Position
}

func (s *BindStmt) stmtNode()     {}
func (s *BindStmt) Pos() Position { return s.position }

type SummonStmt struct {
	Module   string
	position Position
}

func (s *SummonStmt) stmtNode()     {}
func (s *SummonStmt) Pos() Position { return s.position }

// CircleStmt runs Body and swallows any runtime error raised inside it.
type CircleStmt struct {
	Body     Statement
	position Position
}

func (s *CircleStmt) stmtNode()     {}
func (s *CircleStmt) Pos() Position { return s.position }

type SealStmt struct {
	Target   string
	position Position
}

func (s *SealStmt) stmtNode()     {}
func (s *SealStmt) Pos() Position { return s.position }

type OmenStmt struct {
	Target   string
	position Position
}

func (s *OmenStmt) stmtNode()     {}
func (s *OmenStmt) Pos() Position { return s.position }

type HexStmt struct {
	Target   string
	Params   []Param
	position Position
}

func (s *HexStmt) stmtNode()     {}
func (s *HexStmt) Pos() Position { return s.position }

type MorphStmt struct {
	Target   string
	Type     TokenType
	position Position
}

func (s *MorphStmt) stmtNode()     {}
func (s *MorphStmt) Pos() Position { return s.position }

type PactStmt struct {
	Target   string
	Request  Expression
	position Position
}

func (s *PactStmt) stmtNode()     {}
func (s *PactStmt) Pos() Position { return s.position }

type BanishStmt struct {
	Target   string
	position Position
}

func (s *BanishStmt) stmtNode()     {}
func (s *BanishStmt) Pos() Position { return s.position }

// PurgeStmt clears one binding, or every binding when Target is empty.
type PurgeStmt struct {
	Target   string
	position Position
}

func (s *PurgeStmt) stmtNode()     {}
func (s *PurgeStmt) Pos() Position { return s.position }

type AbyssStmt struct {
	Message  Expression
	position Position
}

func (s *AbyssStmt) stmtNode()     {}
func (s *AbyssStmt) Pos() Position { return s.position }

type EchoStmt struct {
	Message  Expression
	position Position
}

func (s *EchoStmt) stmtNode()     {}
func (s *EchoStmt) Pos() Position { return s.position }

type CycleStmt struct {
	Frequency Expression
	Body      Statement
	position  Position
}

func (s *CycleStmt) stmtNode()     {}
func (s *CycleStmt) Pos() Position { return s.position }

type IfStmt struct {
	Condition Expression
	Then      Statement
	Else      Statement
	position  Position
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Pos() Position { return s.position }

type BlockStmt struct {
	Statements []Statement
	position   Position
}

func (s *BlockStmt) stmtNode()     {}
func (s *BlockStmt) Pos() Position { return s.position }
