package mpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Execution walks one parsed program against a session environment.
type Execution struct {
	session *Session
	config  Config
	ctx     context.Context
	source  string
	quota   int
	steps   int
	env     *Env
	logger  *log.Logger
}

// Interpret runs statements in order. The first uncaught runtime error aborts
// the remainder of the program.
func (exec *Execution) Interpret(ctx context.Context, stmts []Statement) error {
	if ctx != nil {
		exec.ctx = ctx
	}
	for _, stmt := range stmts {
		if err := exec.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (exec *Execution) Steps() int {
	return exec.steps
}

func (exec *Execution) step() error {
	exec.steps++
	if exec.quota > 0 && exec.steps > exec.quota {
		return fmt.Errorf("%w (%d)", errStepQuotaExceeded, exec.quota)
	}
	if exec.ctx != nil {
		select {
		case <-exec.ctx.Done():
			return exec.ctx.Err()
		default:
		}
	}
	return nil
}

func (exec *Execution) execute(stmt Statement) error {
	if err := exec.step(); err != nil {
		return err
	}
	switch s := stmt.(type) {
	case *BindStmt:
		val, err := exec.evaluate(s.Value)
		if err != nil {
			return err
		}
		if err := exec.env.Bind(s.Name, val); err != nil {
			return exec.fail(s.Pos(), err, "cannot bind sealed name '%s'", s.Name)
		}
		return nil
	case *SealStmt:
		if err := exec.env.Seal(s.Target); err != nil {
			return exec.fail(s.Pos(), err, "cannot seal unbound name '%s'", s.Target)
		}
		return nil
	case *BanishStmt:
		exec.env.Banish(s.Target)
		return nil
	case *PurgeStmt:
		if s.Target == "" {
			exec.env.Purge()
		} else {
			exec.env.Banish(s.Target)
		}
		return nil
	case *EchoStmt:
		val, err := exec.evaluate(s.Message)
		if err != nil {
			return err
		}
		exec.config.Output.Echo(val.String())
		return nil
	case *AbyssStmt:
		val, err := exec.evaluate(s.Message)
		if err != nil {
			return err
		}
		return exec.newRuntimeError(KindAbyss, s.Pos(), nil, val.String())
	case *CircleStmt:
		return exec.executeCircle(s)
	case *CycleStmt:
		return exec.executeCycle(s)
	case *IfStmt:
		cond, err := exec.evaluate(s.Condition)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return exec.withFrame(exec.execute(s.Then), "if", s.Pos())
		}
		if s.Else != nil {
			return exec.withFrame(exec.execute(s.Else), "else", s.Pos())
		}
		return nil
	case *BlockStmt:
		for _, inner := range s.Statements {
			if err := exec.execute(inner); err != nil {
				return exec.withFrame(err, "block", s.Pos())
			}
		}
		return nil
	case *InvokeStmt:
		return exec.executeInvoke(s)
	case *SummonStmt:
		return exec.executeSummon(s)
	case *HexStmt:
		return exec.executeHex(s)
	case *MorphStmt:
		return exec.executeMorph(s)
	case *PactStmt:
		return exec.executePact(s)
	case *OmenStmt:
		return exec.executeOmen(s)
	default:
		return exec.newRuntimeError(KindType, stmt.Pos(), ErrTypeMismatch, fmt.Sprintf("unsupported statement %T", stmt))
	}
}

func (exec *Execution) executeCircle(s *CircleStmt) error {
	err := exec.execute(s.Body)
	if err == nil {
		return nil
	}
	if isHostControlSignal(err) {
		return err
	}
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		return err
	}
	exec.config.Output.Diagnostic(rerr)
	exec.logger.Warn("circle contained failure", "kind", rerr.Kind, "line", rerr.Pos.Line)
	return nil
}

func (exec *Execution) executeCycle(s *CycleStmt) error {
	freq, err := exec.evaluate(s.Frequency)
	if err != nil {
		return err
	}
	var n int64
	switch freq.Kind() {
	case KindInt:
		n = freq.Int()
	case KindFloat:
		f := freq.Float()
		if f != float64(int64(f)) {
			return exec.newRuntimeError(KindType, s.Pos(), ErrTypeMismatch, fmt.Sprintf("cycle frequency must be whole, got %s", freq))
		}
		n = int64(f)
	default:
		return exec.newRuntimeError(KindType, s.Pos(), ErrTypeMismatch, fmt.Sprintf("cycle frequency must be Mana, got %s", freq.Kind()))
	}
	for i := int64(0); i < n; i++ {
		if err := exec.execute(s.Body); err != nil {
			return exec.withFrame(err, "cycle", s.Pos())
		}
	}
	return nil
}

func (exec *Execution) evaluate(expr Expression) (Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *Variable:
		val, ok := exec.env.Get(e.Name)
		if !ok {
			return NewVoid(), exec.newRuntimeError(KindUnknownVariable, e.Pos(), ErrUnbound, fmt.Sprintf("undefined variable '%s'", e.Name))
		}
		return val, nil
	case *Grouping:
		return exec.evaluate(e.Inner)
	case *Unary:
		right, err := exec.evaluate(e.Right)
		if err != nil {
			return NewVoid(), err
		}
		return exec.negate(e, right)
	case *Binary:
		left, err := exec.evaluate(e.Left)
		if err != nil {
			return NewVoid(), err
		}
		right, err := exec.evaluate(e.Right)
		if err != nil {
			return NewVoid(), err
		}
		return exec.evalBinary(e, left, right)
	default:
		return NewVoid(), exec.newRuntimeError(KindType, expr.Pos(), ErrTypeMismatch, fmt.Sprintf("unsupported expression %T", expr))
	}
}

func (exec *Execution) newRuntimeError(kind ErrorKind, pos Position, cause error, message string) *RuntimeError {
	return &RuntimeError{
		Kind:      kind,
		Message:   message,
		Pos:       pos,
		CodeFrame: formatCodeFrame(exec.source, pos),
		cause:     cause,
	}
}

// fail converts a sentinel-carrying error into a runtime error at pos.
func (exec *Execution) fail(pos Position, cause error, format string, args ...any) *RuntimeError {
	return exec.newRuntimeError(kindForError(cause), pos, cause, fmt.Sprintf(format, args...))
}

func (exec *Execution) withFrame(err error, statement string, pos Position) error {
	if err == nil {
		return nil
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		rerr.Frames = append(rerr.Frames, StackFrame{Statement: statement, Pos: pos})
	}
	return err
}
