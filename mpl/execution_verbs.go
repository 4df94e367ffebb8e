package mpl

import (
	"errors"
	"fmt"
)

const resultName = "_"

func (exec *Execution) evalParams(params []Param) ([]Arg, error) {
	args := make([]Arg, 0, len(params))
	for _, param := range params {
		val, err := exec.evaluate(param.Value)
		if err != nil {
			return nil, err
		}
		args = append(args, Arg{Name: param.Name, Value: val})
	}
	return args, nil
}

// executeInvoke resolves the entity through the knowledge base first. A name
// that is not an entity but a summoned module dispatches the `rite` parameter
// as a registry call with the remaining parameter values in order.
func (exec *Execution) executeInvoke(s *InvokeStmt) error {
	args, err := exec.evalParams(s.Params)
	if err != nil {
		return err
	}
	if record, ok := exec.resolve(s.Entity); ok {
		exec.logger.Debug("invoke", "entity", s.Entity, "params", len(args))
		result, err := exec.config.Invoker.Invoke(exec.ctx, s.Entity, record, args)
		if err != nil {
			if isHostControlSignal(err) {
				return err
			}
			return exec.newRuntimeError(KindExternal, s.Pos(), err, fmt.Sprintf("invoke.%s failed: %v", s.Entity, err))
		}
		return exec.bindTarget(s.Pos(), resultName, result)
	}

	if _, summoned := exec.session.summoned[s.Entity]; summoned {
		rite := ""
		rest := make([]Value, 0, len(args))
		for _, arg := range args {
			if arg.Name == "rite" && rite == "" {
				rite = arg.Value.String()
				continue
			}
			rest = append(rest, arg.Value)
		}
		if rite == "" {
			return exec.newRuntimeError(KindType, s.Pos(), ErrTypeMismatch, fmt.Sprintf("invoke.%s requires a rite parameter", s.Entity))
		}
		result, ok, err := exec.callRegistry(s, s.Entity, rite, rest)
		if !ok {
			return err
		}
		return exec.bindTarget(s.Pos(), resultName, result)
	}

	return exec.unknownEntity(s.Pos(), s.Entity)
}

func (exec *Execution) executeSummon(s *SummonStmt) error {
	if exec.config.Registry == nil || !exec.config.Registry.HasModule(s.Module) {
		exec.fizzle(s.Pos(), fmt.Errorf("%w: unknown module '%s'", ErrFizzle, s.Module))
		return nil
	}
	exec.session.summoned[s.Module] = struct{}{}
	exec.logger.Debug("module summoned", "module", s.Module)
	return nil
}

// executeHex fuses parameters into the target vessel. An unbound target is
// first seeded from the knowledge-base record of the same name.
func (exec *Execution) executeHex(s *HexStmt) error {
	args, err := exec.evalParams(s.Params)
	if err != nil {
		return err
	}
	if exec.env.IsSealed(s.Target) {
		return exec.fail(s.Pos(), ErrSealed, "cannot hex sealed name '%s'", s.Target)
	}
	current, ok := exec.env.Get(s.Target)
	if !ok {
		record, found := exec.resolve(s.Target)
		if !found {
			return exec.unknownEntity(s.Pos(), s.Target)
		}
		current = record
	}
	patch := make(map[string]Value, len(args))
	for _, arg := range args {
		patch[arg.Name] = arg.Value
	}
	result, ok, err := exec.callRegistry(s, "hermetic", "fuse", []Value{current, NewVessel(patch)})
	if !ok {
		return err
	}
	return exec.bindTarget(s.Pos(), s.Target, result)
}

func (exec *Execution) executeMorph(s *MorphStmt) error {
	current, ok := exec.env.Get(s.Target)
	if !ok {
		return exec.fail(s.Pos(), ErrUnbound, "cannot morph unbound name '%s'", s.Target)
	}
	if exec.env.IsSealed(s.Target) {
		return exec.fail(s.Pos(), ErrSealed, "cannot morph sealed name '%s'", s.Target)
	}
	result, ok, err := exec.callRegistry(s, "hermetic", "transmute", []Value{current, NewString(s.Type.TypeName())})
	if !ok {
		return err
	}
	return exec.bindTarget(s.Pos(), s.Target, result)
}

func (exec *Execution) executePact(s *PactStmt) error {
	request, err := exec.evaluate(s.Request)
	if err != nil {
		return err
	}
	if exec.env.IsSealed(s.Target) {
		return exec.fail(s.Pos(), ErrSealed, "cannot bind sealed name '%s'", s.Target)
	}
	result, ok, err := exec.callRegistry(s, "divination", "scry", []Value{request})
	if !ok {
		return err
	}
	return exec.bindTarget(s.Pos(), s.Target, result)
}

func (exec *Execution) executeOmen(s *OmenStmt) error {
	if exec.env.IsSealed(s.Target) {
		return exec.fail(s.Pos(), ErrSealed, "cannot bind sealed name '%s'", s.Target)
	}
	result, ok, err := exec.callRegistry(s, "divination", "omen", nil)
	if !ok {
		return err
	}
	return exec.bindTarget(s.Pos(), s.Target, result)
}

// callRegistry reports ok=false when the caller must stop. err is nil for
// a fizzle, which has already been reported.
func (exec *Execution) callRegistry(stmt Statement, module, function string, args []Value) (Value, bool, error) {
	if exec.config.Registry == nil {
		exec.fizzle(stmt.Pos(), fmt.Errorf("%w: no registry for %s.%s", ErrFizzle, module, function))
		return NewVoid(), false, nil
	}
	result, err := exec.config.Registry.Call(exec.ctx, module, function, args)
	switch {
	case err == nil:
		return result, true, nil
	case isHostControlSignal(err):
		return NewVoid(), false, err
	case errors.Is(err, ErrFizzle):
		exec.fizzle(stmt.Pos(), err)
		return NewVoid(), false, nil
	default:
		return NewVoid(), false, exec.newRuntimeError(KindExternal, stmt.Pos(), err, fmt.Sprintf("%s.%s failed: %v", module, function, err))
	}
}

func (exec *Execution) fizzle(pos Position, err error) {
	exec.config.Output.Diagnostic(exec.newRuntimeError(KindExternal, pos, err, err.Error()))
	exec.logger.Warn("spell fizzled", "line", pos.Line, "err", err)
}

func (exec *Execution) resolve(name string) (Value, bool) {
	if exec.config.Resolver == nil {
		return NewVoid(), false
	}
	return exec.config.Resolver.Resolve(name)
}

func (exec *Execution) unknownEntity(pos Position, name string) error {
	message := fmt.Sprintf("unknown entity '%s'", name)
	if exec.config.Resolver != nil {
		if suggestions := exec.config.Resolver.Suggest(name); len(suggestions) > 0 {
			message += fmt.Sprintf("; did you mean '%s'?", suggestions[0])
		}
	}
	return exec.newRuntimeError(KindUnknownEntity, pos, ErrUnknownEntity, message)
}

func (exec *Execution) bindTarget(pos Position, name string, val Value) error {
	if err := exec.env.Bind(name, val); err != nil {
		return exec.fail(pos, err, "cannot bind sealed name '%s'", name)
	}
	return nil
}
