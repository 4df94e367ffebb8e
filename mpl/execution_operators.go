package mpl

import (
	"fmt"
	"math"
)

func (exec *Execution) evalBinary(expr *Binary, left, right Value) (Value, error) {
	var (
		result Value
		err    error
	)
	switch expr.Operator.Type {
	case tokenEQ:
		return NewBool(left.Equal(right)), nil
	case tokenNotEQ:
		return NewBool(!left.Equal(right)), nil
	case tokenLT, tokenGT, tokenLTE, tokenGTE:
		result, err = compareValues(expr.Operator.Type, left, right)
	case tokenPlus:
		result, err = addValues(left, right)
	case tokenMinus:
		result, err = subtractValues(left, right)
	case tokenAsterisk:
		result, err = multiplyValues(left, right)
	case tokenSlash:
		result, err = divideValues(left, right)
	default:
		err = fmt.Errorf("%w: unsupported operator %s", ErrTypeMismatch, expr.Operator.Lexeme)
	}
	if err != nil {
		return NewVoid(), exec.newRuntimeError(kindForError(err), expr.Pos(), err, err.Error())
	}
	return result, nil
}

func (exec *Execution) negate(expr *Unary, right Value) (Value, error) {
	switch right.Kind() {
	case KindInt:
		if right.Int() == math.MinInt64 {
			return NewFloat(-right.Float()), nil
		}
		return NewInt(-right.Int()), nil
	case KindFloat:
		return NewFloat(-right.Float()), nil
	default:
		err := fmt.Errorf("%w: cannot negate %s", ErrTypeMismatch, right.Kind())
		return NewVoid(), exec.newRuntimeError(KindType, expr.Pos(), err, err.Error())
	}
}

func addValues(left, right Value) (Value, error) {
	switch {
	case left.Kind() == KindString || right.Kind() == KindString:
		return NewString(left.String() + right.String()), nil
	case left.Kind() == KindInt && right.Kind() == KindInt:
		a, b := left.Int(), right.Int()
		if sum := a + b; (a^sum)&(b^sum) >= 0 {
			return NewInt(sum), nil
		}
		return NewFloat(float64(a) + float64(b)), nil
	case left.IsNumeric() && right.IsNumeric():
		return NewFloat(left.Float() + right.Float()), nil
	default:
		return NewVoid(), operandError("+", left, right)
	}
}

func subtractValues(left, right Value) (Value, error) {
	switch {
	case left.Kind() == KindInt && right.Kind() == KindInt:
		a, b := left.Int(), right.Int()
		if diff := a - b; (a^b)&(a^diff) >= 0 {
			return NewInt(diff), nil
		}
		return NewFloat(float64(a) - float64(b)), nil
	case left.IsNumeric() && right.IsNumeric():
		return NewFloat(left.Float() - right.Float()), nil
	default:
		return NewVoid(), operandError("-", left, right)
	}
}

// MultiplyValues applies the * operator: Mana stays Mana unless the product
// leaves the int64 range, then it becomes Flux.
func MultiplyValues(left, right Value) (Value, error) {
	return multiplyValues(left, right)
}

func multiplyValues(left, right Value) (Value, error) {
	switch {
	case left.Kind() == KindInt && right.Kind() == KindInt:
		a, b := left.Int(), right.Int()
		if product, ok := mulInt(a, b); ok {
			return NewInt(product), nil
		}
		return NewFloat(float64(a) * float64(b)), nil
	case left.IsNumeric() && right.IsNumeric():
		return NewFloat(left.Float() * right.Float()), nil
	default:
		return NewVoid(), operandError("*", left, right)
	}
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	product := a * b
	return product, product/b == a
}

// divideValues always yields Flux.
func divideValues(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return NewVoid(), operandError("/", left, right)
	}
	if right.Float() == 0 {
		return NewVoid(), fmt.Errorf("%w: %s / %s", ErrDivisionByZero, left, right)
	}
	return NewFloat(left.Float() / right.Float()), nil
}

func compareValues(op TokenType, left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return NewVoid(), operandError(string(op), left, right)
	}
	var cmp int
	if left.Kind() == KindInt && right.Kind() == KindInt {
		cmp = compareOrdered(left.Int(), right.Int())
	} else {
		cmp = compareOrdered(left.Float(), right.Float())
	}
	switch op {
	case tokenLT:
		return NewBool(cmp < 0), nil
	case tokenGT:
		return NewBool(cmp > 0), nil
	case tokenLTE:
		return NewBool(cmp <= 0), nil
	default:
		return NewBool(cmp >= 0), nil
	}
}

func compareOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func operandError(op string, left, right Value) error {
	return fmt.Errorf("%w: unsupported operands for %s: %s and %s", ErrTypeMismatch, op, left.Kind(), right.Kind())
}
