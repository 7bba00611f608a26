package clove

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// evalBinop applies a binary operator to already-evaluated operands.
// Arithmetic follows the Int/Dec promotion and demotion rules of the data
// model: two Ints stay exact; any Dec operand promotes the result to Dec,
// except that +, -, and * demote back to Int when the Dec result has no
// fractional part, and / stays Int only when both operands are Int and the
// division is exact. % always requires both operands to be Int.
func evalBinop(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		return evalPlus(l, r)
	case "-":
		return evalArith(op, l, r)
	case "*":
		return evalArith(op, l, r)
	case "/":
		return evalDivide(l, r)
	case "%":
		return evalModulo(l, r)
	case "==":
		return Bool(valuesEqual(l, r)), nil
	case "!=":
		return Bool(!valuesEqual(l, r)), nil
	case "<":
		return evalOrder(op, l, r)
	case ">":
		return evalOrder(op, l, r)
	case "<=":
		return evalOrder(op, l, r)
	case ">=":
		return evalOrder(op, l, r)
	case "and":
		return Bool(truthy(l) && truthy(r)), nil
	case "or":
		return Bool(truthy(l) || truthy(r)), nil
	case "??":
		if l.IsNull() {
			return r, nil
		}
		return l, nil
	default:
		return Value{}, typeErrorf("unknown operator %q", op)
	}
}

func evalPlus(l, r Value) (Value, error) {
	switch {
	case l.Kind() == KindStr && r.Kind() == KindStr:
		return Str(l.AsStr() + r.AsStr()), nil
	case l.Kind() == KindArr && r.Kind() == KindArr:
		out := make([]Value, 0, len(l.AsArr())+len(r.AsArr()))
		out = append(out, l.AsArr()...)
		out = append(out, r.AsArr()...)
		return Arr(out), nil
	case l.IsNumeric() && r.IsNumeric():
		return evalArith("+", l, r)
	default:
		return Value{}, typeErrorf("cannot apply '+' to %s and %s", l.Kind(), r.Kind())
	}
}

// evalArith implements +, -, * with the Int/Dec promotion/demotion rule.
func evalArith(op string, l, r Value) (Value, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return Value{}, typeErrorf("cannot apply %q to %s and %s", op, l.Kind(), r.Kind())
	}
	if l.Kind() == KindInt && r.Kind() == KindInt {
		li, ri := l.AsInt(), r.AsInt()
		out := new(big.Int)
		switch op {
		case "+":
			out.Add(li, ri)
		case "-":
			out.Sub(li, ri)
		case "*":
			out.Mul(li, ri)
		}
		return Int(out), nil
	}

	ld, rd := l.AsDec(), r.AsDec()
	var out decimal.Decimal
	switch op {
	case "+":
		out = ld.Add(rd)
	case "-":
		out = ld.Sub(rd)
	case "*":
		out = ld.Mul(rd)
	}
	return demoteIfExact(out), nil
}

func evalDivide(l, r Value) (Value, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return Value{}, typeErrorf("cannot apply '/' to %s and %s", l.Kind(), r.Kind())
	}
	if isZero(r) {
		return Value{}, typeErrorf("division by zero")
	}

	if l.Kind() == KindInt && r.Kind() == KindInt {
		li, ri := l.AsInt(), r.AsInt()
		q, rem := new(big.Int), new(big.Int)
		q.QuoRem(li, ri, rem)
		if rem.Sign() == 0 {
			return Int(q), nil
		}
		ld := decimal.NewFromBigInt(li, 0)
		rdd := decimal.NewFromBigInt(ri, 0)
		return Dec(ld.DivRound(rdd, int32(decimal.DivisionPrecision))), nil
	}

	ld, rd := l.AsDec(), r.AsDec()
	return Dec(ld.DivRound(rd, int32(decimal.DivisionPrecision))), nil
}

func evalModulo(l, r Value) (Value, error) {
	if l.Kind() != KindInt || r.Kind() != KindInt {
		return Value{}, typeErrorf("'%%' requires both operands to be integers, got %s and %s", l.Kind(), r.Kind())
	}
	if isZero(r) {
		return Value{}, typeErrorf("modulo by zero")
	}
	out := new(big.Int)
	out.Rem(l.AsInt(), r.AsInt())
	return Int(out), nil
}

func isZero(v Value) bool {
	if v.Kind() == KindInt {
		return v.AsInt().Sign() == 0
	}
	return v.AsDec().IsZero()
}

// demoteIfExact collapses a Dec result back to Int when it has no
// fractional part, per the data model's demotion rule.
func demoteIfExact(d decimal.Decimal) Value {
	if d.Exponent() >= 0 {
		return Int(d.BigInt())
	}
	trimmed := d.Truncate(0)
	if trimmed.Equal(d) {
		return Int(trimmed.BigInt())
	}
	return Dec(d)
}

func evalOrder(op string, l, r Value) (Value, error) {
	switch {
	case l.IsNumeric() && r.IsNumeric():
		cmp := l.AsDec().Cmp(r.AsDec())
		return Bool(cmpMatches(op, cmp)), nil
	case l.Kind() == KindStr && r.Kind() == KindStr:
		cmp := 0
		switch {
		case l.AsStr() < r.AsStr():
			cmp = -1
		case l.AsStr() > r.AsStr():
			cmp = 1
		}
		return Bool(cmpMatches(op, cmp)), nil
	default:
		return Value{}, typeErrorf("cannot compare %s and %s with %q", l.Kind(), r.Kind(), op)
	}
}

func cmpMatches(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}

// valuesEqual implements structural equality. Unlike the order operators,
// equality never errors: values of incompatible kinds simply compare
// unequal, e.g. "1" == 1 is false, matching spec.md's example directly.
func valuesEqual(l, r Value) bool {
	if l.IsNumeric() && r.IsNumeric() {
		return l.AsDec().Equal(r.AsDec())
	}
	if l.Kind() != r.Kind() {
		return false
	}
	switch l.Kind() {
	case KindNull:
		return true
	case KindBool:
		return l.AsBool() == r.AsBool()
	case KindStr:
		return l.AsStr() == r.AsStr()
	case KindArr:
		la, ra := l.AsArr(), r.AsArr()
		if len(la) != len(ra) {
			return false
		}
		for i := range la {
			if !valuesEqual(la[i], ra[i]) {
				return false
			}
		}
		return true
	case KindObj:
		lo, ro := l.AsObj(), r.AsObj()
		if lo.Len() != ro.Len() {
			return false
		}
		for _, k := range lo.Keys() {
			lv, _ := lo.Get(k)
			rv, ok := ro.Get(k)
			if !ok || !valuesEqual(lv, rv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// truthy implements the language's truthiness rule: only null and false
// are falsy. Unlike Existence, an empty string, array, or object is
// truthy — truthiness and Existence are deliberately different predicates.
func truthy(v Value) bool {
	switch v.Kind() {
	case KindNull:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

func evalUnop(op string, operand Value) (Value, error) {
	switch op {
	case "-":
		if !operand.IsNumeric() {
			return Value{}, typeErrorf("cannot negate %s", operand.Kind())
		}
		if operand.Kind() == KindInt {
			return Int(new(big.Int).Neg(operand.AsInt())), nil
		}
		return Dec(operand.AsDec().Neg()), nil
	case "!":
		return Bool(!truthy(operand)), nil
	default:
		return Value{}, typeErrorf("unknown unary operator %q", op)
	}
}
