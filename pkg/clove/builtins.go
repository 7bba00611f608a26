package clove

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// lambdaArgMethods are the built-ins whose last argument is evaluated
// once per input element with that element bound as Ctx, mirroring the
// dispatch-table idiom used throughout this codebase for per-name
// behavior tables. Consulted by the parser's exprHasFreeCtx (to know
// which argument NOT to treat as a free Ctx reference of the enclosing
// Transform); callMethod below dispatches by name without it.
var lambdaArgMethods = map[string]bool{
	"any": true, "all": true, "filter": true, "map": true,
	"sum": true, "sort": true, "sort_desc": true,
}

func methodTakesLambda(name string) bool {
	return lambdaArgMethods[name]
}

// callMethod dispatches a MethodCall to its built-in implementation.
// Methods on Null all return Null except type(), exists(), and matches().
func callMethod(ec *EvalContext, target Value, name string, argExprs []Expr) (Value, error) {
	if name == "type" {
		return Str(target.TypeName()), nil
	}

	if target.IsNull() {
		switch name {
		case "exists":
			return Bool(false), nil
		case "matches":
			return Bool(false), nil
		default:
			return Null, nil
		}
	}

	switch name {
	case "to_string":
		return Str(target.ToDisplayString()), nil
	case "any":
		return methodAny(ec, target, argExprs)
	case "all":
		return methodAll(ec, target, argExprs)
	case "filter":
		return methodFilter(ec, target, argExprs)
	case "map":
		return methodMap(ec, target, argExprs)
	case "sum":
		return methodSum(ec, target, argExprs)
	case "count":
		return methodCount(target)
	case "length":
		return methodLength(target)
	case "first":
		return methodFirst(target)
	case "last":
		return methodLast(target)
	case "exists":
		return Bool(isNonEmpty(target)), nil
	case "unique":
		return methodUnique(target)
	case "sort":
		return methodSort(ec, target, argExprs, false)
	case "sort_desc":
		return methodSort(ec, target, argExprs, true)
	case "min":
		return methodMin(target)
	case "max":
		return methodMax(target)
	case "avg":
		return methodAvg(target)
	case "reverse":
		return methodReverse(target)
	case "flatten":
		return methodFlatten(target)
	case "keys":
		return methodKeys(target)
	case "values":
		return methodValues(target)
	case "upper":
		return methodCaseFold(target, strings.ToUpper)
	case "lower":
		return methodCaseFold(target, strings.ToLower)
	case "contains":
		return methodStringBinary(ec, target, argExprs, strings.Contains)
	case "startswith":
		return methodStringBinary(ec, target, argExprs, strings.HasPrefix)
	case "endswith":
		return methodStringBinary(ec, target, argExprs, strings.HasSuffix)
	case "trim":
		return methodCaseFold(target, strings.TrimSpace)
	case "split":
		return methodSplit(ec, target, argExprs)
	case "join":
		return methodJoin(ec, target, argExprs)
	case "matches":
		return methodMatches(ec, target, argExprs)
	default:
		return Value{}, typeErrorf("unknown method %q", name)
	}
}

func requireArr(target Value, method string) ([]Value, error) {
	if target.Kind() != KindArr {
		return nil, typeErrorf("%s() requires an array receiver, found %s", method, target.Kind())
	}
	return target.AsArr(), nil
}

func requireArgs(argExprs []Expr, n int, method string) error {
	if len(argExprs) != n {
		return typeErrorf("%s() expects %d argument(s), got %d", method, n, len(argExprs))
	}
	return nil
}

func methodAny(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	arr, err := requireArr(target, "any")
	if err != nil {
		return Value{}, err
	}
	if err := requireArgs(argExprs, 1, "any"); err != nil {
		return Value{}, err
	}
	for _, elem := range arr {
		v, err := evalPerElement(ec, argExprs[0], elem)
		if err != nil {
			return Value{}, err
		}
		if truthy(v) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func methodAll(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	arr, err := requireArr(target, "all")
	if err != nil {
		return Value{}, err
	}
	if err := requireArgs(argExprs, 1, "all"); err != nil {
		return Value{}, err
	}
	for _, elem := range arr {
		v, err := evalPerElement(ec, argExprs[0], elem)
		if err != nil {
			return Value{}, err
		}
		if !truthy(v) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func methodFilter(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	if _, err := requireArr(target, "filter"); err != nil {
		return Value{}, err
	}
	if err := requireArgs(argExprs, 1, "filter"); err != nil {
		return Value{}, err
	}
	return evalFilterStage(ec, argExprs[0], target)
}

func methodMap(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	arr, err := requireArr(target, "map")
	if err != nil {
		return Value{}, err
	}
	if err := requireArgs(argExprs, 1, "map"); err != nil {
		return Value{}, err
	}
	out := make([]Value, len(arr))
	for i, elem := range arr {
		v, err := evalPerElement(ec, argExprs[0], elem)
		if err != nil {
			return Value{}, err
		}
		out[i] = v
	}
	return Arr(out), nil
}

func methodSum(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	arr, err := requireArr(target, "sum")
	if err != nil {
		return Value{}, err
	}
	if len(argExprs) > 1 {
		return Value{}, typeErrorf("sum() expects at most 1 argument, got %d", len(argExprs))
	}
	acc := IntFromInt64(0)
	for _, elem := range arr {
		v := elem
		if len(argExprs) == 1 {
			v, err = evalPerElement(ec, argExprs[0], elem)
			if err != nil {
				return Value{}, err
			}
		}
		if !v.IsNumeric() {
			return Value{}, typeErrorf("sum() requires numeric elements, found %s", v.Kind())
		}
		acc, err = evalArith("+", acc, v)
		if err != nil {
			return Value{}, err
		}
	}
	return acc, nil
}

func methodCount(target Value) (Value, error) {
	arr, err := requireArr(target, "count")
	if err != nil {
		return Value{}, err
	}
	return IntFromInt64(int64(len(arr))), nil
}

func methodLength(target Value) (Value, error) {
	switch target.Kind() {
	case KindArr:
		return IntFromInt64(int64(len(target.AsArr()))), nil
	case KindStr:
		return IntFromInt64(int64(utf8.RuneCountInString(target.AsStr()))), nil
	default:
		return Value{}, typeErrorf("length() requires an array or string receiver, found %s", target.Kind())
	}
}

func methodFirst(target Value) (Value, error) {
	arr, err := requireArr(target, "first")
	if err != nil {
		return Value{}, err
	}
	if len(arr) == 0 {
		return Null, nil
	}
	return arr[0], nil
}

func methodLast(target Value) (Value, error) {
	arr, err := requireArr(target, "last")
	if err != nil {
		return Value{}, err
	}
	if len(arr) == 0 {
		return Null, nil
	}
	return arr[len(arr)-1], nil
}

func methodUnique(target Value) (Value, error) {
	arr, err := requireArr(target, "unique")
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, 0, len(arr))
	for _, v := range arr {
		dup := false
		for _, seen := range out {
			if valuesEqual(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return Arr(out), nil
}

// totalOrderCompare implements the "numeric-then-string" total order used
// by sort()/sort_desc(): all numeric values sort before all strings;
// within a kind, natural order applies; any other kind compares equal to
// itself (stable, arbitrary relative to other kinds).
func totalOrderCompare(a, b Value) int {
	aNum, bNum := a.IsNumeric(), b.IsNumeric()
	aStr, bStr := a.Kind() == KindStr, b.Kind() == KindStr
	switch {
	case aNum && bNum:
		return a.AsDec().Cmp(b.AsDec())
	case aStr && bStr:
		return strings.Compare(a.AsStr(), b.AsStr())
	case aNum && bStr:
		return -1
	case aStr && bNum:
		return 1
	default:
		return 0
	}
}

func methodSort(ec *EvalContext, target Value, argExprs []Expr, desc bool) (Value, error) {
	arr, err := requireArr(target, "sort")
	if err != nil {
		return Value{}, err
	}
	if len(argExprs) > 1 {
		return Value{}, typeErrorf("sort() expects at most 1 argument, got %d", len(argExprs))
	}

	out := make([]Value, len(arr))
	copy(out, arr)

	if len(argExprs) == 0 {
		sort.SliceStable(out, func(i, j int) bool {
			c := totalOrderCompare(out[i], out[j])
			if desc {
				return c > 0
			}
			return c < 0
		})
		return Arr(out), nil
	}

	keys := make([]Value, len(out))
	var evalErr error
	for i, elem := range out {
		keys[i], evalErr = evalPerElement(ec, argExprs[0], elem)
		if evalErr != nil {
			return Value{}, evalErr
		}
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := totalOrderCompare(keys[idx[i]], keys[idx[j]])
		if desc {
			return c > 0
		}
		return c < 0
	})
	sorted := make([]Value, len(out))
	for i, srcIdx := range idx {
		sorted[i] = out[srcIdx]
	}
	return Arr(sorted), nil
}

func methodMin(target Value) (Value, error) {
	arr, err := requireArr(target, "min")
	if err != nil {
		return Value{}, err
	}
	if len(arr) == 0 {
		return Null, nil
	}
	best := arr[0]
	for _, v := range arr[1:] {
		if !v.IsNumeric() || !best.IsNumeric() {
			return Value{}, typeErrorf("min() requires numeric elements, found %s", v.Kind())
		}
		if v.AsDec().Cmp(best.AsDec()) < 0 {
			best = v
		}
	}
	return best, nil
}

func methodMax(target Value) (Value, error) {
	arr, err := requireArr(target, "max")
	if err != nil {
		return Value{}, err
	}
	if len(arr) == 0 {
		return Null, nil
	}
	best := arr[0]
	for _, v := range arr[1:] {
		if !v.IsNumeric() || !best.IsNumeric() {
			return Value{}, typeErrorf("max() requires numeric elements, found %s", v.Kind())
		}
		if v.AsDec().Cmp(best.AsDec()) > 0 {
			best = v
		}
	}
	return best, nil
}

func methodAvg(target Value) (Value, error) {
	arr, err := requireArr(target, "avg")
	if err != nil {
		return Value{}, err
	}
	if len(arr) == 0 {
		return Null, nil
	}
	sumV := IntFromInt64(0)
	for _, v := range arr {
		if !v.IsNumeric() {
			return Value{}, typeErrorf("avg() requires numeric elements, found %s", v.Kind())
		}
		sumV, err = evalArith("+", sumV, v)
		if err != nil {
			return Value{}, err
		}
	}
	n := IntFromInt64(int64(len(arr)))
	return evalDivide(sumV, n)
}

func methodReverse(target Value) (Value, error) {
	arr, err := requireArr(target, "reverse")
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, len(arr))
	for i, v := range arr {
		out[len(arr)-1-i] = v
	}
	return Arr(out), nil
}

func methodFlatten(target Value) (Value, error) {
	arr, err := requireArr(target, "flatten")
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, 0, len(arr))
	for _, v := range arr {
		if v.Kind() == KindArr {
			out = append(out, v.AsArr()...)
		} else {
			out = append(out, v)
		}
	}
	return Arr(out), nil
}

func methodKeys(target Value) (Value, error) {
	if target.Kind() != KindObj {
		return Value{}, typeErrorf("keys() requires an object receiver, found %s", target.Kind())
	}
	ks := target.AsObj().Keys()
	out := make([]Value, len(ks))
	for i, k := range ks {
		out[i] = Str(k)
	}
	return Arr(out), nil
}

func methodValues(target Value) (Value, error) {
	if target.Kind() != KindObj {
		return Value{}, typeErrorf("values() requires an object receiver, found %s", target.Kind())
	}
	ks := target.AsObj().Keys()
	out := make([]Value, len(ks))
	for i, k := range ks {
		v, _ := target.AsObj().Get(k)
		out[i] = v
	}
	return Arr(out), nil
}

func methodCaseFold(target Value, f func(string) string) (Value, error) {
	if target.Kind() != KindStr {
		return Value{}, typeErrorf("requires a string receiver, found %s", target.Kind())
	}
	return Str(f(target.AsStr())), nil
}

func methodStringBinary(ec *EvalContext, target Value, argExprs []Expr, f func(s, substr string) bool) (Value, error) {
	if target.Kind() != KindStr {
		return Value{}, typeErrorf("requires a string receiver, found %s", target.Kind())
	}
	if err := requireArgs(argExprs, 1, "string method"); err != nil {
		return Value{}, err
	}
	arg, err := evalExprNode(ec, argExprs[0])
	if err != nil {
		return Value{}, err
	}
	if arg.Kind() != KindStr {
		return Value{}, typeErrorf("expects a string argument, found %s", arg.Kind())
	}
	return Bool(f(target.AsStr(), arg.AsStr())), nil
}

func methodSplit(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	if target.Kind() != KindStr {
		return Value{}, typeErrorf("split() requires a string receiver, found %s", target.Kind())
	}
	if err := requireArgs(argExprs, 1, "split"); err != nil {
		return Value{}, err
	}
	arg, err := evalExprNode(ec, argExprs[0])
	if err != nil {
		return Value{}, err
	}
	if arg.Kind() != KindStr {
		return Value{}, typeErrorf("split() expects a string argument, found %s", arg.Kind())
	}
	parts := strings.Split(target.AsStr(), arg.AsStr())
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return Arr(out), nil
}

// methodJoin concatenates an array's elements into a string, converting
// each element with ToDisplayString the way a template filter would.
func methodJoin(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	arr, err := requireArr(target, "join")
	if err != nil {
		return Value{}, err
	}
	delim := ""
	if len(argExprs) == 1 {
		arg, err := evalExprNode(ec, argExprs[0])
		if err != nil {
			return Value{}, err
		}
		if arg.Kind() != KindStr {
			return Value{}, typeErrorf("join() delimiter must be a string, found %s", arg.Kind())
		}
		delim = arg.AsStr()
	} else if len(argExprs) > 1 {
		return Value{}, typeErrorf("join() expects at most 1 argument, got %d", len(argExprs))
	}
	parts := make([]string, len(arr))
	for i, v := range arr {
		parts[i] = v.ToDisplayString()
	}
	return Str(strings.Join(parts, delim)), nil
}

func methodMatches(ec *EvalContext, target Value, argExprs []Expr) (Value, error) {
	if err := requireArgs(argExprs, 1, "matches"); err != nil {
		return Value{}, err
	}
	arg, err := evalExprNode(ec, argExprs[0])
	if err != nil {
		return Value{}, err
	}
	if arg.Kind() != KindStr {
		return Value{}, typeErrorf("matches() expects a string pattern, found %s", arg.Kind())
	}
	if target.Kind() != KindStr {
		return Bool(false), nil
	}
	re, err := ec.regexes.compile(arg.AsStr())
	if err != nil {
		return Value{}, err
	}
	return Bool(re.MatchString(target.AsStr())), nil
}
