package clove

import "fmt"

// Eval runs q against root using envLookup to resolve EnvVar references
// and preloadedUdfs as the base UDF table (overridden by in-query UdfDefs
// of the same name). It returns the JSON-ready result Value.
func Eval(q *Query, root Value, envLookup func(name string) (string, bool), preloadedUdfs map[string]PreloadedUdf) (Value, error) {
	ec := NewEvalContext(root, envLookup)
	for name, u := range preloadedUdfs {
		ec.RegisterUdf(name, u.Arity, u.Body)
	}
	for _, def := range q.Udfs {
		if def.Arity < 0 || def.Arity > 9 {
			return Value{}, arityErrorf(def.Pos, "UDF &%s has arity %d outside 0..9", def.Name, def.Arity)
		}
		ec.RegisterUdf(def.Name, def.Arity, def.Body)
	}

	current := root
	for i, stage := range q.Stages {
		next, err := evalStage(ec, stage, current)
		if err != nil {
			return Value{}, err
		}
		current = next
		ec.current = current
		_ = i
	}
	return current, nil
}

// PreloadedUdf is one entry of the externally-supplied UDF map (already
// parsed into a body AST by the host, per spec.md §6's "UDF preload
// format").
type PreloadedUdf struct {
	Arity int
	Body  Expr
}

func evalStage(ec *EvalContext, s Stage, current Value) (Value, error) {
	switch st := s.(type) {
	case RootStart:
		return ec.root, nil

	case *Bind:
		if ec.hasScope(st.Name) {
			return Value{}, rebindErrorf(st.Name)
		}
		v, err := evalExprNode(ec, st.Value)
		if err != nil {
			return Value{}, err
		}
		ec.BindScope(st.Name, v)
		return current, nil

	case *Filter:
		return evalFilterStage(ec, st.Cond, current)

	case *Transform:
		return evalTransformStage(ec, st, current)

	case *Delete:
		return deleteAtPath(current, st.Path.Segments), nil

	case *Output:
		return evalExprNode(ec, st.Value)

	case *BareExpr:
		return evalExprNode(ec, st.Value)

	default:
		return Value{}, typeErrorf("unknown stage type %T", s)
	}
}

func evalFilterStage(ec *EvalContext, cond Expr, current Value) (Value, error) {
	if current.Kind() != KindArr {
		keep, err := evalPerElement(ec, cond, current)
		if err != nil {
			return Value{}, err
		}
		if truthy(keep) {
			return current, nil
		}
		return Null, nil
	}

	in := current.AsArr()
	out := make([]Value, 0, len(in))
	for _, elem := range in {
		keep, err := evalPerElement(ec, cond, elem)
		if err != nil {
			return Value{}, err
		}
		if truthy(keep) {
			out = append(out, elem)
		}
	}
	return Arr(out), nil
}

func evalPerElement(ec *EvalContext, e Expr, elem Value) (Value, error) {
	ec.pushLambdaFrame(elem)
	defer ec.popFrame()
	return evalExprNode(ec, e)
}

func evalTransformStage(ec *EvalContext, st *Transform, current Value) (Value, error) {
	segs := st.Path.Segments
	switch rhs := st.Rhs.(type) {
	case AssignValue:
		return resolvePathTarget(current, segs, func(old Value, exists bool) (Value, error) {
			return evalExprNode(ec, rhs.Expr)
		})

	case AssignFilter:
		return resolvePathTarget(current, segs, func(old Value, exists bool) (Value, error) {
			if old.Kind() != KindArr {
				return Value{}, typeErrorf("transform filter target must be an array, found %s", old.Kind())
			}
			return evalFilterStage(ec, rhs.Expr, old)
		})

	case AssignMap:
		return resolvePathTarget(current, segs, func(old Value, exists bool) (Value, error) {
			if old.Kind() != KindArr {
				return Value{}, typeErrorf("transform map target must be an array, found %s", old.Kind())
			}
			in := old.AsArr()
			out := make([]Value, len(in))
			for i, elem := range in {
				v, err := evalPerElement(ec, rhs.Expr, elem)
				if err != nil {
					return Value{}, err
				}
				out[i] = v
			}
			return Arr(out), nil
		})

	default:
		return Value{}, typeErrorf("unknown transform RHS type %T", st.Rhs)
	}
}

// evalExprNode walks e against ec's current dynamic state (root, scopes,
// frames). This is the evaluator's single dispatch point; every Expr
// variant in ast.go has exactly one case here.
func evalExprNode(ec *EvalContext, e Expr) (Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *Root:
		return ec.root, nil

	case *Ctx:
		return ec.topLambdaElement()

	case *CtxArgNode:
		return ec.resolveUdfArg(n.N)

	case *ScopeRef:
		v, ok := ec.lookupScope(n.Name)
		if !ok {
			return Value{}, unboundScopeErrorf(n.Name)
		}
		return v, nil

	case *EnvVar:
		return ec.lookupEnv(n.Name), nil

	case *Accessor:
		target, err := evalExprNode(ec, n.Target)
		if err != nil {
			return Value{}, err
		}
		return evalAccessor(ec, target, n.Op)

	case *MethodCall:
		target, err := evalExprNode(ec, n.Target)
		if err != nil {
			return Value{}, err
		}
		return callMethod(ec, target, n.Name, n.Args)

	case *Binop:
		l, err := evalExprNode(ec, n.Left)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "and" && !truthy(l) {
			return Bool(false), nil
		}
		if n.Op == "or" && truthy(l) {
			return Bool(true), nil
		}
		if n.Op == "??" && !l.IsNull() {
			return l, nil
		}
		r, err := evalExprNode(ec, n.Right)
		if err != nil {
			return Value{}, err
		}
		return evalBinop(n.Op, l, r)

	case *Unop:
		v, err := evalExprNode(ec, n.Operand)
		if err != nil {
			return Value{}, err
		}
		return evalUnop(n.Op, v)

	case *UdfCall:
		return evalUdfCall(ec, n)

	case *Lambda:
		return evalExprNode(ec, n.Body)

	case *PredicateExpr:
		return evalExprNode(ec, n.Inner)

	case *ObjectLit:
		o := NewObj()
		for i, k := range n.Keys {
			v, err := evalExprNode(ec, n.Values[i])
			if err != nil {
				return Value{}, err
			}
			o = o.Set(k, v)
		}
		return ObjVal(o), nil

	case *ArrayLit:
		out := make([]Value, len(n.Elems))
		for i, el := range n.Elems {
			v, err := evalExprNode(ec, el)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Arr(out), nil

	default:
		return Value{}, typeErrorf("unknown expression type %T", e)
	}
}

func evalUdfCall(ec *EvalContext, n *UdfCall) (Value, error) {
	u, ok := ec.lookupUdf(n.Name)
	if !ok {
		return Value{}, unknownUdfErrorf(n.Name)
	}
	if len(n.Args) != u.arity {
		return Value{}, arityMismatchErrorf(n.Name, u.arity, len(n.Args))
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := evalExprNode(ec, a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	if ec.udfDepth >= maxUdfDepth {
		return Value{}, stackOverflowErrorf(maxUdfDepth)
	}
	ec.udfDepth++
	ec.pushUdfFrame(args)
	v, err := evalExprNode(ec, u.body)
	ec.popFrame()
	ec.udfDepth--
	return v, err
}

// evalAccessor implements the null-safe Field/IndexInt/IndexFloat/
// ComputedKey/Existence read rules of spec.md §4.3 (distinct from
// path.go's resolvePathTarget/deleteAtPath, which implement the stricter
// write-side rules for Transform/Delete targets).
func evalAccessor(ec *EvalContext, target Value, op AccessorOp) (Value, error) {
	switch o := op.(type) {
	case FieldOp:
		return evalFieldAccess(target, o.Name)
	case IndexIntOp:
		return evalIndexIntAccess(target, o.I)
	case IndexFloatOp:
		return evalIndexFloatAccess(target, o.D.String())
	case ComputedKeyOp:
		key, err := evalExprNode(ec, o.Key)
		if err != nil {
			return Value{}, err
		}
		return evalComputedKeyAccess(target, key)
	case ExistenceOp:
		return Bool(isNonEmpty(target)), nil
	default:
		return Value{}, typeErrorf("unknown accessor operation %T", op)
	}
}

func evalFieldAccess(target Value, name string) (Value, error) {
	switch target.Kind() {
	case KindNull:
		return Null, nil
	case KindObj:
		v, ok := target.AsObj().Get(name)
		if !ok {
			return Null, nil
		}
		return v, nil
	default:
		return Value{}, typeErrorf("cannot access field %q on %s", name, target.Kind())
	}
}

func evalIndexIntAccess(target Value, i int64) (Value, error) {
	switch target.Kind() {
	case KindNull:
		return Null, nil
	case KindArr:
		arr := target.AsArr()
		idx, ok := normalizeArrIndex(i, len(arr))
		if !ok {
			return Null, nil
		}
		return arr[idx], nil
	case KindObj:
		v, ok := target.AsObj().Get(fmt.Sprintf("%d", i))
		if !ok {
			return Null, nil
		}
		return v, nil
	default:
		return Value{}, typeErrorf("cannot index %s with an integer", target.Kind())
	}
}

func evalIndexFloatAccess(target Value, key string) (Value, error) {
	switch target.Kind() {
	case KindNull:
		return Null, nil
	case KindObj:
		v, ok := target.AsObj().Get(key)
		if !ok {
			return Null, nil
		}
		return v, nil
	case KindArr:
		return Value{}, typeErrorf("cannot use a decimal key to index an array")
	default:
		return Value{}, typeErrorf("cannot index %s with a decimal key", target.Kind())
	}
}

func evalComputedKeyAccess(target, key Value) (Value, error) {
	switch key.Kind() {
	case KindInt:
		return evalIndexIntAccess(target, key.AsInt().Int64())
	case KindDec:
		return evalIndexFloatAccess(target, key.AsDec().String())
	case KindStr:
		return evalFieldAccess(target, key.AsStr())
	default:
		return Value{}, typeErrorf("computed key must be a number or string, found %s", key.Kind())
	}
}

// isNonEmpty implements the Existence predicate: false for missing/null/
// empty-array/empty-string, true otherwise. An object's Existence only
// requires it to be present and non-null — an empty object still exists.
func isNonEmpty(v Value) bool {
	switch v.Kind() {
	case KindNull:
		return false
	case KindStr:
		return v.AsStr() != ""
	case KindArr:
		return len(v.AsArr()) > 0
	default:
		return true
	}
}
