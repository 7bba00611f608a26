package clove

import (
	"fmt"
	"strings"
)

// ExplainQuery renders q as an indented tree, for the --explain CLI flag.
// This is a debugging aid, not part of the evaluation contract: its
// output format is not stable across versions.
func ExplainQuery(q *Query) string {
	var b strings.Builder
	for _, u := range q.Udfs {
		fmt.Fprintf(&b, "udf &%s,%d := %s\n", u.Name, u.Arity, exprString(u.Body))
	}
	for i, s := range q.Stages {
		fmt.Fprintf(&b, "stage[%d] %s\n", i, stageString(s))
	}
	return b.String()
}

func stageString(s Stage) string {
	switch st := s.(type) {
	case RootStart:
		return "$"
	case *Bind:
		return fmt.Sprintf("@%s := %s", st.Name, exprString(st.Value))
	case *Filter:
		return fmt.Sprintf("?(%s)", exprString(st.Cond))
	case *Transform:
		return fmt.Sprintf("~(%s := %s)", pathString(st.Path), rhsString(st.Rhs))
	case *Delete:
		return fmt.Sprintf("-(%s)", pathString(st.Path))
	case *Output:
		return fmt.Sprintf("!(%s)", exprString(st.Value))
	case *BareExpr:
		return exprString(st.Value)
	default:
		return fmt.Sprintf("<unknown stage %T>", s)
	}
}

func rhsString(r Rhs) string {
	switch rr := r.(type) {
	case AssignValue:
		return exprString(rr.Expr)
	case AssignFilter:
		return fmt.Sprintf("?(%s)", exprString(rr.Expr))
	case AssignMap:
		return exprString(rr.Expr)
	default:
		return fmt.Sprintf("<unknown rhs %T>", r)
	}
}

func pathString(p *PathExpr) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range p.Segments {
		b.WriteString(accessorOpString(seg))
	}
	return b.String()
}

func accessorOpString(op AccessorOp) string {
	switch o := op.(type) {
	case FieldOp:
		return fmt.Sprintf("[%s]", o.Name)
	case IndexIntOp:
		return fmt.Sprintf("[%d]", o.I)
	case IndexFloatOp:
		return fmt.Sprintf("[%s]", o.D.String())
	case ComputedKeyOp:
		return fmt.Sprintf("[%s]", exprString(o.Key))
	case ExistenceOp:
		return "[?]"
	default:
		return fmt.Sprintf("[<unknown %T>]", op)
	}
}

func exprString(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		return n.Value.ToDisplayString()
	case *Root:
		return "$"
	case *Ctx:
		return "@"
	case *CtxArgNode:
		return fmt.Sprintf("@%d", n.N)
	case *ScopeRef:
		return "@" + n.Name
	case *EnvVar:
		return "$" + n.Name
	case *Accessor:
		return exprString(n.Target) + accessorOpString(n.Op)
	case *MethodCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s.%s(%s)", exprString(n.Target), n.Name, strings.Join(args, ", "))
	case *Binop:
		return fmt.Sprintf("(%s %s %s)", exprString(n.Left), n.Op, exprString(n.Right))
	case *Unop:
		return fmt.Sprintf("%s%s", n.Op, exprString(n.Operand))
	case *UdfCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("&%s[%s]", n.Name, strings.Join(args, ", "))
	case *Lambda:
		param := n.Param
		if param == "" {
			param = "@"
		}
		return fmt.Sprintf("%s => %s", param, exprString(n.Body))
	case *ObjectLit:
		parts := make([]string, len(n.Keys))
		for i, k := range n.Keys {
			parts[i] = fmt.Sprintf("%s: %s", k, exprString(n.Values[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ArrayLit:
		parts := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			parts[i] = exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *PredicateExpr:
		return fmt.Sprintf("?(%s)", exprString(n.Inner))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
