package clove

import "github.com/shopspring/decimal"

// Query is the parsed form of one pipeline query: zero or more UDF
// definitions followed by the pipeline stages.
type Query struct {
	Udfs   []*UdfDef
	Stages []Stage
}

// UdfDef is a user-defined function: "&name,arity := body".
type UdfDef struct {
	Name  string
	Arity int
	Body  Expr
	Pos   Position
}

// Stage is one pipeline stage. Exactly one concrete type below implements it.
type Stage interface {
	isStage()
}

// RootStart is the leading "$" that begins a pipeline. It resets the
// current value to the root document; it is a no-op when current is
// already the root (e.g. immediately after the query begins).
type RootStart struct{}

// Bind is "@name := expr": computes expr against the current value and
// stores it as a scope, without changing current.
type Bind struct {
	Name  string
	Value Expr
	Pos   Position
}

// Filter is "?(expr)".
type Filter struct {
	Cond Expr
	Pos  Position
}

// Transform is "~(path := rhs)".
type Transform struct {
	Path *PathExpr
	Rhs  Rhs
	Pos  Position
}

// Delete is "-(path)".
type Delete struct {
	Path *PathExpr
	Pos  Position
}

// Output is "!(expr)". It must be the last stage if present.
type Output struct {
	Value Expr
	Pos   Position
}

// BareExpr is a pipeline stage that is just an expression, e.g. a raw
// accessor chain with no stage marker.
type BareExpr struct {
	Value Expr
}

func (RootStart) isStage() {}
func (*Bind) isStage()     {}
func (*Filter) isStage()   {}
func (*Transform) isStage() {}
func (*Delete) isStage()   {}
func (*Output) isStage()   {}
func (*BareExpr) isStage() {}

// Rhs is the right-hand side of a Transform, classified by shape per
// spec.md §4.2 "Transform RHS classification".
type Rhs interface {
	isRhs()
}

// AssignValue replaces the target field wholesale with eval(Expr).
type AssignValue struct{ Expr Expr }

// AssignFilter requires the target to currently be an array; it is
// replaced with the subsequence of elements for which Expr (with the
// element bound as Ctx) is truthy. Parsed from a Filter-shaped RHS:
// "~(path := ?(expr))".
type AssignFilter struct{ Expr Expr }

// AssignMap requires the target to currently be an array; it is replaced
// with the element-wise map of Expr over the array (element bound as Ctx).
type AssignMap struct{ Expr Expr }

func (AssignValue) isRhs()  {}
func (AssignFilter) isRhs() {}
func (AssignMap) isRhs()    {}

// Expr is any evaluable expression node.
type Expr interface {
	isExpr()
	position() Position
}

// Literal is a scalar constant: null, a bool, an Int, a Dec, or a string.
type Literal struct {
	Value Value
	Pos   Position
}

// Root is "$": the frozen input document.
type Root struct{ Pos Position }

// Ctx is "@": the nearest enclosing lambda's bound element.
type Ctx struct{ Pos Position }

// CtxArgNode is "@N": the Nth argument (1-based) of the nearest enclosing
// UDF invocation, skipping over any intervening lambda frames.
type CtxArgNode struct {
	N   int
	Pos Position
}

// ScopeRef is "@name": a reference to a previously bound scope.
type ScopeRef struct {
	Name string
	Pos  Position
}

// EnvVar is "$NAME": an environment-variable lookup.
type EnvVar struct {
	Name string
	Pos  Position
}

// Accessor applies one accessor operation to Target.
type Accessor struct {
	Target Expr
	Op     AccessorOp
	Pos    Position
}

// MethodCall is "target.name(args...)".
type MethodCall struct {
	Target Expr
	Name   string
	Args   []Expr
	Pos    Position
}

// Binop is a binary operator expression.
type Binop struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

// Unop is a unary operator expression ("-" or "!").
type Unop struct {
	Op      string
	Operand Expr
	Pos     Position
}

// UdfCall is "&name[args...]".
type UdfCall struct {
	Name string
	Args []Expr
	Pos  Position
}

// Lambda is "param => body". The bare-@ form is not wrapped in a Lambda:
// such an argument is parsed as its plain body expression. All references
// to Param within Body have already been rewritten to Ctx nodes by the
// parser, so evaluation of a Lambda node never needs Param itself; it is
// retained for ExplainQuery output only.
type Lambda struct {
	Param string
	Body  Expr
	Pos   Position
}

// ObjectLit is "{k: expr, ...}".
type ObjectLit struct {
	Keys   []string
	Values []Expr
	Pos    Position
}

// ArrayLit is "[expr, ...]".
type ArrayLit struct {
	Elems []Expr
	Pos   Position
}

// PredicateExpr is "?(expr)" used in expression position (as opposed to
// stage position, where the same syntax parses as a Filter stage). It
// evaluates transparently to eval(Inner); its only special treatment is
// at the top of a Transform RHS, where it marks an AssignFilter rather
// than an AssignValue.
type PredicateExpr struct {
	Inner Expr
	Pos   Position
}

func (*Literal) isExpr()    {}
func (*Root) isExpr()       {}
func (*Ctx) isExpr()        {}
func (*CtxArgNode) isExpr() {}
func (*ScopeRef) isExpr()   {}
func (*EnvVar) isExpr()     {}
func (*Accessor) isExpr()   {}
func (*MethodCall) isExpr() {}
func (*Binop) isExpr()      {}
func (*Unop) isExpr()       {}
func (*UdfCall) isExpr()    {}
func (*Lambda) isExpr()     {}
func (*ObjectLit) isExpr()  {}
func (*ArrayLit) isExpr()   {}
func (*PredicateExpr) isExpr() {}

func (e *Literal) position() Position    { return e.Pos }
func (e *Root) position() Position       { return e.Pos }
func (e *Ctx) position() Position        { return e.Pos }
func (e *CtxArgNode) position() Position { return e.Pos }
func (e *ScopeRef) position() Position   { return e.Pos }
func (e *EnvVar) position() Position     { return e.Pos }
func (e *Accessor) position() Position   { return e.Pos }
func (e *MethodCall) position() Position { return e.Pos }
func (e *Binop) position() Position      { return e.Pos }
func (e *Unop) position() Position       { return e.Pos }
func (e *UdfCall) position() Position    { return e.Pos }
func (e *Lambda) position() Position     { return e.Pos }
func (e *ObjectLit) position() Position  { return e.Pos }
func (e *ArrayLit) position() Position   { return e.Pos }
func (e *PredicateExpr) position() Position { return e.Pos }

// AccessorOp is one step of an accessor chain: a.b, a[0], a["x"], a[?].
type AccessorOp interface {
	isAccessorOp()
}

// FieldOp accesses a named field/key.
type FieldOp struct{ Name string }

// IndexIntOp accesses an array element (or, applied to an object,
// the stringified-key lookup per spec.md §4.3).
type IndexIntOp struct{ I int64 }

// IndexFloatOp accesses an object key formed by stringifying a decimal;
// applying it to an array is a TypeError.
type IndexFloatOp struct{ D decimal.Decimal }

// ComputedKeyOp evaluates Key and applies it as an IndexIntOp, IndexFloatOp
// or FieldOp depending on whether the key is an integer, a decimal or a
// string, at evaluation time.
type ComputedKeyOp struct{ Key Expr }

// ExistenceOp is the "?" / "[?]" emptiness predicate.
type ExistenceOp struct{}

func (FieldOp) isAccessorOp()       {}
func (IndexIntOp) isAccessorOp()    {}
func (IndexFloatOp) isAccessorOp()  {}
func (ComputedKeyOp) isAccessorOp() {}
func (ExistenceOp) isAccessorOp()   {}

// PathExpr is a literal path rooted at "$": a chain of Field/IndexInt/
// IndexFloat accessors with no ComputedKey and no Existence step. It is
// the only shape the parser accepts as a Transform or Delete target,
// enforcing the "no ComputedKey in an assignment target" invariant
// statically rather than leaving it for a PathError at eval time.
type PathExpr struct {
	Segments []AccessorOp
	Pos      Position
}
