package clove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRootStartStage(t *testing.T) {
	q, err := ParseString(`$ | !($)`)
	require.NoError(t, err)
	require.Len(t, q.Stages, 2)
	_, ok := q.Stages[0].(RootStart)
	assert.True(t, ok)
}

func TestParseFilterStage(t *testing.T) {
	q, err := ParseString(`?(@ > 1)`)
	require.NoError(t, err)
	require.Len(t, q.Stages, 1)
	f, ok := q.Stages[0].(*Filter)
	require.True(t, ok)
	_, ok = f.Cond.(*Binop)
	assert.True(t, ok)
}

func TestParseBindStage(t *testing.T) {
	q, err := ParseString(`@total := $[items].sum()`)
	require.NoError(t, err)
	b, ok := q.Stages[0].(*Bind)
	require.True(t, ok)
	assert.Equal(t, "total", b.Name)
}

func TestParseOutputMustBeLast(t *testing.T) {
	_, err := ParseString(`!($) | ?(true)`)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeParseError))
}

func TestParseUdfDefBeforeStages(t *testing.T) {
	q, err := ParseString(`&big,1 := @1[p] > 100 | $[items].any(&big[@])`)
	require.NoError(t, err)
	require.Len(t, q.Udfs, 1)
	assert.Equal(t, "big", q.Udfs[0].Name)
	assert.Equal(t, 1, q.Udfs[0].Arity)
}

func TestParseUdfDefAfterStageIsError(t *testing.T) {
	_, err := ParseString(`$ | &big,1 := @1 > 1`)
	require.Error(t, err)
}

func TestParseUdfArityOutOfRangeIsError(t *testing.T) {
	_, err := ParseString(`&big,10 := @1`)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeArityError))
}

func TestParseBracketContextualKeys(t *testing.T) {
	q, err := ParseString(`$[items][0][1.5][x][?]`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	// Unwrap the chain of Accessor nodes from outermost to innermost.
	a5 := be.Value.(*Accessor)
	_, ok := a5.Op.(ExistenceOp)
	assert.True(t, ok)

	a4 := a5.Target.(*Accessor)
	_, ok = a4.Op.(FieldOp)
	assert.True(t, ok)

	a3 := a4.Target.(*Accessor)
	fop, ok := a3.Op.(IndexFloatOp)
	require.True(t, ok)
	assert.Equal(t, "1.5", fop.D.String())

	a2 := a3.Target.(*Accessor)
	iop, ok := a2.Op.(IndexIntOp)
	require.True(t, ok)
	assert.Equal(t, int64(0), iop.I)

	a1 := a2.Target.(*Accessor)
	field, ok := a1.Op.(FieldOp)
	require.True(t, ok)
	assert.Equal(t, "items", field.Name)
}

func TestParseComputedKey(t *testing.T) {
	q, err := ParseString(`$[items][$[idx]]`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	a := be.Value.(*Accessor)
	_, ok := a.Op.(ComputedKeyOp)
	assert.True(t, ok)
}

func TestParseSplatIsRejected(t *testing.T) {
	_, err := ParseString(`$[orders][*]`)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeParseError))
}

func TestParseTrailingExistenceSugar(t *testing.T) {
	q, err := ParseString(`$[a][b]?`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	a := be.Value.(*Accessor)
	_, ok := a.Op.(ExistenceOp)
	assert.True(t, ok)
}

func TestParseLambdaDesugarsIdentToCtx(t *testing.T) {
	q, err := ParseString(`$[items].filter(x => x[p] > 100)`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	mc := be.Value.(*MethodCall)
	lam := mc.Args[0].(*Lambda)
	assert.Equal(t, "x", lam.Param)
	bin := lam.Body.(*Binop)
	acc := bin.Left.(*Accessor)
	_, ok := acc.Target.(*Ctx)
	assert.True(t, ok, "lambda parameter occurrences must desugar to Ctx")
}

func TestParseBareIdentOutsideLambdaIsError(t *testing.T) {
	_, err := ParseString(`x`)
	require.Error(t, err)
}

func TestParseTransformAssignValue(t *testing.T) {
	q, err := ParseString(`~($[a] := 5)`)
	require.NoError(t, err)
	tr := q.Stages[0].(*Transform)
	_, ok := tr.Rhs.(AssignValue)
	assert.True(t, ok)
}

func TestParseTransformAssignFilter(t *testing.T) {
	q, err := ParseString(`~($[items] := ?(@ > 1))`)
	require.NoError(t, err)
	tr := q.Stages[0].(*Transform)
	rhs, ok := tr.Rhs.(AssignFilter)
	require.True(t, ok)
	_, ok = rhs.Expr.(*Binop)
	assert.True(t, ok)
}

func TestParseTransformAssignMap(t *testing.T) {
	q, err := ParseString(`~($[items] := @ * 2)`)
	require.NoError(t, err)
	tr := q.Stages[0].(*Transform)
	_, ok := tr.Rhs.(AssignMap)
	assert.True(t, ok)
}

func TestParseTransformTargetMustBeDollarRooted(t *testing.T) {
	_, err := ParseString(`@scope := 1 | ~(@scope := 2)`)
	require.Error(t, err)
}

func TestParseTransformTargetRejectsComputedKey(t *testing.T) {
	_, err := ParseString(`~($[$[idx]] := 1)`)
	require.Error(t, err)
}

func TestParseDeleteStage(t *testing.T) {
	q, err := ParseString(`-($[pwd])`)
	require.NoError(t, err)
	del := q.Stages[0].(*Delete)
	require.Len(t, del.Path.Segments, 1)
	field, ok := del.Path.Segments[0].(FieldOp)
	require.True(t, ok)
	assert.Equal(t, "pwd", field.Name)
}

func TestParseEnvVarVsRoot(t *testing.T) {
	q, err := ParseString(`$HOME`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	ev, ok := be.Value.(*EnvVar)
	require.True(t, ok)
	assert.Equal(t, "HOME", ev.Name)
}

func TestParseObjectAndArrayLiterals(t *testing.T) {
	q, err := ParseString(`{a: 1, b: [1, 2, @]}`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	obj := be.Value.(*ObjectLit)
	assert.Equal(t, []string{"a", "b"}, obj.Keys)
	arr := obj.Values[1].(*ArrayLit)
	assert.Len(t, arr.Elems, 3)
}

func TestParsePrecedence(t *testing.T) {
	q, err := ParseString(`1 + 2 * 3 == 7 and true`)
	require.NoError(t, err)
	be := q.Stages[0].(*BareExpr)
	top := be.Value.(*Binop)
	assert.Equal(t, "and", top.Op)
	eq := top.Left.(*Binop)
	assert.Equal(t, "==", eq.Op)
	plus := eq.Left.(*Binop)
	assert.Equal(t, "+", plus.Op)
	mul := plus.Right.(*Binop)
	assert.Equal(t, "*", mul.Op)
}

func TestParsePredicateExprAsGeneralExpression(t *testing.T) {
	q, err := ParseString(`&big,1 := ?(@1[p] > 100)`)
	require.NoError(t, err)
	_, ok := q.Udfs[0].Body.(*PredicateExpr)
	assert.True(t, ok)
}
