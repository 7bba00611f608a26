package clove

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticIntStaysExact(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	v, err := evalBinop("+", Int(huge), IntFromInt64(1))
	require.NoError(t, err)
	require.Equal(t, KindInt, v.Kind())
	want, _ := new(big.Int).SetString("123456789012345678901234567891", 10)
	assert.Equal(t, 0, v.AsInt().Cmp(want))
}

func TestDivisionExactStaysInt(t *testing.T) {
	v, err := evalBinop("/", IntFromInt64(100), IntFromInt64(10))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(10), v.AsInt().Int64())
}

func TestDivisionInexactBecomesDec(t *testing.T) {
	v, err := evalBinop("/", IntFromInt64(100), IntFromInt64(3))
	require.NoError(t, err)
	assert.Equal(t, KindDec, v.Kind())
}

func TestDivisionByZeroIsTypeError(t *testing.T) {
	_, err := evalBinop("/", IntFromInt64(1), IntFromInt64(0))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTypeError))
}

func TestModuloRequiresInts(t *testing.T) {
	_, err := evalBinop("%", Dec(decimal.NewFromFloat(1.5)), IntFromInt64(2))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTypeError))
}

func TestDecResultDemotesWhenExact(t *testing.T) {
	v, err := evalBinop("+", Dec(decimal.NewFromInt(2)), Dec(decimal.NewFromInt(3)))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(5), v.AsInt().Int64())
}

func TestDecResultStaysDecWhenInexact(t *testing.T) {
	v, err := evalBinop("+", Dec(decimal.NewFromFloat(1.5)), IntFromInt64(1))
	require.NoError(t, err)
	assert.Equal(t, KindDec, v.Kind())
}

func TestStringConcatenation(t *testing.T) {
	v, err := evalBinop("+", Str("foo"), Str("bar"))
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.AsStr())
}

func TestArrayConcatenation(t *testing.T) {
	v, err := evalBinop("+", Arr([]Value{IntFromInt64(1)}), Arr([]Value{IntFromInt64(2)}))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, []int64{v.AsArr()[0].AsInt().Int64(), v.AsArr()[1].AsInt().Int64()})
}

func TestEqualityIntDecCrossKind(t *testing.T) {
	assert.True(t, valuesEqual(IntFromInt64(1), Dec(decimal.NewFromFloat(1.0))))
}

func TestEqualityStringVsNumberNeverErrors(t *testing.T) {
	assert.False(t, valuesEqual(Str("1"), IntFromInt64(1)))
}

func TestOrderComparisonIncompatibleKindsIsTypeError(t *testing.T) {
	_, err := evalBinop("<", Str("a"), IntFromInt64(1))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTypeError))
}

func TestOrderComparisonStringsLexicographic(t *testing.T) {
	v, err := evalBinop("<", Str("a"), Str("b"))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestTruthiness(t *testing.T) {
	assert.False(t, truthy(Null))
	assert.False(t, truthy(Bool(false)))
	assert.True(t, truthy(IntFromInt64(0)))
	assert.True(t, truthy(Str("")))
	assert.True(t, truthy(Arr(nil)))
	assert.True(t, truthy(ObjVal(NewObj())), "empty object is truthy, distinct from Existence")
}

func TestCoalesceOperator(t *testing.T) {
	v, err := evalBinop("??", Null, Str("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsStr())

	v2, err := evalBinop("??", Str("y"), Str("x"))
	require.NoError(t, err)
	assert.Equal(t, "y", v2.AsStr())
}

func TestUnaryNegation(t *testing.T) {
	v, err := evalUnop("-", IntFromInt64(5))
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v.AsInt().Int64())
}

func TestUnaryNot(t *testing.T) {
	v, err := evalUnop("!", Bool(false))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}
