package clove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONClassifiesIntVsDec(t *testing.T) {
	v, err := FromJSON([]byte(`{"n":100,"f":3.5,"e":1e2,"neg":-5}`))
	require.NoError(t, err)
	require.Equal(t, KindObj, v.Kind())

	n, _ := v.AsObj().Get("n")
	assert.Equal(t, KindInt, n.Kind())

	f, _ := v.AsObj().Get("f")
	assert.Equal(t, KindDec, f.Kind())

	e, _ := v.AsObj().Get("e")
	assert.Equal(t, KindInt, e.Kind(), "1e2 has no fractional part after normalization")

	neg, _ := v.AsObj().Get("neg")
	assert.Equal(t, KindInt, neg.Kind())
}

func TestFromJSONPreservesSourceKeyOrder(t *testing.T) {
	v, err := FromJSON([]byte(`{"b":1,"a":2,"c":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, v.AsObj().Keys())

	raw, err := v.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":2,"c":3}`, string(raw))
}

func TestFromJSONPreservesNestedObjectKeyOrder(t *testing.T) {
	v, err := FromJSON([]byte(`{"outer":{"z":1,"y":2},"arr":[{"q":1,"p":2}]}`))
	require.NoError(t, err)
	outer, _ := v.AsObj().Get("outer")
	assert.Equal(t, []string{"z", "y"}, outer.AsObj().Keys())
	arr, _ := v.AsObj().Get("arr")
	assert.Equal(t, []string{"q", "p"}, arr.AsArr()[0].AsObj().Keys())
}

func TestObjPreservesInsertionOrderAcrossSet(t *testing.T) {
	o := NewObj().Set("b", IntFromInt64(1)).Set("a", IntFromInt64(2)).Set("b", IntFromInt64(3))
	assert.Equal(t, []string{"b", "a"}, o.Keys())
	v, _ := o.Get("b")
	assert.Equal(t, int64(3), v.AsInt().Int64())
}

func TestObjDeleteRemovesKeyOrder(t *testing.T) {
	o := NewObj().Set("a", IntFromInt64(1)).Set("b", IntFromInt64(2))
	o2 := o.Delete("a")
	assert.Equal(t, []string{"b"}, o2.Keys())
	assert.Equal(t, []string{"a", "b"}, o.Keys(), "original Obj must be unmodified")
}

func TestValueToJSONRoundtripsNumberKinds(t *testing.T) {
	v, err := FromJSON([]byte(`{"n":100,"f":3.50}`))
	require.NoError(t, err)
	raw, err := v.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":100,"f":3.50}`, string(raw))
}

func TestToDisplayString(t *testing.T) {
	assert.Equal(t, "null", Null.ToDisplayString())
	assert.Equal(t, "true", Bool(true).ToDisplayString())
	assert.Equal(t, "hello", Str("hello").ToDisplayString())
	assert.Equal(t, "5", IntFromInt64(5).ToDisplayString())
}
