package clove

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValue(t *testing.T, src string) Value {
	t.Helper()
	v, err := FromJSON([]byte(src))
	require.NoError(t, err)
	return v
}

func TestResolvePathTargetSetsNestedField(t *testing.T) {
	root := mustValue(t, `{"a":{"b":1}}`)
	segs := []AccessorOp{FieldOp{Name: "a"}, FieldOp{Name: "b"}}
	out, err := resolvePathTarget(root, segs, func(old Value, exists bool) (Value, error) {
		require.True(t, exists)
		assert.Equal(t, int64(1), old.AsInt().Int64())
		return IntFromInt64(2), nil
	})
	require.NoError(t, err)
	b, _ := out.AsObj().Get("a")
	v, _ := b.AsObj().Get("b")
	assert.Equal(t, int64(2), v.AsInt().Int64())
}

func TestResolvePathTargetMissingIntermediateIsPathError(t *testing.T) {
	root := mustValue(t, `{"a":1}`)
	segs := []AccessorOp{FieldOp{Name: "missing"}, FieldOp{Name: "b"}}
	_, err := resolvePathTarget(root, segs, func(old Value, exists bool) (Value, error) {
		return IntFromInt64(1), nil
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodePathError))
}

func TestResolvePathTargetCreatesMissingLeafField(t *testing.T) {
	root := mustValue(t, `{"a":{}}`)
	segs := []AccessorOp{FieldOp{Name: "a"}, FieldOp{Name: "newKey"}}
	out, err := resolvePathTarget(root, segs, func(old Value, exists bool) (Value, error) {
		assert.False(t, exists)
		return Str("created"), nil
	})
	require.NoError(t, err)
	a, _ := out.AsObj().Get("a")
	v, ok := a.AsObj().Get("newKey")
	require.True(t, ok)
	assert.Equal(t, "created", v.AsStr())
}

func TestResolvePathTargetLocality(t *testing.T) {
	root := mustValue(t, `{"a":{"b":1,"c":2}}`)
	segs := []AccessorOp{FieldOp{Name: "a"}, FieldOp{Name: "b"}}
	out, err := resolvePathTarget(root, segs, func(old Value, exists bool) (Value, error) {
		return IntFromInt64(99), nil
	})
	require.NoError(t, err)
	a, _ := out.AsObj().Get("a")
	c, _ := a.AsObj().Get("c")
	assert.Equal(t, int64(2), c.AsInt().Int64(), "sibling field untouched by transform locality")
}

func TestDeleteAtPathRemovesField(t *testing.T) {
	root := mustValue(t, `{"pwd":"s","u":{"k":"v"}}`)
	out := deleteAtPath(root, []AccessorOp{FieldOp{Name: "pwd"}})
	_, ok := out.AsObj().Get("pwd")
	assert.False(t, ok)
	u, _ := out.AsObj().Get("u")
	k, _ := u.AsObj().Get("k")
	assert.Equal(t, "v", k.AsStr())
}

func TestDeleteAtPathMissingIsSilentNoOp(t *testing.T) {
	root := mustValue(t, `{"u":{"k":"v"}}`)
	out := deleteAtPath(root, []AccessorOp{FieldOp{Name: "u"}, FieldOp{Name: "missing"}})
	assert.True(t, valuesEqual(root, out))
}

func TestDeleteAtPathIsIdempotent(t *testing.T) {
	root := mustValue(t, `{"pwd":"s","u":{"k":"v"}}`)
	once := deleteAtPath(root, []AccessorOp{FieldOp{Name: "pwd"}})
	twice := deleteAtPath(once, []AccessorOp{FieldOp{Name: "pwd"}})
	assert.True(t, valuesEqual(once, twice))
}

func TestNormalizeArrIndexNegative(t *testing.T) {
	idx, ok := normalizeArrIndex(-1, 3)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = normalizeArrIndex(-4, 3)
	assert.False(t, ok)
}
