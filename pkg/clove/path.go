package clove

import "fmt"

// resolvePathTarget walks segs under root, invoking fn with the value
// currently at that location (and whether it exists) once the full path
// has been descended, and rebuilds the containers above it with the
// (possibly new) result. A missing intermediate container is a PathError:
// this is the strict form used by Transform.
func resolvePathTarget(root Value, segs []AccessorOp, fn func(old Value, exists bool) (Value, error)) (Value, error) {
	if len(segs) == 0 {
		newVal, err := fn(root, true)
		return newVal, err
	}

	seg := segs[0]
	rest := segs[1:]

	switch op := seg.(type) {
	case FieldOp:
		obj, ok := asObjForWrite(root)
		if !ok {
			return Value{}, pathErrorf("cannot traverse field %q: not an object", op.Name)
		}
		child, exists := obj.Get(op.Name)
		if !exists && len(rest) > 0 {
			return Value{}, pathErrorf("missing intermediate container at field %q", op.Name)
		}
		if !exists {
			child = Null
		}
		newChild, err := resolvePathTarget(child, rest, fn)
		if err != nil {
			return Value{}, err
		}
		return ObjVal(obj.Set(op.Name, newChild)), nil

	case IndexIntOp:
		switch root.Kind() {
		case KindArr:
			arrv := root.AsArr()
			idx, ok := normalizeArrIndex(op.I, len(arrv))
			if !ok {
				if len(rest) > 0 {
					return Value{}, pathErrorf("array index %d out of range", op.I)
				}
				return Value{}, pathErrorf("array index %d out of range", op.I)
			}
			newChild, err := resolvePathTarget(arrv[idx], rest, fn)
			if err != nil {
				return Value{}, err
			}
			out := make([]Value, len(arrv))
			copy(out, arrv)
			out[idx] = newChild
			return Arr(out), nil
		case KindObj, KindNull:
			obj, _ := asObjForWrite(root)
			key := fmt.Sprintf("%d", op.I)
			child, exists := obj.Get(key)
			if !exists && len(rest) > 0 {
				return Value{}, pathErrorf("missing intermediate container at key %q", key)
			}
			if !exists {
				child = Null
			}
			newChild, err := resolvePathTarget(child, rest, fn)
			if err != nil {
				return Value{}, err
			}
			return ObjVal(obj.Set(key, newChild)), nil
		default:
			return Value{}, pathErrorf("cannot index %s with an integer", root.Kind())
		}

	case IndexFloatOp:
		if root.Kind() == KindArr {
			return Value{}, typeErrorf("cannot use a decimal key to index an array")
		}
		obj, _ := asObjForWrite(root)
		key := op.D.String()
		child, exists := obj.Get(key)
		if !exists && len(rest) > 0 {
			return Value{}, pathErrorf("missing intermediate container at key %q", key)
		}
		if !exists {
			child = Null
		}
		newChild, err := resolvePathTarget(child, rest, fn)
		if err != nil {
			return Value{}, err
		}
		return ObjVal(obj.Set(key, newChild)), nil

	default:
		return Value{}, pathErrorf("unsupported path segment in transform/delete target")
	}
}

// asObjForWrite returns root as an *Obj usable for Set, treating Null as
// an empty object so a transform can populate a previously-absent field.
func asObjForWrite(root Value) (*Obj, bool) {
	switch root.Kind() {
	case KindObj:
		return root.AsObj(), true
	case KindNull:
		return NewObj(), true
	default:
		return nil, false
	}
}

// normalizeArrIndex applies negative-index-from-end semantics, returning
// ok=false when out of range.
func normalizeArrIndex(i int64, length int) (int, bool) {
	idx := i
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, false
	}
	return int(idx), true
}

// deleteAtPath removes the value at segs under root. Per spec.md §4.3,
// an absent target (including one reached through a missing intermediate
// container) is a silent no-op, returning root unchanged.
func deleteAtPath(root Value, segs []AccessorOp) Value {
	if len(segs) == 0 {
		return root
	}
	if len(segs) == 1 {
		return deleteLastSegment(root, segs[0])
	}

	seg := segs[0]
	rest := segs[1:]

	switch op := seg.(type) {
	case FieldOp:
		if root.Kind() != KindObj {
			return root
		}
		child, exists := root.AsObj().Get(op.Name)
		if !exists {
			return root
		}
		newChild := deleteAtPath(child, rest)
		return ObjVal(root.AsObj().Set(op.Name, newChild))

	case IndexIntOp:
		switch root.Kind() {
		case KindArr:
			arrv := root.AsArr()
			idx, ok := normalizeArrIndex(op.I, len(arrv))
			if !ok {
				return root
			}
			out := make([]Value, len(arrv))
			copy(out, arrv)
			out[idx] = deleteAtPath(arrv[idx], rest)
			return Arr(out)
		case KindObj:
			key := fmt.Sprintf("%d", op.I)
			child, exists := root.AsObj().Get(key)
			if !exists {
				return root
			}
			return ObjVal(root.AsObj().Set(key, deleteAtPath(child, rest)))
		default:
			return root
		}

	case IndexFloatOp:
		if root.Kind() != KindObj {
			return root
		}
		key := op.D.String()
		child, exists := root.AsObj().Get(key)
		if !exists {
			return root
		}
		return ObjVal(root.AsObj().Set(key, deleteAtPath(child, rest)))

	default:
		return root
	}
}

func deleteLastSegment(root Value, seg AccessorOp) Value {
	switch op := seg.(type) {
	case FieldOp:
		if root.Kind() != KindObj {
			return root
		}
		return ObjVal(root.AsObj().Delete(op.Name))

	case IndexIntOp:
		switch root.Kind() {
		case KindArr:
			arrv := root.AsArr()
			idx, ok := normalizeArrIndex(op.I, len(arrv))
			if !ok {
				return root
			}
			out := make([]Value, 0, len(arrv)-1)
			out = append(out, arrv[:idx]...)
			out = append(out, arrv[idx+1:]...)
			return Arr(out)
		case KindObj:
			key := fmt.Sprintf("%d", op.I)
			return ObjVal(root.AsObj().Delete(key))
		default:
			return root
		}

	case IndexFloatOp:
		if root.Kind() != KindObj {
			return root
		}
		return ObjVal(root.AsObj().Delete(op.D.String()))

	default:
		return root
	}
}
