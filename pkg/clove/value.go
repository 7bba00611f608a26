package clove

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDec
	KindStr
	KindArr
	KindObj
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt, KindDec:
		return "number"
	case KindStr:
		return "string"
	case KindArr:
		return "array"
	case KindObj:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the evaluator's native value: JSON plus the Int/Dec numeric
// split described in the data model. Values are immutable once
// constructed; every "mutating" helper returns a new Value.
type Value struct {
	kind Kind
	b    bool
	i    *big.Int
	d    decimal.Decimal
	s    string
	arr  []Value
	obj  *Obj
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an arbitrary-precision integer.
func Int(i *big.Int) Value { return Value{kind: KindInt, i: i} }

// IntFromInt64 wraps a machine integer as an exact Value.
func IntFromInt64(i int64) Value { return Value{kind: KindInt, i: big.NewInt(i)} }

// Dec wraps an arbitrary-precision decimal.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDec, d: d} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindStr, s: s} }

// Arr wraps an ordered sequence of values.
func Arr(vs []Value) Value { return Value{kind: KindArr, arr: vs} }

// ObjVal wraps an insertion-ordered object.
func ObjVal(o *Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() *big.Int  { return v.i }
func (v Value) AsDec() decimal.Decimal {
	if v.kind == KindInt {
		return decimal.NewFromBigInt(v.i, 0)
	}
	return v.d
}
func (v Value) AsStr() string  { return v.s }
func (v Value) AsArr() []Value { return v.arr }
func (v Value) AsObj() *Obj    { return v.obj }

// IsNumeric reports whether v is Int or Dec.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindDec }

// Obj is a string-keyed map preserving insertion order, used for Value's
// Obj variant and for JSON output rendering.
type Obj struct {
	keys []string
	m    map[string]Value
}

// NewObj constructs an empty ordered object.
func NewObj() *Obj {
	return &Obj{m: make(map[string]Value)}
}

// Get returns the value at key and whether it was present.
func (o *Obj) Get(key string) (Value, bool) {
	if o == nil {
		return Null, false
	}
	v, ok := o.m[key]
	return v, ok
}

// Set inserts or replaces key, appending it to the key order if new, and
// returns a new Obj (the receiver is left unmodified).
func (o *Obj) Set(key string, v Value) *Obj {
	n := o.clone()
	if _, exists := n.m[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.m[key] = v
	return n
}

// Delete removes key if present, returning a new Obj.
func (o *Obj) Delete(key string) *Obj {
	if o == nil {
		return o
	}
	if _, ok := o.m[key]; !ok {
		return o
	}
	n := o.clone()
	delete(n.m, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return n
}

func (o *Obj) clone() *Obj {
	n := &Obj{
		keys: make([]string, len(o.keys)),
		m:    make(map[string]Value, len(o.m)),
	}
	copy(n.keys, o.keys)
	for k, v := range o.m {
		n.m[k] = v
	}
	return n
}

// Keys returns the keys in insertion order.
func (o *Obj) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of entries.
func (o *Obj) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// FromJSON decodes JSON text into a Value, parsing numbers per the data
// model (no fractional part and no exponent-induced fraction means Int,
// else Dec) and preserving each object's source key order by streaming
// through json.Decoder.Token rather than decoding into map[string]any,
// whose iteration order is not the document's order.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Null, fmt.Errorf("decode JSON: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := NewObj()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("expected object key, found %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				o = o.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume closing '}'
				return Value{}, err
			}
			return ObjVal(o), nil
		case '[':
			var out []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				out = append(out, val)
			}
			if _, err := dec.Token(); err != nil { // consume closing ']'
				return Value{}, err
			}
			return Arr(out), nil
		default:
			return Value{}, fmt.Errorf("unexpected JSON delimiter %v", t)
		}
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberFromJSON(t), nil
	case string:
		return Str(t), nil
	default:
		return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func numberFromJSON(n json.Number) Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if bi, ok := new(big.Int).SetString(s, 10); ok {
			return Int(bi)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Null
	}
	if d.Exponent() >= 0 {
		// No fractional digits after normalization (e.g. "1e2" -> 100).
		return Int(d.BigInt())
	}
	return Dec(d)
}

// ToJSON renders v as JSON text, collapsing Int/Dec back to a single
// numeric representation.
func (v Value) ToJSON() (json.RawMessage, error) {
	var b strings.Builder
	if err := v.writeJSON(&b); err != nil {
		return nil, err
	}
	return json.RawMessage(b.String()), nil
}

func (v Value) writeJSON(b *strings.Builder) error {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(v.i.String())
	case KindDec:
		b.WriteString(v.d.String())
	case KindStr:
		enc, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		b.Write(enc)
	case KindArr:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := e.writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case KindObj:
		b.WriteByte('{')
		for i, k := range v.obj.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(enc)
			b.WriteByte(':')
			val, _ := v.obj.Get(k)
			if err := val.writeJSON(b); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	}
	return nil
}

// TypeName returns the clove type() result for v.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt, KindDec:
		return "number"
	case KindStr:
		return "string"
	case KindArr:
		return "array"
	case KindObj:
		return "object"
	default:
		return "unknown"
	}
}

// ToDisplayString renders v the way to_string() does: scalars render
// plainly, composites render as their JSON form.
func (v Value) ToDisplayString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return v.i.String()
	case KindDec:
		return v.d.String()
	case KindStr:
		return v.s
	default:
		raw, err := v.ToJSON()
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
