package umbrella

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	NilValue ValueKind = iota
	NumberValue
	BoolValue
	StringValue
)

// String returns the kind name as scripts see it.
func (k ValueKind) String() string {
	switch k {
	case NumberValue:
		return "number"
	case BoolValue:
		return "boolean"
	case StringValue:
		return "string"
	default:
		return "nil"
	}
}

// Value is a script-visible custom field value. The zero Value is nil.
type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
	Str  string
}

// Number returns a number Value.
func Number(f float64) Value { return Value{Kind: NumberValue, Num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: StringValue, Str: s} }

// IsNil reports whether v holds nothing.
func (v Value) IsNil() bool { return v.Kind == NilValue }

func (v Value) String() string {
	switch v.Kind {
	case NumberValue:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case BoolValue:
		return strconv.FormatBool(v.Bool)
	case StringValue:
		return v.Str
	default:
		return "nil"
	}
}

// Fields is an ordered string-keyed store of custom object fields. Keys keep
// their first insertion order; storing nil removes the key. The zero Fields is
// empty and ready to use.
type Fields struct {
	m *orderedmap.OrderedMap[string, Value]
}

// Get returns the value stored under key, or nil.
func (f *Fields) Get(key string) Value {
	if f.m == nil {
		return Value{}
	}
	v, _ := f.m.Get(key)
	return v
}

// Set stores v under key. A nil v deletes the key.
func (f *Fields) Set(key string, v Value) {
	if v.IsNil() {
		f.Delete(key)
		return
	}
	if f.m == nil {
		f.m = orderedmap.New[string, Value]()
	}
	f.m.Set(key, v)
}

// Delete removes key.
func (f *Fields) Delete(key string) {
	if f.m == nil {
		return
	}
	f.m.Delete(key)
}

// Len returns the number of stored keys.
func (f *Fields) Len() int {
	if f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Keys returns the stored keys in insertion order.
func (f *Fields) Keys() []string {
	out := make([]string, 0, f.Len())
	if f.m == nil {
		return out
	}
	for p := f.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Clone returns an independent copy. Scripts mutate a clone so a failed run
// leaves the original untouched.
func (f *Fields) Clone() Fields {
	if f.m == nil {
		return Fields{}
	}
	c := Fields{m: orderedmap.New[string, Value]()}
	for p := f.m.Oldest(); p != nil; p = p.Next() {
		c.m.Set(p.Key, p.Value)
	}
	return c
}
