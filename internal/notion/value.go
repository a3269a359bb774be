package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

// Fields is the member set of an object value.
type Fields map[string]Value

// Value is a JSON document of unknown shape. The zero value is null.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	items  []Value
	fields Fields
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }
func Array(items ...Value) Value { return Value{kind: KindArray, items: append([]Value{}, items...)} }
func Object(f Fields) Value {
	if f == nil {
		f = Fields{}
	}
	return Value{kind: KindObject, fields: f}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Items() []Value { return v.items }

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) BoolValue() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Field returns the named member of an object, or null.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.fields[name]
}

// StrField returns the named member when it is a string.
func (v Value) StrField(name string) (string, bool) {
	return v.Field(name).Str()
}

// PlainText joins the plain_text of every rich text fragment with newlines.
// Bare strings and single fragment objects are accepted too. It reports
// false when no fragment carries text.
func (v Value) PlainText() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindObject:
		return v.StrField("plain_text")
	case KindArray:
		parts := make([]string, 0, len(v.items))
		for _, item := range v.items {
			if s, ok := item.StrField("plain_text"); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "\n"), true
	default:
		return "", false
	}
}

// SelectName reads the name of a select or status option.
func (v Value) SelectName() (string, bool) {
	return v.StrField("name")
}

// MultiSelectNames collects option names of a multi-select.
func (v Value) MultiSelectNames() []string {
	return v.collect("name")
}

// RelationIDs collects the page ids of a relation.
func (v Value) RelationIDs() []string {
	return v.collect("id")
}

// DateStart reads the start of a date range object.
func (v Value) DateStart() (string, bool) {
	return v.StrField("start")
}

func (v Value) collect(field string) []string {
	var out []string
	for _, item := range v.items {
		if s, ok := item.StrField(field); ok {
			out = append(out, s)
		}
	}
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindArray:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindObject:
		if v.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(map[string]Value(v.fields))
	default:
		return nil, fmt.Errorf("notion: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("notion: number %q: %w", x, err)
		}
		return Number(n), nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, e := range x {
			item, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{kind: KindArray, items: items}, nil
	case map[string]any:
		fields := make(Fields, len(x))
		for k, e := range x {
			item, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}
			fields[k] = item
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("notion: unsupported json type %T", raw)
	}
}
