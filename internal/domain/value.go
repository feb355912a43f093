package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueType is the persisted discriminant of an attribute value. It is stored
// next to the textual representation so values round-trip without structural
// inference ("30" tagged integer stays an integer, tagged string stays a string).
type ValueType string

const (
	TypeNull    ValueType = "null"
	TypeBoolean ValueType = "boolean"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeString  ValueType = "string"
	TypeArray   ValueType = "array"
	TypeObject  ValueType = "object"
)

// Value is a tagged attribute value. Exactly one of the payload fields is
// meaningful, selected by Type; array and object payloads are kept as JSON text.
type Value struct {
	Type  ValueType
	Bool  bool
	Int   int64
	Float float64
	Str   string
	JSON  string
}

// NullValue returns the null value.
func NullValue() Value { return Value{Type: TypeNull} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// IntValue returns an integer value.
func IntValue(i int64) Value { return Value{Type: TypeInteger, Int: i} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }

// Text renders the value in its persisted textual form.
func (v Value) Text() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return v.Str
	case TypeArray, TypeObject:
		return v.JSON
	default:
		return ""
	}
}

// ParseValue reconstructs a Value from its persisted textual form and type tag.
func ParseValue(text string, typ ValueType) (Value, error) {
	switch typ {
	case TypeNull:
		return NullValue(), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("parse boolean attribute %q: %w", text, err)
		}
		return BoolValue(b), nil
	case TypeInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse integer attribute %q: %w", text, err)
		}
		return IntValue(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse float attribute %q: %w", text, err)
		}
		return FloatValue(f), nil
	case TypeString:
		return StringValue(text), nil
	case TypeArray, TypeObject:
		if !json.Valid([]byte(text)) {
			return Value{}, fmt.Errorf("attribute tagged %s is not valid JSON", typ)
		}
		return Value{Type: typ, JSON: text}, nil
	default:
		return Value{}, fmt.Errorf("unknown attribute value type %q", typ)
	}
}
