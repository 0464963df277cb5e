// Package value defines the tagged-variant Value type produced by the
// Extraction Engine and consumed by the Formula Compiler.
package value

import (
	"encoding/json"
	"time"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindDate
	KindEnum
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is a tagged union over the value domains an extractor can
// produce: bool, int, real, string, date, enum-label, list-of-value, or
// null. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Real   float64
	String string
	Date   time.Time
	Enum   string
	List   []Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Bool(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value            { return Value{Kind: KindInt, Int: i} }
func Real(r float64) Value         { return Value{Kind: KindReal, Real: r} }
func String(s string) Value        { return Value{Kind: KindString, String: s} }
func Date(t time.Time) Value       { return Value{Kind: KindDate, Date: t} }
func Enum(label string) Value      { return Value{Kind: KindEnum, Enum: label} }
func List(items []Value) Value     { return Value{Kind: KindList, List: items} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports whether two Values hold the same kind and payload.
// Value cannot use == because the List variant embeds a slice; this is
// the comparison tests and callers should use instead.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindReal:
		return v.Real == other.Real
	case KindString:
		return v.String == other.String
	case KindDate:
		return v.Date.Equal(other.Date)
	case KindEnum:
		return v.Enum == other.Enum
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default: // KindNull
		return true
	}
}

// MarshalJSON renders a Value the way a debugging snapshot of
// parsed_data should look: plain JSON scalars/arrays, not a tagged
// envelope.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	case KindReal:
		return json.Marshal(v.Real)
	case KindString:
		return json.Marshal(v.String)
	case KindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	case KindEnum:
		return json.Marshal(v.Enum)
	case KindList:
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// Sort describes the SMT sorts the Formula Compiler understands.
type Sort int

const (
	SortBool Sort = iota
	SortInt
	SortReal
)

func (s Sort) String() string {
	switch s {
	case SortBool:
		return "bool"
	case SortInt:
		return "int"
	case SortReal:
		return "real"
	default:
		return "unknown"
	}
}

// ParseSort maps an ontology's declared variable type string to a Sort.
func ParseSort(s string) (Sort, bool) {
	switch s {
	case "bool":
		return SortBool, true
	case "int":
		return SortInt, true
	case "real":
		return SortReal, true
	default:
		return 0, false
	}
}

// CoerceForSort coerces a Value to the declared sort per the table in
// §4.1: bool↔Bool; int↔Int (float truncated, bool→0/1); real↔Real
// (bool→0/1, int→real). Strings, nulls, dates, and lists have no
// coercion path; ok is false and the caller substitutes the typed
// default.
func CoerceForSort(v Value, sort Sort) (coerced Value, ok bool) {
	switch sort {
	case SortBool:
		switch v.Kind {
		case KindBool:
			return v, true
		default:
			return Value{}, false
		}
	case SortInt:
		switch v.Kind {
		case KindInt:
			return v, true
		case KindReal:
			return Int(int64(v.Real)), true
		case KindBool:
			if v.Bool {
				return Int(1), true
			}
			return Int(0), true
		default:
			return Value{}, false
		}
	case SortReal:
		switch v.Kind {
		case KindReal:
			return v, true
		case KindInt:
			return Real(float64(v.Int)), true
		case KindBool:
			if v.Bool {
				return Real(1), true
			}
			return Real(0), true
		default:
			return Value{}, false
		}
	default:
		return Value{}, false
	}
}

// Default returns the typed default value for a sort, per §3's
// "resolves... to a typed default" and §7's extraction_warning.
func Default(sort Sort) Value {
	switch sort {
	case SortBool:
		return Bool(false)
	case SortInt:
		return Int(0)
	case SortReal:
		return Real(0)
	default:
		return Null()
	}
}
