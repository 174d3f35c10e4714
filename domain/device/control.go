package device

import (
	"fmt"
	"strconv"
)

// ReprKind enumerates control representations.
type ReprKind int

const (
	ReprUnknown ReprKind = iota
	ReprButton
	ReprBoolean
	ReprInteger
)

func (k ReprKind) String() string {
	switch k {
	case ReprButton:
		return "button"
	case ReprBoolean:
		return "boolean"
	case ReprInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// Representation is fixed at query time. Min, Max, Step and Default are only
// meaningful for ReprInteger.
type Representation struct {
	Kind    ReprKind
	Min     int64
	Max     int64
	Step    int64
	Default int64
}

func ButtonRepr() Representation  { return Representation{Kind: ReprButton} }
func BooleanRepr() Representation { return Representation{Kind: ReprBoolean} }
func IntegerRepr(min, max, step, def int64) Representation {
	return Representation{Kind: ReprInteger, Min: min, Max: max, Step: step, Default: def}
}

// Readable reports whether a control of this representation holds a value
// that can be read back. Buttons are stateless triggers.
func (r Representation) Readable() bool {
	return r.Kind == ReprBoolean || r.Kind == ReprInteger
}

func (r Representation) String() string {
	if r.Kind == ReprInteger {
		return fmt.Sprintf("integer[%d..%d/%d]", r.Min, r.Max, r.Step)
	}
	return r.Kind.String()
}

// ValueKind tags the Value union.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueBoolean
	ValueInteger
	ValueText
)

// Value is the tagged union None | Boolean | Integer | Text.
// The zero value is None.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	s    string
}

func NoneValue() Value          { return Value{} }
func BoolValue(b bool) Value    { return Value{kind: ValueBoolean, b: b} }
func IntValue(i int64) Value    { return Value{kind: ValueInteger, i: i} }
func TextValue(s string) Value  { return Value{kind: ValueText, s: s} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNone() bool    { return v.kind == ValueNone }

// Bool returns the boolean payload; ok is false for other kinds.
func (v Value) Bool() (b bool, ok bool) { return v.b, v.kind == ValueBoolean }

// Int returns the integer payload; ok is false for other kinds.
func (v Value) Int() (i int64, ok bool) { return v.i, v.kind == ValueInteger }

// Text returns the text payload; ok is false for other kinds.
func (v Value) Text() (s string, ok bool) { return v.s, v.kind == ValueText }

// Truthy reports a Boolean true or a nonzero Integer.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueBoolean:
		return v.b
	case ValueInteger:
		return v.i != 0
	}
	return false
}

// CompatibleWith reports whether v may be carried by a control of repr r.
// Unknown controls take any value; the device decides.
func (v Value) CompatibleWith(r Representation) bool {
	switch r.Kind {
	case ReprUnknown:
		return true
	case ReprBoolean:
		return v.kind == ValueBoolean || v.kind == ValueInteger
	case ReprInteger:
		return v.kind == ValueInteger
	case ReprButton:
		return v.kind == ValueNone
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case ValueBoolean:
		return strconv.FormatBool(v.b)
	case ValueInteger:
		return strconv.FormatInt(v.i, 10)
	case ValueText:
		return strconv.Quote(v.s)
	}
	return "none"
}
