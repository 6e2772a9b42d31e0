package xlformula

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorKind enumerates the closed set of spreadsheet error values this
// engine understands.
type ErrorKind uint8

const (
	ErrNA ErrorKind = iota
	ErrDIV0
	ErrREF
	ErrVALUE
	ErrNAME
	ErrNUM
	ErrNULL
)

var errorKindText = map[ErrorKind]string{
	ErrNA:    "#N/A",
	ErrDIV0:  "#DIV/0!",
	ErrREF:   "#REF!",
	ErrVALUE: "#VALUE!",
	ErrNAME:  "#NAME?",
	ErrNUM:   "#NUM!",
	ErrNULL:  "#NULL!",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindText[k]; ok {
		return s
	}
	return "#ERROR!"
}

// RichTextRun is a single formatted span of rich text.
type RichTextRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// RichText is an ordered sequence of formatted runs.
type RichText []RichTextRun

// PlainText concatenates every run's text, discarding formatting.
func (rt RichText) PlainText() string {
	var out string
	for _, run := range rt {
		out += run.Text
	}
	return out
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindText
	KindBool
	KindDateTime
	KindRichText
	KindError
	KindFormula
)

// Value is the dynamic runtime cell value. Function arguments and Call
// nodes traffic in Value; statically typed Expr[A] variants carry a
// narrower Go type (Decimal, bool, string, time.Time) once a coercion has
// pinned A down.
type Value struct {
	Kind ValueKind

	Number   decimal.Decimal
	Text     string
	Bool     bool
	DateTime time.Time
	Rich     RichText
	Err      ErrorKind

	// Formula-only fields.
	FormulaSource string
	Cached        *Value // last computed result, never itself KindFormula
}

func Empty() Value                       { return Value{Kind: KindEmpty} }
func NumberValue(d decimal.Decimal) Value { return Value{Kind: KindNumber, Number: d} }
func IntValue(n int64) Value             { return NumberValue(decimal.NewFromInt(n)) }
func TextValue(s string) Value           { return Value{Kind: KindText, Text: s} }
func BoolValue(b bool) Value             { return Value{Kind: KindBool, Bool: b} }
func DateTimeValue(t time.Time) Value    { return Value{Kind: KindDateTime, DateTime: t} }
func RichTextValue(rt RichText) Value    { return Value{Kind: KindRichText, Rich: rt} }
func ErrorValue(k ErrorKind) Value       { return Value{Kind: KindError, Err: k} }

// FormulaValue builds a Formula-kind value. cached is nil until a caching
// pass fills it in.
func FormulaValue(source string, cached *Value) Value {
	return Value{Kind: KindFormula, FormulaSource: source, Cached: cached}
}

func (v Value) IsError() bool { return v.Kind == KindError }
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// String renders a human-readable form, used by error messages and the
// string coercion decoder.
func (v Value) String() string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return v.Number.String()
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindDateTime:
		return v.DateTime.Format(time.RFC3339)
	case KindRichText:
		return v.Rich.PlainText()
	case KindError:
		return v.Err.String()
	case KindFormula:
		return v.FormulaSource
	default:
		return fmt.Sprintf("<unknown value kind %d>", v.Kind)
	}
}
