package xlformula

import (
	"math"
	"time"
)

// Each decoder below is a per-cell-value -> typed-value function that
// either succeeds or fails with a CodecError. Each is attached to a
// PolyRef/SheetPolyRef by the matching coercion constructor below.

func decodeNumeric(v Value) (Decimal, *CodecError) {
	switch v.Kind {
	case KindNumber:
		return v.Number, nil
	case KindBool:
		if v.Bool {
			return decimalOne(), nil
		}
		return decimalZero(), nil
	case KindFormula:
		if v.Cached != nil {
			return decodeNumeric(*v.Cached)
		}
		return Decimal{}, codecTypeMismatch("numeric", "formula with no cached value")
	default:
		return Decimal{}, codecTypeMismatch("numeric", valueKindName(v.Kind))
	}
}

func decodeDate(v Value) (time.Time, *CodecError) {
	switch v.Kind {
	case KindDateTime:
		return v.DateTime, nil
	case KindFormula:
		if v.Cached != nil {
			return decodeDate(*v.Cached)
		}
		return time.Time{}, codecTypeMismatch("date", "formula with no cached value")
	default:
		return time.Time{}, codecTypeMismatch("date", valueKindName(v.Kind))
	}
}

func decodeBoolean(v Value) (bool, *CodecError) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindFormula:
		if v.Cached != nil {
			return decodeBoolean(*v.Cached)
		}
		return false, codecTypeMismatch("boolean", "formula with no cached value")
	default:
		return false, codecTypeMismatch("boolean", valueKindName(v.Kind))
	}
}

// decodeStringCoercive never fails.
func decodeStringCoercive(v Value) (string, *CodecError) {
	switch v.Kind {
	case KindEmpty:
		return "", nil
	case KindNumber:
		return v.Number.String(), nil
	case KindBool:
		if v.Bool {
			return "TRUE", nil
		}
		return "FALSE", nil
	case KindDateTime:
		return v.DateTime.Format(time.RFC3339), nil
	case KindFormula:
		return v.FormulaSource, nil
	case KindRichText:
		return v.Rich.PlainText(), nil
	default:
		return v.String(), nil
	}
}

const maxInt32Representable = 1 << 31

func decodeInt(v Value) (int32, *CodecError) {
	switch v.Kind {
	case KindNumber:
		f, _ := v.Number.Float64()
		if math.Abs(f) >= maxInt32Representable || f != math.Trunc(f) {
			return 0, codecTypeMismatch("integer", "non-integral or out-of-range number")
		}
		return int32(f), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, codecTypeMismatch("integer", valueKindName(v.Kind))
	}
}

// decodeCellValue is the identity decoder: always succeeds.
func decodeCellValue(v Value) (Value, *CodecError) { return v, nil }

// decodeResolvedValue collapses Formula/Empty/RichText into their plain
// equivalents.
func decodeResolvedValue(v Value) (Value, *CodecError) {
	switch v.Kind {
	case KindFormula:
		if v.Cached != nil {
			return *v.Cached, nil
		}
		return NumberValue(decimalZero()), nil
	case KindEmpty:
		return NumberValue(decimalZero()), nil
	case KindRichText:
		return TextValue(v.Rich.PlainText()), nil
	default:
		return v, nil
	}
}

func valueKindName(k ValueKind) string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindDateTime:
		return "datetime"
	case KindRichText:
		return "rich text"
	case KindError:
		return "error"
	case KindFormula:
		return "formula"
	default:
		return "unknown"
	}
}

// --- Coercion constructors ---------------------------------------------
//
// These eliminate a PolyExpr by attaching the decoder that matches the
// surrounding context, producing the appropriately typed Ref or SheetRef.
// They are the only place a PolyRef/SheetPolyRef is consumed.

func CoerceNumeric(p PolyExpr) Expr[Decimal] {
	return coerceWith(p, decodeNumeric, "numeric")
}

func CoerceDate(p PolyExpr) Expr[time.Time] {
	return coerceWith(p, decodeDate, "date")
}

func CoerceBoolean(p PolyExpr) Expr[bool] {
	return coerceWith(p, decodeBoolean, "boolean")
}

func CoerceString(p PolyExpr) Expr[string] {
	return coerceWith(p, decodeStringCoercive, "string")
}

func CoerceInt(p PolyExpr) Expr[int32] {
	return coerceWith(p, decodeInt, "integer")
}

// CoerceValue attaches the identity decoder — the default for function
// arguments, which traffic uniformly in Value.
func CoerceValue(p PolyExpr) Expr[Value] {
	return coerceWith(p, decodeCellValue, "value")
}

// CoerceResolved attaches the resolved-value decoder.
func CoerceResolved(p PolyExpr) Expr[Value] {
	return coerceWith(p, decodeResolvedValue, "resolved")
}

func coerceWith[A any](p PolyExpr, decode Decoder[A], name string) Expr[A] {
	sheet, addr, anchor := p.polyAddr()
	if sheet == "" {
		return &Ref[A]{Addr: addr, Anchor: anchor, Decode: decode, DecodeName: name, Pos: p.Position()}
	}
	return &SheetRef[A]{Sheet: sheet, Addr: addr, Anchor: anchor, Decode: decode, DecodeName: name, Pos: p.Position()}
}

// asNumericValue adapts an Expr[Value]-typed subexpression (e.g. a Call
// result) into Expr[Decimal] by decoding at evaluation time, for contexts
// (unary minus, arithmetic, comparisons) that require a numeric operand
// but were handed a function call rather than a bare reference.
type asNumericValue struct {
	Inner Expr[Value]
}

func (n *asNumericValue) Eval(ctx *EvalCtx) (Decimal, error) {
	v, err := n.Inner.Eval(ctx)
	if err != nil {
		return Decimal{}, err
	}
	d, codecErr := decodeNumeric(v)
	if codecErr != nil {
		return Decimal{}, typeMismatch("numeric coercion", "numeric", codecErr.Actual)
	}
	return d, nil
}
func (n *asNumericValue) Position() NodePosition { return n.Inner.Position() }
func (n *asNumericValue) String() string         { return n.Inner.String() }

// AsNumeric coerces a Value-typed expression to Decimal.
func AsNumeric(e Expr[Value]) Expr[Decimal] { return &asNumericValue{e} }

type asBooleanValue struct {
	Inner Expr[Value]
}

func (n *asBooleanValue) Eval(ctx *EvalCtx) (bool, error) {
	v, err := n.Inner.Eval(ctx)
	if err != nil {
		return false, err
	}
	b, codecErr := decodeBoolean(v)
	if codecErr != nil {
		return false, typeMismatch("boolean coercion", "boolean", codecErr.Actual)
	}
	return b, nil
}
func (n *asBooleanValue) Position() NodePosition { return n.Inner.Position() }
func (n *asBooleanValue) String() string         { return n.Inner.String() }

// AsBoolean coerces a Value-typed expression to bool.
func AsBoolean(e Expr[Value]) Expr[bool] { return &asBooleanValue{e} }

// NumericAsValue/BoolAsValue/StringAsValue wrap a typed
// Expr[Decimal]/[bool]/[string] back into Expr[Value], the uniform shape
// Call arguments require.
type numericAsValue struct{ Inner Expr[Decimal] }

func (n *numericAsValue) Eval(ctx *EvalCtx) (Value, error) {
	d, err := n.Inner.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return NumberValue(d), nil
}
func (n *numericAsValue) Position() NodePosition { return n.Inner.Position() }
func (n *numericAsValue) String() string         { return n.Inner.String() }

// NumericAsValue lifts a Decimal-typed expression into Expr[Value].
func NumericAsValue(e Expr[Decimal]) Expr[Value] { return &numericAsValue{e} }

type boolAsValue struct{ Inner Expr[bool] }

func (n *boolAsValue) Eval(ctx *EvalCtx) (Value, error) {
	b, err := n.Inner.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(b), nil
}
func (n *boolAsValue) Position() NodePosition { return n.Inner.Position() }
func (n *boolAsValue) String() string         { return n.Inner.String() }

// BoolAsValue lifts a bool-typed expression into Expr[Value].
func BoolAsValue(e Expr[bool]) Expr[Value] { return &boolAsValue{e} }

type stringAsValue struct{ Inner Expr[string] }

func (n *stringAsValue) Eval(ctx *EvalCtx) (Value, error) {
	s, err := n.Inner.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return TextValue(s), nil
}
func (n *stringAsValue) Position() NodePosition { return n.Inner.Position() }
func (n *stringAsValue) String() string         { return n.Inner.String() }

// StringAsValue lifts a string-typed expression into Expr[Value].
func StringAsValue(e Expr[string]) Expr[Value] { return &stringAsValue{e} }
