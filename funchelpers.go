package xlformula

import "fmt"

// flattenAll evaluates every argument (scalar or range) and concatenates
// their cell values in order — the shape SUM/AVERAGE/COUNT/MIN/MAX/MEDIAN
// need, since Excel lets any of their arguments be a range or a scalar
// interchangeably.
func flattenAll(args []ArgSource, ctx *EvalCtx) ([]Value, error) {
	var out []Value
	for _, a := range args {
		vs, err := a.Values(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// numericArg decodes a scalar argument as numeric, reporting an EvalError
// (not a bare CodecError) since this is evaluator-level, not a Ref decode.
func numericArg(v Value, fnName string) (Decimal, error) {
	d, codecErr := decodeNumeric(v)
	if codecErr != nil {
		return Decimal{}, typeMismatch(fnName, "numeric", valueKindName(v.Kind))
	}
	return d, nil
}

func booleanArg(v Value, fnName string) (bool, error) {
	b, codecErr := decodeBoolean(v)
	if codecErr != nil {
		return false, typeMismatch(fnName, "boolean", valueKindName(v.Kind))
	}
	return b, nil
}

func stringArg(v Value) string {
	s, _ := decodeStringCoercive(v)
	return s
}

func intArg(v Value, fnName string) (int32, error) {
	n, codecErr := decodeInt(v)
	if codecErr != nil {
		return 0, typeMismatch(fnName, "integer", valueKindName(v.Kind))
	}
	return n, nil
}

// scalar evaluates args[i] as a plain scalar Value.
func scalar(args []ArgSource, i int, ctx *EvalCtx) (Value, error) {
	return args[i].Value(ctx)
}

func wrongArgCount(fnName string, got int) error {
	return evalFailed(fmt.Sprintf("%s: unexpected argument count", fnName), fmt.Sprintf("got %d", got))
}

// argAddr recovers the cell address a reference argument denotes. Once a
// bare reference has gone through CoerceResolved the PolyRef is long gone
// (parser.go), so ROW/COLUMN/ADDRESS type-switch on the coerced node itself
// rather than trying to decode an address out of a Value.
func argAddr(a ArgSource, fnName string) (sheet string, addr ARef, err error) {
	if a.Range != nil {
		return a.Sheet, ARef{Col: a.Range.StartCol, Row: a.Range.StartRow}, nil
	}
	switch n := a.Scalar.(type) {
	case *Ref[Value]:
		return "", n.Addr, nil
	case *SheetRef[Value]:
		return n.Sheet, n.Addr, nil
	default:
		return "", ARef{}, evalFailed(fnName+": expected a cell reference", a.String())
	}
}
