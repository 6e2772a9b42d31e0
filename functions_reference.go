package xlformula

import "fmt"

// Reference function specs (ROW/COLUMN/ROWS/COLUMNS/ADDRESS). These
// operate on the coerced reference node a call argument carries rather
// than a decoded cell Value.

func init() {
	register(&FunctionSpec{Name: "ROW", Arity: Exact(1), Eval: rowEval})
	register(&FunctionSpec{Name: "COLUMN", Arity: Exact(1), Eval: columnEval})
	register(&FunctionSpec{Name: "ROWS", Arity: Exact(1), Eval: rowsEval})
	register(&FunctionSpec{Name: "COLUMNS", Arity: Exact(1), Eval: columnsEval})
	register(&FunctionSpec{Name: "ADDRESS", Arity: RangeArity(2, 5), Eval: addressEval})
}

func rowEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	_, addr, err := argAddr(args[0], "ROW")
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(addr.Row) + 1), nil
}

func columnEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	_, addr, err := argAddr(args[0], "COLUMN")
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(addr.Col) + 1), nil
}

func rowsEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	a := args[0]
	if a.Range == nil {
		return IntValue(1), nil
	}
	return IntValue(int64(a.Range.Height())), nil
}

func columnsEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	a := args[0]
	if a.Range == nil {
		return IntValue(1), nil
	}
	return IntValue(int64(a.Range.Width())), nil
}

// addressEval implements Excel's ADDRESS(row, column, [abs_num], [a1],
// [sheet_text]). Only A1-style output is supported; R1C1 (a1=FALSE)
// reports EvalFailed.
func addressEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rowV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	row, err := intArg(rowV, "ADDRESS")
	if err != nil {
		return Value{}, err
	}
	colV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	col, err := intArg(colV, "ADDRESS")
	if err != nil {
		return Value{}, err
	}
	if row < 1 || col < 1 {
		return Value{}, evalFailed("ADDRESS: row and column must be positive", fmt.Sprintf("row=%d col=%d", row, col))
	}

	absNum := int32(1)
	if len(args) >= 3 {
		v, err := scalar(args, 2, ctx)
		if err != nil {
			return Value{}, err
		}
		absNum, err = intArg(v, "ADDRESS")
		if err != nil {
			return Value{}, err
		}
	}

	if len(args) >= 4 {
		v, err := scalar(args, 3, ctx)
		if err != nil {
			return Value{}, err
		}
		a1, err := booleanArg(v, "ADDRESS")
		if err != nil {
			return Value{}, err
		}
		if !a1 {
			return Value{}, evalFailed("ADDRESS: R1C1 notation is not yet supported", "")
		}
	}

	addr := ARef{Col: uint32(col - 1), Row: uint32(row - 1)}
	var anchor Anchor
	switch absNum {
	case 1:
		anchor = AnchorAbsolute
	case 2:
		anchor = AnchorRowAbsolute
	case 3:
		anchor = AnchorColAbsolute
	case 4:
		anchor = AnchorRelative
	default:
		return Value{}, evalFailed("ADDRESS: abs_num must be 1-4", fmt.Sprintf("got %d", absNum))
	}
	text := addr.StringAnchored(anchor)

	if len(args) == 5 {
		v, err := scalar(args, 4, ctx)
		if err != nil {
			return Value{}, err
		}
		sheetText := stringArg(v)
		if sheetText != "" {
			text = quoteSheetIfNeeded(sheetText) + "!" + text
		}
	}
	return TextValue(text), nil
}
