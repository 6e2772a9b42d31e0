package xlformula

// Logical function specs (IF/AND/OR/NOT/IFERROR), built on the ArgSource
// shape so any argument may be a range (Excel lets AND/OR accept ranges
// of booleans).

func init() {
	register(&FunctionSpec{Name: "IF", Arity: RangeArity(2, 3), Eval: ifEval})
	register(&FunctionSpec{Name: "AND", Arity: AtLeast(1), Eval: andEval})
	register(&FunctionSpec{Name: "OR", Arity: AtLeast(1), Eval: orEval})
	register(&FunctionSpec{Name: "NOT", Arity: Exact(1), Eval: notEval})
	register(&FunctionSpec{Name: "IFERROR", Arity: Exact(2), Eval: ifErrorEval})
}

func ifEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	condVal, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	cond, err := booleanArg(condVal, "IF")
	if err != nil {
		return Value{}, err
	}
	if cond {
		return scalar(args, 1, ctx)
	}
	if len(args) == 3 {
		return scalar(args, 2, ctx)
	}
	return BoolValue(false), nil
}

func andEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	result := true
	any := false
	for _, a := range args {
		vals, err := a.Values(ctx)
		if err != nil {
			return Value{}, err
		}
		for _, v := range vals {
			if v.Kind != KindNumber && v.Kind != KindBool {
				continue
			}
			any = true
			b, err := booleanishArg(v)
			if err != nil {
				return Value{}, err
			}
			if !b {
				return BoolValue(false), nil
			}
		}
	}
	if !any {
		result = false
	}
	return BoolValue(result), nil
}

func orEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	for _, a := range args {
		vals, err := a.Values(ctx)
		if err != nil {
			return Value{}, err
		}
		for _, v := range vals {
			if v.Kind != KindNumber && v.Kind != KindBool {
				continue
			}
			b, err := booleanishArg(v)
			if err != nil {
				return Value{}, err
			}
			if b {
				return BoolValue(true), nil
			}
		}
	}
	return BoolValue(false), nil
}

func notEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	b, err := booleanArg(v, "NOT")
	if err != nil {
		return Value{}, err
	}
	return BoolValue(!b), nil
}

// booleanishArg treats a numeric cell as truthy-by-nonzero, matching how
// AND/OR fold mixed boolean/numeric ranges.
func booleanishArg(v Value) (bool, error) {
	if v.Kind == KindBool {
		return v.Bool, nil
	}
	return !v.Number.IsZero(), nil
}

// ifErrorEval returns its first argument unless evaluating it fails or
// yields an Error value, in which case it returns the second.
func ifErrorEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil || v.IsError() {
		return scalar(args, 1, ctx)
	}
	return v, nil
}
