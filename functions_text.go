package xlformula

import "strings"

// Text function specs: CONCATENATE/LEN/UPPER/LOWER/TRIM.

func init() {
	register(&FunctionSpec{Name: "CONCATENATE", Arity: AtLeast(1), Eval: concatenateEval})
	register(&FunctionSpec{Name: "LEN", Arity: Exact(1), Eval: lenEval})
	register(&FunctionSpec{Name: "UPPER", Arity: Exact(1), Eval: upperEval})
	register(&FunctionSpec{Name: "LOWER", Arity: Exact(1), Eval: lowerEval})
	register(&FunctionSpec{Name: "TRIM", Arity: Exact(1), Eval: trimEval})
}

func concatenateEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	var sb strings.Builder
	for _, a := range args {
		vals, err := a.Values(ctx)
		if err != nil {
			return Value{}, err
		}
		for _, v := range vals {
			sb.WriteString(stringArg(v))
		}
	}
	return TextValue(sb.String()), nil
}

func lenEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(len([]rune(stringArg(v))))), nil
}

func upperEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	return TextValue(strings.ToUpper(stringArg(v))), nil
}

func lowerEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	return TextValue(strings.ToLower(stringArg(v))), nil
}

func trimEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	fields := strings.Fields(stringArg(v))
	return TextValue(strings.Join(fields, " ")), nil
}
