package xlformula

import (
	"math"

	"github.com/shopspring/decimal"
)

// Math function specs: ABS/ROUND/FLOOR/CEILING/SQRT/POWER/MOD/PI, built
// on Decimal.

func init() {
	register(&FunctionSpec{Name: "ABS", Arity: Exact(1), Eval: absEval})
	register(&FunctionSpec{Name: "ROUND", Arity: RangeArity(1, 2), Eval: roundEval})
	register(&FunctionSpec{Name: "FLOOR", Arity: Exact(1), Eval: floorEval})
	register(&FunctionSpec{Name: "CEILING", Arity: Exact(1), Eval: ceilingEval})
	register(&FunctionSpec{Name: "SQRT", Arity: Exact(1), Eval: sqrtEval})
	register(&FunctionSpec{Name: "POWER", Arity: Exact(2), Eval: powerEval})
	register(&FunctionSpec{Name: "MOD", Arity: Exact(2), Eval: modEval})
	register(&FunctionSpec{Name: "PI", Arity: Exact(0), Eval: piEval})
}

func absEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	n, err := numericArg(v, "ABS")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(n.Abs()), nil
}

func roundEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	n, err := numericArg(v, "ROUND")
	if err != nil {
		return Value{}, err
	}
	places := int32(0)
	if len(args) == 2 {
		pv, err := scalar(args, 1, ctx)
		if err != nil {
			return Value{}, err
		}
		p, err := intArg(pv, "ROUND")
		if err != nil {
			return Value{}, err
		}
		places = p
	}
	return NumberValue(n.Round(places)), nil
}

func floorEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	n, err := numericArg(v, "FLOOR")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(n.Floor()), nil
}

func ceilingEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	n, err := numericArg(v, "CEILING")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(n.Ceil()), nil
}

func sqrtEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	n, err := numericArg(v, "SQRT")
	if err != nil {
		return Value{}, err
	}
	if n.IsNegative() {
		return Value{}, evalFailed("SQRT requires a non-negative argument", n.String())
	}
	f, _ := n.Float64()
	return NumberValue(decimal.NewFromFloat(math.Sqrt(f))), nil
}

func powerEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	bv, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	ev, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	base, err := numericArg(bv, "POWER")
	if err != nil {
		return Value{}, err
	}
	exp, err := numericArg(ev, "POWER")
	if err != nil {
		return Value{}, err
	}
	return NumberValue(decimalPow(base, exp)), nil
}

func modEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	dv, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	sv, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	dividend, err := numericArg(dv, "MOD")
	if err != nil {
		return Value{}, err
	}
	divisor, err := numericArg(sv, "MOD")
	if err != nil {
		return Value{}, err
	}
	if isExactZero(divisor) {
		return Value{}, divByZero(dividend.String(), divisor.String())
	}
	return NumberValue(dividend.Mod(divisor)), nil
}

func piEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	return NumberValue(decimal.NewFromFloat(math.Pi)), nil
}
