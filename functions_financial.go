package xlformula

import (
	"math"

	"github.com/shopspring/decimal"
)

// Time-value-of-money function specs, built on Decimal with the
// small-rate guard and Newton's-method convergence bounds already
// established in decimal.go.

func init() {
	register(&FunctionSpec{Name: "PMT", Arity: RangeArity(3, 5), Eval: pmtEval})
	register(&FunctionSpec{Name: "FV", Arity: RangeArity(3, 5), Eval: fvEval})
	register(&FunctionSpec{Name: "PV", Arity: RangeArity(3, 5), Eval: pvEval})
	register(&FunctionSpec{Name: "NPER", Arity: RangeArity(3, 5), Eval: nperEval})
	register(&FunctionSpec{Name: "RATE", Arity: RangeArity(3, 6), Eval: rateEval})
	register(&FunctionSpec{Name: "IRR", Arity: RangeArity(1, 2), Eval: irrEval})
	register(&FunctionSpec{Name: "XIRR", Arity: RangeArity(2, 3), Eval: xirrEval})
	register(&FunctionSpec{Name: "NPV", Arity: AtLeast(2), Eval: npvEval})
	register(&FunctionSpec{Name: "XNPV", Arity: Exact(3), Eval: xnpvEval})
}

// tvmFloatArgs decodes the shared (rate, nper, pmt, [pv], [type]) shape PMT/FV/
// PV/NPER all take in some rotation.
func tvmFloatArgs(args []ArgSource, ctx *EvalCtx, names [3]string) (rate, nper, amt float64, err error) {
	vals := [3]float64{}
	for i, name := range names {
		v, e := scalar(args, i, ctx)
		if e != nil {
			return 0, 0, 0, e
		}
		n, e := numericArg(v, name)
		if e != nil {
			return 0, 0, 0, e
		}
		vals[i], _ = n.Float64()
	}
	return vals[0], vals[1], vals[2], nil
}

// optionalFloat decodes args[idx] if present, else returns def.
func optionalFloat(args []ArgSource, idx int, ctx *EvalCtx, fnName string, def float64) (float64, error) {
	if idx >= len(args) {
		return def, nil
	}
	v, err := scalar(args, idx, ctx)
	if err != nil {
		return 0, err
	}
	n, err := numericArg(v, fnName)
	if err != nil {
		return 0, err
	}
	f, _ := n.Float64()
	return f, nil
}

func pmtEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rate, nper, pv, err := tvmFloatArgs(args, ctx, [3]string{"PMT", "PMT", "PMT"})
	if err != nil {
		return Value{}, err
	}
	fv, err := optionalFloat(args, 3, ctx, "PMT", 0)
	if err != nil {
		return Value{}, err
	}
	dueNow, err := optionalFloat(args, 4, ctx, "PMT", 0)
	if err != nil {
		return Value{}, err
	}
	due := dueNow != 0

	var pmt float64
	if isNearZero(decimal.NewFromFloat(rate)) {
		pmt = -(pv + fv) / nper
	} else {
		growth := math.Pow(1+rate, nper)
		pmt = -(fv + pv*growth) * rate / (growth - 1)
		if due {
			pmt /= (1 + rate)
		}
	}
	return NumberValue(decimal.NewFromFloat(pmt)), nil
}

func fvEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rate, nper, pmt, err := tvmFloatArgs(args, ctx, [3]string{"FV", "FV", "FV"})
	if err != nil {
		return Value{}, err
	}
	pv, err := optionalFloat(args, 3, ctx, "FV", 0)
	if err != nil {
		return Value{}, err
	}
	dueNow, err := optionalFloat(args, 4, ctx, "FV", 0)
	if err != nil {
		return Value{}, err
	}
	due := dueNow != 0

	var fv float64
	if isNearZero(decimal.NewFromFloat(rate)) {
		fv = -(pv + pmt*nper)
	} else {
		growth := math.Pow(1+rate, nper)
		annuityPmt := pmt
		if due {
			annuityPmt = pmt * (1 + rate)
		}
		fv = -(pv*growth + annuityPmt*(growth-1)/rate)
	}
	return NumberValue(decimal.NewFromFloat(fv)), nil
}

func pvEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rate, nper, pmt, err := tvmFloatArgs(args, ctx, [3]string{"PV", "PV", "PV"})
	if err != nil {
		return Value{}, err
	}
	fv, err := optionalFloat(args, 3, ctx, "PV", 0)
	if err != nil {
		return Value{}, err
	}
	dueNow, err := optionalFloat(args, 4, ctx, "PV", 0)
	if err != nil {
		return Value{}, err
	}
	due := dueNow != 0

	var pv float64
	if isNearZero(decimal.NewFromFloat(rate)) {
		pv = -(fv + pmt*nper)
	} else {
		growth := math.Pow(1+rate, nper)
		annuityPmt := pmt
		if due {
			annuityPmt = pmt * (1 + rate)
		}
		pv = -(fv + annuityPmt*(growth-1)/rate) / growth
	}
	return NumberValue(decimal.NewFromFloat(pv)), nil
}

func nperEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rate, pmt, pv, err := tvmFloatArgs(args, ctx, [3]string{"NPER", "NPER", "NPER"})
	if err != nil {
		return Value{}, err
	}
	fv, err := optionalFloat(args, 3, ctx, "NPER", 0)
	if err != nil {
		return Value{}, err
	}
	dueNow, err := optionalFloat(args, 4, ctx, "NPER", 0)
	if err != nil {
		return Value{}, err
	}
	due := dueNow != 0

	var nper float64
	if isNearZero(decimal.NewFromFloat(rate)) {
		if pmt == 0 {
			return Value{}, evalFailed("NPER did not converge", "rate and payment are both zero")
		}
		nper = -(pv + fv) / pmt
	} else {
		annuityPmt := pmt
		if due {
			annuityPmt = pmt * (1 + rate)
		}
		num := annuityPmt - fv*rate
		den := pv*rate + annuityPmt
		if num <= 0 || den <= 0 {
			return Value{}, evalFailed("NPER did not converge", "no positive-term solution")
		}
		nper = math.Log(num/den) / math.Log(1+rate)
	}
	return NumberValue(decimal.NewFromFloat(nper)), nil
}

// rateResidual is the cashflow-balance function RATE's Newton iteration
// drives to zero: pv*(1+r)^n + pmt*(1+r*due)*((1+r)^n-1)/r + fv.
func rateResidual(r, nper, pmt, pv, fv float64, due bool) float64 {
	if isNearZero(decimal.NewFromFloat(r)) {
		return pv + pmt*nper + fv
	}
	growth := math.Pow(1+r, nper)
	annuityPmt := pmt
	if due {
		annuityPmt = pmt * (1 + r)
	}
	return pv*growth + annuityPmt*(growth-1)/r + fv
}

func rateEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	nper, pmt, pv, err := tvmFloatArgs(args, ctx, [3]string{"RATE", "RATE", "RATE"})
	if err != nil {
		return Value{}, err
	}
	fv, err := optionalFloat(args, 3, ctx, "RATE", 0)
	if err != nil {
		return Value{}, err
	}
	dueNow, err := optionalFloat(args, 4, ctx, "RATE", 0)
	if err != nil {
		return Value{}, err
	}
	due := dueNow != 0
	guess, err := optionalFloat(args, 5, ctx, "RATE", 0.1)
	if err != nil {
		return Value{}, err
	}

	// With no payment the balance equation pv*(1+r)^n + fv = 0 only has a
	// root when -fv/pv is a positive growth factor; otherwise the residual
	// decays toward the degenerate r = -1 without ever balancing, and
	// Newton would report a false root there.
	if pmt == 0 && (pv == 0 || -fv/pv <= 0) {
		return Value{}, evalFailed("RATE did not converge", "no rate balances the cashflows")
	}

	f := func(r float64) float64 { return rateResidual(r, nper, pmt, pv, fv, due) }
	r, err := newtonSolve(guess, f, ctx.options())
	if err != nil {
		return Value{}, evalFailed("RATE did not converge", err.Error())
	}
	return NumberValue(decimal.NewFromFloat(r)), nil
}

// newtonSolve finds a root of f via Newton's method with a numeric
// derivative, starting at guess. Gives up if the derivative magnitude
// drops below derivativeFloor or the iteration cap is reached.
func newtonSolve(guess float64, f func(float64) float64, opt EngineOptions) (float64, error) {
	const h = 1e-6
	const derivativeFloor = 1e-14
	x := guess
	for i := 0; i < opt.MaxIterations; i++ {
		fx := f(x)
		if math.IsNaN(fx) || math.IsInf(fx, 0) {
			return 0, errConvergenceFailed
		}
		if math.Abs(fx) < opt.ConvergenceTolerance {
			return x, nil
		}
		deriv := (f(x+h) - f(x-h)) / (2 * h)
		if math.Abs(deriv) < derivativeFloor {
			return 0, errConvergenceFailed
		}
		x = x - fx/deriv
	}
	return 0, errConvergenceFailed
}

var errConvergenceFailed = evalFailed("no convergence within the iteration budget", "")

func cashflowArg(args []ArgSource, idx int, ctx *EvalCtx, fnName string) ([]float64, error) {
	values, err := args[idx].Values(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		n, err := numericArg(v, fnName)
		if err != nil {
			return nil, err
		}
		f, _ := n.Float64()
		out = append(out, f)
	}
	return out, nil
}

func npvAtRate(rate float64, flows []float64) float64 {
	total := 0.0
	for i, cf := range flows {
		total += cf / math.Pow(1+rate, float64(i+1))
	}
	return total
}

func irrEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	flows, err := cashflowArg(args, 0, ctx, "IRR")
	if err != nil {
		return Value{}, err
	}
	guess, err := optionalFloat(args, 1, ctx, "IRR", 0.1)
	if err != nil {
		return Value{}, err
	}
	f := func(r float64) float64 { return npvAtRate(r, flows) }
	r, err := newtonSolve(guess, f, ctx.options())
	if err != nil {
		return Value{}, evalFailed("IRR did not converge", err.Error())
	}
	return NumberValue(decimal.NewFromFloat(r)), nil
}

func npvEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rateV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	rateDec, err := numericArg(rateV, "NPV")
	if err != nil {
		return Value{}, err
	}
	rate, _ := rateDec.Float64()

	var flows []float64
	for _, a := range args[1:] {
		values, err := a.Values(ctx)
		if err != nil {
			return Value{}, err
		}
		for _, v := range values {
			if v.IsEmpty() {
				continue
			}
			n, err := numericArg(v, "NPV")
			if err != nil {
				return Value{}, err
			}
			f, _ := n.Float64()
			flows = append(flows, f)
		}
	}
	return NumberValue(decimal.NewFromFloat(npvAtRate(rate, flows))), nil
}

func xnpvAtRate(rate float64, flows []float64, days []float64) float64 {
	total := 0.0
	for i, cf := range flows {
		total += cf / math.Pow(1+rate, days[i]/365)
	}
	return total
}

func xnpvEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rateV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	rateDec, err := numericArg(rateV, "XNPV")
	if err != nil {
		return Value{}, err
	}
	rate, _ := rateDec.Float64()

	flows, err := cashflowArg(args, 1, ctx, "XNPV")
	if err != nil {
		return Value{}, err
	}
	dateValues, err := args[2].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	if len(dateValues) != len(flows) {
		return Value{}, evalFailed("XNPV: values and dates must be the same length", "")
	}
	base, err := dateArg(dateValues[0], "XNPV")
	if err != nil {
		return Value{}, err
	}
	days := make([]float64, len(dateValues))
	for i, v := range dateValues {
		t, err := dateArg(v, "XNPV")
		if err != nil {
			return Value{}, err
		}
		days[i] = t.Sub(base).Hours() / 24
	}
	return NumberValue(decimal.NewFromFloat(xnpvAtRate(rate, flows, days))), nil
}

func xirrEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	flows, err := cashflowArg(args, 0, ctx, "XIRR")
	if err != nil {
		return Value{}, err
	}
	dateValues, err := args[1].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	if len(dateValues) != len(flows) {
		return Value{}, evalFailed("XIRR: values and dates must be the same length", "")
	}
	base, err := dateArg(dateValues[0], "XIRR")
	if err != nil {
		return Value{}, err
	}
	days := make([]float64, len(dateValues))
	for i, v := range dateValues {
		t, err := dateArg(v, "XIRR")
		if err != nil {
			return Value{}, err
		}
		days[i] = t.Sub(base).Hours() / 24
	}
	guess, err := optionalFloat(args, 2, ctx, "XIRR", 0.1)
	if err != nil {
		return Value{}, err
	}
	f := func(r float64) float64 { return xnpvAtRate(r, flows, days) }
	r, err := newtonSolve(guess, f, ctx.options())
	if err != nil {
		return Value{}, evalFailed("XIRR did not converge", err.Error())
	}
	return NumberValue(decimal.NewFromFloat(r)), nil
}
