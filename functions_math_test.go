package xlformula

import "testing"

func TestMathFunctions(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	cases := []struct {
		formula string
		want    string
	}{
		{"=ABS(-5)", "5"},
		{"=ABS(5)", "5"},
		{"=ROUND(3.14159, 2)", "3.14"},
		{"=ROUND(3.5, 0)", "4"},
		{"=FLOOR(3.9)", "3"},
		{"=CEILING(3.1)", "4"},
		{"=SQRT(9)", "3"},
		{"=POWER(2, 10)", "1024"},
		{"=MOD(10, 3)", "1"},
	}
	for _, c := range cases {
		t.Run(c.formula, func(t *testing.T) {
			got := evalFormula(t, ctx, c.formula)
			if got.String() != c.want {
				t.Errorf("Eval(%q) = %q, want %q", c.formula, got.String(), c.want)
			}
		})
	}
}

func TestSqrtRejectsNegative(t *testing.T) {
	ctx, _ := newScenarioSheet(t)
	expr, err := Parse("=SQRT(-1)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := expr.Eval(ctx); err == nil {
		t.Fatal("expected SQRT(-1) to fail")
	}
}

func TestModByZeroIsDivisionByZero(t *testing.T) {
	ctx, _ := newScenarioSheet(t)
	expr, err := Parse("=MOD(10, 0)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = expr.Eval(ctx)
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Kind != EvalDivByZero {
		t.Fatalf("expected EvalDivByZero, got %#v", err)
	}
}
