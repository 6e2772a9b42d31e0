package xlformula

import "testing"

func TestLogicalFunctions(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	cases := []struct {
		formula string
		want    string
	}{
		{"=IF(TRUE, 1, 2)", "1"},
		{"=IF(FALSE, 1, 2)", "2"},
		{"=IF(FALSE, 1)", "FALSE"},
		{"=AND(TRUE, TRUE, TRUE)", "TRUE"},
		{"=AND(TRUE, FALSE)", "FALSE"},
		{"=OR(FALSE, FALSE, TRUE)", "TRUE"},
		{"=OR(FALSE, FALSE)", "FALSE"},
		{"=NOT(TRUE)", "FALSE"},
		{"=NOT(FALSE)", "TRUE"},
		{"=AND(A1:A3)", "TRUE"}, // 10,20,30 all nonzero
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

func TestIfErrorFallsBackOnError(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	got := evalFormula(t, ctx, `=IFERROR(10/(A1-A1), "fallback")`)
	if got.String() != "fallback" {
		t.Errorf("IFERROR with a failing first arg = %q, want %q", got.String(), "fallback")
	}

	got = evalFormula(t, ctx, `=IFERROR(1+1, "fallback")`)
	if got.String() != "2" {
		t.Errorf("IFERROR with a succeeding first arg = %q, want %q", got.String(), "2")
	}
}
