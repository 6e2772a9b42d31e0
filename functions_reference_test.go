package xlformula

import "testing"

func TestRowColumnAndAddress(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	if got := evalFormula(t, ctx, "=ROW(C2)"); got.String() != "2" {
		t.Errorf("ROW(C2) = %q, want 2", got.String())
	}
	if got := evalFormula(t, ctx, "=COLUMN(C2)"); got.String() != "3" {
		t.Errorf("COLUMN(C2) = %q, want 3", got.String())
	}
	if got := evalFormula(t, ctx, "=ROWS(A1:A3)"); got.String() != "3" {
		t.Errorf("ROWS(A1:A3) = %q, want 3", got.String())
	}
	if got := evalFormula(t, ctx, "=COLUMNS(A1:C1)"); got.String() != "3" {
		t.Errorf("COLUMNS(A1:C1) = %q, want 3", got.String())
	}

	cases := []struct {
		formula string
		want    string
	}{
		{"=ADDRESS(1,1)", "$A$1"},
		{"=ADDRESS(1,1,4)", "A1"},
		{"=ADDRESS(1,1,2)", "A$1"},
		{"=ADDRESS(1,1,3)", "$A1"},
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
