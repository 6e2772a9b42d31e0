package xlformula

import "testing"

func TestTextFunctions(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	cases := []struct {
		formula string
		want    string
	}{
		{`=CONCATENATE("foo", "bar", "baz")`, "foobarbaz"},
		{`=LEN("hello")`, "5"},
		{`=UPPER("hello")`, "HELLO"},
		{`=LOWER("HELLO")`, "hello"},
		{`=TRIM("  padded  ")`, "padded"},
		{"=CONCATENATE(B1, B2)", "AppleBanana"},
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
