package xlformula

import "testing"

// TestParserValidFormulas is a flat list of formulas that must parse
// cleanly.
func TestParserValidFormulas(t *testing.T) {
	valid := []string{
		"=1+2",
		"=A1",
		"=SUM(A1:A10)",
		"=Sheet2!A1",
		"=Sheet2!A1:B2",
		"=SUM(Sheet2!A1:A10)",
		"=Sheet2!A1 + Sheet3!B1",
		"=SUM(A1:A1)",
		"=IF(A1>A2, \"up\", \"down\")",
		`=CONCATENATE("Hello ", "World")`,
		"=$A$1",
		"=A$1",
		"=$A1",
		"=NOT TRUE AND FALSE",
		"=VLOOKUP(\"Apple\", B1:C2, 2, FALSE)",
	}
	for _, formula := range valid {
		t.Run(formula, func(t *testing.T) {
			if _, err := Parse(formula); err != nil {
				t.Errorf("Parse(%q) failed: %v", formula, err)
			}
		})
	}
}

func TestParserInvalidFormulas(t *testing.T) {
	invalid := []string{
		"=",
		"=SUM(",
		"=A1:",
		`="hello`,
		"=1+",
		"=SUMM(A1)",
	}
	for _, formula := range invalid {
		t.Run(formula, func(t *testing.T) {
			if _, err := Parse(formula); err == nil {
				t.Errorf("Parse(%q) unexpectedly succeeded", formula)
			}
		})
	}
}

// TestParserPrecedence checks operator precedence, including NOT binding
// tighter than AND.
func TestParserPrecedence(t *testing.T) {
	sheet := NewMemSheet("Sheet1")
	wb := NewMemWorkbook()
	wb.AddSheet(sheet)
	ctx := &EvalCtx{Sheet: sheet, Workbook: wb, Clock: FixedClock{}}

	cases := []struct {
		formula string
		want    string
	}{
		{"=1+2*3", "7"},
		{"=(1+2)*3", "9"},
		{"=NOT TRUE AND FALSE", "FALSE"},
	}
	for _, c := range cases {
		t.Run(c.formula, func(t *testing.T) {
			expr, err := Parse(c.formula)
			if err != nil {
				t.Fatalf("Parse(%q): %v", c.formula, err)
			}
			v, err := expr.Eval(ctx)
			if err != nil {
				t.Fatalf("Eval(%q): %v", c.formula, err)
			}
			if v.String() != c.want {
				t.Errorf("Eval(%q) = %q, want %q", c.formula, v.String(), c.want)
			}
		})
	}
}

// TestParserCaseInsensitiveFunctionLookup checks that function names
// resolve the same regardless of case.
func TestParserCaseInsensitiveFunctionLookup(t *testing.T) {
	forms := []string{"=sum(A1:A2)", "=SUM(A1:A2)", "=Sum(A1:A2)"}
	var printed []string
	for _, f := range forms {
		expr, err := Parse(f)
		if err != nil {
			t.Fatalf("Parse(%q): %v", f, err)
		}
		printed = append(printed, Print(expr))
	}
	for i := 1; i < len(printed); i++ {
		if printed[i] != printed[0] {
			t.Errorf("case-insensitive forms printed differently: %q vs %q", printed[0], printed[i])
		}
	}
}

// TestParserReferenceAnchors checks that $ prefixes on column/row
// positions produce the right Anchor.
func TestParserReferenceAnchors(t *testing.T) {
	cases := []struct {
		formula string
		anchor  Anchor
	}{
		{"=$A$1", AnchorAbsolute},
		{"=A$1", AnchorRowAbsolute},
		{"=$A1", AnchorColAbsolute},
		{"=A1", AnchorRelative},
	}
	for _, c := range cases {
		t.Run(c.formula, func(t *testing.T) {
			expr, err := Parse(c.formula)
			if err != nil {
				t.Fatalf("Parse(%q): %v", c.formula, err)
			}
			ref, ok := expr.(*Ref[Value])
			if !ok {
				t.Fatalf("Parse(%q) did not produce a *Ref[Value]: %T", c.formula, expr)
			}
			if ref.Anchor != c.anchor {
				t.Errorf("Parse(%q) anchor = %v, want %v", c.formula, ref.Anchor, c.anchor)
			}
		})
	}
}

// TestParserUnknownFunctionSuggestions checks the "did you mean"
// suggestion list for a misspelled function name.
func TestParserUnknownFunctionSuggestions(t *testing.T) {
	_, err := Parse("=SUMM(A1:A2)")
	if err == nil {
		t.Fatal("expected an error for an unknown function")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	found := map[string]bool{}
	for _, s := range perr.Suggestions {
		found[s] = true
	}
	if !found["SUM"] {
		t.Errorf("suggestions %v missing SUM", perr.Suggestions)
	}
}
