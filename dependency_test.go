package xlformula

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustParseFor(t *testing.T, formula string) Expr[Value] {
	t.Helper()
	expr, err := Parse(formula)
	if err != nil {
		t.Fatalf("Parse(%q): %v", formula, err)
	}
	return expr
}

// TestCalculationOrderPrecedentsFirst checks that a simple chain
// A1 = B1 + 1, B1 = C1 * 2 produces an order with C1 before B1 before A1.
func TestCalculationOrderPrecedentsFirst(t *testing.T) {
	g := NewDependencyGraph()
	a1 := ARef{Col: 0, Row: 0}
	b1 := ARef{Col: 1, Row: 0}
	c1 := ARef{Col: 2, Row: 0}

	g.AddFormula("Sheet1", a1, mustParseFor(t, "=B1+1"))
	g.AddFormula("Sheet1", b1, mustParseFor(t, "=C1*2"))
	g.AddFormula("Sheet1", c1, mustParseFor(t, "=1"))

	order, cyclic := g.CalculationOrder()
	if len(cyclic) != 0 {
		t.Fatalf("unexpected cycles: %v", cyclic)
	}
	pos := map[sheetAddr]int{}
	for i, sa := range order {
		pos[sa] = i
	}
	want := []sheetAddr{{"Sheet1", c1}, {"Sheet1", b1}, {"Sheet1", a1}}
	for _, sa := range want {
		if _, ok := pos[sa]; !ok {
			t.Fatalf("order %v missing %v", order, sa)
		}
	}
	if pos[sheetAddr{"Sheet1", c1}] > pos[sheetAddr{"Sheet1", b1}] {
		t.Errorf("C1 should come before B1 in %v", order)
	}
	if pos[sheetAddr{"Sheet1", b1}] > pos[sheetAddr{"Sheet1", a1}] {
		t.Errorf("B1 should come before A1 in %v", order)
	}
}

// TestCalculationOrderDetectsCycle checks a circular-reference scenario:
// A1=B1, B1=C1, C1=A1.
func TestCalculationOrderDetectsCycle(t *testing.T) {
	g := NewDependencyGraph()
	a1 := ARef{Col: 0, Row: 0}
	b1 := ARef{Col: 1, Row: 0}
	c1 := ARef{Col: 2, Row: 0}

	g.AddFormula("Sheet1", a1, mustParseFor(t, "=B1"))
	g.AddFormula("Sheet1", b1, mustParseFor(t, "=C1"))
	g.AddFormula("Sheet1", c1, mustParseFor(t, "=A1"))

	order, cyclic := g.CalculationOrder()
	if len(order) != 0 {
		t.Errorf("expected no cell in the calculation order, got %v", order)
	}

	wantCycle := []ARef{a1, b1, c1}
	wantCyclic := map[sheetAddr][]ARef{
		{"Sheet1", a1}: wantCycle,
		{"Sheet1", b1}: wantCycle,
		{"Sheet1", c1}: wantCycle,
	}
	sortARefs := cmpopts.SortSlices(func(x, y ARef) bool {
		if x.Col != y.Col {
			return x.Col < y.Col
		}
		return x.Row < y.Row
	})
	if diff := cmp.Diff(wantCyclic, cyclic, sortARefs); diff != "" {
		t.Errorf("cyclic map mismatch (-want +got):\n%s", diff)
	}
}

// TestRecomputeLeavesCyclicCellsUntouched checks that Recompute reports
// CircularRef for every cell in a cycle and does not overwrite their cache.
func TestRecomputeLeavesCyclicCellsUntouched(t *testing.T) {
	wb := NewMemWorkbook()
	sheet := NewMemSheet("Sheet1")
	wb.AddSheet(sheet)

	a1 := ARef{Col: 0, Row: 0}
	b1 := ARef{Col: 1, Row: 0}
	c1 := ARef{Col: 2, Row: 0}
	sheet.Put(a1, FormulaValue("=B1", nil))
	sheet.Put(b1, FormulaValue("=C1", nil))
	sheet.Put(c1, FormulaValue("=A1", nil))

	g := NewDependencyGraph()
	g.AddFormula("Sheet1", a1, mustParseFor(t, "=B1"))
	g.AddFormula("Sheet1", b1, mustParseFor(t, "=C1"))
	g.AddFormula("Sheet1", c1, mustParseFor(t, "=A1"))

	result := Recompute(g, wb, FixedClock{}, nil)
	for _, addr := range []ARef{a1, b1, c1} {
		err, ok := result.Errors[addr]
		if !ok {
			t.Fatalf("expected an error reported for %v", addr)
		}
		evalErr, ok := err.(*EvalError)
		if !ok || evalErr.Kind != EvalCircularRef {
			t.Errorf("expected EvalCircularRef for %v, got %#v", addr, err)
		}
		cached := sheet.Get(addr)
		if cached.Kind != KindFormula || cached.Cached != nil {
			t.Errorf("cyclic cell %v cache should remain nil, got %#v", addr, cached)
		}
	}
}

// TestRecomputeWritesBackSuccess checks a simple non-cyclic recompute.
func TestRecomputeWritesBackSuccess(t *testing.T) {
	wb := NewMemWorkbook()
	sheet := NewMemSheet("Sheet1")
	wb.AddSheet(sheet)

	a1 := ARef{Col: 0, Row: 0} // =1+1
	sheet.Put(a1, FormulaValue("=1+1", nil))

	g := NewDependencyGraph()
	g.AddFormula("Sheet1", a1, mustParseFor(t, "=1+1"))

	result := Recompute(g, wb, FixedClock{}, nil)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	cached := sheet.Get(a1)
	if cached.Cached == nil {
		t.Fatal("expected a cached value after recompute")
	}
	if cached.Cached.String() != "2" {
		t.Errorf("cached value = %q, want %q", cached.Cached.String(), "2")
	}
}
