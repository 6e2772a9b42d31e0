package xlformula

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatchAndIndex(t *testing.T) {
	ctx, _ := newScenarioSheet(t)

	if got := evalFormula(t, ctx, "=MATCH(20, A1:A3, 0)"); got.String() != "2" {
		t.Errorf("MATCH exact = %q, want 2", got.String())
	}
	if got := evalFormula(t, ctx, "=MATCH(25, A1:A3, 1)"); got.String() != "2" {
		t.Errorf("MATCH largest<= = %q, want 2", got.String())
	}
	if got := evalFormula(t, ctx, "=INDEX(A1:A3, 3)"); got.String() != "30" {
		t.Errorf("INDEX = %q, want 30", got.String())
	}
	if got := evalFormula(t, ctx, "=INDEX(A1:A3, 5)"); !got.IsError() || got.Err != ErrREF {
		t.Errorf("INDEX out of bounds = %#v, want #REF!", got)
	}
}

func TestXlookupWildcard(t *testing.T) {
	ctx, _ := newScenarioSheet(t)
	got := evalFormula(t, ctx, `=XLOOKUP("App*", B1:B2, C1:C2, "missing", 2)`)
	if got.String() != "2" {
		t.Errorf("XLOOKUP wildcard = %q, want 2", got.String())
	}
}

func TestVlookupApproximate(t *testing.T) {
	ctx, sheet := newScenarioSheet(t)
	sheet.Put(ARef{Col: 4, Row: 0}, NumberValue(decimal.NewFromInt(10)))
	sheet.Put(ARef{Col: 5, Row: 0}, TextValue("low"))
	sheet.Put(ARef{Col: 4, Row: 1}, NumberValue(decimal.NewFromInt(20)))
	sheet.Put(ARef{Col: 5, Row: 1}, TextValue("mid"))
	sheet.Put(ARef{Col: 4, Row: 2}, NumberValue(decimal.NewFromInt(30)))
	sheet.Put(ARef{Col: 5, Row: 2}, TextValue("high"))

	got := evalFormula(t, ctx, "=VLOOKUP(25, E1:F3, 2, TRUE)")
	if got.String() != "mid" {
		t.Errorf("VLOOKUP approximate = %q, want mid", got.String())
	}
}
