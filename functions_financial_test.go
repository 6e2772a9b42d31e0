package xlformula

import (
	"testing"

	"github.com/shopspring/decimal"
)

func financeCtx(t *testing.T) *EvalCtx {
	t.Helper()
	sheet := NewMemSheet("Sheet1")
	wb := NewMemWorkbook()
	wb.AddSheet(sheet)
	return &EvalCtx{Sheet: sheet, Workbook: wb, Clock: FixedClock{}}
}

func TestPmtFvPvRoundTrip(t *testing.T) {
	ctx := financeCtx(t)

	// A $1000 loan at 1%/period over 12 periods: the payment that amortizes
	// it to exactly 0 should, fed back through PV, reproduce 1000.
	pmt := evalFormula(t, ctx, "=PMT(0.01,12,1000)")
	pmtNum, codecErr := decodeNumeric(pmt)
	if codecErr != nil {
		t.Fatalf("PMT result not numeric: %v", codecErr)
	}

	pvFormula := "=PV(0.01,12," + pmtNum.String() + ")"
	pv := evalFormula(t, ctx, pvFormula)
	pvNum, codecErr := decodeNumeric(pv)
	if codecErr != nil {
		t.Fatalf("PV result not numeric: %v", codecErr)
	}
	if pvNum.Sub(decimal.NewFromInt(1000)).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		t.Errorf("PV(0.01,12,PMT(0.01,12,1000)) = %s, want approximately 1000", pvNum)
	}
}

// TestRateHonorsIterationOptions checks that the Newton iteration cap is
// read from EngineOptions: a one-iteration budget cannot converge on a
// problem the default budget solves.
func TestRateHonorsIterationOptions(t *testing.T) {
	ctx := financeCtx(t)
	ctx.Options = NewEngineOptions(WithMaxIterations(1), WithConvergenceTolerance(1e-12))

	expr, err := Parse("=RATE(10,-150,1000)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := expr.Eval(ctx); err == nil {
		t.Fatal("expected RATE to fail with a one-iteration budget")
	}

	ctx.Options = nil
	if _, err := expr.Eval(ctx); err != nil {
		t.Fatalf("RATE with default options failed: %v", err)
	}
}

func TestIrrFindsBreakEvenRate(t *testing.T) {
	ctx := financeCtx(t)
	sheet, _ := ctx.Sheet.(*MemSheet)
	// -1000 then 1100 one period later: IRR is exactly 10%.
	sheet.Put(ARef{Col: 0, Row: 0}, NumberValue(decimal.NewFromInt(-1000)))
	sheet.Put(ARef{Col: 0, Row: 1}, NumberValue(decimal.NewFromInt(1100)))

	got := evalFormula(t, ctx, "=IRR(A1:A2)")
	num, codecErr := decodeNumeric(got)
	if codecErr != nil {
		t.Fatalf("IRR result not numeric: %v", codecErr)
	}
	if num.Sub(decimal.NewFromFloat(0.1)).Abs().GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("IRR = %s, want approximately 0.1", num)
	}
}

func TestNpvZeroRateSumsFlows(t *testing.T) {
	ctx := financeCtx(t)
	sheet, _ := ctx.Sheet.(*MemSheet)
	sheet.Put(ARef{Col: 0, Row: 0}, NumberValue(decimal.NewFromInt(100)))
	sheet.Put(ARef{Col: 0, Row: 1}, NumberValue(decimal.NewFromInt(200)))
	sheet.Put(ARef{Col: 0, Row: 2}, NumberValue(decimal.NewFromInt(300)))

	got := evalFormula(t, ctx, "=NPV(0, A1:A3)")
	num, codecErr := decodeNumeric(got)
	if codecErr != nil {
		t.Fatalf("NPV result not numeric: %v", codecErr)
	}
	if !num.Equal(decimal.NewFromInt(600)) {
		t.Errorf("NPV(0, A1:A3) = %s, want 600", num)
	}
}
