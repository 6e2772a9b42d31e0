package xlformula

import (
	"testing"
	"time"
)

func dateCtx(t *testing.T) *EvalCtx {
	t.Helper()
	sheet := NewMemSheet("Sheet1")
	wb := NewMemWorkbook()
	wb.AddSheet(sheet)
	return &EvalCtx{Sheet: sheet, Workbook: wb, Clock: FixedClock{At: time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)}}
}

func TestDateArithmetic(t *testing.T) {
	ctx := dateCtx(t)

	cases := []struct {
		formula string
		want    string
	}{
		{"=YEAR(DATE(2024,3,15))", "2024"},
		{"=MONTH(DATE(2024,3,15))", "3"},
		{"=DAY(DATE(2024,3,15))", "15"},
		{"=YEAR(EDATE(DATE(2024,1,31),1))", "2024"},
		{"=MONTH(EDATE(DATE(2024,1,31),1))", "2"},
		{"=DAY(EOMONTH(DATE(2024,2,1),0))", "29"}, // leap year
		{"=DATEDIF(DATE(2020,1,1), DATE(2024,1,1), \"Y\")", "4"},
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

func TestWorkdayCalendar(t *testing.T) {
	ctx := dateCtx(t)

	cases := []struct {
		formula string
		want    string
	}{
		// 2026-07-27 is a Monday.
		{"=NETWORKDAYS(DATE(2026,7,27), DATE(2026,7,31))", "5"},
		{"=NETWORKDAYS(DATE(2026,7,27), DATE(2026,8,2))", "5"}, // weekend excluded
		{"=DAY(WORKDAY(DATE(2026,7,31), 1))", "3"},             // Friday + 1 workday = Monday Aug 3
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

func TestYearfracBases(t *testing.T) {
	ctx := dateCtx(t)

	// A whole ordinary year is 1.0 in every basis.
	for _, formula := range []string{
		"=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1), 0)",
		"=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1), 1)",
		"=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1), 3)",
		"=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1), 4)",
	} {
		got := evalFormula(t, ctx, formula)
		num, codecErr := decodeNumeric(got)
		if codecErr != nil {
			t.Fatalf("%s result not numeric: %v", formula, codecErr)
		}
		f, _ := num.Float64()
		if f < 0.999 || f > 1.001 {
			t.Errorf("Eval(%q) = %v, want 1.0", formula, f)
		}
	}

	// actual/360 stretches a 365-day year past 1.
	got := evalFormula(t, ctx, "=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1), 2)")
	num, _ := decodeNumeric(got)
	f, _ := num.Float64()
	if f < 1.012 || f > 1.015 {
		t.Errorf("basis 2 = %v, want 365/360", f)
	}
}

// TestYearfracDefaultBasisOption checks the implicit basis comes from
// EngineOptions.
func TestYearfracDefaultBasisOption(t *testing.T) {
	ctx := dateCtx(t)
	ctx.Options = NewEngineOptions(WithDefaultDayCountBasis(2))

	got := evalFormula(t, ctx, "=YEARFRAC(DATE(2025,1,1), DATE(2026,1,1))")
	num, _ := decodeNumeric(got)
	f, _ := num.Float64()
	if f < 1.012 || f > 1.015 {
		t.Errorf("default-basis override = %v, want the actual/360 result", f)
	}
}

func TestTodayIsVolatileAndNormalized(t *testing.T) {
	ctx := dateCtx(t)
	got := evalFormula(t, ctx, "=TODAY()")
	if got.Kind != KindDateTime {
		t.Fatalf("TODAY() returned kind %v, want KindDateTime", got.Kind)
	}
	if spec, ok := LookupFunction("TODAY"); !ok || !spec.Flags.Volatile {
		t.Errorf("TODAY is not registered as volatile")
	}
	if got.DateTime.Hour() != 0 || got.DateTime.Minute() != 0 {
		t.Errorf("TODAY() = %v, want midnight", got.DateTime)
	}
}
