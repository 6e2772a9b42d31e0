package xlformula

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecodeNumeric(t *testing.T) {
	ten := NumberValue(decimal.NewFromInt(10))

	if d, err := decodeNumeric(ten); err != nil || !d.Equal(decimal.NewFromInt(10)) {
		t.Errorf("decodeNumeric(10) = (%v, %v)", d, err)
	}
	if d, err := decodeNumeric(BoolValue(true)); err != nil || !d.Equal(decimalOne()) {
		t.Errorf("decodeNumeric(TRUE) = (%v, %v), want 1", d, err)
	}
	if d, err := decodeNumeric(BoolValue(false)); err != nil || !d.IsZero() {
		t.Errorf("decodeNumeric(FALSE) = (%v, %v), want 0", d, err)
	}
	if d, err := decodeNumeric(FormulaValue("=A1", &ten)); err != nil || !d.Equal(decimal.NewFromInt(10)) {
		t.Errorf("decodeNumeric(cached formula) = (%v, %v), want 10", d, err)
	}
	if _, err := decodeNumeric(TextValue("x")); err == nil {
		t.Error("decodeNumeric(text) should fail")
	}
	if _, err := decodeNumeric(FormulaValue("=A1", nil)); err == nil {
		t.Error("decodeNumeric(uncached formula) should fail")
	}
}

func TestDecodeStringCoercive(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Empty(), ""},
		{NumberValue(decimal.NewFromFloat(1.5)), "1.5"},
		{BoolValue(true), "TRUE"},
		{BoolValue(false), "FALSE"},
		{FormulaValue("=A1+1", nil), "=A1+1"},
		{RichTextValue(RichText{{Text: "bold ", Bold: true}, {Text: "plain"}}), "bold plain"},
	}
	for _, c := range cases {
		got, err := decodeStringCoercive(c.v)
		if err != nil {
			t.Fatalf("decodeStringCoercive(%v): %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("decodeStringCoercive(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestDecodeInt(t *testing.T) {
	if n, err := decodeInt(NumberValue(decimal.NewFromInt(42))); err != nil || n != 42 {
		t.Errorf("decodeInt(42) = (%d, %v)", n, err)
	}
	if _, err := decodeInt(NumberValue(decimal.NewFromFloat(1.5))); err == nil {
		t.Error("decodeInt(1.5) should fail")
	}
	if _, err := decodeInt(NumberValue(decimal.New(1, 11))); err == nil {
		t.Error("decodeInt(1e11) should fail: outside int32")
	}
	if n, err := decodeInt(BoolValue(true)); err != nil || n != 1 {
		t.Errorf("decodeInt(TRUE) = (%d, %v), want 1", n, err)
	}
}

func TestDecodeResolvedValue(t *testing.T) {
	ten := NumberValue(decimal.NewFromInt(10))

	if v, _ := decodeResolvedValue(FormulaValue("=A1", &ten)); !v.Number.Equal(decimal.NewFromInt(10)) {
		t.Errorf("resolved cached formula = %v, want 10", v)
	}
	if v, _ := decodeResolvedValue(FormulaValue("=A1", nil)); v.Kind != KindNumber || !v.Number.IsZero() {
		t.Errorf("resolved uncached formula = %v, want 0", v)
	}
	if v, _ := decodeResolvedValue(Empty()); v.Kind != KindNumber || !v.Number.IsZero() {
		t.Errorf("resolved empty = %v, want 0", v)
	}
	if v, _ := decodeResolvedValue(RichTextValue(RichText{{Text: "hi"}})); v.Kind != KindText || v.Text != "hi" {
		t.Errorf("resolved rich text = %v, want plain text", v)
	}
}

func TestDecodeDate(t *testing.T) {
	when := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if got, err := decodeDate(DateTimeValue(when)); err != nil || !got.Equal(when) {
		t.Errorf("decodeDate(datetime) = (%v, %v)", got, err)
	}
	if _, err := decodeDate(TextValue("2026-03-15")); err == nil {
		t.Error("decodeDate(text) should fail: dates are not parsed from text")
	}
}

// TestSerialDateRoundTrip pins the Excel-style serial origin.
func TestSerialDateRoundTrip(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	serial := dateSerial(day)
	back := serialToDate(serial)
	if !back.Equal(day) {
		t.Errorf("serial round-trip: %v -> %v -> %v", day, serial, back)
	}
	// 1900-01-01 is serial 2 under the 1899-12-30 epoch.
	if s := dateSerial(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)); s.IntPart() != 2 {
		t.Errorf("dateSerial(1900-01-01) = %v, want 2", s)
	}
}
