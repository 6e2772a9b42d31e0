package xlformula

import (
	"strings"
	"testing"
)

// TestParseErrorDiagnostic checks the three-line formula/caret/message
// rendering points at the offending character.
func TestParseErrorDiagnostic(t *testing.T) {
	_, err := Parse("=1+2 @ 3")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	lines := strings.Split(perr.Diagnostic(), "\n")
	if len(lines) != 3 {
		t.Fatalf("Diagnostic() = %q, want 3 lines", perr.Diagnostic())
	}
	if lines[0] != "=1+2 @ 3" {
		t.Errorf("first diagnostic line = %q, want the formula", lines[0])
	}
	caretAt := strings.Index(lines[1], "^")
	if caretAt != strings.Index(lines[0], "@") {
		t.Errorf("caret at column %d, want under the '@' (column %d)", caretAt, strings.Index(lines[0], "@"))
	}
}

func TestParseErrorPositionlessKinds(t *testing.T) {
	_, err := Parse("=")
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrEmptyFormula {
		t.Fatalf("Parse(\"=\") = %#v, want EmptyFormula", err)
	}
	if strings.Contains(perr.Diagnostic(), "^") {
		t.Errorf("EmptyFormula diagnostic should not render a caret: %q", perr.Diagnostic())
	}

	long := "=" + strings.Repeat("1+", maxFormulaLength/2) + "1"
	_, err = Parse(long)
	perr, ok = err.(*ParseError)
	if !ok || perr.Kind != ErrFormulaTooLong {
		t.Fatalf("oversized formula error = %#v, want FormulaTooLong", err)
	}
	if perr.MaxLength != maxFormulaLength {
		t.Errorf("MaxLength = %d, want %d", perr.MaxLength, maxFormulaLength)
	}
}

func TestReservedOperatorsReportNotSupported(t *testing.T) {
	for _, formula := range []string{`="a" & "b"`, "=2^2"} {
		_, err := Parse(formula)
		perr, ok := err.(*ParseError)
		if !ok || perr.Kind != ErrInvalidOperator {
			t.Fatalf("Parse(%q) = %#v, want ErrInvalidOperator", formula, err)
		}
		if !strings.Contains(perr.Error(), "not yet supported") {
			t.Errorf("Parse(%q) message = %q, want a 'not yet supported' diagnostic", formula, perr.Error())
		}
	}
}

func TestEvalErrorCellErrorKinds(t *testing.T) {
	cases := []struct {
		err  *EvalError
		want ErrorKind
	}{
		{divByZero("1", "0"), ErrDIV0},
		{refError(ARef{}, "missing"), ErrREF},
		{circularRef([]ARef{{}}), ErrREF},
		{typeMismatch("op", "numeric", "text"), ErrVALUE},
		{codecFailed(ARef{}, codecTypeMismatch("numeric", "text")), ErrVALUE},
	}
	for _, c := range cases {
		if got := c.err.CellErrorKind(); got != c.want {
			t.Errorf("CellErrorKind(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestToXLErrorIncludesFormulaAndAddress(t *testing.T) {
	addr := ARef{Col: 0, Row: 0}
	x := divByZero("1", "0").ToXLError("=1/0", &addr)
	msg := x.Error()
	if !strings.Contains(msg, "A1") || !strings.Contains(msg, "=1/0") {
		t.Errorf("XLError = %q, want it to mention A1 and the formula text", msg)
	}
}

func TestEngineErrorOnMissingContext(t *testing.T) {
	expr, err := Parse("=A1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = expr.Eval(&EvalCtx{Clock: FixedClock{}})
	engErr, ok := err.(*EngineError)
	if !ok || engErr.Code != EngineNilSheet {
		t.Fatalf("expected EngineNilSheet, got %#v", err)
	}
}
