package xlformula

import (
	"fmt"
	"strings"
)

// ParseErrorKind enumerates the closed set of parser failure kinds. All
// but EmptyFormula/FormulaTooLong carry a character (rune) position.
type ParseErrorKind uint8

const (
	ErrUnexpectedChar ParseErrorKind = iota
	ErrUnexpectedEOF
	ErrInvalidCellRef
	ErrInvalidNumber
	ErrUnbalancedDelimiter
	ErrUnknownFunction
	ErrInvalidArguments
	ErrInvalidOperator
	ErrEmptyFormula
	ErrFormulaTooLong
	ErrGenericError
)

// ParseError is a structured parse failure; it carries enough to render a
// "formula\n<spaces>^\nmessage" diagnostic.
type ParseError struct {
	Kind        ParseErrorKind
	Pos         int // rune offset; meaningless for EmptyFormula/FormulaTooLong
	Message     string
	Formula     string   // original source, for diagnostic rendering
	Suggestions []string // populated for ErrUnknownFunction
	Length      int      // populated for ErrFormulaTooLong
	MaxLength   int      // populated for ErrFormulaTooLong
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrEmptyFormula:
		return "empty formula"
	case ErrFormulaTooLong:
		return fmt.Sprintf("formula too long: %d characters (max %d)", e.Length, e.MaxLength)
	default:
		return e.Message
	}
}

// Diagnostic renders the three-line "formula / caret / message" form.
// Returns just the message for position-less kinds.
func (e *ParseError) Diagnostic() string {
	if e.Kind == ErrEmptyFormula || e.Kind == ErrFormulaTooLong {
		return e.Error()
	}
	caret := strings.Repeat(" ", max(0, e.Pos)) + "^"
	return fmt.Sprintf("%s\n%s\n%s", e.Formula, caret, e.Message)
}

func newParseError(kind ParseErrorKind, pos int, formula, message string) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Formula: formula, Message: message}
}

// CodecErrorKind distinguishes the two ways a cell decode can fail.
type CodecErrorKind uint8

const (
	CodecTypeMismatch CodecErrorKind = iota
	CodecParseFailure
)

// CodecError is the decoder-level failure nested inside EvalError.CodecFailed.
type CodecError struct {
	Kind       CodecErrorKind
	Expected   string
	Actual     string
	Value      string // raw textual form, for CodecParseFailure
	TargetType string // for CodecParseFailure
	Detail     string
}

func (c *CodecError) Error() string {
	switch c.Kind {
	case CodecTypeMismatch:
		return fmt.Sprintf("expected %s, got %s", c.Expected, c.Actual)
	case CodecParseFailure:
		return fmt.Sprintf("cannot parse %q as %s: %s", c.Value, c.TargetType, c.Detail)
	default:
		return "codec error"
	}
}

func codecTypeMismatch(expected, actual string) *CodecError {
	return &CodecError{Kind: CodecTypeMismatch, Expected: expected, Actual: actual}
}

func codecParseFailure(value, targetType, detail string) *CodecError {
	return &CodecError{Kind: CodecParseFailure, Value: value, TargetType: targetType, Detail: detail}
}

// EvalErrorKind enumerates the closed set of evaluation failure kinds.
type EvalErrorKind uint8

const (
	EvalRefError EvalErrorKind = iota
	EvalCodecFailed
	EvalDivByZero
	EvalCircularRef
	EvalTypeMismatch
	EvalFailed
)

// EvalError is a structured evaluation failure.
type EvalError struct {
	Kind EvalErrorKind

	// RefError / CodecFailed
	Addr   ARef
	Reason string
	Codec  *CodecError

	// DivByZero
	NumExprText, DenomExprText string

	// CircularRef
	Cycle []ARef

	// TypeMismatch
	Op, Expected, Actual string

	// EvalFailed
	Context string
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case EvalRefError:
		return fmt.Sprintf("#REF! at %s: %s", e.Addr, e.Reason)
	case EvalCodecFailed:
		return fmt.Sprintf("#VALUE! at %s: %s", e.Addr, e.Codec.Error())
	case EvalDivByZero:
		return fmt.Sprintf("#DIV/0!: %s / %s", e.NumExprText, e.DenomExprText)
	case EvalCircularRef:
		return fmt.Sprintf("#REF! circular reference: %s", cycleText(e.Cycle))
	case EvalTypeMismatch:
		return fmt.Sprintf("#VALUE! %s expected %s, got %s", e.Op, e.Expected, e.Actual)
	case EvalFailed:
		if e.Context != "" {
			return fmt.Sprintf("%s (%s)", e.Reason, e.Context)
		}
		return e.Reason
	default:
		return "evaluation error"
	}
}

// CellErrorKind maps this EvalError to the closed Excel-style error kind
// a caller would display in a cell.
func (e *EvalError) CellErrorKind() ErrorKind {
	switch e.Kind {
	case EvalRefError, EvalCircularRef:
		return ErrREF
	case EvalCodecFailed, EvalTypeMismatch:
		return ErrVALUE
	case EvalDivByZero:
		return ErrDIV0
	case EvalFailed:
		return ErrVALUE
	default:
		return ErrNA
	}
}

func cycleText(cycle []ARef) string {
	parts := make([]string, len(cycle))
	for i, a := range cycle {
		parts[i] = a.String()
	}
	return strings.Join(parts, " -> ")
}

func refError(addr ARef, reason string) *EvalError {
	return &EvalError{Kind: EvalRefError, Addr: addr, Reason: reason}
}

func codecFailed(addr ARef, codec *CodecError) *EvalError {
	return &EvalError{Kind: EvalCodecFailed, Addr: addr, Codec: codec}
}

func divByZero(numText, denomText string) *EvalError {
	return &EvalError{Kind: EvalDivByZero, NumExprText: numText, DenomExprText: denomText}
}

func circularRef(cycle []ARef) *EvalError {
	return &EvalError{Kind: EvalCircularRef, Cycle: cycle}
}

func typeMismatch(op, expected, actual string) *EvalError {
	return &EvalError{Kind: EvalTypeMismatch, Op: op, Expected: expected, Actual: actual}
}

func evalFailed(reason, context string) *EvalError {
	return &EvalError{Kind: EvalFailed, Reason: reason, Context: context}
}

// EngineErrorCode tags programmer-misuse conditions, as distinct from the
// data-driven parse/eval taxonomies above.
type EngineErrorCode uint8

const (
	EngineDuplicateRegistration EngineErrorCode = iota
	EngineNilSheet
	EngineNilWorkbook
)

// EngineError reports a misconfigured engine: a duplicate function
// registration, or an evaluation context missing its sheet/workbook.
type EngineError struct {
	Code    EngineErrorCode
	Message string
}

func (e *EngineError) Error() string { return e.Message }

func engineError(code EngineErrorCode, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// XLError is the shared human-facing error surfaced to callers, formatted
// inline with the originating reference when known.
type XLError struct {
	Message     string
	FormulaText string
	Addr        *ARef
}

func (x *XLError) Error() string {
	if x.Addr != nil && x.FormulaText != "" {
		return fmt.Sprintf("%s: %s (formula: %s)", x.Addr, x.Message, x.FormulaText)
	}
	if x.FormulaText != "" {
		return fmt.Sprintf("%s (formula: %s)", x.Message, x.FormulaText)
	}
	return x.Message
}

// ToXLError converts a ParseError into the shared display error.
func (e *ParseError) ToXLError() *XLError {
	return &XLError{Message: e.Error(), FormulaText: e.Formula}
}

// ToXLError converts an EvalError into the shared display error, optionally
// annotated with the cell address and formula text it occurred at.
func (e *EvalError) ToXLError(formulaText string, addr *ARef) *XLError {
	return &XLError{Message: e.Error(), FormulaText: formulaText, Addr: addr}
}
