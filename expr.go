package xlformula

import (
	"time"

	"github.com/shopspring/decimal"
)

// NodePosition is a half-open byte-offset span in the original formula
// source; every AST node carries one so parse/eval errors can point back
// into the text.
type NodePosition struct {
	Start int
	End   int
}

// EvalCtx is the read-only view an Expr evaluates against: the current
// sheet, the workbook (for cross-sheet references), and the clock (for
// volatile functions).
type EvalCtx struct {
	Sheet    Sheet
	Workbook Workbook
	Clock    Clock
	Options  *EngineOptions // nil means package defaults
}

// options returns the context's engine options, falling back to the
// package defaults when none were supplied.
func (ctx *EvalCtx) options() EngineOptions {
	if ctx.Options != nil {
		return *ctx.Options
	}
	return *NewEngineOptions()
}

// resolveSheet returns the sheet named by name, or the context's own sheet
// for the local ("") name.
func (ctx *EvalCtx) resolveSheet(name string) (Sheet, error) {
	if name == "" {
		if ctx.Sheet == nil {
			return nil, engineError(EngineNilSheet, "no sheet in evaluation context")
		}
		return ctx.Sheet, nil
	}
	if ctx.Workbook == nil {
		return nil, engineError(EngineNilWorkbook, "no workbook in evaluation context")
	}
	s, ok := ctx.Workbook.SheetByName(name)
	if !ok {
		return nil, evalFailed("sheet not found", name)
	}
	return s, nil
}

// Expr is a typed expression node: the result type A is fixed at
// construction for every variant except PolyExpr, the transient untyped
// reference the parser emits before coercion pins down its target type.
type Expr[A any] interface {
	Eval(ctx *EvalCtx) (A, error)
	Position() NodePosition
	String() string
}

// Decoder decodes a raw cell Value into a typed result, or fails with a
// CodecError.
type Decoder[A any] func(Value) (A, *CodecError)

// --- Lit -------------------------------------------------------------

// Lit is a constant of any result type.
type Lit[A any] struct {
	Value A
	Pos   NodePosition
	Print func(A) string
}

func (n *Lit[A]) Eval(*EvalCtx) (A, error) { return n.Value, nil }
func (n *Lit[A]) Position() NodePosition   { return n.Pos }
func (n *Lit[A]) String() string {
	if n.Print != nil {
		return n.Print(n.Value)
	}
	return ""
}

// --- PolyExpr (transient, untyped references) -------------------------

// PolyExpr is the untyped reference the parser emits for every bare cell
// reference (ranges are PolyRange) before a coercion constructor (coerce.go) attaches a
// decoder and pins down the result type. It never appears in an evaluated
// tree.
type PolyExpr interface {
	Position() NodePosition
	String() string
	polyAddr() (sheet string, addr ARef, anchor Anchor)
}

// PolyRef is a bare local-sheet reference (`A1`).
type PolyRef struct {
	Addr   ARef
	Anchor Anchor
	Pos    NodePosition
}

func (p *PolyRef) Position() NodePosition { return p.Pos }
func (p *PolyRef) String() string         { return p.Addr.StringAnchored(p.Anchor) }
func (p *PolyRef) polyAddr() (string, ARef, Anchor) { return "", p.Addr, p.Anchor }

// SheetPolyRef is a sheet-qualified reference (`Sheet!A1`).
type SheetPolyRef struct {
	Sheet  string
	Addr   ARef
	Anchor Anchor
	Pos    NodePosition
}

func (p *SheetPolyRef) Position() NodePosition { return p.Pos }
func (p *SheetPolyRef) String() string {
	return quoteSheetIfNeeded(p.Sheet) + "!" + p.Addr.StringAnchored(p.Anchor)
}
func (p *SheetPolyRef) polyAddr() (string, ARef, Anchor) { return p.Sheet, p.Addr, p.Anchor }

// PolyRange is the untyped form of a parsed `A1:B2` / `Sheet!A1:B2` range.
// As a function argument it is passed on undestructured as a range
// ArgSource; anywhere else it becomes a FoldRange/SheetFoldRange with the
// default SUM zero/step.
type PolyRange struct {
	Sheet string // "" means local
	Range CellRange
	Pos   NodePosition
}

func (p *PolyRange) Position() NodePosition { return p.Pos }
func (p *PolyRange) String() string {
	return RangeLocation{Sheet: p.Sheet, Range: p.Range}.String()
}

// --- Ref / SheetRef ----------------------------------------------------

// Ref is a local-sheet reference carrying a decoder from cell value to A.
type Ref[A any] struct {
	Addr       ARef
	Anchor     Anchor
	Decode     Decoder[A]
	DecodeName string // e.g. "numeric", for RefError messages
	Pos        NodePosition
}

func (n *Ref[A]) Eval(ctx *EvalCtx) (A, error) {
	var zero A
	sheet, err := ctx.resolveSheet("")
	if err != nil {
		return zero, err
	}
	v := sheet.Get(n.Addr)
	result, codecErr := n.Decode(v)
	if codecErr != nil {
		return zero, codecFailed(n.Addr, codecErr)
	}
	return result, nil
}

func (n *Ref[A]) Position() NodePosition { return n.Pos }
func (n *Ref[A]) String() string         { return n.Addr.StringAnchored(n.Anchor) }

// SheetRef is a cross-sheet reference carrying a decoder.
type SheetRef[A any] struct {
	Sheet      string
	Addr       ARef
	Anchor     Anchor
	Decode     Decoder[A]
	DecodeName string
	Pos        NodePosition
}

func (n *SheetRef[A]) Eval(ctx *EvalCtx) (A, error) {
	var zero A
	sheet, err := ctx.resolveSheet(n.Sheet)
	if err != nil {
		return zero, err
	}
	v := sheet.Get(n.Addr)
	result, codecErr := n.Decode(v)
	if codecErr != nil {
		return zero, codecFailed(n.Addr, codecErr)
	}
	return result, nil
}

func (n *SheetRef[A]) Position() NodePosition { return n.Pos }
func (n *SheetRef[A]) String() string {
	return quoteSheetIfNeeded(n.Sheet) + "!" + n.Addr.StringAnchored(n.Anchor)
}

// --- If ------------------------------------------------------------

// If evaluates Cond, then only the selected branch.
type If[A any] struct {
	Cond Expr[bool]
	Then Expr[A]
	Else Expr[A]
	Pos  NodePosition
}

func (n *If[A]) Eval(ctx *EvalCtx) (A, error) {
	var zero A
	cond, err := n.Cond.Eval(ctx)
	if err != nil {
		return zero, err
	}
	if cond {
		return n.Then.Eval(ctx)
	}
	return n.Else.Eval(ctx)
}

func (n *If[A]) Position() NodePosition { return n.Pos }
func (n *If[A]) String() string {
	return "IF(" + n.Cond.String() + ", " + n.Then.String() + ", " + n.Else.String() + ")"
}

// --- Arithmetic ------------------------------------------------------

type binaryNumeric struct {
	op          string
	left, right Expr[Decimal]
	pos         NodePosition
}

func (n *binaryNumeric) Position() NodePosition { return n.pos }
func (n *binaryNumeric) String() string {
	return n.left.String() + " " + n.op + " " + n.right.String()
}

// Add constructs a + node.
func Add(left, right Expr[Decimal], pos NodePosition) Expr[Decimal] {
	return &addNode{binaryNumeric{"+", left, right, pos}}
}

// Sub constructs a - node.
func Sub(left, right Expr[Decimal], pos NodePosition) Expr[Decimal] {
	return &subNode{binaryNumeric{"-", left, right, pos}}
}

// Mul constructs a * node.
func Mul(left, right Expr[Decimal], pos NodePosition) Expr[Decimal] {
	return &mulNode{binaryNumeric{"*", left, right, pos}}
}

// Div constructs a / node; DivByZero is detected at evaluation time.
func Div(left, right Expr[Decimal], pos NodePosition) Expr[Decimal] {
	return &divNode{binaryNumeric{"/", left, right, pos}}
}

type addNode struct{ binaryNumeric }
type subNode struct{ binaryNumeric }
type mulNode struct{ binaryNumeric }
type divNode struct{ binaryNumeric }

func (n *addNode) Eval(ctx *EvalCtx) (Decimal, error) {
	l, r, err := evalNumericPair(ctx, n.left, n.right)
	if err != nil {
		return Decimal{}, err
	}
	return l.Add(r), nil
}

func (n *subNode) Eval(ctx *EvalCtx) (Decimal, error) {
	l, r, err := evalNumericPair(ctx, n.left, n.right)
	if err != nil {
		return Decimal{}, err
	}
	return l.Sub(r), nil
}

func (n *mulNode) Eval(ctx *EvalCtx) (Decimal, error) {
	l, r, err := evalNumericPair(ctx, n.left, n.right)
	if err != nil {
		return Decimal{}, err
	}
	return l.Mul(r), nil
}

func (n *divNode) Eval(ctx *EvalCtx) (Decimal, error) {
	l, r, err := evalNumericPair(ctx, n.left, n.right)
	if err != nil {
		return Decimal{}, err
	}
	if isExactZero(r) {
		return Decimal{}, divByZero(n.left.String(), n.right.String())
	}
	return l.Div(r), nil
}

func evalNumericPair(ctx *EvalCtx, left, right Expr[Decimal]) (Decimal, Decimal, error) {
	l, err := left.Eval(ctx)
	if err != nil {
		return Decimal{}, Decimal{}, err
	}
	r, err := right.Eval(ctx)
	if err != nil {
		return Decimal{}, Decimal{}, err
	}
	return l, r, nil
}

// --- Logical ---------------------------------------------------------

// And short-circuits: Right is never evaluated once Left is false.
type And struct {
	Left, Right Expr[bool]
	Pos         NodePosition
}

func (n *And) Eval(ctx *EvalCtx) (bool, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil || !l {
		return false, err
	}
	return n.Right.Eval(ctx)
}
func (n *And) Position() NodePosition { return n.Pos }
func (n *And) String() string         { return n.Left.String() + " AND " + n.Right.String() }

// Or short-circuits: Right is never evaluated once Left is true.
type Or struct {
	Left, Right Expr[bool]
	Pos         NodePosition
}

func (n *Or) Eval(ctx *EvalCtx) (bool, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil || l {
		return true, err
	}
	return n.Right.Eval(ctx)
}
func (n *Or) Position() NodePosition { return n.Pos }
func (n *Or) String() string         { return n.Left.String() + " OR " + n.Right.String() }

// Not inverts a boolean.
type Not struct {
	Operand Expr[bool]
	Pos     NodePosition
}

func (n *Not) Eval(ctx *EvalCtx) (bool, error) {
	v, err := n.Operand.Eval(ctx)
	return !v, err
}
func (n *Not) Position() NodePosition { return n.Pos }
func (n *Not) String() string         { return "NOT(" + n.Operand.String() + ")" }

// --- Comparisons -------------------------------------------------------

// Eq/Neq compare two Values structurally after coercion-to-common;
// Lt/Lte/Gt/Gte require numeric decode on both sides.
type Eq struct {
	Left, Right Expr[Value]
	Pos         NodePosition
}

func (n *Eq) Eval(ctx *EvalCtx) (bool, error) {
	l, r, err := evalValuePair(ctx, n.Left, n.Right)
	if err != nil {
		return false, err
	}
	return compareValues(l, r) == 0, nil
}
func (n *Eq) Position() NodePosition { return n.Pos }
func (n *Eq) String() string         { return n.Left.String() + " = " + n.Right.String() }

type Neq struct {
	Left, Right Expr[Value]
	Pos         NodePosition
}

func (n *Neq) Eval(ctx *EvalCtx) (bool, error) {
	l, r, err := evalValuePair(ctx, n.Left, n.Right)
	if err != nil {
		return false, err
	}
	return compareValues(l, r) != 0, nil
}
func (n *Neq) Position() NodePosition { return n.Pos }
func (n *Neq) String() string         { return n.Left.String() + " <> " + n.Right.String() }

func evalValuePair(ctx *EvalCtx, left, right Expr[Value]) (Value, Value, error) {
	l, err := left.Eval(ctx)
	if err != nil {
		return Value{}, Value{}, err
	}
	r, err := right.Eval(ctx)
	if err != nil {
		return Value{}, Value{}, err
	}
	return l, r, nil
}

type numericComparison struct {
	op          string
	left, right Expr[Decimal]
	pos         NodePosition
	cmp         func(l, r Decimal) bool
}

func (n *numericComparison) Eval(ctx *EvalCtx) (bool, error) {
	l, r, err := evalNumericPair(ctx, n.left, n.right)
	if err != nil {
		return false, err
	}
	return n.cmp(l, r), nil
}
func (n *numericComparison) Position() NodePosition { return n.pos }
func (n *numericComparison) String() string {
	return n.left.String() + " " + n.op + " " + n.right.String()
}

func Lt(left, right Expr[Decimal], pos NodePosition) Expr[bool] {
	return &numericComparison{"<", left, right, pos, func(l, r Decimal) bool { return l.LessThan(r) }}
}

func Lte(left, right Expr[Decimal], pos NodePosition) Expr[bool] {
	return &numericComparison{"<=", left, right, pos, func(l, r Decimal) bool { return l.LessThanOrEqual(r) }}
}

func Gt(left, right Expr[Decimal], pos NodePosition) Expr[bool] {
	return &numericComparison{">", left, right, pos, func(l, r Decimal) bool { return l.GreaterThan(r) }}
}

func Gte(left, right Expr[Decimal], pos NodePosition) Expr[bool] {
	return &numericComparison{">=", left, right, pos, func(l, r Decimal) bool { return l.GreaterThanOrEqual(r) }}
}

// compareValues orders two cell Values: numbers and bools compare
// numerically, everything else falls back to text comparison. Returns
// -1, 0, or 1.
func compareValues(l, r Value) int {
	ln, lok := valueAsComparableNumber(l)
	rn, rok := valueAsComparableNumber(r)
	if lok && rok {
		return ln.Cmp(rn)
	}
	ls, rs := l.String(), r.String()
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	default:
		return 0
	}
}

func valueAsComparableNumber(v Value) (Decimal, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return decimalOne(), true
		}
		return decimalZero(), true
	default:
		return Decimal{}, false
	}
}

// --- FoldRange / SheetFoldRange -----------------------------------------

// FoldRange is a generalized per-cell aggregation over a local range.
type FoldRange[A any] struct {
	Range  CellRange
	Zero   A
	Step   func(acc A, cell Value, decoded bool) A
	Decode Decoder[Value] // identity by default; aggregations decode further inside Step
	Strict bool            // strict: an error-valued cell aborts the fold; lenient: every cell goes to Step
	Pos    NodePosition
}

func (n *FoldRange[A]) Eval(ctx *EvalCtx) (A, error) {
	sheet, err := ctx.resolveSheet("")
	if err != nil {
		return n.Zero, err
	}
	return foldCells(sheet, n.Range.Cells(), n.Zero, n.Step, n.Strict)
}

func (n *FoldRange[A]) Position() NodePosition { return n.Pos }
func (n *FoldRange[A]) String() string         { return n.Range.String() }

// SheetFoldRange is FoldRange over a (possibly cross-sheet) range.
type SheetFoldRange[A any] struct {
	Sheet  string
	Range  CellRange
	Zero   A
	Step   func(acc A, cell Value, decoded bool) A
	Strict bool
	Pos    NodePosition
}

func (n *SheetFoldRange[A]) Eval(ctx *EvalCtx) (A, error) {
	sheet, err := ctx.resolveSheet(n.Sheet)
	if err != nil {
		return n.Zero, err
	}
	return foldCells(sheet, n.Range.Cells(), n.Zero, n.Step, n.Strict)
}

func (n *SheetFoldRange[A]) Position() NodePosition { return n.Pos }
func (n *SheetFoldRange[A]) String() string {
	return RangeLocation{Sheet: n.Sheet, Range: n.Range}.String()
}

func foldCells[A any](sheet Sheet, cells []ARef, zero A, step func(A, Value, bool) A, strict bool) (A, error) {
	acc := zero
	for _, addr := range cells {
		v := sheet.Get(addr)
		if strict && v.IsError() {
			return zero, refError(addr, v.Err.String())
		}
		acc = step(acc, v, true)
	}
	return acc, nil
}

// --- Call ----------------------------------------------------------

// ArgSource is one positional Call argument: either a plain scalar
// expression or a (possibly cross-sheet) range, carried undestructured so
// each FunctionSpec's evaluator can choose how to flatten it — a single
// sum, an element-wise criteria match, a whole table for VLOOKUP, etc.
type ArgSource struct {
	Scalar Expr[Value] // non-nil for a plain scalar argument
	Sheet  string       // meaningful only when Range != nil
	Range  *CellRange   // non-nil for a range argument
	Pos    NodePosition
}

// IsRange reports whether this argument was written as a range.
func (a ArgSource) IsRange() bool { return a.Range != nil }

// Values flattens the argument into its constituent cell Values in
// row-major order: one element for a scalar, Width*Height for a range.
func (a ArgSource) Values(ctx *EvalCtx) ([]Value, error) {
	if a.Range == nil {
		v, err := a.Scalar.Eval(ctx)
		if err != nil {
			return nil, err
		}
		return []Value{v}, nil
	}
	sheet, err := ctx.resolveSheet(a.Sheet)
	if err != nil {
		return nil, err
	}
	cells := a.Range.Cells()
	out := make([]Value, len(cells))
	for i, addr := range cells {
		out[i] = sheet.Get(addr)
	}
	return out, nil
}

// Value flattens a scalar argument to its single Value; callers must
// check IsRange first.
func (a ArgSource) Value(ctx *EvalCtx) (Value, error) {
	return a.Scalar.Eval(ctx)
}

// Grid returns a range argument as a row-major grid, for functions
// (VLOOKUP, INDEX) that need the table's two-dimensional shape rather
// than a flat list.
func (a ArgSource) Grid(ctx *EvalCtx) ([][]Value, error) {
	if a.Range == nil {
		return nil, evalFailed("expected a range argument", a.String())
	}
	sheet, err := ctx.resolveSheet(a.Sheet)
	if err != nil {
		return nil, err
	}
	width, height := int(a.Range.Width()), int(a.Range.Height())
	rows := make([][]Value, height)
	for r := 0; r < height; r++ {
		row := make([]Value, width)
		for c := 0; c < width; c++ {
			addr := ARef{Col: a.Range.StartCol + uint32(c), Row: a.Range.StartRow + uint32(r)}
			row[c] = sheet.Get(addr)
		}
		rows[r] = row
	}
	return rows, nil
}

func (a ArgSource) String() string {
	if a.Range != nil {
		return RangeLocation{Sheet: a.Sheet, Range: *a.Range}.String()
	}
	return a.Scalar.String()
}

// ScalarArg wraps a plain Expr[Value] as a scalar ArgSource.
func ScalarArg(e Expr[Value]) ArgSource { return ArgSource{Scalar: e, Pos: e.Position()} }

// RangeArgSource wraps a parsed range as a range ArgSource.
func RangeArgSource(sheet string, r CellRange, pos NodePosition) ArgSource {
	return ArgSource{Sheet: sheet, Range: &r, Pos: pos}
}

// Call is a function invocation bound to a static FunctionSpec.
type Call struct {
	Spec *FunctionSpec
	Args []ArgSource
	Pos  NodePosition
}

func (n *Call) Eval(ctx *EvalCtx) (Value, error) {
	return n.Spec.Eval(n.Args, ctx)
}

func (n *Call) Position() NodePosition { return n.Pos }
func (n *Call) String() string {
	s := n.Spec.Name + "("
	for i, a := range n.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// --- Explicit coercion wrappers -----------------------------------------

// ToInt truncates a numeric subexpression to an integer-bearing Decimal,
// used where a numeric context consumes an integer-typed argument.
type ToInt struct {
	Inner Expr[Decimal]
	Pos   NodePosition
}

func (n *ToInt) Eval(ctx *EvalCtx) (Decimal, error) {
	v, err := n.Inner.Eval(ctx)
	if err != nil {
		return Decimal{}, err
	}
	return v.Truncate(0), nil
}
func (n *ToInt) Position() NodePosition { return n.Pos }
func (n *ToInt) String() string         { return n.Inner.String() }

// excelEpoch is the Excel date serial-number origin (1899-12-30, the
// conventional epoch that makes 1900-01-01 serial 2 for leap-year-bug
// compatibility reasons this engine doesn't need to reproduce exactly).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateToSerial converts a date-bearing subexpression into its numeric
// day-serial value.
type DateToSerial struct {
	Inner Expr[time.Time]
	Pos   NodePosition
}

func (n *DateToSerial) Eval(ctx *EvalCtx) (Decimal, error) {
	t, err := n.Inner.Eval(ctx)
	if err != nil {
		return Decimal{}, err
	}
	return dateSerial(t), nil
}
func (n *DateToSerial) Position() NodePosition { return n.Pos }
func (n *DateToSerial) String() string         { return n.Inner.String() }

// DateTimeToSerial converts a datetime-bearing subexpression into its
// numeric serial value, including the fractional time-of-day component.
type DateTimeToSerial struct {
	Inner Expr[time.Time]
	Pos   NodePosition
}

func (n *DateTimeToSerial) Eval(ctx *EvalCtx) (Decimal, error) {
	t, err := n.Inner.Eval(ctx)
	if err != nil {
		return Decimal{}, err
	}
	return dateTimeSerial(t), nil
}
func (n *DateTimeToSerial) Position() NodePosition { return n.Pos }
func (n *DateTimeToSerial) String() string         { return n.Inner.String() }

func dateSerial(t time.Time) Decimal {
	days := int64(t.UTC().Truncate(24*time.Hour).Sub(excelEpoch).Hours() / 24)
	return decimal.NewFromInt(days)
}

func dateTimeSerial(t time.Time) Decimal {
	u := t.UTC()
	whole := dateSerial(u)
	secondsIntoDay := u.Sub(u.Truncate(24 * time.Hour)).Seconds()
	frac := decimal.NewFromFloat(secondsIntoDay / 86400)
	return whole.Add(frac)
}
