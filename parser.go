package xlformula

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxFormulaLength bounds worst-case parse cost.
const maxFormulaLength = 8192

// parser is the recursive-descent parser state: a rune slice, a cursor,
// and the original text for diagnostic rendering. Position tracking is
// explicit: every reported position is a 0-based offset into the source.
type parser struct {
	src            []rune
	pos            int
	displayFormula string
	offset         int // added to every reported position (length of a stripped leading '=')
}

// parsed is the parser's internal representation of a subexpression whose
// result type is not yet pinned to a single Go type parameter. Exactly one
// of its fields is populated; the to*() methods coerce it to whichever
// typed Expr[A] an operator or function-argument slot needs.
type parsed struct {
	poly PolyExpr    // a bare, still-untyped reference
	rng  *PolyRange  // a bare range (A1:B2), default-interpreted as a SUM fold
	num  Expr[Decimal]
	bl   Expr[bool]
	str  Expr[string]
	val  Expr[Value] // anything already pinned to Value (Call, parenthesized subtrees, ...)
}

// Parse turns a formula string (optionally `=`-prefixed) into an
// evaluatable Expr[Value], or a structured ParseError.
func Parse(formula string) (Expr[Value], error) {
	display := formula
	body := formula
	offset := 0
	if strings.HasPrefix(body, "=") {
		body = body[1:]
		offset = 1
	}
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Kind: ErrEmptyFormula, Formula: display}
	}
	if len(formula) > maxFormulaLength {
		return nil, &ParseError{Kind: ErrFormulaTooLong, Formula: display, Length: len(formula), MaxLength: maxFormulaLength}
	}

	p := &parser{src: []rune(body), displayFormula: display, offset: offset}
	result, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos != len(p.src) {
		return nil, p.unexpectedTrailing()
	}
	return result.toValue(), nil
}

// unexpectedTrailing reports leftover input after a complete expression,
// calling out the two reserved operators (`&`, `^`) by name when they're
// the culprit.
func (p *parser) unexpectedTrailing() *ParseError {
	switch p.src[p.pos] {
	case '&':
		return p.errorAt(ErrInvalidOperator, p.pos, "concatenation operator (&) is not yet supported")
	case '^':
		return p.errorAt(ErrInvalidOperator, p.pos, "exponent operator (^) is not yet supported")
	default:
		return p.errorAt(ErrUnexpectedChar, p.pos, fmt.Sprintf("unexpected character %q", p.src[p.pos]))
	}
}

func (p *parser) errorAt(kind ParseErrorKind, pos int, msg string) *ParseError {
	return newParseError(kind, pos+p.offset, p.displayFormula, msg)
}

// --- lexical helpers ---------------------------------------------------

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isIdentChar(r rune) bool {
	return isAlphaRune(r) || isDigit(r) || r == '_' || r == '$'
}
func isAlphaRune(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

func (p *parser) skipWS() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// peekKeyword reports and consumes word (case-insensitively) if it appears
// next, respecting whitespace and a word boundary; otherwise it leaves the
// cursor untouched. Used for the infix AND/OR and prefix NOT keywords.
func (p *parser) peekKeyword(word string) bool {
	save := p.pos
	p.skipWS()
	n := len(word)
	if p.pos+n > len(p.src) {
		p.pos = save
		return false
	}
	if !strings.EqualFold(string(p.src[p.pos:p.pos+n]), word) {
		p.pos = save
		return false
	}
	if p.pos+n < len(p.src) && isIdentChar(p.src[p.pos+n]) {
		p.pos = save
		return false
	}
	p.pos += n
	return true
}

func (p *parser) scanString() (string, int, error) {
	start := p.pos
	p.pos++ // opening quote
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", start, p.errorAt(ErrUnbalancedDelimiter, start, "unterminated string literal")
		}
		ch := p.src[p.pos]
		if ch == '"' {
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
				sb.WriteRune('"')
				p.pos += 2
				continue
			}
			p.pos++
			break
		}
		sb.WriteRune(ch)
		p.pos++
	}
	return sb.String(), start, nil
}

func (p *parser) scanQuotedSheetName() (string, error) {
	start := p.pos
	p.pos++ // opening '
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorAt(ErrUnbalancedDelimiter, start, "unterminated sheet name")
		}
		ch := p.src[p.pos]
		if ch == '\'' {
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				sb.WriteRune('\'')
				p.pos += 2
				continue
			}
			p.pos++
			break
		}
		sb.WriteRune(ch)
		p.pos++
	}
	return sb.String(), nil
}

func (p *parser) scanNumber() (Decimal, error) {
	start := p.pos
	hasDigits := false
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		hasDigits = true
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
			hasDigits = true
		}
	}
	if !hasDigits {
		return Decimal{}, p.errorAt(ErrInvalidNumber, start, "invalid number literal")
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		expStart := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		digitsStart := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == digitsStart {
			p.pos = expStart // not actually an exponent; leave it for the next token
		}
	}
	text := string(p.src[start:p.pos])
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Decimal{}, p.errorAt(ErrInvalidNumber, start, "invalid number literal: "+text)
	}
	return d, nil
}

// --- primary -------------------------------------------------------------

func (p *parser) parsePrimary() (parsed, error) {
	p.skipWS()
	start := p.pos
	if p.pos >= len(p.src) {
		return parsed{}, p.errorAt(ErrUnexpectedEOF, start, "unexpected end of formula")
	}

	ch := p.src[p.pos]
	switch {
	case ch == '(':
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return parsed{}, err
		}
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return parsed{}, p.errorAt(ErrUnbalancedDelimiter, p.pos, "expected closing parenthesis")
		}
		p.pos++
		return inner, nil

	case ch == '"':
		s, litStart, err := p.scanString()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{litStart, p.pos}
		return parsed{str: &Lit[string]{Value: s, Pos: pos, Print: printStringLiteral}}, nil

	case ch == '\'':
		sheetName, err := p.scanQuotedSheetName()
		if err != nil {
			return parsed{}, err
		}
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != '!' {
			return parsed{}, p.errorAt(ErrInvalidCellRef, p.pos, "expected '!' after quoted sheet name")
		}
		p.pos++
		return p.parseAddressOrRange(sheetName, start)

	case isDigit(ch) || (ch == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1])):
		d, err := p.scanNumber()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{start, p.pos}
		return parsed{num: &Lit[Decimal]{Value: d, Pos: pos, Print: func(d Decimal) string { return d.String() }}}, nil

	case isIdentChar(ch):
		ident := p.scanIdent()
		switch {
		case p.pos < len(p.src) && p.src[p.pos] == '(':
			return p.parseFunctionCall(ident, start)
		case p.pos < len(p.src) && p.src[p.pos] == '!':
			p.pos++
			return p.parseAddressOrRange(ident, start)
		case p.pos < len(p.src) && p.src[p.pos] == ':':
			p.pos++
			return p.parseRangeFrom("", ident, start)
		case strings.EqualFold(ident, "TRUE"):
			return parsed{bl: &Lit[bool]{Value: true, Pos: NodePosition{start, p.pos}, Print: func(bool) string { return "TRUE" }}}, nil
		case strings.EqualFold(ident, "FALSE"):
			return parsed{bl: &Lit[bool]{Value: false, Pos: NodePosition{start, p.pos}, Print: func(bool) string { return "FALSE" }}}, nil
		default:
			addr, anchor, err := ParseARef(ident)
			if err != nil {
				return parsed{}, p.errorAt(ErrInvalidCellRef, start, "invalid cell reference: "+ident)
			}
			return parsed{poly: &PolyRef{Addr: addr, Anchor: anchor, Pos: NodePosition{start, p.pos}}}, nil
		}

	default:
		return parsed{}, p.errorAt(ErrUnexpectedChar, start, fmt.Sprintf("unexpected character %q", ch))
	}
}

func printStringLiteral(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}

// parseAddressOrRange parses the address (or address:address range)
// following a `sheet!` qualifier.
func (p *parser) parseAddressOrRange(sheet string, start int) (parsed, error) {
	p.skipWS()
	addrStart := p.pos
	if p.pos >= len(p.src) || !isIdentChar(p.src[p.pos]) {
		return parsed{}, p.errorAt(ErrInvalidCellRef, p.pos, "expected a cell reference")
	}
	ident := p.scanIdent()
	if p.pos < len(p.src) && p.src[p.pos] == ':' {
		p.pos++
		return p.parseRangeFrom(sheet, ident, start)
	}
	addr, anchor, err := ParseARef(ident)
	if err != nil {
		return parsed{}, p.errorAt(ErrInvalidCellRef, addrStart, "invalid cell reference: "+ident)
	}
	pos := NodePosition{start, p.pos}
	if sheet == "" {
		return parsed{poly: &PolyRef{Addr: addr, Anchor: anchor, Pos: pos}}, nil
	}
	return parsed{poly: &SheetPolyRef{Sheet: sheet, Addr: addr, Anchor: anchor, Pos: pos}}, nil
}

func (p *parser) parseRangeFrom(sheet, firstIdent string, start int) (parsed, error) {
	firstAddr, _, err := ParseARef(firstIdent)
	if err != nil {
		return parsed{}, p.errorAt(ErrInvalidCellRef, start, "invalid cell reference: "+firstIdent)
	}
	p.skipWS()
	secondStart := p.pos
	if p.pos >= len(p.src) || !isIdentChar(p.src[p.pos]) {
		return parsed{}, p.errorAt(ErrInvalidCellRef, p.pos, "expected second cell reference in range")
	}
	secondIdent := p.scanIdent()
	secondAddr, _, err := ParseARef(secondIdent)
	if err != nil {
		return parsed{}, p.errorAt(ErrInvalidCellRef, secondStart, "invalid cell reference: "+secondIdent)
	}
	rng := NewCellRange(firstAddr, secondAddr)
	return parsed{rng: &PolyRange{Sheet: sheet, Range: rng, Pos: NodePosition{start, p.pos}}}, nil
}

// parseFunctionCall parses the argument list following `name(` and looks
// name up in the registry.
func (p *parser) parseFunctionCall(name string, start int) (parsed, error) {
	p.pos++ // consume '('
	var args []ArgSource
	p.skipWS()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
	} else {
		for {
			argStart := p.pos
			arg, err := p.parseOr()
			if err != nil {
				return parsed{}, err
			}
			args = append(args, arg.toArgSource(argStart, p.pos))
			p.skipWS()
			if p.pos < len(p.src) && p.src[p.pos] == ',' {
				p.pos++
				p.skipWS()
				continue
			}
			if p.pos < len(p.src) && p.src[p.pos] == ')' {
				p.pos++
				break
			}
			return parsed{}, p.errorAt(ErrUnbalancedDelimiter, p.pos, "expected ',' or ')' in argument list")
		}
	}

	spec, ok := LookupFunction(name)
	if !ok {
		suggestions := SuggestFunctions(name)
		return parsed{}, &ParseError{
			Kind:        ErrUnknownFunction,
			Pos:         start + p.offset,
			Formula:     p.displayFormula,
			Message:     unknownFunctionMessage(name, suggestions),
			Suggestions: suggestions,
		}
	}
	if !spec.Arity.Accepts(len(args)) {
		return parsed{}, p.errorAt(ErrInvalidArguments, start, arityMessage(spec, len(args)))
	}
	call := &Call{Spec: spec, Args: args, Pos: NodePosition{start, p.pos}}
	return parsed{val: call}, nil
}

func unknownFunctionMessage(name string, suggestions []string) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("unknown function: %s", name)
	}
	return fmt.Sprintf("unknown function: %s (did you mean %s?)", name, strings.Join(suggestions, ", "))
}

func arityMessage(spec *FunctionSpec, got int) string {
	switch spec.Arity.Kind {
	case ArityExact:
		return fmt.Sprintf("%s expects %d argument(s), got %d", spec.Name, spec.Arity.Min, got)
	case ArityRange:
		return fmt.Sprintf("%s expects %d-%d argument(s), got %d", spec.Name, spec.Arity.Min, spec.Arity.Max, got)
	case ArityAtLeast:
		return fmt.Sprintf("%s expects at least %d argument(s), got %d", spec.Name, spec.Arity.Min, got)
	default:
		return fmt.Sprintf("%s: wrong argument count %d", spec.Name, got)
	}
}

// --- unary / multiplicative / additive / concatenation / comparison ----

func (p *parser) parseUnary() (parsed, error) {
	p.skipWS()
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return parsed{}, err
		}
		zero := &Lit[Decimal]{Value: decimalZero(), Pos: NodePosition{start, start}, Print: func(Decimal) string { return "0" }}
		pos := NodePosition{start, operand.endPos()}
		return parsed{num: Sub(zero, operand.toNumeric(), pos)}, nil
	}
	if p.peekKeyword("NOT") {
		operand, err := p.parseUnary()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{start, operand.endPos()}
		return parsed{bl: &Not{Operand: operand.toBoolean(), Pos: pos}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parseMultiplicative() (parsed, error) {
	left, err := p.parseUnary()
	if err != nil {
		return parsed{}, err
	}
	for {
		p.skipWS()
		if p.pos >= len(p.src) {
			break
		}
		ch := p.src[p.pos]
		if ch == '^' {
			return parsed{}, p.errorAt(ErrInvalidOperator, p.pos, "exponent operator (^) is not yet supported")
		}
		if ch != '*' && ch != '/' {
			break
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{left.startPos(), right.endPos()}
		if ch == '*' {
			left = parsed{num: Mul(left.toNumeric(), right.toNumeric(), pos)}
		} else {
			left = parsed{num: Div(left.toNumeric(), right.toNumeric(), pos)}
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (parsed, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return parsed{}, err
	}
	for {
		p.skipWS()
		if p.pos >= len(p.src) {
			break
		}
		ch := p.src[p.pos]
		if ch != '+' && ch != '-' {
			break
		}
		p.pos++
		right, err := p.parseMultiplicative()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{left.startPos(), right.endPos()}
		if ch == '+' {
			left = parsed{num: Add(left.toNumeric(), right.toNumeric(), pos)}
		} else {
			left = parsed{num: Sub(left.toNumeric(), right.toNumeric(), pos)}
		}
	}
	return left, nil
}

// parseConcat occupies the concatenation precedence slot; `&` is reserved
// and currently reports "not yet supported".
func (p *parser) parseConcat() (parsed, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return parsed{}, err
	}
	p.skipWS()
	if p.pos < len(p.src) && p.src[p.pos] == '&' {
		return parsed{}, p.errorAt(ErrInvalidOperator, p.pos, "concatenation operator (&) is not yet supported")
	}
	return left, nil
}

func (p *parser) matchCompareOp() string {
	if p.pos >= len(p.src) {
		return ""
	}
	if p.pos+1 < len(p.src) {
		switch string(p.src[p.pos : p.pos+2]) {
		case "<=", ">=", "<>":
			op := string(p.src[p.pos : p.pos+2])
			p.pos += 2
			return op
		}
	}
	switch p.src[p.pos] {
	case '=':
		p.pos++
		return "="
	case '<':
		p.pos++
		return "<"
	case '>':
		p.pos++
		return ">"
	}
	return ""
}

func (p *parser) parseComparison() (parsed, error) {
	left, err := p.parseConcat()
	if err != nil {
		return parsed{}, err
	}
	p.skipWS()
	op := p.matchCompareOp()
	if op == "" {
		return left, nil
	}
	right, err := p.parseConcat()
	if err != nil {
		return parsed{}, err
	}
	pos := NodePosition{left.startPos(), right.endPos()}
	switch op {
	case "=":
		return parsed{bl: &Eq{Left: left.toValue(), Right: right.toValue(), Pos: pos}}, nil
	case "<>":
		return parsed{bl: &Neq{Left: left.toValue(), Right: right.toValue(), Pos: pos}}, nil
	case "<":
		return parsed{bl: Lt(left.toNumeric(), right.toNumeric(), pos)}, nil
	case "<=":
		return parsed{bl: Lte(left.toNumeric(), right.toNumeric(), pos)}, nil
	case ">":
		return parsed{bl: Gt(left.toNumeric(), right.toNumeric(), pos)}, nil
	default: // ">="
		return parsed{bl: Gte(left.toNumeric(), right.toNumeric(), pos)}, nil
	}
}

func (p *parser) parseAnd() (parsed, error) {
	left, err := p.parseComparison()
	if err != nil {
		return parsed{}, err
	}
	for p.peekKeyword("AND") {
		right, err := p.parseComparison()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{left.startPos(), right.endPos()}
		left = parsed{bl: &And{Left: left.toBoolean(), Right: right.toBoolean(), Pos: pos}}
	}
	return left, nil
}

func (p *parser) parseOr() (parsed, error) {
	left, err := p.parseAnd()
	if err != nil {
		return parsed{}, err
	}
	for p.peekKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return parsed{}, err
		}
		pos := NodePosition{left.startPos(), right.endPos()}
		left = parsed{bl: &Or{Left: left.toBoolean(), Right: right.toBoolean(), Pos: pos}}
	}
	return left, nil
}

// --- parsed coercions ----------------------------------------------------

func (p parsed) posRange() NodePosition {
	switch {
	case p.num != nil:
		return p.num.Position()
	case p.bl != nil:
		return p.bl.Position()
	case p.str != nil:
		return p.str.Position()
	case p.poly != nil:
		return p.poly.Position()
	case p.rng != nil:
		return p.rng.Position()
	default:
		return p.val.Position()
	}
}

func (p parsed) startPos() int { return p.posRange().Start }
func (p parsed) endPos() int   { return p.posRange().End }

// rangeAsValue wraps a bare range in a default SUM fold, for any range
// that isn't immediately destructured by a function argument adapter.
func (p parsed) rangeAsValue() Expr[Value] {
	return NumericAsValue(defaultSumFoldRange(p.rng))
}

func defaultSumFoldRange(pr *PolyRange) Expr[Decimal] {
	step := func(acc Decimal, cell Value, _ bool) Decimal {
		if d, ok := numericLenient(cell); ok {
			return acc.Add(d)
		}
		return acc
	}
	if pr.Sheet == "" {
		return &FoldRange[Decimal]{Range: pr.Range, Zero: decimalZero(), Step: step, Decode: decodeCellValue, Pos: pr.Pos}
	}
	return &SheetFoldRange[Decimal]{Sheet: pr.Sheet, Range: pr.Range, Zero: decimalZero(), Step: step, Pos: pr.Pos}
}

func (p parsed) toValue() Expr[Value] {
	switch {
	case p.num != nil:
		return NumericAsValue(p.num)
	case p.bl != nil:
		return BoolAsValue(p.bl)
	case p.str != nil:
		return StringAsValue(p.str)
	case p.poly != nil:
		return CoerceResolved(p.poly)
	case p.rng != nil:
		return p.rangeAsValue()
	default:
		return p.val
	}
}

func (p parsed) toNumeric() Expr[Decimal] {
	switch {
	case p.num != nil:
		return p.num
	case p.poly != nil:
		return CoerceNumeric(p.poly)
	case p.rng != nil:
		return defaultSumFoldRange(p.rng)
	default:
		return AsNumeric(p.toValue())
	}
}

func (p parsed) toBoolean() Expr[bool] {
	switch {
	case p.bl != nil:
		return p.bl
	case p.poly != nil:
		return CoerceBoolean(p.poly)
	default:
		return AsBoolean(p.toValue())
	}
}

// toArgSource turns a parsed argument into the ArgSource a Call node
// carries: ranges stay undestructured so the callee's own evaluator
// decides how to flatten them.
func (p parsed) toArgSource(start, end int) ArgSource {
	if p.rng != nil {
		return RangeArgSource(p.rng.Sheet, p.rng.Range, NodePosition{start, end})
	}
	return ScalarArg(p.toValue())
}
