package xlformula

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Aggregate and conditional-aggregate function specs: SUM/AVERAGE/COUNT/
// MAX/MIN and their IF/IFS criteria-driven variants.

func init() {
	register(&FunctionSpec{Name: "SUM", Arity: AtLeast(1), Eval: sumEval})
	register(&FunctionSpec{Name: "AVERAGE", Arity: AtLeast(1), Eval: averageEval})
	register(&FunctionSpec{Name: "COUNT", Arity: AtLeast(1), Eval: countEval})
	register(&FunctionSpec{Name: "COUNTA", Arity: AtLeast(1), Eval: countaEval})
	register(&FunctionSpec{Name: "MAX", Arity: AtLeast(1), Eval: maxEval})
	register(&FunctionSpec{Name: "MIN", Arity: AtLeast(1), Eval: minEval})
	register(&FunctionSpec{Name: "MEDIAN", Arity: AtLeast(1), Eval: medianEval})
	register(&FunctionSpec{Name: "MODE", Arity: AtLeast(1), Eval: modeEval})

	register(&FunctionSpec{Name: "SUMIF", Arity: RangeArity(2, 3), Eval: sumifEval})
	register(&FunctionSpec{Name: "COUNTIF", Arity: Exact(2), Eval: countifEval})
	register(&FunctionSpec{Name: "AVERAGEIF", Arity: RangeArity(2, 3), Eval: averageifEval})
	register(&FunctionSpec{Name: "SUMIFS", Arity: AtLeast(3), Eval: sumifsEval})
	register(&FunctionSpec{Name: "COUNTIFS", Arity: AtLeast(2), Eval: countifsEval})
	register(&FunctionSpec{Name: "AVERAGEIFS", Arity: AtLeast(3), Eval: averageifsEval})
}

func sumEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	sum := decimalZero()
	for _, v := range vals {
		if v.IsError() {
			return Value{}, refError(ARef{}, v.Err.String())
		}
		if d, ok := numericLenient(v); ok {
			sum = sum.Add(d)
		}
	}
	return NumberValue(sum), nil
}

func averageEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	sum := decimalZero()
	count := 0
	for _, v := range vals {
		if v.IsError() {
			return Value{}, refError(ARef{}, v.Err.String())
		}
		if d, ok := numericLenient(v); ok {
			sum = sum.Add(d)
			count++
		}
	}
	if count == 0 {
		return Value{}, divByZero("AVERAGE", "0 numeric values")
	}
	return NumberValue(sum.Div(decimal.NewFromInt(int64(count)))), nil
}

func countEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	count := 0
	for _, v := range vals {
		if v.Kind == KindNumber {
			count++
		}
	}
	return IntValue(int64(count)), nil
}

func maxEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	return extremumEval(args, ctx, func(a, b Decimal) bool { return a.GreaterThan(b) })
}

func minEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	return extremumEval(args, ctx, func(a, b Decimal) bool { return a.LessThan(b) })
}

func extremumEval(args []ArgSource, ctx *EvalCtx, better func(candidate, current Decimal) bool) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	var best Decimal
	has := false
	for _, v := range vals {
		if v.IsError() {
			return Value{}, refError(ARef{}, v.Err.String())
		}
		d, ok := numericLenient(v)
		if !ok {
			continue
		}
		if !has || better(d, best) {
			best = d
			has = true
		}
	}
	if !has {
		return NumberValue(decimalZero()), nil
	}
	return NumberValue(best), nil
}

// countaEval counts every non-empty cell, whatever its kind.
func countaEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	count := 0
	for _, v := range vals {
		if !v.IsEmpty() {
			count++
		}
	}
	return IntValue(int64(count)), nil
}

func numericSlice(vals []Value) ([]Decimal, error) {
	var out []Decimal
	for _, v := range vals {
		if v.IsError() {
			return nil, refError(ARef{}, v.Err.String())
		}
		if d, ok := numericLenient(v); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func medianEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	nums, err := numericSlice(vals)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Value{}, evalFailed("MEDIAN: no numeric values", "")
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].LessThan(nums[j]) })
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return NumberValue(nums[mid]), nil
	}
	two := decimal.NewFromInt(2)
	return NumberValue(nums[mid-1].Add(nums[mid]).Div(two)), nil
}

// modeEval returns the most frequent numeric value; ties resolve to the
// value encountered first. With no repeated value the result is #N/A, the
// same error Excel reports.
func modeEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	vals, err := flattenAll(args, ctx)
	if err != nil {
		return Value{}, err
	}
	nums, err := numericSlice(vals)
	if err != nil {
		return Value{}, err
	}
	counts := map[string]int{}
	bestCount := 0
	for _, d := range nums {
		key := d.String()
		counts[key]++
		if counts[key] > bestCount {
			bestCount = counts[key]
		}
	}
	if bestCount < 2 {
		return ErrorValue(ErrNA), nil
	}
	for _, d := range nums {
		if counts[d.String()] == bestCount {
			return NumberValue(d), nil
		}
	}
	return ErrorValue(ErrNA), nil
}

// numericLenient decodes a value as numeric for aggregation purposes,
// treating booleans as numeric but silently skipping text and empty
// cells rather than erroring.
func numericLenient(v Value) (Decimal, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return decimalOne(), true
		}
		return decimalZero(), true
	case KindFormula:
		if v.Cached != nil {
			return numericLenient(*v.Cached)
		}
	}
	return Decimal{}, false
}

// --- Conditional aggregates ---------------------------------------------

func sumifEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rangeVals, err := args[0].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	criteriaVal, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	matcher := parseCriteria(criteriaVal)

	sumRangeVals := rangeVals
	if len(args) == 3 {
		sumRangeVals, err = args[2].Values(ctx)
		if err != nil {
			return Value{}, err
		}
	}
	if len(sumRangeVals) != len(rangeVals) {
		return Value{}, evalFailed("SUMIF: criteria range and sum range must be the same size", "")
	}
	sum := decimalZero()
	for i, cv := range rangeVals {
		if matcher.Matches(cv) {
			if d, ok := numericLenient(sumRangeVals[i]); ok {
				sum = sum.Add(d)
			}
		}
	}
	return NumberValue(sum), nil
}

func countifEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rangeVals, err := args[0].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	criteriaVal, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	matcher := parseCriteria(criteriaVal)
	count := 0
	for _, cv := range rangeVals {
		if matcher.Matches(cv) {
			count++
		}
	}
	return IntValue(int64(count)), nil
}

func averageifEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	rangeVals, err := args[0].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	criteriaVal, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	matcher := parseCriteria(criteriaVal)

	avgRangeVals := rangeVals
	if len(args) == 3 {
		avgRangeVals, err = args[2].Values(ctx)
		if err != nil {
			return Value{}, err
		}
	}
	if len(avgRangeVals) != len(rangeVals) {
		return Value{}, evalFailed("AVERAGEIF: criteria range and average range must be the same size", "")
	}
	sum := decimalZero()
	count := 0
	for i, cv := range rangeVals {
		if matcher.Matches(cv) {
			if d, ok := numericLenient(avgRangeVals[i]); ok {
				sum = sum.Add(d)
				count++
			}
		}
	}
	if count == 0 {
		return Value{}, divByZero("AVERAGEIF", "0 matching numeric values")
	}
	return NumberValue(sum.Div(decimal.NewFromInt(int64(count)))), nil
}

// sumifsEval/countifsEval/averageifsEval share the "criteria range, value
// pairs" argument shape: every condition range must hold as many cells as
// the summed/averaged range, and a cell is selected only if it satisfies
// every condition (cartesian AND). Only cell counts are compared
// (checkEqualLengths): ranges of different width and height but the same
// number of cells are accepted and paired in row-major order.

func sumifsEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	if len(args)%2 != 1 {
		return Value{}, wrongArgCount("SUMIFS", len(args))
	}
	sumRange, err := args[0].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	matchers, conditionRanges, err := buildConditionMatchers(args[1:], ctx)
	if err != nil {
		return Value{}, err
	}
	if err := checkEqualLengths(sumRange, conditionRanges); err != nil {
		return Value{}, err
	}
	sum := decimalZero()
	for i := range sumRange {
		if allMatch(matchers, conditionRanges, i) {
			if d, ok := numericLenient(sumRange[i]); ok {
				sum = sum.Add(d)
			}
		}
	}
	return NumberValue(sum), nil
}

func countifsEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	if len(args)%2 != 0 {
		return Value{}, wrongArgCount("COUNTIFS", len(args))
	}
	matchers, conditionRanges, err := buildConditionMatchers(args, ctx)
	if err != nil {
		return Value{}, err
	}
	if len(conditionRanges) == 0 {
		return IntValue(0), nil
	}
	if err := checkEqualLengths(conditionRanges[0], conditionRanges); err != nil {
		return Value{}, err
	}
	count := 0
	for i := range conditionRanges[0] {
		if allMatch(matchers, conditionRanges, i) {
			count++
		}
	}
	return IntValue(int64(count)), nil
}

func averageifsEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	if len(args)%2 != 1 {
		return Value{}, wrongArgCount("AVERAGEIFS", len(args))
	}
	avgRange, err := args[0].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	matchers, conditionRanges, err := buildConditionMatchers(args[1:], ctx)
	if err != nil {
		return Value{}, err
	}
	if err := checkEqualLengths(avgRange, conditionRanges); err != nil {
		return Value{}, err
	}
	sum := decimalZero()
	count := 0
	for i := range avgRange {
		if allMatch(matchers, conditionRanges, i) {
			if d, ok := numericLenient(avgRange[i]); ok {
				sum = sum.Add(d)
				count++
			}
		}
	}
	if count == 0 {
		return Value{}, divByZero("AVERAGEIFS", "0 matching numeric values")
	}
	return NumberValue(sum.Div(decimal.NewFromInt(int64(count)))), nil
}

func buildConditionMatchers(pairs []ArgSource, ctx *EvalCtx) ([]CriteriaMatcher, [][]Value, error) {
	matchers := make([]CriteriaMatcher, 0, len(pairs)/2)
	ranges := make([][]Value, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rangeVals, err := pairs[i].Values(ctx)
		if err != nil {
			return nil, nil, err
		}
		criteriaVal, err := pairs[i+1].Value(ctx)
		if err != nil {
			return nil, nil, err
		}
		matchers = append(matchers, parseCriteria(criteriaVal))
		ranges = append(ranges, rangeVals)
	}
	return matchers, ranges, nil
}

func checkEqualLengths(reference []Value, ranges [][]Value) error {
	for _, r := range ranges {
		if len(r) != len(reference) {
			return evalFailed("condition ranges must match the aggregated range's size", "")
		}
	}
	return nil
}

func allMatch(matchers []CriteriaMatcher, ranges [][]Value, i int) bool {
	for k, m := range matchers {
		if !m.Matches(ranges[k][i]) {
			return false
		}
	}
	return true
}

// --- CriteriaMatcher -------------------------------------------------

// CriteriaMatcherKind tags the closed set of criteria shapes SUMIF/
// COUNTIF/AVERAGEIF accept.
type CriteriaMatcherKind uint8

const (
	CriteriaEquals CriteriaMatcherKind = iota
	CriteriaComparison
	CriteriaWildcard
)

// CriteriaMatcher parses and applies one criteria expression, e.g.
// `">10"`, `"Apple"`, `"A*"`.
type CriteriaMatcher struct {
	Kind       CriteriaMatcherKind
	Op         string // for CriteriaComparison: "<", "<=", ">", ">=", "=", "<>"
	Number     Decimal
	IsNumber   bool
	Text       string
	RawPattern string // for CriteriaWildcard
}

var comparisonPrefixes = []string{"<=", ">=", "<>", "<", ">", "="}

// parseCriteria builds a CriteriaMatcher from a criteria argument's Value:
// a bare number or text is an equality match, a leading comparison
// operator (`>`, `<=`, ...) builds a Comparison matcher, and any `*`/`?`
// in the remaining text builds a Wildcard matcher.
func parseCriteria(v Value) CriteriaMatcher {
	if v.Kind == KindNumber {
		return CriteriaMatcher{Kind: CriteriaEquals, Number: v.Number, IsNumber: true}
	}
	text := stringArg(v)
	for _, prefix := range comparisonPrefixes {
		if strings.HasPrefix(text, prefix) {
			rest := strings.TrimSpace(text[len(prefix):])
			if d, err := decimal.NewFromString(rest); err == nil {
				return CriteriaMatcher{Kind: CriteriaComparison, Op: prefix, Number: d, IsNumber: true}
			}
			return CriteriaMatcher{Kind: CriteriaComparison, Op: prefix, Text: rest}
		}
	}
	if strings.ContainsAny(text, "*?") {
		return CriteriaMatcher{Kind: CriteriaWildcard, RawPattern: text}
	}
	return CriteriaMatcher{Kind: CriteriaEquals, Text: text}
}

// Matches reports whether cell satisfies the criteria.
func (m CriteriaMatcher) Matches(cell Value) bool {
	switch m.Kind {
	case CriteriaEquals:
		if m.IsNumber {
			d, ok := numericLenient(cell)
			return ok && d.Equal(m.Number)
		}
		return strings.EqualFold(stringArg(cell), m.Text)
	case CriteriaComparison:
		d, ok := numericLenient(cell)
		if !ok {
			return false
		}
		if !m.IsNumber {
			return false
		}
		switch m.Op {
		case "<":
			return d.LessThan(m.Number)
		case "<=":
			return d.LessThanOrEqual(m.Number)
		case ">":
			return d.GreaterThan(m.Number)
		case ">=":
			return d.GreaterThanOrEqual(m.Number)
		case "=":
			return d.Equal(m.Number)
		case "<>":
			return !d.Equal(m.Number)
		default:
			return false
		}
	case CriteriaWildcard:
		return wildcardMatch(m.RawPattern, stringArg(cell))
	default:
		return false
	}
}

// wildcardMatch implements Excel's `?` (single char) and `*` (any run)
// glob semantics, case-insensitively.
func wildcardMatch(pattern, text string) bool {
	return wildcardMatchFold(strings.ToUpper(pattern), strings.ToUpper(text))
}

func wildcardMatchFold(pattern, text string) bool {
	if pattern == "" {
		return text == ""
	}
	switch pattern[0] {
	case '*':
		for i := 0; i <= len(text); i++ {
			if wildcardMatchFold(pattern[1:], text[i:]) {
				return true
			}
		}
		return false
	case '?':
		if text == "" {
			return false
		}
		return wildcardMatchFold(pattern[1:], text[1:])
	default:
		if text == "" || text[0] != pattern[0] {
			return false
		}
		return wildcardMatchFold(pattern[1:], text[1:])
	}
}
