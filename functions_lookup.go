package xlformula

import (
	"fmt"
	"strings"
)

// Lookup function specs (VLOOKUP/XLOOKUP/MATCH/INDEX), built on
// ArgSource.Grid/Values for range iteration.

func init() {
	register(&FunctionSpec{Name: "VLOOKUP", Arity: RangeArity(3, 4), Eval: vlookupEval})
	register(&FunctionSpec{Name: "XLOOKUP", Arity: RangeArity(3, 6), Eval: xlookupEval})
	register(&FunctionSpec{Name: "MATCH", Arity: RangeArity(2, 3), Eval: matchEval})
	register(&FunctionSpec{Name: "INDEX", Arity: RangeArity(2, 3), Eval: indexEval})
}

// valuesMatchExact is Excel's exact-match rule: case-insensitive string
// compare, or numeric equality when both sides decode as numbers.
func valuesMatchExact(key, cell Value) bool {
	if kn, ok := valueAsComparableNumber(key); ok {
		if cn, ok := valueAsComparableNumber(cell); ok {
			return kn.Equal(cn)
		}
	}
	return strings.EqualFold(stringArg(key), stringArg(cell))
}

func vlookupEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	key, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	if !args[1].IsRange() {
		return Value{}, evalFailed("VLOOKUP: second argument must be a range", args[1].String())
	}
	table, err := args[1].Grid(ctx)
	if err != nil {
		return Value{}, err
	}
	colV, err := scalar(args, 2, ctx)
	if err != nil {
		return Value{}, err
	}
	colIndex, err := intArg(colV, "VLOOKUP")
	if err != nil {
		return Value{}, err
	}
	width := 0
	if len(table) > 0 {
		width = len(table[0])
	}
	if colIndex < 1 || int(colIndex) > width {
		return Value{}, evalFailed("VLOOKUP: column index out of range", fmt.Sprintf("%d of %d", colIndex, width))
	}

	approximate := true
	if len(args) == 4 {
		v, err := scalar(args, 3, ctx)
		if err != nil {
			return Value{}, err
		}
		approximate, err = booleanArg(v, "VLOOKUP")
		if err != nil {
			return Value{}, err
		}
	}

	if !approximate {
		for _, row := range table {
			if len(row) == 0 {
				continue
			}
			if valuesMatchExact(key, row[0]) {
				return row[colIndex-1], nil
			}
		}
		return Value{}, evalFailed("VLOOKUP: value not found", key.String())
	}

	keyNum, ok := valueAsComparableNumber(key)
	if !ok {
		return Value{}, evalFailed("VLOOKUP: approximate match requires a numeric lookup value", key.String())
	}
	found := false
	var best Value
	var bestNum Decimal
	for _, row := range table {
		if len(row) == 0 {
			continue
		}
		cellNum, ok := valueAsComparableNumber(row[0])
		if !ok || cellNum.GreaterThan(keyNum) {
			continue
		}
		if !found || cellNum.GreaterThan(bestNum) {
			best = row[colIndex-1]
			bestNum = cellNum
			found = true
		}
	}
	if !found {
		return Value{}, evalFailed("VLOOKUP: value not found", key.String())
	}
	return best, nil
}

// xlookupMatchMode and xlookupSearchMode enumerate XLOOKUP's mode
// arguments: match modes {exact, next-smaller, next-larger, wildcard}
// and search modes {forward, reverse}.
const (
	xlMatchExact      = 0
	xlMatchNextSmaller = -1
	xlMatchNextLarger  = 1
	xlMatchWildcard    = 2

	xlSearchForward = 1
	xlSearchReverse = -1
)

func xlookupEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	lookupValue, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	lookupArray, err := args[1].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	returnArray, err := args[2].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	if len(lookupArray) != len(returnArray) {
		return Value{}, evalFailed("XLOOKUP: lookup_array and return_array must have the same size", "")
	}

	matchMode := int32(xlMatchExact)
	if len(args) >= 5 {
		v, err := scalar(args, 4, ctx)
		if err != nil {
			return Value{}, err
		}
		matchMode, err = intArg(v, "XLOOKUP")
		if err != nil {
			return Value{}, err
		}
	}
	searchMode := int32(xlSearchForward)
	if len(args) >= 6 {
		v, err := scalar(args, 5, ctx)
		if err != nil {
			return Value{}, err
		}
		searchMode, err = intArg(v, "XLOOKUP")
		if err != nil {
			return Value{}, err
		}
	}

	idx := xlookupFind(lookupValue, lookupArray, matchMode, searchMode)
	if idx < 0 {
		if len(args) >= 4 {
			return scalar(args, 3, ctx)
		}
		return ErrorValue(ErrNA), nil
	}
	return returnArray[idx], nil
}

// xlookupFind returns the matching index in hay, or -1.
func xlookupFind(needle Value, hay []Value, matchMode, searchMode int32) int {
	order := make([]int, len(hay))
	for i := range hay {
		order[i] = i
	}
	if searchMode == xlSearchReverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	switch matchMode {
	case xlMatchWildcard:
		pattern := stringArg(needle)
		for _, i := range order {
			if wildcardMatch(pattern, stringArg(hay[i])) {
				return i
			}
		}
		return -1

	case xlMatchExact:
		for _, i := range order {
			if valuesMatchExact(needle, hay[i]) {
				return i
			}
		}
		return -1

	case xlMatchNextSmaller, xlMatchNextLarger:
		needleNum, ok := valueAsComparableNumber(needle)
		if !ok {
			return -1
		}
		best := -1
		var bestNum Decimal
		for _, i := range order {
			if valuesMatchExact(needle, hay[i]) {
				return i
			}
			cellNum, ok := valueAsComparableNumber(hay[i])
			if !ok {
				continue
			}
			if matchMode == xlMatchNextSmaller && cellNum.LessThan(needleNum) {
				if best == -1 || cellNum.GreaterThan(bestNum) {
					best, bestNum = i, cellNum
				}
			}
			if matchMode == xlMatchNextLarger && cellNum.GreaterThan(needleNum) {
				if best == -1 || cellNum.LessThan(bestNum) {
					best, bestNum = i, cellNum
				}
			}
		}
		return best

	default:
		return -1
	}
}

// matchEval implements MATCH(value, range, mode): mode 0 exact match, mode
// 1 (default) largest value <= lookup in an ascending range, mode -1
// smallest value >= lookup in a descending range.
func matchEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	key, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	hay, err := args[1].Values(ctx)
	if err != nil {
		return Value{}, err
	}
	mode := int32(1)
	if len(args) == 3 {
		v, err := scalar(args, 2, ctx)
		if err != nil {
			return Value{}, err
		}
		mode, err = intArg(v, "MATCH")
		if err != nil {
			return Value{}, err
		}
	}

	if mode == 0 {
		for i, v := range hay {
			if valuesMatchExact(key, v) {
				return IntValue(int64(i) + 1), nil
			}
		}
		return Value{}, evalFailed("MATCH: value not found", key.String())
	}

	keyNum, ok := valueAsComparableNumber(key)
	if !ok {
		return Value{}, evalFailed("MATCH: approximate match requires a numeric lookup value", key.String())
	}
	best := -1
	var bestNum Decimal
	for i, v := range hay {
		cellNum, ok := valueAsComparableNumber(v)
		if !ok {
			continue
		}
		if mode == 1 && !cellNum.GreaterThan(keyNum) {
			if best == -1 || cellNum.GreaterThan(bestNum) {
				best, bestNum = i, cellNum
			}
		}
		if mode == -1 && !cellNum.LessThan(keyNum) {
			if best == -1 || cellNum.LessThan(bestNum) {
				best, bestNum = i, cellNum
			}
		}
	}
	if best == -1 {
		return Value{}, evalFailed("MATCH: value not found", key.String())
	}
	return IntValue(int64(best) + 1), nil
}

// indexEval implements INDEX(range, row, [col]): both are 1-based;
// out-of-bounds coordinates yield Error(REF) rather than a hard failure,
// matching spreadsheet convention for this one function.
func indexEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	if !args[0].IsRange() {
		return Value{}, evalFailed("INDEX: first argument must be a range", args[0].String())
	}
	grid, err := args[0].Grid(ctx)
	if err != nil {
		return Value{}, err
	}
	rowV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	row, err := intArg(rowV, "INDEX")
	if err != nil {
		return Value{}, err
	}
	col := int32(1)
	if len(args) == 3 {
		v, err := scalar(args, 2, ctx)
		if err != nil {
			return Value{}, err
		}
		col, err = intArg(v, "INDEX")
		if err != nil {
			return Value{}, err
		}
	}
	if row < 1 || int(row) > len(grid) {
		return ErrorValue(ErrREF), nil
	}
	targetRow := grid[row-1]
	if col < 1 || int(col) > len(targetRow) {
		return ErrorValue(ErrREF), nil
	}
	return targetRow[col-1], nil
}
