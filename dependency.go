package xlformula

import "github.com/rs/zerolog"

// sheetAddr is a fully sheet-qualified cell address, the key the
// dependency graph tracks nodes by (a formula's "home" sheet is always
// concrete here — never the local-sheet "" shorthand a bare Ref carries).
type sheetAddr struct {
	Sheet string
	Addr  ARef
}

// collectDependencies walks a formula's AST and returns every cell it
// reads.
func collectDependencies(homeSheet string, e Expr[Value]) []sheetAddr {
	var out []sheetAddr
	walkExpr(homeSheet, e, &out)
	return out
}

// walkExpr is the same two-tier pattern Shift uses: one generic function
// dispatching on concrete node type via a type switch over `any(e)`.
func walkExpr[A any](homeSheet string, e Expr[A], out *[]sheetAddr) {
	switch n := any(e).(type) {
	case *Ref[A]:
		*out = append(*out, sheetAddr{homeSheet, n.Addr})
	case *SheetRef[A]:
		*out = append(*out, sheetAddr{n.Sheet, n.Addr})
	case *If[A]:
		walkExpr(homeSheet, n.Cond, out)
		walkExpr(homeSheet, n.Then, out)
		walkExpr(homeSheet, n.Else, out)
	case *addNode:
		walkExpr(homeSheet, n.left, out)
		walkExpr(homeSheet, n.right, out)
	case *subNode:
		walkExpr(homeSheet, n.left, out)
		walkExpr(homeSheet, n.right, out)
	case *mulNode:
		walkExpr(homeSheet, n.left, out)
		walkExpr(homeSheet, n.right, out)
	case *divNode:
		walkExpr(homeSheet, n.left, out)
		walkExpr(homeSheet, n.right, out)
	case *And:
		walkExpr(homeSheet, n.Left, out)
		walkExpr(homeSheet, n.Right, out)
	case *Or:
		walkExpr(homeSheet, n.Left, out)
		walkExpr(homeSheet, n.Right, out)
	case *Not:
		walkExpr(homeSheet, n.Operand, out)
	case *Eq:
		walkExpr(homeSheet, n.Left, out)
		walkExpr(homeSheet, n.Right, out)
	case *Neq:
		walkExpr(homeSheet, n.Left, out)
		walkExpr(homeSheet, n.Right, out)
	case *numericComparison:
		walkExpr(homeSheet, n.left, out)
		walkExpr(homeSheet, n.right, out)
	case *FoldRange[A]:
		for _, addr := range n.Range.Cells() {
			*out = append(*out, sheetAddr{homeSheet, addr})
		}
	case *SheetFoldRange[A]:
		for _, addr := range n.Range.Cells() {
			*out = append(*out, sheetAddr{n.Sheet, addr})
		}
	case *Call:
		for _, a := range n.Args {
			if a.Range != nil {
				sheet := a.Sheet
				if sheet == "" {
					sheet = homeSheet
				}
				for _, addr := range a.Range.Cells() {
					*out = append(*out, sheetAddr{sheet, addr})
				}
				continue
			}
			walkExpr(homeSheet, a.Scalar, out)
		}
	case *ToInt:
		walkExpr(homeSheet, n.Inner, out)
	case *DateToSerial:
		walkExpr(homeSheet, n.Inner, out)
	case *DateTimeToSerial:
		walkExpr(homeSheet, n.Inner, out)
	case *asNumericValue:
		walkExpr(homeSheet, n.Inner, out)
	case *asBooleanValue:
		walkExpr(homeSheet, n.Inner, out)
	case *numericAsValue:
		walkExpr(homeSheet, n.Inner, out)
	case *boolAsValue:
		walkExpr(homeSheet, n.Inner, out)
	case *stringAsValue:
		walkExpr(homeSheet, n.Inner, out)
	}
}

// DependencyGraph tracks, for every formula-bearing cell, which other
// cells it reads (precedents) and which cells read it (dependents), keyed
// by sheet-qualified address; a FoldRange's cells are expanded into the
// adjacency at collection time rather than kept as a separate range edge.
type DependencyGraph struct {
	precedents map[sheetAddr][]sheetAddr
	dependents map[sheetAddr][]sheetAddr
	formulas   map[sheetAddr]Expr[Value]
	order      []sheetAddr // insertion order, for deterministic traversal
}

// NewDependencyGraph builds an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		precedents: map[sheetAddr][]sheetAddr{},
		dependents: map[sheetAddr][]sheetAddr{},
		formulas:   map[sheetAddr]Expr[Value]{},
	}
}

// AddFormula registers (or re-registers) the formula living at sheet!addr,
// replacing any previously recorded precedent edges for that cell.
func (g *DependencyGraph) AddFormula(sheet string, addr ARef, expr Expr[Value]) {
	sa := sheetAddr{sheet, addr}
	if _, exists := g.formulas[sa]; !exists {
		g.order = append(g.order, sa)
	} else {
		for _, old := range g.precedents[sa] {
			g.removeDependent(old, sa)
		}
	}
	g.formulas[sa] = expr
	deps := collectDependencies(sheet, expr)
	g.precedents[sa] = deps
	for _, d := range deps {
		g.dependents[d] = append(g.dependents[d], sa)
	}
}

func (g *DependencyGraph) removeDependent(of, dep sheetAddr) {
	list := g.dependents[of]
	for i, x := range list {
		if x == dep {
			g.dependents[of] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// CalculationOrder runs a three-color DFS over the sheet-qualified graph:
// white/unvisited, gray/on the active recursion stack, black/finished. A
// back-edge to a gray node (including a self-loop) identifies every node
// on the stack from that node onward as one cycle; those cells are
// reported in cyclic and excluded from the returned order.
func (g *DependencyGraph) CalculationOrder() (order []sheetAddr, cyclic map[sheetAddr][]ARef) {
	const (
		white = iota
		gray
		black
	)
	color := map[sheetAddr]int{}
	cyclic = map[sheetAddr][]ARef{}
	var stack []sheetAddr

	var visit func(sheetAddr)
	visit = func(sa sheetAddr) {
		switch color[sa] {
		case black:
			return
		case gray:
			idx := stackIndex(stack, sa)
			cycle := append([]sheetAddr{}, stack[idx:]...)
			refs := toARefs(cycle)
			for _, c := range cycle {
				cyclic[c] = refs
			}
			return
		}
		color[sa] = gray
		stack = append(stack, sa)
		for _, p := range g.precedents[sa] {
			if _, isFormula := g.formulas[p]; isFormula {
				visit(p)
			}
		}
		stack = stack[:len(stack)-1]
		color[sa] = black
		if _, isCyclic := cyclic[sa]; !isCyclic {
			order = append(order, sa)
		}
	}

	for _, sa := range g.order {
		visit(sa)
	}
	return order, cyclic
}

func stackIndex(stack []sheetAddr, target sheetAddr) int {
	for i, s := range stack {
		if s == target {
			return i
		}
	}
	return 0
}

func toARefs(cycle []sheetAddr) []ARef {
	out := make([]ARef, len(cycle))
	for i, c := range cycle {
		out[i] = c.Addr
	}
	return out
}

// RecomputeResult carries per-cell evaluation failures from a Recompute
// pass, keyed by cell address (CircularRef for cyclic cells, the
// evaluator's own error otherwise).
type RecomputeResult struct {
	Errors map[ARef]error
}

// Recompute evaluates every formula cell in g in reverse-topological
// (precedents-first) order against wb, writing each success back as the
// cell's cached value and dropping the cache on failure — the formula
// source is preserved but the stale cached value is cleared. Cyclic cells
// are reported and left untouched. logger may be nil to run silently.
func Recompute(g *DependencyGraph, wb Workbook, clock Clock, logger *zerolog.Logger) *RecomputeResult {
	order, cyclic := g.CalculationOrder()
	result := &RecomputeResult{Errors: map[ARef]error{}}

	for sa, cycle := range cyclic {
		result.Errors[sa.Addr] = circularRef(cycle)
		if logger != nil {
			logger.Warn().Str("sheet", sa.Sheet).Str("cell", sa.Addr.String()).Msg("circular reference detected")
		}
	}

	for _, sa := range order {
		sheet, ok := wb.SheetByName(sa.Sheet)
		if !ok {
			result.Errors[sa.Addr] = evalFailed("sheet not found", sa.Sheet)
			continue
		}
		expr := g.formulas[sa]
		ctx := &EvalCtx{Sheet: sheet, Workbook: wb, Clock: clock}
		current := sheet.Get(sa.Addr)

		v, err := expr.Eval(ctx)
		if err != nil {
			sheet.Put(sa.Addr, FormulaValue(current.FormulaSource, nil))
			result.Errors[sa.Addr] = err
			if logger != nil {
				logger.Error().Err(err).Str("sheet", sa.Sheet).Str("cell", sa.Addr.String()).Msg("formula evaluation failed")
			}
			continue
		}
		sheet.Put(sa.Addr, FormulaValue(current.FormulaSource, &v))
	}
	return result
}
