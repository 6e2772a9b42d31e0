package xlformula

// Print renders e back into canonical formula text, `=`-prefixed. Every
// node already knows how to render itself via String(); Print is the
// public entry point over the root Value expression.
func Print(e Expr[Value]) string {
	return "=" + e.String()
}

// Shift translates every Ref/SheetRef/FoldRange address reachable from e
// by (dRow, dCol), leaving Absolute-anchored axes untouched (shifting
// `$A$1` is a no-op). It dispatches by a type switch over e's concrete
// node type.
func Shift[A any](e Expr[A], dRow, dCol int32) Expr[A] {
	switch n := any(e).(type) {

	case *Lit[A]:
		return e

	case *Ref[A]:
		shifted := &Ref[A]{Addr: shiftAddr(n.Addr, n.Anchor, dRow, dCol), Anchor: n.Anchor, Decode: n.Decode, DecodeName: n.DecodeName, Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *SheetRef[A]:
		shifted := &SheetRef[A]{Sheet: n.Sheet, Addr: shiftAddr(n.Addr, n.Anchor, dRow, dCol), Anchor: n.Anchor, Decode: n.Decode, DecodeName: n.DecodeName, Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *If[A]:
		shifted := &If[A]{Cond: Shift(n.Cond, dRow, dCol), Then: Shift(n.Then, dRow, dCol), Else: Shift(n.Else, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *addNode:
		shifted := &addNode{binaryNumeric{n.op, Shift(n.left, dRow, dCol), Shift(n.right, dRow, dCol), n.pos}}
		return any(shifted).(Expr[A])
	case *subNode:
		shifted := &subNode{binaryNumeric{n.op, Shift(n.left, dRow, dCol), Shift(n.right, dRow, dCol), n.pos}}
		return any(shifted).(Expr[A])
	case *mulNode:
		shifted := &mulNode{binaryNumeric{n.op, Shift(n.left, dRow, dCol), Shift(n.right, dRow, dCol), n.pos}}
		return any(shifted).(Expr[A])
	case *divNode:
		shifted := &divNode{binaryNumeric{n.op, Shift(n.left, dRow, dCol), Shift(n.right, dRow, dCol), n.pos}}
		return any(shifted).(Expr[A])

	case *And:
		shifted := &And{Left: Shift(n.Left, dRow, dCol), Right: Shift(n.Right, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *Or:
		shifted := &Or{Left: Shift(n.Left, dRow, dCol), Right: Shift(n.Right, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *Not:
		shifted := &Not{Operand: Shift(n.Operand, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *Eq:
		shifted := &Eq{Left: Shift(n.Left, dRow, dCol), Right: Shift(n.Right, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *Neq:
		shifted := &Neq{Left: Shift(n.Left, dRow, dCol), Right: Shift(n.Right, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *numericComparison:
		shifted := &numericComparison{n.op, Shift(n.left, dRow, dCol), Shift(n.right, dRow, dCol), n.pos, n.cmp}
		return any(shifted).(Expr[A])

	case *FoldRange[A]:
		shifted := &FoldRange[A]{Range: shiftCellRange(n.Range, dRow, dCol), Zero: n.Zero, Step: n.Step, Decode: n.Decode, Strict: n.Strict, Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *SheetFoldRange[A]:
		shifted := &SheetFoldRange[A]{Sheet: n.Sheet, Range: shiftCellRange(n.Range, dRow, dCol), Zero: n.Zero, Step: n.Step, Strict: n.Strict, Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *Call:
		args := make([]ArgSource, len(n.Args))
		for i, a := range n.Args {
			args[i] = shiftArgSource(a, dRow, dCol)
		}
		shifted := &Call{Spec: n.Spec, Args: args, Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *ToInt:
		shifted := &ToInt{Inner: Shift(n.Inner, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *DateToSerial:
		shifted := &DateToSerial{Inner: Shift(n.Inner, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])
	case *DateTimeToSerial:
		shifted := &DateTimeToSerial{Inner: Shift(n.Inner, dRow, dCol), Pos: n.Pos}
		return any(shifted).(Expr[A])

	case *asNumericValue:
		shifted := &asNumericValue{Inner: Shift(n.Inner, dRow, dCol)}
		return any(shifted).(Expr[A])
	case *asBooleanValue:
		shifted := &asBooleanValue{Inner: Shift(n.Inner, dRow, dCol)}
		return any(shifted).(Expr[A])
	case *numericAsValue:
		shifted := &numericAsValue{Inner: Shift(n.Inner, dRow, dCol)}
		return any(shifted).(Expr[A])
	case *boolAsValue:
		shifted := &boolAsValue{Inner: Shift(n.Inner, dRow, dCol)}
		return any(shifted).(Expr[A])
	case *stringAsValue:
		shifted := &stringAsValue{Inner: Shift(n.Inner, dRow, dCol)}
		return any(shifted).(Expr[A])

	default:
		return e
	}
}

func shiftAddr(a ARef, anchor Anchor, dRow, dCol int32) ARef {
	col, row := a.Col, a.Row
	if anchor != AnchorColAbsolute && anchor != AnchorAbsolute {
		col = shiftAxis(col, dCol)
	}
	if anchor != AnchorRowAbsolute && anchor != AnchorAbsolute {
		row = shiftAxis(row, dRow)
	}
	return ARef{Col: col, Row: row}
}

func shiftAxis(v uint32, d int32) uint32 {
	nv := int64(v) + int64(d)
	if nv < 0 {
		nv = 0
	}
	return uint32(nv)
}

// shiftCellRange shifts both corners unconditionally: ranges carry no
// per-corner $ anchor in this engine.
func shiftCellRange(r CellRange, dRow, dCol int32) CellRange {
	start := shiftAddr(ARef{Col: r.StartCol, Row: r.StartRow}, AnchorRelative, dRow, dCol)
	end := shiftAddr(ARef{Col: r.EndCol, Row: r.EndRow}, AnchorRelative, dRow, dCol)
	return CellRange{StartCol: start.Col, StartRow: start.Row, EndCol: end.Col, EndRow: end.Row}
}

func shiftArgSource(a ArgSource, dRow, dCol int32) ArgSource {
	if a.Range != nil {
		r := shiftCellRange(*a.Range, dRow, dCol)
		return ArgSource{Sheet: a.Sheet, Range: &r, Pos: a.Pos}
	}
	return ArgSource{Scalar: Shift(a.Scalar, dRow, dCol), Pos: a.Pos}
}
