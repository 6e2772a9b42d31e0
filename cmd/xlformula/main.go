// Command xlformula is a minimal REPL over the engine: type a formula, see
// it evaluated against a single scratch sheet named "Sheet1". This is a
// demonstration harness, not a file-format reader — there is no workbook
// codec behind it.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	xlformula "github.com/arborly/xlformula"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	wb := xlformula.NewMemWorkbook()
	sheet := xlformula.NewMemSheet("Sheet1")
	wb.AddSheet(sheet)
	clock := xlformula.SystemClock{}
	ctx := &xlformula.EvalCtx{Sheet: sheet, Workbook: wb, Clock: clock}

	fmt.Println("xlformula REPL — enter a formula (e.g. =SUM(A1:A3)), or 'A1 = 5' to set a cell, Ctrl-D to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "=") {
			if handled := tryAssign(sheet, line); handled {
				continue
			}
		}
		evalAndPrint(line, ctx, &logger)
	}
}

// tryAssign handles the REPL-only "A1 = 5" cell-literal shorthand; it is not
// part of the formula grammar.
func tryAssign(sheet *xlformula.MemSheet, line string) bool {
	eq := strings.Index(line, "=")
	if eq <= 0 {
		return false
	}
	addrText := strings.TrimSpace(line[:eq])
	rhs := strings.TrimSpace(line[eq+1:])
	addr, _, err := xlformula.ParseARef(addrText)
	if err != nil {
		return false
	}
	if strings.HasPrefix(rhs, "=") {
		sheet.Put(addr, xlformula.FormulaValue(rhs, nil))
		return true
	}
	sheet.Put(addr, literalValue(rhs))
	return true
}

// literalValue interprets a cell-assignment RHS the way a spreadsheet
// grid would: number, then boolean, then plain text.
func literalValue(rhs string) xlformula.Value {
	if d, err := decimal.NewFromString(rhs); err == nil {
		return xlformula.NumberValue(d)
	}
	switch strings.ToUpper(rhs) {
	case "TRUE":
		return xlformula.BoolValue(true)
	case "FALSE":
		return xlformula.BoolValue(false)
	}
	return xlformula.TextValue(rhs)
}

func evalAndPrint(formula string, ctx *xlformula.EvalCtx, logger *zerolog.Logger) {
	expr, err := xlformula.Parse(formula)
	if err != nil {
		logger.Error().Err(err).Msg("parse failed")
		fmt.Println(err)
		return
	}
	v, err := expr.Eval(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("eval failed")
		fmt.Println(err)
		return
	}
	fmt.Println(v.String())
}
