package xlformula

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date/time function specs: TODAY/NOW route through a Clock for volatile
// tracking; the rest build on the serial-number <-> time.Time conversions
// in expr.go.

func init() {
	register(&FunctionSpec{Name: "TODAY", Arity: Exact(0), Eval: todayEval, Flags: FunctionFlags{Volatile: true, ReturnsDate: true}})
	register(&FunctionSpec{Name: "NOW", Arity: Exact(0), Eval: nowEval, Flags: FunctionFlags{Volatile: true, ReturnsDate: true, ReturnsTime: true}})
	register(&FunctionSpec{Name: "DATE", Arity: Exact(3), Eval: dateEval, Flags: FunctionFlags{ReturnsDate: true}})
	register(&FunctionSpec{Name: "YEAR", Arity: Exact(1), Eval: yearEval})
	register(&FunctionSpec{Name: "MONTH", Arity: Exact(1), Eval: monthEval})
	register(&FunctionSpec{Name: "DAY", Arity: Exact(1), Eval: dayEval})
	register(&FunctionSpec{Name: "EDATE", Arity: Exact(2), Eval: edateEval, Flags: FunctionFlags{ReturnsDate: true}})
	register(&FunctionSpec{Name: "EOMONTH", Arity: Exact(2), Eval: eomonthEval, Flags: FunctionFlags{ReturnsDate: true}})
	register(&FunctionSpec{Name: "DATEDIF", Arity: Exact(3), Eval: datedifEval})
	register(&FunctionSpec{Name: "NETWORKDAYS", Arity: RangeArity(2, 3), Eval: networkdaysEval})
	register(&FunctionSpec{Name: "WORKDAY", Arity: RangeArity(2, 3), Eval: workdayEval, Flags: FunctionFlags{ReturnsDate: true}})
	register(&FunctionSpec{Name: "YEARFRAC", Arity: RangeArity(2, 3), Eval: yearfracEval})
}

// dateArg decodes a scalar Value as a date, accepting both a genuine
// KindDateTime and a bare numeric serial (a cell holding a date typically
// round-trips through a plain number once it's been computed).
func dateArg(v Value, fnName string) (time.Time, error) {
	switch v.Kind {
	case KindDateTime:
		return v.DateTime, nil
	case KindNumber:
		return serialToDate(v.Number), nil
	case KindFormula:
		if v.Cached != nil {
			return dateArg(*v.Cached, fnName)
		}
	}
	return time.Time{}, typeMismatch(fnName, "date", valueKindName(v.Kind))
}

func serialToDate(d Decimal) time.Time {
	whole := d.Truncate(0)
	frac := d.Sub(whole)
	days := whole.IntPart()
	t := excelEpoch.Add(time.Duration(days) * 24 * time.Hour)
	fracFloat, _ := frac.Float64()
	return t.Add(time.Duration(fracFloat * 86400 * float64(time.Second)))
}

func todayEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	return DateTimeValue(ctx.Clock.Today()), nil
}

func nowEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	return DateTimeValue(ctx.Clock.Now()), nil
}

func dateEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	y, m, d, err := threeInts(args, ctx, "DATE")
	if err != nil {
		return Value{}, err
	}
	t := time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.UTC)
	return DateTimeValue(t), nil
}

func threeInts(args []ArgSource, ctx *EvalCtx, fnName string) (int32, int32, int32, error) {
	var out [3]int32
	for i := 0; i < 3; i++ {
		v, err := scalar(args, i, ctx)
		if err != nil {
			return 0, 0, 0, err
		}
		n, err := intArg(v, fnName)
		if err != nil {
			return 0, 0, 0, err
		}
		out[i] = n
	}
	return out[0], out[1], out[2], nil
}

func yearEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	t, err := dateArg(v, "YEAR")
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(t.Year())), nil
}

func monthEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	t, err := dateArg(v, "MONTH")
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(t.Month())), nil
}

func dayEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	v, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	t, err := dateArg(v, "DAY")
	if err != nil {
		return Value{}, err
	}
	return IntValue(int64(t.Day())), nil
}

func edateEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	dateV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	t, err := dateArg(dateV, "EDATE")
	if err != nil {
		return Value{}, err
	}
	monthsV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	months, err := intArg(monthsV, "EDATE")
	if err != nil {
		return Value{}, err
	}
	// Clamp the day to the target month's length (Jan 31 + 1 month is Feb 28/29).
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return DateTimeValue(time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())), nil
}

func eomonthEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	dateV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	t, err := dateArg(dateV, "EOMONTH")
	if err != nil {
		return Value{}, err
	}
	monthsV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	months, err := intArg(monthsV, "EOMONTH")
	if err != nil {
		return Value{}, err
	}
	shifted := t.AddDate(0, int(months), 0)
	lastDay := time.Date(shifted.Year(), shifted.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return DateTimeValue(lastDay), nil
}

// datedifEval implements DATEDIF's six units.
func datedifEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	startV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	start, err := dateArg(startV, "DATEDIF")
	if err != nil {
		return Value{}, err
	}
	endV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	end, err := dateArg(endV, "DATEDIF")
	if err != nil {
		return Value{}, err
	}
	unitV, err := scalar(args, 2, ctx)
	if err != nil {
		return Value{}, err
	}
	unit := strings.ToUpper(stringArg(unitV))

	if end.Before(start) {
		return Value{}, evalFailed("DATEDIF: end date must not precede start date", "")
	}

	switch unit {
	case "Y":
		years := end.Year() - start.Year()
		if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
			years--
		}
		return IntValue(int64(years)), nil
	case "M":
		months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
		if end.Day() < start.Day() {
			months--
		}
		return IntValue(int64(months)), nil
	case "D":
		return IntValue(int64(end.Sub(start).Hours() / 24)), nil
	case "MD":
		d := end.Day() - start.Day()
		if d < 0 {
			prevMonth := time.Date(end.Year(), end.Month(), 0, 0, 0, 0, 0, time.UTC)
			d += prevMonth.Day()
		}
		return IntValue(int64(d)), nil
	case "YM":
		months := int(end.Month()) - int(start.Month())
		if end.Day() < start.Day() {
			months--
		}
		if months < 0 {
			months += 12
		}
		return IntValue(int64(months)), nil
	case "YD":
		adjusted := time.Date(end.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if adjusted.After(end) {
			adjusted = time.Date(end.Year()-1, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		}
		return IntValue(int64(end.Sub(adjusted).Hours() / 24)), nil
	default:
		return Value{}, evalFailed("DATEDIF: unknown unit", unit)
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func holidaySet(values []Value, fnName string) (map[int64]bool, error) {
	set := map[int64]bool{}
	for _, v := range values {
		if v.IsEmpty() {
			continue
		}
		t, err := dateArg(v, fnName)
		if err != nil {
			return nil, err
		}
		set[dateSerial(t).IntPart()] = true
	}
	return set, nil
}

func networkdaysEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	startV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	start, err := dateArg(startV, "NETWORKDAYS")
	if err != nil {
		return Value{}, err
	}
	endV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	end, err := dateArg(endV, "NETWORKDAYS")
	if err != nil {
		return Value{}, err
	}

	var holidays map[int64]bool
	if len(args) == 3 {
		values, err := args[2].Values(ctx)
		if err != nil {
			return Value{}, err
		}
		holidays, err = holidaySet(values, "NETWORKDAYS")
		if err != nil {
			return Value{}, err
		}
	}

	lo, hi, reverse := start, end, false
	if end.Before(start) {
		lo, hi, reverse = end, start, true
	}
	count := 0
	for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
		if isWeekend(d) || holidays[dateSerial(d).IntPart()] {
			continue
		}
		count++
	}
	if reverse {
		count = -count
	}
	return IntValue(int64(count)), nil
}

func workdayEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	startV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	start, err := dateArg(startV, "WORKDAY")
	if err != nil {
		return Value{}, err
	}
	daysV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	days, err := intArg(daysV, "WORKDAY")
	if err != nil {
		return Value{}, err
	}

	var holidays map[int64]bool
	if len(args) == 3 {
		values, err := args[2].Values(ctx)
		if err != nil {
			return Value{}, err
		}
		holidays, err = holidaySet(values, "WORKDAY")
		if err != nil {
			return Value{}, err
		}
	}

	step := int32(1)
	remaining := days
	if remaining < 0 {
		step = -1
		remaining = -remaining
	}
	cur := start
	for remaining > 0 {
		cur = cur.AddDate(0, 0, int(step))
		if isWeekend(cur) || holidays[dateSerial(cur).IntPart()] {
			continue
		}
		remaining--
	}
	return DateTimeValue(cur), nil
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// yearFraction implements YEARFRAC's five day-count bases.
func yearFraction(start, end time.Time, basis int32) (Decimal, error) {
	swap := end.Before(start)
	if swap {
		start, end = end, start
	}
	var frac float64
	switch basis {
	case 0, 4:
		d1, d2 := start.Day(), end.Day()
		if basis == 0 {
			if d1 == 31 {
				d1 = 30
			}
			if d2 == 31 && d1 == 30 {
				d2 = 30
			}
		} else {
			if d1 > 30 {
				d1 = 30
			}
			if d2 > 30 {
				d2 = 30
			}
		}
		days := (end.Year()-start.Year())*360 + (int(end.Month())-int(start.Month()))*30 + (d2 - d1)
		frac = float64(days) / 360
	case 2:
		frac = end.Sub(start).Hours() / 24 / 360
	case 3:
		frac = end.Sub(start).Hours() / 24 / 365
	case 1:
		frac = yearFracActualActual(start, end)
	default:
		return Decimal{}, evalFailed("YEARFRAC: basis must be 0-4", "")
	}
	if swap {
		frac = -frac
	}
	return decimal.NewFromFloat(frac), nil
}

// yearFracActualActual sums each calendar year's covered span weighted by
// that year's actual day count (365 or 366).
func yearFracActualActual(start, end time.Time) float64 {
	if start.Year() == end.Year() {
		daysInYear := 365.0
		if isLeapYear(start.Year()) {
			daysInYear = 366
		}
		return end.Sub(start).Hours() / 24 / daysInYear
	}
	total := 0.0
	cursor := start
	for cursor.Year() < end.Year() {
		next := time.Date(cursor.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
		daysInYear := 365.0
		if isLeapYear(cursor.Year()) {
			daysInYear = 366
		}
		total += next.Sub(cursor).Hours() / 24 / daysInYear
		cursor = next
	}
	daysInYear := 365.0
	if isLeapYear(cursor.Year()) {
		daysInYear = 366
	}
	total += end.Sub(cursor).Hours() / 24 / daysInYear
	return total
}

func yearfracEval(args []ArgSource, ctx *EvalCtx) (Value, error) {
	startV, err := scalar(args, 0, ctx)
	if err != nil {
		return Value{}, err
	}
	start, err := dateArg(startV, "YEARFRAC")
	if err != nil {
		return Value{}, err
	}
	endV, err := scalar(args, 1, ctx)
	if err != nil {
		return Value{}, err
	}
	end, err := dateArg(endV, "YEARFRAC")
	if err != nil {
		return Value{}, err
	}
	basis := ctx.options().DefaultDayCountBasis
	if len(args) == 3 {
		v, err := scalar(args, 2, ctx)
		if err != nil {
			return Value{}, err
		}
		basis, err = intArg(v, "YEARFRAC")
		if err != nil {
			return Value{}, err
		}
	}
	frac, err := yearFraction(start, end, basis)
	if err != nil {
		return Value{}, err
	}
	return NumberValue(frac), nil
}
