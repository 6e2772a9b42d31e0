package xlformula

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ArityKind tags the shape a FunctionSpec's argument count may take:
// exactly n, a min..max range, or at least n.
type ArityKind uint8

const (
	ArityExact ArityKind = iota
	ArityRange
	ArityAtLeast
)

// Arity describes how many arguments a function accepts.
type Arity struct {
	Kind     ArityKind
	Min, Max int // Max is unused for ArityAtLeast; Min==Max for ArityExact
}

func Exact(n int) Arity        { return Arity{Kind: ArityExact, Min: n, Max: n} }
func RangeArity(min, max int) Arity { return Arity{Kind: ArityRange, Min: min, Max: max} }
func AtLeast(n int) Arity      { return Arity{Kind: ArityAtLeast, Min: n} }

// Accepts reports whether n arguments satisfy the arity.
func (a Arity) Accepts(n int) bool {
	switch a.Kind {
	case ArityExact:
		return n == a.Min
	case ArityRange:
		return n >= a.Min && n <= a.Max
	case ArityAtLeast:
		return n >= a.Min
	default:
		return false
	}
}

// FunctionSpec is a static function specification: its name, arity, and
// evaluator closure. Dispatch is always by spec identity — a Call node
// holds the *FunctionSpec directly, never re-hashing the name.
type FunctionSpec struct {
	Name  string
	Arity Arity
	Eval  func(args []ArgSource, ctx *EvalCtx) (Value, error)
	Flags FunctionFlags
}

// FunctionFlags records cross-cutting behavior a parser adapter or the
// dependency layer needs to know about a spec without inspecting its body.
type FunctionFlags struct {
	Volatile    bool // result depends on the clock (NOW/TODAY)
	ReturnsDate bool
	ReturnsTime bool
}

// registry is the static name -> spec table, built once at init; lookup
// is case-insensitive.
var registry = map[string]*FunctionSpec{}

var registryNames []string // sorted, for suggestion scans

func register(spec *FunctionSpec) {
	key := strings.ToUpper(spec.Name)
	if _, exists := registry[key]; exists {
		panic(engineError(EngineDuplicateRegistration, "xlformula: duplicate function registration: "+key))
	}
	registry[key] = spec
	registryNames = append(registryNames, key)
	sort.Strings(registryNames)
}

// LookupFunction resolves a function name case-insensitively.
func LookupFunction(name string) (*FunctionSpec, bool) {
	spec, ok := registry[strings.ToUpper(name)]
	return spec, ok
}

// maxSuggestions and maxSuggestionDistance bound the "did you mean"
// search.
const (
	maxSuggestions        = 3
	maxSuggestionDistance = 3
)

// SuggestFunctions returns up to maxSuggestions known function names
// within maxSuggestionDistance of name, closest first.
func SuggestFunctions(name string) []string {
	upper := strings.ToUpper(name)
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, known := range registryNames {
		d := levenshtein.ComputeDistance(upper, known)
		if d <= maxSuggestionDistance {
			candidates = append(candidates, scored{known, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(candidates) && i < maxSuggestions; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}
