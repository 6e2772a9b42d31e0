package xlformula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFunctionCaseInsensitive(t *testing.T) {
	for _, name := range []string{"sum", "SUM", "Sum", "sUm"} {
		_, ok := LookupFunction(name)
		assert.Truef(t, ok, "LookupFunction(%q) not found", name)
	}
}

func TestLookupFunctionUnknown(t *testing.T) {
	_, ok := LookupFunction("NOSUCHFUNCTION")
	assert.False(t, ok, "LookupFunction unexpectedly found NOSUCHFUNCTION")
}

// TestSuggestFunctions checks that a misspelled function name surfaces
// a close match.
func TestSuggestFunctions(t *testing.T) {
	suggestions := SuggestFunctions("SUMM")
	require.NotEmpty(t, suggestions, "expected at least one suggestion for SUMM")
	assert.Contains(t, suggestions, "SUM")
	assert.LessOrEqual(t, len(suggestions), maxSuggestions)
}

func TestArityAccepts(t *testing.T) {
	cases := []struct {
		arity Arity
		n     int
		want  bool
	}{
		{Exact(2), 2, true},
		{Exact(2), 3, false},
		{RangeArity(2, 4), 2, true},
		{RangeArity(2, 4), 4, true},
		{RangeArity(2, 4), 5, false},
		{AtLeast(1), 1, true},
		{AtLeast(1), 0, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, c.arity.Accepts(c.n), "Arity(%+v).Accepts(%d)", c.arity, c.n)
	}
}
