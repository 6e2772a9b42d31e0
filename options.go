package xlformula

// EngineOptions collects the engine's tunable numeric knobs. The zero
// value is not meaningful; build one with NewEngineOptions so the
// defaults are filled in.
type EngineOptions struct {
	// MaxIterations bounds RATE/IRR/XIRR's Newton iteration.
	MaxIterations int
	// ConvergenceTolerance is the residual magnitude at which the
	// iteration is considered converged.
	ConvergenceTolerance float64
	// DefaultDayCountBasis is the YEARFRAC basis used when the caller
	// omits the third argument.
	DefaultDayCountBasis int32
}

// EngineOption mutates an EngineOptions under construction.
type EngineOption func(*EngineOptions)

// NewEngineOptions builds an EngineOptions with the package defaults,
// then applies opts in order.
func NewEngineOptions(opts ...EngineOption) *EngineOptions {
	o := &EngineOptions{
		MaxIterations:        maxIterations,
		ConvergenceTolerance: rateConvergenceTolerance,
		DefaultDayCountBasis: 0,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxIterations overrides the Newton iteration cap.
func WithMaxIterations(n int) EngineOption {
	return func(o *EngineOptions) { o.MaxIterations = n }
}

// WithConvergenceTolerance overrides the Newton convergence tolerance.
func WithConvergenceTolerance(tol float64) EngineOption {
	return func(o *EngineOptions) { o.ConvergenceTolerance = tol }
}

// WithDefaultDayCountBasis overrides YEARFRAC's implicit basis.
func WithDefaultDayCountBasis(basis int32) EngineOption {
	return func(o *EngineOptions) { o.DefaultDayCountBasis = basis }
}
