package kde

const (
	// density contributions beyond this many bandwidths are below exp(-32)
	// relative to the peak, so truncation cannot move a score visibly.
	MinCutoffSigmas = 8.0

	// truncated sums must exceed the bound on the dropped mass by this factor.
	cutoffMassRatio = 1e12

	DefaultFolds    = 5
	DefaultFoldSeed = 42

	DefaultGridSize = 100
	DefaultCut      = 3.0

	// default cross-validation candidates span the reference bandwidth
	// divided and multiplied by DefaultCandidateSpan.
	DefaultCandidateSpan  = 10.0
	DefaultCandidateCount = 20

	// robust sigma uses IQR / 1.349, the IQR of a standard normal.
	iqrNormalize = 1.349
)
