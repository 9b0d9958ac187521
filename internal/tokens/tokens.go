// Package tokens estimates token counts for pre-flight capacity checks.
//
// The default estimator is a fixed byte-ratio heuristic: deterministic,
// dependency-free, stable across runs and machines. When a local
// tokenizer.json is configured, a vocabulary-backed estimator counts
// real subword tokens instead (see vocab.go).
package tokens

// Estimator turns a text blob into a non-negative token count. The
// count must be a deterministic function of the text alone: no network,
// no clock, no mutable state.
type Estimator interface {
	Estimate(text string) int
	Name() string
}

// bytesPerToken is the fixed approximation ratio. English prose with
// occasional tables averages 3.5-4.5 bytes per BPE token; 4 errs toward
// overestimating, which trips the capacity warning early instead of
// overflowing the model context.
const bytesPerToken = 4

// Heuristic is the default estimator: ceil(bytes / 4).
//
// The formula is approximately sub-additive: for texts a and b,
// Estimate(a+b) <= Estimate(a) + Estimate(b), and the sum exceeds the
// joined estimate by at most one token per concatenated piece (the
// ceiling rounds each piece up independently).
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic-bytes/4" }

func (Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + bytesPerToken - 1) / bytesPerToken
}
