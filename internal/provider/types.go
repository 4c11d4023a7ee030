package provider

// FearGreedPoint is one observation of the fear & greed index, before
// rounding and labeling.
type FearGreedPoint struct {
	Value float64
	AsOf  string
}

// VIXPoint is one daily VIX close.
type VIXPoint struct {
	Close float64
	AsOf  string
}
