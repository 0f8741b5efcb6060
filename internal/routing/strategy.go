// Package routing classifies files into extraction strategies from
// their dependency and complexity scores.
package routing

// Strategy is the extraction depth committed for one file. The order
// is meaningful: each step down is the next cheaper rendering, with
// Skip as the zero-cost floor.
type Strategy int

const (
	Skip Strategy = iota
	Minimal
	Signature
	Full
)

// String returns the manifest name of the strategy.
func (s Strategy) String() string {
	switch s {
	case Skip:
		return "SKIP"
	case Minimal:
		return "MINIMAL"
	case Signature:
		return "SIGNATURE"
	case Full:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// Downgrade returns the next cheaper strategy, stopping at Skip.
func (s Strategy) Downgrade() Strategy {
	if s <= Skip {
		return Skip
	}
	return s - 1
}
