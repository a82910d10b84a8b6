package domain

// Weight mode constants for the scoring policy.
const (
	// WeightModePages scores a review as tierMultiplier × pages(book).
	WeightModePages = "pages"
	// WeightModeFlat scores a review as tierMultiplier × flatBase, regardless
	// of book length.
	WeightModeFlat = "flat"
)

// DefaultFlatBase is the per-review base weight used in flat mode.
const DefaultFlatBase = 10

// ScoringPolicy maps a review's completeness tier to a point value. It is
// built once from configuration and injected into the rollup engine so the
// same formula applies uniformly across user, class, and school-unit scopes.
type ScoringPolicy struct {
	TierMultiplier map[string]int
	WeightMode     string
	FlatBase       int
}

// DefaultScoringPolicy returns the pages-weighted policy with multipliers
// simple=1, written=2, narrated=3.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		TierMultiplier: map[string]int{
			CompletenessSimple:   1,
			CompletenessWritten:  2,
			CompletenessNarrated: 3,
		},
		WeightMode: WeightModePages,
		FlatBase:   DefaultFlatBase,
	}
}

// Points returns the point value for an aggregate of reviews in a single
// tier: pages is the summed page count and reviews the review count of the
// aggregate. For a single review, pass its book's page count and 1.
func (p ScoringPolicy) Points(tier string, pages, reviews int) int {
	mult, ok := p.TierMultiplier[tier]
	if !ok {
		return 0
	}

	switch p.WeightMode {
	case WeightModeFlat:
		return mult * p.FlatBase * reviews
	default:
		return mult * pages
	}
}

// ValidWeightMode reports whether the given mode is a known weight mode.
func ValidWeightMode(mode string) bool {
	return mode == WeightModePages || mode == WeightModeFlat
}
