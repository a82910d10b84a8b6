package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalsFromTiers_Empty(t *testing.T) {
	totals := TotalsFromTiers(nil, DefaultScoringPolicy())
	assert.Equal(t, ActivityTotals{}, totals)
}

func TestTotalsFromTiers_PagesWeighted(t *testing.T) {
	tiers := []TierActivity{
		{Tier: CompletenessSimple, Reviews: 2, Pages: 150},
		{Tier: CompletenessWritten, Reviews: 1, Pages: 200},
		{Tier: CompletenessNarrated, Reviews: 1, Pages: 80},
	}

	totals := TotalsFromTiers(tiers, DefaultScoringPolicy())

	assert.Equal(t, 430, totals.PagesRead)
	assert.Equal(t, 4, totals.BooksRead)
	assert.Equal(t, 2, totals.ReviewsWritten, "simple reviews do not count as written")
	// 150×1 + 200×2 + 80×3
	assert.Equal(t, 790, totals.Points)
}

func TestTotalsFromTiers_FlatWeighted(t *testing.T) {
	policy := DefaultScoringPolicy()
	policy.WeightMode = WeightModeFlat
	policy.FlatBase = 10

	tiers := []TierActivity{
		{Tier: CompletenessSimple, Reviews: 2, Pages: 150},
		{Tier: CompletenessNarrated, Reviews: 1, Pages: 80},
	}

	totals := TotalsFromTiers(tiers, policy)

	assert.Equal(t, 230, totals.PagesRead)
	assert.Equal(t, 3, totals.BooksRead)
	// 2×10×1 + 1×10×3
	assert.Equal(t, 50, totals.Points)
}

func TestTotalsFromTiers_ClassEqualsSumOfMembers(t *testing.T) {
	policy := DefaultScoringPolicy()

	// Three class members with disjoint review sets.
	members := [][]TierActivity{
		{{Tier: CompletenessSimple, Reviews: 1, Pages: 40}},
		{{Tier: CompletenessWritten, Reviews: 2, Pages: 180}},
		{
			{Tier: CompletenessWritten, Reviews: 1, Pages: 90},
			{Tier: CompletenessNarrated, Reviews: 1, Pages: 60},
		},
	}

	var sum ActivityTotals
	for _, tiers := range members {
		totals := TotalsFromTiers(tiers, policy)
		sum.PagesRead += totals.PagesRead
		sum.BooksRead += totals.BooksRead
		sum.ReviewsWritten += totals.ReviewsWritten
		sum.Points += totals.Points
	}

	// The class-level aggregate sees the same reviews grouped by tier.
	classTiers := []TierActivity{
		{Tier: CompletenessSimple, Reviews: 1, Pages: 40},
		{Tier: CompletenessWritten, Reviews: 3, Pages: 270},
		{Tier: CompletenessNarrated, Reviews: 1, Pages: 60},
	}

	assert.Equal(t, sum, TotalsFromTiers(classTiers, policy))
}

func TestRankEntries_OrderAndTieBreaks(t *testing.T) {
	entries := []LeaderboardEntry{
		{ScopeID: "c", Totals: ActivityTotals{Points: 100, PagesRead: 50}},
		{ScopeID: "a", Totals: ActivityTotals{Points: 300, PagesRead: 10}},
		{ScopeID: "b", Totals: ActivityTotals{Points: 100, PagesRead: 80}},
	}

	RankEntries(entries)

	assert.Equal(t, "a", entries[0].ScopeID)
	assert.Equal(t, "b", entries[1].ScopeID, "equal points break on pages read")
	assert.Equal(t, "c", entries[2].ScopeID)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestRankEntries_IdenticalTotalsTieBreakOnID(t *testing.T) {
	entries := []LeaderboardEntry{
		{ScopeID: "z", Totals: ActivityTotals{Points: 100, PagesRead: 50}},
		{ScopeID: "a", Totals: ActivityTotals{Points: 100, PagesRead: 50}},
	}

	RankEntries(entries)

	assert.Equal(t, "a", entries[0].ScopeID, "identical totals order by scope id ascending")
	assert.Equal(t, "z", entries[1].ScopeID)
}

func TestValidScopeType(t *testing.T) {
	assert.True(t, ValidScopeType(ScopeUser))
	assert.True(t, ValidScopeType(ScopeClass))
	assert.True(t, ValidScopeType(ScopeSchoolUnit))
	assert.False(t, ValidScopeType("district"))
}
