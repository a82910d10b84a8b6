package domain

import (
	"sort"
	"time"
)

// Scope type constants for activity rollups.
const (
	ScopeUser       = "user"
	ScopeClass      = "class"
	ScopeSchoolUnit = "school_unit"
)

// ValidScopeType reports whether the given scope type is known.
func ValidScopeType(t string) bool {
	return t == ScopeUser || t == ScopeClass || t == ScopeSchoolUnit
}

// User is a student identity. Reading totals are recomputed on read from the
// user's qualifying reviews, not cached on the row.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ExtID     string    `json:"ext_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Class is a group of users belonging to a school unit.
type Class struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	SchoolUnitID string `json:"school_unit_id,omitempty"`
}

// SchoolUnit is a school-level group of users.
type SchoolUnit struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	SchoolUnitCode string `json:"school_unit_code,omitempty"`
}

// TierActivity is the per-completeness-tier aggregate of a scope's
// qualifying reviews, as returned by the rollup repository.
type TierActivity struct {
	Tier    string
	Reviews int
	Pages   int
}

// ActivityTotals is the rollup record for a scope: primitive totals plus the
// derived point score.
type ActivityTotals struct {
	PagesRead      int `json:"pages_read"`
	BooksRead      int `json:"books_read"`
	ReviewsWritten int `json:"reviews_written"`
	Points         int `json:"points"`
}

// TotalsFromTiers folds per-tier aggregates into activity totals using the
// given scoring policy. Every qualifying review counts as one book read;
// only non-simple reviews count as written.
func TotalsFromTiers(tiers []TierActivity, policy ScoringPolicy) ActivityTotals {
	var totals ActivityTotals
	for _, t := range tiers {
		totals.PagesRead += t.Pages
		totals.BooksRead += t.Reviews
		if t.Tier != CompletenessSimple {
			totals.ReviewsWritten += t.Reviews
		}
		totals.Points += policy.Points(t.Tier, t.Pages, t.Reviews)
	}
	return totals
}

// LeaderboardEntry is one ranked scope in a leaderboard.
type LeaderboardEntry struct {
	ScopeID     string         `json:"scope_id"`
	DisplayName string         `json:"display_name"`
	Totals      ActivityTotals `json:"totals"`
	Rank        int            `json:"rank"`
}

// RankEntries orders leaderboard entries by points descending, pages read
// descending, then scope id ascending so that ties are deterministic, and
// assigns 1-based ranks.
func RankEntries(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Totals.Points != entries[j].Totals.Points {
			return entries[i].Totals.Points > entries[j].Totals.Points
		}
		if entries[i].Totals.PagesRead != entries[j].Totals.PagesRead {
			return entries[i].Totals.PagesRead > entries[j].Totals.PagesRead
		}
		return entries[i].ScopeID < entries[j].ScopeID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
