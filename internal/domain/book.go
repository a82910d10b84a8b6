package domain

import (
	"math"
	"time"
)

// Book represents a book in the reading catalog. Rating is the aggregate of
// the book's qualifying reviews; nil means no qualifying reviews exist.
type Book struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Pages      int       `json:"pages"`
	PictureURL string    `json:"picture_url,omitempty"`
	Rating     *float64  `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AggregateRating computes the displayed rating for a set of review ratings:
// the arithmetic mean rounded to the nearest 0.5, ties rounding up.
// Returns nil for an empty set.
func AggregateRating(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}

	var sum int
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))

	rounded := RoundToHalf(mean)
	return &rounded
}

// RoundToHalf rounds to the nearest 0.5, with ties rounding to the higher
// half-step (4.25 -> 4.5, 4.24 -> 4.0).
func RoundToHalf(v float64) float64 {
	return math.Floor(v*2+0.5) / 2
}

// RatingsEqual compares two nullable ratings for equality.
func RatingsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
