package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateRating_Empty(t *testing.T) {
	assert.Nil(t, AggregateRating(nil))
	assert.Nil(t, AggregateRating([]int{}))
}

func TestAggregateRating_SingleReview(t *testing.T) {
	got := AggregateRating([]int{4})
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got)
}

func TestAggregateRating_MeanRoundedToHalf(t *testing.T) {
	// mean(4,5) = 4.5
	got := AggregateRating([]int{4, 5})
	require.NotNil(t, got)
	assert.Equal(t, 4.5, *got)

	// mean(4,4,5) = 4.333... -> 4.5
	got = AggregateRating([]int{4, 4, 5})
	require.NotNil(t, got)
	assert.Equal(t, 4.5, *got)

	// mean(4,4,4,5) = 4.25 -> ties round up -> 4.5
	got = AggregateRating([]int{4, 4, 4, 5})
	require.NotNil(t, got)
	assert.Equal(t, 4.5, *got)

	// mean(1,2) = 1.5 exactly
	got = AggregateRating([]int{1, 2})
	require.NotNil(t, got)
	assert.Equal(t, 1.5, *got)
}

func TestRoundToHalf(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{4.25, 4.5}, // tie rounds to the higher half-step
		{4.24, 4.0},
		{4.1, 4.0},
		{4.3, 4.5},
		{4.6, 4.5},
		{4.75, 5.0},
		{4.76, 5.0},
		{1.0, 1.0},
		{5.0, 5.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundToHalf(tt.in), "RoundToHalf(%v)", tt.in)
	}
}

func TestRatingsEqual(t *testing.T) {
	a, b := 4.5, 4.5
	c := 4.0

	assert.True(t, RatingsEqual(nil, nil))
	assert.True(t, RatingsEqual(&a, &b))
	assert.False(t, RatingsEqual(&a, &c))
	assert.False(t, RatingsEqual(&a, nil))
	assert.False(t, RatingsEqual(nil, &a))
}
