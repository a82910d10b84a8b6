package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReview_State(t *testing.T) {
	tests := []struct {
		name    string
		active  bool
		deleted bool
		want    string
	}{
		{"pending", false, false, ReviewStatePending},
		{"active", true, false, ReviewStateActive},
		{"deleted", false, true, ReviewStateDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Review{Active: tt.active, Deleted: tt.deleted}
			assert.Equal(t, tt.want, r.State())
		})
	}
}

func TestReview_Completeness(t *testing.T) {
	tests := []struct {
		name   string
		review Review
		want   string
	}{
		{"rating only", Review{Rating: 4}, CompletenessSimple},
		{"with text", Review{Rating: 4, ReviewText: "great book"}, CompletenessWritten},
		{"with audio", Review{Rating: 4, ReviewAudioURL: "rec.mp3"}, CompletenessNarrated},
		{"audio wins over text", Review{Rating: 4, ReviewText: "great", ReviewAudioURL: "rec.mp3"}, CompletenessNarrated},
		{"description text alone does not make it written", Review{Rating: 4, DescriptionText: "about a dog"}, CompletenessSimple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.review.Completeness())
		})
	}
}

func TestReview_MarkActive(t *testing.T) {
	now := time.Now().UTC()
	r := Review{}

	r.MarkActive(now)

	assert.True(t, r.Active)
	assert.False(t, r.Deleted)
	assert.Equal(t, now, r.UpdatedAt)
}

func TestReview_MarkActive_DeletedIsIgnored(t *testing.T) {
	now := time.Now().UTC()
	r := Review{Deleted: true}

	assert.False(t, r.CanActivate())
	r.MarkActive(now)

	assert.False(t, r.Active, "deleted review must never become active")
	assert.True(t, r.Deleted)
}

func TestReview_MarkDeleted_ForcesInactive(t *testing.T) {
	now := time.Now().UTC()

	// From any state, deletion forces active=false.
	for _, active := range []bool{true, false} {
		r := Review{Active: active}
		r.MarkDeleted(now)

		assert.True(t, r.Deleted)
		assert.False(t, r.Active, "deleted implies not active")
		assert.False(t, r.IsQualifying())
	}
}

func TestReview_MarkDeleted_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	r := Review{Active: true}

	r.MarkDeleted(now)
	r.MarkDeleted(now.Add(time.Minute))

	assert.True(t, r.Deleted)
	assert.False(t, r.Active)
}

func TestReview_IsQualifying(t *testing.T) {
	assert.False(t, (&Review{}).IsQualifying(), "pending does not qualify")
	assert.True(t, (&Review{Active: true}).IsQualifying())
	assert.False(t, (&Review{Deleted: true}).IsQualifying())
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

func TestValidTextField(t *testing.T) {
	assert.True(t, ValidTextField(TextFieldReview))
	assert.True(t, ValidTextField(TextFieldDescription))
	assert.False(t, ValidTextField("title"))
}
