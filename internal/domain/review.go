package domain

import (
	"time"
)

// Completeness tier constants. Tiers are mutually exclusive and ordered
// simple < written < narrated.
const (
	CompletenessSimple   = "simple"
	CompletenessWritten  = "written"
	CompletenessNarrated = "narrated"
)

// Review state constants. The state is derived from the Active/Deleted pair:
// pending (false,false), active (true,false), deleted (false,true).
const (
	ReviewStatePending = "pending"
	ReviewStateActive  = "active"
	ReviewStateDeleted = "deleted"
)

// Review represents a student's review of a book.
type Review struct {
	ID                  string    `json:"id"`
	BookID              string    `json:"book_id"`
	UserID              string    `json:"user_id"`
	Rating              int       `json:"rating"`
	ReviewText          string    `json:"review_text,omitempty"`
	DescriptionText     string    `json:"description_text,omitempty"`
	ReviewAudioURL      string    `json:"review_audio_url,omitempty"`
	DescriptionAudioURL string    `json:"description_audio_url,omitempty"`
	Active              bool      `json:"active"`
	Deleted             bool      `json:"deleted"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// State returns the lifecycle state derived from the Active/Deleted pair.
func (r *Review) State() string {
	switch {
	case r.Deleted:
		return ReviewStateDeleted
	case r.Active:
		return ReviewStateActive
	default:
		return ReviewStatePending
	}
}

// Completeness classifies the review by content richness: audio present
// means narrated, else text present means written, else simple.
func (r *Review) Completeness() string {
	if r.ReviewAudioURL != "" {
		return CompletenessNarrated
	}
	if r.ReviewText != "" {
		return CompletenessWritten
	}
	return CompletenessSimple
}

// CanActivate reports whether the review may transition to active.
// Deleted reviews can never be reactivated; activating an already active
// review is a permitted no-op.
func (r *Review) CanActivate() bool {
	return !r.Deleted
}

// MarkActive transitions the review to the active state. The caller must
// check CanActivate first; MarkActive on a deleted review is a programming
// error and is ignored.
func (r *Review) MarkActive(now time.Time) {
	if r.Deleted {
		return
	}
	r.Active = true
	r.UpdatedAt = now
}

// MarkDeleted soft-deletes the review. Deletion is terminal and forces
// Active to false so that deleted reviews never count toward aggregates.
func (r *Review) MarkDeleted(now time.Time) {
	r.Active = false
	r.Deleted = true
	r.UpdatedAt = now
}

// IsQualifying reports whether the review counts toward ratings and
// activity rollups.
func (r *Review) IsQualifying() bool {
	return r.Active && !r.Deleted
}

// ValidRating reports whether the given rating is within the accepted 1..5 range.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// Text field names accepted by the edit-text operation.
const (
	TextFieldReview      = "review"
	TextFieldDescription = "description"
)

// ValidTextField reports whether the given field name is editable review text.
func ValidTextField(field string) bool {
	return field == TextFieldReview || field == TextFieldDescription
}

// Audio field names accepted by the edit-audio operation.
const (
	AudioFieldReview      = "review"
	AudioFieldDescription = "description"
)
