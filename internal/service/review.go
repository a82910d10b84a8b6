package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vinylen2/ellabib-server/internal/cache"
	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/internal/event"
	"github.com/vinylen2/ellabib-server/internal/repository"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

// ReviewService implements the review lifecycle: submission, moderation
// (activate, delete), and content edits. Every mutation that changes which
// reviews qualify triggers a rating recompute and a leaderboard cache
// invalidation after the state change has committed.
type ReviewService struct {
	reviews  repository.ReviewRepository
	books    repository.BookRepository
	users    repository.UserRepository
	ratings  *RatingService
	producer *event.Producer
	cache    *cache.LeaderboardCache
	logger   *slog.Logger
}

// NewReviewService creates a new review service. The cache may be nil when
// leaderboard caching is disabled.
func NewReviewService(
	reviews repository.ReviewRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	ratings *RatingService,
	producer *event.Producer,
	lbCache *cache.LeaderboardCache,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		books:    books,
		users:    users,
		ratings:  ratings,
		producer: producer,
		cache:    lbCache,
		logger:   logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	BookID              string
	UserID              string
	Rating              int
	ReviewText          string
	DescriptionText     string
	ReviewAudioURL      string
	DescriptionAudioURL string
}

// BatchActivateResult reports the outcome of a batch activation.
type BatchActivateResult struct {
	Activated []string          `json:"activated"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// SubmitReview creates a new review in the pending state. Pending reviews
// never affect book ratings or activity rollups, so no recompute happens
// here.
func (s *ReviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between 1 and 5, got %d", input.Rating))
	}

	if _, err := s.books.GetByID(ctx, input.BookID); err != nil {
		return nil, fmt.Errorf("get book for review: %w", err)
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, fmt.Errorf("get user for review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:                  uuid.New().String(),
		BookID:              input.BookID,
		UserID:              input.UserID,
		Rating:              input.Rating,
		ReviewText:          input.ReviewText,
		DescriptionText:     input.DescriptionText,
		ReviewAudioURL:      input.ReviewAudioURL,
		DescriptionAudioURL: input.DescriptionAudioURL,
		Active:              false,
		Deleted:             false,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("completeness", review.Completeness()),
	)

	return review, nil
}

// ActivateReview transitions a pending review to active. Activating an
// already active review is a no-op; activating a deleted review is an
// invalid transition.
func (s *ReviewService) ActivateReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for activate: %w", err)
	}

	if !review.CanActivate() {
		return nil, apperrors.InvalidState(fmt.Sprintf("review %s is deleted and cannot be activated", id))
	}

	if review.Active {
		return review, nil
	}

	review.MarkActive(time.Now().UTC())
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("activate review: %w", err)
	}

	// The review now qualifies; refresh derived data after the commit.
	s.ratings.RecomputeAfterModeration(ctx, review.BookID)
	s.invalidateLeaderboards(ctx)

	if err := s.producer.PublishReviewActivated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.activated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review activated",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	return review, nil
}

// ActivateReviews activates a batch of reviews. Activation is attempted for
// every id; failures are reported per id and do not abort the batch.
func (s *ReviewService) ActivateReviews(ctx context.Context, ids []string) (*BatchActivateResult, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("no review ids given")
	}

	result := &BatchActivateResult{
		Activated: make([]string, 0, len(ids)),
		Failed:    make(map[string]string),
	}

	for _, id := range ids {
		if _, err := s.ActivateReview(ctx, id); err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Activated = append(result.Activated, id)
	}

	s.logger.InfoContext(ctx, "batch review activation completed",
		slog.Int("requested", len(ids)),
		slog.Int("activated", len(result.Activated)),
		slog.Int("failed", len(result.Failed)),
	)

	return result, nil
}

// DeleteReview soft-deletes a review. Deletion is terminal and idempotent;
// deleting an already deleted review is a no-op. When the review was
// qualifying, the book rating is recomputed afterwards.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for delete: %w", err)
	}

	if review.Deleted {
		return review, nil
	}

	wasQualifying := review.IsQualifying()

	review.MarkDeleted(time.Now().UTC())
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}

	if wasQualifying {
		s.ratings.RecomputeAfterModeration(ctx, review.BookID)
		s.invalidateLeaderboards(ctx)
	}

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.Bool("was_qualifying", wasQualifying),
	)

	return review, nil
}

// EditReviewText replaces the review or description text of a review.
// Deleted reviews cannot be edited.
func (s *ReviewService) EditReviewText(ctx context.Context, id, field, text string) (*domain.Review, error) {
	if !domain.ValidTextField(field) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown text field %q", field))
	}

	review, err := s.editableReview(ctx, id)
	if err != nil {
		return nil, err
	}

	switch field {
	case domain.TextFieldReview:
		review.ReviewText = text
	case domain.TextFieldDescription:
		review.DescriptionText = text
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("edit review text: %w", err)
	}

	// Text edits can change the completeness tier, which moves points.
	if review.IsQualifying() {
		s.invalidateLeaderboards(ctx)
	}

	s.logger.InfoContext(ctx, "review text edited",
		slog.String("review_id", review.ID),
		slog.String("field", field),
		slog.String("completeness", review.Completeness()),
	)

	return review, nil
}

// EditReviewRating replaces the rating of a review. When the review is
// qualifying, the book rating is recomputed afterwards.
func (s *ReviewService) EditReviewRating(ctx context.Context, id string, rating int) (*domain.Review, error) {
	if !domain.ValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between 1 and 5, got %d", rating))
	}

	review, err := s.editableReview(ctx, id)
	if err != nil {
		return nil, err
	}

	review.Rating = rating
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("edit review rating: %w", err)
	}

	if review.IsQualifying() {
		s.ratings.RecomputeAfterModeration(ctx, review.BookID)
	}

	s.logger.InfoContext(ctx, "review rating edited",
		slog.String("review_id", review.ID),
		slog.Int("rating", rating),
	)

	return review, nil
}

// EditReviewAudio replaces the review or description audio recording URL.
func (s *ReviewService) EditReviewAudio(ctx context.Context, id, field, url string) (*domain.Review, error) {
	if field != domain.AudioFieldReview && field != domain.AudioFieldDescription {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown audio field %q", field))
	}

	review, err := s.editableReview(ctx, id)
	if err != nil {
		return nil, err
	}

	switch field {
	case domain.AudioFieldReview:
		review.ReviewAudioURL = url
	case domain.AudioFieldDescription:
		review.DescriptionAudioURL = url
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("edit review audio: %w", err)
	}

	// Audio edits can change the completeness tier, which moves points.
	if review.IsQualifying() {
		s.invalidateLeaderboards(ctx)
	}

	s.logger.InfoContext(ctx, "review audio edited",
		slog.String("review_id", review.ID),
		slog.String("field", field),
		slog.String("completeness", review.Completeness()),
	)

	return review, nil
}

// ListPendingReviews returns the moderation queue, oldest first.
func (s *ReviewService) ListPendingReviews(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return reviews, nil
}

// ListBookReviews returns a book's displayable qualifying reviews, newest
// first. Simple reviews are excluded; they have no content to show.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID string) ([]domain.Review, error) {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, fmt.Errorf("get book for review list: %w", err)
	}

	reviews, err := s.reviews.ListActiveByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book reviews: %w", err)
	}
	return reviews, nil
}

// CountActiveReviews returns the number of qualifying reviews across all books.
func (s *ReviewService) CountActiveReviews(ctx context.Context) (int, error) {
	count, err := s.reviews.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active reviews: %w", err)
	}
	return count, nil
}

// editableReview loads a review and rejects edits on deleted ones.
func (s *ReviewService) editableReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for edit: %w", err)
	}

	if review.Deleted {
		return nil, apperrors.InvalidState(fmt.Sprintf("review %s is deleted and cannot be edited", id))
	}

	return review, nil
}

// invalidateLeaderboards drops cached leaderboards after a change to the
// qualifying review set. Failures are logged; the cache TTL bounds staleness.
func (s *ReviewService) invalidateLeaderboards(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate leaderboard cache",
			slog.String("error", err.Error()),
		)
	}
}
