package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/internal/event"
	"github.com/vinylen2/ellabib-server/internal/repository"
)

// RatingService re-derives book ratings from qualifying reviews. The rating
// on a book row is never edited directly; it is always recomputed from the
// current review set so that moderation actions cannot leave it stale.
type RatingService struct {
	books    repository.BookRepository
	rollups  repository.RollupRepository
	producer *event.Producer
	logger   *slog.Logger

	// singleMembership enables the membership-cardinality check during
	// reconciliation sweeps.
	singleMembership bool
}

// NewRatingService creates a new rating service.
func NewRatingService(
	books repository.BookRepository,
	rollups repository.RollupRepository,
	producer *event.Producer,
	logger *slog.Logger,
	singleMembership bool,
) *RatingService {
	return &RatingService{
		books:            books,
		rollups:          rollups,
		producer:         producer,
		logger:           logger,
		singleMembership: singleMembership,
	}
}

// RecomputeRating re-derives a book's rating and publishes a
// book.rating_updated event when the stored value changed.
func (s *RatingService) RecomputeRating(ctx context.Context, bookID string) (*float64, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get book for recompute: %w", err)
	}

	rating, err := s.books.RecomputeRating(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("recompute book rating: %w", err)
	}

	if !domain.RatingsEqual(book.Rating, rating) {
		if err := s.producer.PublishBookRatingUpdated(ctx, bookID, rating); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish book.rating_updated event",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()),
			)
			// Do not fail the operation if event publishing fails.
		}
	}

	return rating, nil
}

// RecomputeAfterModeration recomputes a book's rating after a moderation
// action has committed. The review state change is already durable at this
// point, so a failed recompute must not fail the moderation action: the
// recompute is retried once and then logged for the reconciliation sweep to
// repair.
func (s *RatingService) RecomputeAfterModeration(ctx context.Context, bookID string) {
	if _, err := s.RecomputeRating(ctx, bookID); err != nil {
		s.logger.WarnContext(ctx, "book rating recompute failed, retrying",
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)

		if _, err := s.RecomputeRating(ctx, bookID); err != nil {
			s.logger.WarnContext(ctx, "book rating recompute failed after retry, rating may be stale until next reconciliation",
				slog.String("book_id", bookID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ReconcileAll re-derives the rating of every book and reports membership
// cardinality violations when single membership is enforced. Returns the
// number of books successfully reconciled.
func (s *RatingService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.books.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books for reconciliation: %w", err)
	}

	reconciled := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return reconciled, fmt.Errorf("reconciliation interrupted: %w", ctx.Err())
		}

		if _, err := s.RecomputeRating(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "reconciliation skipped book",
				slog.String("book_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		reconciled++
	}

	if s.singleMembership {
		count, err := s.rollups.CountMultiClassUsers(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "membership cardinality check failed",
				slog.String("error", err.Error()),
			)
		} else if count > 0 {
			s.logger.WarnContext(ctx, "users with multiple class memberships found, rollups may double count",
				slog.Int("user_count", count),
			)
		}
	}

	s.logger.InfoContext(ctx, "rating reconciliation completed",
		slog.Int("books_total", len(ids)),
		slog.Int("books_reconciled", reconciled),
	)

	return reconciled, nil
}
