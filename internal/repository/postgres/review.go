package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/pkg/database"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, book_id, user_id, rating, review_text, description_text,
	   review_audio_url, description_audio_url, active, deleted, created_at, updated_at`

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (
			id, book_id, user_id, rating, review_text, description_text,
			review_audio_url, description_audio_url, active, deleted,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.BookID,
		review.UserID,
		review.Rating,
		review.ReviewText,
		review.DescriptionText,
		review.ReviewAudioURL,
		review.DescriptionAudioURL,
		review.Active,
		review.Deleted,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	var review domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.BookID,
		&review.UserID,
		&review.Rating,
		&review.ReviewText,
		&review.DescriptionText,
		&review.ReviewAudioURL,
		&review.DescriptionAudioURL,
		&review.Active,
		&review.Deleted,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &review, nil
}

// Update persists the review's mutable fields and lifecycle flags.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, review_text = $2, description_text = $3,
		    review_audio_url = $4, description_audio_url = $5,
		    active = $6, deleted = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.pool.Exec(ctx, query,
		review.Rating,
		review.ReviewText,
		review.DescriptionText,
		review.ReviewAudioURL,
		review.DescriptionAudioURL,
		review.Active,
		review.Deleted,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}

	return nil
}

// ListPending returns reviews awaiting moderation, oldest first so the
// moderation queue is processed in submission order.
func (r *ReviewRepository) ListPending(ctx context.Context) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE NOT active AND NOT deleted
		ORDER BY created_at ASC`

	return r.listReviews(ctx, query)
}

// ListActiveByBook returns a book's qualifying reviews with content, newest
// first. Simple reviews (rating only) carry nothing to display and are left
// out of the listing; they still count toward ratings and rollups.
func (r *ReviewRepository) ListActiveByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE book_id = $1 AND active AND NOT deleted
		  AND (review_text <> '' OR review_audio_url <> '')
		ORDER BY created_at DESC`

	return r.listReviews(ctx, query, bookID)
}

// CountActive returns the number of qualifying reviews across all books.
func (r *ReviewRepository) CountActive(ctx context.Context) (int, error) {
	query := `
		SELECT count(*)
		FROM reviews
		WHERE active AND NOT deleted`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active reviews: %w", err)
	}

	return count, nil
}

// listReviews executes a query expected to return review rows.
func (r *ReviewRepository) listReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.BookID,
			&review.UserID,
			&review.Rating,
			&review.ReviewText,
			&review.DescriptionText,
			&review.ReviewAudioURL,
			&review.DescriptionAudioURL,
			&review.Active,
			&review.Deleted,
			&review.CreatedAt,
			&review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}
