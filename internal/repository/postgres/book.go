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

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `
		SELECT id, title, pages, picture_url, rating, created_at, updated_at
		FROM books
		WHERE id = $1`

	var b domain.Book
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.Pages,
		&b.PictureURL,
		&b.Rating,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("book", id)
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	return &b, nil
}

// ListIDs returns the ids of all books, for reconciliation sweeps.
func (r *BookRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM books ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list book ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book id rows: %w", err)
	}

	return ids, nil
}

// RecomputeRating re-derives a book's aggregate rating from its active,
// non-deleted reviews inside a single transaction. The read and write happen
// on the same connection so concurrent moderation actions cannot interleave
// between them. Returns the new rating, nil when no qualifying reviews exist.
func (r *BookRepository) RecomputeRating(ctx context.Context, bookID string) (*float64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ratingsQuery := `
		SELECT rating
		FROM reviews
		WHERE book_id = $1 AND active AND NOT deleted`

	rows, err := tx.Query(ctx, ratingsQuery, bookID)
	if err != nil {
		return nil, fmt.Errorf("query review ratings: %w", err)
	}

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan review rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rating rows: %w", err)
	}

	rating := domain.AggregateRating(ratings)

	updateQuery := `
		UPDATE books
		SET rating = $1, updated_at = $2
		WHERE id = $3`

	ct, err := tx.Exec(ctx, updateQuery, rating, time.Now().UTC(), bookID)
	if err != nil {
		return nil, fmt.Errorf("update book rating: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.NotFound("book", bookID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return rating, nil
}
