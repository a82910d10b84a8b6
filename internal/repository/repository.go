package repository

import (
	"context"

	"github.com/vinylen2/ellabib-server/internal/domain"
)

// ScopeTierActivity is one per-scope, per-tier aggregate row used to build
// leaderboards. Rows for scopes without qualifying reviews have a zero
// Reviews count and an empty Tier.
type ScopeTierActivity struct {
	ScopeID     string
	DisplayName string
	Tier        string
	Reviews     int
	Pages       int
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Update persists the review's mutable fields and lifecycle flags.
	Update(ctx context.Context, review *domain.Review) error

	// ListPending returns reviews awaiting moderation (not active, not deleted).
	ListPending(ctx context.Context) ([]domain.Review, error)

	// ListActiveByBook returns a book's qualifying reviews that carry text
	// or audio content, newest first.
	ListActiveByBook(ctx context.Context, bookID string) ([]domain.Review, error)

	// CountActive returns the number of qualifying reviews across all books.
	CountActive(ctx context.Context) (int, error)
}

// BookRepository defines persistence operations for books.
type BookRepository interface {
	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// ListIDs returns the ids of all books, for reconciliation sweeps.
	ListIDs(ctx context.Context) ([]string, error)

	// RecomputeRating re-derives the book's rating from its qualifying
	// reviews in a single transaction and returns the new value (nil when
	// no qualifying reviews exist).
	RecomputeRating(ctx context.Context, bookID string) (*float64, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RollupRepository provides the aggregate queries behind activity rollups
// and leaderboards. All queries count only active, non-deleted reviews.
type RollupRepository interface {
	// GetClass retrieves a class by id.
	GetClass(ctx context.Context, id string) (*domain.Class, error)

	// GetSchoolUnit retrieves a school unit by id.
	GetSchoolUnit(ctx context.Context, id string) (*domain.SchoolUnit, error)

	// UserActivity returns per-tier aggregates for one user's reviews.
	UserActivity(ctx context.Context, userID string) ([]domain.TierActivity, error)

	// ClassActivity returns per-tier aggregates over a class's members.
	ClassActivity(ctx context.Context, classID string) ([]domain.TierActivity, error)

	// SchoolUnitActivity returns per-tier aggregates over a school unit's members.
	SchoolUnitActivity(ctx context.Context, unitID string) ([]domain.TierActivity, error)

	// ListScopeActivity returns per-scope, per-tier aggregates for every
	// scope of the given type (optionally restricted to filterIDs),
	// including scopes with no qualifying reviews.
	ListScopeActivity(ctx context.Context, scopeType string, filterIDs []string) ([]ScopeTierActivity, error)

	// CountMultiClassUsers returns the number of users belonging to more
	// than one class, used to surface membership-cardinality violations.
	CountMultiClassUsers(ctx context.Context) (int, error)
}
