package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/internal/repository"
	"github.com/vinylen2/ellabib-server/pkg/database"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

// tierCase derives the completeness tier of a review row. Audio beats text;
// a rating-only review is simple.
const tierCase = `CASE WHEN r.review_audio_url <> '' THEN 'narrated'
		            WHEN r.review_text <> '' THEN 'written'
		            ELSE 'simple' END`

// RollupRepository implements repository.RollupRepository using PostgreSQL.
type RollupRepository struct {
	pool database.DBTX
}

// NewRollupRepository creates a new PostgreSQL-backed rollup repository.
func NewRollupRepository(pool database.DBTX) *RollupRepository {
	return &RollupRepository{pool: pool}
}

// GetClass retrieves a class by its ID.
func (r *RollupRepository) GetClass(ctx context.Context, id string) (*domain.Class, error) {
	query := `
		SELECT id, display_name, school_unit_id
		FROM classes
		WHERE id = $1`

	var c domain.Class
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.DisplayName, &c.SchoolUnitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("class", id)
		}
		return nil, fmt.Errorf("scan class: %w", err)
	}

	return &c, nil
}

// GetSchoolUnit retrieves a school unit by its ID.
func (r *RollupRepository) GetSchoolUnit(ctx context.Context, id string) (*domain.SchoolUnit, error) {
	query := `
		SELECT id, display_name, school_unit_code
		FROM school_units
		WHERE id = $1`

	var su domain.SchoolUnit
	err := r.pool.QueryRow(ctx, query, id).Scan(&su.ID, &su.DisplayName, &su.SchoolUnitCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("school unit", id)
		}
		return nil, fmt.Errorf("scan school unit: %w", err)
	}

	return &su, nil
}

// UserActivity returns per-tier aggregates for one user's qualifying reviews.
func (r *RollupRepository) UserActivity(ctx context.Context, userID string) ([]domain.TierActivity, error) {
	query := `
		SELECT ` + tierCase + ` AS tier,
		       count(*) AS reviews,
		       COALESCE(sum(b.pages), 0) AS pages
		FROM reviews r
		JOIN books b ON b.id = r.book_id
		WHERE r.user_id = $1 AND r.active AND NOT r.deleted
		GROUP BY tier`

	return r.queryTierActivity(ctx, query, userID)
}

// ClassActivity returns per-tier aggregates over a class's members. The inner
// DISTINCT dedupes reviews when a user appears in the membership table more
// than once for the same class.
func (r *RollupRepository) ClassActivity(ctx context.Context, classID string) ([]domain.TierActivity, error) {
	query := `
		SELECT t.tier,
		       count(*) AS reviews,
		       COALESCE(sum(t.pages), 0) AS pages
		FROM (
			SELECT DISTINCT r.id, ` + tierCase + ` AS tier, b.pages
			FROM reviews r
			JOIN books b ON b.id = r.book_id
			JOIN user_classes uc ON uc.user_id = r.user_id
			WHERE uc.class_id = $1 AND r.active AND NOT r.deleted
		) t
		GROUP BY t.tier`

	return r.queryTierActivity(ctx, query, classID)
}

// SchoolUnitActivity returns per-tier aggregates over a school unit's members.
func (r *RollupRepository) SchoolUnitActivity(ctx context.Context, unitID string) ([]domain.TierActivity, error) {
	query := `
		SELECT t.tier,
		       count(*) AS reviews,
		       COALESCE(sum(t.pages), 0) AS pages
		FROM (
			SELECT DISTINCT r.id, ` + tierCase + ` AS tier, b.pages
			FROM reviews r
			JOIN books b ON b.id = r.book_id
			JOIN user_school_units usu ON usu.user_id = r.user_id
			WHERE usu.school_unit_id = $1 AND r.active AND NOT r.deleted
		) t
		GROUP BY t.tier`

	return r.queryTierActivity(ctx, query, unitID)
}

// ListScopeActivity returns per-scope, per-tier aggregate rows for all scopes
// of the given type, including scopes with no qualifying reviews. Rows for
// inactive scopes carry an empty tier and zero counts.
func (r *RollupRepository) ListScopeActivity(ctx context.Context, scopeType string, filterIDs []string) ([]repository.ScopeTierActivity, error) {
	query, err := scopeActivityQuery(scopeType, len(filterIDs) > 0)
	if err != nil {
		return nil, err
	}

	var args []any
	if len(filterIDs) > 0 {
		args = append(args, filterIDs)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s activity: %w", scopeType, err)
	}
	defer rows.Close()

	result := make([]repository.ScopeTierActivity, 0)
	for rows.Next() {
		var (
			row  repository.ScopeTierActivity
			tier *string
		)
		if err := rows.Scan(&row.ScopeID, &row.DisplayName, &tier, &row.Reviews, &row.Pages); err != nil {
			return nil, fmt.Errorf("scan %s activity row: %w", scopeType, err)
		}
		if tier != nil {
			row.Tier = *tier
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s activity rows: %w", scopeType, err)
	}

	return result, nil
}

// CountMultiClassUsers returns the number of users belonging to more than one class.
func (r *RollupRepository) CountMultiClassUsers(ctx context.Context) (int, error) {
	query := `
		SELECT count(*)
		FROM (
			SELECT user_id
			FROM user_classes
			GROUP BY user_id
			HAVING count(DISTINCT class_id) > 1
		) m`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count multi-class users: %w", err)
	}

	return count, nil
}

// scopeActivityQuery builds the leaderboard aggregate query for one scope
// type. The LEFT JOIN keeps scopes with no qualifying reviews in the result.
func scopeActivityQuery(scopeType string, filtered bool) (string, error) {
	var scopeTable, scopeName, joinClause string

	switch scopeType {
	case domain.ScopeUser:
		scopeTable = "users s"
		scopeName = "s.first_name || ' ' || s.last_name"
		joinClause = `
			SELECT r.id, r.user_id AS scope_id, ` + tierCase + ` AS tier, b.pages
			FROM reviews r
			JOIN books b ON b.id = r.book_id
			WHERE r.active AND NOT r.deleted`
	case domain.ScopeClass:
		scopeTable = "classes s"
		scopeName = "s.display_name"
		joinClause = `
			SELECT DISTINCT r.id, uc.class_id AS scope_id, ` + tierCase + ` AS tier, b.pages
			FROM reviews r
			JOIN books b ON b.id = r.book_id
			JOIN user_classes uc ON uc.user_id = r.user_id
			WHERE r.active AND NOT r.deleted`
	case domain.ScopeSchoolUnit:
		scopeTable = "school_units s"
		scopeName = "s.display_name"
		joinClause = `
			SELECT DISTINCT r.id, usu.school_unit_id AS scope_id, ` + tierCase + ` AS tier, b.pages
			FROM reviews r
			JOIN books b ON b.id = r.book_id
			JOIN user_school_units usu ON usu.user_id = r.user_id
			WHERE r.active AND NOT r.deleted`
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown scope type %q", scopeType))
	}

	whereClause := ""
	if filtered {
		whereClause = "WHERE s.id = ANY($1)"
	}

	query := fmt.Sprintf(`
		SELECT s.id, %s AS display_name, t.tier,
		       count(t.id) AS reviews,
		       COALESCE(sum(t.pages), 0) AS pages
		FROM %s
		LEFT JOIN (%s
		) t ON t.scope_id = s.id
		%s
		GROUP BY s.id, display_name, t.tier
		ORDER BY s.id`,
		scopeName, scopeTable, joinClause, whereClause,
	)

	return query, nil
}

// queryTierActivity executes a query returning (tier, reviews, pages) rows.
func (r *RollupRepository) queryTierActivity(ctx context.Context, query string, args ...any) ([]domain.TierActivity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tier activity: %w", err)
	}
	defer rows.Close()

	tiers := make([]domain.TierActivity, 0)
	for rows.Next() {
		var t domain.TierActivity
		if err := rows.Scan(&t.Tier, &t.Reviews, &t.Pages); err != nil {
			return nil, fmt.Errorf("scan tier activity row: %w", err)
		}
		tiers = append(tiers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tier activity rows: %w", err)
	}

	return tiers, nil
}
