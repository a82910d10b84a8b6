package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/pkg/database"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

func setupRollupRepo(t *testing.T) (*RollupRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewRollupRepository(mock)
	return repo, mock
}

func tierActivityRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"tier", "reviews", "pages"})
}

// ---------------------------------------------------------------------------
// GetClass / GetSchoolUnit
// ---------------------------------------------------------------------------

func TestRollupRepository_GetClass_Success(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM classes WHERE id").
		WithArgs("class-3a").
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "school_unit_id"}).
			AddRow("class-3a", "3A", "unit-001"))

	c, err := repo.GetClass(context.Background(), "class-3a")
	require.NoError(t, err)
	assert.Equal(t, "3A", c.DisplayName)
	assert.Equal(t, "unit-001", c.SchoolUnitID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_GetClass_NotFound(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM classes WHERE id").
		WithArgs("nonexistent-id").
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.GetClass(context.Background(), "nonexistent-id")
	assert.Nil(t, c)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_GetSchoolUnit_Success(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM school_units WHERE id").
		WithArgs("unit-001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "school_unit_code"}).
			AddRow("unit-001", "Norra skolan", "NS01"))

	su, err := repo.GetSchoolUnit(context.Background(), "unit-001")
	require.NoError(t, err)
	assert.Equal(t, "Norra skolan", su.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// per-scope tier activity
// ---------------------------------------------------------------------------

func TestRollupRepository_UserActivity_Success(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM reviews r JOIN books b .+ r\.active AND NOT r\.deleted`).
		WithArgs("user-001").
		WillReturnRows(tierActivityRows().
			AddRow(domain.CompletenessSimple, 2, 150).
			AddRow(domain.CompletenessNarrated, 1, 80))

	tiers, err := repo.UserActivity(context.Background(), "user-001")
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, domain.TierActivity{Tier: domain.CompletenessSimple, Reviews: 2, Pages: 150}, tiers[0])
	assert.Equal(t, domain.TierActivity{Tier: domain.CompletenessNarrated, Reviews: 1, Pages: 80}, tiers[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_UserActivity_NoReviews(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM reviews r JOIN books b .+ r\.active AND NOT r\.deleted`).
		WithArgs("user-001").
		WillReturnRows(tierActivityRows())

	tiers, err := repo.UserActivity(context.Background(), "user-001")
	require.NoError(t, err)
	assert.NotNil(t, tiers)
	assert.Empty(t, tiers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_ClassActivity_Success(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM .+ JOIN user_classes uc .+ r\.active AND NOT r\.deleted`).
		WithArgs("class-3a").
		WillReturnRows(tierActivityRows().
			AddRow(domain.CompletenessWritten, 3, 420))

	tiers, err := repo.ClassActivity(context.Background(), "class-3a")
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, 420, tiers[0].Pages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_SchoolUnitActivity_QueryError(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM .+ JOIN user_school_units usu .+ r\.active AND NOT r\.deleted`).
		WithArgs("unit-001").
		WillReturnError(errors.New("connection reset"))

	tiers, err := repo.SchoolUnitActivity(context.Background(), "unit-001")
	assert.Nil(t, tiers)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListScopeActivity
// ---------------------------------------------------------------------------

func TestRollupRepository_ListScopeActivity_Classes(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	simple := domain.CompletenessSimple
	written := domain.CompletenessWritten

	rows := pgxmock.NewRows([]string{"id", "display_name", "tier", "reviews", "pages"}).
		AddRow("class-3a", "3A", &simple, 2, 150).
		AddRow("class-3a", "3A", &written, 1, 200).
		AddRow("class-3b", "3B", nil, 0, 0)

	mock.ExpectQuery("SELECT s.id, .+ FROM classes s LEFT JOIN").
		WillReturnRows(rows)

	result, err := repo.ListScopeActivity(context.Background(), domain.ScopeClass, nil)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "class-3a", result[0].ScopeID)
	assert.Equal(t, domain.CompletenessSimple, result[0].Tier)
	assert.Equal(t, 2, result[0].Reviews)

	// A class with no qualifying reviews still shows up, with zero counts.
	assert.Equal(t, "class-3b", result[2].ScopeID)
	assert.Empty(t, result[2].Tier)
	assert.Zero(t, result[2].Reviews)
	assert.Zero(t, result[2].Pages)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_ListScopeActivity_FilteredUsers(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	narrated := domain.CompletenessNarrated

	rows := pgxmock.NewRows([]string{"id", "display_name", "tier", "reviews", "pages"}).
		AddRow("user-001", "Astrid Andersson", &narrated, 1, 80)

	mock.ExpectQuery("SELECT s.id, .+ FROM users s LEFT JOIN").
		WithArgs([]string{"user-001"}).
		WillReturnRows(rows)

	result, err := repo.ListScopeActivity(context.Background(), domain.ScopeUser, []string{"user-001"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Astrid Andersson", result[0].DisplayName)
	assert.Equal(t, domain.CompletenessNarrated, result[0].Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupRepository_ListScopeActivity_UnknownScopeType(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	result, err := repo.ListScopeActivity(context.Background(), "district", nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// CountMultiClassUsers
// ---------------------------------------------------------------------------

func TestRollupRepository_CountMultiClassUsers_Success(t *testing.T) {
	repo, mock := setupRollupRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountMultiClassUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
