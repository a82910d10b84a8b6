package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/internal/repository"
	"github.com/vinylen2/ellabib-server/internal/service"
)

type mockRollupRepository struct {
	mock.Mock
}

func (m *mockRollupRepository) GetClass(ctx context.Context, id string) (*domain.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

func (m *mockRollupRepository) GetSchoolUnit(ctx context.Context, id string) (*domain.SchoolUnit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchoolUnit), args.Error(1)
}

func (m *mockRollupRepository) UserActivity(ctx context.Context, userID string) ([]domain.TierActivity, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TierActivity), args.Error(1)
}

func (m *mockRollupRepository) ClassActivity(ctx context.Context, classID string) ([]domain.TierActivity, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TierActivity), args.Error(1)
}

func (m *mockRollupRepository) SchoolUnitActivity(ctx context.Context, schoolUnitID string) ([]domain.TierActivity, error) {
	args := m.Called(ctx, schoolUnitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TierActivity), args.Error(1)
}

func (m *mockRollupRepository) ListScopeActivity(ctx context.Context, scopeType string, filterIDs []string) ([]repository.ScopeTierActivity, error) {
	args := m.Called(ctx, scopeType, filterIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ScopeTierActivity), args.Error(1)
}

func (m *mockRollupRepository) CountMultiClassUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func testRollupHandler(rollups *mockRollupRepository, users *mockUserRepository) *RollupHandler {
	logger := testLogger()
	svc := service.NewRollupService(rollups, users, nil, domain.DefaultScoringPolicy(), logger)
	return NewRollupHandler(svc, logger)
}

// setupRollupRouter creates a chi router matching the production route layout.
func setupRollupRouter(handler *RollupHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/v1/activity/{scopeType}/{id}", handler.GetScopeTotals)
	r.Get("/api/v1/leaderboard", handler.GetLeaderboard)
	return r
}

func TestRollupHandler_GetScopeTotals_User(t *testing.T) {
	rollups := new(mockRollupRepository)
	users := new(mockUserRepository)
	router := setupRollupRouter(testRollupHandler(rollups, users))

	users.On("GetByID", mock.Anything, "user-001").Return(&domain.User{
		ID:        "user-001",
		FirstName: "Stina",
		LastName:  "Larsson",
	}, nil)
	rollups.On("UserActivity", mock.Anything, "user-001").Return([]domain.TierActivity{
		{Tier: domain.CompletenessWritten, Reviews: 2, Pages: 150},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity/user/user-001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data service.ScopeTotals `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Stina Larsson", resp.Data.DisplayName)
	assert.Equal(t, 2, resp.Data.Totals.BooksRead)
	assert.Equal(t, 150, resp.Data.Totals.PagesRead)
	assert.Equal(t, 300, resp.Data.Totals.Points)
}

func TestRollupHandler_GetScopeTotals_UnknownScopeType(t *testing.T) {
	router := setupRollupRouter(testRollupHandler(new(mockRollupRepository), new(mockUserRepository)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity/team/team-001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestRollupHandler_GetLeaderboard_Success(t *testing.T) {
	rollups := new(mockRollupRepository)
	router := setupRollupRouter(testRollupHandler(rollups, new(mockUserRepository)))

	rollups.On("ListScopeActivity", mock.Anything, domain.ScopeClass, []string(nil)).Return([]repository.ScopeTierActivity{
		{ScopeID: "class-3a", DisplayName: "3A", Tier: domain.CompletenessNarrated, Reviews: 3, Pages: 200},
		{ScopeID: "class-3b", DisplayName: "3B", Tier: domain.CompletenessSimple, Reviews: 1, Pages: 40},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?scope=class", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "class-3a", resp.Data[0].ScopeID)
	assert.Equal(t, 1, resp.Data[0].Rank)
	assert.Equal(t, "class-3b", resp.Data[1].ScopeID)
	assert.Equal(t, 2, resp.Data[1].Rank)
}

func TestRollupHandler_GetLeaderboard_Filtered(t *testing.T) {
	rollups := new(mockRollupRepository)
	router := setupRollupRouter(testRollupHandler(rollups, new(mockUserRepository)))

	rollups.On("ListScopeActivity", mock.Anything, domain.ScopeClass, []string{"class-3a", "class-3b"}).
		Return([]repository.ScopeTierActivity{
			{ScopeID: "class-3a", DisplayName: "3A", Tier: domain.CompletenessWritten, Reviews: 1, Pages: 80},
			{ScopeID: "class-3b", DisplayName: "3B"},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?scope=class&ids=class-3a,%20class-3b", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 0, resp.Data[1].Totals.Points)
}

func TestRollupHandler_GetLeaderboard_MissingScope(t *testing.T) {
	router := setupRollupRouter(testRollupHandler(new(mockRollupRepository), new(mockUserRepository)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
