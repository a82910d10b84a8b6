package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vinylen2/ellabib-server/internal/cache"
	"github.com/vinylen2/ellabib-server/internal/domain"
	"github.com/vinylen2/ellabib-server/internal/repository"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

// RollupService computes reading-activity totals and leaderboards. Totals
// are always derived from the current qualifying review set; nothing is
// accumulated incrementally, so deleted reviews disappear from totals the
// moment they stop qualifying.
type RollupService struct {
	rollups repository.RollupRepository
	users   repository.UserRepository
	cache   *cache.LeaderboardCache
	policy  domain.ScoringPolicy
	logger  *slog.Logger
}

// NewRollupService creates a new rollup service. The cache may be nil when
// leaderboard caching is disabled.
func NewRollupService(
	rollups repository.RollupRepository,
	users repository.UserRepository,
	lbCache *cache.LeaderboardCache,
	policy domain.ScoringPolicy,
	logger *slog.Logger,
) *RollupService {
	return &RollupService{
		rollups: rollups,
		users:   users,
		cache:   lbCache,
		policy:  policy,
		logger:  logger,
	}
}

// ScopeTotals is the activity rollup for a single scope.
type ScopeTotals struct {
	ScopeType   string                `json:"scope_type"`
	ScopeID     string                `json:"scope_id"`
	DisplayName string                `json:"display_name"`
	Totals      domain.ActivityTotals `json:"totals"`
}

// GetScopeTotals returns the activity totals for one scope. A scope with no
// qualifying reviews yields zero totals; an unknown scope id is an error.
func (s *RollupService) GetScopeTotals(ctx context.Context, scopeType, scopeID string) (*ScopeTotals, error) {
	if !domain.ValidScopeType(scopeType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown scope type %q", scopeType))
	}

	result := &ScopeTotals{
		ScopeType: scopeType,
		ScopeID:   scopeID,
	}

	var (
		tiers []domain.TierActivity
		err   error
	)

	switch scopeType {
	case domain.ScopeUser:
		var u *domain.User
		if u, err = s.users.GetByID(ctx, scopeID); err == nil {
			result.DisplayName = u.FirstName + " " + u.LastName
			tiers, err = s.rollups.UserActivity(ctx, scopeID)
		}
	case domain.ScopeClass:
		var c *domain.Class
		if c, err = s.rollups.GetClass(ctx, scopeID); err == nil {
			result.DisplayName = c.DisplayName
			tiers, err = s.rollups.ClassActivity(ctx, scopeID)
		}
	case domain.ScopeSchoolUnit:
		var su *domain.SchoolUnit
		if su, err = s.rollups.GetSchoolUnit(ctx, scopeID); err == nil {
			result.DisplayName = su.DisplayName
			tiers, err = s.rollups.SchoolUnitActivity(ctx, scopeID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s totals: %w", scopeType, err)
	}

	result.Totals = domain.TotalsFromTiers(tiers, s.policy)

	return result, nil
}

// GetLeaderboard returns the ranked leaderboard for one scope type,
// optionally restricted to the given scope ids. Unfiltered leaderboards are
// served from and stored in the cache.
func (s *RollupService) GetLeaderboard(ctx context.Context, scopeType string, filterIDs []string) ([]domain.LeaderboardEntry, error) {
	if !domain.ValidScopeType(scopeType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown scope type %q", scopeType))
	}

	cacheable := s.cache != nil && len(filterIDs) == 0
	if cacheable {
		entries, err := s.cache.Get(ctx, scopeType)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "leaderboard cache read failed",
				slog.String("scope_type", scopeType),
				slog.String("error", err.Error()),
			)
		}
	}

	rows, err := s.rollups.ListScopeActivity(ctx, scopeType, filterIDs)
	if err != nil {
		return nil, fmt.Errorf("list %s activity: %w", scopeType, err)
	}

	entries := s.buildLeaderboard(rows)

	if cacheable {
		if err := s.cache.Set(ctx, scopeType, entries); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache write failed",
				slog.String("scope_type", scopeType),
				slog.String("error", err.Error()),
			)
		}
	}

	return entries, nil
}

// buildLeaderboard folds per-scope tier rows into ranked entries. Rows with
// an empty tier mark scopes without qualifying reviews and contribute zero
// totals.
func (s *RollupService) buildLeaderboard(rows []repository.ScopeTierActivity) []domain.LeaderboardEntry {
	var (
		order   []string
		byScope = make(map[string]*domain.LeaderboardEntry)
		tiers   = make(map[string][]domain.TierActivity)
	)

	for _, row := range rows {
		if _, ok := byScope[row.ScopeID]; !ok {
			order = append(order, row.ScopeID)
			byScope[row.ScopeID] = &domain.LeaderboardEntry{
				ScopeID:     row.ScopeID,
				DisplayName: row.DisplayName,
			}
		}
		if row.Tier != "" {
			tiers[row.ScopeID] = append(tiers[row.ScopeID], domain.TierActivity{
				Tier:    row.Tier,
				Reviews: row.Reviews,
				Pages:   row.Pages,
			})
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		entry := byScope[id]
		entry.Totals = domain.TotalsFromTiers(tiers[id], s.policy)
		entries = append(entries, *entry)
	}

	domain.RankEntries(entries)

	return entries
}
