package leagues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

var (
	ErrLeagueNotFound     = errors.New("league not found")
	ErrLeagueFull         = errors.New("league is full")
	ErrAlreadyMember      = errors.New("already a member of this league")
	ErrNotMember          = errors.New("not a member of this league")
	ErrLeagueClosed       = errors.New("league no longer accepts changes to its teams")
	ErrNotCommissioner    = errors.New("only the commissioner can do this")
	ErrCommissionerLeave  = errors.New("the commissioner cannot leave the league, delete it instead")
	ErrInvalidRosterSize  = fmt.Errorf("roster size must be between %d and %d", MinRosterSize, MaxRosterSize)
	ErrInvalidMaxPlayers  = errors.New("max players must be at least 2")
	ErrInvalidDraftMode   = errors.New("unknown draft mode")
	ErrInvalidPickSeconds = errors.New("pick seconds must not be negative")
	ErrInvalidSeasonWeeks = errors.New("season weeks must be positive")
	ErrMissingName        = errors.New("league name is required")
)

type LeagueService struct {
	KV kvstore.KVStore
	DB *gorm.DB
}

func New(kv kvstore.KVStore, db *gorm.DB) *LeagueService {
	return &LeagueService{
		KV: kv,
		DB: db,
	}
}

func generateLeagueCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	rand.Seed(uint64(time.Now().UnixNano()))
	b := make([]byte, 8)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

func validDraftMode(mode string) bool {
	return mode == DraftModeStrict || mode == DraftModeCommissioner
}

// CreateLeague creates the league, its settings row and the creator's team,
// who becomes the commissioner.
func (l *LeagueService) CreateLeague(ctx context.Context, userID int, req CreateLeagueRequestBody) (League, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return League{}, ErrMissingName
	}
	if req.RosterSize == 0 {
		req.RosterSize = DefaultRosterSize
	}
	if req.RosterSize < MinRosterSize || req.RosterSize > MaxRosterSize {
		return League{}, ErrInvalidRosterSize
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = DefaultMaxPlayers
	}
	if req.MaxPlayers < 2 {
		return League{}, ErrInvalidMaxPlayers
	}
	weights := scoring.DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	if err := weights.Validate(); err != nil {
		return League{}, err
	}
	if req.DraftMode == "" {
		req.DraftMode = DraftModeStrict
	}
	if !validDraftMode(req.DraftMode) {
		return League{}, ErrInvalidDraftMode
	}
	pickSeconds := DefaultPickSeconds
	if req.PickSeconds != nil {
		pickSeconds = *req.PickSeconds
	}
	if pickSeconds < 0 {
		return League{}, ErrInvalidPickSeconds
	}
	if req.SeasonWeeks == 0 {
		req.SeasonWeeks = DefaultSeasonWeeks
	}
	if req.SeasonWeeks < 0 {
		return League{}, ErrInvalidSeasonWeeks
	}
	if strings.TrimSpace(req.TeamName) == "" {
		req.TeamName = req.Name + " Commissioner"
	}

	league := League{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Code:        generateLeagueCode(),
		Description: req.Description,
		IsPublic:    req.IsPublic,
		MaxPlayers:  req.MaxPlayers,
		RosterSize:  req.RosterSize,
		Status:      StatusDraftPending,
		CreatedBy:   userID,
	}

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&league).Error; err != nil {
			return fmt.Errorf("error inserting league: %w", err)
		}
		settings := LeagueSettings{
			LeagueID:     league.ID,
			RiskWeight:   weights.Risk,
			GrowthWeight: weights.Growth,
			ValueWeight:  weights.Value,
			DraftMode:    req.DraftMode,
			PickSeconds:  pickSeconds,
			SeasonWeeks:  req.SeasonWeeks,
		}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("error inserting league settings: %w", err)
		}
		member := LeagueMember{
			ID:             uuid.NewString(),
			LeagueID:       league.ID,
			UserID:         userID,
			TeamName:       req.TeamName,
			IsCommissioner: true,
			TurnOrder:      1,
			JoinedAt:       time.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("error inserting commissioner: %w", err)
		}
		return nil
	})
	if err != nil {
		return League{}, err
	}
	return league, nil
}

func (l *LeagueService) GetLeague(ctx context.Context, leagueID string) (League, error) {
	var league League
	err := l.DB.WithContext(ctx).Where("id = ?", leagueID).Take(&league).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return League{}, ErrLeagueNotFound
	}
	return league, err
}

func (l *LeagueService) GetLeagueByCode(ctx context.Context, code string) (League, error) {
	var league League
	err := l.DB.WithContext(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).Take(&league).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return League{}, ErrLeagueNotFound
	}
	return league, err
}

// GetUserLeagues lists the leagues userID plays in, newest first.
func (l *LeagueService) GetUserLeagues(ctx context.Context, userID int) ([]LeagueView, error) {
	var list []League
	err := l.DB.WithContext(ctx).
		Joins("JOIN league_members ON league_members.league_id = leagues.id").
		Where("league_members.user_id = ?", userID).
		Order("leagues.created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return l.views(ctx, userID, list)
}

// GetPublicLeagues lists public leagues still open for joining.
func (l *LeagueService) GetPublicLeagues(ctx context.Context, userID int) ([]LeagueView, error) {
	var list []League
	err := l.DB.WithContext(ctx).
		Where("is_public = ? AND status = ?", true, StatusDraftPending).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return l.views(ctx, userID, list)
}

func (l *LeagueService) views(ctx context.Context, userID int, list []League) ([]LeagueView, error) {
	out := make([]LeagueView, 0, len(list))
	for _, league := range list {
		members, err := l.Members(ctx, league.ID)
		if err != nil {
			return nil, err
		}
		view := LeagueView{League: league, MemberCount: len(members)}
		for _, m := range members {
			if m.UserID == userID {
				view.IsMember = true
				view.IsCommissioner = m.IsCommissioner
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// JoinLeague adds userID's team to the league with the given join code.
func (l *LeagueService) JoinLeague(ctx context.Context, userID int, req JoinLeagueRequestBody) (LeagueMember, error) {
	league, err := l.GetLeagueByCode(ctx, req.Code)
	if err != nil {
		return LeagueMember{}, err
	}
	if league.Status != StatusDraftPending {
		return LeagueMember{}, ErrLeagueClosed
	}

	var member LeagueMember
	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members []LeagueMember
		if err := tx.Where("league_id = ?", league.ID).Find(&members).Error; err != nil {
			return err
		}
		lastTurn := 0
		for _, m := range members {
			if m.UserID == userID {
				return ErrAlreadyMember
			}
			if m.TurnOrder > lastTurn {
				lastTurn = m.TurnOrder
			}
		}
		if len(members) >= league.MaxPlayers {
			return ErrLeagueFull
		}

		teamName := strings.TrimSpace(req.TeamName)
		if teamName == "" {
			teamName = fmt.Sprintf("Team %d", len(members)+1)
		}
		member = LeagueMember{
			ID:        uuid.NewString(),
			LeagueID:  league.ID,
			UserID:    userID,
			TeamName:  teamName,
			TurnOrder: lastTurn + 1,
			JoinedAt:  time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return LeagueMember{}, err
	}
	return member, nil
}

func (l *LeagueService) LeaveLeague(ctx context.Context, userID int, leagueID string) error {
	league, err := l.GetLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	member, err := l.Member(ctx, leagueID, userID)
	if err != nil {
		return err
	}
	if member.IsCommissioner {
		return ErrCommissionerLeave
	}
	if league.Status != StatusDraftPending {
		return ErrLeagueClosed
	}
	return l.DB.WithContext(ctx).Delete(&LeagueMember{}, "id = ?", member.ID).Error
}

// Members returns the teams of a league in turn order.
func (l *LeagueService) Members(ctx context.Context, leagueID string) ([]LeagueMember, error) {
	members := make([]LeagueMember, 0)
	err := l.DB.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("turn_order ASC").
		Find(&members).Error
	return members, err
}

func (l *LeagueService) Member(ctx context.Context, leagueID string, userID int) (LeagueMember, error) {
	var member LeagueMember
	err := l.DB.WithContext(ctx).Where("league_id = ? AND user_id = ?", leagueID, userID).Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LeagueMember{}, ErrNotMember
	}
	return member, err
}

func (l *LeagueService) IsCommissioner(ctx context.Context, leagueID string, userID int) (bool, error) {
	member, err := l.Member(ctx, leagueID, userID)
	if errors.Is(err, ErrNotMember) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return member.IsCommissioner, nil
}

func (l *LeagueService) GetSettings(ctx context.Context, leagueID string) (LeagueSettings, error) {
	var settings LeagueSettings
	err := l.DB.WithContext(ctx).Where("league_id = ?", leagueID).Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LeagueSettings{}, ErrLeagueNotFound
	}
	return settings, err
}

// UpdateSettings applies a commissioner's changes. Draft related settings are
// frozen once the draft has started.
func (l *LeagueService) UpdateSettings(ctx context.Context, userID int, leagueID string, req UpdateSettingsRequestBody) (LeagueSettings, error) {
	league, err := l.GetLeague(ctx, leagueID)
	if err != nil {
		return LeagueSettings{}, err
	}
	ok, err := l.IsCommissioner(ctx, leagueID, userID)
	if err != nil {
		return LeagueSettings{}, err
	}
	if !ok {
		return LeagueSettings{}, ErrNotCommissioner
	}
	settings, err := l.GetSettings(ctx, leagueID)
	if err != nil {
		return LeagueSettings{}, err
	}

	draftChange := req.DraftMode != nil || req.PickSeconds != nil || req.RosterSize != nil || req.MaxPlayers != nil
	if draftChange && league.Status != StatusDraftPending {
		return LeagueSettings{}, ErrLeagueClosed
	}

	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			return LeagueSettings{}, err
		}
		settings.RiskWeight = req.Weights.Risk
		settings.GrowthWeight = req.Weights.Growth
		settings.ValueWeight = req.Weights.Value
	}
	if req.DraftMode != nil {
		if !validDraftMode(*req.DraftMode) {
			return LeagueSettings{}, ErrInvalidDraftMode
		}
		settings.DraftMode = *req.DraftMode
	}
	if req.PickSeconds != nil {
		if *req.PickSeconds < 0 {
			return LeagueSettings{}, ErrInvalidPickSeconds
		}
		settings.PickSeconds = *req.PickSeconds
	}
	if req.SeasonWeeks != nil {
		if *req.SeasonWeeks <= 0 {
			return LeagueSettings{}, ErrInvalidSeasonWeeks
		}
		settings.SeasonWeeks = *req.SeasonWeeks
	}
	if req.RosterSize != nil {
		if *req.RosterSize < MinRosterSize || *req.RosterSize > MaxRosterSize {
			return LeagueSettings{}, ErrInvalidRosterSize
		}
		league.RosterSize = *req.RosterSize
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers < 2 {
			return LeagueSettings{}, ErrInvalidMaxPlayers
		}
		league.MaxPlayers = *req.MaxPlayers
	}

	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&settings).Error; err != nil {
			return fmt.Errorf("error updating league settings: %w", err)
		}
		return tx.Model(&League{}).Where("id = ?", leagueID).
			Updates(map[string]interface{}{"roster_size": league.RosterSize, "max_players": league.MaxPlayers}).Error
	})
	if err != nil {
		return LeagueSettings{}, err
	}
	return settings, nil
}

func (l *LeagueService) SetStatus(ctx context.Context, leagueID, status string) error {
	res := l.DB.WithContext(ctx).Model(&League{}).Where("id = ?", leagueID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("error updating league status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLeagueNotFound
	}
	return nil
}

// ActiveLeagues lists the leagues whose season is running.
func (l *LeagueService) ActiveLeagues(ctx context.Context) ([]League, error) {
	var list []League
	err := l.DB.WithContext(ctx).Where("status = ?", StatusActive).Find(&list).Error
	return list, err
}

// DeleteLeague removes a league with its teams, settings and rosters, and
// drops the cached rosters of its members.
func (l *LeagueService) DeleteLeague(ctx context.Context, userID int, leagueID string) error {
	if _, err := l.GetLeague(ctx, leagueID); err != nil {
		return err
	}
	ok, err := l.IsCommissioner(ctx, leagueID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCommissioner
	}

	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := roster.NewRepository(tx).DeleteLeague(ctx, leagueID); err != nil {
			return err
		}
		if err := tx.Delete(&LeagueSettings{}, "league_id = ?", leagueID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&LeagueMember{}, "league_id = ?", leagueID).Error; err != nil {
			return err
		}
		return tx.Delete(&League{}, "id = ?", leagueID).Error
	})
	if err != nil {
		return fmt.Errorf("error deleting league: %w", err)
	}

	keys, err := l.KV.Keys("roster_" + leagueID + "_*")
	if err != nil {
		return nil
	}
	for _, key := range keys {
		l.KV.Delete(key)
	}
	return nil
}
