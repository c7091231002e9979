package profile

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

var ErrUserNotFound = errors.New("user not found")

type ProfileService struct {
	KV kvstore.KVStore
	DB *gorm.DB
	LS *leagues.LeagueService
}

func New(kv kvstore.KVStore, db *gorm.DB) *ProfileService {
	return &ProfileService{
		KV: kv,
		DB: db,
		LS: leagues.New(kv, db),
	}
}

func (ps *ProfileService) GetProfile(ctx context.Context, userID int) (CompleteProfile, error) {
	var completeProfile CompleteProfile
	err := ps.DB.WithContext(ctx).Table("users").
		Select("user_id, user_name, mail_id, profile_pic").
		Where("user_id = ?", userID).
		Take(&completeProfile.Profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return completeProfile, ErrUserNotFound
	}
	if err != nil {
		return completeProfile, err
	}

	// Get my leagues..
	list, err := ps.LS.GetUserLeagues(ctx, userID)
	if err != nil {
		return completeProfile, err
	}
	completeProfile.Leagues = list
	return completeProfile, nil
}
