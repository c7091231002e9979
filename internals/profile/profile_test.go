package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/internals/auth"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, &auth.Users{}, &leagues.League{}, &leagues.LeagueMember{}, &leagues.LeagueSettings{})
	ps := New(kvstore.NewMemory(), db)

	user := auth.Users{UserName: "ada", MailID: "ada@example.com", Password: "x", ProfilePic: "default.jpg"}
	require.NoError(t, db.Create(&user).Error)
	_, err := ps.LS.CreateLeague(ctx, user.UserID, leagues.CreateLeagueRequestBody{Name: "Mine", RosterSize: 5})
	require.NoError(t, err)

	p, err := ps.GetProfile(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Profile.UserName)
	assert.Equal(t, "ada@example.com", p.Profile.MailID)
	require.Len(t, p.Leagues, 1)
	assert.Equal(t, "Mine", p.Leagues[0].Name)
	assert.True(t, p.Leagues[0].IsCommissioner)

	_, err = ps.GetProfile(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
