package leagues

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoligo/api-server/db/dbtest"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

func newService(t *testing.T) *LeagueService {
	t.Helper()
	db := dbtest.New(t, &League{}, &LeagueMember{}, &LeagueSettings{}, &roster.UserRoster{})
	return New(kvstore.NewMemory(), db)
}

func TestCreateLeague_Defaults(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Tech Titans"})
	require.NoError(t, err)
	assert.Len(t, league.Code, 8)
	assert.Equal(t, strings.ToUpper(league.Code), league.Code)
	assert.Equal(t, DefaultRosterSize, league.RosterSize)
	assert.Equal(t, StatusDraftPending, league.Status)

	settings, err := ls.GetSettings(ctx, league.ID)
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultWeights(), settings.Weights())
	assert.Equal(t, DraftModeStrict, settings.DraftMode)
	assert.Equal(t, DefaultPickSeconds, settings.PickSeconds)

	ok, err := ls.IsCommissioner(ctx, league.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	byCode, err := ls.GetLeagueByCode(ctx, " "+league.Code+" ")
	require.NoError(t, err)
	assert.Equal(t, league.ID, byCode.ID)
}

func TestCreateLeague_Validation(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	_, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{})
	assert.ErrorIs(t, err, ErrMissingName)
	_, err = ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "x", RosterSize: 13})
	assert.ErrorIs(t, err, ErrInvalidRosterSize)
	_, err = ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "x", Weights: &scoring.Weights{Risk: 50, Growth: 50, Value: 50}})
	assert.ErrorIs(t, err, scoring.ErrInvalidWeights)
	_, err = ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "x", DraftMode: "snake"})
	assert.ErrorIs(t, err, ErrInvalidDraftMode)
}

func TestJoinLeague(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Duo", MaxPlayers: 2})
	require.NoError(t, err)

	_, err = ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: "NOPE0000"})
	assert.ErrorIs(t, err, ErrLeagueNotFound)

	m, err := ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: league.Code, TeamName: "Bulls"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.TurnOrder)
	assert.False(t, m.IsCommissioner)

	_, err = ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: league.Code})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = ls.JoinLeague(ctx, 3, JoinLeagueRequestBody{Code: league.Code})
	assert.ErrorIs(t, err, ErrLeagueFull)

	members, err := ls.Members(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, 1, members[0].UserID)
	assert.Equal(t, "Bulls", members[1].TeamName)

	mine, err := ls.GetUserLeagues(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsMember)
	assert.False(t, mine[0].IsCommissioner)
	assert.Equal(t, 2, mine[0].MemberCount)
}

func TestJoinLeague_ClosedAfterDraftStarts(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Closed", IsPublic: true})
	require.NoError(t, err)

	public, err := ls.GetPublicLeagues(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	require.NoError(t, ls.SetStatus(ctx, league.ID, StatusDrafting))
	_, err = ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: league.Code})
	assert.ErrorIs(t, err, ErrLeagueClosed)

	public, err = ls.GetPublicLeagues(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, public)

	assert.ErrorIs(t, ls.SetStatus(ctx, "missing", StatusActive), ErrLeagueNotFound)
}

func TestLeaveLeague(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Leavers"})
	require.NoError(t, err)
	_, err = ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: league.Code})
	require.NoError(t, err)

	assert.ErrorIs(t, ls.LeaveLeague(ctx, 1, league.ID), ErrCommissionerLeave)
	assert.ErrorIs(t, ls.LeaveLeague(ctx, 3, league.ID), ErrNotMember)
	require.NoError(t, ls.LeaveLeague(ctx, 2, league.ID))

	members, err := ls.Members(ctx, league.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestUpdateSettings(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Weights"})
	require.NoError(t, err)
	_, err = ls.JoinLeague(ctx, 2, JoinLeagueRequestBody{Code: league.Code})
	require.NoError(t, err)

	w := scoring.Weights{Risk: 10, Growth: 60, Value: 30}
	_, err = ls.UpdateSettings(ctx, 2, league.ID, UpdateSettingsRequestBody{Weights: &w})
	assert.ErrorIs(t, err, ErrNotCommissioner)

	mode := DraftModeCommissioner
	size := 6
	settings, err := ls.UpdateSettings(ctx, 1, league.ID, UpdateSettingsRequestBody{Weights: &w, DraftMode: &mode, RosterSize: &size})
	require.NoError(t, err)
	assert.Equal(t, w, settings.Weights())
	assert.Equal(t, DraftModeCommissioner, settings.DraftMode)

	stored, err := ls.GetLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.RosterSize)

	require.NoError(t, ls.SetStatus(ctx, league.ID, StatusActive))
	_, err = ls.UpdateSettings(ctx, 1, league.ID, UpdateSettingsRequestBody{DraftMode: &mode})
	assert.ErrorIs(t, err, ErrLeagueClosed)

	w2 := scoring.DefaultWeights()
	_, err = ls.UpdateSettings(ctx, 1, league.ID, UpdateSettingsRequestBody{Weights: &w2})
	assert.NoError(t, err)
}

func TestDeleteLeague(t *testing.T) {
	ls := newService(t)
	ctx := context.Background()

	league, err := ls.CreateLeague(ctx, 1, CreateLeagueRequestBody{Name: "Gone"})
	require.NoError(t, err)
	require.NoError(t, ls.KV.HSet("roster_"+league.ID+"_1", "is_cached", "active"))
	require.NoError(t, roster.NewRepository(ls.DB).Insert(ctx, roster.UserRoster{LeagueID: league.ID, TeamID: "t", UserID: 1, StockID: "s1"}))

	assert.ErrorIs(t, ls.DeleteLeague(ctx, 2, league.ID), ErrNotCommissioner)
	require.NoError(t, ls.DeleteLeague(ctx, 1, league.ID))

	_, err = ls.GetLeague(ctx, league.ID)
	assert.ErrorIs(t, err, ErrLeagueNotFound)
	keys, err := ls.KV.Keys("roster_" + league.ID + "_*")
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, held, err := roster.NewRepository(ls.DB).Owner(ctx, league.ID, "s1")
	require.NoError(t, err)
	assert.False(t, held)
}
