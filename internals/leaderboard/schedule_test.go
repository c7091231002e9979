package leaderboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i+1)
	}
	return ids
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func TestSchedule_EvenFieldMeetsEveryoneOnce(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8} {
		ids := teamIDs(n)
		weeks := Schedule(ids, n-1)
		require.Len(t, weeks, n-1)

		met := make(map[string]int)
		for w, week := range weeks {
			require.Len(t, week, n/2, "week %d", w+1)
			seen := make(map[string]bool)
			for _, p := range week {
				require.NotEmpty(t, p.Away, "even field has no byes")
				assert.False(t, seen[p.Home], "team plays twice in week %d", w+1)
				assert.False(t, seen[p.Away], "team plays twice in week %d", w+1)
				seen[p.Home], seen[p.Away] = true, true
				met[pairKey(p.Home, p.Away)]++
			}
		}
		assert.Len(t, met, n*(n-1)/2)
		for pair, count := range met {
			assert.Equal(t, 1, count, pair)
		}
	}
}

func TestSchedule_OddFieldGetsByes(t *testing.T) {
	weeks := Schedule(teamIDs(5), 5)
	byes := make(map[string]int)
	for _, week := range weeks {
		require.Len(t, week, 3)
		weekByes := 0
		for _, p := range week {
			assert.NotEmpty(t, p.Home)
			if p.Away == "" {
				weekByes++
				byes[p.Home]++
			}
		}
		assert.Equal(t, 1, weekByes)
	}
	assert.Len(t, byes, 5, "each team sits out once per round")
}

func TestSchedule_RepeatsAfterFullRound(t *testing.T) {
	weeks := Schedule(teamIDs(4), 6)
	require.Len(t, weeks, 6)
	assert.Equal(t, weeks[0], weeks[3])
}

func TestSchedule_TooFewTeams(t *testing.T) {
	assert.Nil(t, Schedule(teamIDs(1), 4))
	assert.Nil(t, Schedule(teamIDs(4), 0))
}

func TestComputeStandings(t *testing.T) {
	teams := []TeamRef{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "d", Name: "D"}}
	matchups := []Matchup{
		{Week: 1, HomeTeamID: "a", AwayTeamID: "b", HomeScore: 70, AwayScore: 60, Settled: true},
		{Week: 1, HomeTeamID: "c", AwayTeamID: "d", HomeScore: 55, AwayScore: 55, Settled: true},
		{Week: 2, HomeTeamID: "a", AwayTeamID: "c", HomeScore: 50, AwayScore: 65, Settled: true},
		{Week: 2, HomeTeamID: "b", AwayTeamID: "d", HomeScore: 80, AwayScore: 40, Settled: true},
		{Week: 3, HomeTeamID: "a", AwayTeamID: "d", HomeScore: 99, AwayScore: 1},
		{Week: 3, HomeTeamID: "b", AwayTeamID: "", HomeScore: 90, Settled: true},
	}

	standings := ComputeStandings(teams, matchups)
	require.Len(t, standings, 4)

	order := make([]string, len(standings))
	for i, s := range standings {
		order[i] = s.TeamID
		assert.Equal(t, i+1, s.Rank)
	}
	// c: 1-0-1, b: 1-1 PF 140, a: 1-1 PF 120, d: 0-1-1
	assert.Equal(t, []string{"c", "b", "a", "d"}, order)

	c := standings[0]
	assert.Equal(t, 1, c.Wins)
	assert.Equal(t, 1, c.Ties)
	assert.Equal(t, 0, c.Losses)
	assert.InDelta(t, 120, c.PointsFor, 1e-9)
	assert.InDelta(t, 105, c.PointsAgainst, 1e-9)

	b := standings[1]
	assert.InDelta(t, 140, b.PointsFor, 1e-9, "byes add no points")
}
