package leaderboard

import "sort"

// Schedule pairs teams round-robin with the circle method. The first team
// stays fixed while the others rotate; an odd field gets a bye slot. Weeks
// beyond one full round repeat the rotation.
func Schedule(teamIDs []string, weeks int) [][]Pairing {
	if len(teamIDs) < 2 || weeks <= 0 {
		return nil
	}
	ring := append([]string(nil), teamIDs...)
	if len(ring)%2 == 1 {
		ring = append(ring, "")
	}
	n := len(ring)
	rounds := n - 1

	out := make([][]Pairing, weeks)
	for w := 0; w < weeks; w++ {
		r := w % rounds
		order := make([]string, n)
		order[0] = ring[0]
		for i := 1; i < n; i++ {
			order[i] = ring[1+(i-1+r)%rounds]
		}

		week := make([]Pairing, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := order[i], order[n-1-i]
			if i == 0 && r%2 == 1 {
				home, away = away, home
			}
			if home == "" {
				home, away = away, ""
			}
			week = append(week, Pairing{Home: home, Away: away})
		}
		out[w] = week
	}
	return out
}

// ComputeStandings folds settled matchups into win/loss/tie records, best
// record first: wins, then ties, then points for.
func ComputeStandings(teams []TeamRef, matchups []Matchup) []Standing {
	rows := make([]Standing, len(teams))
	index := make(map[string]int, len(teams))
	for i, t := range teams {
		rows[i] = Standing{TeamID: t.ID, TeamName: t.Name, UserID: t.UserID}
		index[t.ID] = i
	}

	for _, m := range matchups {
		if !m.Settled || m.IsBye() {
			continue
		}
		h, ok := index[m.HomeTeamID]
		if !ok {
			continue
		}
		a, ok := index[m.AwayTeamID]
		if !ok {
			continue
		}
		rows[h].PointsFor += m.HomeScore
		rows[h].PointsAgainst += m.AwayScore
		rows[a].PointsFor += m.AwayScore
		rows[a].PointsAgainst += m.HomeScore
		switch {
		case m.HomeScore > m.AwayScore:
			rows[h].Wins++
			rows[a].Losses++
		case m.HomeScore < m.AwayScore:
			rows[a].Wins++
			rows[h].Losses++
		default:
			rows[h].Ties++
			rows[a].Ties++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if rows[i].Ties != rows[j].Ties {
			return rows[i].Ties > rows[j].Ties
		}
		return rows[i].PointsFor > rows[j].PointsFor
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
