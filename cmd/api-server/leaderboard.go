package main

import (
	"net/http"
	"strconv"

	"github.com/portfoligo/api-server/internals/leaderboard"
)

func (app *App) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	scores, err := leaderboard.New(app.KVStore, app.DB).GetLeaderboard(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, scores)
}

func (app *App) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	standings, err := leaderboard.New(app.KVStore, app.DB).GetStandings(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, standings)
}

// GetMatchups lists one week with ?week=, every week otherwise.
func (app *App) GetMatchups(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	week := 0
	if v := r.URL.Query().Get("week"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "week must be a positive number")
			return
		}
		week = n
	}
	matchups, err := leaderboard.New(app.KVStore, app.DB).GetMatchups(r.Context(), leagueID, week)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, matchups)
}
