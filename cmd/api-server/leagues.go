package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/leaderboard"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/trade"
)

func (app *App) CreateLeague(w http.ResponseWriter, r *http.Request) {
	var req leagues.CreateLeagueRequestBody
	if err := getBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.PickSeconds == nil {
		seconds := app.Cfg.Draft.PickSeconds
		req.PickSeconds = &seconds
	}
	if req.SeasonWeeks == 0 {
		req.SeasonWeeks = app.Cfg.Season.Weeks
	}

	league, err := leagues.New(app.KVStore, app.DB).CreateLeague(r.Context(), currentUser(r), req)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusCreated, league)
}

func (app *App) GetLeagues(w http.ResponseWriter, r *http.Request) {
	list, err := leagues.New(app.KVStore, app.DB).GetUserLeagues(r.Context(), currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, list)
}

func (app *App) GetPublicLeagues(w http.ResponseWriter, r *http.Request) {
	list, err := leagues.New(app.KVStore, app.DB).GetPublicLeagues(r.Context(), currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, list)
}

func (app *App) GetLeagueByCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		badRequest(w, "code is required")
		return
	}
	league, err := leagues.New(app.KVStore, app.DB).GetLeagueByCode(r.Context(), code)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, league)
}

func (app *App) JoinLeague(w http.ResponseWriter, r *http.Request) {
	var req leagues.JoinLeagueRequestBody
	if err := getBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Code == "" {
		badRequest(w, "code is required")
		return
	}

	member, err := leagues.New(app.KVStore, app.DB).JoinLeague(r.Context(), currentUser(r), req)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, member)
}

func (app *App) LeaveLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	if err := leagues.New(app.KVStore, app.DB).LeaveLeague(r.Context(), currentUser(r), leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	sendMessage(w, "Left league successfully")
}

func (app *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	settings, err := leagues.New(app.KVStore, app.DB).GetSettings(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, settings)
}

func (app *App) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	var req leagues.UpdateSettingsRequestBody
	if err := getBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	settings, err := leagues.New(app.KVStore, app.DB).UpdateSettings(r.Context(), currentUser(r), leagueID, req)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, settings)
}

func (app *App) GetMembers(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	ls := leagues.New(app.KVStore, app.DB)
	if _, err := ls.GetLeague(r.Context(), leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	members, err := ls.Members(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, members)
}

// DeleteLeague stops the league's draft and removes everything the league
// owns.
func (app *App) DeleteLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ls := leagues.New(app.KVStore, app.DB)

	if _, err := ls.GetLeague(ctx, leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	isCommissioner, err := ls.IsCommissioner(ctx, leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	if !isCommissioner {
		app.sendError(w, r, leagues.ErrNotCommissioner)
		return
	}

	if err := app.Draft.Discard(ctx, leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	if err := leaderboard.New(app.KVStore, app.DB).ClearSchedule(ctx, leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	if err := trade.New(app.KVStore, app.DB).DeleteTransactions(ctx, leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	if err := ls.DeleteLeague(ctx, currentUser(r), leagueID); err != nil {
		app.sendError(w, r, err)
		return
	}
	sendMessage(w, "League deleted successfully")
}
