package main

import (
	"context"
	"net/http"
)

type pickRequestBody struct {
	TeamID  string `json:"team_id"`
	StockID string `json:"stock_id"`
}

func (app *App) StartDraft(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	state, err := app.Draft.Start(r.Context(), leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, state)
}

func (app *App) PickStock(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	var req pickRequestBody
	if err := getBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.StockID == "" {
		badRequest(w, "stock_id is required")
		return
	}

	pick, err := app.Draft.Pick(r.Context(), leagueID, currentUser(r), req.TeamID, req.StockID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, pick)
}

func (app *App) AutoPick(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	pick, err := app.Draft.AutoPick(r.Context(), leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, pick)
}

// draftControl runs a commissioner command and answers with the new state.
func (app *App) draftControl(op func(ctx context.Context, leagueID string, userID int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leagueID, ok := requireLeagueID(w, r)
		if !ok {
			return
		}
		if err := op(r.Context(), leagueID, currentUser(r)); err != nil {
			app.sendError(w, r, err)
			return
		}
		state, err := app.Draft.State(r.Context(), leagueID)
		if err != nil {
			app.sendError(w, r, err)
			return
		}
		sendData(w, http.StatusOK, state)
	}
}

func (app *App) PauseDraft(w http.ResponseWriter, r *http.Request) {
	app.draftControl(app.Draft.Pause)(w, r)
}

func (app *App) ResumeDraft(w http.ResponseWriter, r *http.Request) {
	app.draftControl(app.Draft.Resume)(w, r)
}

func (app *App) EndDraft(w http.ResponseWriter, r *http.Request) {
	app.draftControl(app.Draft.End)(w, r)
}

func (app *App) ResetDraft(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	returned, err := app.Draft.Reset(r.Context(), leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, map[string]interface{}{"message": "Draft reset", "returned": returned})
}

func (app *App) GetDraft(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	state, err := app.Draft.State(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, state)
}

func (app *App) GetDraftPicks(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	picks, err := app.Draft.Picks(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, picks)
}

func (app *App) GetAvailableStocks(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	list, err := app.Draft.Available(r.Context(), leagueID, stockFilter(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, list)
}
