package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/portfolio"
)

func (app *App) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}

	detailed, err := portfolio.New(app.KVStore, app.DB).GetDetailedPortfolio(r.Context(), leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, detailed)
}
