package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/profile"
)

func (app *App) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := profile.New(app.KVStore, app.DB).GetProfile(r.Context(), currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, p)
}
