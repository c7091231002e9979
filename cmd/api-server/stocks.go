package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/stocks"
)

func (app *App) GetStocks(w http.ResponseWriter, r *http.Request) {
	list, err := stocks.New(app.DB).List(r.Context(), stockFilter(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, list)
}

func (app *App) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := stocks.New(app.DB).Sectors(r.Context())
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, sectors)
}
