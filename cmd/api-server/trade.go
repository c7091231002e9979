package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/trade"
)

func (app *App) TransactStocks(w http.ResponseWriter, r *http.Request) {
	transactionType := r.URL.Query().Get("transaction_type")
	leagueID := r.URL.Query().Get("league_id")
	stockID := r.URL.Query().Get("stock_id")
	if stockID == "" || transactionType == "" || leagueID == "" {
		badRequest(w, "stock_id, league_id and transaction_type are required")
		return
	}

	txn, err := trade.New(app.KVStore, app.DB).Transaction(r.Context(), transactionType, stockID, leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, map[string]interface{}{"message": "Transaction successful", "transaction": txn})
}

func (app *App) Trade(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	details, err := trade.New(app.KVStore, app.DB).GetStockDetails(r.Context(), leagueID, currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, details)
}

func (app *App) GetTransactions(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := requireLeagueID(w, r)
	if !ok {
		return
	}
	txns, err := trade.New(app.KVStore, app.DB).GetTransactions(r.Context(), leagueID)
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, txns)
}
