package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/auth"
	"github.com/portfoligo/api-server/internals/draft"
	"github.com/portfoligo/api-server/internals/leaderboard"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/profile"
	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/scoring"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/internals/trade"
)

var (
	ErrCouldNotParseBody = errors.New("could not parse request body")
	ErrCouldNotReadBody  = errors.New("could not read request body")
)

const internalErrorMessage = "operation failed, retry"

type httpResp struct {
	Status  int         `json:"status"`
	IsError bool        `json:"is_error"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func getBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return ErrCouldNotReadBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrCouldNotParseBody
	}
	return nil
}

func sendResponse(rw http.ResponseWriter, resp httpResp) {
	out, err := json.Marshal(resp)
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write([]byte(`{"status": 500, "is_error": true, "error": "could not marshal response"}`))
		return
	}
	rw.WriteHeader(resp.Status)
	rw.Write(out)
}

func sendData(rw http.ResponseWriter, status int, data interface{}) {
	sendResponse(rw, httpResp{Status: status, Data: data})
}

func sendMessage(rw http.ResponseWriter, message string) {
	sendData(rw, http.StatusOK, map[string]interface{}{"message": message})
}

// sendError answers with the status errorStatus picks. Unexpected errors are
// logged and reported without their details.
func (app *App) sendError(rw http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		app.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = internalErrorMessage
	}
	sendResponse(rw, httpResp{Status: status, IsError: true, Error: msg})
}

func badRequest(rw http.ResponseWriter, msg string) {
	sendResponse(rw, httpResp{Status: http.StatusBadRequest, IsError: true, Error: msg})
}

var statusByError = []struct {
	status int
	errs   []error
}{
	{http.StatusConflict, []error{
		draft.ErrStockUnavailable,
		draft.ErrNotYourTurn,
		draft.ErrSessionNotActive,
		trade.ErrStockUnavailable,
		auth.ErrUserExists,
	}},
	{http.StatusNotFound, []error{
		leagues.ErrLeagueNotFound,
		draft.ErrDraftNotFound,
		draft.ErrTeamNotFound,
		stocks.ErrStockNotFound,
		profile.ErrUserNotFound,
		leaderboard.ErrNoSchedule,
		leaderboard.ErrWeekNotFound,
		gorm.ErrRecordNotFound,
	}},
	{http.StatusForbidden, []error{
		leagues.ErrNotCommissioner,
		leagues.ErrNotMember,
	}},
	{http.StatusUnauthorized, []error{
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
	}},
	{http.StatusBadRequest, []error{
		ErrCouldNotParseBody,
		ErrCouldNotReadBody,
		leagues.ErrLeagueFull,
		leagues.ErrAlreadyMember,
		leagues.ErrLeagueClosed,
		leagues.ErrCommissionerLeave,
		leagues.ErrInvalidRosterSize,
		leagues.ErrInvalidMaxPlayers,
		leagues.ErrInvalidDraftMode,
		leagues.ErrInvalidPickSeconds,
		leagues.ErrInvalidSeasonWeeks,
		leagues.ErrMissingName,
		scoring.ErrInvalidWeights,
		draft.ErrInvalidConfiguration,
		draft.ErrInvalidTransition,
		roster.ErrRosterFull,
		roster.ErrStockAlreadyOwned,
		roster.ErrStockNotFound,
		trade.ErrInvalidTransactionType,
		trade.ErrLeagueNotActive,
		auth.ErrMissingFields,
		leaderboard.ErrWeekSettled,
	}},
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	for _, group := range statusByError {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

// requireLeagueID reads the required league_id query parameter.
func requireLeagueID(rw http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("league_id")
	if id == "" {
		badRequest(rw, "league_id is required")
		return "", false
	}
	return id, true
}

func stockFilter(r *http.Request) stocks.Filter {
	q := r.URL.Query()
	f := stocks.Filter{Query: q.Get("query"), Sector: q.Get("sector")}
	if v, err := strconv.ParseFloat(q.Get("min_score"), 64); err == nil {
		f.MinScore = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	return f
}
