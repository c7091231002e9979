package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/portfoligo/api-server/internals/draft"
	"github.com/portfoligo/api-server/internals/leagues"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleDraftWebSocket streams a league's draft events to a member. The first
// message is the current state when a draft exists.
func (app *App) handleDraftWebSocket(w http.ResponseWriter, r *http.Request) {
	leagueID := r.URL.Query().Get("league_id")
	if leagueID == "" {
		http.Error(w, "league_id is required", http.StatusBadRequest)
		return
	}
	if _, err := leagues.New(app.KVStore, app.DB).Member(r.Context(), leagueID, currentUser(r)); err != nil {
		app.sendError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Log.Warn().Err(err).Msg("could not open websocket connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := app.KVStore.Subscribe(ctx, draft.Channel(leagueID))
	if err != nil {
		app.Log.Error().Err(err).Msg("could not subscribe to draft events")
		return
	}

	// the read loop only notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if state, err := app.Draft.State(ctx, leagueID); err == nil {
		out, err := json.Marshal(draft.Event{Type: draft.EventState, State: state})
		if err == nil {
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
	}
}
