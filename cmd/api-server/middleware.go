package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

type ctxKey string

const (
	userIDKey ctxKey = "user_id"
	tokenKey  ctxKey = "token"
)

func currentUser(r *http.Request) int {
	id, _ := r.Context().Value(userIDKey).(int)
	return id
}

func currentToken(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	// browsers cannot set headers on a websocket handshake
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// Middleware admits requests carrying a valid, whitelisted bearer token and
// puts the caller's user id and token on the request context.
func (app *App) Middleware(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unauthorized := httpResp{Status: http.StatusUnauthorized, IsError: true, Error: "Unauthorized"}

		tok := bearerToken(r)
		if tok == "" {
			sendResponse(w, unauthorized)
			return
		}
		id, err := app.Auth.ValidateToken(tok)
		if err != nil {
			sendResponse(w, unauthorized)
			return
		}
		if !app.Auth.CheckIfTokenIsWhiteListed(id, tok) {
			sendResponse(w, unauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		ctx = context.WithValue(ctx, tokenKey, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requestLogger logs one line per request.
func (app *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		app.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (app *App) limiter(userID int) *rate.Limiter {
	app.limitersM.Lock()
	defer app.limitersM.Unlock()
	l, ok := app.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(app.Cfg.Server.PicksPerSecond), app.Cfg.Server.PickBurst)
		app.limiters[userID] = l
	}
	return l
}

// limitDraftWrites throttles each user's draft commands. It runs after
// Middleware so the user id is known.
func (app *App) limitDraftWrites(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.limiter(currentUser(r)).Allow() {
			sendResponse(w, httpResp{Status: http.StatusTooManyRequests, IsError: true, Error: "too many draft requests, slow down"})
			return
		}
		next(w, r)
	}
}
