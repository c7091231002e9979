package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/notification"
)

func (app *App) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := notification.New(app.KVStore, app.DB).GetNotifications(r.Context(), currentUser(r))
	if err != nil {
		app.sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, notifications)
}

func (app *App) HandleUpdateNotificationStatus(w http.ResponseWriter, r *http.Request) {
	if err := notification.New(app.KVStore, app.DB).UpdateNotificationStatus(r.Context(), currentUser(r)); err != nil {
		app.sendError(w, r, err)
		return
	}
	sendMessage(w, "Notification status of this user updated successfully")
}
