package main

import (
	"net/http"

	"github.com/portfoligo/api-server/internals/auth"
)

func (app *App) Login(w http.ResponseWriter, r *http.Request) {
	var loginDetails auth.LoginRequestBody
	if err := getBody(r, &loginDetails); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	token, err := app.Auth.Login(r.Context(), loginDetails)
	if err != nil {
		app.sendError(w, r, err)
		return
	}

	sendData(w, http.StatusOK, map[string]interface{}{"data": token, "message": "Logged in successfully"})
}

func (app *App) SignUp(w http.ResponseWriter, r *http.Request) {
	var signupDetails auth.SignUpRequestBody
	if err := getBody(r, &signupDetails); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := app.Auth.SignUp(r.Context(), signupDetails)
	if err != nil {
		app.sendError(w, r, err)
		return
	}

	sendData(w, http.StatusCreated, map[string]interface{}{"message": "User created successfully", "user_id": user.UserID})
}

func (app *App) Logout(w http.ResponseWriter, r *http.Request) {
	if err := app.Auth.Logout(currentUser(r), currentToken(r)); err != nil {
		app.sendError(w, r, err)
		return
	}
	sendMessage(w, "Logged out successfully")
}
