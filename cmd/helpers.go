package main

import (
	"net/http"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.errorLog.Println(err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (app *application) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		app.serverError(w, err)
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}
