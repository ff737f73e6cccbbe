package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	apiMiddleware := standardMiddleware.Append(app.requireAPIKey)

	mux := pat.New()

	// Target-bot token API
	mux.Post("/api/token/redeem", apiMiddleware.ThenFunc(app.tokenAPIHandler.RedeemToken))
	mux.Get("/api/access", apiMiddleware.ThenFunc(app.tokenAPIHandler.CheckAccess))

	mux.Get("/health", standardMiddleware.ThenFunc(app.healthcheck))

	return mux
}
