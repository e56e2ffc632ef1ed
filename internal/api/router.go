package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venapictures/vena/internal/console"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced on every route.
// Routes outside the auth screens additionally require an active session.
// sseHandler, if non-nil, is mounted at GET /events inside the session group.
func NewRouter(c *console.Console, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(c)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Auth screens.
	r.Get("/screen", h.Screen)
	r.Post("/session/login", h.Login)
	r.Post("/session/signup", h.Signup)
	r.Post("/session/screen", h.ShowScreen)
	r.Post("/suggestions", h.SubmitSuggestion)

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(c.Session))

		r.Post("/session/logout", h.Logout)

		r.Get("/navigation", h.Navigation)
		r.Post("/navigation", h.Navigate)
		r.Post("/navigation/ack", h.Acknowledge)
		r.Post("/navigation/sidebar", h.Sidebar)

		r.Get("/views/{view}", h.View)
		r.Post("/views/{view}/clear-action", h.ClearViewAction)
		r.Put("/views/{view}/collections/{name}", h.ReplaceViewCollection)

		r.Get("/notifications", h.Notification)
		r.Post("/notifications", h.ShowNotification)

		r.Get("/collections/{name}", h.ListCollection)
		r.Put("/collections/{name}", h.ReplaceCollection)
		r.Get("/collections/{name}/{id}", h.GetRecord)

		r.Get("/profile", h.Profile)
		r.Put("/profile", h.UpdateProfile)

		r.Post("/leads", h.AddLead)
		r.Post("/settlements", h.SettlePayments)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
