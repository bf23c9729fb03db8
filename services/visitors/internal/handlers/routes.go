package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions carries the middleware main wires around public endpoints.
type RouteOptions struct {
	CheckinLimit func(http.Handler) http.Handler
	SignInLimit  func(http.Handler) http.Handler
	Idempotency  func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// Routes builds the /v1 API.
func (h *Handlers) Routes(opts RouteOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(h.Authenticate)

	r.Route("/auth", func(r chi.Router) {
		r.With(orPassthrough(opts.SignInLimit)).Post("/signup", h.SignUp)
		r.With(orPassthrough(opts.SignInLimit)).Post("/signin", h.SignIn)
		r.Post("/signout", h.SignOut)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(h.RequireIdentity)
		r.Get("/", h.Me)
		r.Patch("/", h.UpdateMe)
		r.Put("/avatar", h.UploadAvatar)
	})

	r.With(orPassthrough(opts.CheckinLimit), orPassthrough(opts.Idempotency)).Post("/checkin", h.CreateVisitor)
	r.Get("/districts", h.ListDistricts)

	r.Route("/visitors", func(r chi.Router) {
		r.Get("/", h.ListVisitors)
		r.Post("/", h.CreateVisitor)
		r.Patch("/{id}", h.UpdateVisitor)
		r.Delete("/{id}", h.DeleteVisitor)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Patch("/{id}/role", h.UpdateUserRole)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/stats", func(r chi.Router) {
		r.Get("/summary", h.StatsSummary)
		r.Get("/trends", h.StatsTrends)
		r.Get("/gender", h.StatsGender)
		r.Get("/top-addresses", h.StatsTopAddresses)
	})
	return r
}
