package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hversson/atrium/internal/apperr"
	"github.com/hversson/atrium/internal/audit"
	"github.com/hversson/atrium/internal/forms"
	"github.com/hversson/atrium/internal/gate"
	"github.com/hversson/atrium/internal/session"
	"github.com/hversson/atrium/internal/sse"
	"github.com/hversson/atrium/internal/uploads"
	"github.com/hversson/atrium/internal/upstream"
)

// Deps collects the collaborators the router wires together.
type Deps struct {
	Sessions *session.Manager
	Gate     *gate.Gate
	Client   *upstream.Client
	Staging  *uploads.Store
	Audit    *audit.Log
	Broker   *sse.Broker
	Cleaner  forms.ContentCleaner
	Landing  string
	MaxBytes int64
	Logger   *slog.Logger
}

// NewRouter builds the gateway routes. Identity is resolved once for every
// request; the authorization gate guards the root path and the whole admin
// subtree, mirroring which navigations are intercepted. The login endpoint
// sits outside the gate so anonymous credentials can reach it.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Client, d.Sessions, d.Staging, d.Audit, d.Broker, d.Landing, d.MaxBytes, d.Logger)
	specs := Specs(d.Cleaner)

	r := chi.NewRouter()
	r.Use(d.Sessions.Middleware)

	r.Post("/login", h.Login)

	r.Group(func(gr chi.Router) {
		gr.Use(d.Gate.Middleware)

		gr.Get("/", h.Root)

		gr.Route("/admin", func(ar chi.Router) {
			ar.Get("/home", h.Dashboard)
			ar.Get("/me", h.Me)
			ar.Post("/logout", h.Logout)
			ar.Get("/audit", h.AuditList)

			if d.Broker != nil {
				ar.Get("/events", d.Broker.ServeHTTP)
			}

			ar.Post("/uploads", h.StageUploads)
			ar.Delete("/uploads/{session}", h.DiscardStaging)
			ar.Delete("/uploads/{session}/{index}", h.RemoveStaged)

			for _, spec := range specs {
				ar.Get("/"+spec.Slug, h.List(spec))
				ar.Get("/"+spec.Slug+"/{id}", h.Get(spec))
				if spec.Mutable {
					ar.Post("/"+spec.Slug, h.Create(spec))
					ar.Patch("/"+spec.Slug+"/{id}", h.Update(spec))
				}
				ar.Post("/"+spec.Slug+"/{id}/delete-intent", h.DeleteIntent(spec))
				ar.Delete("/"+spec.Slug+"/{id}", h.Delete(spec))
			}
		})
	})

	// Everything else is outside both the public routes and the admin
	// prefix; refuse it explicitly rather than fall through.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody(apperr.ErrNotFound.Error()))
	})

	return r
}
