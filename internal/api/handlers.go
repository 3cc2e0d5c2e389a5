// Package api implements the admin gateway HTTP surface: one generic CRUD
// handler set instantiated per resource, the delete confirmation step, the
// upload staging endpoints, and the auth/session endpoints.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hversson/atrium/internal/apperr"
	"github.com/hversson/atrium/internal/audit"
	"github.com/hversson/atrium/internal/session"
	"github.com/hversson/atrium/internal/sse"
	"github.com/hversson/atrium/internal/uploads"
	"github.com/hversson/atrium/internal/upstream"

	"github.com/go-chi/chi/v5"
)

// Handler holds the shared collaborators of every route.
type Handler struct {
	client   *upstream.Client
	sessions *session.Manager
	staging  *uploads.Store
	auditLog *audit.Log
	broker   *sse.Broker
	confirms *confirmStore
	landing  string
	maxBytes int64
	logger   *slog.Logger
}

// NewHandler creates the handler set.
func NewHandler(client *upstream.Client, sessions *session.Manager, staging *uploads.Store,
	auditLog *audit.Log, broker *sse.Broker, landing string, maxBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		client:   client,
		sessions: sessions,
		staging:  staging,
		auditLog: auditLog,
		broker:   broker,
		confirms: newConfirmStore(5 * time.Minute),
		landing:  landing,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// upstreamFailed logs the transport error and surfaces it to the caller.
// Nothing is ever swallowed into the log alone.
func (h *Handler) upstreamFailed(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNoSession) {
		writeJSON(w, http.StatusUnauthorized, errorBody("session expired, sign in again"))
		return
	}
	h.logger.Error("upstream call failed", slog.String("op", op), slog.String("error", err.Error()))
	writeJSON(w, http.StatusBadGateway, errorBody("backend unavailable: "+err.Error()))
}

// List handles GET /admin/{resource}.
func (h *Handler) List(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := h.client.List(r.Context(), spec.Resource)
		if err != nil {
			h.upstreamFailed(w, "list "+spec.Name, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

// Get handles GET /admin/{resource}/{id}.
func (h *Handler) Get(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		env, err := h.client.Get(r.Context(), spec.Resource, id)
		if err != nil {
			h.upstreamFailed(w, "get "+spec.Name, err)
			return
		}
		if !env.Success {
			writeJSON(w, http.StatusNotFound, env)
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

// Create handles POST /admin/{resource}: decode the form, assemble the
// multipart payload from direct and staged files, forward it, and on
// success record the mutation and signal open lists to refresh.
func (h *Handler) Create(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.submit(w, r, spec, "", "create")
	}
}

// Update handles PATCH /admin/{resource}/{id} with the same form contract
// as Create.
func (h *Handler) Update(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.submit(w, r, spec, chi.URLParam(r, "id"), "update")
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, spec ResourceSpec, id, action string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := parseForm(r, h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form submission"))
		return
	}

	data, err := spec.Decoder(r.Form)
	if err != nil {
		var verr validation.Errors
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(verr.Error()))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	files, err := h.collectFiles(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var env *upstream.Envelope
	if action == "create" {
		env, err = h.client.Create(r.Context(), spec.Resource, data, files)
	} else {
		env, err = h.client.Update(r.Context(), spec.Resource, id, data, files)
	}
	if err != nil {
		h.upstreamFailed(w, action+" "+spec.Name, err)
		return
	}
	if !env.Success {
		writeJSON(w, http.StatusBadRequest, env)
		return
	}

	// Successful submit: staged previews and blobs are done with.
	h.discardStagingSession(r)

	targetID := id
	if targetID == "" {
		targetID = entityID(env.Data)
	}
	h.recordMutation(r, action, spec, targetID, entityLabel(env.Data, spec.LabelFields))
	h.broker.PublishResourceEvent(actionEvent(action), spec.Name, targetID)

	status := http.StatusOK
	if action == "create" {
		status = http.StatusCreated
	}
	writeJSON(w, status, env)
}

// DeleteIntent handles POST /admin/{resource}/{id}/delete-intent: fetch the
// entity for its display label and issue the one-shot confirmation token.
func (h *Handler) DeleteIntent(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		env, err := h.client.Get(r.Context(), spec.Resource, id)
		if err != nil {
			h.upstreamFailed(w, "delete-intent "+spec.Name, err)
			return
		}
		if !env.Success {
			writeJSON(w, http.StatusNotFound, env)
			return
		}

		token := h.confirms.issue(spec.Name, id)
		writeJSON(w, http.StatusOK, successBody("confirmation required", DeleteIntent{
			Token: token,
			Label: entityLabel(env.Data, spec.LabelFields),
		}))
	}
}

// Delete handles DELETE /admin/{resource}/{id}. It refuses to act without a
// live confirmation token from the intent step.
func (h *Handler) Delete(spec ResourceSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		token := r.Header.Get("X-Confirm-Token")
		if !h.confirms.redeem(token, spec.Name, id) {
			writeJSON(w, http.StatusPreconditionRequired, errorBody(apperr.ErrConfirmation.Error()))
			return
		}

		env, err := h.client.Delete(r.Context(), spec.Resource, id)
		if err != nil {
			h.upstreamFailed(w, "delete "+spec.Name, err)
			return
		}
		if !env.Success {
			// Surface the backend message; the confirmation flow stays open
			// on the caller's side.
			writeJSON(w, http.StatusBadRequest, env)
			return
		}

		h.recordMutation(r, "delete", spec, id, "")
		h.broker.PublishResourceEvent("deleted", spec.Name, id)
		writeJSON(w, http.StatusOK, env)
	}
}

// Dashboard handles GET /admin/home.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	env, err := h.client.List(r.Context(), upstream.Dashboard)
	if err != nil {
		h.upstreamFailed(w, "dashboard-info", err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// AuditList handles GET /admin/audit.
func (h *Handler) AuditList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, total, err := h.auditLog.List(limit, offset)
	if err != nil {
		h.logger.Error("audit list failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("audit log unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, successBody("", AuditPage{Entries: entries, Total: total}))
}

func (h *Handler) recordMutation(r *http.Request, action string, spec ResourceSpec, id, label string) {
	actor := "unknown"
	if u, ok := session.UserFrom(r.Context()); ok {
		actor = u.Email
	}
	err := h.auditLog.Record(audit.Entry{
		Actor:    actor,
		Action:   action,
		Resource: spec.Name,
		TargetID: id,
		Label:    label,
	})
	if err != nil {
		// The mutation already landed upstream; losing the trail entry must
		// not fail the request, but it is still an operator-visible problem.
		h.logger.Error("audit record failed",
			slog.String("resource", spec.Name),
			slog.String("error", err.Error()))
	}
}

// collectFiles gathers direct multipart "file" parts and any staged files
// referenced by the stagingSession form value.
func (h *Handler) collectFiles(r *http.Request) ([]upstream.File, error) {
	var files []upstream.File

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["file"] {
			f, err := fh.Open()
			if err != nil {
				return nil, errors.New("unreadable file part: " + fh.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, errors.New("unreadable file part: " + fh.Filename)
			}
			files = append(files, upstream.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	if sid := r.FormValue("stagingSession"); sid != "" {
		sess, ok := h.staging.Session(sid)
		if !ok {
			return nil, errors.New("unknown staging session")
		}
		for i, sf := range sess.Files() {
			data, err := sess.Read(i)
			if err != nil {
				return nil, errors.New("staged file lost: " + sf.Name)
			}
			files = append(files, upstream.File{
				Name:        sf.Name,
				ContentType: sf.ContentType,
				Data:        data,
			})
		}
	}

	return files, nil
}

func (h *Handler) discardStagingSession(r *http.Request) {
	if sid := r.FormValue("stagingSession"); sid != "" {
		if sess, ok := h.staging.Session(sid); ok {
			sess.Discard()
		}
	}
}

func parseForm(r *http.Request, maxBytes int64) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(maxBytes)
	}
	return r.ParseForm()
}

func actionEvent(action string) string {
	if action == "create" {
		return "created"
	}
	return "updated"
}
