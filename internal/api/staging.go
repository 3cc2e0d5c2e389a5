package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// StageUploads handles POST /admin/uploads: stage the submitted "file"
// parts into a new or existing session and return the aligned file/preview
// lists. Nothing reaches the backend until the owning form submits.
func (h *Handler) StageUploads(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	sess, ok := h.staging.Session(r.FormValue("session"))
	if !ok {
		sess = h.staging.NewSession()
	}

	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	for _, fh := range parts {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unreadable file: "+fh.Filename))
			return
		}
		_, err = sess.Add(fh.Filename, f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
	}

	writeJSON(w, http.StatusCreated, successBody("", stagingState(sess.ID(), h)))
}

// RemoveStaged handles DELETE /admin/uploads/{session}/{index}: drop one
// staged file, keeping files and previews aligned.
func (h *Handler) RemoveStaged(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.staging.Session(chi.URLParam(r, "session"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown staging session"))
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid index"))
		return
	}
	if err := sess.Remove(idx); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, successBody("", stagingState(sess.ID(), h)))
}

// DiscardStaging handles DELETE /admin/uploads/{session}: the cancel path.
// Every staged blob is deleted.
func (h *Handler) DiscardStaging(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.staging.Session(chi.URLParam(r, "session"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown staging session"))
		return
	}
	sess.Discard()
	writeJSON(w, http.StatusOK, successBody("staging discarded", nil))
}

func stagingState(id string, h *Handler) StagingState {
	sess, ok := h.staging.Session(id)
	if !ok {
		return StagingState{Session: id, Files: []StagedEntry{}, Previews: []string{}}
	}
	files := sess.Files()
	entries := make([]StagedEntry, len(files))
	for i, f := range files {
		entries[i] = StagedEntry{Name: f.Name, ContentType: f.ContentType, Size: f.Size}
	}
	return StagingState{Session: id, Files: entries, Previews: sess.Previews()}
}
