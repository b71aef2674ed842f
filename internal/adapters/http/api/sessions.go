package api

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
)

// SessionsHandler serves session lifecycle routes.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess, created, err := h.deps.CreateSession(r.Context(), r.Header.Get(IdempotencyHeader))
	writeCreated(w, sess, created, err)
}

// HandleImport handles POST /sessions/import.
func (h *SessionsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	sess, created, err := h.deps.ImportSession(r.Context(), r.Header.Get(IdempotencyHeader), r.Body)
	writeCreated(w, sess, created, err)
}

func writeCreated(w http.ResponseWriter, sess *model.Session, created bool, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, status, types.NewSession(sess))
}

// HandleList handles GET /sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.ListSessions(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if list == nil {
		list = []types.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	writeSession(w, sess, err)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateStudent handles PUT /sessions/{id}/student.
func (h *SessionsHandler) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var body types.Student
	if err := decodeBody("decode student", r, &body); err != nil {
		writeFailure(w, err)
		return
	}
	sess, err := h.deps.UpdateStudent(r.Context(), chi.URLParam(r, "id"), body.Model())
	writeSession(w, sess, err)
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.ResetSession(r.Context(), chi.URLParam(r, "id"))
	writeSession(w, sess, err)
}

// HandleSummary handles GET /sessions/{id}/summary.
func (h *SessionsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Evaluate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleExport handles GET /sessions/{id}/export.
func (h *SessionsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.deps.Export(r.Context(), chi.URLParam(r, "id"), &buf)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeSession(w http.ResponseWriter, sess *model.Session, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSession(sess))
}
