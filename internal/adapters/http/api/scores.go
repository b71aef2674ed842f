package api

import (
	"net/http"
)

// ScoresHandler serves rater sheet edits.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreRequest struct {
	Score *int `json:"score"`
}

type fillRequest struct {
	Value *int `json:"value"`
}

// HandleSetScore handles PUT /sessions/{id}/raters/{rater}/{sheet}/{item}.
// A score of 0 clears the item.
func (h *ScoresHandler) HandleSetScore(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	item, err := oneBased(r, "item")
	if err != nil {
		writeFailure(w, err)
		return
	}
	var body scoreRequest
	if err := decodeBody("decode score", r, &body); err != nil {
		writeFailure(w, err)
		return
	}
	if body.Score == nil {
		writeFailure(w, NewKind("decode score: missing score", ErrBadRequest))
		return
	}
	sess, err := h.deps.SetScore(r.Context(), t.id, t.rater, t.sheet, item, *body.Score)
	writeSession(w, sess, err)
}

// HandleFill handles POST /sessions/{id}/raters/{rater}/{sheet}/fill.
func (h *ScoresHandler) HandleFill(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	var body fillRequest
	if err := decodeBody("decode fill", r, &body); err != nil {
		writeFailure(w, err)
		return
	}
	if body.Value == nil {
		writeFailure(w, NewKind("decode fill: missing value", ErrBadRequest))
		return
	}
	sess, err := h.deps.FillSheet(r.Context(), t.id, t.rater, t.sheet, *body.Value)
	writeSession(w, sess, err)
}

// HandleClear handles POST /sessions/{id}/raters/{rater}/{sheet}/clear.
func (h *ScoresHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	t, err := parseTarget(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	sess, err := h.deps.ClearSheet(r.Context(), t.id, t.rater, t.sheet)
	writeSession(w, sess, err)
}
