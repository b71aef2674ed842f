package api

import (
	"net/http"
)

// CalculateHandler evaluates a posted document without storing it.
type CalculateHandler struct {
	deps Dependencies
}

// NewCalculateHandler creates a new calculate handler.
func NewCalculateHandler(deps Dependencies) *CalculateHandler {
	return &CalculateHandler{deps: deps}
}

// HandleCalculate handles POST /calculate.
func (h *CalculateHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Calculate(r.Context(), r.Body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
