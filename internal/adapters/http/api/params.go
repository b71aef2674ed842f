package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
)

const (
	// IdempotencyHeader carries the client key for create and import.
	IdempotencyHeader = "Idempotency-Key"

	maxJSONBody = 64 << 10
)

// scoreTarget is the decoded {rater}/{sheet} path pair.
type scoreTarget struct {
	id    string
	rater int
	sheet model.SheetID
}

// oneBased reads a 1-based path number and returns it 0-based.
func oneBased(r *http.Request, name string) (int, error) {
	v := chi.URLParam(r, name)
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, WrapKind("parse "+name, ErrBadPath, errors.New("expected a positive integer, got "+strconv.Quote(v)))
	}
	return n - 1, nil
}

func parseTarget(r *http.Request) (scoreTarget, error) {
	rater, err := oneBased(r, "rater")
	if err != nil {
		return scoreTarget{}, err
	}
	sheet, err := model.ParseSheetID(chi.URLParam(r, "sheet"))
	if err != nil {
		return scoreTarget{}, WrapKind("parse sheet", ErrBadPath, err)
	}
	return scoreTarget{id: chi.URLParam(r, "id"), rater: rater, sheet: sheet}, nil
}

// decodeBody reads a small JSON body into v. Unknown fields are rejected.
func decodeBody(op string, r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
