// Package api declares the HTTP routes of the scoring service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	service "github.com/Shaiyko/FinalExaminationScoreAssessment/internal/app"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/types"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

const corsMaxAge = 300

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider

	CreateSession(ctx context.Context, key string) (*model.Session, bool, error)
	ImportSession(ctx context.Context, key string, r io.Reader) (*model.Session, bool, error)
	Session(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context) ([]types.SessionInfo, error)
	DeleteSession(ctx context.Context, id string) error

	UpdateStudent(ctx context.Context, id string, info model.StudentInfo) (*model.Session, error)
	SetScore(ctx context.Context, id string, rater int, sheet model.SheetID, item, score int) (*model.Session, error)
	FillSheet(ctx context.Context, id string, rater int, sheet model.SheetID, value int) (*model.Session, error)
	ClearSheet(ctx context.Context, id string, rater int, sheet model.SheetID) (*model.Session, error)
	ResetSession(ctx context.Context, id string) (*model.Session, error)

	Evaluate(ctx context.Context, id string) (types.Summary, error)
	Calculate(ctx context.Context, r io.Reader) (types.Summary, error)
	Export(ctx context.Context, id string, w io.Writer) (string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	sessionsHandler  *SessionsHandler
	scoresHandler    *ScoresHandler
	calculateHandler *CalculateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		sessionsHandler:  NewSessionsHandler(deps),
		scoresHandler:    NewScoresHandler(deps),
		calculateHandler: NewCalculateHandler(deps),
	}
}

// NewRouter returns a chi router with the common middleware stack.
// An empty origin list allows every origin.
func NewRouter(corsOrigins []string, l logger.Logger) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(l))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"Content-Disposition", "Location"},
		MaxAge:         corsMaxAge,
	}))
	r.Use(MetricsMiddleware)
	return r
}

// Register attaches all business routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Post("/calculate", s.calculateHandler.HandleCalculate)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.sessionsHandler.HandleCreate)
		r.Get("/", s.sessionsHandler.HandleList)
		r.Post("/import", s.sessionsHandler.HandleImport)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.sessionsHandler.HandleGet)
			r.Delete("/", s.sessionsHandler.HandleDelete)
			r.Put("/student", s.sessionsHandler.HandleUpdateStudent)
			r.Post("/reset", s.sessionsHandler.HandleReset)
			r.Get("/summary", s.sessionsHandler.HandleSummary)
			r.Get("/export", s.sessionsHandler.HandleExport)

			r.Route("/raters/{rater}/{sheet}", func(r chi.Router) {
				r.Put("/{item}", s.scoresHandler.HandleSetScore)
				r.Post("/fill", s.scoresHandler.HandleFill)
				r.Post("/clear", s.scoresHandler.HandleClear)
			})
		})
	})
}

// RequestLogger logs every request at debug level.
func RequestLogger(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if l == nil {
				return
			}
			l.Debug(r.Context(), "http request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var pe *document.ParseError
	if errors.As(err, &pe) {
		resp.Field = pe.Field
	}
	writeJSON(w, status, resp)
}

// writeFailure maps upstream error kinds to HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrImportTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, document.ErrInvalidDocument):
		writeError(w, http.StatusUnprocessableEntity, "invalid_document", err)
	case errors.Is(err, model.ErrScoreRange):
		writeError(w, http.StatusUnprocessableEntity, "score_out_of_range", err)
	case errors.Is(err, model.ErrRaterIndex), errors.Is(err, model.ErrItemIndex),
		errors.Is(err, model.ErrSheet), errors.Is(err, ErrBadPath), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
