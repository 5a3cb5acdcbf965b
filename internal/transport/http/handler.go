package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pint-quiz-service/internal/app"
	"pint-quiz-service/internal/domain"
	"pint-quiz-service/internal/export"
	"pint-quiz-service/internal/scoring"
)

// Handler exposes the grading use cases over REST.
type Handler struct {
	service  *app.GradingService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewHandler(service *app.GradingService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

// submitRequest carries answers as raw JSON so the wire format is decoded
// by the scoring package.
type submitRequest struct {
	UserID  string          `json:"userId" validate:"required,max=128"`
	Answers json.RawMessage `json:"answers"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Position *int   `json:"position,omitempty"`
	Got      *int   `json:"got,omitempty"`
	Want     *int   `json:"want,omitempty"`
}

// NewRouter mounts the REST routes and the websocket feed.
func NewRouter(h *Handler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(h.logger), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/quizzes/{quizID}", func(r chi.Router) {
		r.Post("/submissions", h.Submit)
		r.Get("/submissions", h.ListSubmissions)
		r.Get("/gradebook", h.Gradebook)
		r.Get("/gradebook.xlsx", h.ExportGradebook)
	})
	r.Get("/submissions/{submissionID}", h.GetSubmission)
	if ws != nil {
		r.Get("/ws", ws.ServeWS)
	}
	return r
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	answers, err := scoring.DecodeAnswers(req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sub, err := h.service.Submit(r.Context(), chi.URLParam(r, "quizID"), req.UserID, answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListSubmissions(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) Gradebook(w http.ResponseWriter, r *http.Request) {
	gb, err := h.service.Gradebook(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gb)
}

// ExportGradebook streams the quiz's gradebook as an .xlsx workbook.
func (h *Handler) ExportGradebook(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	quiz, subs, gb, err := h.service.ExportData(r.Context(), quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-gradebook.xlsx"`, quizID))
	if err := export.WriteGradebook(w, quiz, subs, gb); err != nil {
		h.logger.Error("export gradebook", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var malformed *scoring.MalformedError
	var mismatch *scoring.CountMismatchError
	switch {
	case errors.As(err, &malformed):
		if malformed.Position >= 0 {
			resp.Position = &malformed.Position
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &mismatch):
		resp.Got, resp.Want = &mismatch.Got, &mismatch.Want
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case app.IsUnscorable(err):
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, resp)
	case errors.Is(err, domain.ErrInvalidQuiz):
		writeJSON(w, http.StatusConflict, resp)
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
