package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bkyoung/ideaminer/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/ideaminer/internal/adapter/llm/http"
	"github.com/bkyoung/ideaminer/internal/adapter/observability"
	transcribe "github.com/bkyoung/ideaminer/internal/adapter/transcribe/openai"
	"github.com/bkyoung/ideaminer/internal/parse"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/bkyoung/ideaminer/internal/usecase/followup"
	"github.com/bkyoung/ideaminer/internal/usecase/generate"
	"github.com/bkyoung/ideaminer/internal/usecase/questionnaire"
	"go.uber.org/zap"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain failures to the status contract. Model-side detail
// never reaches the response body; it was already logged where it happened.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *questionnaire.ValidationError
		perr *parse.Error
		uerr *llmhttp.Error
	)

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, questionnaire.ErrInactive):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})

	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid submission", Fields: verr.Fields})

	case errors.Is(err, followup.ErrAnswerTooShort),
		errors.Is(err, followup.ErrNotesTooShort),
		errors.Is(err, generate.ErrTranscriptTooShort),
		errors.Is(err, generate.ErrTranscriptTooLong):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})

	// State conflicts are an idempotency guard, not a server fault. They read
	// as a caller mistake, so they get 400 like the other bad requests.
	case errors.Is(err, store.ErrStatusConflict):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "extraction already processed"})

	case errors.Is(err, anthropic.ErrNotConfigured), errors.Is(err, transcribe.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "service not configured"})

	case errors.As(err, &perr):
		observability.ModelRepliesRejectedTotal.Inc()
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: perr.Error()})

	case errors.As(err, &uerr):
		s.logger.Warn("model upstream error",
			zap.String("path", r.URL.Path),
			zap.String("type", uerr.Type.String()),
			zap.String("message", uerr.Message),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "upstream model unavailable"})

	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
