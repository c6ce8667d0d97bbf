// Package httpapi is the HTTP surface. Routes live under /api/v1;
// operational endpoints (health, metrics) sit at the root. Handlers translate
// between the wire and the use cases and own the status-code contract.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bkyoung/ideaminer/internal/adapter/ratelimit"
	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/bkyoung/ideaminer/internal/usecase/questionnaire"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Evaluator scores one stored idea.
type Evaluator interface {
	Evaluate(ctx context.Context, ideaID string) (domain.EvaluationResult, error)
}

// FollowUp generates clarifying questions and improved descriptions.
type FollowUp interface {
	Questions(ctx context.Context, answer string) ([]string, error)
	Improve(ctx context.Context, description, notes string) (string, error)
}

// Extractor mines ideas out of a submitted response.
type Extractor interface {
	Extract(ctx context.Context, responseID string) ([]domain.IdeaSummary, error)
}

// Generator drafts an idea from a transcript.
type Generator interface {
	FromTranscript(ctx context.Context, transcript string) (domain.GeneratedIdea, error)
}

// Submitter accepts questionnaire responses.
type Submitter interface {
	Submit(ctx context.Context, questionnaireID string, sub questionnaire.Submission) (questionnaire.Receipt, error)
}

// Transcriber turns uploaded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Deps carries everything the server needs.
type Deps struct {
	Logger      *zap.Logger
	Evaluator   Evaluator
	FollowUp    FollowUp
	Extractor   Extractor
	Generator   Generator
	Submitter   Submitter
	Transcriber Transcriber
	Ideas       store.Ideas
	Limiter     ratelimit.Limiter

	// Questionnaires backs the admin creation endpoint.
	Questionnaires store.Questionnaires

	AuthToken     string
	AdminToken    string
	MinAudioBytes int64
	MaxAudioBytes int64

	// ExtractTimeout bounds the background extraction spawned after an
	// auto-extract submission.
	ExtractTimeout time.Duration
}

// Server holds the handlers and their dependencies.
type Server struct {
	logger      *zap.Logger
	evaluator   Evaluator
	followup    FollowUp
	extractor   Extractor
	generator   Generator
	submitter   Submitter
	transcriber Transcriber
	ideas       store.Ideas
	limiter     ratelimit.Limiter
	store       store.Questionnaires

	authToken      string
	adminToken     string
	minAudioBytes  int64
	maxAudioBytes  int64
	extractTimeout time.Duration
}

// NewServer constructs the server. Nil optional deps disable their routes
// gracefully at request time, not at startup.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.ExtractTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Server{
		logger:         logger,
		evaluator:      deps.Evaluator,
		followup:       deps.FollowUp,
		extractor:      deps.Extractor,
		generator:      deps.Generator,
		submitter:      deps.Submitter,
		transcriber:    deps.Transcriber,
		ideas:          deps.Ideas,
		limiter:        deps.Limiter,
		store:          deps.Questionnaires,
		authToken:      deps.AuthToken,
		adminToken:     deps.AdminToken,
		minAudioBytes:  deps.MinAudioBytes,
		maxAudioBytes:  deps.MaxAudioBytes,
		extractTimeout: timeout,
	}
}

// Router assembles the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public, rate limited: this is the one door strangers can knock on.
		r.With(s.rateLimit).Post("/questionnaires/{id}/responses", s.handleSubmitResponse)

		r.Group(func(r chi.Router) {
			r.Use(requireToken(s.authToken))

			r.Post("/ideas/{id}/evaluation", s.handleEvaluate)
			r.Post("/ideas/{id}/questions", s.handleQuestions)
			r.Post("/ideas/{id}/improvement", s.handleImprove)
			r.Post("/responses/{id}/extraction", s.handleExtract)
			r.Post("/voice/transcriptions", s.handleTranscribe)
			r.Post("/voice/ideas", s.handleVoiceIdea)
		})

		// Questionnaire management needs the admin token, not the API token.
		r.Group(func(r chi.Router) {
			r.Use(requireToken(s.adminToken))

			r.Post("/questionnaires", s.handleCreateQuestionnaire)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
