package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bkyoung/ideaminer/internal/store"
	"github.com/bkyoung/ideaminer/internal/usecase/questionnaire"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	result, err := s.evaluator.Evaluate(r.Context(), ideaID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	var body struct {
		Answer string `json:"answer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if _, err := s.ideas.GetIdea(r.Context(), ideaID); err != nil {
		s.writeError(w, r, err)
		return
	}

	questions, err := s.followup.Questions(r.Context(), body.Answer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"questions": questions})
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	ideaID := chi.URLParam(r, "id")

	var body struct {
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	idea, err := s.ideas.GetIdea(r.Context(), ideaID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	improved, err := s.followup.Improve(r.Context(), idea.Description, body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": improved})
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	questionnaireID := chi.URLParam(r, "id")

	var body struct {
		Answers map[string]string `json:"answers"`
		Email   string            `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	receipt, err := s.submitter.Submit(r.Context(), questionnaireID, questionnaire.Submission{
		Answers: body.Answers,
		Email:   body.Email,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if receipt.ExtractionQueued && s.extractor != nil {
		go s.runQueuedExtraction(receipt.ResponseID)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               receipt.ResponseID,
		"extractionQueued": receipt.ExtractionQueued,
	})
}

// runQueuedExtraction drives an auto-extract submission in the background.
// Failures are logged, not surfaced: the submitter already got their receipt,
// and the pending status lets an operator re-trigger extraction later.
func (s *Server) runQueuedExtraction(responseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.extractTimeout)
	defer cancel()

	if _, err := s.extractor.Extract(ctx, responseID); err != nil {
		s.logger.Error("queued extraction failed",
			zap.String("response_id", responseID),
			zap.Error(err),
		)
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	responseID := chi.URLParam(r, "id")

	summaries, err := s.extractor.Extract(r.Context(), responseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": summaries})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxAudioBytes)
	if err := r.ParseMultipartForm(s.maxAudioBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "audio too large"})
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing audio file"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable audio file"})
		return
	}
	if int64(len(audio)) < s.minAudioBytes {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "audio too short"})
		return
	}

	transcript, err := s.transcriber.Transcribe(r.Context(), header.Filename, audio)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript})
}

func (s *Server) handleCreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Active      bool   `json:"active"`
		AutoExtract bool   `json:"auto_extract"`
		Questions   []struct {
			Label    string `json:"label"`
			Required bool   `json:"required"`
		} `json:"questions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" || len(body.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name and questions are required"})
		return
	}

	q := store.Questionnaire{
		ID:          uuid.NewString(),
		Name:        body.Name,
		Active:      body.Active,
		AutoExtract: body.AutoExtract,
	}
	for i, question := range body.Questions {
		q.Questions = append(q.Questions, store.Question{
			ID:       uuid.NewString(),
			Label:    question.Label,
			Required: question.Required,
			Position: i,
		})
	}

	if err := s.store.CreateQuestionnaire(r.Context(), q); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"questionnaire_id": q.ID})
}

func (s *Server) handleVoiceIdea(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transcript string `json:"transcript"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	draft, err := s.generator.FromTranscript(r.Context(), body.Transcript)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
