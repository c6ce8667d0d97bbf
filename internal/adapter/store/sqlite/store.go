// Package sqlite implements the store ports using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bkyoung/ideaminer/internal/domain"
	"github.com/bkyoung/ideaminer/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ideas (
		idea_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'manual',
		response_id TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS evaluations (
		idea_id TEXT PRIMARY KEY,
		result_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (idea_id) REFERENCES ideas(idea_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS questionnaires (
		questionnaire_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		auto_extract INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS questions (
		question_id TEXT PRIMARY KEY,
		questionnaire_id TEXT NOT NULL,
		label TEXT NOT NULL,
		required INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (questionnaire_id) REFERENCES questionnaires(questionnaire_id) ON DELETE CASCADE
	);

	-- The snapshot column freezes the question/answer pairing at submission
	-- time; later edits to the questions table never touch it.
	CREATE TABLE IF NOT EXISTS responses (
		response_id TEXT PRIMARY KEY,
		questionnaire_id TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		extraction_status TEXT NOT NULL DEFAULT 'pending'
			CHECK(extraction_status IN ('pending', 'in_progress', 'complete')),
		submitted_at INTEGER NOT NULL,
		FOREIGN KEY (questionnaire_id) REFERENCES questionnaires(questionnaire_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_questions_questionnaire ON questions(questionnaire_id, position);
	CREATE INDEX IF NOT EXISTS idx_responses_questionnaire ON responses(questionnaire_id);
	CREATE INDEX IF NOT EXISTS idx_ideas_response ON ideas(response_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateIdea stores a new idea.
func (s *Store) CreateIdea(ctx context.Context, idea store.Idea) error {
	query := `
		INSERT INTO ideas (idea_id, title, description, source, response_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	responseID := sql.NullString{String: idea.ResponseID, Valid: idea.ResponseID != ""}
	_, err := s.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.Description, idea.Source, responseID, idea.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create idea: %w", err)
	}
	return nil
}

// GetIdea loads an idea by id.
func (s *Store) GetIdea(ctx context.Context, id string) (store.Idea, error) {
	query := `
		SELECT idea_id, title, description, source, COALESCE(response_id, ''), created_at
		FROM ideas WHERE idea_id = ?
	`
	var idea store.Idea
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&idea.ID, &idea.Title, &idea.Description, &idea.Source, &idea.ResponseID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Idea{}, store.ErrNotFound
	}
	if err != nil {
		return store.Idea{}, fmt.Errorf("get idea: %w", err)
	}
	idea.CreatedAt = time.Unix(createdAt, 0).UTC()
	return idea, nil
}

// SaveEvaluation stores the latest evaluation for an idea, replacing any
// previous one.
func (s *Store) SaveEvaluation(ctx context.Context, ideaID string, result domain.EvaluationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}
	query := `
		INSERT INTO evaluations (idea_id, result_json, created_at) VALUES (?, ?, ?)
		ON CONFLICT(idea_id) DO UPDATE SET result_json = excluded.result_json, created_at = excluded.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, ideaID, string(resultJSON), time.Now().Unix()); err != nil {
		return fmt.Errorf("save evaluation: %w", err)
	}
	return nil
}

// CreateQuestionnaire stores a questionnaire and its questions.
func (s *Store) CreateQuestionnaire(ctx context.Context, q store.Questionnaire) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO questionnaires (questionnaire_id, name, active, auto_extract) VALUES (?, ?, ?, ?)`,
		q.ID, q.Name, boolToInt(q.Active), boolToInt(q.AutoExtract),
	)
	if err != nil {
		return fmt.Errorf("create questionnaire: %w", err)
	}

	for _, question := range q.Questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (question_id, questionnaire_id, label, required, position) VALUES (?, ?, ?, ?, ?)`,
			question.ID, q.ID, question.Label, boolToInt(question.Required), question.Position,
		)
		if err != nil {
			return fmt.Errorf("create question: %w", err)
		}
	}

	return tx.Commit()
}

// GetQuestionnaire loads a questionnaire with its questions in position order.
func (s *Store) GetQuestionnaire(ctx context.Context, id string) (store.Questionnaire, error) {
	var q store.Questionnaire
	var active, autoExtract int
	err := s.db.QueryRowContext(ctx,
		`SELECT questionnaire_id, name, active, auto_extract FROM questionnaires WHERE questionnaire_id = ?`, id,
	).Scan(&q.ID, &q.Name, &active, &autoExtract)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Questionnaire{}, store.ErrNotFound
	}
	if err != nil {
		return store.Questionnaire{}, fmt.Errorf("get questionnaire: %w", err)
	}
	q.Active = active != 0
	q.AutoExtract = autoExtract != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, label, required, position FROM questions WHERE questionnaire_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return store.Questionnaire{}, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var question store.Question
		var required int
		if err := rows.Scan(&question.ID, &question.Label, &required, &question.Position); err != nil {
			return store.Questionnaire{}, fmt.Errorf("scan question: %w", err)
		}
		question.Required = required != 0
		q.Questions = append(q.Questions, question)
	}
	return q, rows.Err()
}

// CreateResponse stores a submitted response with its frozen snapshot.
func (s *Store) CreateResponse(ctx context.Context, r store.Response) error {
	snapshotJSON, err := json.Marshal(r.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	status := r.ExtractionStatus
	if status == "" {
		status = store.ExtractionPending
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (response_id, questionnaire_id, snapshot_json, extraction_status, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.QuestionnaireID, string(snapshotJSON), string(status), r.SubmittedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

// GetResponse loads a response and unfreezes its snapshot.
func (s *Store) GetResponse(ctx context.Context, id string) (store.Response, error) {
	var r store.Response
	var snapshotJSON, status string
	var submittedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT response_id, questionnaire_id, snapshot_json, extraction_status, submitted_at FROM responses WHERE response_id = ?`, id,
	).Scan(&r.ID, &r.QuestionnaireID, &snapshotJSON, &status, &submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Response{}, store.ErrNotFound
	}
	if err != nil {
		return store.Response{}, fmt.Errorf("get response: %w", err)
	}

	var snapshot domain.ResponseSnapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return store.Response{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	r.Snapshot = snapshot
	r.ExtractionStatus = store.ExtractionStatus(status)
	r.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	return r, nil
}

// TransitionExtraction performs a compare-and-set on the extraction status.
// The guard makes re-triggering extraction idempotent: no rows match when
// the response is already past the expected state, and no duplicate work
// happens.
func (s *Store) TransitionExtraction(ctx context.Context, responseID string, from, to store.ExtractionStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE responses SET extraction_status = ? WHERE response_id = ? AND extraction_status = ?`,
		string(to), responseID, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition extraction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing response from a state conflict.
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM responses WHERE response_id = ?`, responseID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check response: %w", err)
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		return store.ErrStatusConflict
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
