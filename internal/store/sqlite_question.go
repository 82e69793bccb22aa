package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/quizlearner/backend/internal/domain/question"
)

const questionColumns = "id, text, options, correct_answer, topic, chapter, difficulty, subject, grade, explanation, is_active, usage_count, is_ai_generated, generated_for, created_at, updated_at"

func (s *SQLiteStore) SaveQuestion(ctx context.Context, q *question.Question) error {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO questions ("+questionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		q.ID, q.Text, string(optionsJSON), q.CorrectAnswer, string(q.Topic), q.Chapter, string(q.Difficulty),
		q.Subject, q.Grade, q.Explanation, boolToInt(q.IsActive), q.UsageCount, boolToInt(q.IsAIGenerated),
		q.GeneratedFor, q.CreatedAt.Unix(), q.UpdatedAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ByTopic returns up to limit active questions for a topic.
func (s *SQLiteStore) ByTopic(ctx context.Context, topic question.Topic, limit int) ([]question.Question, error) {
	return s.queryQuestions(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE topic = ? AND is_active = 1 LIMIT ?",
		string(topic), limit,
	)
}

// Random returns up to count random active questions, excluding the given
// IDs.
func (s *SQLiteStore) Random(ctx context.Context, count int, excludeIDs []string) ([]question.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE is_active = 1"
	args := []any{}
	if len(excludeIDs) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excludeIDs)) + ")"
		args = append(args, toAnySlice(excludeIDs)...)
	}
	query += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, count)
	return s.queryQuestions(ctx, query, args...)
}

// RandomByTopics returns up to count random active questions from the given
// topics, excluding the given IDs.
func (s *SQLiteStore) RandomByTopics(ctx context.Context, topics []question.Topic, count int, excludeIDs []string) ([]question.Question, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	query := "SELECT " + questionColumns + " FROM questions WHERE is_active = 1 AND topic IN (" + placeholders(len(topics)) + ")"
	args := make([]any, 0, len(topics)+len(excludeIDs)+1)
	for _, t := range topics {
		args = append(args, string(t))
	}
	if len(excludeIDs) > 0 {
		query += " AND id NOT IN (" + placeholders(len(excludeIDs)) + ")"
		args = append(args, toAnySlice(excludeIDs)...)
	}
	query += " ORDER BY RANDOM() LIMIT ?"
	args = append(args, count)
	return s.queryQuestions(ctx, query, args...)
}

// SaveGenerated persists a batch of generated questions atomically.
func (s *SQLiteStore) SaveGenerated(ctx context.Context, questions []*question.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO questions ("+questionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			q.ID, q.Text, string(optionsJSON), q.CorrectAnswer, string(q.Topic), q.Chapter, string(q.Difficulty),
			q.Subject, q.Grade, q.Explanation, boolToInt(q.IsActive), q.UsageCount, boolToInt(q.IsAIGenerated),
			q.GeneratedFor, q.CreatedAt.Unix(), q.UpdatedAt.Unix(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// IncrementUsage bumps the usage counter for every selected question.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE questions SET usage_count = usage_count + 1 WHERE id IN ("+placeholders(len(ids))+")",
		toAnySlice(ids)...,
	)
	return err
}

// SetExplanation caches a generated explanation on the bank question.
func (s *SQLiteStore) SetExplanation(ctx context.Context, id, explanation string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE questions SET explanation = ?, updated_at = ? WHERE id = ?",
		explanation, time.Now().Unix(), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *SQLiteStore) CountActiveQuestions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE is_active = 1").Scan(&count)
	return count, err
}

// TopicDistribution returns active question counts per topic, most covered
// first.
func (s *SQLiteStore) TopicDistribution(ctx context.Context) ([]TopicCount, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT topic, COUNT(*) FROM questions WHERE is_active = 1 GROUP BY topic ORDER BY COUNT(*) DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*question.Question, error) {
	var (
		q             question.Question
		optionsJSON   string
		topic         string
		difficulty    string
		isActive      int
		isAIGenerated int
		createdAt     int64
		updatedAt     int64
	)
	err := row.Scan(&q.ID, &q.Text, &optionsJSON, &q.CorrectAnswer, &topic, &q.Chapter, &difficulty,
		&q.Subject, &q.Grade, &q.Explanation, &isActive, &q.UsageCount, &isAIGenerated,
		&q.GeneratedFor, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
		return nil, err
	}
	q.Topic = question.Topic(topic)
	q.Difficulty = question.Difficulty(difficulty)
	q.IsActive = isActive != 0
	q.IsAIGenerated = isAIGenerated != 0
	q.CreatedAt = time.Unix(createdAt, 0)
	q.UpdatedAt = time.Unix(updatedAt, 0)
	return &q, nil
}

func (s *SQLiteStore) queryQuestions(ctx context.Context, query string, args ...any) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAnySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
