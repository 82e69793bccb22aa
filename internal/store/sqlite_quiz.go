package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/quiz"
)

// SaveQuiz stores a freshly started attempt with its question snapshots.
func (s *SQLiteStore) SaveQuiz(ctx context.Context, qz *quiz.Quiz) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO quizzes (id, user_id, quiz_type, total_questions, started_at) VALUES (?, ?, ?, ?, ?)",
		qz.ID, qz.UserID, string(qz.Type), qz.TotalQuestions, qz.StartedAt.Unix(),
	)
	if err != nil {
		return err
	}

	for i, q := range qz.Questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO quiz_questions (quiz_id, question_id, text, options, correct_answer, topic, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			qz.ID, q.QuestionID, q.Text, string(optionsJSON), q.CorrectAnswer, string(q.Topic), i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetQuiz loads an attempt with its snapshots in presentation order.
func (s *SQLiteStore) GetQuiz(ctx context.Context, id, userID string) (*quiz.Quiz, error) {
	var (
		qz          quiz.Quiz
		quizType    string
		isCompleted int
		startedAt   int64
		completedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, quiz_type, total_questions, correct_answers, score, time_taken, is_completed, started_at, completed_at FROM quizzes WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&qz.ID, &qz.UserID, &quizType, &qz.TotalQuestions, &qz.CorrectAnswers, &qz.Score, &qz.TimeTaken, &isCompleted, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	qz.Type = quiz.Type(quizType)
	qz.IsCompleted = isCompleted != 0
	qz.StartedAt = time.Unix(startedAt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		qz.CompletedAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id, text, options, correct_answer, topic, user_answer, is_correct, time_taken, explanation_requested, explanation FROM quiz_questions WHERE quiz_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q                    quiz.Question
			optionsJSON          string
			topic                string
			isCorrect            int
			explanationRequested int
		)
		if err := rows.Scan(&q.QuestionID, &q.Text, &optionsJSON, &q.CorrectAnswer, &topic, &q.UserAnswer, &isCorrect, &q.TimeTaken, &explanationRequested, &q.Explanation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, err
		}
		q.Topic = question.Topic(topic)
		q.IsCorrect = isCorrect != 0
		q.ExplanationRequested = explanationRequested != 0
		qz.Questions = append(qz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	qz.RefreshAnalysis()
	return &qz, nil
}

// CompleteQuiz persists a completed attempt. The completion flag flips with
// a guarded update so concurrent submissions of the same attempt cannot
// both win; the loser gets ErrAlreadyCompleted.
func (s *SQLiteStore) CompleteQuiz(ctx context.Context, qz *quiz.Quiz) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE quizzes SET is_completed = 1, correct_answers = ?, score = ?, time_taken = ?, completed_at = ? WHERE id = ? AND is_completed = 0",
		qz.CorrectAnswers, qz.Score, qz.TimeTaken, qz.CompletedAt.Unix(), qz.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyCompleted
	}

	for _, q := range qz.Questions {
		_, err = tx.ExecContext(ctx,
			"UPDATE quiz_questions SET user_answer = ?, is_correct = ?, time_taken = ? WHERE quiz_id = ? AND question_id = ?",
			q.UserAnswer, boolToInt(q.IsCorrect), q.TimeTaken, qz.ID, q.QuestionID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// MarkExplanationRequested records on the attempt that the user asked for an
// explanation of one of its questions. The write is scoped to attempts owned
// by the given user; anything else is ErrNotFound.
func (s *SQLiteStore) MarkExplanationRequested(ctx context.Context, quizID, userID, questionID, explanation string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE quiz_questions SET explanation_requested = 1, explanation = ?
		 WHERE question_id = ? AND quiz_id IN (SELECT id FROM quizzes WHERE id = ? AND user_id = ?)`,
		explanation, questionID, quizID, userID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ListCompletedQuizzes returns the user's completed attempts, newest first,
// with the total count for pagination.
func (s *SQLiteStore) ListCompletedQuizzes(ctx context.Context, userID string, offset, limit int) ([]*quiz.Quiz, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM quizzes WHERE user_id = ? AND is_completed = 1", userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM quizzes WHERE user_id = ? AND is_completed = 1 ORDER BY completed_at DESC, id LIMIT ? OFFSET ?",
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	quizzes := make([]*quiz.Quiz, 0, len(ids))
	for _, id := range ids {
		qz, err := s.GetQuiz(ctx, id, userID)
		if err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, qz)
	}
	return quizzes, total, nil
}

// RecentQuestionIDs returns the question IDs used in the user's most recent
// completed attempts, for repetition avoidance.
func (s *SQLiteStore) RecentQuestionIDs(ctx context.Context, userID string, attempts int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT qq.question_id FROM quiz_questions qq
		 WHERE qq.quiz_id IN (
		     SELECT id FROM quizzes WHERE user_id = ? AND is_completed = 1
		     ORDER BY completed_at DESC, id LIMIT ?
		 )`,
		userID, attempts,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountCompletedQuizzes reports how many attempts the user has finished.
func (s *SQLiteStore) CountCompletedQuizzes(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM quizzes WHERE user_id = ? AND is_completed = 1", userID,
	).Scan(&count)
	return count, err
}

// Statistics assembles the admin dashboard snapshot.
func (s *SQLiteStore) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM users WHERE role = 'user'",
	).Scan(&stats.TotalStudents, &stats.ActiveStudents)
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&stats.TotalAdmins); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(score) FROM quizzes WHERE is_completed = 1",
	).Scan(&stats.CompletedQuizzes, &avg)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AverageScore = int(avg.Float64 + 0.5)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_ai_generated), 0) FROM questions WHERE is_active = 1",
	).Scan(&stats.ActiveQuestions, &stats.AIGenerated)
	if err != nil {
		return nil, err
	}

	byTopic, err := s.TopicDistribution(ctx)
	if err != nil {
		return nil, err
	}
	stats.ByTopic = byTopic

	return &stats, nil
}
