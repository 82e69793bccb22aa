package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/user"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    last_login_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_topic_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    weakness_score INTEGER NOT NULL,
    strength_score INTEGER NOT NULL,
    total_attempts INTEGER NOT NULL,
    UNIQUE (user_id, topic),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    options TEXT NOT NULL,
    correct_answer TEXT NOT NULL,
    topic TEXT NOT NULL,
    chapter TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    subject TEXT NOT NULL,
    grade TEXT NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    usage_count INTEGER NOT NULL DEFAULT 0,
    is_ai_generated INTEGER NOT NULL DEFAULT 0,
    generated_for TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    quiz_type TEXT NOT NULL,
    total_questions INTEGER NOT NULL,
    correct_answers INTEGER NOT NULL DEFAULT 0,
    score INTEGER NOT NULL DEFAULT 0,
    time_taken INTEGER NOT NULL DEFAULT 0,
    is_completed INTEGER NOT NULL DEFAULT 0,
    started_at INTEGER NOT NULL,
    completed_at INTEGER,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS quiz_questions (
    quiz_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    text TEXT NOT NULL,
    options TEXT NOT NULL,
    correct_answer TEXT NOT NULL,
    topic TEXT NOT NULL,
    user_answer TEXT NOT NULL DEFAULT '',
    is_correct INTEGER NOT NULL DEFAULT 0,
    time_taken INTEGER NOT NULL DEFAULT 0,
    explanation_requested INTEGER NOT NULL DEFAULT 0,
    explanation TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL,
    PRIMARY KEY (quiz_id, question_id),
    FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS otps (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    code_hash TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic, is_active);
CREATE INDEX IF NOT EXISTS idx_quizzes_user ON quizzes(user_id, is_completed);
CREATE INDEX IF NOT EXISTS idx_otps_email ON otps(email);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Users
// ============================================================================

func (s *SQLiteStore) SaveUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, role, is_active, last_login_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Name, string(u.Role), boolToInt(u.IsActive), nullTime(u.LastLoginAt), u.CreatedAt.Unix(), u.UpdatedAt.Unix(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrEmailTaken
	}
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*user.User, error) {
	var (
		u         user.User
		role      string
		isActive  int
		lastLogin sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, role, is_active, last_login_at, created_at, updated_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &isActive, &lastLogin, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.IsActive = isActive != 0
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0)
		u.LastLoginAt = &t
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	if err := s.loadTopicStats(ctx, &u); err != nil {
		return nil, err
	}

	stats, err := s.UserQuizStats(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.TotalQuizzes = stats.TotalQuizzes
	u.AverageScore = stats.AverageScore
	u.HasTakenInitial = stats.TotalQuizzes > 0
	return &u, nil
}

// loadTopicStats fills the user's weakness stats in insertion order, so
// ties in weakness keep the order the topics were first attempted in.
func (s *SQLiteStore) loadTopicStats(ctx context.Context, u *user.User) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT topic, weakness_score, strength_score, total_attempts FROM user_topic_stats WHERE user_id = ? ORDER BY id",
		u.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			topic string
			stat  user.TopicStat
		)
		if err := rows.Scan(&topic, &stat.WeaknessScore, &stat.StrengthScore, &stat.TotalAttempts); err != nil {
			return err
		}
		stat.Topic = question.Topic(topic)
		u.TopicStats = append(u.TopicStats, stat)
	}
	return rows.Err()
}

// SaveTopicStats upserts the user's weakness stats. Existing rows are
// updated in place to preserve their insertion order.
func (s *SQLiteStore) SaveTopicStats(ctx context.Context, userID string, stats []user.TopicStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stat := range stats {
		result, err := tx.ExecContext(ctx,
			"UPDATE user_topic_stats SET weakness_score = ?, strength_score = ?, total_attempts = ? WHERE user_id = ? AND topic = ?",
			stat.WeaknessScore, stat.StrengthScore, stat.TotalAttempts, userID, string(stat.Topic),
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO user_topic_stats (user_id, topic, weakness_score, strength_score, total_attempts) VALUES (?, ?, ?, ?, ?)",
				userID, string(stat.Topic), stat.WeaknessScore, stat.StrengthScore, stat.TotalAttempts,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// UserQuizStats aggregates the user's completed attempts.
func (s *SQLiteStore) UserQuizStats(ctx context.Context, userID string) (UserStats, error) {
	var (
		stats    UserStats
		avg      sql.NullFloat64
		lastQuiz sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(score), MAX(completed_at) FROM quizzes WHERE user_id = ? AND is_completed = 1",
		userID,
	).Scan(&stats.TotalQuizzes, &avg, &lastQuiz)
	if err != nil {
		return UserStats{}, err
	}
	if avg.Valid {
		stats.AverageScore = int(avg.Float64 + 0.5)
	}
	if lastQuiz.Valid {
		stats.LastQuizAt = lastQuiz.Int64
	}
	return stats, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context, filter UserFilter) ([]*user.User, int, error) {
	where := "1=1"
	var args []any
	if filter.Role != "" {
		where += " AND role = ?"
		args = append(args, filter.Role)
	}
	if filter.Active != nil {
		where += " AND is_active = ?"
		args = append(args, boolToInt(*filter.Active))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM users WHERE "+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, filter.Limit, filter.Offset)...,
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

	users := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, nil
}

func (s *SQLiteStore) UpdateUserStatus(ctx context.Context, id string, active bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), time.Now().Unix(), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *SQLiteStore) UpdateUserLogin(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?",
		at.Unix(), at.Unix(), id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteUser removes the account with all its attempts and stats.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM quiz_questions WHERE quiz_id IN (SELECT id FROM quizzes WHERE user_id = ?)", id)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM quizzes WHERE user_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_topic_stats WHERE user_id = ?", id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

// VerifyActive satisfies the auth middleware's user check.
func (s *SQLiteStore) VerifyActive(ctx context.Context, userID string) error {
	var isActive int
	err := s.db.QueryRowContext(ctx, "SELECT is_active FROM users WHERE id = ?", userID).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if isActive == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// One-time codes
// ============================================================================

func (s *SQLiteStore) SaveOTP(ctx context.Context, otp *auth.OTP) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO otps (id, email, code_hash, attempts, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		otp.ID, otp.Email, otp.CodeHash, otp.Attempts, otp.ExpiresAt.Unix(), otp.CreatedAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) LatestOTP(ctx context.Context, email string) (*auth.OTP, error) {
	var (
		otp       auth.OTP
		expiresAt int64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, code_hash, attempts, expires_at, created_at FROM otps WHERE email = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		email,
	).Scan(&otp.ID, &otp.Email, &otp.CodeHash, &otp.Attempts, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	otp.ExpiresAt = time.Unix(expiresAt, 0)
	otp.CreatedAt = time.Unix(createdAt, 0)
	return &otp, nil
}

func (s *SQLiteStore) DeleteOTPs(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM otps WHERE email = ?", email)
	return err
}

func (s *SQLiteStore) IncrementOTPAttempts(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE otps SET attempts = attempts + 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *SQLiteStore) CountOTPsSince(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM otps WHERE email = ? AND created_at >= ?",
		email, since.Unix(),
	).Scan(&count)
	return count, err
}

// ============================================================================
// Helpers
// ============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
