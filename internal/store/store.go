package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCompleted is returned by CompleteQuiz when another request
	// completed the attempt first.
	ErrAlreadyCompleted = errors.New("quiz already completed")
	// ErrEmailTaken is returned when creating a user with an email that is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// UserStats is the aggregate quiz performance attached to a loaded user.
type UserStats struct {
	TotalQuizzes int
	AverageScore int
	LastQuizAt   int64 // unix seconds, 0 when no quizzes
}

// TopicCount is one row of the question-bank topic distribution.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Statistics is the platform-wide snapshot for the admin dashboard.
type Statistics struct {
	TotalStudents    int
	ActiveStudents   int
	TotalAdmins      int
	CompletedQuizzes int
	AverageScore     int
	ActiveQuestions  int
	AIGenerated      int
	ByTopic          []TopicCount
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role   string // "user", "admin" or "" for all
	Active *bool  // nil for all
	Offset int
	Limit  int
}
