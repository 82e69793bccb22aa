package store_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/quiz"
	"github.com/quizlearner/backend/internal/domain/user"
	"github.com/quizlearner/backend/internal/id"
	"github.com/quizlearner/backend/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newQuestion(t *testing.T, text string, topic question.Topic) *question.Question {
	t.Helper()
	q, err := question.New(text,
		[]string{"Option A", "Option B", "Option C", "Option D"},
		"Option A", topic, "Test Chapter", question.DifficultyEasy)
	if err != nil {
		t.Fatalf("failed to build question: %v", err)
	}
	return q
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := user.New("student@example.com", "Asha")
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "student@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != u.ID || got.Name != "Asha" || got.Role != user.RoleUser {
		t.Errorf("loaded user mismatch: %+v", got)
	}
	if got.HasTakenInitial {
		t.Error("new user should not have taken the initial quiz")
	}

	dup := user.New("student@example.com", "Other")
	if err := s.SaveUser(ctx, dup); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken for duplicate email, got %v", err)
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestVerifyActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := user.New("active@example.com", "")
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	if err := s.VerifyActive(ctx, u.ID); err != nil {
		t.Errorf("active user should verify, got %v", err)
	}
	if err := s.UpdateUserStatus(ctx, u.ID, false); err != nil {
		t.Fatalf("UpdateUserStatus failed: %v", err)
	}
	if err := s.VerifyActive(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deactivated user should not verify, got %v", err)
	}
	if err := s.VerifyActive(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user should not verify, got %v", err)
	}
}

func TestTopicStatsKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := user.New("stats@example.com", "")
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	u.UpdateWeakness(question.TopicPlants, 30)
	u.UpdateWeakness(question.TopicAnimals, 80)
	if err := s.SaveTopicStats(ctx, u.ID, u.TopicStats); err != nil {
		t.Fatalf("SaveTopicStats failed: %v", err)
	}

	// Updating an existing row must not move it behind later inserts.
	u.UpdateWeakness(question.TopicPlants, 50)
	u.UpdateWeakness(question.TopicHumanBody, 20)
	if err := s.SaveTopicStats(ctx, u.ID, u.TopicStats); err != nil {
		t.Fatalf("SaveTopicStats failed: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	wantOrder := []question.Topic{question.TopicPlants, question.TopicAnimals, question.TopicHumanBody}
	if len(got.TopicStats) != len(wantOrder) {
		t.Fatalf("expected %d topic stats, got %d", len(wantOrder), len(got.TopicStats))
	}
	for i, topic := range wantOrder {
		if got.TopicStats[i].Topic != topic {
			t.Errorf("stat %d: expected topic %s, got %s", i, topic, got.TopicStats[i].Topic)
		}
	}
	// round((70*1 + 50)/2) = 60 after folding the second attempt.
	if got.TopicStats[0].WeaknessScore != 60 || got.TopicStats[0].TotalAttempts != 2 {
		t.Errorf("plants stat not updated in place: %+v", got.TopicStats[0])
	}
}

func TestQuestionQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var planted []*question.Question
	for i := 0; i < 4; i++ {
		q := newQuestion(t, fmt.Sprintf("Plant question %d?", i), question.TopicPlants)
		if err := s.SaveQuestion(ctx, q); err != nil {
			t.Fatalf("SaveQuestion failed: %v", err)
		}
		planted = append(planted, q)
	}
	animal := newQuestion(t, "Animal question?", question.TopicAnimals)
	if err := s.SaveQuestion(ctx, animal); err != nil {
		t.Fatalf("SaveQuestion failed: %v", err)
	}

	byTopic, err := s.ByTopic(ctx, question.TopicPlants, 3)
	if err != nil {
		t.Fatalf("ByTopic failed: %v", err)
	}
	if len(byTopic) != 3 {
		t.Errorf("expected 3 plant questions, got %d", len(byTopic))
	}

	random, err := s.Random(ctx, 10, []string{planted[0].ID, planted[1].ID})
	if err != nil {
		t.Fatalf("Random failed: %v", err)
	}
	if len(random) != 3 {
		t.Errorf("expected 3 questions after exclusions, got %d", len(random))
	}
	for _, q := range random {
		if q.ID == planted[0].ID || q.ID == planted[1].ID {
			t.Errorf("excluded question %s was returned", q.ID)
		}
	}

	onlyAnimals, err := s.RandomByTopics(ctx, []question.Topic{question.TopicAnimals}, 10, nil)
	if err != nil {
		t.Fatalf("RandomByTopics failed: %v", err)
	}
	if len(onlyAnimals) != 1 || onlyAnimals[0].ID != animal.ID {
		t.Errorf("expected only the animal question, got %d results", len(onlyAnimals))
	}

	if err := s.IncrementUsage(ctx, []string{animal.ID}); err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	if err := s.SetExplanation(ctx, animal.ID, "Because."); err != nil {
		t.Fatalf("SetExplanation failed: %v", err)
	}
	got, err := s.GetQuestion(ctx, animal.ID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.UsageCount != 1 || got.Explanation != "Because." {
		t.Errorf("usage/explanation not persisted: %+v", got)
	}
	if len(got.Options) != 4 || got.Options[0] != "Option A" {
		t.Errorf("options not round-tripped: %v", got.Options)
	}

	count, err := s.CountActiveQuestions(ctx)
	if err != nil {
		t.Fatalf("CountActiveQuestions failed: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 active questions, got %d", count)
	}

	dist, err := s.TopicDistribution(ctx)
	if err != nil {
		t.Fatalf("TopicDistribution failed: %v", err)
	}
	if len(dist) != 2 || dist[0].Topic != string(question.TopicPlants) || dist[0].Count != 4 {
		t.Errorf("unexpected topic distribution: %+v", dist)
	}
}

func TestQuizLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := user.New("quiz@example.com", "")
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	var selected []question.Question
	for i := 0; i < 4; i++ {
		q := newQuestion(t, fmt.Sprintf("Question %d?", i), question.TopicPlants)
		if err := s.SaveQuestion(ctx, q); err != nil {
			t.Fatalf("SaveQuestion failed: %v", err)
		}
		selected = append(selected, *q)
	}

	qz := quiz.New(u.ID, quiz.TypeInitial, selected)
	if err := s.SaveQuiz(ctx, qz); err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}

	if _, err := s.GetQuiz(ctx, qz.ID, "someone-else"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("quiz should not load for another user, got %v", err)
	}

	loaded, err := s.GetQuiz(ctx, qz.ID, u.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if len(loaded.Questions) != 4 || loaded.Questions[0].QuestionID != selected[0].ID {
		t.Errorf("snapshots not loaded in order: %+v", loaded.Questions)
	}

	for i, q := range qz.Questions {
		answer := q.CorrectAnswer
		if i == 3 {
			answer = "Option B"
		}
		if err := qz.RecordAnswer(q.QuestionID, answer, 10); err != nil {
			t.Fatalf("RecordAnswer failed: %v", err)
		}
	}
	if err := qz.Complete(40); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := s.CompleteQuiz(ctx, qz); err != nil {
		t.Fatalf("CompleteQuiz failed: %v", err)
	}
	if err := s.CompleteQuiz(ctx, qz); !errors.Is(err, store.ErrAlreadyCompleted) {
		t.Errorf("second completion should fail, got %v", err)
	}

	reloaded, err := s.GetQuiz(ctx, qz.ID, u.ID)
	if err != nil {
		t.Fatalf("GetQuiz after completion failed: %v", err)
	}
	if !reloaded.IsCompleted || reloaded.Score != 75 || reloaded.CorrectAnswers != 3 {
		t.Errorf("completion not persisted: completed=%v score=%d correct=%d",
			reloaded.IsCompleted, reloaded.Score, reloaded.CorrectAnswers)
	}
	if reloaded.TopicAnalysis[question.TopicPlants].Percentage != 75 {
		t.Errorf("topic analysis not recomputed on load: %+v", reloaded.TopicAnalysis)
	}

	count, err := s.CountCompletedQuizzes(ctx, u.ID)
	if err != nil || count != 1 {
		t.Errorf("expected 1 completed quiz, got %d (err %v)", count, err)
	}

	quizzes, total, err := s.ListCompletedQuizzes(ctx, u.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListCompletedQuizzes failed: %v", err)
	}
	if total != 1 || len(quizzes) != 1 || quizzes[0].ID != qz.ID {
		t.Errorf("unexpected history: total=%d len=%d", total, len(quizzes))
	}

	recent, err := s.RecentQuestionIDs(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("RecentQuestionIDs failed: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("expected 4 recent question ids, got %d", len(recent))
	}

	stats, err := s.UserQuizStats(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserQuizStats failed: %v", err)
	}
	if stats.TotalQuizzes != 1 || stats.AverageScore != 75 {
		t.Errorf("unexpected user stats: %+v", stats)
	}

	gotUser, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !gotUser.HasTakenInitial {
		t.Error("user with a completed quiz should have taken the initial quiz")
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := s.GetQuiz(ctx, qz.ID, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("quiz should be gone after account deletion, got %v", err)
	}
}

func TestMarkExplanationRequested(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := user.New("explain@example.com", "")
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	q := newQuestion(t, "Why is the sky blue?", question.TopicEnvAdaptation)
	if err := s.SaveQuestion(ctx, q); err != nil {
		t.Fatalf("SaveQuestion failed: %v", err)
	}
	qz := quiz.New(u.ID, quiz.TypeInitial, []question.Question{*q})
	if err := s.SaveQuiz(ctx, qz); err != nil {
		t.Fatalf("SaveQuiz failed: %v", err)
	}

	if err := s.MarkExplanationRequested(ctx, qz.ID, u.ID, q.ID, "Scattering."); err != nil {
		t.Fatalf("MarkExplanationRequested failed: %v", err)
	}
	if err := s.MarkExplanationRequested(ctx, qz.ID, u.ID, "missing", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown question, got %v", err)
	}

	// Someone else's attempt is out of reach even with a valid quiz ID.
	if err := s.MarkExplanationRequested(ctx, qz.ID, "intruder", q.ID, "overwritten"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign attempt, got %v", err)
	}

	loaded, err := s.GetQuiz(ctx, qz.ID, u.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if !loaded.Questions[0].ExplanationRequested || loaded.Questions[0].Explanation != "Scattering." {
		t.Errorf("explanation not recorded on snapshot: %+v", loaded.Questions[0])
	}
}

func TestOTPStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if _, err := s.LatestOTP(ctx, "otp@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for no codes, got %v", err)
	}

	first := &auth.OTP{
		ID: id.GenerateID(), Email: "otp@example.com", CodeHash: "hash-1",
		ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now.Add(-time.Minute),
	}
	second := &auth.OTP{
		ID: id.GenerateID(), Email: "otp@example.com", CodeHash: "hash-2",
		ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now,
	}
	for _, otp := range []*auth.OTP{first, second} {
		if err := s.SaveOTP(ctx, otp); err != nil {
			t.Fatalf("SaveOTP failed: %v", err)
		}
	}

	latest, err := s.LatestOTP(ctx, "otp@example.com")
	if err != nil {
		t.Fatalf("LatestOTP failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("expected the newest code, got %s", latest.ID)
	}

	if err := s.IncrementOTPAttempts(ctx, second.ID); err != nil {
		t.Fatalf("IncrementOTPAttempts failed: %v", err)
	}
	latest, err = s.LatestOTP(ctx, "otp@example.com")
	if err != nil {
		t.Fatalf("LatestOTP failed: %v", err)
	}
	if latest.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", latest.Attempts)
	}

	count, err := s.CountOTPsSince(ctx, "otp@example.com", now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("CountOTPsSince failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 code in window, got %d", count)
	}

	if err := s.DeleteOTPs(ctx, "otp@example.com"); err != nil {
		t.Fatalf("DeleteOTPs failed: %v", err)
	}
	if _, err := s.LatestOTP(ctx, "otp@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("codes should be gone, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := s.Seed(ctx, " Admin@QuizLearner.com ", logger); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	count, err := s.CountActiveQuestions(ctx)
	if err != nil {
		t.Fatalf("CountActiveQuestions failed: %v", err)
	}
	if count == 0 {
		t.Fatal("seed inserted no questions")
	}
	for _, topic := range question.AllTopics() {
		qs, err := s.ByTopic(ctx, topic, 3)
		if err != nil {
			t.Fatalf("ByTopic failed: %v", err)
		}
		if len(qs) < 3 {
			t.Errorf("topic %s has %d seeded questions, want at least 3", topic, len(qs))
		}
	}

	// The address is normalized the same way the login path does it.
	admin, err := s.GetUserByEmail(ctx, "admin@quizlearner.com")
	if err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if admin.Role != user.RoleAdmin {
		t.Errorf("seeded admin has role %s", admin.Role)
	}
	if admin.Email != "admin@quizlearner.com" {
		t.Errorf("seeded admin email not normalized: %q", admin.Email)
	}

	// Seeding again must not duplicate anything.
	if err := s.Seed(ctx, "admin@quizlearner.com", logger); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	again, err := s.CountActiveQuestions(ctx)
	if err != nil {
		t.Fatalf("CountActiveQuestions failed: %v", err)
	}
	if again != count {
		t.Errorf("seed is not idempotent: %d then %d questions", count, again)
	}
}
