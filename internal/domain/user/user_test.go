package user_test

import (
	"testing"

	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/user"
)

func TestNewUser(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	if u.ID == "" {
		t.Error("expected a generated ID")
	}
	if u.Role != user.RoleUser {
		t.Errorf("expected role %q, got %q", user.RoleUser, u.Role)
	}
	if !u.IsActive {
		t.Error("new user should be active")
	}
	if u.HasTakenInitial {
		t.Error("new user should not have taken the initial quiz")
	}
}

func TestUpdateWeakness_FirstAttempt(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	u.UpdateWeakness(question.TopicPlants, 30)

	s, ok := u.StatFor(question.TopicPlants)
	if !ok {
		t.Fatal("expected a stat for plants")
	}
	if s.WeaknessScore != 70 {
		t.Errorf("expected weakness 70, got %d", s.WeaknessScore)
	}
	if s.StrengthScore != 30 {
		t.Errorf("expected strength 30, got %d", s.StrengthScore)
	}
	if s.TotalAttempts != 1 {
		t.Errorf("expected 1 attempt, got %d", s.TotalAttempts)
	}
}

func TestUpdateWeakness_RunningMean(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	u.UpdateWeakness(question.TopicPlants, 30) // weakness 70
	u.UpdateWeakness(question.TopicPlants, 90) // round((70 + 10)/2) = 40
	u.UpdateWeakness(question.TopicPlants, 50) // round((40*2 + 50)/3) = round(43.33) = 43

	s, _ := u.StatFor(question.TopicPlants)
	if s.WeaknessScore != 43 {
		t.Errorf("expected weakness 43, got %d", s.WeaknessScore)
	}
	if s.StrengthScore != 57 {
		t.Errorf("expected strength 57, got %d", s.StrengthScore)
	}
	if s.TotalAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", s.TotalAttempts)
	}
}

func TestWeakTopics(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	u.UpdateWeakness(question.TopicPlants, 20)    // weakness 80
	u.UpdateWeakness(question.TopicAnimals, 10)   // weakness 90
	u.UpdateWeakness(question.TopicHumanBody, 60) // weakness 40, not weak
	u.UpdateWeakness(question.TopicGrowth, 45)    // weakness 55

	weak := u.WeakTopics()
	want := []question.Topic{question.TopicAnimals, question.TopicPlants, question.TopicGrowth}
	if len(weak) != len(want) {
		t.Fatalf("expected %d weak topics, got %d", len(want), len(weak))
	}
	for i := range want {
		if weak[i] != want[i] {
			t.Errorf("weak[%d]: expected %q, got %q", i, want[i], weak[i])
		}
	}
}

func TestWeakTopics_StableTies(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	// Same weakness score; the earlier topic must come first.
	u.UpdateWeakness(question.TopicReproduction, 20)
	u.UpdateWeakness(question.TopicNutrition, 20)

	weak := u.WeakTopics()
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak topics, got %d", len(weak))
	}
	if weak[0] != question.TopicReproduction || weak[1] != question.TopicNutrition {
		t.Errorf("tied topics should keep insertion order, got %v", weak)
	}
}

func TestWeakTopics_BoundaryAtFifty(t *testing.T) {
	u := user.New("ada@example.com", "Ada")

	u.UpdateWeakness(question.TopicPlants, 50) // weakness exactly 50

	if weak := u.WeakTopics(); len(weak) != 0 {
		t.Errorf("weakness of exactly 50 should not be weak, got %v", weak)
	}
}
