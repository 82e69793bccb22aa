package user

import (
	"math"
	"sort"
	"time"

	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/id"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TopicStat tracks a user's running weakness for one topic. WeaknessScore is
// the mean of (100 - percentage) over all completed attempts that included
// the topic; StrengthScore is its complement.
type TopicStat struct {
	Topic         question.Topic
	WeaknessScore int
	StrengthScore int
	TotalAttempts int
}

// User is an account identified by email. Accounts are created on first
// login; there is no separate registration step.
type User struct {
	ID              string
	Email           string
	Name            string
	Role            Role
	IsActive        bool
	HasTakenInitial bool
	TopicStats      []TopicStat // insertion order, first attempt first
	TotalQuizzes    int
	AverageScore    int
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New creates an active student account for the given email.
func New(email, name string) *User {
	now := time.Now()
	return &User{
		ID:        id.GenerateID(),
		Email:     email,
		Name:      name,
		Role:      RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateWeakness folds one attempt's topic percentage into the running
// weakness score. The mean is over attempts, so an old score of 40 across
// 4 attempts and a new percentage of 100 yields round((40*4+0)/5) = 32.
func (u *User) UpdateWeakness(topic question.Topic, percentage int) {
	for i := range u.TopicStats {
		if u.TopicStats[i].Topic == topic {
			s := &u.TopicStats[i]
			s.TotalAttempts++
			prev := float64(s.WeaknessScore)
			s.WeaknessScore = int(math.Round((prev*float64(s.TotalAttempts-1) + float64(100-percentage)) / float64(s.TotalAttempts)))
			s.StrengthScore = 100 - s.WeaknessScore
			return
		}
	}
	u.TopicStats = append(u.TopicStats, TopicStat{
		Topic:         topic,
		WeaknessScore: 100 - percentage,
		StrengthScore: percentage,
		TotalAttempts: 1,
	})
}

// WeakTopics returns the topics with weakness above 50, weakest first.
// Equal scores keep their insertion order.
func (u *User) WeakTopics() []question.Topic {
	var weak []TopicStat
	for _, s := range u.TopicStats {
		if s.WeaknessScore > 50 {
			weak = append(weak, s)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].WeaknessScore > weak[j].WeaknessScore })
	topics := make([]question.Topic, len(weak))
	for i, s := range weak {
		topics[i] = s.Topic
	}
	return topics
}

// StatFor returns the user's stat for a topic, if any.
func (u *User) StatFor(topic question.Topic) (TopicStat, bool) {
	for _, s := range u.TopicStats {
		if s.Topic == topic {
			return s, true
		}
	}
	return TopicStat{}, false
}
