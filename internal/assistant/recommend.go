package assistant

import (
	"context"
	"fmt"
	"strings"
)

// PerformanceProfile is the summary of a student's history used to build
// study recommendations.
type PerformanceProfile struct {
	AverageScore int
	QuizzesTaken int
	WeakTopics   []WeakTopic
	StrongTopics []string
}

const fallbackRecommendation = "Keep practicing and reviewing your weak topics. Focus on understanding concepts rather than memorizing answers."

const recommendSystemPrompt = "You are a supportive educational AI assistant specializing in personalized learning recommendations."

// StudyRecommendations returns personalized study advice. Like Explain it
// never fails; without a client or on error a generic recommendation is
// returned.
func (g *Gateway) StudyRecommendations(ctx context.Context, profile PerformanceProfile) string {
	if g.client == nil {
		return fallbackRecommendation
	}

	content, err := g.client.Complete(ctx, recommendSystemPrompt, buildRecommendPrompt(profile), 700, 0.7)
	if err != nil {
		g.logger.Warn("recommendation request failed, using fallback", "error", err)
		return fallbackRecommendation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fallbackRecommendation
	}
	return content
}

func buildRecommendPrompt(profile PerformanceProfile) string {
	weak := make([]string, len(profile.WeakTopics))
	for i, wt := range profile.WeakTopics {
		weak[i] = fmt.Sprintf("%s (weakness: %d%%)", wt.Topic, wt.WeaknessScore)
	}
	weakLine := "None identified yet"
	if len(weak) > 0 {
		weakLine = strings.Join(weak, ", ")
	}
	strongLine := "None identified yet"
	if len(profile.StrongTopics) > 0 {
		strongLine = strings.Join(profile.StrongTopics, ", ")
	}

	return fmt.Sprintf(`Based on the following student performance data for Class 6 Biology, provide personalized study recommendations:

Average Score: %d%%
Quizzes Taken: %d
Weak Topics: %s
Strong Topics: %s

Please provide:
1. Specific topics the student should focus on
2. Study strategies appropriate for a 6th-grade student
3. Encouragement based on their progress

Keep the recommendations practical, positive, and easy to follow.`,
		profile.AverageScore, profile.QuizzesTaken, weakLine, strongLine)
}
