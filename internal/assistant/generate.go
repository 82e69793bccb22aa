package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quizlearner/backend/internal/domain/question"
)

const generateSystemPrompt = "You are an educational AI assistant specializing in creating biology quiz questions for middle school students. Always respond with valid JSON format."

// generatedQuestion is the JSON shape the model is asked to emit.
type generatedQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Topic         string   `json:"topic"`
	Chapter       string   `json:"chapter"`
	Difficulty    string   `json:"difficulty"`
}

// GenerateQuestions produces up to count new practice questions targeting the
// given weak topics, attributed to generatedFor. Model output that fails
// validation is discarded; when the client is absent, errors, or yields
// nothing usable, curated template questions for the weak topics are
// returned instead. The result may be shorter than count.
func (g *Gateway) GenerateQuestions(ctx context.Context, weakTopics []WeakTopic, count int, generatedFor string) []*question.Question {
	if len(weakTopics) == 0 || count <= 0 {
		return nil
	}
	if g.client == nil {
		return g.templateQuestions(weakTopics, count, generatedFor)
	}

	userPrompt := buildGeneratePrompt(weakTopics, count)
	content, err := g.client.Complete(ctx, generateSystemPrompt, userPrompt, 1500, 0.8)
	if err != nil {
		g.logger.Warn("question generation failed, using templates", "error", err)
		return g.templateQuestions(weakTopics, count, generatedFor)
	}

	raw, err := parseGeneratedQuestions(content)
	if err != nil {
		g.logger.Warn("question generation returned unparseable output, using templates", "error", err)
		return g.templateQuestions(weakTopics, count, generatedFor)
	}

	var questions []*question.Question
	for _, gq := range raw {
		if len(questions) >= count {
			break
		}
		q, err := buildGenerated(gq, generatedFor)
		if err != nil {
			g.logger.Debug("discarding invalid generated question", "error", err)
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return g.templateQuestions(weakTopics, count, generatedFor)
	}
	g.logger.Info("generated practice questions", "requested", count, "accepted", len(questions))
	return questions
}

// buildGenerated validates one model-emitted question and converts it. On
// top of the bank invariants it requires exactly 4 options.
func buildGenerated(gq generatedQuestion, generatedFor string) (*question.Question, error) {
	if len(gq.Options) != 4 {
		return nil, fmt.Errorf("expected 4 options, got %d", len(gq.Options))
	}
	q, err := question.New(gq.QuestionText, gq.Options, gq.CorrectAnswer, question.Topic(gq.Topic), gq.Chapter, question.Difficulty(gq.Difficulty))
	if err != nil {
		return nil, err
	}
	q.IsAIGenerated = true
	q.GeneratedFor = generatedFor
	return q, nil
}

// parseGeneratedQuestions extracts the JSON array from the model output,
// tolerating markdown code fences and surrounding prose.
func parseGeneratedQuestions(content string) ([]generatedQuestion, error) {
	jsonText := stripCodeFences(content)
	jsonText = extractJSONArray(jsonText)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON array found in model output")
	}
	var raw []generatedQuestion
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON from model: %w", err)
	}
	return raw, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractJSONArray finds the outermost JSON array in a string. It tracks
// nesting depth and skips brackets inside quoted strings.
func extractJSONArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ']' {
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func buildGeneratePrompt(weakTopics []WeakTopic, count int) string {
	topicParts := make([]string, len(weakTopics))
	for i, wt := range weakTopics {
		topicParts[i] = fmt.Sprintf("%s (weakness score: %d%%)", wt.Topic, wt.WeaknessScore)
	}

	allTopics := question.AllTopics()
	topicNames := make([]string, len(allTopics))
	for i, t := range allTopics {
		topicNames[i] = fmt.Sprintf("%q", string(t))
	}

	return fmt.Sprintf(`You are an educational AI assistant creating quiz questions for Class 6 Biology students.

Create %d multiple-choice questions focusing on these weak topics: %s

For each question, provide:
1. A clear, age-appropriate question text
2. Exactly 4 multiple choice options
3. The correct answer (must be one of the 4 options)
4. The topic from this list: [%s]
5. A relevant chapter name
6. Difficulty level: "easy", "medium", or "hard"

Requirements:
- Questions must be suitable for 6th grade students (age 11-12)
- Focus on the weak topics provided
- Use simple, clear language
- Avoid overly complex concepts
- Each question should test understanding, not just memorization

Format your response as a JSON array with this exact structure:
[
  {
    "questionText": "Your question here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correctAnswer": "Option B",
    "topic": "Human Body Systems",
    "chapter": "Chapter Name",
    "difficulty": "easy"
  }
]

Make sure the JSON is valid and properly formatted.`, count, strings.Join(topicParts, ", "), strings.Join(topicNames, ", "))
}
