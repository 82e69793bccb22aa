package assistant

import (
	"fmt"
	"strings"

	"github.com/quizlearner/backend/internal/domain/question"
)

// fallbackExplanation builds a template explanation from the question itself,
// used whenever the model is unavailable.
func fallbackExplanation(q *question.Question) string {
	correctLetter := byte('A')
	for i, option := range q.Options {
		if option == q.CorrectAnswer {
			correctLetter = byte('A' + i)
			break
		}
	}

	topic := keyTopic(q.Text)

	var b strings.Builder
	fmt.Fprintf(&b, "Correct Answer: %c. %s\n\n", correctLetter, q.CorrectAnswer)
	fmt.Fprintf(&b, "Explanation:\n")
	fmt.Fprintf(&b, "The correct answer is %q because it best answers the question about %s.\n\n", q.CorrectAnswer, topic)
	fmt.Fprintf(&b, "Why other options are incorrect:\n")
	for i, option := range q.Options {
		if option != q.CorrectAnswer {
			fmt.Fprintf(&b, "- %c. %s: This is not the most accurate answer for this question.\n", 'A'+i, option)
		}
	}
	fmt.Fprintf(&b, "\nStudy Tip: Review the concepts related to %s to better understand this topic.", topic)
	return b.String()
}

// keywordTopics maps question keywords to a topic phrase for the template
// explanation. Checked in order so the more specific entries win.
var keywordTopics = []struct {
	keyword string
	topic   string
}{
	{"digestive", "digestion and the digestive system"},
	{"respiration", "respiration and breathing"},
	{"heart", "circulation and the cardiovascular system"},
	{"blood", "blood circulation and the circulatory system"},
	{"plant", "plant biology and botany"},
	{"leaf", "plant structure and photosynthesis"},
	{"root", "plant structure and nutrition"},
	{"flower", "plant reproduction"},
	{"animal", "animal biology and classification"},
	{"bird", "animal classification and characteristics"},
	{"mammal", "mammalian characteristics"},
	{"cell", "cell biology and structure"},
	{"bone", "skeletal system and bone structure"},
	{"muscle", "muscular system"},
	{"brain", "nervous system"},
	{"kidney", "excretory system"},
	{"nutrition", "nutrition and diet"},
	{"vitamin", "vitamins and nutrition"},
	{"protein", "nutrients and nutrition"},
}

func keyTopic(questionText string) string {
	lower := strings.ToLower(questionText)
	for _, kt := range keywordTopics {
		if strings.Contains(lower, kt.keyword) {
			return kt.topic
		}
	}
	return "this biology concept"
}

// templateQuestions returns curated stand-in questions for the weak topics,
// used when generation fails end to end.
func (g *Gateway) templateQuestions(weakTopics []WeakTopic, count int, generatedFor string) []*question.Question {
	var questions []*question.Question
	for _, wt := range weakTopics {
		if len(questions) >= count {
			break
		}
		tpl, ok := questionTemplates[wt.Topic]
		if !ok {
			continue
		}
		q, err := question.New(tpl.text, tpl.options, tpl.correctAnswer, wt.Topic, tpl.chapter, tpl.difficulty)
		if err != nil {
			continue
		}
		q.IsAIGenerated = true
		q.GeneratedFor = generatedFor
		questions = append(questions, q)
	}
	if len(questions) > 0 {
		g.logger.Info("using template questions for weak topics", "count", len(questions))
	}
	return questions
}

type questionTemplate struct {
	text          string
	options       []string
	correctAnswer string
	chapter       string
	difficulty    question.Difficulty
}

var questionTemplates = map[question.Topic]questionTemplate{
	question.TopicHumanBody: {
		text:          "Which system in the human body is responsible for breaking down food?",
		options:       []string{"Circulatory system", "Digestive system", "Respiratory system", "Nervous system"},
		correctAnswer: "Digestive system",
		chapter:       "Body Systems",
		difficulty:    question.DifficultyEasy,
	},
	question.TopicPlants: {
		text:          "What do plants use to make their own food?",
		options:       []string{"Sunlight and water", "Sunlight, water and carbon dioxide", "Only soil", "Only sunlight"},
		correctAnswer: "Sunlight, water and carbon dioxide",
		chapter:       "Plant Nutrition",
		difficulty:    question.DifficultyMedium,
	},
	question.TopicAnimals: {
		text:          "Which characteristic is common to all mammals?",
		options:       []string{"They lay eggs", "They have fur or hair", "They live in water", "They are cold-blooded"},
		correctAnswer: "They have fur or hair",
		chapter:       "Mammal Characteristics",
		difficulty:    question.DifficultyEasy,
	},
	question.TopicNutrition: {
		text:          "Which nutrient is most important for building muscles?",
		options:       []string{"Carbohydrates", "Proteins", "Fats", "Vitamins"},
		correctAnswer: "Proteins",
		chapter:       "Nutrients",
		difficulty:    question.DifficultyMedium,
	},
	question.TopicRespiration: {
		text:          "What is the main function of red blood cells?",
		options:       []string{"Fight infection", "Carry oxygen", "Help in clotting", "Produce hormones"},
		correctAnswer: "Carry oxygen",
		chapter:       "Blood Function",
		difficulty:    question.DifficultyEasy,
	},
	question.TopicGrowth: {
		text:          "What is the correct order of a frog's life cycle?",
		options:       []string{"Egg, Adult, Tadpole", "Tadpole, Egg, Adult", "Egg, Tadpole, Adult", "Adult, Tadpole, Egg"},
		correctAnswer: "Egg, Tadpole, Adult",
		chapter:       "Life Cycles",
		difficulty:    question.DifficultyMedium,
	},
	question.TopicReproduction: {
		text:          "What is the female reproductive part of a flower called?",
		options:       []string{"Stamen", "Pistil", "Petal", "Sepal"},
		correctAnswer: "Pistil",
		chapter:       "Plant Reproduction",
		difficulty:    question.DifficultyEasy,
	},
	question.TopicEnvAdaptation: {
		text:          "How do penguins stay warm in cold climates?",
		options:       []string{"Thick feathers and fat layer", "Flying to warm places", "Eating hot food", "Staying underwater"},
		correctAnswer: "Thick feathers and fat layer",
		chapter:       "Cold Adaptations",
		difficulty:    question.DifficultyEasy,
	},
}
