package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/user"
)

type seedQuestion struct {
	text          string
	options       []string
	correctAnswer string
	topic         question.Topic
	chapter       string
	difficulty    question.Difficulty
}

// Seed loads the starter question bank and the admin account on first run.
// It is idempotent: questions already present (by text) and an existing
// admin are left alone.
func (s *SQLiteStore) Seed(ctx context.Context, adminEmail string, logger *slog.Logger) error {
	if adminEmail != "" {
		if err := s.seedAdmin(ctx, adminEmail, logger); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}
	if err := s.seedQuestions(ctx, logger); err != nil {
		return fmt.Errorf("seeding questions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedAdmin(ctx context.Context, email string, logger *slog.Logger) error {
	// Emails are stored lowercase; the login path normalizes the same way.
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	admin := user.New(email, "Administrator")
	admin.Role = user.RoleAdmin
	if err := s.SaveUser(ctx, admin); err != nil {
		return err
	}
	logger.Info("admin account created", "email", email)
	return nil
}

func (s *SQLiteStore) seedQuestions(ctx context.Context, logger *slog.Logger) error {
	existing := make(map[string]bool)
	rows, err := s.db.QueryContext(ctx, "SELECT text FROM questions")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return err
		}
		existing[text] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	inserted := 0
	for _, sq := range seedBank {
		if existing[sq.text] {
			continue
		}
		q, err := question.New(sq.text, sq.options, sq.correctAnswer, sq.topic, sq.chapter, sq.difficulty)
		if err != nil {
			return fmt.Errorf("invalid seed question %q: %w", sq.text, err)
		}
		if err := s.SaveQuestion(ctx, q); err != nil {
			return err
		}
		inserted++
	}
	if inserted > 0 {
		logger.Info("seeded question bank", "inserted", inserted)
	}
	return nil
}

var seedBank = []seedQuestion{
	{
		text:          "Which organ system is responsible for pumping blood throughout the body?",
		options:       []string{"Respiratory system", "Circulatory system", "Digestive system", "Nervous system"},
		correctAnswer: "Circulatory system",
		topic:         question.TopicHumanBody,
		chapter:       "Body Systems",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What is the main function of the skeletal system?",
		options:       []string{"To digest food", "To support and protect the body", "To breathe oxygen", "To pump blood"},
		correctAnswer: "To support and protect the body",
		topic:         question.TopicHumanBody,
		chapter:       "Body Systems",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which part of the nervous system controls involuntary actions like heartbeat?",
		options:       []string{"Brain", "Spinal cord", "Medulla oblongata", "Cerebrum"},
		correctAnswer: "Medulla oblongata",
		topic:         question.TopicHumanBody,
		chapter:       "Nervous System",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What is the main function of roots in a plant?",
		options:       []string{"Photosynthesis", "Reproduction", "Absorbing water and nutrients", "Making flowers"},
		correctAnswer: "Absorbing water and nutrients",
		topic:         question.TopicPlants,
		chapter:       "Plant Parts",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which part of the plant conducts photosynthesis?",
		options:       []string{"Roots", "Stem", "Leaves", "Flowers"},
		correctAnswer: "Leaves",
		topic:         question.TopicPlants,
		chapter:       "Photosynthesis",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What gas do plants release during photosynthesis?",
		options:       []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Hydrogen"},
		correctAnswer: "Oxygen",
		topic:         question.TopicPlants,
		chapter:       "Photosynthesis",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which group of animals are warm-blooded?",
		options:       []string{"Fish", "Reptiles", "Mammals", "Amphibians"},
		correctAnswer: "Mammals",
		topic:         question.TopicAnimals,
		chapter:       "Animal Classification",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What type of skeleton do insects have?",
		options:       []string{"Internal skeleton", "External skeleton", "No skeleton", "Cartilage skeleton"},
		correctAnswer: "External skeleton",
		topic:         question.TopicAnimals,
		chapter:       "Invertebrates",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which animals can live both in water and on land?",
		options:       []string{"Fish", "Birds", "Amphibians", "Mammals"},
		correctAnswer: "Amphibians",
		topic:         question.TopicAnimals,
		chapter:       "Animal Habitats",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which nutrient provides energy to our body?",
		options:       []string{"Vitamins", "Minerals", "Carbohydrates", "Water"},
		correctAnswer: "Carbohydrates",
		topic:         question.TopicNutrition,
		chapter:       "Nutrients",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Where does digestion begin in humans?",
		options:       []string{"Stomach", "Small intestine", "Mouth", "Large intestine"},
		correctAnswer: "Mouth",
		topic:         question.TopicNutrition,
		chapter:       "Digestive System",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which enzyme in saliva helps break down starch?",
		options:       []string{"Pepsin", "Amylase", "Lipase", "Trypsin"},
		correctAnswer: "Amylase",
		topic:         question.TopicNutrition,
		chapter:       "Enzymes",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What do we breathe in from the air?",
		options:       []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Water vapor"},
		correctAnswer: "Oxygen",
		topic:         question.TopicRespiration,
		chapter:       "Breathing",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which blood vessels carry blood away from the heart?",
		options:       []string{"Veins", "Arteries", "Capillaries", "Ventricles"},
		correctAnswer: "Arteries",
		topic:         question.TopicRespiration,
		chapter:       "Blood Circulation",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "How many chambers does a human heart have?",
		options:       []string{"Two", "Three", "Four", "Five"},
		correctAnswer: "Four",
		topic:         question.TopicRespiration,
		chapter:       "Heart Structure",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What is the process by which living things produce offspring?",
		options:       []string{"Growth", "Reproduction", "Respiration", "Digestion"},
		correctAnswer: "Reproduction",
		topic:         question.TopicGrowth,
		chapter:       "Life Processes",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which stage comes after egg in the life cycle of a butterfly?",
		options:       []string{"Adult", "Pupa", "Larva", "Caterpillar"},
		correctAnswer: "Larva",
		topic:         question.TopicGrowth,
		chapter:       "Life Cycles",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What do we call the young one of a frog?",
		options:       []string{"Cub", "Tadpole", "Chick", "Calf"},
		correctAnswer: "Tadpole",
		topic:         question.TopicGrowth,
		chapter:       "Animal Development",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which part of a flower contains the male reproductive organs?",
		options:       []string{"Pistil", "Stamen", "Petal", "Sepal"},
		correctAnswer: "Stamen",
		topic:         question.TopicReproduction,
		chapter:       "Plant Reproduction",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What is pollination?",
		options:       []string{"Growth of plants", "Transfer of pollen", "Making of seeds", "Flowering"},
		correctAnswer: "Transfer of pollen",
		topic:         question.TopicReproduction,
		chapter:       "Plant Reproduction",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which animals lay eggs?",
		options:       []string{"Only birds", "Only reptiles", "Birds and reptiles", "Only mammals"},
		correctAnswer: "Birds and reptiles",
		topic:         question.TopicReproduction,
		chapter:       "Animal Reproduction",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What helps a cactus survive in the desert?",
		options:       []string{"Large leaves", "Thick waxy coating", "Deep roots", "All of the above"},
		correctAnswer: "All of the above",
		topic:         question.TopicEnvAdaptation,
		chapter:       "Plant Adaptations",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Why do polar bears have thick fur?",
		options:       []string{"To look beautiful", "To keep warm", "To swim better", "To catch prey"},
		correctAnswer: "To keep warm",
		topic:         question.TopicEnvAdaptation,
		chapter:       "Animal Adaptations",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which adaptation helps fish breathe underwater?",
		options:       []string{"Lungs", "Gills", "Skin", "Fins"},
		correctAnswer: "Gills",
		topic:         question.TopicEnvAdaptation,
		chapter:       "Aquatic Adaptations",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What is the green pigment in plants called?",
		options:       []string{"Melanin", "Chlorophyll", "Hemoglobin", "Carotene"},
		correctAnswer: "Chlorophyll",
		topic:         question.TopicPlants,
		chapter:       "Photosynthesis",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which vitamin is produced when skin is exposed to sunlight?",
		options:       []string{"Vitamin A", "Vitamin B", "Vitamin C", "Vitamin D"},
		correctAnswer: "Vitamin D",
		topic:         question.TopicNutrition,
		chapter:       "Vitamins",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What is the function of white blood cells?",
		options:       []string{"Carry oxygen", "Fight infection", "Clot blood", "Carry nutrients"},
		correctAnswer: "Fight infection",
		topic:         question.TopicRespiration,
		chapter:       "Blood",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which organ filters waste from the blood?",
		options:       []string{"Liver", "Kidney", "Heart", "Lungs"},
		correctAnswer: "Kidney",
		topic:         question.TopicHumanBody,
		chapter:       "Excretory System",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What type of joint is found in the elbow?",
		options:       []string{"Ball and socket", "Hinge joint", "Pivot joint", "Fixed joint"},
		correctAnswer: "Hinge joint",
		topic:         question.TopicHumanBody,
		chapter:       "Skeletal System",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which gas is released by plants at night?",
		options:       []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Hydrogen"},
		correctAnswer: "Carbon dioxide",
		topic:         question.TopicPlants,
		chapter:       "Respiration",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What is the hardest substance in the human body?",
		options:       []string{"Bone", "Tooth enamel", "Nail", "Cartilage"},
		correctAnswer: "Tooth enamel",
		topic:         question.TopicHumanBody,
		chapter:       "Digestive System",
		difficulty:    question.DifficultyHard,
	},
	{
		text:          "Which animals are called invertebrates?",
		options:       []string{"Animals with backbone", "Animals without backbone", "Only insects", "Only fish"},
		correctAnswer: "Animals without backbone",
		topic:         question.TopicAnimals,
		chapter:       "Classification",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What do plants need for photosynthesis besides sunlight?",
		options:       []string{"Only water", "Only carbon dioxide", "Water and carbon dioxide", "Only soil"},
		correctAnswer: "Water and carbon dioxide",
		topic:         question.TopicPlants,
		chapter:       "Photosynthesis",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which part of the brain controls balance?",
		options:       []string{"Cerebrum", "Cerebellum", "Medulla", "Spinal cord"},
		correctAnswer: "Cerebellum",
		topic:         question.TopicHumanBody,
		chapter:       "Nervous System",
		difficulty:    question.DifficultyHard,
	},
	{
		text:          "What is the main component of plant cell walls?",
		options:       []string{"Protein", "Cellulose", "Fat", "Starch"},
		correctAnswer: "Cellulose",
		topic:         question.TopicPlants,
		chapter:       "Cell Structure",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which blood type is known as the universal donor?",
		options:       []string{"A", "B", "AB", "O"},
		correctAnswer: "O",
		topic:         question.TopicRespiration,
		chapter:       "Blood Types",
		difficulty:    question.DifficultyHard,
	},
	{
		text:          "What is metamorphosis?",
		options:       []string{"Animal migration", "Change in body form during development", "Animal hibernation", "Animal reproduction"},
		correctAnswer: "Change in body form during development",
		topic:         question.TopicGrowth,
		chapter:       "Life Cycles",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which vitamin helps in blood clotting?",
		options:       []string{"Vitamin A", "Vitamin C", "Vitamin D", "Vitamin K"},
		correctAnswer: "Vitamin K",
		topic:         question.TopicNutrition,
		chapter:       "Vitamins",
		difficulty:    question.DifficultyHard,
	},
	{
		text:          "What is the basic unit of life?",
		options:       []string{"Tissue", "Organ", "Cell", "System"},
		correctAnswer: "Cell",
		topic:         question.TopicHumanBody,
		chapter:       "Cell Biology",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which animals breathe through spiracles?",
		options:       []string{"Fish", "Birds", "Insects", "Mammals"},
		correctAnswer: "Insects",
		topic:         question.TopicAnimals,
		chapter:       "Respiratory Systems",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "What is the process of water movement in plants called?",
		options:       []string{"Photosynthesis", "Respiration", "Transpiration", "Germination"},
		correctAnswer: "Transpiration",
		topic:         question.TopicPlants,
		chapter:       "Water Transport",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which sense organ detects sound?",
		options:       []string{"Eye", "Nose", "Ear", "Tongue"},
		correctAnswer: "Ear",
		topic:         question.TopicHumanBody,
		chapter:       "Sense Organs",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "What do carnivorous plants eat?",
		options:       []string{"Only sunlight", "Insects and small animals", "Only water", "Dead plant matter"},
		correctAnswer: "Insects and small animals",
		topic:         question.TopicEnvAdaptation,
		chapter:       "Special Adaptations",
		difficulty:    question.DifficultyMedium,
	},
	{
		text:          "Which hormone controls growth in humans?",
		options:       []string{"Insulin", "Growth hormone", "Thyroxine", "Adrenaline"},
		correctAnswer: "Growth hormone",
		topic:         question.TopicGrowth,
		chapter:       "Hormones",
		difficulty:    question.DifficultyHard,
	},
	{
		text:          "What is the gestation period of humans?",
		options:       []string{"6 months", "9 months", "12 months", "18 months"},
		correctAnswer: "9 months",
		topic:         question.TopicReproduction,
		chapter:       "Human Reproduction",
		difficulty:    question.DifficultyEasy,
	},
	{
		text:          "Which adaptation helps desert animals conserve water?",
		options:       []string{"Thick fur", "Large ears", "Concentrated urine", "Bright colors"},
		correctAnswer: "Concentrated urine",
		topic:         question.TopicEnvAdaptation,
		chapter:       "Desert Adaptations",
		difficulty:    question.DifficultyMedium,
	},
}
