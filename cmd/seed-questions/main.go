package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillstage/skillstage-backend/internal/config"
	"github.com/skillstage/skillstage-backend/internal/database"
	"github.com/skillstage/skillstage-backend/internal/logger"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/skillstage/skillstage-backend/internal/repository"
)

// questionsPerLevel is sized so every step can fill a full session from
// either of its two levels alone.
const questionsPerLevel = 50

var competencies = []string{
	"Digital Communication",
	"Information Literacy",
	"Data Analysis",
	"Content Creation",
	"Online Safety",
	"Problem Solving",
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding demo users ===")

	admin := &model.User{ID: uuid.New(), Name: "Demo Admin", Email: "admin@skillstage.dev", Role: model.RoleAdmin}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}
	candidate := &model.User{ID: uuid.New(), Name: "Demo Candidate", Email: "candidate@skillstage.dev", Role: model.RoleCandidate}
	if err := userRepo.Create(ctx, candidate); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed candidate user")
	}
	fmt.Printf("Admin: %s\nCandidate: %s\n", admin.ID, candidate.ID)

	fmt.Println("=== Seeding question pool ===")

	levels := []model.Level{
		model.LevelA1, model.LevelA2,
		model.LevelB1, model.LevelB2,
		model.LevelC1, model.LevelC2,
	}

	total := 0
	for _, level := range levels {
		batch := make([]model.Question, 0, questionsPerLevel)
		for i := 0; i < questionsPerLevel; i++ {
			competency := competencies[i%len(competencies)]
			batch = append(batch, model.Question{
				Competency:   competency,
				Level:        level,
				QuestionText: fmt.Sprintf("[%s] %s sample question %d", level, competency, i+1),
				Options: []string{
					"Correct option",
					"Plausible distractor",
					"Unlikely distractor",
					"Obviously wrong",
				},
				CorrectAnswer: 0,
				CreatedBy:     &admin.ID,
			})
		}
		if err := questionRepo.CreateBatch(ctx, batch); err != nil {
			log.Fatal().Err(err).Str("level", string(level)).Msg("Failed to seed questions")
		}
		total += len(batch)
		fmt.Printf("Seeded %d questions at %s\n", len(batch), level)
	}

	fmt.Printf("=== Done: %d questions ===\n", total)
}
