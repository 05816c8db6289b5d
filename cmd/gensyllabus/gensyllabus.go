package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"coursegen/config"
	"coursegen/db"
	"coursegen/models"
	"coursegen/services/llmclient"
	"coursegen/services/syllabus"
)

func main() {
	title := flag.String("title", "", "course title (required)")
	subject := flag.String("subject", "", "course subject (required)")
	goals := flag.String("goals", "", "learner goals")
	strategy := flag.String("strategy", "levels", "generation strategy: levels or outline")
	courseID := flag.Int("course-id", 0, "persist the result for this course ID (requires DB_URL)")
	flag.Parse()

	if *title == "" || *subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()

	client, err := llmclient.NewOllamaClient(cfg.OllamaServerURL, cfg.OllamaModel, cfg.GenerationTimeout, cfg.ProbeTimeout)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize LLM client: %v", err)
	}

	var persist syllabus.PersistFunc
	if *courseID > 0 {
		if cfg.DatabaseURL == "" {
			log.Fatal("[ERROR] DB_URL environment variable is required with -course-id")
		}
		courseRepo, err := db.NewPostgresCourseRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[ERROR] Failed to initialize course database: %v", err)
		}
		defer courseRepo.Close()

		persist = func(ctx context.Context, id int, result *models.SyllabusRunResult) error {
			return courseRepo.SaveSyllabus(id, result)
		}
	}

	emit := func(stage, eventType string, data map[string]any) {
		log.Printf("[INFO] event=%s stage=%s data=%v", eventType, stage, data)
	}

	opts := syllabus.Options{
		MinPerLevel:  cfg.MinConceptsPerLevel,
		MaxPerLevel:  cfg.MaxConceptsPerLevel,
		MaxAddRounds: cfg.MaxAddRounds,
	}

	var generator syllabus.ModuleStrategy
	switch *strategy {
	case "levels":
		conceptGen := syllabus.NewConceptGenerator(client, opts)
		augmenter := syllabus.NewConceptAugmenter(client)
		pipeline := syllabus.NewLevelPipeline(conceptGen, augmenter, opts, emit)
		generator = syllabus.NewOrchestrator(pipeline, persist, emit)
	case "outline":
		generator = syllabus.NewSequentialModuleGenerator(client, opts, syllabus.DefaultModuleRetryPolicy(), persist, emit)
	default:
		log.Fatalf("[ERROR] Unknown strategy %q", *strategy)
	}

	course := models.CourseDescriptor{
		Title:   *title,
		Subject: *subject,
		Goals:   *goals,
	}

	result, err := generator.GenerateModules(context.Background(), *courseID, course)
	if err != nil {
		log.Fatalf("[ERROR] Syllabus generation failed: %v", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("[ERROR] Failed to encode result: %v", err)
	}
	fmt.Println(string(encoded))
}
