package models

import "time"

// CourseDescriptor is the caller-supplied input to syllabus generation.
// The pipeline never mutates it.
type CourseDescriptor struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Goals   string `json:"goals,omitempty"`
}

// ConceptLevel orders module difficulty. The order matters: each level's
// generation step must not repeat concepts already assigned to earlier levels.
type ConceptLevel string

const (
	LevelBeginner     ConceptLevel = "beginner"
	LevelIntermediate ConceptLevel = "intermediate"
	LevelAdvanced     ConceptLevel = "advanced"
)

// OrderedLevels is the fixed order the orchestrator walks levels in.
var OrderedLevels = []ConceptLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}

// ModuleSpec is one committed learning module. Immutable once built.
type ModuleSpec struct {
	Title            string   `json:"title"`
	Objectives       []string `json:"objectives"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Dependencies     []string `json:"dependencies,omitempty"`
	Degraded         bool     `json:"degraded"`
}

// SyllabusRunResult is the terminal output of a syllabus run, handed to the
// caller and the persistence sink.
type SyllabusRunResult struct {
	ConceptsByLevel map[ConceptLevel][]string `json:"concepts_by_level"`
	Modules         []ModuleSpec              `json:"modules"`
}

// Course is a stored course row plus its descriptor fields.
type Course struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Subject   string    `json:"subject" db:"subject"`
	Goals     string    `json:"goals" db:"goals"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Descriptor projects the stored course into the pipeline's input shape.
func (c *Course) Descriptor() CourseDescriptor {
	return CourseDescriptor{Title: c.Title, Subject: c.Subject, Goals: c.Goals}
}

type CreateCourseRequest struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Goals   string `json:"goals,omitempty"`
}
