package courses

import (
	"fmt"
	"log"
	"strings"

	"coursegen/db"
	"coursegen/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type Service struct {
	repo db.CourseRepository
}

func NewService(repo db.CourseRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCourse(req *models.CreateCourseRequest) (*models.Course, error) {
	log.Printf("[INFO] Starting course creation")

	if err := s.validateCreateRequest(req); err != nil {
		log.Printf("[ERROR] Course creation validation failed: %v", err)
		return nil, err
	}

	course := &models.Course{
		Title:   strings.TrimSpace(req.Title),
		Subject: strings.TrimSpace(req.Subject),
		Goals:   strings.TrimSpace(req.Goals),
	}

	if err := s.repo.CreateCourse(course); err != nil {
		log.Printf("[ERROR] Failed to create course in repository: %v", err)
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	log.Printf("[INFO] Successfully created course with ID %d", course.ID)
	return course, nil
}

func (s *Service) GetCourseByID(id int) (*models.Course, error) {
	log.Printf("[INFO] Starting get course by ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid course ID provided: %d", id)
		return nil, fmt.Errorf("invalid course ID: %d", id)
	}

	course, err := s.repo.GetCourseByID(id)
	if err != nil {
		log.Printf("[ERROR] Failed to get course by ID %d: %v", id, err)
		return nil, err
	}

	log.Printf("[INFO] Successfully retrieved course with ID %d", id)
	return course, nil
}

func (s *Service) GetAllCourses() ([]*models.Course, error) {
	log.Printf("[INFO] Starting get all courses")

	courses, err := s.repo.GetAllCourses()
	if err != nil {
		log.Printf("[ERROR] Failed to get all courses: %v", err)
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d courses", len(courses))
	return courses, nil
}

func (s *Service) GetSyllabus(courseID int) (*models.SyllabusRunResult, error) {
	log.Printf("[INFO] Starting get syllabus for course %d", courseID)

	if courseID <= 0 {
		return nil, fmt.Errorf("invalid course ID: %d", courseID)
	}

	result, err := s.repo.GetSyllabus(courseID)
	if err != nil {
		log.Printf("[ERROR] Failed to get syllabus for course %d: %v", courseID, err)
		return nil, err
	}

	return result, nil
}

func (s *Service) DeleteCourse(id int) error {
	log.Printf("[INFO] Starting delete course with ID %d", id)

	if id <= 0 {
		log.Printf("[ERROR] Invalid course ID provided for deletion: %d", id)
		return fmt.Errorf("invalid course ID: %d", id)
	}

	if err := s.repo.DeleteCourse(id); err != nil {
		log.Printf("[ERROR] Failed to delete course ID %d: %v", id, err)
		return err
	}

	log.Printf("[INFO] Successfully deleted course with ID %d", id)
	return nil
}

// SearchCoursesByTopic filters the catalog by fuzzy-matching search terms
// against each course's title, subject and goals.
func (s *Service) SearchCoursesByTopic(searchTerms []string) ([]*models.Course, error) {
	log.Printf("[INFO] Starting course search with %d search terms", len(searchTerms))

	courses, err := s.GetAllCourses()
	if err != nil {
		return nil, fmt.Errorf("failed to get courses for search: %w", err)
	}

	if len(searchTerms) == 0 {
		log.Printf("[INFO] No search terms provided, returning all %d courses", len(courses))
		return courses, nil
	}

	var matchingCourses []*models.Course
	for _, course := range courses {
		if s.courseMatchesSearch(course, searchTerms) {
			matchingCourses = append(matchingCourses, course)
		}
	}

	log.Printf("[INFO] Found %d courses matching search criteria", len(matchingCourses))
	return matchingCourses, nil
}

func (s *Service) courseMatchesSearch(course *models.Course, searchTerms []string) bool {
	haystack := course.Title + " " + course.Subject + " " + course.Goals
	words := strings.Fields(strings.ToLower(haystack))

	cleanWords := make([]string, 0, len(words))
	for _, word := range words {
		cleanWord := strings.Trim(word, ".,!?;:()[]{}\"'")
		if len(cleanWord) > 0 {
			cleanWords = append(cleanWords, cleanWord)
		}
	}

	for _, term := range searchTerms {
		if fuzzy.MatchFold(term, haystack) {
			return true
		}

		matches := fuzzy.Find(term, cleanWords)
		if len(matches) > 0 {
			return true
		}
	}

	return false
}

func (s *Service) validateCreateRequest(req *models.CreateCourseRequest) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	return nil
}
