package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"coursegen/models"

	_ "github.com/lib/pq"
)

type CourseRepository interface {
	CreateCourse(course *models.Course) error
	GetCourseByID(id int) (*models.Course, error)
	GetAllCourses() ([]*models.Course, error)
	SaveSyllabus(courseID int, result *models.SyllabusRunResult) error
	GetSyllabus(courseID int) (*models.SyllabusRunResult, error)
	DeleteCourse(id int) error
}

type PostgresCourseRepository struct {
	db *sql.DB
}

func NewPostgresCourseRepository(databaseURL string) (*PostgresCourseRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresCourseRepository{db: db}, nil
}

func (r *PostgresCourseRepository) CreateCourse(course *models.Course) error {
	query := `
		INSERT INTO coursegen.courses (title, subject, goals)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	row := r.db.QueryRow(query, course.Title, course.Subject, course.Goals)

	err := row.Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

func (r *PostgresCourseRepository) GetCourseByID(id int) (*models.Course, error) {
	query := `
		SELECT id, title, subject, goals, created_at
		FROM coursegen.courses
		WHERE id = $1`

	course := &models.Course{}
	row := r.db.QueryRow(query, id)

	err := row.Scan(&course.ID, &course.Title, &course.Subject, &course.Goals, &course.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("course with id %d not found", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	return course, nil
}

func (r *PostgresCourseRepository) GetAllCourses() ([]*models.Course, error) {
	query := `
		SELECT id, title, subject, goals, created_at
		FROM coursegen.courses
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		course := &models.Course{}
		err := rows.Scan(&course.ID, &course.Title, &course.Subject, &course.Goals, &course.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over courses: %w", err)
	}

	return courses, nil
}

// SaveSyllabus stores the completed run as a single row per course.
// Rerunning generation for a course replaces the previous syllabus.
func (r *PostgresCourseRepository) SaveSyllabus(courseID int, result *models.SyllabusRunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal syllabus: %w", err)
	}

	query := `
		INSERT INTO coursegen.syllabi (course_id, result)
		VALUES ($1, $2)
		ON CONFLICT (course_id) DO UPDATE SET result = $2, updated_at = NOW()`

	_, err = r.db.Exec(query, courseID, resultJSON)
	if err != nil {
		return fmt.Errorf("failed to save syllabus: %w", err)
	}

	return nil
}

func (r *PostgresCourseRepository) GetSyllabus(courseID int) (*models.SyllabusRunResult, error) {
	query := `
		SELECT result
		FROM coursegen.syllabi
		WHERE course_id = $1`

	var resultJSON []byte
	row := r.db.QueryRow(query, courseID)

	err := row.Scan(&resultJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("syllabus for course %d not found", courseID)
		}
		return nil, fmt.Errorf("failed to get syllabus: %w", err)
	}

	result := &models.SyllabusRunResult{}
	if err := json.Unmarshal(resultJSON, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal syllabus: %w", err)
	}

	return result, nil
}

func (r *PostgresCourseRepository) DeleteCourse(id int) error {
	query := "DELETE FROM coursegen.courses WHERE id = $1"

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("course with id %d not found", id)
	}

	return nil
}

func (r *PostgresCourseRepository) Close() error {
	return r.db.Close()
}
