package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"coursegen/models"
	"coursegen/services/courses"

	"github.com/gorilla/mux"
)

type CourseHandler struct {
	service *courses.Service
}

func NewCourseHandler(service *courses.Service) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/courses", h.CreateCourse).Methods("POST")
	router.HandleFunc("/courses", h.GetAllCourses).Methods("GET")
	router.HandleFunc("/courses/search", h.SearchCourses).Methods("GET")
	router.HandleFunc("/courses/{id:[0-9]+}", h.GetCourseByID).Methods("GET")
	router.HandleFunc("/courses/{id:[0-9]+}", h.DeleteCourse).Methods("DELETE")
	router.HandleFunc("/courses/{id:[0-9]+}/syllabus", h.GetSyllabus).Methods("GET")
}

func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	course, err := h.service.CreateCourse(&req)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, course)
}

func (h *CourseHandler) GetAllCourses(w http.ResponseWriter, r *http.Request) {
	courseList, err := h.service.GetAllCourses()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve courses")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, courseList)
}

func (h *CourseHandler) SearchCourses(w http.ResponseWriter, r *http.Request) {
	var terms []string
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		terms = strings.Fields(strings.ToLower(q))
	}

	matches, err := h.service.SearchCoursesByTopic(terms)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to search courses")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, matches)
}

func (h *CourseHandler) GetCourseByID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := h.service.GetCourseByID(id)
	if err != nil {
		if isNotFound(err.Error()) {
			h.writeErrorResponse(w, http.StatusNotFound, err.Error())
		} else {
			h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve course")
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, course)
}

func (h *CourseHandler) GetSyllabus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	result, err := h.service.GetSyllabus(id)
	if err != nil {
		if isNotFound(err.Error()) {
			h.writeErrorResponse(w, http.StatusNotFound, err.Error())
		} else {
			h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve syllabus")
		}
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	if err := h.service.DeleteCourse(id); err != nil {
		if isNotFound(err.Error()) {
			h.writeErrorResponse(w, http.StatusNotFound, err.Error())
		} else {
			h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to delete course")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *CourseHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func isNotFound(message string) bool {
	return strings.HasSuffix(message, "not found")
}
