package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"coursegen/services/courses"
	"coursegen/services/syllabus"

	"github.com/gorilla/mux"
)

// StrategyFactory builds a generation strategy bound to a per-request
// event sink. The handler owns the sink's lifetime, so strategies are
// constructed per run rather than shared.
type StrategyFactory func(emit syllabus.Emitter) syllabus.ModuleStrategy

type SyllabusHandler struct {
	courseService  *courses.Service
	levelFactory   StrategyFactory
	outlineFactory StrategyFactory
}

func NewSyllabusHandler(courseService *courses.Service, levelFactory, outlineFactory StrategyFactory) *SyllabusHandler {
	return &SyllabusHandler{
		courseService:  courseService,
		levelFactory:   levelFactory,
		outlineFactory: outlineFactory,
	}
}

func (h *SyllabusHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/courses/{id:[0-9]+}/syllabus/generate", h.GenerateSyllabus).Methods("POST")
}

// GenerateSyllabus runs syllabus generation for a course and streams the
// pipeline's lifecycle events over SSE as they happen. The optional
// strategy query parameter selects the title-first planner ("outline")
// over the default per-level pipeline.
func (h *SyllabusHandler) GenerateSyllabus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	courseID, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := h.courseService.GetCourseByID(courseID)
	if err != nil {
		h.writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	factory := h.levelFactory
	if r.URL.Query().Get("strategy") == "outline" {
		factory = h.outlineFactory
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	log.Printf("[INFO] Starting streamed syllabus generation for course %d", courseID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Serializes writes: the pipeline may emit from the request goroutine
	// only, but the lock keeps that assumption out of the contract.
	var mu sync.Mutex
	emit := func(stage, eventType string, data map[string]any) {
		mu.Lock()
		defer mu.Unlock()

		payload := map[string]any{"stage": stage}
		for k, v := range data {
			payload[k] = v
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[ERROR] Failed to encode %s event: %v", eventType, err)
			return
		}

		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, encoded)
		flusher.Flush()
	}

	strategy := factory(emit)
	result, err := strategy.GenerateModules(r.Context(), courseID, course.Descriptor())
	if err != nil {
		// The pipeline already emitted its error event; close the stream.
		log.Printf("[ERROR] Streamed syllabus generation for course %d failed: %v", courseID, err)
		return
	}

	// Final payload after the done event so non-incremental clients can
	// take just the last data frame.
	encoded, err := json.Marshal(result)
	if err != nil {
		log.Printf("[ERROR] Failed to encode syllabus result: %v", err)
		return
	}
	mu.Lock()
	fmt.Fprintf(w, "event: syllabus\ndata: %s\n\n", encoded)
	flusher.Flush()
	mu.Unlock()

	log.Printf("[INFO] Streamed syllabus generation for course %d completed", courseID)
}

func (h *SyllabusHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
