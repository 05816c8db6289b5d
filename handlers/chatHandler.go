package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"coursegen/models"
	"coursegen/services/chat"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chat/stream", h.StreamChat).Methods("POST")
}

// StreamChat answers one chat turn over SSE: token events as the model
// produces them, then a final reply event with the completed response.
func (h *ChatHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received streaming chat request")

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Message == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	resp, err := h.service.StreamReply(r.Context(), req.ConversationID, req.Message, req.SourceTag,
		func(token string) {
			encoded, err := json.Marshal(map[string]string{"token": token})
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: token\ndata: %s\n\n", encoded)
			flusher.Flush()
		})
	if err != nil {
		log.Printf("[ERROR] Streaming chat turn failed: %v", err)
		encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", encoded)
		flusher.Flush()
		return
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[ERROR] Failed to encode chat response: %v", err)
		return
	}
	fmt.Fprintf(w, "event: reply\ndata: %s\n\n", encoded)
	flusher.Flush()

	log.Printf("[INFO] Streaming chat turn completed for conversation %s", resp.ConversationID)
}

func (h *ChatHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
