package ai

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

// RegisterRoutes mounts the AI endpoints: GET /status, POST /summarize and
// POST /chat. Callers pass their API key with every request.
func RegisterRoutes(r chi.Router, svc Service) {
	r.Get("/status", handleStatus(svc))
	r.Post("/summarize", handleSummarize(svc))
	r.Post("/chat", handleChat(svc))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// errorStatus maps a service error to the status code of its payload.
func errorStatus(err error) int {
	var ne *NetworkError
	switch {
	case errors.Is(err, ErrMissingCredential):
		return http.StatusBadRequest
	case errors.As(err, &ne) && ne.Status >= 400 && ne.Status < 500:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Msg != "" {
		return ne.Msg
	}
	if errors.Is(err, ErrMissingCredential) {
		return "Missing API key"
	}
	return err.Error()
}

func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status(r.Context()))
	}
}

func handleSummarize(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIKey   string `json:"api_key"`
			PostHTML string `json:"post_html"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if body.APIKey == "" {
			writeError(w, http.StatusBadRequest, "Missing API key")
			return
		}
		if body.PostHTML == "" {
			writeError(w, http.StatusBadRequest, "Missing post_html")
			return
		}
		summary, err := svc.Summarize(r.Context(), body.APIKey, body.PostHTML)
		if err != nil {
			log.Printf("ai: summarize: %v", err)
			writeError(w, errorStatus(err), errorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
	}
}

func handleChat(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIKey  string            `json:"api_key"`
			Prompt  string            `json:"prompt"`
			History *[]topic.ChatTurn `json:"history"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if body.APIKey == "" {
			writeError(w, http.StatusBadRequest, "Missing API key")
			return
		}
		if body.Prompt == "" || body.History == nil {
			writeError(w, http.StatusBadRequest, "Missing or invalid prompt or history")
			return
		}

		// The viewer sends the new message as the last user turn and the
		// post context as the prompt; older callers send the message as
		// the prompt.
		req := ChatRequest{History: *body.History, Message: body.Prompt}
		if n := len(req.History); n > 0 && req.History[n-1].Role == topic.RoleUser {
			req.Message = req.History[n-1].Text()
			req.History = req.History[:n-1]
			req.Context = body.Prompt
		}

		reply, err := svc.Chat(r.Context(), body.APIKey, req)
		if err != nil {
			log.Printf("ai: chat: %v", err)
			writeError(w, errorStatus(err), errorMessage(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}
}
