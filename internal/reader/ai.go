package reader

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/session"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

type summarizeResponse struct {
	PostID  int64  `json:"post_id"`
	Summary string `json:"summary"`
	Applied bool   `json:"applied"`
}

type chatResponse struct {
	PostID    int64  `json:"post_id"`
	Reply     string `json:"reply"`
	ReplyHTML string `json:"reply_html"`
	Applied   bool   `json:"applied"`
}

// aiStatus maps an AI or session error to a status code and message.
func aiStatus(err error) (int, string) {
	var ne *ai.NetworkError
	switch {
	case errors.Is(err, session.ErrUnknownPost):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ai.ErrMissingCredential):
		return http.StatusBadRequest, "No API key is configured. Save one first."
	case errors.As(err, &ne):
		return http.StatusBadGateway, ne.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

// begin starts a per-post AI request, writing the error response itself
// when it cannot start.
func (rd *Reader) begin(w http.ResponseWriter, r *http.Request, kind session.Kind) (*session.Session, session.Ticket, string, bool) {
	s, ok := rd.lookup(w, r, true)
	if !ok {
		return nil, session.Ticket{}, "", false
	}
	if rd.cfg.AI == nil {
		writeError(w, http.StatusServiceUnavailable, "AI features are not configured")
		return nil, session.Ticket{}, "", false
	}
	postID, err := postIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return nil, session.Ticket{}, "", false
	}
	key, err := rd.apiKey()
	if err != nil {
		status, msg := aiStatus(err)
		writeError(w, status, msg)
		return nil, session.Ticket{}, "", false
	}
	t, err := s.BeginRequest(postID, kind)
	if err != nil {
		status, msg := aiStatus(err)
		writeError(w, status, msg)
		return nil, session.Ticket{}, "", false
	}
	return s, t, key, true
}

// handleSummarize asks the AI service for a summary of one post and
// stores it as the post's summary.
func (rd *Reader) handleSummarize(w http.ResponseWriter, r *http.Request) {
	s, t, key, ok := rd.begin(w, r, session.KindSummarize)
	if !ok {
		return
	}
	post, found := s.Document().Post(t.PostID)
	if !found {
		s.Finish(t, nil)
		writeError(w, http.StatusNotFound, session.ErrUnknownPost.Error())
		return
	}

	ctx, cancel := rd.aiContext(r)
	defer cancel()
	summary, err := rd.cfg.AI.Summarize(ctx, key, post.HTML)
	if err != nil {
		s.Finish(t, nil)
		log.Printf("reader: summarizing post %d: %v", t.PostID, err)
		status, msg := aiStatus(err)
		writeError(w, status, msg)
		return
	}
	applied := s.Finish(t, topic.SetAISummary{Text: summary})
	writeJSON(w, http.StatusOK, summarizeResponse{PostID: t.PostID, Summary: summary, Applied: applied})
}

// handleChat sends one message about a post. The exchange is recorded in
// the post's chat history only when the model replied.
func (rd *Reader) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	message := strings.TrimSpace(req.Message)

	s, t, key, ok := rd.begin(w, r, session.KindChat)
	if !ok {
		return
	}
	doc := s.Document()
	post, found := doc.Post(t.PostID)
	if !found {
		s.Finish(t, nil)
		writeError(w, http.StatusNotFound, session.ErrUnknownPost.Error())
		return
	}
	title := post.Title
	if title == "" {
		title = doc.Title()
	}

	ctx, cancel := rd.aiContext(r)
	defer cancel()
	reply, err := rd.cfg.AI.Chat(ctx, key, ai.ChatRequest{
		Context: ai.ChatContext(title, post.Summary, post.HTML),
		History: post.ChatHistory,
		Message: message,
	})
	if err != nil {
		s.Finish(t, nil)
		log.Printf("reader: chat on post %d: %v", t.PostID, err)
		status, msg := aiStatus(err)
		writeError(w, status, msg)
		return
	}
	applied := s.Finish(t, topic.AppendChat{User: message, Reply: reply})
	writeJSON(w, http.StatusOK, chatResponse{
		PostID:    t.PostID,
		Reply:     reply,
		ReplyHTML: string(rd.cfg.Renderer.Markdown(reply)),
		Applied:   applied,
	})
}
