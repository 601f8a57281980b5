// Package ai summarizes posts and chats about them through a language
// model, either in-process or through a remote reader service.
package ai

import (
	"context"
	"errors"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

// ErrMissingCredential is returned before any request is made when no API
// key is available.
var ErrMissingCredential = errors.New("no API key configured")

// NetworkError reports a failed or unsuccessful AI round trip. Msg is
// suitable for showing next to the control that triggered the request.
type NetworkError struct {
	Op     string // "summarize" or "chat"
	Status int    // HTTP status when known
	Msg    string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + e.Msg
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Status reports whether the AI endpoints are usable.
type Status struct {
	AIEnabled bool   `json:"ai_enabled"`
	Message   string `json:"message"`
}

// ChatRequest is one chat round trip about a post.
type ChatRequest struct {
	// Context describes the post the conversation is about.
	Context string
	// History is the prior conversation, oldest first.
	History []topic.ChatTurn
	// Message is the user's new message.
	Message string
}

// Service is the AI capability used by the reader and the batch tool.
type Service interface {
	Status(ctx context.Context) Status
	Summarize(ctx context.Context, apiKey, postHTML string) (string, error)
	Chat(ctx context.Context, apiKey string, req ChatRequest) (string, error)
}
