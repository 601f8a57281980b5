package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

// Client implements Service against a remote reader service exposing
// /status, /summarize and /chat.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{}}
}

// Status implements Service. An unreachable service reports AI as disabled.
func (c *Client) Status(ctx context.Context) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return Status{Message: err.Error()}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Status{Message: "AI service unreachable: " + err.Error()}
	}
	defer resp.Body.Close()
	var st Status
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&st) != nil {
		return Status{Message: fmt.Sprintf("AI service returned status %d", resp.StatusCode)}
	}
	return st
}

// Summarize implements Service.
func (c *Client) Summarize(ctx context.Context, apiKey, postHTML string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingCredential
	}
	var out struct {
		Summary string `json:"summary"`
	}
	in := map[string]any{"api_key": apiKey, "post_html": postHTML}
	if err := c.post(ctx, "summarize", "/summarize", in, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// Chat implements Service. With a context, the new message travels as the
// last history entry and the context as the prompt.
func (c *Client) Chat(ctx context.Context, apiKey string, req ChatRequest) (string, error) {
	if apiKey == "" {
		return "", ErrMissingCredential
	}
	history := append([]topic.ChatTurn{}, req.History...)
	prompt := req.Message
	if req.Context != "" {
		history = append(history, topic.NewTurn(topic.RoleUser, req.Message))
		prompt = req.Context
	}
	var out struct {
		Reply string `json:"reply"`
	}
	in := map[string]any{"api_key": apiKey, "history": history, "prompt": prompt}
	if err := c.post(ctx, "chat", "/chat", in, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Msg: "AI service unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Msg: "reading AI service response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		msg := fmt.Sprintf("AI service returned status %d", resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &NetworkError{Op: op, Status: resp.StatusCode, Msg: msg}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Msg: "invalid AI service response", Err: err}
	}
	return nil
}

// errorResponse is the error payload of the AI endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

var _ Service = (*Client)(nil)
var _ Service = (*LLMService)(nil)

// IsNetworkError reports whether err is a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
