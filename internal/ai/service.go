package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ziadkadry99/topicreader/internal/llm"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// ProviderFactory builds a provider for an API key.
type ProviderFactory func(ctx context.Context, apiKey string) (llm.Provider, error)

// Config configures an LLMService.
type Config struct {
	Provider string // llm provider name
	Model    string
	RPM      int // requests per minute per API key, 0 for no limit

	Cache   *Cache   // optional
	YouTube *YouTube // optional; nil disables video lookups

	// NewProvider overrides how providers are built.
	NewProvider ProviderFactory
}

// LLMService implements Service in-process on top of an llm.Provider.
type LLMService struct {
	cfg Config

	mu        sync.Mutex
	providers map[string]llm.Provider // by API key
}

// NewLLMService returns a service for cfg. The model defaults to the
// provider's default model.
func NewLLMService(cfg Config) *LLMService {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(cfg.Provider)
	}
	if cfg.NewProvider == nil {
		name, model := cfg.Provider, cfg.Model
		cfg.NewProvider = func(ctx context.Context, apiKey string) (llm.Provider, error) {
			return llm.NewProviderWithKey(ctx, name, model, apiKey)
		}
	}
	return &LLMService{cfg: cfg, providers: make(map[string]llm.Provider)}
}

// Model returns the model used for completions.
func (s *LLMService) Model() string { return s.cfg.Model }

// NeedsKey reports whether calls need an API key.
func (s *LLMService) NeedsKey() bool { return llm.NeedsKey(s.cfg.Provider) }

// Status implements Service.
func (s *LLMService) Status(ctx context.Context) Status {
	return Status{AIEnabled: true, Message: fmt.Sprintf("Service is running (%s, %s)", s.cfg.Provider, s.cfg.Model)}
}

func (s *LLMService) provider(ctx context.Context, apiKey string) (llm.Provider, error) {
	if apiKey == "" && s.NeedsKey() {
		return nil, ErrMissingCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.providers[apiKey]; ok {
		return p, nil
	}
	p, err := s.cfg.NewProvider(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	p = llm.NewRateLimitedProvider(p, s.cfg.RPM)
	s.providers[apiKey] = p
	return p, nil
}

// SummaryPrompt returns the prompt Summarize would send for postHTML, or
// "" when the post is too short to summarize.
func (s *LLMService) SummaryPrompt(ctx context.Context, postHTML string) string {
	text := PlainText(postHTML)
	if s.cfg.YouTube != nil {
		if id, ok := VideoID(postHTML); ok {
			v, err := s.cfg.YouTube.Lookup(ctx, id)
			if err == nil {
				return videoSummaryPrompt(v, text)
			}
			log.Printf("ai: youtube lookup for %s failed, summarizing text only: %v", id, err)
		}
	}
	if len([]rune(text)) < MinSummaryRunes {
		return ""
	}
	return summaryPrompt(text)
}

// Summarize implements Service.
func (s *LLMService) Summarize(ctx context.Context, apiKey, postHTML string) (string, error) {
	p, err := s.provider(ctx, apiKey)
	if err != nil {
		return "", wrapSetup("summarize", err)
	}
	prompt := s.SummaryPrompt(ctx, postHTML)
	if prompt == "" {
		return ShortContentSummary, nil
	}
	if cached, ok := s.cfg.Cache.Get(s.cfg.Model, prompt); ok {
		return cached, nil
	}

	resp, err := p.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.3,
	})
	if err != nil {
		return "", &NetworkError{Op: "summarize", Msg: "error calling the AI service: " + err.Error(), Err: err}
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", &NetworkError{Op: "summarize", Msg: "the AI service returned an empty summary"}
	}
	s.cfg.Cache.Put(s.cfg.Model, prompt, summary)
	return summary, nil
}

// chatMessages maps a chat onto provider messages: the post context as a
// system message, then the history, then the new message.
func chatMessages(req ChatRequest) []llm.Message {
	var msgs []llm.Message
	if req.Context != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: req.Context})
	}
	for _, turn := range req.History {
		role := llm.RoleUser
		if turn.Role == topic.RoleModel {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Text()})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})
}

// Chat implements Service.
func (s *LLMService) Chat(ctx context.Context, apiKey string, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", errors.New("chat: message is empty")
	}
	p, err := s.provider(ctx, apiKey)
	if err != nil {
		return "", wrapSetup("chat", err)
	}
	resp, err := p.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		Messages:    chatMessages(req),
		Temperature: 0.7,
	})
	if err != nil {
		return "", &NetworkError{Op: "chat", Msg: "error talking to the AI service: " + err.Error(), Err: err}
	}
	return resp.Content, nil
}

func wrapSetup(op string, err error) error {
	if errors.Is(err, ErrMissingCredential) {
		return err
	}
	return &NetworkError{Op: op, Msg: "invalid API key or configuration: " + err.Error(), Err: err}
}
