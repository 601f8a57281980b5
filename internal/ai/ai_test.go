package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/topicreader/internal/db"
	"github.com/ziadkadry99/topicreader/internal/llm"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// fakeProvider records requests and answers with a canned reply.
type fakeProvider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newService(t *testing.T, p *fakeProvider, cache *Cache) *LLMService {
	t.Helper()
	return NewLLMService(Config{
		Provider: llm.ProviderGoogle,
		Cache:    cache,
		NewProvider: func(ctx context.Context, apiKey string) (llm.Provider, error) {
			if apiKey == "bad" {
				return nil, errors.New("rejected key")
			}
			return p, nil
		},
	})
}

const longPost = `<div><p>The retreat started on a <b>rainy</b> morning.</p>
<script>track()</script><p>We walked  to the hall.</p></div>`

func TestPlainText(t *testing.T) {
	got := PlainText(longPost)
	want := "The retreat started on a rainy morning. We walked  to the hall."
	if got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("一二三四", 2); got != "一二" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		html string
		id   string
		ok   bool
	}{
		{`<a href="https://www.youtube.com/watch?v=dQw4w9WgXcQ">x</a>`, "dQw4w9WgXcQ", true},
		{`see https://youtu.be/abcdefghijk now`, "abcdefghijk", true},
		{`<iframe src="https://youtube.com/embed/ABCDEFGHIJK"></iframe>`, "ABCDEFGHIJK", true},
		{`<div class="youtube-placeholder" data-videoid="zzzzzzzzzzz"></div>`, "zzzzzzzzzzz", true},
		{`<div class="youtube-placeholder" data-videoid="short"></div>`, "", false},
		{`<p>no video</p>`, "", false},
	}
	for _, tt := range tests {
		id, ok := VideoID(tt.html)
		if id != tt.id || ok != tt.ok {
			t.Errorf("VideoID(%q) = %q, %v", tt.html, id, ok)
		}
	}
}

func TestChatContext(t *testing.T) {
	got := ChatContext("Day one", "", "<p>Body text</p>")
	if !strings.Contains(got, `"Day one"`) || !strings.Contains(got, "Body text") {
		t.Errorf("ChatContext = %q", got)
	}
	got = ChatContext("Day one", "A summary", "<p>Body text</p>")
	if strings.Contains(got, "Body text") || !strings.Contains(got, "A summary") {
		t.Errorf("summary should be preferred: %q", got)
	}
}

func TestSummarizeShortPost(t *testing.T) {
	p := &fakeProvider{reply: "unused"}
	svc := newService(t, p, nil)
	got, err := svc.Summarize(context.Background(), "key", "<p>hi</p>")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != ShortContentSummary || p.count() != 0 {
		t.Errorf("got %q after %d calls", got, p.count())
	}
}

func TestSummarizeTruncatesAndCaches(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	p := &fakeProvider{reply: "  A concise summary.  "}
	svc := newService(t, p, NewCache(d))
	body := "<p>" + strings.Repeat("word ", 1000) + "</p>"

	for i := 0; i < 2; i++ {
		got, err := svc.Summarize(context.Background(), "key", body)
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if got != "A concise summary." {
			t.Errorf("summary = %q", got)
		}
	}
	if p.count() != 1 {
		t.Errorf("expected one provider call, got %d", p.count())
	}
	prompt := p.calls[0].Messages[0].Content
	if strings.Count(prompt, "word") > 450 {
		t.Error("prompt text was not truncated")
	}
	if p.calls[0].Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", p.calls[0].Model)
	}
}

func TestSummarizeErrors(t *testing.T) {
	p := &fakeProvider{err: errors.New("503 backend unavailable")}
	svc := newService(t, p, nil)

	if _, err := svc.Summarize(context.Background(), "", longPost); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
	if p.count() != 0 {
		t.Error("no request may be sent without a credential")
	}

	_, err := svc.Summarize(context.Background(), "key", longPost)
	var ne *NetworkError
	if !errors.As(err, &ne) || !strings.Contains(ne.Msg, "503") {
		t.Errorf("expected NetworkError, got %v", err)
	}

	if _, err := svc.Summarize(context.Background(), "bad", longPost); !IsNetworkError(err) {
		t.Errorf("provider setup failure should be a NetworkError, got %v", err)
	}
}

func TestSummarizeYouTube(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Query().Get("url"), "dQw4w9WgXcQ") {
			t.Errorf("unexpected oembed query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"title":"Morning chant","author_name":"Temple Channel"}`)
	}))
	defer oembed.Close()

	p := &fakeProvider{reply: "A video of a chant."}
	svc := newService(t, p, nil)
	svc.cfg.YouTube = &YouTube{endpoint: oembed.URL, client: oembed.Client()}

	got, err := svc.Summarize(context.Background(), "key", `<a href="https://youtu.be/dQw4w9WgXcQ">v</a>`)
	if err != nil || got != "A video of a chant." {
		t.Fatalf("Summarize = %q, %v", got, err)
	}
	if prompt := p.calls[0].Messages[0].Content; !strings.Contains(prompt, "Morning chant") || !strings.Contains(prompt, "Temple Channel") {
		t.Errorf("prompt lacks video metadata: %s", prompt)
	}
}

func TestChatMessages(t *testing.T) {
	p := &fakeProvider{reply: "It is about rain."}
	svc := newService(t, p, nil)
	reply, err := svc.Chat(context.Background(), "key", ChatRequest{
		Context: "ctx",
		History: []topic.ChatTurn{topic.NewTurn(topic.RoleUser, "q1"), topic.NewTurn(topic.RoleModel, "a1")},
		Message: "q2",
	})
	if err != nil || reply != "It is about rain." {
		t.Fatalf("Chat = %q, %v", reply, err)
	}
	msgs := p.calls[0].Messages
	roles := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleUser}
	if len(msgs) != len(roles) {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, r := range roles {
		if msgs[i].Role != r {
			t.Errorf("message %d role = %s, want %s", i, msgs[i].Role, r)
		}
	}
	if msgs[3].Content != "q2" {
		t.Errorf("last message = %q", msgs[3].Content)
	}
}

func TestClientAgainstRoutes(t *testing.T) {
	p := &fakeProvider{reply: "remote reply"}
	r := chi.NewRouter()
	RegisterRoutes(r, newService(t, p, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	if st := c.Status(context.Background()); !st.AIEnabled {
		t.Errorf("status = %+v", st)
	}

	summary, err := c.Summarize(context.Background(), "key", longPost)
	if err != nil || summary != "remote reply" {
		t.Fatalf("Summarize = %q, %v", summary, err)
	}

	reply, err := c.Chat(context.Background(), "key", ChatRequest{Context: "about the post", Message: "why?"})
	if err != nil || reply != "remote reply" {
		t.Fatalf("Chat = %q, %v", reply, err)
	}
	last := p.calls[len(p.calls)-1].Messages
	if last[0].Role != llm.RoleSystem || last[0].Content != "about the post" || last[len(last)-1].Content != "why?" {
		t.Errorf("chat was not mapped back into context and message: %+v", last)
	}

	if _, err := c.Summarize(context.Background(), "", longPost); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestClientReportsErrorPayload(t *testing.T) {
	p := &fakeProvider{err: errors.New("quota exceeded")}
	r := chi.NewRouter()
	RegisterRoutes(r, newService(t, p, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, err := NewClient(srv.URL).Chat(context.Background(), "key", ChatRequest{Message: "hi"})
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Status != http.StatusInternalServerError || !strings.Contains(ne.Msg, "quota exceeded") {
		t.Errorf("unexpected error %+v", ne)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	if st := c.Status(context.Background()); st.AIEnabled {
		t.Error("unreachable service should be disabled")
	}
	if _, err := c.Summarize(context.Background(), "key", longPost); !IsNetworkError(err) {
		t.Errorf("expected NetworkError, got %v", err)
	}
}

func TestHandlersValidate(t *testing.T) {
	r := chi.NewRouter()
	RegisterRoutes(r, newService(t, &fakeProvider{}, nil))

	tests := []struct {
		path, body string
		want       string
	}{
		{"/summarize", `not json`, "Invalid request"},
		{"/summarize", `{"post_html":"<p>x</p>"}`, "Missing API key"},
		{"/summarize", `{"api_key":"k"}`, "Missing post_html"},
		{"/chat", `{"api_key":"k","prompt":"hi"}`, "Missing or invalid prompt or history"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("%s %s: %d %s", tt.path, tt.body, w.Code, w.Body.String())
		}
	}
}
