package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/render"
	"github.com/ziadkadry99/topicreader/internal/session"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

type fakeAI struct {
	mu       sync.Mutex
	summary  string
	reply    string
	err      error
	calls    int
	lastChat ai.ChatRequest
	delay    time.Duration // summarize waits this long unless ctx ends first
}

func (f *fakeAI) Status(context.Context) ai.Status {
	return ai.Status{AIEnabled: true, Message: "ok"}
}

func (f *fakeAI) Summarize(ctx context.Context, _ string, _ string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.summary, f.err
}

func (f *fakeAI) Chat(_ context.Context, _ string, req ai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastChat = req
	return f.reply, f.err
}

type staticKeys map[string]string

func (k staticKeys) Get(name string) string { return k[name] }

type fixture struct {
	router   chi.Router
	sessions *session.Manager
	ai       *fakeAI
}

func setup(t *testing.T, keys staticKeys) *fixture {
	t.Helper()
	rend, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	f := &fixture{
		sessions: session.NewManager(0),
		ai:       &fakeAI{summary: "a short summary", reply: "**sure**"},
	}
	rd := New(Config{
		Sessions: f.sessions,
		Renderer: rend,
		AI:       f.ai,
		Keys:     keys,
		Provider: "google",
		NeedsKey: true,
	})
	f.router = chi.NewRouter()
	rd.RegisterRoutes(f.router)
	return f
}

func topicJSON(n int) string {
	var posts []string
	for i := 1; i <= n; i++ {
		author := "alice"
		if i%2 == 0 {
			author = "bob"
		}
		posts = append(posts, fmt.Sprintf(`{"post_id": %d, "author": %q, "post_html": "<p>post %d</p>"}`, 100+i, author, i))
	}
	return `{"topic_title": "Garden club", "posts": [` + strings.Join(posts, ",") + `]}`
}

func uploadRequest(t *testing.T, path, name, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("topic", name)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, body)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// open uploads a topic and returns its session.
func (f *fixture) open(t *testing.T, n int) *session.Session {
	t.Helper()
	w := f.do(uploadRequest(t, "/sessions", "garden.json", topicJSON(n)))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	id := strings.TrimPrefix(w.Header().Get("Location"), "/sessions/")
	s, ok := f.sessions.Get(id)
	if !ok {
		t.Fatalf("session %q not created", id)
	}
	return s
}

func (f *fixture) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *fixture) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func TestUploadAndRender(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 3)

	w := f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+s.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Garden club") || !strings.Contains(body, "#3") {
		t.Error("page should show the title and posts")
	}
}

func TestUploadInvalidJSON(t *testing.T) {
	f := setup(t, nil)
	w := f.do(uploadRequest(t, "/sessions", "bad.json", `{"posts": [`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Could not load the file") {
		t.Error("landing page should explain the parse failure")
	}
	if f.sessions.Len() != 0 {
		t.Error("no session should be created for an invalid file")
	}
}

func TestReloadReplacesDocument(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 3)
	s.Dispatch(session.FilterByAuthor{Author: "bob"})

	w := f.do(uploadRequest(t, "/sessions/"+s.ID+"/load", "other.json", `{"topic_title": "Other", "posts": [{"post_id": 1}]}`))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	if s.Document().Title() != "Other" || !s.Filter().IsZero() {
		t.Error("reload should replace the document and reset the filter")
	}

	w = f.do(uploadRequest(t, "/sessions/"+s.ID+"/load", "broken.json", `nope`))
	if w.Code != http.StatusBadRequest || s.Document().Title() != "Other" {
		t.Error("a failed reload must keep the current document")
	}
}

func TestFormCommands(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 120)
	path := "/sessions/" + s.ID + "/commands"

	w := f.postForm(path, url.Values{"action": {"next"}})
	if w.Code != http.StatusSeeOther || s.Page() != 2 {
		t.Fatalf("next: status %d, page %d", w.Code, s.Page())
	}

	f.postForm(path, url.Values{"action": {"jump"}, "value": {"500"}})
	if s.Page() != 2 {
		t.Error("rejected jump must not move")
	}
	page := f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+s.ID, nil)).Body.String()
	if !strings.Contains(page, "out of range") {
		t.Error("rejected jump should surface as a notice")
	}

	w = f.postForm(path, url.Values{"action": {"summary"}, "post_id": {"175"}, "value": {"edited"}})
	if loc := w.Header().Get("Location"); !strings.HasSuffix(loc, "#post-75") {
		t.Errorf("redirect = %q, want anchor to post 75", loc)
	}
	p, _ := s.Document().Post(175)
	if p.Summary != "edited" {
		t.Errorf("summary = %q", p.Summary)
	}
}

func TestJSONCommands(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 120)
	path := "/api/sessions/" + s.ID + "/commands"

	w := f.postJSON(path, commandRequest{Action: "author", Value: "bob"})
	if w.Code != http.StatusOK {
		t.Fatalf("filter status = %d: %s", w.Code, w.Body.String())
	}

	w = f.postJSON(path, commandRequest{Action: "jump", Value: "75"})
	var v session.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding view: %v", err)
	}
	if v.Page != 2 || !v.Filter.IsZero() || v.Focus != 75 || len(v.Notices) != 1 {
		t.Errorf("jump view = page %d filter %+v focus %d notices %v", v.Page, v.Filter, v.Focus, v.Notices)
	}

	w = f.postJSON(path, commandRequest{Action: "page", Value: "4"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("page 4 status = %d", w.Code)
	}
	w = f.postJSON(path, commandRequest{Action: "highlight", PostID: 9999})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown post status = %d", w.Code)
	}
	w = f.postJSON(path, commandRequest{Action: "dance"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown action status = %d", w.Code)
	}
}

// A summary flushed as the page unloads arrives as a raw JSON body on the
// commands endpoint.
func TestJSONCommandSavesSummary(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 3)

	body := `{"action":"summary","value":"saved on the way out","post_id":103}`
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	p, _ := s.Document().Post(103)
	if p.Summary != "saved on the way out" {
		t.Errorf("summary = %q", p.Summary)
	}
}

func TestExportIncludesHiddenEdits(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 4)
	s.Dispatch(session.AddTag{PostID: 101, Tag: "roses"})
	s.Dispatch(session.FilterByAuthor{Author: "bob"})
	s.Dispatch(session.EditSummary{PostID: 102, Text: "bob says hi"})

	w := f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+s.ID+"/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="garden_edited.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	out, err := topic.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatalf("export is not a valid topic: %v", err)
	}
	if len(out.Posts) != 4 {
		t.Fatalf("export has %d posts, want all 4", len(out.Posts))
	}
	if !out.Posts[0].HasTag("roses") || out.Posts[1].Summary != "bob says hi" {
		t.Error("edits missing from export")
	}
}

func TestSummarize(t *testing.T) {
	f := setup(t, staticKeys{"google": "k"})
	s := f.open(t, 3)

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/102/summarize", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp summarizeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Summary != "a short summary" || !resp.Applied {
		t.Errorf("response = %+v", resp)
	}
	p, _ := s.Document().Post(102)
	if p.Summary != "a short summary" || !p.AISummarize {
		t.Errorf("post after summarize = %+v", p)
	}
	if s.Busy(102, session.KindSummarize) {
		t.Error("request should no longer be pending")
	}
}

func TestSummarizeOutlivesRequest(t *testing.T) {
	f := setup(t, staticKeys{"google": "k"})
	f.ai.delay = 100 * time.Millisecond
	s := f.open(t, 2)

	// The browser aborts the fetch when the user pages away.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/101/summarize", nil).WithContext(ctx)
	time.AfterFunc(20*time.Millisecond, cancel)

	w := f.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	p, _ := s.Document().Post(101)
	if p.Summary != "a short summary" || !p.AISummarize {
		t.Errorf("summary was dropped after the request ended: %+v", p)
	}
	if s.Busy(101, session.KindSummarize) {
		t.Error("request should no longer be pending")
	}
}

func TestSummarizeWithoutKey(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 1)
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/101/summarize", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if f.ai.calls != 0 {
		t.Error("no AI request should be made without a key")
	}
}

func TestSummarizeFailureLeavesPost(t *testing.T) {
	f := setup(t, staticKeys{"google": "k"})
	f.ai.err = &ai.NetworkError{Op: "summarize", Msg: "upstream down"}
	s := f.open(t, 1)
	s.Dispatch(session.EditSummary{PostID: 101, Text: "mine"})

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/101/summarize", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d", w.Code)
	}
	p, _ := s.Document().Post(101)
	if p.Summary != "mine" || p.AISummarize {
		t.Error("a failed summary must not touch the post")
	}
	if s.Busy(101, session.KindSummarize) {
		t.Error("failed request should be cleared")
	}
}

func TestSummarizeBusy(t *testing.T) {
	f := setup(t, staticKeys{"google": "k"})
	s := f.open(t, 2)
	if _, err := s.BeginRequest(101, session.KindSummarize); err != nil {
		t.Fatal(err)
	}
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/101/summarize", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d", w.Code)
	}
	w = f.do(httptest.NewRequest(http.MethodPost, "/api/sessions/"+s.ID+"/posts/102/summarize", nil))
	if w.Code != http.StatusOK {
		t.Errorf("other post status = %d", w.Code)
	}
}

func TestChat(t *testing.T) {
	f := setup(t, staticKeys{"google": "k"})
	s := f.open(t, 1)
	path := "/api/sessions/" + s.ID + "/posts/101/chat"

	w := f.postJSON(path, map[string]string{"message": "what is this?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp chatResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp.ReplyHTML, "<strong>sure</strong>") {
		t.Errorf("reply_html = %q", resp.ReplyHTML)
	}
	if !strings.Contains(f.ai.lastChat.Context, "Garden club") {
		t.Errorf("chat context = %q", f.ai.lastChat.Context)
	}

	f.ai.err = errors.New("boom")
	w = f.postJSON(path, map[string]string{"message": "again?"})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("failing chat status = %d", w.Code)
	}
	p, _ := s.Document().Post(101)
	if len(p.ChatHistory) != 2 {
		t.Errorf("chat history has %d turns, want only the successful pair", len(p.ChatHistory))
	}

	w = f.postJSON(path, map[string]string{"message": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d", w.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	f := setup(t, nil)
	w := f.do(httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("page status = %d", w.Code)
	}
	w = f.postJSON("/api/sessions/nope/commands", commandRequest{Action: "next"})
	if w.Code != http.StatusNotFound {
		t.Errorf("api status = %d", w.Code)
	}
}

func TestWebSocketSummaryEdits(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 2)

	server := httptest.NewServer(f.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/sessions/" + s.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	conn.WriteJSON(liveMessage{Type: "summary", PostID: 102, Value: "typed live"})
	var resp liveResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "ack" || resp.PostID != 102 {
		t.Errorf("response = %+v", resp)
	}
	p, _ := s.Document().Post(102)
	if p.Summary != "typed live" {
		t.Errorf("summary = %q", p.Summary)
	}

	conn.WriteJSON(liveMessage{Type: "summary", PostID: 5, Value: "x"})
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("unknown post should fail, got %+v", resp)
	}

	conn.WriteJSON(liveMessage{Type: "command", Action: "highlight", PostID: 101})
	conn.ReadJSON(&resp)
	if p, _ := s.Document().Post(101); !p.Highlighted {
		t.Error("command message should toggle the highlight")
	}
}

func TestWebSocketRejectsEditsAfterReload(t *testing.T) {
	f := setup(t, nil)
	s := f.open(t, 2)

	server := httptest.NewServer(f.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/sessions/" + s.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	// Same post id, different document.
	s.Load(topic.NewDocument(&topic.Topic{Title: "Fresh", Posts: []*topic.Post{{ID: 101, Author: "carol"}}}, "fresh.json"))

	conn.WriteJSON(liveMessage{Type: "summary", PostID: 101, Value: "from the old page"})
	var resp liveResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("stale edit should be rejected, got %+v", resp)
	}
	if p, _ := s.Document().Post(101); p.Summary != "" {
		t.Errorf("stale edit landed on the new document: %q", p.Summary)
	}
}
