package export

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ziadkadry99/topicreader/internal/filter"
	"github.com/ziadkadry99/topicreader/internal/session"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

const input = `{"topic_title":"T","posts":[
{"post_id":1,"author":"A","post_time":"2023-01-01 10:00:00","post_html":"<p>one</p>","tags":[]},
{"post_id":2,"author":"B","post_time":"2023-01-01 11:00:00","post_html":"<p>two</p>","mood":"calm"},
{"post_id":3,"author":"A","post_time":"2023-01-01 12:00:00","post_html":"<p>three</p>"}]}`

func open(t *testing.T) *topic.Document {
	t.Helper()
	doc, err := topic.Open(strings.NewReader(input), "thread.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := open(t)
	out, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !reflect.DeepEqual(decode(t, []byte(input)), decode(t, out)) {
		t.Errorf("unedited export differs from input:\n%s", out)
	}
	if !strings.Contains(string(out), "\n    \"posts\"") {
		t.Errorf("expected four-space indentation:\n%s", out)
	}
	if !strings.Contains(string(out), "<p>one</p>") {
		t.Error("HTML should not be escaped")
	}
}

func TestExportIncludesEditsOnHiddenPosts(t *testing.T) {
	doc := open(t)
	s := session.New("s", doc)
	if err := s.Dispatch(session.AddTag{PostID: 2, Tag: "x"}); err != nil {
		t.Fatal(err)
	}
	// Post 2 is filtered out when exporting.
	s.Dispatch(session.FilterByAuthor{Author: "A"})
	if got := filter.Apply(doc.Posts(), s.Filter()); len(got) != 2 {
		t.Fatalf("filter sanity check: %d", len(got))
	}

	out, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	v := decode(t, out)
	posts := v["posts"].([]any)
	if len(posts) != 3 {
		t.Fatalf("export should contain every post, got %d", len(posts))
	}
	p2 := posts[1].(map[string]any)
	if tags := p2["tags"].([]any); len(tags) != 1 || tags[0] != "x" {
		t.Errorf("tags = %v", p2["tags"])
	}
	if p2["mood"] != "calm" {
		t.Error("unknown member lost")
	}
	for _, key := range []string{"post_id", "author", "post_time", "post_html"} {
		if p2[key] == nil {
			t.Errorf("missing %s", key)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a.json", "a_edited.json"},
		{"a_edited.json", "a_edited.json"},
		{"archive.tar.json", "archive.tar_edited.json"},
		{"notes", "notes_edited"},
		{"dir/sub/a.json", "a_edited.json"},
		{`C:\topics\a.json`, "a_edited.json"},
		{"", "topic_edited.json"},
	}
	for _, tt := range tests {
		if got := FileName(tt.in); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummaries(t *testing.T) {
	doc := open(t)
	doc.ApplyEdit(3, topic.SetSummary{Text: "third"})
	s := ExportSummaries(doc)
	if !reflect.DeepEqual(s, Summaries{"1": "", "2": "", "3": "third"}) {
		t.Errorf("ExportSummaries = %v", s)
	}

	data, err := MarshalSummaries(Summaries{"1": "one", "2": "two", "999": "gone", "x": "bad"})
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseSummaries(data)
	if err != nil {
		t.Fatal(err)
	}
	if n := ImportSummaries(doc, parsed); n != 2 {
		t.Errorf("ImportSummaries updated %d posts, want 2", n)
	}
	p, _ := doc.Post(2)
	if p.Summary != "two" {
		t.Errorf("summary = %q", p.Summary)
	}
}
