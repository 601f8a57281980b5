package topic

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Chat roles as they appear in exported chat_history entries.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Topic is one exported discussion thread: a title and its posts in
// canonical order.
type Topic struct {
	Title string
	Posts []*Post

	layout layout
}

// Post is a single message of a topic together with the reader's
// annotations (highlight, tags, summary, chat transcript).
type Post struct {
	ID          int64
	Author      string
	Time        json.RawMessage // post_time exactly as exported
	URL         string
	Title       string
	HTML        string
	Highlighted bool
	Tags        []string
	Summary     string
	AISummarize bool // summary was produced by the AI service
	ChatHistory []ChatTurn

	layout layout
}

// ChatTurn is one message of the per-post AI conversation.
type ChatTurn struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// NewTurn returns a single-part chat turn.
func NewTurn(role, text string) ChatTurn {
	return ChatTurn{Role: role, Parts: []string{text}}
}

// Text returns the turn's content.
func (c ChatTurn) Text() string {
	return strings.Join(c.Parts, "")
}

// HasTag reports whether the post carries tag (exact match).
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag unless it is blank or already present. It reports
// whether the tag set changed.
func (p *Post) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || p.HasTag(tag) {
		return false
	}
	p.Tags = append(p.Tags, tag)
	return true
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	c := *p
	if p.Time != nil {
		c.Time = append(json.RawMessage(nil), p.Time...)
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.ChatHistory != nil {
		c.ChatHistory = make([]ChatTurn, len(p.ChatHistory))
		for i, turn := range p.ChatHistory {
			c.ChatHistory[i] = ChatTurn{Role: turn.Role, Parts: append([]string(nil), turn.Parts...)}
		}
	}
	c.layout = p.layout.clone()
	return &c
}

// Clone returns a deep copy of the topic.
func (t *Topic) Clone() *Topic {
	c := &Topic{Title: t.Title, layout: t.layout.clone()}
	if t.Posts != nil {
		c.Posts = make([]*Post, len(t.Posts))
		for i, p := range t.Posts {
			c.Posts[i] = p.Clone()
		}
	}
	return c
}

// timeLayouts are the post_time formats seen in forum exports.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParsedTime interprets post_time. Strings are tried against the known
// layouts, numbers are Unix seconds.
func (p *Post) ParsedTime() (time.Time, bool) {
	raw := strings.TrimSpace(string(p.Time))
	if raw == "" || raw == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(p.Time, &s); err == nil {
		for _, l := range timeLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

// DisplayTime renders post_time for humans, falling back to the raw
// exported value when it cannot be parsed.
func (p *Post) DisplayTime() string {
	if t, ok := p.ParsedTime(); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	var s string
	if err := json.Unmarshal(p.Time, &s); err == nil {
		return s
	}
	return string(p.Time)
}
