package topic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exported member names.
const (
	keyTopicTitle  = "topic_title"
	keyPosts       = "posts"
	keyPostID      = "post_id"
	keyAuthor      = "author"
	keyPostTime    = "post_time"
	keyPostURL     = "post_url"
	keyPostTitle   = "post_title"
	keyPostHTML    = "post_html"
	keyHighlighted = "is_highlighted"
	keyTags        = "tags"
	keySummary     = "summary"
	keyAISummarize = "ai_summarize"
	keyChatHistory = "chat_history"
)

var topicKeys = []string{keyTopicTitle, keyPosts}

var postKeys = []string{
	keyPostID, keyAuthor, keyPostTime, keyPostURL, keyPostTitle, keyPostHTML,
	keyHighlighted, keyTags, keySummary, keyAISummarize, keyChatHistory,
}

// ParseError reports a topic document that could not be decoded.
type ParseError struct {
	Offset int64 // byte offset of a syntax error, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("parsing topic at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("parsing topic: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes a topic export. Any failure is reported as a *ParseError.
func Parse(data []byte) (*Topic, error) {
	var t Topic
	if err := json.Unmarshal(data, &t); err != nil {
		pe := &ParseError{Err: err}
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			pe.Offset = syn.Offset
		}
		return nil, pe
	}
	seen := make(map[int64]int, len(t.Posts))
	for i, p := range t.Posts {
		if prev, ok := seen[p.ID]; ok {
			return nil, &ParseError{Err: fmt.Errorf("post_id %d appears at positions %d and %d", p.ID, prev+1, i+1)}
		}
		seen[p.ID] = i
	}
	return &t, nil
}

// Load reads and decodes a topic export.
func Load(r io.Reader) (*Topic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading topic: %w", err)
	}
	return Parse(data)
}

// layout remembers the members an object was loaded with, in order, and
// keeps the members this package does not model so they survive export.
type layout struct {
	order   []string
	present map[string]bool
	null    map[string]bool
	extra   map[string]json.RawMessage
}

func (l layout) clone() layout {
	c := layout{order: append([]string(nil), l.order...)}
	if l.present != nil {
		c.present = make(map[string]bool, len(l.present))
		for k, v := range l.present {
			c.present[k] = v
		}
	}
	if l.null != nil {
		c.null = make(map[string]bool, len(l.null))
		for k, v := range l.null {
			c.null[k] = v
		}
	}
	if l.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(l.extra))
		for k, v := range l.extra {
			c.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// record notes a member read from input.
func (l *layout) record(key string, raw json.RawMessage) {
	if l.present == nil {
		l.present = make(map[string]bool)
		l.null = make(map[string]bool)
	}
	if !l.present[key] {
		l.order = append(l.order, key)
	}
	l.present[key] = true
	l.null[key] = bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (l *layout) keep(key string, raw json.RawMessage) {
	if l.extra == nil {
		l.extra = make(map[string]json.RawMessage)
	}
	l.extra[key] = append(json.RawMessage(nil), raw...)
}

// emitOrder is the loaded member order followed by any modelled member the
// input lacked.
func (l layout) emitOrder(known []string) []string {
	out := append([]string(nil), l.order...)
	for _, k := range known {
		if !l.present[k] {
			out = append(out, k)
		}
	}
	return out
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeObject splits a JSON object into its members, preserving order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		members = append(members, member{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// encodeValue marshals v without HTML escaping; post bodies are HTML.
func encodeValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeObject(members []member) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := encodeValue(m.key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(m.value)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Topic) UnmarshalJSON(data []byte) error {
	members, err := decodeObject(data)
	if err != nil {
		return err
	}
	*t = Topic{}
	for _, m := range members {
		t.layout.record(m.key, m.value)
		switch m.key {
		case keyTopicTitle:
			if err := json.Unmarshal(m.value, &t.Title); err != nil {
				return fmt.Errorf("topic_title: %w", err)
			}
		case keyPosts:
			if !isArray(m.value) {
				return fmt.Errorf("posts: expected an array")
			}
			var raws []json.RawMessage
			if err := json.Unmarshal(m.value, &raws); err != nil {
				return fmt.Errorf("posts: %w", err)
			}
			t.Posts = make([]*Post, 0, len(raws))
			for i, raw := range raws {
				p := &Post{}
				if err := p.UnmarshalJSON(raw); err != nil {
					return fmt.Errorf("post %d: %w", i+1, err)
				}
				t.Posts = append(t.Posts, p)
			}
		default:
			t.layout.keep(m.key, m.value)
		}
	}
	if !t.layout.present[keyPosts] {
		return fmt.Errorf("missing posts array")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Topic) MarshalJSON() ([]byte, error) {
	var out []member
	for _, key := range t.layout.emitOrder(topicKeys) {
		var v any
		switch key {
		case keyTopicTitle:
			switch {
			case t.Title != "":
				v = t.Title
			case !t.layout.present[key]:
				continue
			case t.layout.null[key]:
				v = nil
			default:
				v = ""
			}
		case keyPosts:
			posts := t.Posts
			if posts == nil {
				posts = []*Post{}
			}
			v = posts
		default:
			out = append(out, member{key: key, value: t.layout.extra[key]})
			continue
		}
		raw, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, member{key: key, value: raw})
	}
	return writeObject(out), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Post) UnmarshalJSON(data []byte) error {
	members, err := decodeObject(data)
	if err != nil {
		return err
	}
	*p = Post{}
	for _, m := range members {
		p.layout.record(m.key, m.value)
		var target any
		switch m.key {
		case keyPostID:
			target = &p.ID
		case keyAuthor:
			target = &p.Author
		case keyPostTime:
			p.Time = append(json.RawMessage(nil), m.value...)
			continue
		case keyPostURL:
			target = &p.URL
		case keyPostTitle:
			target = &p.Title
		case keyPostHTML:
			target = &p.HTML
		case keyHighlighted:
			target = &p.Highlighted
		case keyTags:
			target = &p.Tags
		case keySummary:
			target = &p.Summary
		case keyAISummarize:
			target = &p.AISummarize
		case keyChatHistory:
			target = &p.ChatHistory
		default:
			p.layout.keep(m.key, m.value)
			continue
		}
		if err := json.Unmarshal(m.value, target); err != nil {
			return fmt.Errorf("%s: %w", m.key, err)
		}
	}
	if !p.layout.present[keyPostID] || p.layout.null[keyPostID] {
		return fmt.Errorf("missing post_id")
	}
	p.Tags = dedupeTags(p.Tags)
	return nil
}

// dedupeTags drops repeated tags, keeping the first occurrence.
func dedupeTags(tags []string) []string {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// memberValue returns the value to emit for key and whether to emit it.
// Optional members are written when they were loaded or carry a value.
func (p Post) memberValue(key string) (any, bool) {
	optional := func(set bool, v, empty any) (any, bool) {
		if set {
			return v, true
		}
		if !p.layout.present[key] {
			return nil, false
		}
		if p.layout.null[key] {
			return nil, true
		}
		return empty, true
	}
	switch key {
	case keyPostID:
		return p.ID, true
	case keyAuthor:
		return optional(p.Author != "", p.Author, "")
	case keyPostTime:
		if len(p.Time) > 0 {
			return json.RawMessage(p.Time), true
		}
		return optional(false, nil, nil)
	case keyPostURL:
		return optional(p.URL != "", p.URL, "")
	case keyPostTitle:
		return optional(p.Title != "", p.Title, "")
	case keyPostHTML:
		return optional(p.HTML != "", p.HTML, "")
	case keyHighlighted:
		return optional(p.Highlighted, p.Highlighted, false)
	case keyTags:
		return optional(len(p.Tags) > 0, p.Tags, []string{})
	case keySummary:
		return optional(p.Summary != "", p.Summary, "")
	case keyAISummarize:
		return optional(p.AISummarize, p.AISummarize, false)
	case keyChatHistory:
		return optional(len(p.ChatHistory) > 0, p.ChatHistory, []ChatTurn{})
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler.
func (p Post) MarshalJSON() ([]byte, error) {
	var out []member
	for _, key := range p.layout.emitOrder(postKeys) {
		if raw, ok := p.layout.extra[key]; ok {
			out = append(out, member{key: key, value: raw})
			continue
		}
		v, ok := p.memberValue(key)
		if !ok {
			continue
		}
		raw, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, member{key: key, value: raw})
	}
	return writeObject(out), nil
}
