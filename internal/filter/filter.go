// Package filter derives author or tag restricted views of a topic's posts.
package filter

import "github.com/ziadkadry99/topicreader/internal/topic"

// Active is the current restriction on the visible posts. At most one of
// Author and Tag is set.
type Active struct {
	Author string `json:"author,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

// ByAuthor returns a filter keeping only posts by author.
func ByAuthor(author string) Active { return Active{Author: author} }

// ByTag returns a filter keeping only posts carrying tag.
func ByTag(tag string) Active { return Active{Tag: tag} }

// IsZero reports whether no restriction is set.
func (f Active) IsZero() bool { return f.Author == "" && f.Tag == "" }

// Label describes the filter for the clear-filter control.
func (f Active) Label() string {
	switch {
	case f.Author != "":
		return "author: " + f.Author
	case f.Tag != "":
		return "tag: " + f.Tag
	}
	return ""
}

// Match reports whether p passes the filter. Author wins when both are set.
func (f Active) Match(p *topic.Post) bool {
	switch {
	case f.Author != "":
		return p.Author == f.Author
	case f.Tag != "":
		return p.HasTag(f.Tag)
	}
	return true
}

// Apply returns the posts passing f in their original order. The input
// slice is not modified; the zero filter returns it unchanged.
func Apply(posts []*topic.Post, f Active) []*topic.Post {
	if f.IsZero() {
		return posts
	}
	out := make([]*topic.Post, 0, len(posts))
	for _, p := range posts {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
