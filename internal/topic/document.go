package topic

import (
	"io"
	"sync"
)

// DefaultFileName is used when a document has no known source file.
const DefaultFileName = "topic.json"

// Document is the canonical in-memory copy of a loaded topic. All user
// edits are applied to it directly, so its state is the export state.
// It is safe for concurrent use.
type Document struct {
	mu       sync.RWMutex
	topic    *Topic
	fileName string
	index    map[int64]int // post_id -> canonical position
}

// NewDocument takes ownership of t.
func NewDocument(t *Topic, fileName string) *Document {
	if fileName == "" {
		fileName = DefaultFileName
	}
	d := &Document{topic: t, fileName: fileName, index: make(map[int64]int, len(t.Posts))}
	for i, p := range t.Posts {
		d.index[p.ID] = i
	}
	return d
}

// Open parses r into a new document.
func Open(r io.Reader, fileName string) (*Document, error) {
	t, err := Load(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(t, fileName), nil
}

// FileName returns the name the document was loaded from.
func (d *Document) FileName() string { return d.fileName }

// Title returns the topic title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.topic.Title
}

// Len returns the number of posts in the canonical list.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.topic.Posts)
}

// Posts returns a copy of the canonical post list. The copies can be
// filtered and rendered while edits keep landing on the document.
func (d *Document) Posts() []*Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Post, len(d.topic.Posts))
	for i, p := range d.topic.Posts {
		out[i] = p.Clone()
	}
	return out
}

// Post returns a copy of the post with the given id.
func (d *Document) Post(id int64) (*Post, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return d.topic.Posts[i].Clone(), true
}

// GlobalIndex returns the 1-based canonical position of a post, or 0 when
// the id is unknown. Filtering and pagination never change it.
func (d *Document) GlobalIndex(id int64) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[id]
	if !ok {
		return 0
	}
	return i + 1
}

// PostAt returns a copy of the post at a 1-based global index.
func (d *Document) PostAt(index int) (*Post, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index < 1 || index > len(d.topic.Posts) {
		return nil, false
	}
	return d.topic.Posts[index-1].Clone(), true
}

// Snapshot returns a deep copy of the whole topic in its current state.
func (d *Document) Snapshot() *Topic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.topic.Clone()
}

// ApplyEdit applies e to the post with the given id. It reports false,
// and changes nothing, when no such post exists.
func (d *Document) ApplyEdit(id int64, e Edit) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.index[id]
	if !ok {
		return false
	}
	e.apply(d.topic.Posts[i])
	return true
}

// Authors returns the distinct post authors in order of first appearance.
func (d *Document) Authors() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range d.topic.Posts {
		if !seen[p.Author] {
			seen[p.Author] = true
			out = append(out, p.Author)
		}
	}
	return out
}

// Tags returns the distinct tags across all posts in order of first
// appearance.
func (d *Document) Tags() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range d.topic.Posts {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
