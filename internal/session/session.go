// Package session holds the per-tab reader state (loaded document, active
// filter, current page) and applies user commands to it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ziadkadry99/topicreader/internal/filter"
	"github.com/ziadkadry99/topicreader/internal/paginate"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

var (
	// ErrUnknownPost is returned for commands naming a post_id the loaded
	// document does not contain.
	ErrUnknownPost = errors.New("no such post")

	// ErrBusy is returned when a request of the same kind is already
	// pending for a post.
	ErrBusy = errors.New("a request for this post is already in progress")

	// ErrStale is returned for commands issued against a document that has
	// since been replaced by a new load.
	ErrStale = errors.New("the topic was reloaded; reopen the page")
)

// Kind identifies a network-backed per-post action.
type Kind string

const (
	KindSummarize Kind = "summarize"
	KindChat      Kind = "chat"
)

type requestKey struct {
	postID int64
	kind   Kind
}

// Session is one reader tab. A session exists only once a document has been
// loaded; loading again replaces the document and resets navigation.
type Session struct {
	ID string

	mu       sync.Mutex
	doc      *topic.Document
	gen      uint64
	filter   filter.Active
	page     int
	focus    int
	notices  []string
	inflight map[requestKey]bool
	lastUsed time.Time
}

// New returns a session showing doc from page 1 with no filter.
func New(id string, doc *topic.Document) *Session {
	s := &Session{ID: id}
	s.Load(doc)
	return s
}

// Load replaces the session's document wholesale. Pending requests against
// the previous document complete as no-ops.
func (s *Session) Load(doc *topic.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.gen++
	s.filter = filter.Active{}
	s.page = 1
	s.focus = 0
	s.notices = nil
	s.inflight = make(map[requestKey]bool)
	s.lastUsed = time.Now()
}

// Document returns the loaded document.
func (s *Session) Document() *topic.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Filter returns the active filter.
func (s *Session) Filter() filter.Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Page returns the current page number.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Notice queues a message for the next view.
func (s *Session) Notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// visible returns the filtered list and the total page count. Callers hold mu.
func (s *Session) visible() ([]*topic.Post, int) {
	posts := filter.Apply(s.doc.Posts(), s.filter)
	return posts, paginate.TotalPages(len(posts), paginate.PageSize)
}

// Dispatch applies cmd. Range errors leave the session unchanged.
func (s *Session) Dispatch(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(cmd)
}

// Generation identifies the loaded document. It changes on every Load.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// DispatchFor applies cmd only while the document of generation gen is
// still loaded, and returns ErrStale otherwise.
func (s *Session) DispatchFor(gen uint64, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStale
	}
	return s.dispatch(cmd)
}

// dispatch applies cmd. Callers hold mu.
func (s *Session) dispatch(cmd Command) error {
	s.lastUsed = time.Now()

	switch c := cmd.(type) {
	case FirstPage:
		return s.move(paginate.First)
	case PrevPage:
		return s.move(paginate.Prev)
	case NextPage:
		return s.move(paginate.Next)
	case LastPage:
		return s.move(paginate.Last)
	case GoToPage:
		_, total := s.visible()
		if err := paginate.CheckPage(c.N, total); err != nil {
			return err
		}
		s.page = c.N
	case JumpToPost:
		page, err := paginate.PageForIndex(c.Index, s.doc.Len(), paginate.PageSize)
		if err != nil {
			return err
		}
		if !s.filter.IsZero() {
			s.notices = append(s.notices, fmt.Sprintf("Filter (%s) cleared so post numbers match the full topic.", s.filter.Label()))
			s.filter = filter.Active{}
		}
		s.page = page
		s.focus = c.Index
	case FilterByAuthor:
		s.filter = filter.ByAuthor(c.Author)
		s.page = 1
	case FilterByTag:
		s.filter = filter.ByTag(c.Tag)
		s.page = 1
	case ClearFilter:
		s.filter = filter.Active{}
		s.page = 1
	case ToggleHighlight:
		return s.edit(c.PostID, topic.ToggleHighlight{})
	case AddTag:
		return s.edit(c.PostID, topic.AddTag{Tag: c.Tag})
	case EditSummary:
		return s.edit(c.PostID, topic.SetSummary{Text: c.Text})
	case ToggleAIMark:
		return s.edit(c.PostID, topic.ToggleAISummarize{})
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

func (s *Session) move(m paginate.Move) error {
	_, total := s.visible()
	page, err := paginate.Navigate(s.page, total, m)
	if err != nil {
		return err
	}
	s.page = page
	return nil
}

func (s *Session) edit(postID int64, e topic.Edit) error {
	if !s.doc.ApplyEdit(postID, e) {
		return fmt.Errorf("post %d: %w", postID, ErrUnknownPost)
	}
	return nil
}

// Ticket identifies one pending network-backed request.
type Ticket struct {
	PostID int64
	Kind   Kind
	gen    uint64
}

// BeginRequest marks a request of kind as pending for a post. Requests for
// different posts, or of different kinds, are independent.
func (s *Session) BeginRequest(postID int64, kind Kind) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.GlobalIndex(postID) == 0 {
		return Ticket{}, fmt.Errorf("post %d: %w", postID, ErrUnknownPost)
	}
	key := requestKey{postID: postID, kind: kind}
	if s.inflight[key] {
		return Ticket{}, ErrBusy
	}
	s.inflight[key] = true
	s.lastUsed = time.Now()
	return Ticket{PostID: postID, Kind: kind, gen: s.gen}, nil
}

// Finish ends the request and, when e is non-nil, applies it to the post.
// A ticket issued before the document was replaced changes nothing. It
// reports whether e was applied.
func (s *Session) Finish(t Ticket, e topic.Edit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen {
		return false
	}
	delete(s.inflight, requestKey{postID: t.PostID, kind: t.Kind})
	if e == nil {
		return false
	}
	return s.doc.ApplyEdit(t.PostID, e)
}

// Busy reports whether a request of kind is pending for a post.
func (s *Session) Busy(postID int64, kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[requestKey{postID: postID, kind: kind}]
}
