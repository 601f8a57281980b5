package session

import (
	"github.com/ziadkadry99/topicreader/internal/filter"
	"github.com/ziadkadry99/topicreader/internal/paginate"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// View is a snapshot of what a session shows. It is built fresh from the
// document on every call, so it always reflects the latest edits.
type View struct {
	SessionID     string        `json:"session_id"`
	Title         string        `json:"topic_title"`
	FileName      string        `json:"file_name"`
	Filter        filter.Active `json:"filter"`
	Page          int           `json:"page"`
	TotalPages    int           `json:"total_pages"`
	TotalPosts    int           `json:"total_posts"`
	FilteredPosts int           `json:"filtered_posts"`
	Posts         []PostView    `json:"posts"`
	Focus         int           `json:"focus,omitempty"`
	Notices       []string      `json:"notices,omitempty"`
	Authors       []string      `json:"authors"`
	Tags          []string      `json:"tags"`
	AIEnabled     bool          `json:"ai_enabled"`
}

// Empty reports whether the current page has nothing to show.
func (v View) Empty() bool { return len(v.Posts) == 0 }

// PostView is one post on the current page.
type PostView struct {
	Index       int         `json:"index"` // 1-based position in the full topic
	Post        *topic.Post `json:"post"`
	Summarizing bool        `json:"summarizing"`
	Chatting    bool        `json:"chatting"`
}

// View renders the current page. Pending notices and the jump focus are
// handed out once and then cleared.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.doc.Posts()
	index := make(map[int64]int, len(all))
	for i, p := range all {
		index[p.ID] = i + 1
	}
	visible := filter.Apply(all, s.filter)
	total := paginate.TotalPages(len(visible), paginate.PageSize)
	if s.page > total {
		s.page = total
	}
	page, _ := paginate.Slice(visible, s.page, paginate.PageSize)

	v := View{
		SessionID:     s.ID,
		Title:         s.doc.Title(),
		FileName:      s.doc.FileName(),
		Filter:        s.filter,
		Page:          page.Number,
		TotalPages:    page.TotalPages,
		TotalPosts:    len(all),
		FilteredPosts: len(visible),
		Posts:         make([]PostView, 0, len(page.Items)),
		Focus:         s.focus,
		Notices:       s.notices,
		Authors:       s.doc.Authors(),
		Tags:          s.doc.Tags(),
	}
	for _, p := range page.Items {
		v.Posts = append(v.Posts, PostView{
			Index:       index[p.ID],
			Post:        p,
			Summarizing: s.inflight[requestKey{postID: p.ID, kind: KindSummarize}],
			Chatting:    s.inflight[requestKey{postID: p.ID, kind: KindChat}],
		})
	}
	s.notices = nil
	s.focus = 0
	return v
}
