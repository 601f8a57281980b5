package reader

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ziadkadry99/topicreader/internal/export"
	"github.com/ziadkadry99/topicreader/internal/render"
	"github.com/ziadkadry99/topicreader/internal/session"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

func (rd *Reader) landing(w http.ResponseWriter, status int, d render.LandingData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.cfg.Renderer.Landing(w, d); err != nil {
		log.Printf("reader: rendering landing page: %v", err)
	}
}

func (rd *Reader) handleLanding(w http.ResponseWriter, r *http.Request) {
	rd.landing(w, http.StatusOK, render.LandingData{})
}

// readUpload parses the multipart "topic" file of r.
func (rd *Reader) readUpload(w http.ResponseWriter, r *http.Request) (*topic.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rd.cfg.MaxUpload)
	file, header, err := r.FormFile("topic")
	if err != nil {
		return nil, fmt.Errorf("no topic file in upload: %w", err)
	}
	defer file.Close()
	return topic.Open(file, header.Filename)
}

func (rd *Reader) handleCreate(w http.ResponseWriter, r *http.Request) {
	doc, err := rd.readUpload(w, r)
	if err != nil {
		rd.landing(w, http.StatusBadRequest, render.LandingData{Error: err.Error()})
		return
	}
	s := rd.cfg.Sessions.Create(doc)
	log.Printf("reader: session %s loaded %s (%d posts)", s.ID, doc.FileName(), doc.Len())
	http.Redirect(w, r, "/sessions/"+s.ID, http.StatusSeeOther)
}

// handleLoad replaces the document of an existing session. A file that
// fails to parse leaves the current document in place.
func (rd *Reader) handleLoad(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, false)
	if !ok {
		return
	}
	doc, err := rd.readUpload(w, r)
	if err != nil {
		rd.landing(w, http.StatusBadRequest, render.LandingData{Error: err.Error(), SessionID: s.ID})
		return
	}
	s.Load(doc)
	log.Printf("reader: session %s reloaded %s (%d posts)", s.ID, doc.FileName(), doc.Len())
	http.Redirect(w, r, "/sessions/"+s.ID, http.StatusSeeOther)
}

// view builds the session view with the current AI availability.
func (rd *Reader) view(r *http.Request, s *session.Session) (session.View, string) {
	v := s.View()
	var msg string
	if rd.cfg.AI != nil {
		st := rd.cfg.AI.Status(r.Context())
		v.AIEnabled = st.AIEnabled
		msg = st.Message
	}
	return v, msg
}

func (rd *Reader) handlePage(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, false)
	if !ok {
		return
	}
	v, msg := rd.view(r, s)
	_, keyErr := rd.apiKey()
	d := render.PageData{
		View:          v,
		Provider:      rd.cfg.Provider,
		HasCredential: keyErr == nil,
		AIMessage:     msg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.cfg.Renderer.Page(w, d); err != nil {
		log.Printf("reader: rendering session %s: %v", s.ID, err)
	}
}

func (rd *Reader) handleView(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, true)
	if !ok {
		return
	}
	v, _ := rd.view(r, s)
	writeJSON(w, http.StatusOK, v)
}

// handleCommandForm applies a command posted from the page. Rejected
// commands become notices on the next render.
func (rd *Reader) handleCommandForm(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, false)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	var postID int64
	if raw := strings.TrimSpace(r.PostForm.Get("post_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.Notice(fmt.Sprintf("post_id %q is not a number", raw))
			http.Redirect(w, r, "/sessions/"+s.ID, http.StatusSeeOther)
			return
		}
		postID = id
	}
	target := "/sessions/" + s.ID
	cmd, err := session.ParseCommand(r.PostForm.Get("action"), r.PostForm.Get("value"), postID)
	if err == nil {
		err = s.Dispatch(cmd)
	}
	if err != nil {
		s.Notice(capitalize(err.Error()))
	} else if postID != 0 {
		if idx := s.Document().GlobalIndex(postID); idx > 0 {
			target += "#post-" + strconv.Itoa(idx)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// commandRequest is the JSON body of POST /api/sessions/{id}/commands.
type commandRequest struct {
	Action string `json:"action"`
	Value  string `json:"value"`
	PostID int64  `json:"post_id"`
}

func (rd *Reader) handleCommand(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, true)
	if !ok {
		return
	}
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd, err := session.ParseCommand(req.Action, req.Value, req.PostID)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.Dispatch(cmd); err != nil {
		writeError(w, commandStatus(err), err.Error())
		return
	}
	v, _ := rd.view(r, s)
	writeJSON(w, http.StatusOK, v)
}

func (rd *Reader) handleExport(w http.ResponseWriter, r *http.Request) {
	s, ok := rd.lookup(w, r, false)
	if !ok {
		return
	}
	doc := s.Document()
	data, err := export.Marshal(doc)
	if err != nil {
		log.Printf("reader: exporting session %s: %v", s.ID, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(doc.FileName())))
	w.Write(data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
