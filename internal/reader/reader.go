// Package reader serves the topic reader: uploading a topic, browsing its
// pages, annotating posts and exporting the edited document.
package reader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/render"
	"github.com/ziadkadry99/topicreader/internal/session"
)

// DefaultMaxUpload bounds the size of an uploaded topic file.
const DefaultMaxUpload = 64 << 20

// KeySource resolves the API key for a provider. An empty result means no
// key is configured.
type KeySource interface {
	Get(name string) string
}

// Config wires a Reader.
type Config struct {
	Sessions  *session.Manager
	Renderer  *render.Renderer
	AI        ai.Service
	Keys      KeySource
	Provider  string        // credential name passed to Keys
	NeedsKey  bool          // whether AI calls require a key
	MaxUpload int64         // bytes, DefaultMaxUpload when zero
	Timeout   time.Duration // per AI request, none when zero
}

// Reader is the HTTP front end over a session manager.
type Reader struct {
	cfg Config
}

// New creates a Reader.
func New(cfg Config) *Reader {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Reader{cfg: cfg}
}

// RegisterRoutes mounts the reader pages, its JSON API and the live
// summary websocket.
func (rd *Reader) RegisterRoutes(r chi.Router) {
	r.Get("/", rd.handleLanding)
	r.Get("/static/reader.css", serveAsset("text/css; charset=utf-8", render.StyleCSS))
	r.Get("/static/reader.js", serveAsset("application/javascript; charset=utf-8", render.Script))

	r.Post("/sessions", rd.handleCreate)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", rd.handlePage)
		r.Post("/load", rd.handleLoad)
		r.Post("/commands", rd.handleCommandForm)
		r.Get("/export", rd.handleExport)
	})

	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", rd.handleView)
		r.Post("/commands", rd.handleCommand)
		r.Post("/posts/{postID}/summarize", rd.handleSummarize)
		r.Post("/posts/{postID}/chat", rd.handleChat)
	})

	r.Get("/ws/sessions/{id}", rd.handleWebSocket)
}

func serveAsset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// lookup resolves the {id} session, writing a 404 when it is gone.
func (rd *Reader) lookup(w http.ResponseWriter, r *http.Request, asJSON bool) (*session.Session, bool) {
	s, ok := rd.cfg.Sessions.Get(chi.URLParam(r, "id"))
	if ok {
		return s, true
	}
	if asJSON {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	rd.landing(w, http.StatusNotFound, render.LandingData{Error: "this reading session has expired, open the file again"})
	return nil, false
}

func postIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
}

// apiKey returns the key AI calls should use.
func (rd *Reader) apiKey() (string, error) {
	var key string
	if rd.cfg.Keys != nil {
		key = rd.cfg.Keys.Get(rd.cfg.Provider)
	}
	if key == "" && rd.cfg.NeedsKey {
		return "", ai.ErrMissingCredential
	}
	return key, nil
}

// aiContext derives the context of an AI call from a request. It keeps the
// request's values but not its cancellation: a completion still lands on
// the session after the page that asked for it has navigated away.
func (rd *Reader) aiContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if rd.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, rd.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// commandStatus maps a dispatch error to its JSON status code.
func commandStatus(err error) int {
	if errors.Is(err, session.ErrUnknownPost) {
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}
