// Package render turns session views into HTML pages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/topicreader/internal/paginate"
	"github.com/ziadkadry99/topicreader/internal/session"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

var videoIDAttr = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// PageData is everything the reader page needs besides the view itself.
type PageData struct {
	View          session.View
	Provider      string // credential name the AI buttons use
	HasCredential bool
	AIMessage     string
}

// LandingData drives the upload page.
type LandingData struct {
	Error     string
	SessionID string // set when re-uploading into an existing session
}

type pageModel struct {
	PageData
	PageSize int
	Pages    []int
}

// Renderer holds parsed templates and the post sanitizer. It is safe for
// concurrent use.
type Renderer struct {
	page    *template.Template
	landing *template.Template
	posts   *bluemonday.Policy
	chat    *bluemonday.Policy
	md      goldmark.Markdown
}

// New parses the built-in templates.
func New() (*Renderer, error) {
	r := &Renderer{
		posts: postPolicy(),
		chat:  chatPolicy(),
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}

	funcs := template.FuncMap{
		"postHTML":    r.PostHTML,
		"turnHTML":    r.TurnHTML,
		"displayTime": func(p *topic.Post) string { return p.DisplayTime() },
		"isModel":     func(t topic.ChatTurn) bool { return t.Role == topic.RoleModel },
		"title":       Title,
	}

	var err error
	if r.page, err = template.New("page").Funcs(funcs).Parse(pageTemplate); err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	if r.landing, err = template.New("landing").Parse(landingTemplate); err != nil {
		return nil, fmt.Errorf("parsing landing template: %w", err)
	}
	return r, nil
}

// Page writes the reader page for d.
func (r *Renderer) Page(w io.Writer, d PageData) error {
	m := pageModel{PageData: d, PageSize: paginate.PageSize}
	for i := 1; i <= d.View.TotalPages; i++ {
		m.Pages = append(m.Pages, i)
	}
	return r.page.Execute(w, m)
}

// Landing writes the upload page.
func (r *Renderer) Landing(w io.Writer, d LandingData) error {
	return r.landing.Execute(w, d)
}

// PostHTML sanitizes an exported post body for display. Embedded YouTube
// placeholders keep their video id so the page script can expand them.
func (r *Renderer) PostHTML(raw string) template.HTML {
	return template.HTML(r.posts.Sanitize(raw))
}

// TurnHTML renders one chat turn. Model replies are Markdown; user turns
// are shown as plain text.
func (r *Renderer) TurnHTML(t topic.ChatTurn) template.HTML {
	if t.Role != topic.RoleModel {
		return template.HTML(template.HTMLEscapeString(t.Text()))
	}
	return r.Markdown(t.Text())
}

// Markdown converts model output to sanitized HTML.
func (r *Renderer) Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
	}
	return template.HTML(r.chat.SanitizeBytes(buf.Bytes()))
}

func postPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^youtube-placeholder$`)).OnElements("div")
	p.AllowAttrs("data-videoid").Matching(videoIDAttr).OnElements("div")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return p
}

func chatPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Highlighted code blocks carry inline colors.
	p.AllowAttrs("style").OnElements("pre", "span")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return p
}

// Title returns the document title shown in the browser tab.
func Title(v session.View) string {
	if t := strings.TrimSpace(v.Title); t != "" {
		return t
	}
	return "Untitled topic"
}
