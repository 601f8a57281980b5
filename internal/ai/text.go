package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// MinSummaryRunes is the shortest plain text worth summarizing.
	MinSummaryRunes = 20
	// MaxPromptRunes caps how much post text is sent to the model.
	MaxPromptRunes = 2000

	// ShortContentSummary is returned instead of calling the model for
	// posts below MinSummaryRunes.
	ShortContentSummary = "(Content too short to summarize.)"
)

var youtubeRe = regexp.MustCompile(`https?://(?:www\.)?youtu(?:be\.com/(?:watch\?v=|embed/)|\.be/)([a-zA-Z0-9_-]{11})`)

var videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

func parseHTML(postHTML string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(postHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing post html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// PlainText extracts the visible text of a post body: every text node,
// trimmed, joined by single spaces.
func PlainText(postHTML string) string {
	doc, err := parseHTML(postHTML)
	if err != nil {
		return strings.Join(strings.Fields(postHTML), " ")
	}
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// VideoID returns the first YouTube video referenced by a post, either as
// a link or as a lazy-load placeholder.
func VideoID(postHTML string) (string, bool) {
	if m := youtubeRe.FindStringSubmatch(postHTML); m != nil {
		return m[1], true
	}
	doc, err := parseHTML(postHTML)
	if err != nil {
		return "", false
	}
	id, ok := doc.Find(".youtube-placeholder[data-videoid]").First().Attr("data-videoid")
	if ok && videoIDRe.MatchString(id) {
		return id, true
	}
	return "", false
}

func summaryPrompt(text string) string {
	return "Write an objective summary of about 50-100 words of the following forum post. " +
		"Answer in the language the post is written in.\n\n---\n" + Truncate(text, MaxPromptRunes) + "\n---"
}

func videoSummaryPrompt(v *Video, text string) string {
	var b strings.Builder
	b.WriteString("The following forum post shares a YouTube video. Write an objective summary of about 50-100 words ")
	b.WriteString("describing what the video is and what the poster says about it. Answer in the language the post is written in.\n\n")
	fmt.Fprintf(&b, "Video title: %s\nChannel: %s\n", v.Title, v.Author)
	if text != "" {
		b.WriteString("\n---\n" + Truncate(text, MaxPromptRunes) + "\n---")
	}
	return b.String()
}

// ChatContext builds the context message for a chat about a post: its
// title and summary, or the start of its text when it has no summary.
func ChatContext(title, summary, postHTML string) string {
	body := strings.TrimSpace(summary)
	if body == "" {
		body = Truncate(PlainText(postHTML), MaxPromptRunes)
	}
	return fmt.Sprintf("This conversation is about the forum post %q. Post content:\n%s", title, body)
}
