package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/filter"
	"github.com/ziadkadry99/topicreader/internal/paginate"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// excerptRunes bounds the body text shown per post in list_posts.
const excerptRunes = 200

// handleGetTopic returns an overview of the loaded topic.
func (s *Server) handleGetTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := s.doc.Title()
	if title == "" {
		title = "Untitled topic"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", title)
	if name := s.doc.FileName(); name != "" {
		fmt.Fprintf(&sb, "File: %s\n", name)
	}
	fmt.Fprintf(&sb, "Posts: %d\n", s.doc.Len())
	fmt.Fprintf(&sb, "Pages: %d (%d posts per page)\n", paginate.TotalPages(s.doc.Len(), paginate.PageSize), paginate.PageSize)

	highlighted, summarized := 0, 0
	for _, p := range s.doc.Posts() {
		if p.Highlighted {
			highlighted++
		}
		if strings.TrimSpace(p.Summary) != "" {
			summarized++
		}
	}
	fmt.Fprintf(&sb, "Highlighted: %d\n", highlighted)
	fmt.Fprintf(&sb, "Summarized: %d\n", summarized)

	writeList(&sb, "Authors", s.doc.Authors())
	writeList(&sb, "Tags", s.doc.Tags())

	return mcp.NewToolResultText(sb.String()), nil
}

// handleListPosts returns one page of the filtered post list.
func (s *Server) handleListPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := request.GetInt("page", 1)

	var active filter.Active
	if author := strings.TrimSpace(request.GetString("author", "")); author != "" {
		active = filter.ByAuthor(author)
	} else if tag := strings.TrimSpace(request.GetString("tag", "")); tag != "" {
		active = filter.ByTag(tag)
	}

	visible := filter.Apply(s.doc.Posts(), active)
	if len(visible) == 0 {
		if active.IsZero() {
			return mcp.NewToolResultText("The topic has no posts."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("No posts match %s.", active.Label())), nil
	}

	p, err := paginate.Slice(visible, page, paginate.PageSize)
	if err != nil {
		var re *paginate.RangeError
		if errors.As(err, &re) {
			return mcp.NewToolResultError(fmt.Sprintf("page %d does not exist; valid pages are %d-%d", re.Requested, re.Min, re.Max)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Page %d of %d (%d posts", p.Number, p.TotalPages, p.TotalItems)
	if !active.IsZero() {
		fmt.Fprintf(&sb, ", %s", active.Label())
	}
	sb.WriteString("):\n")
	for _, post := range p.Items {
		sb.WriteString("\n")
		writeHeader(&sb, s.doc.GlobalIndex(post.ID), post)
		if excerpt := ai.Truncate(ai.PlainText(post.HTML), excerptRunes); excerpt != "" {
			sb.WriteString(excerpt)
			sb.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetPost returns one post by its position in the whole topic.
func (s *Server) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := request.GetInt("index", 0)
	if index == 0 {
		return mcp.NewToolResultError("missing required parameter: index"), nil
	}
	post, ok := s.doc.PostAt(index)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("post %d does not exist; valid posts are 1-%d", index, s.doc.Len())), nil
	}

	var sb strings.Builder
	writeHeader(&sb, index, post)
	if post.URL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", post.URL)
	}
	if post.Highlighted {
		sb.WriteString("Highlighted: yes\n")
	}
	if strings.TrimSpace(post.Summary) != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", post.Summary)
	}

	sb.WriteString("\n")
	sb.WriteString(ai.PlainText(post.HTML))
	sb.WriteString("\n")

	if len(post.ChatHistory) > 0 {
		sb.WriteString("\n--- Chat ---\n")
		for _, turn := range post.ChatHistory {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Text())
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func writeHeader(sb *strings.Builder, index int, p *topic.Post) {
	fmt.Fprintf(sb, "#%d (post_id %d) by %s", index, p.ID, p.Author)
	if t := p.DisplayTime(); t != "" && t != "null" {
		fmt.Fprintf(sb, " at %s", t)
	}
	sb.WriteString("\n")
	if p.Title != "" {
		fmt.Fprintf(sb, "Title: %s\n", p.Title)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(sb, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "%s: none\n", label)
		return
	}
	fmt.Fprintf(sb, "%s (%d): %s\n", label, len(items), strings.Join(items, ", "))
}
