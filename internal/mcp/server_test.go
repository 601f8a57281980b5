package mcp

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

// testDocument builds a 60 post topic. Odd posts are by alice, even posts
// by bob; post 55 is tagged and annotated.
func testDocument(t *testing.T) *topic.Document {
	t.Helper()
	var posts []string
	for i := 1; i <= 60; i++ {
		author := "alice"
		if i%2 == 0 {
			author = "bob"
		}
		extra := ""
		if i == 55 {
			extra = `, "tags": ["roses"], "summary": "pruning advice", "is_highlighted": true,
				"chat_history": [{"role": "user", "parts": ["when?"]}, {"role": "model", "parts": ["in spring"]}]`
		}
		posts = append(posts, fmt.Sprintf(`{"post_id": %d, "author": %q, "post_time": "2024-03-01 10:00:00", "post_html": "<p>post number %d</p>"%s}`, 1000+i, author, i, extra))
	}
	data := `{"topic_title": "Garden club", "posts": [` + strings.Join(posts, ",") + `]}`
	tp, err := topic.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return topic.NewDocument(tp, "garden.json")
}

// extractText gets the text content from a CallToolResult.
func extractText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"get_topic", getTopicTool, "get_topic"},
		{"list_posts", listPostsTool, "list_posts"},
		{"get_post", getPostTool, "get_post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	doc := testDocument(t)
	srv := NewServer(doc)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.doc != doc {
		t.Error("document not set correctly")
	}
}

func TestHandleGetTopic(t *testing.T) {
	srv := NewServer(testDocument(t))

	result, err := srv.handleGetTopic(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := extractText(result)
	for _, want := range []string{"Topic: Garden club", "Posts: 60", "Pages: 2", "Highlighted: 1", "alice, bob", "Tags (1): roses"} {
		if !strings.Contains(text, want) {
			t.Errorf("overview missing %q:\n%s", want, text)
		}
	}
}

func TestHandleListPosts(t *testing.T) {
	srv := NewServer(testDocument(t))
	ctx := context.Background()

	call := func(args map[string]any) *mcp.CallToolResult {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = args
		result, err := srv.handleListPosts(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}

	t.Run("second page keeps global numbers", func(t *testing.T) {
		text := extractText(call(map[string]any{"page": float64(2)}))
		if !strings.HasPrefix(text, "Page 2 of 2 (60 posts)") {
			t.Errorf("unexpected heading: %q", strings.SplitN(text, "\n", 2)[0])
		}
		if !strings.Contains(text, "#51 (post_id 1051) by alice at 2024-03-01 10:00:00") {
			t.Errorf("missing first entry of page 2:\n%s", text)
		}
		if strings.Contains(text, "#50 ") {
			t.Error("page 2 contains a page 1 post")
		}
	})

	t.Run("author filter", func(t *testing.T) {
		text := extractText(call(map[string]any{"author": "bob"}))
		if !strings.Contains(text, "Page 1 of 1 (30 posts, author: bob)") {
			t.Errorf("unexpected heading:\n%s", text)
		}
		if strings.Contains(text, "by alice") {
			t.Error("author filter let alice through")
		}
		if !strings.Contains(text, "#60 (post_id 1060)") {
			t.Error("filtered list lost the canonical number")
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		text := extractText(call(map[string]any{"tag": "roses"}))
		if !strings.Contains(text, "#55 (post_id 1055)") || !strings.Contains(text, "Tags: roses") {
			t.Errorf("unexpected tag listing:\n%s", text)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		result := call(map[string]any{"tag": "tulips"})
		if result.IsError {
			t.Error("empty filter should not be an error")
		}
		if text := extractText(result); text != "No posts match tag: tulips." {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("page out of range", func(t *testing.T) {
		result := call(map[string]any{"page": float64(3)})
		if !result.IsError {
			t.Fatal("expected error for page 3")
		}
		if text := extractText(result); !strings.Contains(text, "valid pages are 1-2") {
			t.Errorf("text = %q", text)
		}
	})
}

func TestHandleGetPost(t *testing.T) {
	srv := NewServer(testDocument(t))
	ctx := context.Background()

	t.Run("annotated post", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"index": float64(55)}
		result, err := srv.handleGetPost(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := extractText(result)
		for _, want := range []string{"#55 (post_id 1055) by alice", "Summary: pruning advice", "post number 55", "user: when?", "model: in spring"} {
			if !strings.Contains(text, want) {
				t.Errorf("post missing %q:\n%s", want, text)
			}
		}
	})

	t.Run("missing index", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}
		result, err := srv.handleGetPost(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing index")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"index": float64(61)}
		result, err := srv.handleGetPost(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for index 61")
		}
		if text := extractText(result); !strings.Contains(text, "valid posts are 1-60") {
			t.Errorf("text = %q", text)
		}
	})
}
