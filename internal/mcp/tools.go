package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getTopicTool defines the get_topic MCP tool.
var getTopicTool = mcp.NewTool("get_topic",
	mcp.WithDescription("Get an overview of the loaded topic: title, post count, page count, authors and tags."),
)

// listPostsTool defines the list_posts MCP tool.
var listPostsTool = mcp.NewTool("list_posts",
	mcp.WithDescription("List one page of posts (50 per page), optionally restricted to one author or one tag. Each entry shows its position in the whole topic."),
	mcp.WithNumber("page",
		mcp.Description("Page number, starting at 1 (default 1)"),
	),
	mcp.WithString("author",
		mcp.Description("Only posts by this author (exact match)"),
	),
	mcp.WithString("tag",
		mcp.Description("Only posts carrying this tag (exact match). Ignored when author is set."),
	),
)

// getPostTool defines the get_post MCP tool.
var getPostTool = mcp.NewTool("get_post",
	mcp.WithDescription("Get one post in full, including its summary, tags and AI chat transcript."),
	mcp.WithNumber("index",
		mcp.Required(),
		mcp.Description("1-based position of the post in the whole topic"),
	),
)
