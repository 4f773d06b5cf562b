package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hyperjump/tansaku/internal/models"
)

func searchContentTool() mcp.Tool {
	return mcp.NewTool("search_content",
		mcp.WithDescription("Semantic search over stored content, with query expansion and summaries"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text search query")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (0-100, default 10)")),
		mcp.WithString("category_filter", mcp.Description("Only return content in this category")),
		mcp.WithString("difficulty_filter", mcp.Description("Only return content with this difficulty"),
			mcp.Enum(models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
		mcp.WithNumber("min_similarity", mcp.Description("Minimum similarity score in [-1, 1] (default 0)")),
		mcp.WithBoolean("disable_expansion", mcp.Description("Search the query text alone")),
	)
}

func getContentTool() mcp.Tool {
	return mcp.NewTool("get_content",
		mcp.WithDescription("Fetch a content item by id"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Content id")),
	)
}

func addContentTool() mcp.Tool {
	return mcp.NewTool("add_content",
		mcp.WithDescription("Add a content item; it is embedded and becomes searchable"),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("content", mcp.Required(), mcp.Description("Body text")),
		mcp.WithString("category", mcp.Required()),
		mcp.WithString("difficulty", mcp.Required(),
			mcp.Enum(models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
		mcp.WithNumber("read_time", mcp.Required(), mcp.Description("Reading time in minutes")),
		mcp.WithString("author"),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("created_at", mcp.Description("YYYY-MM-DD; defaults to today")),
	)
}

func findSimilarTool() mcp.Tool {
	return mcp.NewTool("find_similar",
		mcp.WithDescription("Find content similar to an existing item"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Content id")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 5)")),
	)
}

func contentStatsTool() mcp.Tool {
	return mcp.NewTool("content_stats",
		mcp.WithDescription("Content counts by category and search statistics"),
	)
}

func suggestQueriesTool() mcp.Tool {
	return mcp.NewTool("suggest_queries",
		mcp.WithDescription("Suggest related queries and classify the query's intent"),
		mcp.WithString("query", mcp.Required()),
	)
}
