package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"convrev/internal/catalog"
	"convrev/internal/session"
)

// MCPDeps holds dependencies for the MCP server. The server drives a single
// local session over stdio; there is no session multiplexing.
type MCPDeps struct {
	Catalog *catalog.Catalog
	Session *session.Session
}

// NewMCPServer creates an MCP server exposing the review workflow as tools
// and resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"convrev",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("convrev — review generated conversations for cyberbullying presence and authenticity. Set a reviewer name before submitting."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("current_item",
			mcp.WithDescription("Return the conversation currently under review together with the session state."),
		),
		mcpCurrentItem(deps),
	)

	s.AddTool(
		mcp.NewTool("get_item",
			mcp.WithDescription("Fetch a conversation from the catalog by its id."),
			mcp.WithString("id", mcp.Description("Catalog item id"), mcp.Required()),
		),
		mcpGetItem(deps),
	)

	s.AddTool(
		mcp.NewTool("set_reviewer",
			mcp.WithDescription("Set the reviewer name for this session. Required before submitting reviews."),
			mcp.WithString("name", mcp.Description("Reviewer name"), mcp.Required()),
		),
		mcpSetReviewer(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_review",
			mcp.WithDescription("Submit a review for an item. Scores are on a 1-5 scale; out-of-range values are clamped. On success the session advances to the next unreviewed item."),
			mcp.WithString("item_id", mcp.Description("Catalog item id being reviewed"), mcp.Required()),
			mcp.WithNumber("cyberbullying_presence", mcp.Description("How clearly cyberbullying is present, 1 (absent) to 5 (severe)"), mcp.Required()),
			mcp.WithNumber("content_authenticity", mcp.Description("How authentic the conversation reads, 1 (artificial) to 5 (realistic)"), mcp.Required()),
			mcp.WithString("label", mcp.Description("Optional free-form label")),
			mcp.WithString("comments", mcp.Description("Optional reviewer comments")),
		),
		mcpSubmitReview(deps),
	)

	s.AddTool(
		mcp.NewTool("jump_to",
			mcp.WithDescription("Move the session to the item at the given zero-based index."),
			mcp.WithNumber("index", mcp.Description("Zero-based catalog index"), mcp.Required()),
		),
		mcpJumpTo(deps),
	)

	s.AddTool(
		mcp.NewTool("next_unreviewed",
			mcp.WithDescription("Advance to the next item the current reviewer has not rated yet."),
		),
		mcpNextUnreviewed(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"review://progress",
			"Review Progress",
			mcp.WithResourceDescription("Current session state and progress as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProgress(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"review://guide",
			"Review Guide",
			mcp.WithResourceDescription("Scoring rubric for conversation reviews"),
			mcp.WithMIMEType("text/markdown"),
		),
		mcpResourceGuide(),
	)

	return s
}

func mcpCurrentItem(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		item, state, ok := deps.Session.Current()
		if !ok {
			return mcpError("catalog is empty: nothing to review"), nil
		}

		b, err := json.Marshal(map[string]any{"state": state, "item": item})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal item: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetItem(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		item, ok := deps.Catalog.ByID(id)
		if !ok {
			return mcpError(fmt.Sprintf("item %q not found", id)), nil
		}

		b, err := json.Marshal(item)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal item: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetReviewer(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		state, err := deps.Session.SetReviewer(name)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to set reviewer: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Reviewer set to %s (%d/%d reviewed)", state.Reviewer, state.Reviewed, state.Total)), nil
	}
}

func mcpSubmitReview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		itemID, err := req.RequireString("item_id")
		if err != nil {
			return mcpError("item_id is required"), nil
		}

		payload := session.Payload{
			Presence:     clampScore(req.GetInt("cyberbullying_presence", 3)),
			Authenticity: clampScore(req.GetInt("content_authenticity", 3)),
			Label:        req.GetString("label", ""),
			Comments:     req.GetString("comments", ""),
		}

		result, err := deps.Session.Submit(ctx, itemID, payload)
		if errors.Is(err, session.ErrEmptyReviewer) {
			return mcpError("set a reviewer with set_reviewer before submitting"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save review: %v", err)), nil
		}

		if result.Complete {
			return mcpText(fmt.Sprintf("Saved review for %s. All %d items reviewed.", itemID, result.State.Total)), nil
		}
		return mcpText(fmt.Sprintf("Saved review for %s. Now at item %d of %d (%d reviewed).",
			itemID, result.State.Index+1, result.State.Total, result.State.Reviewed)), nil
	}
}

func mcpJumpTo(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := req.RequireInt("index")
		if err != nil {
			return mcpError("index is required"), nil
		}

		state, err := deps.Session.JumpTo(index)
		if errors.Is(err, session.ErrIndexOutOfRange) {
			return mcpError(fmt.Sprintf("index %d out of range (0-%d)", index, deps.Catalog.Len()-1)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("jump failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Now at item %d of %d", state.Index+1, state.Total)), nil
	}
}

func mcpNextUnreviewed(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state, err := deps.Session.NextUnreviewed()
		if errors.Is(err, session.ErrAllReviewed) {
			return mcpText("All items after the current position are already reviewed."), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("navigation failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Now at unreviewed item %d of %d", state.Index+1, state.Total)), nil
	}
}

func mcpResourceProgress(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		state := deps.Session.State()

		b, err := json.Marshal(map[string]any{
			"reviewer": state.Reviewer,
			"index":    state.Index,
			"total":    state.Total,
			"reviewed": state.Reviewed,
			"percent":  state.Percent(),
			"complete": state.Complete,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal progress: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

const reviewGuide = `# Review Guide

Score each conversation on two 1-5 scales.

## Cyberbullying presence
1. No bullying behavior at all
2. Mild teasing, could be read as friendly
3. Ambiguous hostility
4. Clear targeted bullying
5. Severe or sustained harassment

## Content authenticity
1. Obviously artificial, no one talks like this
2. Stilted phrasing, weak persona consistency
3. Plausible but generic
4. Natural tone with realistic detail
5. Indistinguishable from a real conversation

Use the label field for the dominant bullying type if it differs from the
catalog metadata, and comments for anything the scores cannot capture.
`

func mcpResourceGuide() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     reviewGuide,
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
