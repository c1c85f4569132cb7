package mcp

import "github.com/mark3labs/mcp-go/mcp"

// handleMessageTool defines the handle_message MCP tool.
var handleMessageTool = mcp.NewTool("handle_message",
	mcp.WithDescription("Process a user message through the full resolution pipeline. Returns a new_query, resolved, or ask_clarification outcome as JSON. When the host has just presented multiple options for a query, pass them along so ambiguity is handled."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session identifier"),
	),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The user's message text"),
	),
	mcp.WithString("options",
		mcp.Description("JSON array of candidate option objects the message chooses between"),
	),
	mcp.WithString("original_query",
		mcp.Description("The query that produced the options, echoed back in resolved outcomes"),
	),
)

// resolveSelectionTool defines the resolve_selection MCP tool.
var resolveSelectionTool = mcp.NewTool("resolve_selection",
	mcp.WithDescription("Match a user's reply against a list of presented options using numeric, ordinal, phrase, and name strategies. English and Tagalog ordinals are understood."),
	mcp.WithString("input",
		mcp.Required(),
		mcp.Description("The user's reply text"),
	),
	mcp.WithString("options",
		mcp.Required(),
		mcp.Description("JSON array of option objects to choose between"),
	),
	mcp.WithString("display_field",
		mcp.Description("Option field holding the display text (default \"name\")"),
	),
)

// detectReferenceTool defines the detect_reference MCP tool.
var detectReferenceTool = mcp.NewTool("detect_reference",
	mcp.WithDescription("Check whether a message refers back to an earlier conversation turn. Returns the detected intent (ordinal, temporal, relative, or topical) or reports that none was found."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The message text to inspect"),
	),
)

// addTurnTool defines the add_turn MCP tool.
var addTurnTool = mcp.NewTool("add_turn",
	mcp.WithDescription("Record a completed query/response exchange into the session history so later references can find it."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session identifier"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The user's query text"),
	),
	mcp.WithString("response",
		mcp.Required(),
		mcp.Description("The assistant's response text"),
	),
)

// listTurnsTool defines the list_turns MCP tool.
var listTurnsTool = mcp.NewTool("list_turns",
	mcp.WithDescription("List the recorded turns of a session in order."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session identifier"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of turns to return (default all)"),
	),
)

// getSessionStateTool defines the get_session_state MCP tool.
var getSessionStateTool = mcp.NewTool("get_session_state",
	mcp.WithDescription("Get the pending clarification state of a session, if any."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session identifier"),
	),
)

// clearSessionStateTool defines the clear_session_state MCP tool.
var clearSessionStateTool = mcp.NewTool("clear_session_state",
	mcp.WithDescription("Abandon the pending clarification of a session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation session identifier"),
	),
)
