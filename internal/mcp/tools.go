package mcp

import "github.com/mark3labs/mcp-go/mcp"

var openToolDef = mcp.NewTool("review_open",
	mcp.WithDescription("Open (or resume) a review session over a directory of media files. Progress persists across sessions; reopening the same catalog resumes where the last run left off."),
	mcp.WithString("root",
		mcp.Required(),
		mcp.Description("Directory to review. Scanned recursively for supported media files."),
	),
)

var currentToolDef = mcp.NewTool("review_current",
	mcp.WithDescription("Return the item under review: identifier, decoded geometry, quality tier, and session position."),
	mcp.WithBoolean("thumbnail",
		mcp.Description("Resolve a reduced preview through the thumbnail cache tier instead of the buffered full-resolution content."),
	),
)

var acceptToolDef = mcp.NewTool("review_accept",
	mcp.WithDescription("Keep the item under review and advance to the next one."),
)

var rejectToolDef = mcp.NewTool("review_reject",
	mcp.WithDescription("Mark the item under review for deferred deletion and advance. Deletion is committed in batches; nothing is removed until a flush."),
)

var decideToolDef = mcp.NewTool("review_decide",
	mcp.WithDescription("Record a decision for an item at a specific buffered window position. Position 0 is the item under review; other positions decide ahead without advancing."),
	mcp.WithNumber("position",
		mcp.Description("Window position to decide, 0-based. Defaults to 0."),
	),
	mcp.WithString("decision",
		mcp.Required(),
		mcp.Description("One of: accept, reject."),
	),
)

var undoToolDef = mcp.NewTool("review_undo",
	mcp.WithDescription("Reverse the most recent decision still in history. Undoing a reject restores the item to its window position and retracts its pending deletion."),
)

var flushToolDef = mcp.NewTool("review_flush",
	mcp.WithDescription("Commit the pending-deletion batch now instead of waiting for an automatic trigger."),
)

var statusToolDef = mcp.NewTool("review_status",
	mcp.WithDescription("Report the session state: cursor, totals, counters, window depth, pending deletions."),
)

var resetToolDef = mcp.NewTool("review_reset",
	mcp.WithDescription("Discard saved progress and restart the session at the head of the catalog. Pending deletions are kept."),
)
