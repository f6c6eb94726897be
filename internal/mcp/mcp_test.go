package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpx/cull/internal/config"
	"github.com/hpx/cull/internal/db"
)

// testSetup creates a temporary database, config, and handlers for testing.
func testSetup(t *testing.T) *Handlers {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewHandlers(database, config.DefaultConfig())
}

// catalogDir writes n small PNGs into a fresh directory.
func catalogDir(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		path := filepath.Join(root, fmt.Sprintf("img-%02d.png", i))
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
			t.Fatalf("png encode failed: %v", err)
		}
		f.Close()
	}
	return root
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON unmarshals a tool result's text payload.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

// errorCode extracts the structured code from an error result.
func errorCode(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	obj, ok := resultJSON(t, res)["error"].(map[string]any)
	if !ok {
		t.Fatal("error result has no error object")
	}
	code, _ := obj["code"].(string)
	return code
}

func openSession(t *testing.T, h *Handlers, root string) map[string]any {
	t.Helper()
	res, err := h.HandleOpen(context.Background(), makeRequest(map[string]any{"root": root}))
	if err != nil {
		t.Fatalf("HandleOpen failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleOpen returned error result: %v", resultJSON(t, res))
	}
	return resultJSON(t, res)
}

func TestHandleOpen_StartsSession(t *testing.T) {
	h := testSetup(t)

	status := openSession(t, h, catalogDir(t, 3))
	if status["total"] != float64(3) {
		t.Errorf("total = %v, want 3", status["total"])
	}
	if status["cursor"] != float64(0) {
		t.Errorf("cursor = %v, want 0", status["cursor"])
	}
	if status["session_id"] == "" {
		t.Error("session_id should be set")
	}
}

func TestHandleOpen_MissingRoot(t *testing.T) {
	h := testSetup(t)

	res, err := h.HandleOpen(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleOpen failed: %v", err)
	}
	if code := errorCode(t, res); code != "INVALID_REQUEST" {
		t.Errorf("code = %s, want INVALID_REQUEST", code)
	}
}

func TestTools_RequireOpenSession(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	calls := map[string]func() (*mcp.CallToolResult, error){
		"review_accept": func() (*mcp.CallToolResult, error) { return h.HandleAccept(ctx, makeRequest(nil)) },
		"review_status": func() (*mcp.CallToolResult, error) { return h.HandleStatus(ctx, makeRequest(nil)) },
		"review_undo":   func() (*mcp.CallToolResult, error) { return h.HandleUndo(ctx, makeRequest(nil)) },
		"review_flush":  func() (*mcp.CallToolResult, error) { return h.HandleFlush(ctx, makeRequest(nil)) },
	}
	for name, call := range calls {
		res, err := call()
		if err != nil {
			t.Fatalf("%s failed: %v", name, err)
		}
		if code := errorCode(t, res); code != "INVALID_REQUEST" {
			t.Errorf("%s without a session: code = %s, want INVALID_REQUEST", name, code)
		}
	}
}

func TestAcceptRejectFlushFlow(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	root := catalogDir(t, 3)
	openSession(t, h, root)

	res, err := h.HandleAccept(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleAccept failed: err=%v isError=%v", err, res.IsError)
	}
	out := resultJSON(t, res)
	if out["id"] != "img-00.png" || out["accepted"] != float64(1) {
		t.Errorf("accept output = %v", out)
	}

	res, err = h.HandleReject(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleReject failed: err=%v isError=%v", err, res.IsError)
	}
	out = resultJSON(t, res)
	if out["id"] != "img-01.png" || out["rejected"] != float64(1) {
		t.Errorf("reject output = %v", out)
	}
	if out["pending_deletes"] != float64(1) {
		t.Errorf("pending_deletes = %v, want 1", out["pending_deletes"])
	}

	res, err = h.HandleFlush(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleFlush failed: err=%v isError=%v", err, res.IsError)
	}
	if _, err := os.Stat(filepath.Join(root, "img-01.png")); !os.IsNotExist(err) {
		t.Error("rejected file should have been moved to trash on flush")
	}

	status, err := h.HandleStatus(ctx, makeRequest(nil))
	if err != nil || status.IsError {
		t.Fatalf("HandleStatus failed: err=%v", err)
	}
	out = resultJSON(t, status)
	if out["accepted"] != float64(1) || out["rejected"] != float64(1) {
		t.Errorf("status counters = %v", out)
	}
	if out["pending_deletes"] != float64(0) {
		t.Errorf("pending_deletes after flush = %v, want 0", out["pending_deletes"])
	}
}

func TestHandleDecide_InvalidDecision(t *testing.T) {
	h := testSetup(t)
	openSession(t, h, catalogDir(t, 2))

	res, err := h.HandleDecide(context.Background(), makeRequest(map[string]any{"decision": "maybe"}))
	if err != nil {
		t.Fatalf("HandleDecide failed: %v", err)
	}
	if code := errorCode(t, res); code != "INVALID_REQUEST" {
		t.Errorf("code = %s, want INVALID_REQUEST", code)
	}
}

func TestHandleCurrent_FullAndThumbnail(t *testing.T) {
	h := testSetup(t)
	openSession(t, h, catalogDir(t, 2))
	ctx := context.Background()

	res, err := h.HandleCurrent(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleCurrent failed: err=%v", err)
	}
	out := resultJSON(t, res)
	if out["id"] != "img-00.png" || out["quality"] != "full" {
		t.Errorf("current = %v", out)
	}

	res, err = h.HandleCurrent(ctx, makeRequest(map[string]any{"thumbnail": true}))
	if err != nil || res.IsError {
		t.Fatalf("HandleCurrent(thumbnail) failed: err=%v", err)
	}
	out = resultJSON(t, res)
	if out["id"] != "img-00.png" {
		t.Errorf("thumbnail current = %v", out)
	}
	if out["width"] != float64(4) || out["height"] != float64(4) {
		t.Errorf("thumbnail geometry = %vx%v, want 4x4", out["width"], out["height"])
	}
}

func TestHandleUndo_RestoresReject(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	openSession(t, h, catalogDir(t, 3))

	if res, err := h.HandleReject(ctx, makeRequest(nil)); err != nil || res.IsError {
		t.Fatalf("HandleReject failed: err=%v", err)
	}

	res, err := h.HandleUndo(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleUndo failed: err=%v", err)
	}
	out := resultJSON(t, res)
	if out["undone"] != true || out["id"] != "img-00.png" {
		t.Errorf("undo output = %v", out)
	}
	if out["pending_deletes"] != float64(0) {
		t.Errorf("pending_deletes after undo = %v, want 0", out["pending_deletes"])
	}

	cur, err := h.HandleCurrent(ctx, makeRequest(nil))
	if err != nil || cur.IsError {
		t.Fatalf("HandleCurrent failed: err=%v", err)
	}
	if id := resultJSON(t, cur)["id"]; id != "img-00.png" {
		t.Errorf("current after undo = %v, want img-00.png", id)
	}
}

func TestHandleReset_RestartsAtHead(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	openSession(t, h, catalogDir(t, 3))

	if res, err := h.HandleAccept(ctx, makeRequest(nil)); err != nil || res.IsError {
		t.Fatalf("HandleAccept failed: err=%v", err)
	}

	res, err := h.HandleReset(ctx, makeRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("HandleReset failed: err=%v", err)
	}
	out := resultJSON(t, res)
	if out["cursor"] != float64(0) || out["accepted"] != float64(0) {
		t.Errorf("status after reset = %v", out)
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"review_accept", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

func TestNewServer_SkipsDisabledTools(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"review_reset"}

	if s := NewServer(database, cfg, "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
