package mcp

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/history"
	"github.com/exsess/exsess/internal/restore"
	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/shell"
	"github.com/exsess/exsess/internal/store"
)

// fakeEnumerator returns a fixed live window set.
type fakeEnumerator struct {
	records []shell.WindowRecord
}

func (f *fakeEnumerator) Enumerate() ([]shell.WindowRecord, error) {
	return f.records, nil
}

type fakeLauncher struct{}

func (fakeLauncher) Launch(string) error { return nil }

type fakePositioner struct{}

func (fakePositioner) Apply(uintptr, session.Rect, session.ShowState) error { return nil }

// testSetup builds handlers backed by a temp store and history database.
func testSetup(t *testing.T, enum shell.Enumerator) *Handlers {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()

	st, err := store.New(tmpDir, enum, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}

	historyDB, err := history.Init(tmpDir)
	if err != nil {
		t.Fatalf("history.Init failed: %v", err)
	}
	t.Cleanup(func() { historyDB.Close() })

	engine := restore.New(enum, fakeLauncher{}, fakePositioner{}, zerolog.Nop())

	return NewHandlers(st, engine, historyDB, cfg, zerolog.Nop())
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"session_save", "capsule_store", "session_list"})
	if !reflect.DeepEqual(unknown, []string{"capsule_store"}) {
		t.Errorf("unknown = %v, want [capsule_store]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 7 {
		t.Errorf("len = %d, want 7", len(names))
	}
}

func TestDecode(t *testing.T) {
	req := makeRequest(map[string]any{"key": "work", "path": `C:\a`})

	input, err := decode[RemovePathRequest](req)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if input.Key != "work" || input.Path != `C:\a` {
		t.Errorf("decoded = %+v", input)
	}
}

func TestDecode_BadShapeIsInvalidRequest(t *testing.T) {
	req := makeRequest(map[string]any{"key": []any{"not", "a", "string"}})

	_, err := decode[RemovePathRequest](req)
	if err == nil {
		t.Fatal("decode should fail for mismatched argument types")
	}
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestHandleSave_AndList(t *testing.T) {
	h := testSetup(t, &fakeEnumerator{records: []shell.WindowRecord{
		{Path: `C:\a`, Handle: 1},
		{Path: `C:\b`, Handle: 2},
	}})

	res, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"name": "work"}))
	if err != nil {
		t.Fatalf("HandleSave failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleSave returned error result: %s", resultText(t, res))
	}

	var saved struct {
		Key     string          `json:"key"`
		Summary session.Summary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &saved); err != nil {
		t.Fatalf("unmarshal save result: %v", err)
	}
	if saved.Key != "work" || saved.Summary.WindowCount != 2 {
		t.Errorf("save result = %+v", saved)
	}

	res, err = h.HandleList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleList failed: %v", err)
	}
	if !strings.Contains(resultText(t, res), `"key":"work"`) {
		t.Errorf("list result missing saved session: %s", resultText(t, res))
	}
}

func TestHandleRestore_NotFound(t *testing.T) {
	h := testSetup(t, &fakeEnumerator{})

	res, err := h.HandleRestore(context.Background(), makeRequest(map[string]any{"key": "missing"}))
	if err != nil {
		t.Fatalf("HandleRestore failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("HandleRestore should return an error result for a missing key")
	}
	if !strings.Contains(resultText(t, res), "NOT_FOUND") {
		t.Errorf("error result = %s, want NOT_FOUND code", resultText(t, res))
	}
}

func TestHandleRestore_RecordsHistory(t *testing.T) {
	enum := &fakeEnumerator{records: []shell.WindowRecord{{Path: `C:\a`, Handle: 1}}}
	h := testSetup(t, enum)

	if _, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"name": "work"})); err != nil {
		t.Fatalf("HandleSave failed: %v", err)
	}

	res, err := h.HandleRestore(context.Background(), makeRequest(map[string]any{
		"key":             "work",
		"open_timeout_ms": 0,
	}))
	if err != nil {
		t.Fatalf("HandleRestore failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleRestore returned error result: %s", resultText(t, res))
	}

	var restored RestoreResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &restored); err != nil {
		t.Fatalf("unmarshal restore result: %v", err)
	}
	if restored.Restored != 1 || restored.Skipped != 0 {
		t.Errorf("restore = (%d, %d), want (1, 0)", restored.Restored, restored.Skipped)
	}
	if restored.PassID == "" {
		t.Error("restore should record a history pass")
	}

	histRes, err := h.HandleHistory(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleHistory failed: %v", err)
	}
	if !strings.Contains(resultText(t, histRes), restored.PassID) {
		t.Errorf("history result missing pass %s", restored.PassID)
	}
}

func TestHandleRestore_HistoryWriteFailureNonFatal(t *testing.T) {
	enum := &fakeEnumerator{records: []shell.WindowRecord{{Path: `C:\a`, Handle: 1}}}
	h := testSetup(t, enum)

	if _, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"name": "work"})); err != nil {
		t.Fatalf("HandleSave failed: %v", err)
	}

	// A dead history database must only cost the pass id, never the restore.
	h.historyDB.Close()

	res, err := h.HandleRestore(context.Background(), makeRequest(map[string]any{"key": "work"}))
	if err != nil {
		t.Fatalf("HandleRestore failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleRestore returned error result: %s", resultText(t, res))
	}

	var restored RestoreResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &restored); err != nil {
		t.Fatalf("unmarshal restore result: %v", err)
	}
	if restored.Restored != 1 {
		t.Errorf("restored = %d, want 1", restored.Restored)
	}
	if restored.PassID != "" {
		t.Errorf("pass_id = %q, want empty when history write fails", restored.PassID)
	}
}

func TestHandleAddPath_RejectsBadRect(t *testing.T) {
	enum := &fakeEnumerator{records: []shell.WindowRecord{{Path: `C:\a`, Handle: 1}}}
	h := testSetup(t, enum)

	if _, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"name": "work"})); err != nil {
		t.Fatalf("HandleSave failed: %v", err)
	}

	res, err := h.HandleAddPath(context.Background(), makeRequest(map[string]any{
		"key":  "work",
		"path": `C:\new`,
		"rect": []any{1, 2, 3},
	}))
	if err != nil {
		t.Fatalf("HandleAddPath failed: %v", err)
	}
	if !res.IsError {
		t.Error("HandleAddPath should reject a 3-element rect")
	}
}

func TestHandleRemovePath_LastPath(t *testing.T) {
	enum := &fakeEnumerator{records: []shell.WindowRecord{{Path: `C:\only`, Handle: 1}}}
	h := testSetup(t, enum)

	if _, err := h.HandleSave(context.Background(), makeRequest(map[string]any{"name": "solo"})); err != nil {
		t.Fatalf("HandleSave failed: %v", err)
	}

	res, err := h.HandleRemovePath(context.Background(), makeRequest(map[string]any{
		"key":  "solo",
		"path": `C:\only`,
	}))
	if err != nil {
		t.Fatalf("HandleRemovePath failed: %v", err)
	}

	var out struct {
		SessionRemains bool `json:"session_remains"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal remove result: %v", err)
	}
	if out.SessionRemains {
		t.Error("removing the last path should report session_remains=false")
	}
}
