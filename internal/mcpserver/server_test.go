package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/storage"
	"github.com/starford/daybook/internal/store"
	"github.com/starford/daybook/internal/testutil"
)

const scenarioDoc = "## 2024年1月15日 星期一\n\n" +
	"### 📝 笔记 (1)\n\n" +
	"#### 09:00 - 笔记 1\n" +
	"**标签:** #心情\n" +
	"今天很开心\n\n" +
	"### ✅ 待办 (1)\n\n" +
	"1. ⬜ 买牛奶\n"

func testServer(t *testing.T) (*Server, *store.DB, storage.Provider) {
	t.Helper()
	db := testutil.TestDB(t)
	_, exports := testutil.TestDir(t)
	svc := journalservice.NewService(db,
		journalservice.WithLocation(time.FixedZone("CST", 8*3600)),
		journalservice.WithLogger(testutil.Logger()),
		journalservice.WithClock(func() time.Time { return time.Date(2024, 1, 20, 2, 30, 0, 0, time.UTC) }),
	)
	return New(svc, exports), db, exports
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper; dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "export_journal":
		result, err = srv.exportJournal(ctx, req)
	case "import_journal":
		result, err = srv.importJournal(ctx, req)
	case "get_journal_format":
		result, err = srv.getJournalFormat(ctx, req)
	case "list_exports":
		result, err = srv.listExports(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestImportThenExport(t *testing.T) {
	srv, db, _ := testServer(t)

	r := callTool(t, srv, "import_journal", map[string]any{"content": scenarioDoc})
	if r.IsError {
		t.Fatalf("import error: %s", resultText(r))
	}
	var sum journalservice.ImportSummary
	if err := json.Unmarshal([]byte(resultText(r)), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Notes != 1 || sum.Todos != 1 || sum.Source != defaultImportName {
		t.Errorf("summary = %+v", sum)
	}

	notes, _ := db.AllNotes(context.Background())
	if len(notes) != 1 {
		t.Fatalf("stored notes = %d", len(notes))
	}

	r = callTool(t, srv, "export_journal", map[string]any{})
	text := resultText(r)
	for _, want := range []string{"## 2024年1月15日 星期一", "**标签:** #心情", "1. ⬜ 买牛奶"} {
		if !strings.Contains(text, want) {
			t.Errorf("export missing %q:\n%s", want, text)
		}
	}
}

func TestImportRejectsUnsupportedFilename(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "import_journal", map[string]any{
		"content":  scenarioDoc,
		"filename": "journal.docx",
	})
	if !r.IsError {
		t.Error("expected error for .docx source")
	}
}

func TestImportRequiresContent(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "import_journal", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing content")
	}
}

func TestExportSaveAndList(t *testing.T) {
	srv, _, exports := testServer(t)
	_ = callTool(t, srv, "import_journal", map[string]any{"content": scenarioDoc})

	r := callTool(t, srv, "export_journal", map[string]any{"query": "牛奶", "save": true})
	if r.IsError {
		t.Fatalf("save error: %s", resultText(r))
	}
	const name = "journal-牛奶-20240120-103000.md"
	if text := resultText(r); text != "saved: "+name+" (1 records)" {
		t.Errorf("save result = %q", text)
	}
	data, err := exports.Read(name)
	if err != nil {
		t.Fatalf("read saved export: %v", err)
	}
	if !strings.Contains(string(data), "买牛奶") {
		t.Errorf("saved export missing todo:\n%s", data)
	}

	r = callTool(t, srv, "list_exports", map[string]any{})
	if text := resultText(r); text != name {
		t.Errorf("list_exports = %q, want %q", text, name)
	}
}

func TestListExportsEmpty(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "list_exports", map[string]any{})
	if text := resultText(r); text != "no exports found" {
		t.Errorf("list_exports = %q", text)
	}
}

func TestGetJournalFormat(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_journal_format", map[string]any{})
	if !strings.Contains(resultText(r), "#### HH:MM - 笔记 N") {
		t.Error("format description missing note heading rule")
	}

	contents, err := srv.readJournalFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != JournalFormatURI || tc.Text != JournalFormat {
		t.Errorf("resource = %+v", contents[0])
	}
}
