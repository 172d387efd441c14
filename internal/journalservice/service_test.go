package journalservice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/journalservice"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/store"
	"github.com/starford/daybook/internal/testutil"
)

var _ journalservice.Repository = (*store.DB)(nil)

var cst = time.FixedZone("CST", 8*3600)

const scenarioDoc = "## 2024年1月15日 星期一\n\n" +
	"### 📝 笔记 (1)\n\n" +
	"#### 09:00 - 笔记 1\n" +
	"**标签:** #心情\n" +
	"今天很开心\n\n" +
	"### ✅ 待办 (1)\n\n" +
	"1. ⬜ 买牛奶\n" +
	"   **截止日期:** 2024-01-16\n"

func newService(t *testing.T, repo journalservice.Repository, opts ...journalservice.Option) *journalservice.Service {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 1, 20, 2, 30, 0, 0, time.UTC) }
	base := []journalservice.Option{
		journalservice.WithLocation(cst),
		journalservice.WithLogger(testutil.Logger()),
		journalservice.WithClock(clock),
	}
	return journalservice.NewService(repo, append(base, opts...)...)
}

func TestImportScenario(t *testing.T) {
	db := testutil.TestDB(t)
	rec := &testutil.Recorder{}
	svc := newService(t, db, journalservice.WithNotifier(rec))
	ctx := context.Background()

	sum, err := svc.Import(ctx, "journal.md", []byte(scenarioDoc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := &journalservice.ImportSummary{Source: "journal.md", Notes: 1, Todos: 1}
	if diff := cmp.Diff(want, sum, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}

	notes, _ := db.AllNotes(ctx)
	if len(notes) != 1 || notes[0].Content != "今天很开心" {
		t.Fatalf("notes = %+v", notes)
	}
	if !notes[0].CreatedAt.Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, cst)) {
		t.Errorf("created_at = %v", notes[0].CreatedAt)
	}
	todos, _ := db.AllTodosByDate(ctx)
	got := todos[models.NewDate(2024, 1, 15)]
	if len(got) != 1 || got[0].Content != "买牛奶" || got[0].DueDate == nil {
		t.Errorf("todos = %+v", todos)
	}

	if diff := cmp.Diff([]string{journalservice.EventImported}, rec.Kinds); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestImportRejectsUnsupportedExtension(t *testing.T) {
	svc := newService(t, testutil.TestDB(t))
	_, err := svc.Import(context.Background(), "journal.docx", []byte(scenarioDoc))
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestImportAcceptsAllJournalExtensions(t *testing.T) {
	for _, name := range []string{"a.md", "b.markdown", "c.TXT"} {
		svc := newService(t, testutil.TestDB(t))
		if _, err := svc.Import(context.Background(), name, []byte(scenarioDoc)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestImportRejectsInvalidUTF8(t *testing.T) {
	svc := newService(t, testutil.TestDB(t))
	_, err := svc.Import(context.Background(), "bad.md", []byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Errorf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestImportCountsPerRecordFailures(t *testing.T) {
	db := testutil.TestDB(t)
	svc := newService(t, db)
	doc := "## 2024-01-15\n### ✅ 待办\n1. ⬜ 有内容\n2. ⬜\n3. ✅ 也有内容\n"

	sum, err := svc.Import(context.Background(), "", []byte(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Todos != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 2 todos and 1 failure", sum)
	}
	if len(sum.Errors) != 1 || !strings.Contains(sum.Errors[0], "todo") {
		t.Errorf("errors = %v", sum.Errors)
	}
}

// failingRepo fails note creation for one specific content.
type failingRepo struct {
	*store.DB
	failContent string
}

func (r *failingRepo) CreateNote(ctx context.Context, content string, tags []string, createdAt time.Time) (*models.Note, error) {
	if content == r.failContent {
		return nil, errors.New("disk full")
	}
	return r.DB.CreateNote(ctx, content, tags, createdAt)
}

func TestImportContinuesAfterStoreError(t *testing.T) {
	repo := &failingRepo{DB: testutil.TestDB(t), failContent: "坏的"}
	svc := newService(t, repo)
	doc := "## 2024-01-15\n### 📝 笔记\n#### 08:00 - 笔记 1\n坏的\n\n#### 09:00 - 笔记 2\n好的\n"

	sum, err := svc.Import(context.Background(), "x.md", []byte(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Notes != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	notes, _ := repo.AllNotes(context.Background())
	if len(notes) != 1 || notes[0].Content != "好的" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestImportReportsDroppedItems(t *testing.T) {
	svc := newService(t, testutil.TestDB(t))
	doc := "## 不是日期\n### ✅ 待办\n1. ⬜ a\n2. ⬜ b\n## 2024-01-15\n### ✅ 待办\n1. ⬜ c\n"

	sum, err := svc.Import(context.Background(), "x.md", []byte(doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Todos != 1 || sum.Dropped != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if diff := cmp.Diff([]string{"不是日期"}, sum.BadHeadings); diff != "" {
		t.Errorf("bad headings (-want +got):\n%s", diff)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.TestDB(t)
	svc := newService(t, src)

	day := models.NewDate(2024, 1, 15)
	due := models.NewDate(2024, 1, 16)
	_, _ = src.CreateNote(ctx, "早上跑步", []string{"运动"}, time.Date(2024, 1, 15, 7, 0, 0, 0, cst))
	_, _ = src.CreateNote(ctx, "跨年", nil, time.Date(2023, 12, 31, 23, 59, 0, 0, cst))
	_, _ = src.AddTodo(ctx, day, models.Todo{Content: "买牛奶", Tags: []string{"购物"}, DueDate: &due})
	_, _ = src.AddTodo(ctx, day, models.Todo{Content: "洗衣服", Completed: true})
	_, _ = src.AddSchedule(ctx, day, models.Schedule{Title: "周会", Time: "10:00", Type: models.ScheduleMeeting})

	exp, err := svc.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Records != 5 {
		t.Errorf("records = %d, want 5", exp.Records)
	}
	if exp.Filename != "journal-20240120-103000.md" {
		t.Errorf("filename = %q", exp.Filename)
	}
	if exp.Checksum == "" {
		t.Error("expected checksum")
	}

	dst := testutil.TestDB(t)
	sum, err := newService(t, dst).Import(ctx, exp.Filename, exp.Content)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if sum.Succeeded() != 5 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	again, err := newService(t, dst).Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if diff := cmp.Diff(string(exp.Content), string(again.Content)); diff != "" {
		t.Errorf("re-export differs (-first +second):\n%s", diff)
	}
}

func TestExportChecksumIgnoresGenerationTime(t *testing.T) {
	ctx := context.Background()
	db := testutil.TestDB(t)

	tick := time.Date(2024, 1, 20, 2, 30, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	svc := newService(t, db, journalservice.WithClock(clock))
	_, _ = db.CreateNote(ctx, "早上跑步", nil, time.Date(2024, 1, 15, 7, 0, 0, 0, cst))

	first, err := svc.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := svc.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(first.Content) == string(second.Content) {
		t.Fatal("expected the generation time to differ between exports")
	}
	if first.Checksum != second.Checksum {
		t.Errorf("checksum changed with the clock: %s != %s", first.Checksum, second.Checksum)
	}

	_, _ = db.CreateNote(ctx, "午饭", nil, time.Date(2024, 1, 15, 12, 0, 0, 0, cst))
	third, err := svc.Export(ctx, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if third.Checksum == second.Checksum {
		t.Error("checksum did not change with the data")
	}
}

func TestScopedExport(t *testing.T) {
	ctx := context.Background()
	db := testutil.TestDB(t)
	rec := &testutil.Recorder{}
	svc := newService(t, db, journalservice.WithNotifier(rec))

	_, _ = db.CreateNote(ctx, "项目 A 进展", nil, time.Date(2024, 1, 15, 9, 0, 0, 0, cst))
	_, _ = db.CreateNote(ctx, "午饭", nil, time.Date(2024, 1, 15, 12, 0, 0, 0, cst))
	_, _ = db.AddTodo(ctx, models.NewDate(2024, 1, 15), models.Todo{Content: "项目 A 评审"})

	exp, err := svc.Export(ctx, "项目 A")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Filename != "journal-项目_A-20240120-103000.md" {
		t.Errorf("filename = %q", exp.Filename)
	}
	res := journal.Parse(string(exp.Content), journal.WithLocation(cst), journal.WithLogger(testutil.Logger()))
	if len(res.Notes) != 1 || len(res.Todos) != 1 {
		t.Errorf("scoped export carried %d notes, %d todos", len(res.Notes), len(res.Todos))
	}
	if len(rec.Kinds) != 1 || rec.Kinds[0] != journalservice.EventExported {
		t.Errorf("events = %v", rec.Kinds)
	}
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	cases := map[string]string{
		"":           "journal-20240305-070809.md",
		"工作":         "journal-工作-20240305-070809.md",
		" a/b:c ":    "journal-a_b_c-20240305-070809.md",
		"../secret":  "journal-secret-20240305-070809.md",
		"what?*<>|\"": "journal-what-20240305-070809.md",
	}
	for query, want := range cases {
		if got := journalservice.ExportFilename(query, at); got != want {
			t.Errorf("ExportFilename(%q) = %q, want %q", query, got, want)
		}
	}
}
