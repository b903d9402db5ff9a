package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dmitrijs2005/afterlog/internal/client/app"
	"github.com/dmitrijs2005/afterlog/internal/client/localstore"
	"github.com/dmitrijs2005/afterlog/internal/client/remote"
	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/models"
	"github.com/dmitrijs2005/afterlog/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

// capture swaps printlnFn for a buffer of plain text lines.
func capture(t *testing.T) *strings.Builder {
	t.Helper()
	var out strings.Builder
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		s := ansi.Strip(fmt.Sprintln(a...))
		out.WriteString(s)
		return len(s), nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func stubInputs(t *testing.T, email, password string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return email, nil }
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type harness struct {
	app   *App
	mem   *remote.Memory
	clock *clockx.Fake
}

func newHarness(t *testing.T, lines ...string) *harness {
	t.Helper()
	ctx := context.Background()
	clock := clockx.NewFake(t0)
	store, err := localstore.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mem := remote.NewMemory(clock)
	ctrl := app.New(mem, store, clock, app.Options{})
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	return &harness{app: NewApp(ctrl, in, 80, 0), mem: mem, clock: clock}
}

func TestRun_JournalAndTodos(t *testing.T) {
	out := capture(t)
	stubInputs(t, "ann@example.com", "secret1")

	h := newHarness(t,
		"help",
		"write hello",
		"signup",
		"write walked   by the river",
		"save",
		"tab todo",
		"todo add call mom @2026-10-16",
		"todo add buy milk",
		"todo done 2",
		"todo rm 1",
		"undo",
		"todo rm x",
		"frobnicate",
		"quit",
	)
	h.app.Run(context.Background())

	text := out.String()
	assert.Contains(t, text, helpSignedOut)
	assert.Contains(t, text, "Please log in first.")
	assert.Contains(t, text, "Usage: todo rm <n>")
	assert.Contains(t, text, "Unknown command: frobnicate")
	assert.Contains(t, text, "Bye!")
	assert.Contains(t, text, "afterlog (ann@example.com Synced)> ")

	rows := h.mem.Rows(models.CollectionJournal)
	require.Len(t, rows, 1)
	assert.Equal(t, "walked   by the river", rows[0].String(models.ColContent))

	todos := h.mem.Rows(models.CollectionTodos)
	require.Len(t, todos, 2)
	assert.Equal(t, 0, h.mem.Calls(rpc.MethodDelete), "undo kept the task")
	assert.Regexp(t, `call mom\s+Today`, text)
	assert.Contains(t, text, "[x] buy milk")
}

func TestRun_QuickCaptureAndLogout(t *testing.T) {
	out := capture(t)
	stubInputs(t, "", "secret1")

	h := newHarness(t,
		"login ann@example.com",
		"auth signup",
		"signup ann@example.com",
		"quick journal",
		"qsave",
		"qsave a quick line",
		"quick todo",
		"qadd water plants @2026-10-18",
		"export",
		"theme",
		"recent next",
		"recent sideways",
		"logout",
	)
	h.app.Run(context.Background())

	text := out.String()
	assert.Contains(t, text, "Couldn’t verify. Check email/password.")
	assert.Contains(t, text, "Nothing to save.")
	assert.Contains(t, text, "memory://exports/")
	assert.Contains(t, text, "Usage: recent next|prev")
	assert.Contains(t, text, "Signed out.")

	require.Len(t, h.mem.Rows(models.CollectionJournal), 1)
	todos := h.mem.Rows(models.CollectionTodos)
	require.Len(t, todos, 1)
	assert.Equal(t, "2026-10-18", todos[0].String(models.ColDueDate))
	assert.Nil(t, h.mem.CurrentSession())
}

// lineReader hands out one line per Read and runs onLine before handing
// out line i.
type lineReader struct {
	lines  []string
	next   int
	onLine func(i int)
}

func (r *lineReader) Read(p []byte) (int, error) {
	if r.next >= len(r.lines) {
		return 0, io.EOF
	}
	if r.onLine != nil {
		r.onLine(r.next)
	}
	n := copy(p, r.lines[r.next]+"\n")
	r.next++
	return n, nil
}

func TestRun_StopsWhenContextCancelled(t *testing.T) {
	out := capture(t)
	stubInputs(t, "ann@example.com", "secret1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &lineReader{
		lines: []string{"signup", "save first line", "save second line", "quit"},
		onLine: func(i int) {
			if i == 2 {
				cancel()
			}
		},
	}
	h := newHarness(t)
	h.app.reader = bufio.NewReader(in)
	h.app.Run(ctx)

	rows := h.mem.Rows(models.CollectionJournal)
	require.Len(t, rows, 1)
	assert.Equal(t, "first line", rows[0].String(models.ColContent))
	assert.NotContains(t, out.String(), "Bye!")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	capture(t)
	stubInputs(t, "ann@example.com", "secret1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t, "signup", "save too late", "quit")
	h.app.Run(ctx)

	assert.Equal(t, 0, h.mem.Calls(rpc.MethodSignUp))
	assert.Empty(t, h.mem.Rows(models.CollectionJournal))
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line, cmd, rest string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"show", "show", ""},
		{"write  two  spaces ", "write", "two  spaces"},
		{"todo\tadd milk", "todo", "add milk"},
	}
	for _, tc := range tests {
		cmd, rest := splitCommand(tc.line)
		assert.Equal(t, tc.cmd, cmd, tc.line)
		assert.Equal(t, tc.rest, rest, tc.line)
	}
}

func TestSplitDue(t *testing.T) {
	tests := []struct {
		in, text, due string
	}{
		{"buy milk", "buy milk", ""},
		{"buy milk @2026-10-20", "buy milk", "2026-10-20"},
		{"@2026-10-20", "", "2026-10-20"},
		{"email bob @ work", "email bob @ work", ""},
		{"ping @bob later", "ping @bob later", ""},
	}
	for _, tc := range tests {
		text, due := splitDue(tc.in)
		assert.Equal(t, tc.text, text, tc.in)
		assert.Equal(t, tc.due, due, tc.in)
	}
}

func TestRun_ExportSave(t *testing.T) {
	out := capture(t)
	stubInputs(t, "ann@example.com", "secret1")
	t.Chdir(t.TempDir())

	var gotURL string
	orig := downloadFn
	downloadFn = func(_ context.Context, url string) ([]byte, error) {
		gotURL = url
		return []byte(`{"entries":[],"todos":[]}`), nil
	}
	t.Cleanup(func() { downloadFn = orig })

	h := newHarness(t, "signup", "export save", "export later", "exit")
	h.app.Run(context.Background())

	text := out.String()
	assert.True(t, strings.HasPrefix(gotURL, "memory://exports/"), gotURL)
	assert.Contains(t, text, "Archive saved to")
	assert.Contains(t, text, "Usage: export [save]")
	assert.Equal(t, 1, h.mem.Calls(rpc.MethodExport))
}
