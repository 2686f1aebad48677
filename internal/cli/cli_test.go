package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/remote/remotetest"
)

var seed = []model.Item{
	{ID: 1, Text: "Memorize a poem", Completed: true, OwnerID: 13},
	{ID: 2, Text: "Watch a classic movie", OwnerID: 68},
}

type harness struct {
	t    *testing.T
	srv  *remotetest.Server
	home string

	interactive bool
	prompt      func(context.Context, model.Draft) (model.Draft, error)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, srv: remotetest.New(t, seed...), home: t.TempDir()}
	t.Setenv("HOME", h.home)
	t.Setenv("TODOSYNC_API_BASE_URL", h.srv.URL)
	return h
}

// run executes one todo invocation with colors off.
func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.interactive = func() bool { return h.interactive }
	if h.prompt != nil {
		a.prompt = h.prompt
	}
	code = a.run(context.Background(), append([]string{"--no-color"}, args...))
	return code, out.String(), errOut.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, out, errOut := h.run(args...)
	if code != ExitOK {
		h.t.Fatalf("todo %v exited %d\nstdout:\n%s\nstderr:\n%s", args, code, out, errOut)
	}
	return out
}

func count(calls []string, call string) int {
	n := 0
	for _, c := range calls {
		if c == call {
			n++
		}
	}
	return n
}

func TestLs_BootstrapsOnceThenUsesCache(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("ls")
	for _, want := range []string{" 1. ", "Memorize a poem", " 2. ", "Watch a classic movie #2 @68"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}

	h.mustRun("ls")
	if n := count(h.srv.Calls(), "GET /todos"); n != 1 {
		t.Errorf("GET /todos called %d times, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(h.home, ".todosync", "todos.db")); err != nil {
		t.Errorf("sqlite cache not created: %v", err)
	}
}

func TestLs_SearchAndGroup(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("ls", "--search", "MOVIE")
	if strings.Contains(out, "Memorize") || !strings.Contains(out, " 2. ") {
		t.Errorf("search output:\n%s", out)
	}

	out = h.mustRun("ls", "--group")
	pending, done := strings.Index(out, "Pending"), strings.Index(out, "Done")
	poem, movie := strings.Index(out, "Memorize"), strings.Index(out, "Watch")
	if !(pending < movie && movie < done && done < poem) {
		t.Errorf("grouped output out of order:\n%s", out)
	}
}

func TestAdd(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("add", "--user", "5", "Buy", "milk"); !strings.Contains(out, "added #256") {
		t.Errorf("add output = %q", out)
	}
	if out := h.mustRun("ls"); !strings.Contains(out, " 3. ") || !strings.Contains(out, "Buy milk #256 @5") {
		t.Errorf("ls after add:\n%s", out)
	}
	if n := count(h.srv.Calls(), "POST /todos/add"); n != 1 {
		t.Errorf("POST /todos/add called %d times, want 1", n)
	}
}

func TestAdd_Offline(t *testing.T) {
	h := newHarness(t)
	h.mustRun("ls")
	h.srv.FailWith(http.MethodPost, http.StatusBadGateway)

	code, out, errOut := h.run("add", "--done", "Offline", "item")
	if code != ExitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "added #256") || !strings.Contains(errOut, "server unreachable") {
		t.Errorf("stdout %q stderr %q", out, errOut)
	}
	if out := h.mustRun("ls"); !strings.Contains(out, "Offline item #256 @1") {
		t.Errorf("offline item not kept:\n%s", out)
	}
}

func TestAdd_Form(t *testing.T) {
	h := newHarness(t)
	h.interactive = true
	h.prompt = func(_ context.Context, d model.Draft) (model.Draft, error) {
		if d.OwnerID != 1 {
			t.Errorf("form started with owner %d, want 1", d.OwnerID)
		}
		return model.Draft{Text: "From the form", OwnerID: 3}, nil
	}

	h.mustRun("add")
	if out := h.mustRun("ls"); !strings.Contains(out, "From the form #256 @3") {
		t.Errorf("ls after form add:\n%s", out)
	}
}

func TestDoneEditRm(t *testing.T) {
	h := newHarness(t)
	h.mustRun("ls")

	if out := h.mustRun("done", "2"); !strings.Contains(out, "toggled #2") {
		t.Errorf("done output = %q", out)
	}
	if out := h.mustRun("edit", "1", "--text", "Memorize two poems", "--user", "7"); !strings.Contains(out, "updated #1") {
		t.Errorf("edit output = %q", out)
	}
	if out := h.mustRun("rm", "2"); !strings.Contains(out, "removed #2") {
		t.Errorf("rm output = %q", out)
	}

	out := h.mustRun("ls")
	if !strings.Contains(out, "Memorize two poems #1 @7") || strings.Contains(out, "Watch") {
		t.Errorf("ls after changes:\n%s", out)
	}
	calls := h.srv.Calls()
	for _, want := range []string{"PUT /todos/2", "PUT /todos/1", "DELETE /todos/2"} {
		if !slices.Contains(calls, want) {
			t.Errorf("calls %v missing %q", calls, want)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"unknown subcommand", []string{"frobnicate"}, "unknown subcommand: frobnicate"},
		{"unknown flag", []string{"ls", "--bogus"}, "unknown flag"},
		{"not a number", []string{"rm", "two"}, "not a number: two"},
		{"out of range", []string{"done", "9"}, "index out of range: have 2, got 9"},
		{"missing index", []string{"rm"}, "usage: todo rm <index>"},
		{"add without text", []string{"add"}, "usage: todo add <text...>"},
		{"add blank text", []string{"add", "  "}, model.ErrEmptyText.Error()},
		{"edit nothing", []string{"edit", "1"}, "usage: todo edit"},
		{"edit blank text", []string{"edit", "1", "--text", " "}, model.ErrEmptyText.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			code, _, errOut := h.run(tt.args...)
			if code != ExitUsage {
				t.Errorf("exit = %d, want %d", code, ExitUsage)
			}
			if !strings.Contains(errOut, tt.stderr) {
				t.Errorf("stderr = %q, want %q", errOut, tt.stderr)
			}
		})
	}
}

func TestOutOfRangeHint(t *testing.T) {
	h := newHarness(t)
	_, _, errOut := h.run("rm", "0")
	if !strings.Contains(errOut, "Hint: run `todo ls` to see valid indexes") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("--backend", "realm", "ls")
	if code != ExitError || !strings.Contains(errOut, "store.backend") {
		t.Errorf("exit %d stderr %q", code, errOut)
	}
}

func TestJSONBackend(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.home, "cache", "todos.json")

	h.mustRun("--backend", "json", "--store", path, "add", "Buy milk")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("json cache not written: %v", err)
	}
	if !strings.Contains(string(data), `"todo": "Buy milk"`) {
		t.Errorf("json cache = %s", data)
	}
	if out := h.mustRun("--backend", "json", "--store", path, "status"); !strings.Contains(out, "Todos:   3") {
		t.Errorf("status output:\n%s", out)
	}
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.mustRun("ls")

	out := h.mustRun("status")
	for _, want := range []string{h.srv.URL, "todos.db (sqlite)", "Todos:   2"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShow(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("config", "show", "--theme", "neon")
	for _, want := range []string{`base_url = "` + h.srv.URL + `"`, `theme = "neon"`, `backend = "sqlite"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}
