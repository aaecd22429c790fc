package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conorfennell/revisit/internal/domain"
)

type cli struct {
	t   *testing.T
	db  string
	now time.Time
}

func newCLI(t *testing.T) *cli {
	t.Chdir(t.TempDir())
	return &cli{t: t, db: filepath.Join(t.TempDir(), "revisit.db"), now: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(Options{Out: &out, Err: &errOut, Now: func() time.Time { return c.now }})
	root.SetArgs(append([]string{"--db", c.db, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("revisit %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (c *cli) export() []domain.ReviewItem {
	c.t.Helper()
	var items []domain.ReviewItem
	if err := json.Unmarshal([]byte(c.mustRun("export")), &items); err != nil {
		c.t.Fatalf("decoding export: %v", err)
	}
	return items
}

func TestReviewCycle(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("add", "Proof of Lemma 2", "--document", "paper.pdf", "--page", "4")
	if !strings.Contains(out, "due 2024-01-11 (Tomorrow)") {
		t.Errorf("Unexpected add output %q", out)
	}
	items := c.export()
	if len(items) != 1 {
		t.Fatalf("Expected 1 persisted item, but got %d", len(items))
	}
	id := items[0].ID

	if out := c.mustRun("due"); !strings.Contains(out, "Nothing due") {
		t.Errorf("Expected nothing due on the day of adding, got %q", out)
	}

	c.now = c.now.AddDate(0, 0, 1)
	if out := c.mustRun("due"); !strings.Contains(out, id) {
		t.Errorf("Expected %s to be due tomorrow, got %q", id, out)
	}

	out = c.mustRun("review", id)
	if !strings.Contains(out, "next review 2024-01-14 (In 3 days)") {
		t.Errorf("Unexpected review output %q", out)
	}

	c.mustRun("review", id)
	out = c.mustRun("review", id)
	if !strings.Contains(out, "removed from the list") {
		t.Errorf("Expected a week item to be removed, got %q", out)
	}
	if items := c.export(); len(items) != 0 {
		t.Errorf("Expected an empty list after the last review, but got %d items", len(items))
	}
}

func TestCompleteAndDelete(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Keep", "--category", "week")
	c.mustRun("add", "Drop")
	items := c.export()

	c.mustRun("complete", items[0].ID)
	out := c.mustRun("list", "--filter", "finished")
	if !strings.Contains(out, "Keep") || strings.Contains(out, "Drop") {
		t.Errorf("Unexpected finished list %q", out)
	}

	out = c.mustRun("review", items[0].ID)
	if !strings.Contains(out, "nothing to review") {
		t.Errorf("Expected reviewing a finished item to change nothing, got %q", out)
	}

	c.mustRun("delete", items[1].ID)
	out = c.mustRun("delete", items[1].ID)
	if !strings.Contains(out, "nothing deleted") {
		t.Errorf("Expected a second delete to be a no-op, got %q", out)
	}

	out = c.mustRun("stats")
	if !strings.Contains(out, "Finished:  1") || !strings.Contains(out, "Active:    0") {
		t.Errorf("Unexpected stats %q", out)
	}
}

func TestErrors(t *testing.T) {
	c := newCLI(t)
	testCases := [][]string{
		{"review", "missing"},
		{"complete", "missing"},
		{"add", "x", "--category", "finished"},
		{"add", "x", "--category", "someday"},
		{"add", "x", "--color", "red"},
		{"list", "--filter", "someday"},
		{"export", "--format", "xml"},
		{"--storage", "postgres", "due"},
	}
	for _, args := range testCases {
		if _, err := c.run(args...); err == nil {
			t.Errorf("revisit %s: expected an error", strings.Join(args, " "))
		}
	}
}

func TestImport(t *testing.T) {
	c := newCLI(t)
	notes := t.TempDir()
	if err := os.WriteFile(filepath.Join(notes, "week1.md"), []byte("T: Attention\nN: scaling\n---\nT: Dropout\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := c.mustRun("import", "--notes-dir", notes)
	if !strings.Contains(out, "2 added, 0 already imported") {
		t.Errorf("Unexpected import output %q", out)
	}
	out = c.mustRun("import", "--notes-dir", notes)
	if !strings.Contains(out, "0 added, 2 already imported") {
		t.Errorf("Unexpected second import output %q", out)
	}

	if _, err := c.run("import"); err == nil {
		t.Error("Expected an error when no notes source is configured")
	}
}

func TestExportYAMLToFile(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "Attention", "--category", "3days")
	path := filepath.Join(t.TempDir(), "items.yaml")
	c.mustRun("export", "--format", "yaml", "--output", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var items []map[string]any
	if err := yaml.Unmarshal(data, &items); err != nil {
		t.Fatalf("decoding yaml export: %v", err)
	}
	if len(items) != 1 || items[0]["title"] != "Attention" || items[0]["category"] != "3days" || items[0]["dueDate"] != "2024-01-13" {
		t.Errorf("Unexpected yaml export %v", items)
	}
}

func TestMemoryStorage(t *testing.T) {
	c := newCLI(t)
	c.mustRun("--storage", "memory", "add", "Ephemeral")
	out := c.mustRun("--storage", "memory", "list")
	if !strings.Contains(out, "No review items found") {
		t.Errorf("Expected the memory store not to persist across runs, got %q", out)
	}
}
