package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-suggest/internal/catalog"
	"github.com/p-n-ai/pai-suggest/internal/embedding"
	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

const sampleJSON = `[
  {"identifier": "mc-1", "title": "Scanning the environment", "description": "Video.",
   "contentType": "video", "url": "u1", "source": "s",
   "learningStyle": {"dimension": "Input", "category": "Visual"}, "primaryLevel": "Acquire"},
  {"identifier": "mc-2", "title": "Anticipating events", "description": "Scenario.",
   "contentType": "scenario", "url": "u2", "source": "s",
   "learningStyle": {"dimension": "Processing", "category": "Active"}, "primaryLevel": "Transfer",
   "embedding": [0, 1], "embeddingCalculated": true},
  {"identifier": "mc-bad", "title": "Broken", "description": "Bad level.",
   "contentType": "quiz", "url": "u3", "source": "s",
   "learningStyle": {"dimension": "Input", "category": "Verbal"}, "primaryLevel": "Remember"}
]`

// testRuntime backs every command with one in-memory catalog.
func testRuntime(mem *catalog.MemoryCatalog, embedder recommend.Embedder) (*runtime, *int) {
	opened := 0
	return &runtime{
		openStore: func(context.Context) (store, func(), error) {
			opened++
			return mem, func() {}, nil
		},
		openEmbedder: func() (recommend.Embedder, error) {
			if embedder == nil {
				return nil, errors.New("no embedding provider configured")
			}
			return embedder, nil
		},
	}, &opened
}

func execute(t *testing.T, rt *runtime, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(rt)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(&runtime{})

	want := map[string]bool{"import": false, "backfill": false, "stats": false, "export": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestImportCmd(t *testing.T) {
	mem := catalog.NewMemoryCatalog()
	mock := embedding.NewMockProvider([]float64{1, 0})
	rt, _ := testRuntime(mem, mock)

	out, err := execute(t, rt, "import", writeSample(t), "--embed")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "Imported 2 of 3 records (1 errors)") {
		t.Errorf("output = %q", out)
	}

	// Only mc-1 lacked an embedding.
	if mock.Calls() != 1 {
		t.Errorf("embedder calls = %d, want 1", mock.Calls())
	}
	stats, _ := mem.Stats(t.Context())
	if stats.Total != 2 || stats.WithEmbedding != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestImportCmd_DryRun(t *testing.T) {
	mem := catalog.NewMemoryCatalog()
	rt, opened := testRuntime(mem, nil)

	out, err := execute(t, rt, "import", writeSample(t), "--dry-run", "--embed")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "Validated 2 of 3 records") {
		t.Errorf("output = %q", out)
	}
	if *opened != 0 || mem.Len() != 0 {
		t.Errorf("dry run should not open the store (opened=%d, len=%d)", *opened, mem.Len())
	}
}

func TestImportCmd_Errors(t *testing.T) {
	rt, _ := testRuntime(catalog.NewMemoryCatalog(), nil)

	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"import"}},
		{"missing path", []string{"import", filepath.Join(t.TempDir(), "nope.json")}},
		{"embedder unavailable", []string{"import", writeSample(t), "--embed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, rt, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBackfillCmd(t *testing.T) {
	mem := catalog.NewMemoryCatalog(
		recommend.ContentItem{ID: "a", Title: "A", Active: true},
		recommend.ContentItem{ID: "b", Title: "B", Active: true, Embedding: recommend.Embedded([]float64{1})},
	)
	rt, _ := testRuntime(mem, embedding.NewMockProvider([]float64{0.5, 0.5}))

	out, err := execute(t, rt, "backfill")
	if err != nil {
		t.Fatalf("backfill error = %v", err)
	}
	if !strings.Contains(out, "Updated 1 of 1 items (0 errors)") {
		t.Errorf("output = %q", out)
	}
	if missing, _ := mem.ListMissingEmbeddings(t.Context()); len(missing) != 0 {
		t.Errorf("still missing %d embeddings", len(missing))
	}
}

func TestBackfillCmd_NoProvider(t *testing.T) {
	rt, opened := testRuntime(catalog.NewMemoryCatalog(), nil)

	if _, err := execute(t, rt, "backfill"); err == nil {
		t.Fatal("backfill without a provider should fail")
	}
	if *opened != 0 {
		t.Error("store should not be opened when no provider is configured")
	}
}

func TestStatsCmd(t *testing.T) {
	mem := catalog.NewMemoryCatalog(
		recommend.ContentItem{ID: "a", Active: true, Embedding: recommend.Embedded([]float64{1})},
		recommend.ContentItem{ID: "b", Active: true},
	)
	rt, _ := testRuntime(mem, nil)

	out, err := execute(t, rt, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if !strings.Contains(out, "Completion:         50%") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, rt, "stats", "--json")
	if err != nil {
		t.Fatalf("stats --json error = %v", err)
	}
	var got catalog.Stats
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Total != 2 || got.WithoutEmbedding != 1 {
		t.Errorf("stats = %+v", got)
	}
}

func TestExportCmd(t *testing.T) {
	mem := catalog.NewMemoryCatalog()
	rt, _ := testRuntime(mem, nil)
	if _, err := execute(t, rt, "import", writeSample(t)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "export.xlsx")
	out, err := execute(t, rt, "export", path)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "Exported 2 items") {
		t.Errorf("output = %q", out)
	}

	records, err := catalog.ReadWorkbook(path)
	if err != nil {
		t.Fatalf("ReadWorkbook() error = %v", err)
	}
	if len(records) != 2 || records[0].ID() != "mc-1" {
		t.Errorf("records = %+v", records)
	}
}
