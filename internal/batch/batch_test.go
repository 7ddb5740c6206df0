package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/storage"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/timing"
	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/common"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/graph"
	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
)

type fakeProcessor struct {
	calls atomic.Int32
}

func (p *fakeProcessor) Process(ctx context.Context, text string) *graph.Result {
	p.calls.Add(1)
	triples := common.SampleTriples()
	return &graph.Result{
		Triples: triples,
		Extract: graph.ExtractReport{Chunks: 3, Failed: []int{2}},
		Stats:   graph.ComputeStats(triples, 10),
		Phases:  []timing.Phase{{Name: "extract", Seconds: 0.5}},
		Seconds: 0.5,
	}
}

type textLoader struct {
	err error
}

func (l textLoader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	if l.err != nil {
		return nil, l.err
	}
	return []byte("text of " + doc.ID), nil
}

func doc(id string, l loader.DocumentLoader) loader.Document {
	return loader.NewDocument(loader.NewDocumentParams{ID: id, Path: id + ".txt", Loader: l})
}

func newRunner(t *testing.T, p Processor, store storage.Store) *Runner {
	t.Helper()
	r, err := NewRunner(NewRunnerParams{Processor: p, Store: store, Workers: 2, RunID: "run1"})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func readIndex(t *testing.T, store storage.Store) Index {
	t.Helper()
	b, err := store.Get(context.Background(), IndexKey)
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	var index Index
	if err := json.Unmarshal(b, &index); err != nil {
		t.Fatalf("index unreadable: %v", err)
	}
	return index
}

func TestRunWritesOutputsAndIndex(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakeProcessor{}

	summary, err := newRunner(t, p, store).Run(context.Background(), []loader.Document{
		doc("a", textLoader{}),
		doc("b", textLoader{}),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(summary.Processed, want) {
		t.Fatalf("Processed = %v, want %v", summary.Processed, want)
	}

	b, err := store.Get(context.Background(), OutputKey("a"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	var out DocumentOutput
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("output unreadable: %v", err)
	}

	m := out.Metadata
	if m.DocumentID != "a" || m.RunID != "run1" || m.Source != "a.txt" {
		t.Fatalf("unexpected identity: %+v", m)
	}
	if m.TotalTriples != 25 || m.InferredTriples != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.ChunksProcessed != 2 || m.ChunksFailed != 1 {
		t.Fatalf("unexpected chunk counts: %+v", m)
	}
	if len(out.Triples) != 25 || out.Graph.Stats.Edges != 25 || out.Graph.Stats.Nodes != m.UniqueEntities {
		t.Fatalf("graph does not match triples: %+v", out.Graph.Stats)
	}

	if index := readIndex(t, store); !reflect.DeepEqual(index.Completed, []string{"a", "b"}) {
		t.Fatalf("index = %+v", index)
	}
}

func TestRunSkipsCompletedDocuments(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakeProcessor{}
	docs := []loader.Document{doc("a", textLoader{}), doc("b", textLoader{})}

	if _, err := newRunner(t, p, store).Run(context.Background(), docs); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// An output written by a run that never got to update the index.
	if err := store.Put(context.Background(), OutputKey("c"), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	docs = append(docs, doc("c", textLoader{}), doc("d", textLoader{}))
	summary, err := newRunner(t, p, store).Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(summary.Skipped, want) {
		t.Fatalf("Skipped = %v, want %v", summary.Skipped, want)
	}
	if want := []string{"d"}; !reflect.DeepEqual(summary.Processed, want) {
		t.Fatalf("Processed = %v, want %v", summary.Processed, want)
	}
	if n := p.calls.Load(); n != 3 {
		t.Fatalf("processor called %d times, want 3", n)
	}
	if index := readIndex(t, store); !reflect.DeepEqual(index.Completed, []string{"a", "b", "c", "d"}) {
		t.Fatalf("index = %+v", index)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	summary, err := newRunner(t, &fakeProcessor{}, store).Run(context.Background(), []loader.Document{
		doc("good", textLoader{}),
		doc("bad", textLoader{err: errors.New("unreadable")}),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(summary.Failed, []string{"bad"}) || !reflect.DeepEqual(summary.Processed, []string{"good"}) {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if ok, _ := store.Exists(context.Background(), OutputKey("bad")); ok {
		t.Fatalf("failed document must not be persisted")
	}
	if index := readIndex(t, store); !reflect.DeepEqual(index.Completed, []string{"good"}) {
		t.Fatalf("index = %+v", index)
	}
}

func TestRunStopsSchedulingWhenCancelled(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakeProcessor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newRunner(t, p, store).Run(ctx, []loader.Document{doc("a", textLoader{})})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(summary.Processed) != 0 || p.calls.Load() != 0 {
		t.Fatalf("nothing should run after cancellation: %+v", summary)
	}
	if index := readIndex(t, store); len(index.Completed) != 0 {
		t.Fatalf("index = %+v", index)
	}
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	if _, err := NewRunner(NewRunnerParams{}); err == nil {
		t.Fatalf("expected error without processor")
	}
	if _, err := NewRunner(NewRunnerParams{Processor: &fakeProcessor{}}); err == nil {
		t.Fatalf("expected error without store")
	}
	r, err := NewRunner(NewRunnerParams{Processor: &fakeProcessor{}, Store: &storage.LocalStore{}})
	if err != nil {
		t.Fatal(err)
	}
	if r.RunID() == "" || r.workers != 1 {
		t.Fatalf("defaults not applied: %+v", r)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.txt", "sub/a.txt", "notes.md", "report.pdf", "image.png", ".hidden/secret.txt"}
	for _, f := range files {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	local, web, s3 := textLoader{}, textLoader{}, textLoader{}
	var buckets []string
	docs, err := Collect([]string{dir, "https://example.com/steam-power", "s3://docs/reports/2023.pdf"}, Sources{
		Local: local,
		Web:   web,
		S3: func(bucket string) (loader.DocumentLoader, error) {
			buckets = append(buckets, bucket)
			return s3, nil
		},
	})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	type entry struct {
		id  string
		typ loader.DocumentType
	}
	var got []entry
	for _, d := range docs {
		got = append(got, entry{d.ID, d.Type})
	}
	want := []entry{
		{"a-" + util.PathHash(filepath.Join(dir, "a.txt")), loader.DocumentTypeText},
		{"notes", loader.DocumentTypeText},
		{"report", loader.DocumentTypePDF},
		{"a-" + util.PathHash(filepath.Join(dir, "sub", "a.txt")), loader.DocumentTypeText},
		{"steam-power", loader.DocumentTypeWeb},
		{"2023", loader.DocumentTypePDF},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Collect() = %v, want %v", got, want)
	}
	if docs[5].Path != "reports/2023.pdf" || !reflect.DeepEqual(buckets, []string{"docs"}) {
		t.Fatalf("unexpected s3 document: %+v, buckets %v", docs[5], buckets)
	}

	if _, err := Collect([]string{filepath.Join(dir, "missing.txt")}, Sources{Local: local}); err == nil {
		t.Fatalf("expected error for missing input")
	}
}

func TestCollectIDsIndependentOfOrder(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"2020/report.txt", "2021/report.txt", "summary.md"} {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	first := filepath.Join(dir, "2020", "report.txt")
	second := filepath.Join(dir, "2021", "report.txt")
	summary := filepath.Join(dir, "summary.md")

	ids := func(inputs ...string) map[string]string {
		docs, err := Collect(inputs, Sources{Local: textLoader{}})
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		out := make(map[string]string)
		for _, d := range docs {
			out[d.Path] = d.ID
		}
		return out
	}

	tests := []struct {
		name   string
		inputs []string
	}{
		{"forward", []string{first, second, summary}},
		{"reversed", []string{summary, second, first}},
		{"duplicates", []string{second, first, second, summary, first}},
	}

	want := map[string]string{
		first:   "report-" + util.PathHash(first),
		second:  "report-" + util.PathHash(second),
		summary: "summary",
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(tt.inputs...); !reflect.DeepEqual(got, want) {
				t.Fatalf("Collect() ids = %v, want %v", got, want)
			}
		})
	}

	docs, err := Collect([]string{"s3://a/x.pdf", "s3://b/x.pdf"}, Sources{
		S3: func(string) (loader.DocumentLoader, error) { return textLoader{}, nil },
	})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID == docs[1].ID {
		t.Fatalf("objects in different buckets share an id: %+v", docs)
	}
	if docs[0].ID != "x-"+util.PathHash("s3://a/x.pdf") {
		t.Fatalf("unexpected s3 id %q", docs[0].ID)
	}
}
