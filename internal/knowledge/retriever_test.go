package knowledge

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T, e *Embedder) *Index {
	t.Helper()
	chunks, err := LoadCorpus("")
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	return BuildIndex(e, chunks)
}

func TestEmbedderNormalizes(t *testing.T) {
	e, err := NewEmbedder(DefaultDim)
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	v := e.Embed("admission requirements for computer science")
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("vector norm^2 = %v, want 1", norm)
	}
	if len(v) != DefaultDim {
		t.Fatalf("dim = %d, want %d", len(v), DefaultDim)
	}
}

func TestEmbedderEmptyInputIsZeroVector(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	v := e.Embed("a to the")
	for i, x := range v {
		if x != 0 {
			t.Fatalf("zero vector expected, component %d = %v", i, x)
		}
	}
}

func TestRetrieveRankedAndBounded(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	ix := testIndex(t, e)
	r, err := NewRetriever(e, ix, 0.1)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	results, err := r.Retrieve(context.Background(), "what are the admission requirements", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) == 0 || len(results) > 2 {
		t.Fatalf("results len = %d, want 1..2", len(results))
	}
	if results[0].Chunk.ID != "req_001" {
		t.Fatalf("top chunk = %q, want req_001 (results: %+v)", results[0].Chunk.ID, results)
	}
	for i, res := range results {
		if res.Similarity < 0 || res.Similarity > 1 {
			t.Fatalf("similarity %v out of [0,1]", res.Similarity)
		}
		if i > 0 && results[i-1].Similarity < res.Similarity {
			t.Fatalf("results not sorted descending: %+v", results)
		}
	}
}

func TestRetrieveBelowFloorReturnsEmpty(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	ix := testIndex(t, e)
	r, err := NewRetriever(e, ix, 0.3)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	results, err := r.Retrieve(context.Background(), "zxqv blorf unrelated gibberish", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want nil for empty result", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	ix := BuildIndex(e, nil)
	r, err := NewRetriever(e, ix, 0.3)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	results, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want nil for empty corpus", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %+v, want empty", results)
	}
}

func TestRetrieveFewerThanTopK(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	chunks := []Chunk{{ID: "only", Text: "campus tour schedule", Answer: "tours daily"}}
	r, err := NewRetriever(e, BuildIndex(e, chunks), 0.0)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	results, err := r.Retrieve(context.Background(), "campus tour", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results len = %d, want 1", len(results))
	}
}

func TestIndexSaveLoadRoundTrip(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	ix := testIndex(t, e)

	var buf bytes.Buffer
	if err := ix.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadIndex(&buf, e)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if loaded.Len() != ix.Len() {
		t.Fatalf("loaded len = %d, want %d", loaded.Len(), ix.Len())
	}
}

func TestIndexFileRoundTripServesQueries(t *testing.T) {
	e, _ := NewEmbedder(DefaultDim)
	ix := testIndex(t, e)

	path := filepath.Join(t.TempDir(), "knowledge.index")
	if err := ix.SaveIndexFile(path); err != nil {
		t.Fatalf("SaveIndexFile() error = %v", err)
	}
	loaded, err := LoadIndexFile(path, e)
	if err != nil {
		t.Fatalf("LoadIndexFile() error = %v", err)
	}

	r, err := NewRetriever(e, loaded, 0.3)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	results, err := r.Retrieve(context.Background(), "what are the admission requirements", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("prebuilt index returned no results for a corpus question")
	}
}

func TestLoadIndexFileRejectsMismatchedEmbedder(t *testing.T) {
	e256, _ := NewEmbedder(256)
	e128, _ := NewEmbedder(128)
	ix := testIndex(t, e256)

	path := filepath.Join(t.TempDir(), "knowledge.index")
	if err := ix.SaveIndexFile(path); err != nil {
		t.Fatalf("SaveIndexFile() error = %v", err)
	}
	if _, err := LoadIndexFile(path, e128); !errors.Is(err, ErrEmbedderMismatch) {
		t.Fatalf("LoadIndexFile() error = %v, want ErrEmbedderMismatch", err)
	}
}

func TestLoadIndexRejectsMismatchedEmbedder(t *testing.T) {
	e256, _ := NewEmbedder(256)
	e128, _ := NewEmbedder(128)
	ix := testIndex(t, e256)

	var buf bytes.Buffer
	if err := ix.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := LoadIndex(&buf, e128); !errors.Is(err, ErrEmbedderMismatch) {
		t.Fatalf("LoadIndex() error = %v, want ErrEmbedderMismatch", err)
	}
}

func TestNewRetrieverRejectsMismatchedIndex(t *testing.T) {
	e256, _ := NewEmbedder(256)
	e128, _ := NewEmbedder(128)
	ix := testIndex(t, e256)
	if _, err := NewRetriever(e128, ix, 0.3); !errors.Is(err, ErrEmbedderMismatch) {
		t.Fatalf("NewRetriever() error = %v, want ErrEmbedderMismatch", err)
	}
}
