package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

var (
	// ErrEmbedderMismatch means the index was built with a different
	// embedding function or dimension than the retriever's embedder.
	// Queries against such an index are rejected outright; truncating or
	// padding vectors would silently degrade relevance.
	ErrEmbedderMismatch = errors.New("index embedder version mismatch")
)

// Scored pairs a chunk with its cosine similarity in [0,1].
type Scored struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// Index holds the embedded corpus. Read-only after construction, safe for
// concurrent retrieval.
type Index struct {
	embedderVersion string
	dim             int
	chunks          []Chunk
	vectors         [][]float32
}

// BuildIndex embeds every chunk with the given embedder.
func BuildIndex(e *Embedder, chunks []Chunk) *Index {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = e.Embed(c.Text)
	}
	return &Index{
		embedderVersion: e.Version(),
		dim:             e.Dim(),
		chunks:          chunks,
		vectors:         vectors,
	}
}

func (ix *Index) Len() int        { return len(ix.chunks) }
func (ix *Index) Chunks() []Chunk { return ix.chunks }

type indexFile struct {
	EmbedderVersion string      `json:"embedder_version"`
	Dim             int         `json:"dim"`
	Chunks          []Chunk     `json:"chunks"`
	Vectors         [][]float32 `json:"vectors"`
}

// Save serializes the index with its embedder version tag.
func (ix *Index) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(indexFile{
		EmbedderVersion: ix.embedderVersion,
		Dim:             ix.dim,
		Chunks:          ix.chunks,
		Vectors:         ix.vectors,
	})
}

// LoadIndex reads a serialized index and verifies it was built with the same
// embedding function the caller will use for queries.
func LoadIndex(r io.Reader, e *Embedder) (*Index, error) {
	var file indexFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if file.EmbedderVersion != e.Version() || file.Dim != e.Dim() {
		return nil, fmt.Errorf("%w: index built with %q dim=%d, retriever uses %q dim=%d",
			ErrEmbedderMismatch, file.EmbedderVersion, file.Dim, e.Version(), e.Dim())
	}
	if len(file.Chunks) != len(file.Vectors) {
		return nil, fmt.Errorf("corrupt index: %d chunks but %d vectors", len(file.Chunks), len(file.Vectors))
	}
	for i, v := range file.Vectors {
		if len(v) != file.Dim {
			return nil, fmt.Errorf("corrupt index: vector %d has dim %d, want %d", i, len(v), file.Dim)
		}
	}
	return &Index{
		embedderVersion: file.EmbedderVersion,
		dim:             file.Dim,
		chunks:          file.Chunks,
		vectors:         file.Vectors,
	}, nil
}

// SaveIndexFile writes the index to disk for offline prebuilds.
func (ix *Index) SaveIndexFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := ix.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadIndexFile opens a prebuilt index, verifying the embedder tag.
func LoadIndexFile(path string, e *Embedder) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	return LoadIndex(f, e)
}

// Retriever answers similarity queries over an index. Results below the
// similarity floor are dropped; an empty result is a valid answer, not an
// error, and signals the caller to fall back to a generic response.
type Retriever struct {
	embedder *Embedder
	index    *Index
	floor    float64
}

func NewRetriever(e *Embedder, ix *Index, floor float64) (*Retriever, error) {
	if ix.embedderVersion != e.Version() || ix.dim != e.Dim() {
		return nil, fmt.Errorf("%w: index built with %q dim=%d, retriever uses %q dim=%d",
			ErrEmbedderMismatch, ix.embedderVersion, ix.dim, e.Version(), e.Dim())
	}
	if floor < 0 || floor > 1 {
		return nil, fmt.Errorf("similarity floor must be in [0,1], got %v", floor)
	}
	return &Retriever{embedder: e, index: ix, floor: floor}, nil
}

// Floor returns the configured minimum similarity.
func (r *Retriever) Floor() float64 { return r.floor }

// Retrieve returns up to topK chunks sorted by descending similarity.
// Ties sort by chunk ID so ordering is reproducible.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Scored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	qv := r.embedder.Embed(query)
	results := make([]Scored, 0, topK)
	for i, chunk := range r.index.chunks {
		sim := cosine(qv, r.index.vectors[i])
		if sim < r.floor {
			continue
		}
		results = append(results, Scored{Chunk: chunk, Similarity: sim})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
