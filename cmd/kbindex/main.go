// kbindex prebuilds the knowledge retrieval index so the service can boot
// without embedding the corpus. Point KNOWLEDGE_INDEX_PATH at the output.
package main

import (
	"flag"
	"log"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/knowledge"
)

func main() {
	corpusPath := flag.String("corpus", "", "knowledge base JSON (empty uses the embedded default)")
	outPath := flag.String("out", "data/knowledge.index", "output index file")
	flag.Parse()

	embedder, err := knowledge.NewEmbedder(knowledge.DefaultDim)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	chunks, err := knowledge.LoadCorpus(*corpusPath)
	if err != nil {
		log.Fatalf("knowledge base load failed: %v", err)
	}

	index := knowledge.BuildIndex(embedder, chunks)
	if err := index.SaveIndexFile(*outPath); err != nil {
		log.Fatalf("index save failed: %v", err)
	}
	log.Printf("wrote %s: %d chunks, embedder %s", *outPath, index.Len(), embedder.Version())
}
