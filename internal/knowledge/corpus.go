package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/knowledge_base.json
var defaultCorpusJSON []byte

// Chunk is one retrievable unit of knowledge-base content. Immutable at
// query time; the corpus is rebuilt when the source JSON changes.
type Chunk struct {
	ID            string   `json:"id"`
	SourceSection string   `json:"source_section"`
	Question      string   `json:"question,omitempty"`
	Answer        string   `json:"answer"`
	Text          string   `json:"text"`
	Keywords      []string `json:"keywords,omitempty"`
}

type corpusFile struct {
	UniversityInfo map[string]string `json:"university_info"`
	FAQs           []struct {
		ID       string   `json:"id"`
		Question string   `json:"question"`
		Answer   string   `json:"answer"`
		Category string   `json:"category"`
		Keywords []string `json:"keywords"`
	} `json:"faqs"`
}

// LoadCorpus reads chunks from the JSON file at path, or from the embedded
// default corpus when path is empty. FAQ question and answer are combined
// into the indexed text so either side of the pair can match a query.
func LoadCorpus(path string) ([]Chunk, error) {
	raw := defaultCorpusJSON
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
		raw = b
	}

	var file corpusFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	chunks := make([]Chunk, 0, len(file.FAQs)+1)
	for _, faq := range file.FAQs {
		if strings.TrimSpace(faq.ID) == "" {
			return nil, fmt.Errorf("knowledge base entry missing id")
		}
		chunks = append(chunks, Chunk{
			ID:            faq.ID,
			SourceSection: faq.Category,
			Question:      faq.Question,
			Answer:        faq.Answer,
			Text:          "Q: " + faq.Question + " A: " + faq.Answer,
			Keywords:      faq.Keywords,
		})
	}
	if len(file.UniversityInfo) > 0 {
		info, err := json.Marshal(file.UniversityInfo)
		if err != nil {
			return nil, fmt.Errorf("marshal university info: %w", err)
		}
		chunks = append(chunks, Chunk{
			ID:            "uni_info_001",
			SourceSection: "general_info",
			Answer:        string(info),
			Text:          "University Information: " + string(info),
		})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("knowledge base is empty")
	}
	return chunks, nil
}
