package nlu

import (
	"regexp"
	"strings"
)

// entityExtractor holds the compiled span patterns. Extraction is regex-based
// and independent of intent scoring; a turn may carry zero entities.
type entityExtractor struct {
	patterns map[string]*regexp.Regexp
}

func newEntityExtractor() *entityExtractor {
	return &entityExtractor{
		patterns: map[string]*regexp.Regexp{
			"email": regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			"phone": regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`),
			"date": regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:,)?\s+\d{4}\b|\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
			"gpa":   regexp.MustCompile(`(?i)\b[0-4]\.\d{1,2}\b|\b[0-4]\s*GPA\b`),
			"money": regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`),
			"program": regexp.MustCompile(`(?i)\b(?:computer science|engineering|business|medicine|law|arts|science|mathematics|physics|chemistry|biology|psychology|economics|english|history)\b`),
			"academic_level": regexp.MustCompile(`(?i)\b(?:freshman|sophomore|junior|senior|graduate|undergraduate|phd|masters?)\b`),
			"sat_score": regexp.MustCompile(`(?i)\bSAT\s*:?\s*(\d{3,4})\b`),
			"act_score": regexp.MustCompile(`(?i)\bACT\s*:?\s*(\d{1,2})\b`),
		},
	}
}

// Extract returns all matched spans keyed by entity type. Score patterns
// report only the numeric capture, not the surrounding keyword.
func (e *entityExtractor) Extract(text string) map[string][]string {
	entities := make(map[string][]string)
	for entityType, pattern := range e.patterns {
		switch entityType {
		case "sat_score", "act_score":
			for _, m := range pattern.FindAllStringSubmatch(text, -1) {
				if len(m) > 1 {
					entities[entityType] = append(entities[entityType], m[1])
				}
			}
		case "program", "academic_level":
			for _, m := range pattern.FindAllString(text, -1) {
				entities[entityType] = append(entities[entityType], strings.ToLower(m))
			}
		default:
			if matches := pattern.FindAllString(text, -1); len(matches) > 0 {
				entities[entityType] = matches
			}
		}
	}
	return entities
}
