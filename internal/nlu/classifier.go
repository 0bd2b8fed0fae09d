package nlu

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
)

//go:embed data/intents.json
var defaultIntentsJSON []byte

// intentsFile mirrors the training data layout on disk.
type intentsFile struct {
	Version string `json:"version"`
	Intents []struct {
		Tag      string   `json:"tag"`
		Patterns []string `json:"patterns"`
	} `json:"intents"`
}

// Result is the classifier output for one utterance. Intent is the reported
// label after threshold gating; RawIntent keeps the arg-max label so callers
// can log what the model actually scored highest even when the turn was
// routed to unknown.
type Result struct {
	Intent     Intent
	RawIntent  Intent
	Confidence float64
	Entities   map[string][]string
	Scores     map[Intent]float64
}

// Classifier scores utterances against the closed intent set using a
// multinomial naive Bayes model over unigram and bigram features, trained
// once at construction. Safe for concurrent use: all state is read-only
// after New.
type Classifier struct {
	threshold float64
	alpha     float64
	version   string

	labels      []Intent
	priors      map[Intent]float64
	tokenCounts map[Intent]map[string]float64
	classTotals map[Intent]float64
	exampleN    map[Intent]int
	vocab       map[string]struct{}

	entities *entityExtractor
}

// NewClassifier trains from the JSON file at path, or from the embedded
// default training set when path is empty.
func NewClassifier(path string, threshold float64) (*Classifier, error) {
	raw := defaultIntentsJSON
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read intents file: %w", err)
		}
		raw = b
	}

	var file intentsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse intents file: %w", err)
	}
	if len(file.Intents) == 0 {
		return nil, fmt.Errorf("intents file has no training data")
	}
	if file.Version != "" && file.Version != IntentSetVersion {
		return nil, fmt.Errorf("intents version %q does not match %q", file.Version, IntentSetVersion)
	}

	c := &Classifier{
		threshold:   threshold,
		alpha:       0.1,
		version:     IntentSetVersion,
		priors:      make(map[Intent]float64),
		tokenCounts: make(map[Intent]map[string]float64),
		classTotals: make(map[Intent]float64),
		exampleN:    make(map[Intent]int),
		vocab:       make(map[string]struct{}),
		entities:    newEntityExtractor(),
	}

	totalExamples := 0
	for _, it := range file.Intents {
		label := Intent(it.Tag)
		if label == IntentUnknown {
			return nil, fmt.Errorf("unknown is the fallback label and cannot be trained")
		}
		counts := c.tokenCounts[label]
		if counts == nil {
			counts = make(map[string]float64)
			c.tokenCounts[label] = counts
			c.labels = append(c.labels, label)
		}
		for _, pattern := range it.Patterns {
			feats := features(pattern)
			if len(feats) == 0 {
				continue
			}
			c.exampleN[label]++
			totalExamples++
			for _, f := range feats {
				counts[f]++
				c.classTotals[label]++
				c.vocab[f] = struct{}{}
			}
		}
	}
	if totalExamples == 0 {
		return nil, fmt.Errorf("no usable training patterns after preprocessing")
	}
	for _, label := range c.labels {
		c.priors[label] = float64(c.exampleN[label]) / float64(totalExamples)
	}
	sort.Slice(c.labels, func(i, j int) bool { return c.labels[i] < c.labels[j] })
	return c, nil
}

// Threshold returns the configured confidence gate.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Version returns the intent set version the model was trained against.
func (c *Classifier) Version() string { return c.version }

// Classify scores the utterance and extracts entities. When the arg-max
// posterior falls below the threshold the reported intent is forced to
// unknown, but the confidence is left untouched so telemetry still sees the
// raw score. Entity extraction is independent of intent scoring.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	entities := c.entities.Extract(text)
	feats := features(text)
	if len(feats) == 0 {
		return Result{
			Intent:    IntentUnknown,
			RawIntent: IntentUnknown,
			Entities:  entities,
			Scores:    map[Intent]float64{},
		}, nil
	}

	// Posterior via log-joint then softmax normalization.
	logJoint := make(map[Intent]float64, len(c.labels))
	vocabSize := float64(len(c.vocab))
	for _, label := range c.labels {
		score := math.Log(c.priors[label])
		counts := c.tokenCounts[label]
		denom := c.classTotals[label] + c.alpha*vocabSize
		for _, f := range feats {
			if _, known := c.vocab[f]; !known {
				continue
			}
			score += math.Log((counts[f] + c.alpha) / denom)
		}
		logJoint[label] = score
	}

	maxLog := math.Inf(-1)
	for _, v := range logJoint {
		if v > maxLog {
			maxLog = v
		}
	}
	var norm float64
	scores := make(map[Intent]float64, len(logJoint))
	for label, v := range logJoint {
		p := math.Exp(v - maxLog)
		scores[label] = p
		norm += p
	}
	for label := range scores {
		scores[label] /= norm
	}

	top := c.argMax(scores)
	confidence := scores[top]

	reported := top
	if confidence < c.threshold {
		reported = IntentUnknown
	}

	return Result{
		Intent:     reported,
		RawIntent:  top,
		Confidence: confidence,
		Entities:   entities,
		Scores:     scores,
	}, nil
}

// argMax picks the highest-scoring label. Exact ties prefer the label with
// more training examples, then the lexicographically smaller tag, so the
// result is reproducible across runs and map iteration orders.
func (c *Classifier) argMax(scores map[Intent]float64) Intent {
	best := c.labels[0]
	for _, label := range c.labels[1:] {
		s, b := scores[label], scores[best]
		switch {
		case s > b:
			best = label
		case s == b:
			if c.exampleN[label] > c.exampleN[best] {
				best = label
			}
			// labels are sorted, so equal counts keep the earlier tag
		}
	}
	return best
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "about": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "get": {},
	"have": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {},
	"my": {}, "of": {}, "on": {}, "or": {}, "should": {}, "that": {}, "the": {},
	"there": {}, "to": {}, "was": {}, "we": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

// tokenize lowercases, strips punctuation, and drops stopwords and tokens of
// two characters or fewer.
func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// features expands tokens into unigrams plus adjacent bigrams.
func features(text string) []string {
	tokens := tokenize(text)
	feats := make([]string, 0, len(tokens)*2)
	feats = append(feats, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		feats = append(feats, tokens[i]+" "+tokens[i+1])
	}
	return feats
}
