package dialogue

import (
	"strings"
	"unicode"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/knowledge"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/nlu"
	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

// Input carries everything the manager needs to compose a reply. The manager
// is pure: the same Input always yields the same Response. Template rotation
// is keyed off history length, not randomness, so the variety the original
// templates were written for survives without nondeterminism.
type Input struct {
	Query      string
	Intent     nlu.Intent
	Confidence float64
	Entities   map[string][]string
	Chunks     []knowledge.Scored
	History    []session.Interaction
}

type Response struct {
	Text string
	// Grounded is set when the reply was synthesized from a retrieved chunk.
	Grounded        bool
	GroundedChunkID string
	// FlagForFollowUp marks turns a human should review: the user asked
	// something the assistant could not answer from the knowledge base.
	FlagForFollowUp bool
}

const (
	contactLine  = "For the most current and detailed information, please contact our admissions office at admissions@university.edu or call (555) 123-4567."
	fallbackHelp = "I can help you with information about admission requirements, deadlines, tuition fees, programs, financial aid, campus visits, and housing. You can also contact our admissions office directly for personalized assistance."
)

// Manager composes the final reply from intent, entities, retrieved chunks,
// and session history. It performs no I/O; persistence belongs to the caller.
type Manager struct{}

func NewManager() *Manager { return &Manager{} }

// Respond applies the reply policy in priority order: grounded FAQ answer,
// social template, then fallback.
func (m *Manager) Respond(in Input) Response {
	switch in.Intent {
	case nlu.IntentGreeting:
		return Response{Text: pickTemplate(greetingTemplates, in.History)}
	case nlu.IntentGoodbye:
		return Response{Text: pickTemplate(goodbyeTemplates, in.History)}
	case nlu.IntentAdmissionRequirements, nlu.IntentApplicationDeadline,
		nlu.IntentTuitionFees, nlu.IntentProgramsOffered, nlu.IntentFinancialAid,
		nlu.IntentContactInfo, nlu.IntentCampusVisit, nlu.IntentHousing:
		if len(in.Chunks) > 0 {
			return m.grounded(in)
		}
		// Known topic but nothing retrievable to back an answer.
		text := pickTemplate(introTemplates[in.Intent], in.History) + " " + contactLine
		return Response{Text: postProcess(text), FlagForFollowUp: true}
	case nlu.IntentUnknown:
		return m.fallback(in)
	default:
		// Unreachable for the closed set; treat stray labels as unknown.
		return m.fallback(in)
	}
}

func (m *Manager) grounded(in Input) Response {
	top := in.Chunks[0]

	var b strings.Builder
	b.WriteString(pickTemplate(introTemplates[in.Intent], in.History))
	b.WriteString("\n\n")
	b.WriteString(top.Chunk.Answer)

	if len(in.Chunks) > 1 && in.Chunks[1].Chunk.Answer != top.Chunk.Answer {
		b.WriteString("\n\nAdditionally: ")
		b.WriteString(in.Chunks[1].Chunk.Answer)
	}

	if programs := in.Entities["program"]; len(programs) > 0 {
		b.WriteString("\n\nSince you mentioned ")
		b.WriteString(programs[0])
		b.WriteString(", our admissions team can share program-specific guidance as well.")
	}

	if followUp, ok := followUpSuggestions[in.Intent]; ok {
		b.WriteString("\n\n")
		b.WriteString(followUp)
	}

	return Response{
		Text:            postProcess(b.String()),
		Grounded:        true,
		GroundedChunkID: top.Chunk.ID,
	}
}

func (m *Manager) fallback(in Input) Response {
	text := pickTemplate(unknownTemplates, in.History) + " " + fallbackHelp
	return Response{Text: postProcess(text), FlagForFollowUp: true}
}

// pickTemplate rotates through templates by conversation depth. Deterministic
// by construction: the same history yields the same choice.
func pickTemplate(templates []string, history []session.Interaction) string {
	if len(templates) == 0 {
		return ""
	}
	return templates[len(history)%len(templates)]
}

// postProcess trims, capitalizes the first rune, ensures terminal
// punctuation, and caps runaway length.
func postProcess(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	text = string(runes)

	if last := runes[len(runes)-1]; last != '.' && last != '!' && last != '?' {
		text += "."
	}

	const maxLen = 900
	if len(text) > maxLen {
		cut := text[:maxLen]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		text = cut + "..."
	}
	return text
}
