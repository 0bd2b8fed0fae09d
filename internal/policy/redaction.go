package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// RedactPII masks contact and financial identifiers before a message is
// persisted. Prospective students routinely paste emails, phone numbers, and
// sometimes SSNs from financial aid forms into the chat; stored history and
// analytics never need the literal values.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	next = ssnPattern.ReplaceAllString(out, "[REDACTED_SSN]")
	changed = changed || next != out
	out = next

	// Run card redaction before phone to avoid card numbers being classified as phone.
	next = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// Entity types whose values are contact identifiers by definition. Their
// extracted spans are masked wholesale since formats like dotted phone
// numbers slip past the free-text patterns.
var contactEntityMarkers = map[string]string{
	"email": "[REDACTED_EMAIL]",
	"phone": "[REDACTED_PHONE]",
}

// RedactEntities masks PII in extracted entity values. Returns a fresh map so
// the live turn keeps the spans it already consumed; only the stored copy is
// masked. Value counts are preserved for analytics.
func RedactEntities(entities map[string][]string) map[string][]string {
	if len(entities) == 0 {
		return entities
	}
	out := make(map[string][]string, len(entities))
	for entityType, values := range entities {
		marker, contact := contactEntityMarkers[entityType]
		masked := make([]string, len(values))
		for i, v := range values {
			if contact {
				masked[i] = marker
				continue
			}
			masked[i], _ = RedactPII(v)
		}
		out[entityType] = masked
	}
	return out
}
