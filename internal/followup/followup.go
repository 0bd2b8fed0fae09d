package followup

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

// Request asks for a human follow-up on a conversation.
type Request struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	SessionID   string `json:"session_id"`
	InquiryType string `json:"inquiry_type,omitempty"`
}

// Message is an outbound follow-up email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer delivers follow-up messages. The production deployment plugs in a
// real transport; the default just logs.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes the message to the process log instead of sending it.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("followup: would send to=%s subject=%q (%d bytes)", msg.To, msg.Subject, len(msg.Body))
	return nil
}

// MockMailer records messages for tests.
type MockMailer struct {
	mu   sync.Mutex
	Sent []Message
	Err  error
}

func (m *MockMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// InvalidRequestError describes a rejected follow-up request.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid follow-up request: %s %s", e.Field, e.Reason)
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &InvalidRequestError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &InvalidRequestError{Field: "email", Reason: "is required"}
	}
	if !emailRe.MatchString(strings.TrimSpace(r.Email)) {
		return &InvalidRequestError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

// Service composes and sends follow-up emails summarizing the session.
type Service struct {
	store  session.Store
	mailer Mailer
	from   string
}

func NewService(store session.Store, mailer Mailer, fromAddress string) *Service {
	return &Service{store: store, mailer: mailer, from: fromAddress}
}

// Submit validates the request, summarizes the conversation so far, and hands
// the message to the mailer.
func (s *Service) Submit(ctx context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var history []session.Interaction
	if req.SessionID != "" {
		var err error
		// Recent yields an empty history for unknown ids, never an error.
		history, err = s.store.Recent(ctx, req.SessionID, 50)
		if err != nil {
			return fmt.Errorf("load session history: %w", err)
		}
	}

	msg := Message{
		From:    s.from,
		To:      strings.TrimSpace(req.Email),
		Subject: "Your admissions inquiry follow-up",
		Body:    buildBody(req, history),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send follow-up: %w", err)
	}
	return nil
}

func buildBody(req Request, history []session.Interaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", strings.TrimSpace(req.Name))
	b.WriteString("Thank you for chatting with our admissions assistant. ")
	b.WriteString("A member of our admissions team will reach out to you shortly.\n\n")

	if topics := discussedTopics(history); len(topics) > 0 {
		b.WriteString("Topics you asked about:\n")
		for _, topic := range topics {
			fmt.Fprintf(&b, "  - %s\n", topic)
		}
		b.WriteString("\n")
	}

	if steps, ok := nextSteps[strings.TrimSpace(req.InquiryType)]; ok {
		b.WriteString(steps)
		b.WriteString("\n\n")
	}

	b.WriteString("Best regards,\nThe Admissions Team\n")
	return b.String()
}

// discussedTopics maps classified intents in the history to reader-friendly
// topic names, deduplicated and sorted for stable output.
func discussedTopics(history []session.Interaction) []string {
	seen := map[string]struct{}{}
	for _, turn := range history {
		if name, ok := topicNames[turn.Intent]; ok {
			seen[name] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for name := range seen {
		topics = append(topics, name)
	}
	sort.Strings(topics)
	return topics
}

var topicNames = map[string]string{
	"admission_requirements": "Admission requirements",
	"application_deadline":   "Application deadlines",
	"tuition_fees":           "Tuition and fees",
	"programs_offered":       "Academic programs",
	"financial_aid":          "Financial aid and scholarships",
	"contact_info":           "Contact information",
	"campus_visit":           "Campus visits",
	"housing":                "Housing and accommodation",
}

var nextSteps = map[string]string{
	"application": "Next steps: create your applicant account, gather your transcripts and test scores, and submit before the deadline that applies to you.",
	"visit":       "Next steps: pick a visit date that works for you and we will arrange a campus tour with a current student.",
	"financial":   "Next steps: complete the FAFSA and our institutional aid form so we can prepare a personalized aid estimate.",
}
