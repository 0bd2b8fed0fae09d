package followup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PRASANNA-THE-PRASANN1/admission-inquiry-ai/internal/session"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Email: "jordan@example.com", Name: "Jordan"}, false},
		{"missing name", Request{Email: "jordan@example.com"}, true},
		{"missing email", Request{Name: "Jordan"}, true},
		{"malformed email", Request{Email: "not-an-email", Name: "Jordan"}, true},
		{"email without tld", Request{Email: "jordan@localhost", Name: "Jordan"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var ire *InvalidRequestError
				if !errors.As(err, &ire) {
					t.Errorf("Validate() error type = %T, want *InvalidRequestError", err)
				}
			}
		})
	}
}

func seedSession(t *testing.T, store session.Store, sessionID string, intents ...string) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.GetOrCreate(ctx, sessionID); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	for i, intent := range intents {
		err := store.Append(ctx, sessionID, session.Interaction{
			TurnID:    sessionID + "-t" + string(rune('0'+i)),
			SessionID: sessionID,
			Channel:   session.ChannelText,
			Intent:    intent,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func TestSubmitSendsTopicSummary(t *testing.T) {
	store := session.NewInMemoryStore(time.Hour)
	seedSession(t, store, "s1", "greeting", "tuition_fees", "financial_aid", "tuition_fees")

	mailer := &MockMailer{}
	svc := NewService(store, mailer, "admissions@university.edu")

	err := svc.Submit(context.Background(), Request{
		Email:     "jordan@example.com",
		Name:      "Jordan",
		SessionID: "s1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if mailer.Count() != 1 {
		t.Fatalf("sent %d messages, want 1", mailer.Count())
	}

	msg := mailer.Sent[0]
	if msg.To != "jordan@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.From != "admissions@university.edu" {
		t.Errorf("From = %q", msg.From)
	}
	if !strings.Contains(msg.Body, "Dear Jordan") {
		t.Errorf("body missing salutation: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "Tuition and fees") || !strings.Contains(msg.Body, "Financial aid") {
		t.Errorf("body missing discussed topics: %q", msg.Body)
	}
	// Duplicate intents collapse to one topic line.
	if strings.Count(msg.Body, "Tuition and fees") != 1 {
		t.Errorf("duplicate topic lines in body: %q", msg.Body)
	}
}

func TestSubmitWithoutSessionStillSends(t *testing.T) {
	store := session.NewInMemoryStore(time.Hour)
	mailer := &MockMailer{}
	svc := NewService(store, mailer, "admissions@university.edu")

	err := svc.Submit(context.Background(), Request{
		Email:       "casey@example.com",
		Name:        "Casey",
		InquiryType: "visit",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if mailer.Count() != 1 {
		t.Fatalf("sent %d messages, want 1", mailer.Count())
	}
	if !strings.Contains(mailer.Sent[0].Body, "campus tour") {
		t.Errorf("body missing inquiry next steps: %q", mailer.Sent[0].Body)
	}
}

func TestSubmitRejectsInvalid(t *testing.T) {
	svc := NewService(session.NewInMemoryStore(time.Hour), &MockMailer{}, "x@y.com")
	if err := svc.Submit(context.Background(), Request{Email: "bad"}); err == nil {
		t.Fatal("Submit() accepted invalid request")
	}
}

func TestSubmitPropagatesMailerFailure(t *testing.T) {
	mailer := &MockMailer{Err: errors.New("smtp down")}
	svc := NewService(session.NewInMemoryStore(time.Hour), mailer, "x@y.com")
	err := svc.Submit(context.Background(), Request{Email: "a@b.co", Name: "A"})
	if err == nil {
		t.Fatal("Submit() swallowed mailer failure")
	}
}
