package nlu

import "testing"

func TestExtractEntities(t *testing.T) {
	e := newEntityExtractor()

	cases := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"email", "reach me at student@example.edu please", "email", "student@example.edu"},
		{"program", "I want to study Computer Science next fall", "program", "computer science"},
		{"money", "is it really $12,000 per year", "money", "$12,000"},
		{"gpa", "my GPA is 3.8 right now", "gpa", "3.8"},
		{"sat", "I scored SAT 1450 last month", "sat_score", "1450"},
		{"act", "with an ACT: 31 composite", "act_score", "31"},
		{"academic level", "I'm a sophomore transfer", "academic_level", "sophomore"},
		{"date", "can I apply before March 1, 2026?", "date", "March 1, 2026"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.text)
			values := got[tc.key]
			if len(values) == 0 {
				t.Fatalf("Extract(%q) missing %q: %v", tc.text, tc.key, got)
			}
			if values[0] != tc.want {
				t.Fatalf("Extract(%q)[%q][0] = %q, want %q", tc.text, tc.key, values[0], tc.want)
			}
		})
	}
}

func TestExtractNoEntities(t *testing.T) {
	e := newEntityExtractor()
	got := e.Extract("tell me more")
	if len(got) != 0 {
		t.Fatalf("Extract = %v, want empty map", got)
	}
}

func TestExtractMultipleOfSameType(t *testing.T) {
	e := newEntityExtractor()
	got := e.Extract("compare engineering and psychology for me")
	if len(got["program"]) != 2 {
		t.Fatalf("program entities = %v, want 2 values", got["program"])
	}
}
