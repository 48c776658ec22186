package finding

import (
	"testing"
	"time"
)

func validFinding() Finding {
	return New(
		CategoryPromptInjection,
		SeverityCritical,
		"Hidden instruction in tool description",
		"The description of tool 'fetch_url' contains an instruction directed at the model.",
	)
}

func TestNew(t *testing.T) {
	f := validFinding()

	if f.ID == "" {
		t.Error("expected generated ID")
	}
	if f.Category != CategoryPromptInjection {
		t.Errorf("Category = %s", f.Category)
	}
	if f.Severity != SeverityCritical {
		t.Errorf("Severity = %s", f.Severity)
	}
	if f.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() on new finding: %v", err)
	}
}

func TestFinding_Builders(t *testing.T) {
	f := validFinding().
		WithEvidence("do not mention").
		WithSubject("fetch_url").
		WithRecommendation("Remove model-directed language from the description.")

	if f.Evidence != "do not mention" {
		t.Errorf("Evidence = %q", f.Evidence)
	}
	if f.Subject != "fetch_url" {
		t.Errorf("Subject = %q", f.Subject)
	}
	if f.Recommendation == "" {
		t.Error("expected recommendation")
	}
}

func TestFinding_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Finding)
		wantErr bool
	}{
		{"valid", func(f *Finding) {}, false},
		{"missing id", func(f *Finding) { f.ID = "" }, true},
		{"missing title", func(f *Finding) { f.Title = "" }, true},
		{"missing description", func(f *Finding) { f.Description = "" }, true},
		{"bad category", func(f *Finding) { f.Category = "nope" }, true},
		{"bad severity", func(f *Finding) { f.Severity = "nope" }, true},
		{"zero timestamp", func(f *Finding) { f.CreatedAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFinding()
			tt.mutate(&f)
			if err := f.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.IsValid() {
			t.Errorf("category %s should be valid", c)
		}
		if c.DisplayName() == string(c) {
			t.Errorf("category %s missing display name", c)
		}
		if c.Description() == "" {
			t.Errorf("category %s missing description", c)
		}
	}
	if Category("made_up").IsValid() {
		t.Error("unknown category should be invalid")
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("tool_shadowing")
	if err != nil || got != CategoryToolShadowing {
		t.Errorf("ParseCategory = %v, %v", got, err)
	}
	if _, err := ParseCategory("xss"); err == nil {
		t.Error("expected error for unknown category")
	}
}
