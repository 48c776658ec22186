package finding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Finding represents a discrete security weakness discovered while scanning
// a protocol implementation's manifest or handshake response.
//
// Findings are independent of one another. Duplicates across detectors for
// the same subject are permitted; the engine does not deduplicate.
type Finding struct {
	// ID is a unique identifier for the finding.
	ID string `json:"id"`

	// Category classifies the vulnerability class of the finding.
	Category Category `json:"category"`

	// Severity indicates the severity level of the finding.
	Severity Severity `json:"severity"`

	// Title is a brief summary of the finding.
	Title string `json:"title"`

	// Description provides detailed information about the finding.
	Description string `json:"description"`

	// Evidence is the offending text that triggered the finding. Secret
	// material is redacted before it is stored here; the full matched
	// credential is never retained.
	Evidence string `json:"evidence,omitempty"`

	// Recommendation provides guidance on fixing or mitigating the issue.
	Recommendation string `json:"recommendation,omitempty"`

	// Subject names the declared sub-entity (tool, skill) that triggered
	// the finding, when one did.
	Subject string `json:"subject,omitempty"`

	// CreatedAt is the timestamp when the finding was created.
	CreatedAt time.Time `json:"created_at"`
}

// New creates a Finding with required fields and a generated ID.
func New(category Category, severity Severity, title, description string) Finding {
	return Finding{
		ID:          uuid.New().String(),
		Category:    category,
		Severity:    severity,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithEvidence returns a copy of the finding with evidence attached.
func (f Finding) WithEvidence(evidence string) Finding {
	f.Evidence = evidence
	return f
}

// WithSubject returns a copy of the finding attributed to a sub-entity.
func (f Finding) WithSubject(subject string) Finding {
	f.Subject = subject
	return f
}

// WithRecommendation returns a copy of the finding with remediation guidance.
func (f Finding) WithRecommendation(rec string) Finding {
	f.Recommendation = rec
	return f
}

// Validate checks if the finding has all required fields and valid values.
func (f Finding) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("finding ID is required")
	}
	if f.Title == "" {
		return fmt.Errorf("title is required")
	}
	if f.Description == "" {
		return fmt.Errorf("description is required")
	}
	if !f.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", f.Category)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", f.Severity)
	}
	if f.CreatedAt.IsZero() {
		return fmt.Errorf("created_at timestamp is required")
	}
	return nil
}
